// Command lrcurve prints the learning rates a schedule produces.
//
// Usage:
//
//	lrcurve -base 0.1 -total 1000 -warmup-lr 0.01 -warmup-steps 100 -every 50
//	lrcurve -config schedule.yaml -format plot
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/tsawler/go-lrschedule/training"
)

type options struct {
	base        float64
	total       int
	warmupLR    float64
	warmupSteps int
	configPath  string
	every       int
	last        int
	format      string
	model       string
	sendURL     string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("lrcurve", flag.ContinueOnError)
	fs.Float64Var(&opts.base, "base", 0.1, "peak learning rate reached after warmup")
	fs.IntVar(&opts.total, "total", 1000, "total training steps")
	fs.Float64Var(&opts.warmupLR, "warmup-lr", 0.0, "learning rate at step 0")
	fs.IntVar(&opts.warmupSteps, "warmup-steps", 0, "number of linear warmup steps")
	fs.StringVar(&opts.configPath, "config", "", "YAML or JSON scheduler config (overrides the schedule flags)")
	fs.IntVar(&opts.every, "every", 1, "print every N-th step")
	fs.IntVar(&opts.last, "last", -1, "last step to print (default: the schedule's total steps)")
	fs.StringVar(&opts.format, "format", "table", "output format: table, json, plot or yaml")
	fs.StringVar(&opts.model, "model", "model", "model name used in plot titles")
	fs.StringVar(&opts.sendURL, "send", "", "also post the plot to the sidecar plotting service at this URL")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func buildScheduler(opts options) (training.LRScheduler, error) {
	if opts.configPath == "" {
		s := training.NewWarmupCosineScheduler(opts.base, opts.total, opts.warmupLR, opts.warmupSteps)
		return s, s.Validate()
	}

	cfg, err := training.LoadSchedulerConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	s, err := training.Deserialize(cfg)
	if err != nil {
		return nil, err
	}
	if v, ok := s.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func lastStep(s training.LRScheduler, opts options) int {
	if opts.last >= 0 {
		return opts.last
	}
	config := s.Config()
	if total, ok := config[training.KeyTotalSteps].(int); ok {
		return total
	}
	if tMax, ok := config[training.KeyTMax].(int); ok {
		return tMax
	}
	return opts.total
}

func run(w io.Writer, opts options) error {
	s, err := buildScheduler(opts)
	if err != nil {
		return err
	}
	last := lastStep(s, opts)

	if opts.sendURL != "" {
		if err := sendPlot(s, opts, last); err != nil {
			return err
		}
	}

	switch opts.format {
	case "table":
		points, err := training.SampleSchedule(s, last, opts.every)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STEP\tLEARNING RATE")
		for _, p := range points {
			fmt.Fprintf(tw, "%d\t%.8g\n", p.Step, p.LearningRate)
		}
		return tw.Flush()

	case "json":
		points, err := training.SampleSchedule(s, last, opts.every)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(points)

	case "plot":
		plot, err := training.SchedulePlot(s, opts.model, last, opts.every)
		if err != nil {
			return err
		}
		out, err := plot.ToJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err

	case "yaml":
		data, err := training.Serialize(s).YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}
}

func sendPlot(s training.LRScheduler, opts options, last int) error {
	plot, err := training.SchedulePlot(s, opts.model, last, opts.every)
	if err != nil {
		return err
	}

	config := training.DefaultPlottingServiceConfig()
	config.BaseURL = opts.sendURL
	resp, err := training.NewPlottingService(config).SendPlotDataWithRetry(context.Background(), plot)
	if err != nil {
		return err
	}
	log.Printf("plot sent: %s", resp.ViewURL)
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("lrcurve: ")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if err := run(os.Stdout, opts); err != nil {
		log.Fatalf("%v", err)
	}
}
