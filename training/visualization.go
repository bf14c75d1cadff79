package training

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlotType represents different types of plots that can be generated
type PlotType string

const (
	LearningRateSchedule PlotType = "learning_rate_schedule"
)

// PlotData represents the universal JSON format for the sidecar plotting service
type PlotData struct {
	// Metadata
	PlotType  PlotType  `json:"plot_type"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	ModelName string    `json:"model_name"`

	Series []SeriesData `json:"series"`

	Config PlotConfig `json:"config"`

	// Scheduler configuration the series was sampled from
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// SeriesData represents a single data series in a plot
type SeriesData struct {
	Name  string                 `json:"name"`
	Type  string                 `json:"type"` // "line", "scatter"
	Data  []DataPoint            `json:"data"`
	Style map[string]interface{} `json:"style,omitempty"`
}

// DataPoint represents a single data point
type DataPoint struct {
	X     interface{} `json:"x"`
	Y     interface{} `json:"y"`
	Label string      `json:"label,omitempty"`
}

// PlotConfig contains plot-specific configuration
type PlotConfig struct {
	XAxisLabel  string `json:"x_axis_label"`
	YAxisLabel  string `json:"y_axis_label"`
	XAxisScale  string `json:"x_axis_scale"` // "linear", "log"
	YAxisScale  string `json:"y_axis_scale"` // "linear", "log"
	ShowLegend  bool   `json:"show_legend"`
	ShowGrid    bool   `json:"show_grid"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Interactive bool   `json:"interactive"`
}

const maxPreallocatedPoints = 4096

// SchedulePoint is one sampled (step, learning rate) pair
type SchedulePoint struct {
	Step         int     `json:"step"`
	LearningRate float64 `json:"learning_rate"`
}

// SampleSchedule evaluates s at steps 0, stride, 2*stride, ... up to lastStep.
// lastStep itself is always included.
func SampleSchedule(s LRScheduler, lastStep, stride int) ([]SchedulePoint, error) {
	if lastStep < 0 {
		return nil, fmt.Errorf("last step must be non-negative, got %d", lastStep)
	}
	if stride <= 0 {
		stride = 1
	}

	capacity := maxPreallocatedPoints
	if n := lastStep / stride; n < maxPreallocatedPoints {
		capacity = n + 2
	}

	points := make([]SchedulePoint, 0, capacity)
	step := 0
	for {
		lr, err := s.LearningRate(step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		points = append(points, SchedulePoint{Step: step, LearningRate: lr})
		if step == lastStep {
			break
		}
		// Checked before adding so step never overflows
		if step > lastStep-stride {
			step = lastStep
		} else {
			step += stride
		}
	}
	return points, nil
}

// SchedulePlot generates learning rate schedule plot data by sampling s
func SchedulePlot(s LRScheduler, modelName string, lastStep, stride int) (PlotData, error) {
	points, err := SampleSchedule(s, lastStep, stride)
	if err != nil {
		return PlotData{}, err
	}

	series := []SeriesData{
		{
			Name: "Learning Rate",
			Type: "line",
			Data: make([]DataPoint, len(points)),
			Style: map[string]interface{}{
				"color":      "#6C5CE7",
				"line_width": 2,
			},
		},
	}

	for i, p := range points {
		series[0].Data[i] = DataPoint{
			X: p.Step,
			Y: p.LearningRate,
		}
	}

	return PlotData{
		PlotType:  LearningRateSchedule,
		Title:     fmt.Sprintf("Learning Rate Schedule - %s", modelName),
		Timestamp: time.Now(),
		ModelName: modelName,
		Series:    series,
		Config: PlotConfig{
			XAxisLabel: "Step",
			YAxisLabel: "Learning Rate",
			XAxisScale: "linear",
			// The cosine tail reaches exactly 0, which a log axis cannot show
			YAxisScale:  "linear",
			ShowLegend:  true,
			ShowGrid:    true,
			Width:       800,
			Height:      400,
			Interactive: true,
		},
		Metrics: map[string]interface{}{
			"scheduler": s.Name(),
			"config":    s.Config(),
		},
	}, nil
}

// ToJSON converts plot data to JSON string
func (pd PlotData) ToJSON() (string, error) {
	jsonData, err := json.MarshalIndent(pd, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plot data to JSON: %w", err)
	}
	return string(jsonData), nil
}
