package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// SchedulerConfig is the serialized form of a scheduler: its registered
// name plus the flat mapping returned by LRScheduler.Config
type SchedulerConfig struct {
	ClassName string         `json:"class_name" yaml:"class_name"`
	Config    map[string]any `json:"config" yaml:"config"`
}

// LoadSchedulerConfig reads a SchedulerConfig from a YAML or JSON file.
// Files ending in .json are decoded as JSON, everything else as YAML.
func LoadSchedulerConfig(path string) (SchedulerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SchedulerConfig{}, fmt.Errorf("failed to read scheduler config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseSchedulerJSON(data)
	}
	return ParseSchedulerYAML(data)
}

// ParseSchedulerJSON decodes a JSON scheduler config, keeping numbers exact
func ParseSchedulerJSON(data []byte) (SchedulerConfig, error) {
	var cfg SchedulerConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&cfg); err != nil {
		return SchedulerConfig{}, fmt.Errorf("failed to decode scheduler config: %w", err)
	}
	return cfg, nil
}

// ParseSchedulerYAML decodes a YAML scheduler config
func ParseSchedulerYAML(data []byte) (SchedulerConfig, error) {
	var cfg SchedulerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SchedulerConfig{}, fmt.Errorf("failed to decode scheduler config: %w", err)
	}
	return cfg, nil
}

// YAML renders the config as YAML
func (c SchedulerConfig) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scheduler config to YAML: %w", err)
	}
	return data, nil
}

// ToStruct converts a scheduler config mapping to a protobuf Struct
func ToStruct(config map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(config)
	if err != nil {
		return nil, fmt.Errorf("failed to convert scheduler config to protobuf: %w", err)
	}
	return s, nil
}

// FromStruct converts a protobuf Struct back to a config mapping.
// Numbers come back as float64; the FromConfig functions accept that.
func FromStruct(s *structpb.Struct) map[string]any {
	if s == nil {
		return nil
	}
	return s.AsMap()
}

func lookup(config map[string]any, key string) (any, error) {
	v, ok := config[key]
	if !ok || v == nil {
		return nil, configError(key, "missing value")
	}
	return v, nil
}

func floatField(config map[string]any, key string) (float64, error) {
	v, err := lookup(config, key)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, configError(key, fmt.Sprintf("expected a number, got %T", v))
	}
	return f, nil
}

func intField(config map[string]any, key string) (int, error) {
	v, err := lookup(config, key)
	if err != nil {
		return 0, err
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
	}

	f, ok := toFloat(v)
	if !ok {
		return 0, configError(key, fmt.Sprintf("expected an integer, got %T", v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, configError(key, fmt.Sprintf("expected an integer, got %v", f))
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, configError(key, fmt.Sprintf("%v is out of range", f))
	}
	return int(f), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
