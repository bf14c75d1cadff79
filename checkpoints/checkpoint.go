package checkpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tsawler/go-lrschedule/training"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrNoScheduler is returned when a checkpoint carries no scheduler state
var ErrNoScheduler = errors.New("checkpoint has no scheduler state")

// CheckpointFormat defines the serialization format
type CheckpointFormat int

const (
	FormatJSON CheckpointFormat = iota
	FormatProto
)

func (cf CheckpointFormat) String() string {
	switch cf {
	case FormatJSON:
		return "JSON"
	case FormatProto:
		return "Proto"
	default:
		return "Unknown"
	}
}

// Checkpoint captures training progress together with the learning rate
// schedule needed to resume it
type Checkpoint struct {
	// Training state
	TrainingState TrainingState `json:"training_state"`

	// Scheduler configuration (if available)
	SchedulerState *training.SchedulerConfig `json:"scheduler_state,omitempty"`

	// Metadata
	Metadata CheckpointMetadata `json:"metadata"`
}

// TrainingState captures the current training progress
type TrainingState struct {
	Epoch        int     `json:"epoch"`
	Step         int     `json:"step"`
	LearningRate float64 `json:"learning_rate"`
	BestLoss     float64 `json:"best_loss"`
	TotalSteps   int     `json:"total_steps"`
}

// CheckpointMetadata contains checkpoint metadata
type CheckpointMetadata struct {
	Version     string    `json:"version"`
	Framework   string    `json:"framework"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// NewCheckpoint records the scheduler and the rate it yields at step
func NewCheckpoint(s training.LRScheduler, epoch, step int) (*Checkpoint, error) {
	lr, err := s.LearningRate(step)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate scheduler at step %d: %w", step, err)
	}

	state := training.Serialize(s)
	cp := &Checkpoint{
		TrainingState: TrainingState{
			Epoch:        epoch,
			Step:         step,
			LearningRate: lr,
		},
		SchedulerState: &state,
	}
	if total, ok := s.Config()[training.KeyTotalSteps].(int); ok {
		cp.TrainingState.TotalSteps = total
	}
	return cp, nil
}

// Scheduler rebuilds the learning rate schedule stored in the checkpoint
func (c *Checkpoint) Scheduler() (training.LRScheduler, error) {
	if c.SchedulerState == nil {
		return nil, ErrNoScheduler
	}
	return training.Deserialize(*c.SchedulerState)
}

// CheckpointSaver handles saving checkpoints in various formats
type CheckpointSaver struct {
	format CheckpointFormat
}

// NewCheckpointSaver creates a new checkpoint saver for the specified format
func NewCheckpointSaver(format CheckpointFormat) *CheckpointSaver {
	return &CheckpointSaver{
		format: format,
	}
}

// SaveCheckpoint saves a checkpoint
func (cs *CheckpointSaver) SaveCheckpoint(checkpoint *Checkpoint, path string) error {
	switch cs.format {
	case FormatJSON:
		return cs.saveJSON(checkpoint, path)
	case FormatProto:
		return cs.saveProto(checkpoint, path)
	default:
		return fmt.Errorf("unsupported checkpoint format: %s", cs.format.String())
	}
}

// LoadCheckpoint loads a checkpoint
func (cs *CheckpointSaver) LoadCheckpoint(path string) (*Checkpoint, error) {
	switch cs.format {
	case FormatJSON:
		return cs.loadJSON(path)
	case FormatProto:
		return cs.loadProto(path)
	default:
		return nil, fmt.Errorf("unsupported checkpoint format: %s", cs.format.String())
	}
}

func setMetadataDefaults(checkpoint *Checkpoint) {
	if checkpoint.Metadata.Framework == "" {
		checkpoint.Metadata.Framework = "go-lrschedule"
		checkpoint.Metadata.Version = "1.0.0"
		checkpoint.Metadata.CreatedAt = time.Now()
	}
}

// saveJSON saves checkpoint in JSON format
func (cs *CheckpointSaver) saveJSON(checkpoint *Checkpoint, path string) error {
	setMetadataDefaults(checkpoint)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(checkpoint); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	return nil
}

// loadJSON loads checkpoint from JSON format
func (cs *CheckpointSaver) loadJSON(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	decoder := json.NewDecoder(file)
	decoder.UseNumber()

	if err := decoder.Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	return &checkpoint, nil
}

// saveProto saves checkpoint as a binary google.protobuf.Struct
func (cs *CheckpointSaver) saveProto(checkpoint *Checkpoint, path string) error {
	setMetadataDefaults(checkpoint)

	jsonData, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(jsonData, &fields); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("failed to build checkpoint message: %w", err)
	}

	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint message: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}

	return nil
}

// loadProto loads checkpoint from a binary google.protobuf.Struct
func (cs *CheckpointSaver) loadProto(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint message: %w", err)
	}

	jsonData, err := protojson.Marshal(&msg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(jsonData, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	return &checkpoint, nil
}
