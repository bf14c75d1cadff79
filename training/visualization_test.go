package training

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSchedule(t *testing.T) {
	s := NewWarmupCosineScheduler(0.1, 1000, 0.01, 100)

	points, err := SampleSchedule(s, 1000, 300)
	require.NoError(t, err)

	steps := make([]int, len(points))
	for i, p := range points {
		steps[i] = p.Step
	}
	assert.Equal(t, []int{0, 300, 600, 900, 1000}, steps)
	assert.InDelta(t, 0.01, points[0].LearningRate, 1e-12)
	assert.InDelta(t, 0.0, points[len(points)-1].LearningRate, 1e-12)
}

func TestSampleScheduleDefaults(t *testing.T) {
	points, err := SampleSchedule(NewConstantScheduler(0.5), 3, 0)
	require.NoError(t, err)
	assert.Len(t, points, 4)

	points, err = SampleSchedule(NewConstantScheduler(0.5), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []SchedulePoint{{Step: 0, LearningRate: 0.5}}, points)

	_, err = SampleSchedule(NewConstantScheduler(0.5), -1, 1)
	assert.Error(t, err)
}

func TestSampleScheduleNearMaxInt(t *testing.T) {
	stride := math.MaxInt/2 + 1
	points, err := SampleSchedule(NewConstantScheduler(0.5), math.MaxInt, stride)
	require.NoError(t, err)

	steps := make([]int, len(points))
	for i, p := range points {
		steps[i] = p.Step
	}
	assert.Equal(t, []int{0, stride, math.MaxInt}, steps)

	points, err = SampleSchedule(NewConstantScheduler(0.5), math.MaxInt, math.MaxInt/10000)
	require.NoError(t, err)
	assert.Equal(t, 0, points[0].Step)
	assert.Equal(t, math.MaxInt, points[len(points)-1].Step)
	for i := 1; i < len(points); i++ {
		require.Greater(t, points[i].Step, points[i-1].Step)
	}
}

func TestSampleSchedulePropagatesConfigurationErrors(t *testing.T) {
	_, err := SampleSchedule(NewWarmupCosineScheduler(0.1, 10, 0.01, 20), 10, 1)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "step 0")
}

func TestSchedulePlot(t *testing.T) {
	s := NewWarmupCosineScheduler(0.1, 100, 0.01, 10)

	plot, err := SchedulePlot(s, "resnet", 100, 10)
	require.NoError(t, err)

	assert.Equal(t, LearningRateSchedule, plot.PlotType)
	assert.Equal(t, "Learning Rate Schedule - resnet", plot.Title)
	require.Len(t, plot.Series, 1)
	assert.Len(t, plot.Series[0].Data, 11)
	assert.Equal(t, 10, plot.Series[0].Data[1].X)
	assert.InDelta(t, 0.1, plot.Series[0].Data[1].Y, 1e-12)
	assert.Equal(t, WarmupCosineName, plot.Metrics["scheduler"])

	out, err := plot.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "learning_rate_schedule", decoded["plot_type"])
}
