package cadence

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedStride sends a resting sample followed by a spike, the shape of one footfall
func feedStride(d *StepDetector, at time.Time) bool {
	d.OnSample(sample(at, 0, 9.81, 0))
	return d.OnSample(sample(at.Add(20*time.Millisecond), 0, 9.81+6, 0))
}

func TestStepDetectorRisingEdge(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DefaultDetectorConfig())

	require.False(t, d.OnSample(sample(t0, 0, 9.81, 0)), "seed sample")
	assert.True(t, d.OnSample(sample(t0.Add(20*time.Millisecond), 0, 15.81, 0)), "crossing fires")
	assert.False(t, d.OnSample(sample(t0.Add(40*time.Millisecond), 0, 17.81, 0)), "staying above does not fire again")
	assert.Equal(t, 1, d.TotalSteps())
}

func TestStepDetectorCooldown(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DefaultDetectorConfig())

	require.True(t, feedStride(d, t0))
	// next crossing 100ms later is suppressed
	assert.False(t, feedStride(d, t0.Add(80*time.Millisecond)))
	// exactly at the cooldown it is accepted
	assert.True(t, d.SimulateStep(t0.Add(20*time.Millisecond+StepCooldown)))
	assert.Equal(t, 2, d.TotalSteps())
	assert.Len(t, d.Steps(), 2)
}

func TestStepDetectorSimulateStepObeysCooldown(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DefaultDetectorConfig())

	assert.True(t, d.SimulateStep(t0))
	assert.False(t, d.SimulateStep(t0.Add(199*time.Millisecond)))
	assert.True(t, d.SimulateStep(t0.Add(400*time.Millisecond)))
	assert.Equal(t, 2, d.TotalSteps())
}

func TestStepDetectorIgnoresMalformedSamples(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DefaultDetectorConfig())

	d.OnSample(sample(t0, 0, 9.81, 0))
	assert.False(t, d.OnSample(sample(t0.Add(20*time.Millisecond), 0, math.NaN(), 0)))
	assert.False(t, d.OnSample(MotionSample{Time: t0, Accel: [3]float64{math.Inf(1), 0, 0}}))
	assert.Zero(t, d.TotalSteps())
}

func TestStepDetectorRawAxisMode(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DetectorConfig{Mode: ModeRawAxis})
	require.Equal(t, DefaultRawAxisThreshold, d.cfg.Threshold)

	assert.False(t, d.OnSample(sample(t0, 0, 9.81, 0)))
	assert.True(t, d.OnSample(sample(t0.Add(50*time.Millisecond), 0, 16, 0)))
	assert.False(t, d.OnSample(sample(t0.Add(100*time.Millisecond), 0, 14, 0)))
	assert.False(t, d.OnSample(sample(t0.Add(150*time.Millisecond), 0, 16, 0)), "within cooldown")
	assert.False(t, d.OnSample(sample(t0.Add(300*time.Millisecond), 0, 9, 0)))
	assert.True(t, d.OnSample(sample(t0.Add(400*time.Millisecond), 0, 15.5, 0)))
	assert.Equal(t, 2, d.TotalSteps())
}

func TestStepDetectorPrune(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DefaultDetectorConfig())
	for i := 0; i < 5; i++ {
		d.SimulateStep(t0.Add(time.Duration(i) * 20 * time.Second))
	}

	d.Prune(t0.Add(40 * time.Second))
	steps := d.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, t0.Add(60*time.Second), steps[0])
	assert.Equal(t, 5, d.TotalSteps(), "pruning keeps the session total")
}

func TestStepDetectorStepsIsACopy(t *testing.T) {
	d := NewStepDetector(DefaultDetectorConfig())
	d.SimulateStep(time.Unix(1000, 0))

	steps := d.Steps()
	steps[0] = time.Time{}
	assert.Equal(t, time.Unix(1000, 0), d.Steps()[0])
}

func TestStepDetectorReset(t *testing.T) {
	t0 := time.Unix(1000, 0)
	d := NewStepDetector(DefaultDetectorConfig())
	feedStride(d, t0)
	d.Reset()

	assert.Zero(t, d.TotalSteps())
	assert.Empty(t, d.Steps())
	assert.Equal(t, [3]float64{}, d.filter.Gravity())
	assert.True(t, d.SimulateStep(t0.Add(time.Millisecond)), "cooldown cleared")
}
