package cadence

import "time"

// StepCooldown is the minimum spacing between accepted steps (caps at 300 SPM)
const StepCooldown = 200 * time.Millisecond

// StepLogRetention bounds how far back the step log reaches
const StepLogRetention = 60 * time.Second

// DetectorMode selects the signal the step detector thresholds
type DetectorMode string

const (
	// ModeLinear fires on a rising edge of the filtered linear-acceleration magnitude
	ModeLinear DetectorMode = "linear"
	// ModeRawAxis fires on a rising edge of the raw Y axis, gravity included
	ModeRawAxis DetectorMode = "raw-axis"
)

// Default thresholds per mode, in m/s²
const (
	DefaultLinearThreshold  = 1.8
	DefaultRawAxisThreshold = 15.0
)

// DefaultThreshold returns the rising-edge threshold used by mode
func DefaultThreshold(mode DetectorMode) float64 {
	if mode == ModeRawAxis {
		return DefaultRawAxisThreshold
	}
	return DefaultLinearThreshold
}

// DetectorConfig tunes the step detector. A non-positive Threshold selects
// the mode's default.
type DetectorConfig struct {
	Mode      DetectorMode
	Threshold float64
	Alpha     float64
}

// DefaultDetectorConfig returns rising-edge detection on the filtered magnitude
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Mode:      ModeLinear,
		Threshold: DefaultLinearThreshold,
		Alpha:     DefaultAlpha,
	}
}

// StepDetector turns motion samples into step events. It exclusively owns
// the gravity estimate, the step log and the total step counter.
type StepDetector struct {
	cfg      DetectorConfig
	filter   *GravityFilter
	prev     float64
	lastStep time.Time
	log      []time.Time
	total    int
}

// NewStepDetector creates a detector, filling unset config fields with defaults
func NewStepDetector(cfg DetectorConfig) *StepDetector {
	if cfg.Mode == "" {
		cfg.Mode = ModeLinear
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold(cfg.Mode)
	}
	return &StepDetector{
		cfg:    cfg,
		filter: NewGravityFilter(cfg.Alpha),
	}
}

// OnSample feeds one sample and reports whether it produced a step.
// Malformed samples are skipped silently.
func (d *StepDetector) OnSample(s MotionSample) bool {
	var signal float64
	switch d.cfg.Mode {
	case ModeRawAxis:
		if !s.Valid() {
			return false
		}
		signal = s.Accel[1]
	default:
		mag, ok := d.filter.Filter(s)
		if !ok {
			return false
		}
		signal = mag
	}

	rising := d.prev <= d.cfg.Threshold && signal > d.cfg.Threshold
	d.prev = signal
	if !rising {
		return false
	}
	return d.accept(s.Time)
}

// SimulateStep injects a step at now, subject to the same cooldown
func (d *StepDetector) SimulateStep(now time.Time) bool {
	return d.accept(now)
}

func (d *StepDetector) accept(at time.Time) bool {
	if !d.lastStep.IsZero() && at.Sub(d.lastStep) < StepCooldown {
		return false
	}
	// Keep the log monotonic even if a source delivers a late timestamp.
	if n := len(d.log); n > 0 && at.Before(d.log[n-1]) {
		at = d.log[n-1]
	}
	d.lastStep = at
	d.log = append(d.log, at)
	d.total++
	return true
}

// Prune drops step log entries at or before cutoff
func (d *StepDetector) Prune(cutoff time.Time) {
	i := 0
	for i < len(d.log) && !d.log[i].After(cutoff) {
		i++
	}
	if i > 0 {
		d.log = append(d.log[:0], d.log[i:]...)
	}
}

// Steps returns a read-only copy of the step log
func (d *StepDetector) Steps() []time.Time {
	out := make([]time.Time, len(d.log))
	copy(out, d.log)
	return out
}

// TotalSteps returns the number of steps accepted since the last reset
func (d *StepDetector) TotalSteps() int {
	return d.total
}

// Reset clears the step log, counters and gravity estimate
func (d *StepDetector) Reset() {
	d.filter.Reset()
	d.prev = 0
	d.lastStep = time.Time{}
	d.log = nil
	d.total = 0
}
