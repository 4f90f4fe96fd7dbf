package cadence

import "math"

// DefaultAlpha is the smoothing coefficient of the gravity low-pass filter
const DefaultAlpha = 0.8

// GravityFilter separates gravity from linear acceleration with a one-pole
// low-pass filter per axis.
type GravityFilter struct {
	alpha   float64
	gravity [3]float64
	seeded  bool
}

// NewGravityFilter creates a filter with the given smoothing coefficient
func NewGravityFilter(alpha float64) *GravityFilter {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &GravityFilter{alpha: alpha}
}

// Filter updates the gravity estimate and returns the magnitude of the
// linear acceleration. ok is false for samples with a missing axis, which
// leave the estimate untouched.
func (f *GravityFilter) Filter(s MotionSample) (magnitude float64, ok bool) {
	if !s.Valid() {
		return 0, false
	}

	// first sample after a reset seeds the estimate
	if !f.seeded {
		f.gravity = s.Accel
		f.seeded = true
		return 0, true
	}

	var sum float64
	for i, v := range s.Accel {
		f.gravity[i] = f.alpha*f.gravity[i] + (1-f.alpha)*v
		linear := v - f.gravity[i]
		sum += linear * linear
	}
	return math.Sqrt(sum), true
}

// Gravity returns the current gravity estimate
func (f *GravityFilter) Gravity() [3]float64 {
	return f.gravity
}

// Reset zeroes the gravity estimate
func (f *GravityFilter) Reset() {
	f.gravity = [3]float64{}
	f.seeded = false
}
