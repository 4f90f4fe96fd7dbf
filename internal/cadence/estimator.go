package cadence

import (
	"math"
	"time"
)

// RecentWindow is the trailing slice of the step log used for a reading
const RecentWindow = 5 * time.Second

// Estimator computes steps per minute from a step log snapshot. The only state
// it keeps is the previous reading, which it holds when data is insufficient.
type Estimator struct {
	cadence int
}

// Recompute derives the cadence at now from steps, a chronologically ordered
// log that the caller has already pruned to the retention window.
//
// Two or more steps in the recent window give a fresh reading; an empty log
// means the runner stopped and resets to zero; anything else holds the
// previous reading so a single isolated step neither spikes nor drops it.
func (e *Estimator) Recompute(now time.Time, steps []time.Time) int {
	if len(steps) == 0 {
		e.cadence = 0
		return 0
	}

	since := now.Add(-RecentWindow)
	first := -1
	for i, ts := range steps {
		if ts.After(since) {
			first = i
			break
		}
	}
	if first < 0 {
		return e.cadence
	}

	count := len(steps) - first
	elapsed := now.Sub(steps[first]).Seconds()
	if count < 2 || elapsed <= 0 {
		return e.cadence
	}

	e.cadence = int(math.Round(float64(count) / elapsed * 60))
	return e.cadence
}

// Cadence returns the last reading
func (e *Estimator) Cadence() int {
	return e.cadence
}

// Reset zeroes the reading
func (e *Estimator) Reset() {
	e.cadence = 0
}
