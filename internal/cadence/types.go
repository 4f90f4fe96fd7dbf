// Package cadence turns a stream of accelerometer samples into a live
// steps-per-minute reading and drives a target cadence that ramps between
// a low and a high bound.
package cadence

import (
	"math"
	"time"
)

// Status is the session status signal driven by the caller
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// BeatFrequency selects how many feedback pulses are emitted per step
type BeatFrequency string

const (
	BeatStep  BeatFrequency = "step"  // one pulse per step
	BeatCycle BeatFrequency = "cycle" // one pulse per leg cycle (two steps)
)

// Multiplier returns the pulse interval multiplier for the beat frequency
func (b BeatFrequency) Multiplier() float64 {
	if b == BeatCycle {
		return 2
	}
	return 1
}

// Settings is the immutable-during-session cadence configuration.
// Durations and intervals are in seconds, rates in SPM.
type Settings struct {
	Min                  float64
	Max                  float64
	Adjust               bool
	HoldLowDuration      float64
	AdjustUpRate         float64
	AdjustUpInterval     float64
	HoldHighDuration     float64
	AdjustDownRate       float64
	AdjustDownInterval   float64
	AnnouncementInterval float64 // 0 disables announcements
	BeatFrequency        BeatFrequency
}

// Midpoint returns the static target used when adjustment is disabled
func (s Settings) Midpoint() float64 {
	return (s.Min + s.Max) / 2
}

// seconds converts a settings value in seconds to a duration
func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// MotionSample is one accelerometer reading in m/s², possibly including gravity.
// A missing axis is represented as NaN.
type MotionSample struct {
	Time  time.Time
	Accel [3]float64
}

// Valid reports whether every axis carries a finite value
func (s MotionSample) Valid() bool {
	for _, v := range s.Accel {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MotionSource is the subscribe/unsubscribe capability for motion samples.
// Subscribe starts delivering samples to handler; the returned function stops
// delivery and releases the underlying sensor.
type MotionSource interface {
	Subscribe(handler func(MotionSample)) (unsubscribe func(), err error)
}

// Zone classifies a cadence reading relative to the target
type Zone int

const (
	ZoneNone Zone = iota // no plausible reading
	ZoneBelow
	ZoneIn
	ZoneAbove
)

func (z Zone) String() string {
	switch z {
	case ZoneBelow:
		return "below"
	case ZoneIn:
		return "in-zone"
	case ZoneAbove:
		return "above"
	default:
		return "none"
	}
}

// Pulser plays a short feedback cue. Implementations must not block.
type Pulser interface {
	Pulse(kind Zone) error
}

// Announcer speaks text aloud. It may block until speech completes.
type Announcer interface {
	Announce(text string) error
}

// Reading is the live snapshot exposed to presentation
type Reading struct {
	Status     Status
	Cadence    int
	Target     float64
	TotalSteps int
	Zone       Zone
	Suppressed bool // feedback suppressed because cadence is below the validity floor
	Phase      Phase
	Warning    string
}

// Tick is what the engine hands to its observer once per tick
type Tick struct {
	Time       time.Time
	Cadence    int
	Target     float64
	TotalSteps int
	Zone       Zone
	Suppressed bool
	Interval   time.Duration
}

// SessionObserver consumes session lifecycle events and the tick stream.
// All methods are called from the engine's serialized context.
type SessionObserver interface {
	SessionStarted(now time.Time, settings Settings)
	SessionPaused(now time.Time)
	SessionResumed(now time.Time)
	SessionStopped(now time.Time)
	Tick(t Tick)
}
