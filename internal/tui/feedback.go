package tui

import (
	"sync"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// Feedback sits between the engine and the real capabilities so the live
// screen can flash on every pulse and show the last spoken text.
type Feedback struct {
	pulser    cadence.Pulser
	announcer cadence.Announcer

	mu       sync.Mutex
	pulseAt  time.Time
	zone     cadence.Zone
	pulses   int
	spoken   string
	spokenAt time.Time
}

// FeedbackState is a copy of what Feedback last saw
type FeedbackState struct {
	PulseAt  time.Time
	Zone     cadence.Zone
	Pulses   int
	Spoken   string
	SpokenAt time.Time
}

// NewFeedback wraps pulser and announcer, either of which may be nil
func NewFeedback(pulser cadence.Pulser, announcer cadence.Announcer) *Feedback {
	return &Feedback{pulser: pulser, announcer: announcer}
}

// Pulse implements cadence.Pulser
func (f *Feedback) Pulse(kind cadence.Zone) error {
	f.mu.Lock()
	f.pulseAt = time.Now()
	f.zone = kind
	f.pulses++
	f.mu.Unlock()

	if f.pulser == nil {
		return nil
	}
	return f.pulser.Pulse(kind)
}

// Announce implements cadence.Announcer
func (f *Feedback) Announce(text string) error {
	f.mu.Lock()
	f.spoken = text
	f.spokenAt = time.Now()
	f.mu.Unlock()

	if f.announcer == nil {
		return nil
	}
	return f.announcer.Announce(text)
}

// State returns the latest pulse and announcement
func (f *Feedback) State() FeedbackState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FeedbackState{
		PulseAt:  f.pulseAt,
		Zone:     f.zone,
		Pulses:   f.pulses,
		Spoken:   f.spoken,
		SpokenAt: f.spokenAt,
	}
}
