package cadence

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

// Feedback defaults
const (
	DefaultZoneMargin    = 3.0
	DefaultValidityFloor = 140
)

// FeedbackConfig tunes zone classification
type FeedbackConfig struct {
	Margin float64 // half-width of the zone around the target, in SPM
	Floor  int     // readings below this are treated as noise and get no pulses
}

// DefaultFeedbackConfig returns a 3 SPM margin and a 140 SPM validity floor
func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		Margin: DefaultZoneMargin,
		Floor:  DefaultValidityFloor,
	}
}

// Classify places cadence relative to target ± margin. Both zone edges are
// inclusive.
func Classify(cadence int, target, margin float64) Zone {
	c := float64(cadence)
	switch {
	case c < target-margin:
		return ZoneBelow
	case c > target+margin:
		return ZoneAbove
	default:
		return ZoneIn
	}
}

// PulseInterval is the metronome period for a target, one pulse per step or
// per leg cycle. It is zero for a non-positive target.
func PulseInterval(target float64, beat BeatFrequency) time.Duration {
	if target <= 0 {
		return 0
	}
	return time.Duration(60 / target * beat.Multiplier() * float64(time.Second))
}

// speaker forwards text to an Announcer with at most one announcement in
// flight; requests made while one is playing are dropped.
type speaker struct {
	announcer Announcer
	busy      atomic.Bool
	logger    *slog.Logger
	onError   func(error)
}

func (s *speaker) say(text string) bool {
	if s.announcer == nil {
		return false
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("announcement dropped, another is in flight", "text", text)
		return false
	}
	go func() {
		defer s.busy.Store(false)
		if err := s.announcer.Announce(text); err != nil && s.onError != nil {
			s.onError(fmt.Errorf("announcing %q: %w", text, err))
		}
	}()
	return true
}

// Dispatcher classifies each tick's reading, runs the feedback metronome and
// periodically announces the rolling average cadence.
type Dispatcher struct {
	cfg      FeedbackConfig
	settings Settings
	pulser   Pulser
	speaker  *speaker
	warn     func(error)

	metronome    slot
	announcement slot
	running      bool

	zone       Zone
	suppressed bool
	target     float64
	interval   time.Duration

	// readings since the last announcement
	sum   int
	count int
}

func newDispatcher(cfg FeedbackConfig, settings Settings, clock Clock, pulser Pulser, sp *speaker, warn func(error)) *Dispatcher {
	return &Dispatcher{
		cfg:          cfg,
		settings:     settings,
		pulser:       pulser,
		speaker:      sp,
		warn:         warn,
		metronome:    slot{clock: clock},
		announcement: slot{clock: clock},
	}
}

// Tick classifies the reading and retunes the metronome when the target moved
func (d *Dispatcher) Tick(cadence int, target float64) (Zone, bool) {
	d.zone = Classify(cadence, target, d.cfg.Margin)
	d.suppressed = cadence < d.cfg.Floor
	if cadence > 0 {
		d.sum += cadence
		d.count++
	}
	if target != d.target {
		d.target = target
		if d.running {
			d.armMetronome()
		}
	}
	return d.zone, d.suppressed
}

// Zone returns the classification made at the last tick
func (d *Dispatcher) Zone() (Zone, bool) {
	return d.zone, d.suppressed
}

// Interval returns the current metronome period
func (d *Dispatcher) Interval() time.Duration {
	return d.interval
}

// Start begins the metronome at target and, if enabled, the announcement timer
func (d *Dispatcher) Start(target float64) {
	d.zone = ZoneNone
	d.suppressed = true
	d.sum, d.count = 0, 0
	d.target = target
	d.resume()
}

// Pause cancels both timers, keeping the last classification
func (d *Dispatcher) Pause() {
	d.running = false
	d.metronome.cancel()
	d.announcement.cancel()
}

// Resume restarts both timers at the current target
func (d *Dispatcher) Resume(target float64) {
	d.target = target
	d.resume()
}

// Stop cancels both timers and forgets the session's readings
func (d *Dispatcher) Stop() {
	d.Pause()
	d.zone = ZoneNone
	d.suppressed = true
	d.sum, d.count = 0, 0
}

// SetSettings replaces beat frequency and announcement interval. Only call while stopped.
func (d *Dispatcher) SetSettings(settings Settings) {
	d.settings = settings
}

func (d *Dispatcher) resume() {
	d.running = true
	d.armMetronome()
	d.armAnnouncement()
}

func (d *Dispatcher) armMetronome() {
	d.interval = PulseInterval(d.target, d.settings.BeatFrequency)
	if d.interval <= 0 {
		d.metronome.cancel()
		return
	}
	d.metronome.arm(d.interval, d.pulse)
}

func (d *Dispatcher) pulse() {
	if d.zone != ZoneNone && !d.suppressed && d.pulser != nil {
		if err := d.pulser.Pulse(d.zone); err != nil {
			d.warn(fmt.Errorf("feedback pulse: %w", err))
		}
	}
	d.metronome.arm(d.interval, d.pulse)
}

func (d *Dispatcher) armAnnouncement() {
	if d.settings.AnnouncementInterval <= 0 {
		d.announcement.cancel()
		return
	}
	d.announcement.arm(seconds(d.settings.AnnouncementInterval), d.announce)
}

func (d *Dispatcher) announce() {
	if d.count > 0 {
		avg := int(math.Round(float64(d.sum) / float64(d.count)))
		if d.speaker.say(fmt.Sprintf("Cadence %d", avg)) {
			d.sum, d.count = 0, 0
		}
	}
	d.armAnnouncement()
}
