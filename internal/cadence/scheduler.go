package cadence

import "time"

// Phase is the target scheduler state
type Phase int

const (
	PhaseStatic Phase = iota // adjustment disabled, constant midpoint target
	PhaseHoldingLow
	PhaseIncreasing
	PhaseHoldingHigh
	PhaseDecreasing
)

func (p Phase) String() string {
	switch p {
	case PhaseHoldingLow:
		return "holding-low"
	case PhaseIncreasing:
		return "increasing"
	case PhaseHoldingHigh:
		return "holding-high"
	case PhaseDecreasing:
		return "decreasing"
	default:
		return "static"
	}
}

// Cues spoken on scheduler transitions
const (
	CueUp   = "Up"
	CueHold = "Hold"
	CueDown = "Down"
)

// Scheduler ramps the target cadence through holding-low, increasing,
// holding-high and decreasing. It owns exactly one pending transition.
type Scheduler struct {
	settings Settings
	announce func(string)
	timer    slot

	phase  Phase
	target float64

	paused      bool
	pausedDelay time.Duration
	hadPending  bool
}

// NewScheduler creates an idle scheduler. announce receives transition cues
// and may be nil.
func NewScheduler(settings Settings, clock Clock, announce func(string)) *Scheduler {
	if announce == nil {
		announce = func(string) {}
	}
	s := &Scheduler{
		settings: settings,
		announce: announce,
		timer:    slot{clock: clock},
	}
	s.reset()
	return s
}

// Target returns the current target cadence
func (s *Scheduler) Target() float64 {
	return s.target
}

// Phase returns the current state
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// Start begins a cycle from holding-low at the minimum, or fixes the target
// at the midpoint when adjustment is disabled.
func (s *Scheduler) Start() {
	s.timer.cancel()
	s.paused = false
	s.reset()
	if s.phase == PhaseStatic {
		return
	}
	s.schedule(s.settings.HoldLowDuration)
}

// Pause suspends the pending transition, remembering how much of its delay is left
func (s *Scheduler) Pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.hadPending = s.timer.pending()
	s.pausedDelay = s.timer.remaining()
	s.timer.cancel()
}

// Resume re-arms the transition suspended by Pause
func (s *Scheduler) Resume() {
	if !s.paused {
		return
	}
	s.paused = false
	if s.hadPending {
		s.timer.arm(s.pausedDelay, s.advance)
	}
}

// Stop cancels any pending transition and resets the target
func (s *Scheduler) Stop() {
	s.timer.cancel()
	s.paused = false
	s.hadPending = false
	s.reset()
}

// SetSettings replaces the settings and resets the target. Only call while stopped.
func (s *Scheduler) SetSettings(settings Settings) {
	s.settings = settings
	s.Stop()
}

func (s *Scheduler) reset() {
	if !s.settings.Adjust {
		s.phase = PhaseStatic
		s.target = s.settings.Midpoint()
		return
	}
	s.phase = PhaseHoldingLow
	s.target = s.settings.Min
}

// schedule arms the next transition; a non-positive delay leaves nothing pending
func (s *Scheduler) schedule(delaySeconds float64) {
	if delaySeconds <= 0 {
		s.timer.cancel()
		return
	}
	s.timer.arm(seconds(delaySeconds), s.advance)
}

func (s *Scheduler) advance() {
	switch s.phase {
	case PhaseHoldingLow:
		s.phase = PhaseIncreasing
		s.announce(CueUp)
		s.stepUp()
	case PhaseIncreasing:
		s.stepUp()
	case PhaseHoldingHigh:
		s.phase = PhaseDecreasing
		s.announce(CueDown)
		s.stepDown()
	case PhaseDecreasing:
		s.stepDown()
	}
}

// stepUp applies one upward increment, clamping at Max.
func (s *Scheduler) stepUp() {
	cfg := s.settings
	s.target += cfg.AdjustUpRate
	if s.target >= cfg.Max {
		s.target = cfg.Max
		s.phase = PhaseHoldingHigh
		s.announce(CueHold)
		s.schedule(cfg.HoldHighDuration)
		return
	}
	s.schedule(cfg.AdjustUpInterval)
}

// stepDown applies one downward decrement, clamping at Min.
func (s *Scheduler) stepDown() {
	cfg := s.settings
	s.target -= cfg.AdjustDownRate
	if s.target <= cfg.Min {
		s.target = cfg.Min
		s.phase = PhaseHoldingLow
		s.announce(CueHold)
		s.schedule(cfg.HoldLowDuration)
		return
	}
	s.schedule(cfg.AdjustDownInterval)
}
