package cadence

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TickInterval is the period of cadence recomputation and feedback classification
const TickInterval = time.Second

// ErrInvalidTransition is returned for a status change the session cannot make
var ErrInvalidTransition = errors.New("invalid session status transition")

// ErrSessionActive is returned when settings change outside the idle state
var ErrSessionActive = errors.New("settings cannot change while a session is active")

// Engine wires the step detector, estimator, target scheduler and feedback
// dispatcher to the session status. Public methods and every timer callback
// run under one mutex, so state is only ever touched from one context at a time.
type Engine struct {
	mu       sync.Mutex
	clock    Clock
	logger   *slog.Logger
	settings Settings
	status   Status

	detector   *StepDetector
	estimator  Estimator
	scheduler  *Scheduler
	dispatcher *Dispatcher
	speaker    *speaker
	observer   SessionObserver
	ticker     slot
	tickLeft   time.Duration

	source      MotionSource
	unsubscribe func()
	subGen      uint64

	warning string
}

// New creates an idle engine
func New(settings Settings, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		logger:   o.logger,
		settings: settings,
		source:   o.source,
		observer: o.observer,
		detector: NewStepDetector(o.detector),
	}
	e.clock = serialClock{inner: o.clock, mu: &e.mu}
	e.ticker = slot{clock: e.clock}
	e.speaker = &speaker{
		announcer: o.announcer,
		logger:    o.logger,
		onError:   e.warn,
	}
	e.scheduler = NewScheduler(settings, e.clock, func(cue string) {
		e.logger.Info("target phase changed", "cue", cue, "target", e.scheduler.Target())
		e.speaker.say(cue)
	})
	e.dispatcher = newDispatcher(o.feedback, settings, e.clock, o.pulser, e.speaker, e.warnLocked)
	return e
}

// Settings returns the current settings
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SetSettings replaces the settings. It fails unless the session is idle.
func (e *Engine) SetSettings(s Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusIdle {
		return ErrSessionActive
	}
	e.settings = s
	e.scheduler.SetSettings(s)
	e.dispatcher.SetSettings(s)
	return nil
}

// SetStatus drives the engine from the session status signal
func (e *Engine) SetStatus(s Status) error {
	switch s {
	case StatusRunning:
		e.mu.Lock()
		paused := e.status == StatusPaused
		e.mu.Unlock()
		if paused {
			return e.Resume()
		}
		return e.Start()
	case StatusPaused:
		return e.Pause()
	case StatusIdle:
		return e.Stop()
	default:
		return fmt.Errorf("%w: unknown status %d", ErrInvalidTransition, s)
	}
}

// Start begins a session from idle
func (e *Engine) Start() error {
	e.mu.Lock()
	switch e.status {
	case StatusRunning:
		e.mu.Unlock()
		return nil
	case StatusPaused:
		e.mu.Unlock()
		return fmt.Errorf("%w: paused session must be resumed or stopped", ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.detector.Reset()
	e.estimator.Reset()
	e.warning = ""
	e.status = StatusRunning
	e.scheduler.Start()
	e.dispatcher.Start(e.scheduler.Target())
	e.armTick()
	if e.observer != nil {
		e.observer.SessionStarted(now, e.settings)
	}
	gen := e.beginSubscription()
	e.logger.Info("session started", "target", e.scheduler.Target(), "adjust", e.settings.Adjust)
	e.mu.Unlock()

	e.subscribe(gen)
	return nil
}

// Pause suspends a running session, keeping all accumulated state
func (e *Engine) Pause() error {
	e.mu.Lock()
	switch e.status {
	case StatusPaused:
		e.mu.Unlock()
		return nil
	case StatusIdle:
		e.mu.Unlock()
		return fmt.Errorf("%w: no session to pause", ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.status = StatusPaused
	e.tickLeft = e.ticker.remaining()
	e.ticker.cancel()
	e.scheduler.Pause()
	e.dispatcher.Pause()
	if e.observer != nil {
		e.observer.SessionPaused(now)
	}
	unsub := e.releaseSubscription()
	e.logger.Info("session paused")
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	return nil
}

// Resume continues a paused session
func (e *Engine) Resume() error {
	e.mu.Lock()
	switch e.status {
	case StatusRunning:
		e.mu.Unlock()
		return nil
	case StatusIdle:
		e.mu.Unlock()
		return fmt.Errorf("%w: no session to resume", ErrInvalidTransition)
	}

	now := e.clock.Now()
	e.status = StatusRunning
	e.scheduler.Resume()
	e.dispatcher.Resume(e.scheduler.Target())
	e.resumeTick()
	if e.observer != nil {
		e.observer.SessionResumed(now)
	}
	gen := e.beginSubscription()
	e.logger.Info("session resumed")
	e.mu.Unlock()

	e.subscribe(gen)
	return nil
}

// Stop ends the session and resets every accumulator
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.status == StatusIdle {
		e.mu.Unlock()
		return nil
	}

	now := e.clock.Now()
	e.status = StatusIdle
	e.tickLeft = 0
	e.ticker.cancel()
	e.scheduler.Stop()
	e.dispatcher.Stop()
	e.detector.Reset()
	e.estimator.Reset()
	if e.observer != nil {
		e.observer.SessionStopped(now)
	}
	unsub := e.releaseSubscription()
	e.logger.Info("session stopped")
	e.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	return nil
}

// OnSample feeds one motion sample; samples outside a running session are ignored
func (e *Engine) OnSample(s MotionSample) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusRunning {
		return
	}
	if s.Time.IsZero() {
		s.Time = e.clock.Now()
	}
	e.detector.OnSample(s)
}

// SimulateStep injects a step as if the sensor had detected one
func (e *Engine) SimulateStep() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusRunning {
		return false
	}
	return e.detector.SimulateStep(e.clock.Now())
}

// Snapshot returns the live reading
func (e *Engine) Snapshot() Reading {
	e.mu.Lock()
	defer e.mu.Unlock()
	zone, suppressed := e.dispatcher.Zone()
	return Reading{
		Status:     e.status,
		Cadence:    e.estimator.Cadence(),
		Target:     e.scheduler.Target(),
		TotalSteps: e.detector.TotalSteps(),
		Zone:       zone,
		Suppressed: suppressed,
		Phase:      e.scheduler.Phase(),
		Warning:    e.warning,
	}
}

func (e *Engine) armTick() {
	e.tickLeft = 0
	e.ticker.arm(TickInterval, e.tick)
}

// resumeTick re-arms the tick with whatever was left of it at pause time
func (e *Engine) resumeTick() {
	if e.tickLeft <= 0 {
		e.armTick()
		return
	}
	e.ticker.arm(e.tickLeft, e.tick)
	e.tickLeft = 0
}

func (e *Engine) tick() {
	now := e.clock.Now()
	e.detector.Prune(now.Add(-StepLogRetention))
	cadence := e.estimator.Recompute(now, e.detector.Steps())
	target := e.scheduler.Target()
	zone, suppressed := e.dispatcher.Tick(cadence, target)

	if e.observer != nil {
		e.observer.Tick(Tick{
			Time:       now,
			Cadence:    cadence,
			Target:     target,
			TotalSteps: e.detector.TotalSteps(),
			Zone:       zone,
			Suppressed: suppressed,
			Interval:   TickInterval,
		})
	}
	e.armTick()
}

func (e *Engine) beginSubscription() uint64 {
	e.subGen++
	return e.subGen
}

func (e *Engine) releaseSubscription() func() {
	e.subGen++
	unsub := e.unsubscribe
	e.unsubscribe = nil
	return unsub
}

// subscribe attaches the motion source outside the lock; a session that
// stopped or paused in the meantime releases the subscription immediately.
func (e *Engine) subscribe(gen uint64) {
	if e.source == nil {
		return
	}
	unsub, err := e.source.Subscribe(e.OnSample)
	if err != nil {
		e.warn(fmt.Errorf("motion sensor unavailable: %w", err))
		return
	}

	e.mu.Lock()
	if gen != e.subGen || e.status != StatusRunning {
		e.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		return
	}
	e.unsubscribe = unsub
	e.mu.Unlock()
}

func (e *Engine) warn(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warnLocked(err)
}

func (e *Engine) warnLocked(err error) {
	e.logger.Warn("degraded", "error", err)
	e.warning = err.Error()
}
