package cadence

import (
	"io"
	"log/slog"
)

type options struct {
	clock     Clock
	source    MotionSource
	pulser    Pulser
	announcer Announcer
	logger    *slog.Logger
	observer  SessionObserver
	detector  DetectorConfig
	feedback  FeedbackConfig
}

// Option configures an Engine
type Option func(*options)

// WithClock replaces the wall clock, mainly for tests
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSource sets the motion sample source subscribed while running
func WithSource(s MotionSource) Option {
	return func(o *options) { o.source = s }
}

// WithPulser sets the feedback pulse capability
func WithPulser(p Pulser) Option {
	return func(o *options) { o.pulser = p }
}

// WithAnnouncer sets the spoken announcement capability
func WithAnnouncer(a Announcer) Option {
	return func(o *options) { o.announcer = a }
}

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver sets the consumer of lifecycle events and ticks
func WithObserver(obs SessionObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithDetector overrides the step detector configuration
func WithDetector(cfg DetectorConfig) Option {
	return func(o *options) { o.detector = cfg }
}

// WithFeedback overrides zone margin and validity floor
func WithFeedback(cfg FeedbackConfig) Option {
	return func(o *options) { o.feedback = cfg }
}

func defaultOptions() options {
	return options{
		clock:    SystemClock{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		detector: DefaultDetectorConfig(),
		feedback: DefaultFeedbackConfig(),
	}
}
