// Package session reduces the engine's tick stream into a session aggregate
// and keeps the time series in the store.
package session

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LHacuevas/strideSync/internal/cadence"
	"github.com/LHacuevas/strideSync/internal/store"
)

// Recorder implements cadence.SessionObserver
type Recorder struct {
	mu     sync.Mutex
	db     *store.DB
	logger *slog.Logger

	id        string
	settings  cadence.Settings
	startedAt time.Time
	anchor    time.Time
	duration  time.Duration
	active    bool
	paused    bool
	final     bool

	totalSteps   int
	cadenceSum   int
	cadenceTicks int
	targetSum    float64
	ticks        int

	err error
}

// NewRecorder creates a recorder writing to db
func NewRecorder(db *store.DB, logger *slog.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// SessionStarted clears the previous session and anchors the duration clock
func (r *Recorder) SessionStarted(now time.Time, settings cadence.Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.id = uuid.NewString()
	r.settings = settings
	r.startedAt = now
	r.anchor = now
	r.duration = 0
	r.active = true
	r.paused = false
	r.final = false
	r.totalSteps = 0
	r.cadenceSum, r.cadenceTicks = 0, 0
	r.targetSum, r.ticks = 0, 0
	r.err = nil

	r.check(r.db.BeginSession(&store.Session{
		ID:         r.id,
		StartedAt:  now,
		MinCadence: settings.Min,
		MaxCadence: settings.Max,
		Adjust:     settings.Adjust,
	}))
	r.logger.Info("recording session", "session", r.id)
}

// SessionPaused freezes the duration clock
func (r *Recorder) SessionPaused(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || r.paused {
		return
	}
	r.duration = now.Sub(r.anchor)
	r.paused = true
}

// SessionResumed moves the anchor so the paused interval is not counted
func (r *Recorder) SessionResumed(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || !r.paused {
		return
	}
	r.anchor = now.Add(-r.duration)
	r.paused = false
}

// SessionStopped freezes the aggregate for display
func (r *Recorder) SessionStopped(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	if !r.paused {
		r.duration = now.Sub(r.anchor)
	}
	r.active = false
	r.paused = false
	r.final = true

	r.check(r.db.EndSession(r.id, now, r.totalSteps, r.duration))
	r.logger.Info("session recorded",
		"session", r.id,
		"duration", r.duration.Round(time.Second),
		"steps", r.totalSteps,
		"avg_cadence", r.avgCadence(),
	)
}

// Tick folds one reading into the aggregate
func (r *Recorder) Tick(t cadence.Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}

	r.duration = t.Time.Sub(r.anchor)
	r.totalSteps = t.TotalSteps
	r.targetSum += t.Target
	r.ticks++

	p := store.Point{
		SessionID:  r.id,
		Seq:        r.ticks,
		RecordedAt: t.Time,
		Elapsed:    r.duration,
		Target:     t.Target,
		Zone:       t.Zone.String(),
		Interval:   t.Interval,
	}
	if t.Cadence > 0 {
		r.cadenceSum += t.Cadence
		r.cadenceTicks++
		c := t.Cadence
		p.Cadence = &c
	}
	r.check(r.db.AppendPoint(p))
}

// Elapsed returns the session duration at now, excluding paused time
func (r *Recorder) Elapsed(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active && !r.paused {
		return now.Sub(r.anchor)
	}
	return r.duration
}

// Err returns the last store error, if any
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) check(err error) {
	if err == nil {
		return
	}
	r.err = err
	r.logger.Warn("session store", "session", r.id, "error", err)
}

func (r *Recorder) avgCadence() int {
	if r.cadenceTicks == 0 {
		return 0
	}
	return int(math.Round(float64(r.cadenceSum) / float64(r.cadenceTicks)))
}

// Summary returns a snapshot of the aggregate, live or frozen
func (r *Recorder) Summary() (Summary, error) {
	r.mu.Lock()
	s := Summary{
		SessionID:  r.id,
		Settings:   r.settings,
		StartedAt:  r.startedAt,
		Duration:   r.duration,
		TotalSteps: r.totalSteps,
		AvgCadence: r.avgCadence(),
		Active:     r.active,
		Final:      r.final,
	}
	if r.ticks > 0 {
		s.AvgTarget = r.targetSum / float64(r.ticks)
	}
	r.mu.Unlock()

	if s.SessionID == "" {
		return s, nil
	}

	header, err := r.db.CurrentSession()
	if err != nil {
		return s, fmt.Errorf("loading session: %w", err)
	}
	if header.ID == s.SessionID {
		s.EndedAt = header.EndedAt
	}
	s.Zones, err = r.db.ZoneTotals(s.SessionID)
	if err != nil {
		return s, fmt.Errorf("loading zone totals: %w", err)
	}
	s.Points, err = r.db.Points(s.SessionID)
	if err != nil {
		return s, fmt.Errorf("loading points: %w", err)
	}
	return s, nil
}
