package store

import "time"

// Session is the header row of a recorded session
type Session struct {
	ID         string        `db:"id"`
	StartedAt  time.Time     `db:"started_at"`
	EndedAt    *time.Time    `db:"ended_at"` // nil while the session is active
	MinCadence float64       `db:"min_cadence"`
	MaxCadence float64       `db:"max_cadence"`
	Adjust     bool          `db:"adjust"`
	TotalSteps int           `db:"total_steps"`
	Duration   time.Duration `db:"duration_ms"`
}

// Point is one tick of the session time series
type Point struct {
	SessionID  string        `db:"session_id"`
	Seq        int           `db:"seq"`
	RecordedAt time.Time     `db:"recorded_at"`
	Elapsed    time.Duration `db:"elapsed_ms"` // session duration at this tick, pauses excluded
	Cadence    *int          `db:"cadence"`    // nil when there was no reading
	Target     float64       `db:"target"`
	Zone       string        `db:"zone"`
	Interval   time.Duration `db:"interval_ms"`
}

// ZoneTotals is the time spent below, in and above the target zone
type ZoneTotals struct {
	Below time.Duration
	In    time.Duration
	Above time.Duration
}

// Total returns the classified time
func (z ZoneTotals) Total() time.Duration {
	return z.Below + z.In + z.Above
}

// Zone names as stored in session_points.zone
const (
	ZoneNone  = "none"
	ZoneBelow = "below"
	ZoneIn    = "in-zone"
	ZoneAbove = "above"
)
