package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// BeginSession replaces whatever was recorded before with a new session
func (db *DB) BeginSession(s *Session) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM session_points"); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO sessions (id, started_at, min_cadence, max_cadence, adjust)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.StartedAt.Format(time.RFC3339Nano), s.MinCadence, s.MaxCadence, boolToInt(s.Adjust))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// AppendPoint records one tick. Seq is assigned by the caller and must be
// unique within the session.
func (db *DB) AppendPoint(p Point) error {
	_, err := db.Exec(`
		INSERT INTO session_points (
			session_id, seq, recorded_at, elapsed_ms, cadence, target, zone, interval_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.SessionID, p.Seq, p.RecordedAt.Format(time.RFC3339Nano), p.Elapsed.Milliseconds(),
		p.Cadence, p.Target, p.Zone, p.Interval.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting point: %w", err)
	}
	return nil
}

// Points returns the session time series in tick order
func (db *DB) Points(sessionID string) ([]Point, error) {
	rows, err := db.Query(`
		SELECT session_id, seq, recorded_at, elapsed_ms, cadence, target, zone, interval_ms
		FROM session_points
		WHERE session_id = ?
		ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var p Point
		var recordedAt string
		var elapsedMS, intervalMS int64
		var cadence sql.NullInt64
		err := rows.Scan(&p.SessionID, &p.Seq, &recordedAt, &elapsedMS, &cadence, &p.Target, &p.Zone, &intervalMS)
		if err != nil {
			return nil, err
		}
		p.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		p.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		p.Interval = time.Duration(intervalMS) * time.Millisecond
		if cadence.Valid {
			c := int(cadence.Int64)
			p.Cadence = &c
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// ZoneTotals sums tick intervals per zone, counting only ticks with a reading
func (db *DB) ZoneTotals(sessionID string) (ZoneTotals, error) {
	rows, err := db.Query(`
		SELECT zone, SUM(interval_ms)
		FROM session_points
		WHERE session_id = ? AND cadence > 0
		GROUP BY zone
	`, sessionID)
	if err != nil {
		return ZoneTotals{}, err
	}
	defer rows.Close()

	var totals ZoneTotals
	for rows.Next() {
		var zone string
		var ms int64
		if err := rows.Scan(&zone, &ms); err != nil {
			return ZoneTotals{}, err
		}
		d := time.Duration(ms) * time.Millisecond
		switch zone {
		case ZoneBelow:
			totals.Below = d
		case ZoneIn:
			totals.In = d
		case ZoneAbove:
			totals.Above = d
		}
	}

	return totals, rows.Err()
}

// EndSession stamps the end time and final totals on a session
func (db *DB) EndSession(sessionID string, endedAt time.Time, totalSteps int, duration time.Duration) error {
	res, err := db.Exec(`
		UPDATE sessions
		SET ended_at = ?, total_steps = ?, duration_ms = ?
		WHERE id = ?
	`, endedAt.Format(time.RFC3339Nano), totalSteps, duration.Milliseconds(), sessionID)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoSession
	}
	return nil
}

// CurrentSession returns the retained session
func (db *DB) CurrentSession() (*Session, error) {
	row := db.QueryRow(`
		SELECT id, started_at, ended_at, min_cadence, max_cadence, adjust, total_steps, duration_ms
		FROM sessions
		LIMIT 1
	`)

	var s Session
	var startedAt string
	var endedAt sql.NullString
	var adjust int
	var durationMS int64
	err := row.Scan(&s.ID, &startedAt, &endedAt, &s.MinCadence, &s.MaxCadence, &adjust, &s.TotalSteps, &durationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	s.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if endedAt.Valid {
		t, _ := time.Parse(time.RFC3339Nano, endedAt.String)
		s.EndedAt = &t
	}
	s.Adjust = adjust == 1
	s.Duration = time.Duration(durationMS) * time.Millisecond
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
