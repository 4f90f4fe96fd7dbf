package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Sessions (at most one row, replaced on every start)
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			min_cadence REAL NOT NULL,
			max_cadence REAL NOT NULL,
			adjust INTEGER NOT NULL,
			total_steps INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,

		// Per-tick time series
		`CREATE TABLE IF NOT EXISTS session_points (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			cadence INTEGER,
			target REAL NOT NULL,
			zone TEXT NOT NULL,
			interval_ms INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_session_points_zone ON session_points(session_id, zone)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
