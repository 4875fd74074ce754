package store

import "fmt"

// Migrate creates the daemon tables. It is safe to run on every start.
func (s *Store) Migrate() error {
	statements := []struct {
		label string
		sql   string
	}{
		{"wake_registrations", `
			CREATE TABLE IF NOT EXISTS wake_registrations (
				wake_key   INTEGER PRIMARY KEY,
				fire_at    INTEGER NOT NULL,
				clock_base TEXT    NOT NULL,
				spec_json  TEXT,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);`},

		{"notification_channels", `
			CREATE TABLE IF NOT EXISTS notification_channels (
				id          TEXT    PRIMARY KEY,
				name        TEXT    NOT NULL,
				description TEXT    NOT NULL DEFAULT '',
				importance  INTEGER NOT NULL DEFAULT 0,
				vibrate     INTEGER NOT NULL DEFAULT 0,
				created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
			);`},

		{"notification_history", `
			CREATE TABLE IF NOT EXISTS notification_history (
				id              TEXT    PRIMARY KEY,
				notification_id INTEGER NOT NULL,
				channel_id      TEXT    NOT NULL,
				title           TEXT    NOT NULL,
				message         TEXT    NOT NULL,
				status          TEXT    NOT NULL,
				error_message   TEXT,
				sent_at         TEXT    NOT NULL
			);`},
		{"notification_history indexes", `
			CREATE INDEX IF NOT EXISTS idx_notif_history_sent ON notification_history(sent_at);`},
	}

	for _, st := range statements {
		if _, err := s.db.Exec(st.sql); err != nil {
			return fmt.Errorf("migration failed at [%s]: %w", st.label, err)
		}
	}
	s.log.Info("database schema ready")
	return nil
}
