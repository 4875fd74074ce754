package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/aquabalance/aquabalance/internal/alarm"
)

// SaveWake inserts or replaces the registration for w.Key.
func (s *Store) SaveWake(w alarm.Wake) error {
	var spec sql.NullString
	if w.Spec != nil {
		b, err := json.Marshal(w.Spec)
		if err != nil {
			return fmt.Errorf("encode wake %d: %w", w.Key, err)
		}
		spec = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO wake_registrations (wake_key, fire_at, clock_base, spec_json, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(wake_key) DO UPDATE SET
			fire_at    = excluded.fire_at,
			clock_base = excluded.clock_base,
			spec_json  = excluded.spec_json,
			updated_at = CURRENT_TIMESTAMP`,
		w.Key, w.At, string(w.Base), spec)
	if err != nil {
		return fmt.Errorf("save wake %d: %w", w.Key, err)
	}
	return nil
}

// DeleteWake removes the registration for key. Deleting a missing key is
// not an error.
func (s *Store) DeleteWake(key int) error {
	if _, err := s.db.Exec(`DELETE FROM wake_registrations WHERE wake_key = ?`, key); err != nil {
		return fmt.Errorf("delete wake %d: %w", key, err)
	}
	return nil
}

// ListWakes returns all persisted registrations ordered by fire time.
func (s *Store) ListWakes() ([]alarm.Wake, error) {
	rows, err := s.db.Query(`
		SELECT wake_key, fire_at, clock_base, spec_json
		FROM wake_registrations ORDER BY fire_at, wake_key`)
	if err != nil {
		return nil, fmt.Errorf("list wakes: %w", err)
	}
	defer rows.Close()

	var out []alarm.Wake
	for rows.Next() {
		var (
			w    alarm.Wake
			base string
			spec sql.NullString
		)
		if err := rows.Scan(&w.Key, &w.At, &base, &spec); err != nil {
			return nil, fmt.Errorf("scan wake: %w", err)
		}
		w.Base = alarm.ClockBase(base)
		if spec.Valid {
			var as alarm.AlarmSpec
			if err := json.Unmarshal([]byte(spec.String), &as); err != nil {
				return nil, fmt.Errorf("decode wake %d: %w", w.Key, err)
			}
			w.Spec = &as
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
