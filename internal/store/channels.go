package store

import (
	"fmt"

	"github.com/aquabalance/aquabalance/internal/alarm"
)

// EnsureChannel registers ch unless a channel with the same ID exists.
// It reports whether the channel was created.
func (s *Store) EnsureChannel(ch alarm.Channel) (bool, error) {
	res, err := s.db.Exec(`
		INSERT OR IGNORE INTO notification_channels (id, name, description, importance, vibrate)
		VALUES (?, ?, ?, ?, ?)`,
		ch.ID, ch.Name, ch.Description, int(ch.Importance), boolInt(ch.Vibrate))
	if err != nil {
		return false, fmt.Errorf("ensure channel %q: %w", ch.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListChannels returns the registered channels ordered by ID.
func (s *Store) ListChannels() ([]alarm.Channel, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, importance, vibrate
		FROM notification_channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []alarm.Channel
	for rows.Next() {
		var (
			ch         alarm.Channel
			importance int
			vibrate    int
		)
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Description, &importance, &vibrate); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		ch.Importance = alarm.Importance(importance)
		ch.Vibrate = vibrate == 1
		out = append(out, ch)
	}
	return out, rows.Err()
}
