package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Delivery statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Delivery is one row of the notification history.
type Delivery struct {
	ID             string    `json:"id"`
	NotificationID int       `json:"notificationId"`
	ChannelID      string    `json:"channelId"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	SentAt         time.Time `json:"sentAt"`
}

// RecordDelivery appends d to the history.
func (s *Store) RecordDelivery(d Delivery) error {
	var errMsg sql.NullString
	if d.Error != "" {
		errMsg = sql.NullString{String: d.Error, Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO notification_history
			(id, notification_id, channel_id, title, message, status, error_message, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.NotificationID, d.ChannelID, d.Title, d.Message, d.Status, errMsg,
		d.SentAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// ListHistory returns the most recent deliveries, newest first.
func (s *Store) ListHistory(limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, notification_id, channel_id, title, message, status,
		       COALESCE(error_message, ''), sent_at
		FROM notification_history ORDER BY sent_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var (
			d      Delivery
			sentAt string
		)
		if err := rows.Scan(&d.ID, &d.NotificationID, &d.ChannelID, &d.Title,
			&d.Message, &d.Status, &d.Error, &sentAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.SentAt, _ = time.Parse(timeFormat, sentAt)
		out = append(out, d)
	}
	return out, rows.Err()
}
