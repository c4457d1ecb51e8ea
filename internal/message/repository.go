package message

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for message log persistence.
type Repository interface {
	// Append stores a message from a device, stamping it with the
	// current server time. Returns the stored message including its
	// timestamp.
	Append(ctx context.Context, deviceID, text string) (*Message, error)

	// Query retrieves messages matching the filter in insertion order.
	Query(ctx context.Context, filter Filter) ([]Message, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB

	// now is swappable for tests.
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed message log.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Append stores a message stamped with the current UTC time.
func (r *SQLiteRepository) Append(ctx context.Context, deviceID, text string) (*Message, error) {
	msg := &Message{
		DeviceID:  deviceID,
		Message:   text,
		Timestamp: r.now().UTC().Format(TimestampLayout),
	}

	query := `INSERT INTO messages (device_id, message, timestamp) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, msg.DeviceID, msg.Message, msg.Timestamp); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	return msg, nil
}

// Query retrieves messages matching the filter, ordered by insertion.
// Filter conditions combine with AND; an empty filter returns the
// whole log.
func (r *SQLiteRepository) Query(ctx context.Context, filter Filter) ([]Message, error) {
	query := `SELECT device_id, message, timestamp FROM messages`
	var conds []string
	var args []any

	if filter.DeviceID != "" {
		conds = append(conds, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.Since != "" {
		conds = append(conds, "timestamp >= ?")
		args = append(args, filter.Since)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.DeviceID, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return messages, nil
}
