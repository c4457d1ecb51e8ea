package camera

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Store defines the interface for the camera configuration document.
type Store interface {
	// Get returns the full current configuration.
	Get(ctx context.Context) (Config, error)

	// Update merges the recognised fields of raw into the stored
	// document after coercing each to its declared type. Unrecognised
	// keys are ignored. If any recognised value fails coercion the
	// update is aborted and the stored document is unchanged; the
	// returned error wraps ErrInvalidFieldValue.
	Update(ctx context.Context, raw map[string]any) (Config, error)
}

// SQLiteStore implements Store against the singleton camera_config row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store backed by an open SQLite connection.
// The camera_config row is seeded by migration before first use.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns the full current configuration.
func (s *SQLiteStore) Get(ctx context.Context) (Config, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT config FROM camera_config WHERE id = 1").Scan(&doc)
	if err != nil {
		return nil, fmt.Errorf("querying camera config: %w", err)
	}
	return decodeConfig(doc)
}

// Update applies a partial update in a transaction so the
// read-modify-write cycle is atomic against concurrent updates.
func (s *SQLiteStore) Update(ctx context.Context, raw map[string]any) (Config, error) {
	patch, err := coercePatch(raw)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning camera config update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var doc string
	if err := tx.QueryRowContext(ctx, "SELECT config FROM camera_config WHERE id = 1").Scan(&doc); err != nil {
		return nil, fmt.Errorf("querying camera config: %w", err)
	}

	config, err := decodeConfig(doc)
	if err != nil {
		return nil, err
	}
	for name, value := range patch {
		config[name] = value
	}

	updated, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshalling camera config: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE camera_config SET config = ? WHERE id = 1", string(updated)); err != nil {
		return nil, fmt.Errorf("updating camera config: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing camera config update: %w", err)
	}

	return config, nil
}

// decodeConfig unmarshals a stored document and renormalises every
// recognised field through the coercion table, so integer fields come
// back as integers rather than JSON's float64.
func decodeConfig(doc string) (Config, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return nil, fmt.Errorf("unmarshalling camera config: %w", err)
	}

	config, err := coercePatch(raw)
	if err != nil {
		return nil, fmt.Errorf("stored camera config is corrupt: %w", err)
	}
	return config, nil
}
