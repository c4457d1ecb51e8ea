package beacon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for beacon registry persistence.
// This abstraction allows for different implementations (SQLite, mock,
// etc.) and enables unit testing without database dependencies.
type Repository interface {
	// Upsert merges a telemetry report into the registry. A new row is
	// created if the device has never reported; otherwise each non-nil
	// report field overwrites the stored value and nil fields are left
	// untouched. last_activity is always set to now.
	Upsert(ctx context.Context, deviceID string, report Report) error

	// Touch refreshes a beacon's last_activity without changing any
	// telemetry fields, creating the row if needed.
	Touch(ctx context.Context, deviceID string) error

	// Get retrieves a beacon by device ID.
	// Returns ErrBeaconNotFound if the device has never reported.
	Get(ctx context.Context, deviceID string) (*Beacon, error)

	// ListIDs retrieves the device IDs of all known beacons.
	ListIDs(ctx context.Context) ([]string, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB

	// now is swappable for tests.
	now func() time.Time
}

// NewSQLiteRepository creates a new SQLite-backed registry.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Upsert merges a telemetry report into the registry in a single
// statement. COALESCE keeps the stored value whenever the incoming
// field is null, so replaying the same report is idempotent apart from
// last_activity.
func (r *SQLiteRepository) Upsert(ctx context.Context, deviceID string, report Report) error {
	query := `
		INSERT INTO beacons (
			device_id, battery_level, controller_battery,
			core_temp, house_temp, latency, last_activity
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			battery_level = COALESCE(excluded.battery_level, beacons.battery_level),
			controller_battery = COALESCE(excluded.controller_battery, beacons.controller_battery),
			core_temp = COALESCE(excluded.core_temp, beacons.core_temp),
			house_temp = COALESCE(excluded.house_temp, beacons.house_temp),
			latency = COALESCE(excluded.latency, beacons.latency),
			last_activity = excluded.last_activity`

	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		deviceID,
		nullableFloat(report.BatteryLevel),
		nullableFloat(report.ControllerBattery),
		nullableFloat(report.CoreTemp),
		nullableFloat(report.HouseTemp),
		nullableFloat(report.Latency),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting beacon: %w", err)
	}

	return nil
}

// Touch refreshes last_activity only. Implemented as an empty-report
// upsert so a message from an unseen device still registers it.
func (r *SQLiteRepository) Touch(ctx context.Context, deviceID string) error {
	return r.Upsert(ctx, deviceID, Report{})
}

// Get retrieves a beacon by device ID.
func (r *SQLiteRepository) Get(ctx context.Context, deviceID string) (*Beacon, error) {
	query := `
		SELECT device_id, battery_level, controller_battery,
			core_temp, house_temp, latency, last_activity
		FROM beacons
		WHERE device_id = ?`

	row := r.db.QueryRowContext(ctx, query, deviceID)
	b, err := scanBeacon(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBeaconNotFound
		}
		return nil, fmt.Errorf("querying beacon by id: %w", err)
	}
	return b, nil
}

// ListIDs retrieves the device IDs of all known beacons.
func (r *SQLiteRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT device_id FROM beacons ORDER BY device_id")
	if err != nil {
		return nil, fmt.Errorf("querying beacon ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning beacon id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating beacon ids: %w", err)
	}

	return ids, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBeacon scans a row or rows result into a Beacon.
func scanBeacon(scanner rowScanner) (*Beacon, error) {
	var b Beacon
	var batteryLevel, controllerBattery, coreTemp, houseTemp, latency sql.NullFloat64
	var lastActivity string

	err := scanner.Scan(
		&b.DeviceID,
		&batteryLevel,
		&controllerBattery,
		&coreTemp,
		&houseTemp,
		&latency,
		&lastActivity,
	)
	if err != nil {
		return nil, err
	}

	if batteryLevel.Valid {
		b.BatteryLevel = &batteryLevel.Float64
	}
	if controllerBattery.Valid {
		b.ControllerBattery = &controllerBattery.Float64
	}
	if coreTemp.Valid {
		b.CoreTemp = &coreTemp.Float64
	}
	if houseTemp.Valid {
		b.HouseTemp = &houseTemp.Float64
	}
	if latency.Valid {
		b.Latency = &latency.Float64
	}

	b.LastActivity, err = time.Parse(time.RFC3339, lastActivity)
	if err != nil {
		return nil, fmt.Errorf("parsing last_activity: %w", err)
	}

	return &b, nil
}

// nullableFloat returns a sql.NullFloat64 for optional float pointers.
func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
