package reading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists readings.
type Repository interface {
	// Insert stores a new reading, assigning ID when unset.
	Insert(ctx context.Context, r *Reading) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert stores a reading.
func (r *SQLiteRepository) Insert(ctx context.Context, rd *Reading) error {
	if err := rd.Validate(); err != nil {
		return err
	}
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO readings (
			id, sensor_id, owner_id_snapshot,
			moisture, temperature, fertility, light_lux, battery, signal_strength,
			raw_payload, topic, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rd.ID,
		rd.SensorID,
		rd.OwnerIDSnapshot,
		nullableFloat(rd.Moisture),
		nullableFloat(rd.Temperature),
		nullableFloat(rd.Fertility),
		nullableFloat(rd.LightLux),
		nullableInt(rd.Battery),
		nullableInt(rd.SignalStrength),
		string(rd.RawPayload),
		rd.Topic,
		rd.ReceivedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

// ListBySensor returns a sensor's readings, oldest first.
func (r *SQLiteRepository) ListBySensor(ctx context.Context, sensorID string) ([]Reading, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sensor_id, owner_id_snapshot,
			moisture, temperature, fertility, light_lux, battery, signal_strength,
			raw_payload, topic, received_at
		FROM readings
		WHERE sensor_id = ?
		ORDER BY received_at, rowid`, sensorID)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var rd Reading
		var moisture, temperature, fertility, lightLux sql.NullFloat64
		var battery, signal sql.NullInt64
		var raw, receivedAt string

		if err := rows.Scan(
			&rd.ID, &rd.SensorID, &rd.OwnerIDSnapshot,
			&moisture, &temperature, &fertility, &lightLux, &battery, &signal,
			&raw, &rd.Topic, &receivedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning reading: %w", err)
		}

		rd.Moisture = floatPtr(moisture)
		rd.Temperature = floatPtr(temperature)
		rd.Fertility = floatPtr(fertility)
		rd.LightLux = floatPtr(lightLux)
		rd.Battery = intPtr(battery)
		rd.SignalStrength = intPtr(signal)
		rd.RawPayload = []byte(raw)
		rd.ReceivedAt, _ = time.Parse(time.RFC3339Nano, receivedAt) //nolint:errcheck // written by Insert

		readings = append(readings, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullableInt(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
