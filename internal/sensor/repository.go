package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Repository is the sensor store as seen by the resolver.
type Repository interface {
	// FindByDeviceID returns the sensor registered under a canonical identity.
	// Returns ErrSensorNotFound if there is none.
	FindByDeviceID(ctx context.Context, deviceID string) (*Sensor, error)

	// Create inserts a new sensor, assigning ID and timestamps when unset.
	// Returns ErrSensorExists if the identity is already registered.
	Create(ctx context.Context, s *Sensor) error

	// UpdateMetadata applies a metadata patch to an existing sensor.
	// Returns ErrSensorNotFound if the sensor does not exist.
	UpdateMetadata(ctx context.Context, sensorID string, patch MetadataPatch) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sensorColumns = `id, device_id, owner_id, model, brand, hw_name, probe_type, notes, created_at, updated_at`

// FindByDeviceID retrieves a sensor by canonical identity.
func (r *SQLiteRepository) FindByDeviceID(ctx context.Context, deviceID string) (*Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE device_id = ?`, deviceID)

	s, err := scanSensor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor: %w", err)
	}
	return s, nil
}

// GetByID retrieves a sensor by its store-assigned id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Sensor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sensorColumns+` FROM sensors WHERE id = ?`, id)

	s, err := scanSensor(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor: %w", err)
	}
	return s, nil
}

// Create inserts a new sensor.
func (r *SQLiteRepository) Create(ctx context.Context, s *Sensor) error {
	if err := s.Validate(); err != nil {
		return err
	}
	prepareForCreate(s)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sensors (`+sensorColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.DeviceID,
		s.OwnerID,
		nullableString(s.Model),
		nullableString(s.Brand),
		nullableString(s.HWName),
		nullableProbe(s.ProbeType),
		nullableString(s.Notes),
		s.CreatedAt.Format(time.RFC3339Nano),
		s.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSensorExists
		}
		return fmt.Errorf("inserting sensor: %w", err)
	}
	return nil
}

// UpdateMetadata applies only the non-nil fields of patch.
func (r *SQLiteRepository) UpdateMetadata(ctx context.Context, sensorID string, patch MetadataPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	if patch.Model != nil {
		sets = append(sets, "model = ?")
		args = append(args, *patch.Model)
	}
	if patch.Brand != nil {
		sets = append(sets, "brand = ?")
		args = append(args, *patch.Brand)
	}
	if patch.HWName != nil {
		sets = append(sets, "hw_name = ?")
		args = append(args, *patch.HWName)
	}
	if patch.ProbeType != nil {
		sets = append(sets, "probe_type = ?")
		args = append(args, nullableProbe(*patch.ProbeType))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano), sensorID)

	//nolint:gosec // column names are fixed above, values are bound
	result, err := r.db.ExecContext(ctx,
		`UPDATE sensors SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating sensor metadata: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrSensorNotFound
	}
	return nil
}

// prepareForCreate fills in the id and timestamps a new sensor needs.
func prepareForCreate(s *Sensor) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSensor(row scanner) (*Sensor, error) {
	var s Sensor
	var model, brand, hwName, probe, notes sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(
		&s.ID, &s.DeviceID, &s.OwnerID,
		&model, &brand, &hwName, &probe, &notes,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	s.Model = stringPtr(model)
	s.Brand = stringPtr(brand)
	s.HWName = stringPtr(hwName)
	s.ProbeType = ParseProbeType(probe.String)
	s.Notes = stringPtr(notes)
	s.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt) //nolint:errcheck // written by Create
	s.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt) //nolint:errcheck // written by Create/UpdateMetadata
	return &s, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableProbe(p ProbeType) sql.NullString {
	if !p.Known() {
		return sql.NullString{}
	}
	return sql.NullString{String: string(p), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// isUniqueConstraintError reports a SQLite unique or primary key violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
