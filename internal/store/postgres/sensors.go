package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerrad567/plantbridge/internal/sensor"
)

// SensorRepository implements sensor.Repository on PostgreSQL.
type SensorRepository struct {
	db *gorm.DB
}

// FindByDeviceID retrieves a sensor by canonical identity.
func (r *SensorRepository) FindByDeviceID(ctx context.Context, deviceID string) (*sensor.Sensor, error) {
	var row sensorRow
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sensor.ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor: %w", err)
	}
	return row.toSensor(), nil
}

// GetByID retrieves a sensor by its store-assigned id.
func (r *SensorRepository) GetByID(ctx context.Context, id string) (*sensor.Sensor, error) {
	var row sensorRow
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sensor.ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor: %w", err)
	}
	return row.toSensor(), nil
}

// Create inserts a new sensor. A second registration of the same identity
// fails with sensor.ErrSensorExists.
func (r *SensorRepository) Create(ctx context.Context, s *sensor.Sensor) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}

	row := sensorToRow(s)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", sensor.ErrSensorExists, s.DeviceID)
		}
		return fmt.Errorf("inserting sensor: %w", err)
	}
	return nil
}

// UpdateMetadata applies a metadata patch. An empty patch is a no-op.
func (r *SensorRepository) UpdateMetadata(ctx context.Context, sensorID string, patch sensor.MetadataPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	cols := patchColumns(patch)
	cols["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&sensorRow{}).
		Where("id = ?", sensorID).
		Updates(cols)
	if result.Error != nil {
		return fmt.Errorf("updating sensor metadata: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return sensor.ErrSensorNotFound
	}
	return nil
}
