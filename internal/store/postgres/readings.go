package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nerrad567/plantbridge/internal/reading"
)

// ReadingRepository implements reading.Repository on PostgreSQL.
type ReadingRepository struct {
	db *gorm.DB
}

// Insert stores a reading.
func (r *ReadingRepository) Insert(ctx context.Context, rd *reading.Reading) error {
	if err := rd.Validate(); err != nil {
		return err
	}
	if rd.ID == "" {
		rd.ID = uuid.NewString()
	}

	row := readingToRow(rd)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}
	return nil
}

// ListBySensor returns a sensor's readings, oldest first.
func (r *ReadingRepository) ListBySensor(ctx context.Context, sensorID string) ([]reading.Reading, error) {
	var rows []readingRow
	err := r.db.WithContext(ctx).
		Where("sensor_id = ?", sensorID).
		Order("received_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}

	readings := make([]reading.Reading, 0, len(rows))
	for _, row := range rows {
		readings = append(readings, row.toReading())
	}
	return readings, nil
}
