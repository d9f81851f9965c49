package reading

import (
	"context"
	"fmt"
	"time"
)

// MeasurementPlantReadings is the InfluxDB measurement readings are mirrored to.
const MeasurementPlantReadings = "plant_readings"

// Input is everything the pipeline knows about a message once its sensor
// has been resolved.
type Input struct {
	SensorID string
	DeviceID string

	// OwnerID is the owner resolved while processing this message and
	// becomes the reading's owner snapshot.
	OwnerID string

	Topic        string
	Measurements Measurements
	Raw          []byte
	ReceivedAt   time.Time
}

// Mirror receives every reading after it has been stored.
type Mirror interface {
	Mirror(r *Reading, deviceID string)
}

// PointWriter is the part of the InfluxDB client the mirror uses.
type PointWriter interface {
	WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time)
}

// PointMirror mirrors readings as time-series points.
type PointMirror struct {
	points PointWriter
}

// NewPointMirror wraps a point writer such as *influxdb.Client.
func NewPointMirror(points PointWriter) *PointMirror {
	return &PointMirror{points: points}
}

// Mirror queues one point per reading. Readings with no measurements are
// skipped since a point needs at least one field.
func (m *PointMirror) Mirror(r *Reading, deviceID string) {
	fields := r.Fields()
	if len(fields) == 0 {
		return
	}
	m.points.WritePointWithTime(MeasurementPlantReadings,
		map[string]string{
			"device_id": deviceID,
			"sensor_id": r.SensorID,
			"owner_id":  r.OwnerIDSnapshot,
		},
		fields,
		r.ReceivedAt,
	)
}

// Writer builds and stores readings.
type Writer struct {
	repo   Repository
	mirror Mirror
}

// NewWriter creates a writer backed by repo.
func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

// SetMirror attaches an optional mirror. Pass nil to detach.
func (w *Writer) SetMirror(m Mirror) {
	w.mirror = m
}

// Write stores exactly one reading for in. There is no retry; the caller
// drops the message on error. An empty owner is rejected with
// ErrMissingOwner before touching the store.
func (w *Writer) Write(ctx context.Context, in Input) (*Reading, error) {
	receivedAt := in.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	r := &Reading{
		SensorID:        in.SensorID,
		OwnerIDSnapshot: in.OwnerID,
		Measurements:    in.Measurements,
		RawPayload:      in.Raw,
		Topic:           in.Topic,
		ReceivedAt:      receivedAt.UTC(),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if err := w.repo.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("writing reading for sensor %s: %w", in.SensorID, err)
	}

	if w.mirror != nil {
		w.mirror.Mirror(r, in.DeviceID)
	}
	return r, nil
}
