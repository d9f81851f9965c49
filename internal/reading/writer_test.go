package reading

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type mockRepository struct {
	inserted []*Reading
	err      error
}

func (m *mockRepository) Insert(_ context.Context, r *Reading) error {
	if m.err != nil {
		return m.err
	}
	r.ID = "reading-1"
	m.inserted = append(m.inserted, r)
	return nil
}

type recordedPoint struct {
	measurement string
	tags        map[string]string
	fields      map[string]any
	ts          time.Time
}

type fakePointWriter struct {
	points []recordedPoint
}

func (f *fakePointWriter) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	f.points = append(f.points, recordedPoint{measurement, tags, fields, ts})
}

func TestWriter_Write(t *testing.T) {
	repo := &mockRepository{}
	w := NewWriter(repo)

	received := time.Date(2026, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	r, err := w.Write(context.Background(), Input{
		SensorID:     "sensor-1",
		DeviceID:     "C4:7C:8D:6D:67:2B",
		OwnerID:      "quarantine-1",
		Topic:        "home/gw/BTtoMQTT/C47C8D6D672B",
		Measurements: Measurements{Moisture: f64(35)},
		Raw:          []byte(`{"moi":35}`),
		ReceivedAt:   received,
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d readings, want 1", len(repo.inserted))
	}
	if r.OwnerIDSnapshot != "quarantine-1" {
		t.Errorf("OwnerIDSnapshot = %q", r.OwnerIDSnapshot)
	}
	if r.ReceivedAt.Location() != time.UTC || !r.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want %v in UTC", r.ReceivedAt, received)
	}
}

func TestWriter_DefaultsReceivedAt(t *testing.T) {
	w := NewWriter(&mockRepository{})
	before := time.Now()

	r, err := w.Write(context.Background(), Input{SensorID: "s", OwnerID: "o"})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if r.ReceivedAt.Before(before.Add(-time.Second)) {
		t.Errorf("ReceivedAt = %v, want about now", r.ReceivedAt)
	}
}

func TestWriter_RejectsMissingOwner(t *testing.T) {
	repo := &mockRepository{}
	w := NewWriter(repo)

	_, err := w.Write(context.Background(), Input{SensorID: "sensor-1"})
	if !errors.Is(err, ErrMissingOwner) {
		t.Errorf("Write() error = %v, want ErrMissingOwner", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("orphan reading inserted")
	}
}

func TestWriter_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	points := &fakePointWriter{}
	w := NewWriter(&mockRepository{err: storeErr})
	w.SetMirror(NewPointMirror(points))

	_, err := w.Write(context.Background(), Input{SensorID: "s", OwnerID: "o", Measurements: Measurements{Moisture: f64(1)}})
	if !errors.Is(err, storeErr) {
		t.Errorf("Write() error = %v, want wrapped store error", err)
	}
	if len(points.points) != 0 {
		t.Error("failed reading was mirrored")
	}
}

func TestWriter_Mirror(t *testing.T) {
	points := &fakePointWriter{}
	w := NewWriter(&mockRepository{})
	w.SetMirror(NewPointMirror(points))

	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := w.Write(context.Background(), Input{
		SensorID:     "sensor-1",
		DeviceID:     "C4:7C:8D:6D:67:2B",
		OwnerID:      "plant-a",
		Measurements: Measurements{Moisture: f64(35), Battery: i64(80)},
		ReceivedAt:   received,
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if len(points.points) != 1 {
		t.Fatalf("mirrored %d points, want 1", len(points.points))
	}
	p := points.points[0]
	if p.measurement != MeasurementPlantReadings {
		t.Errorf("measurement = %q", p.measurement)
	}
	wantTags := map[string]string{"device_id": "C4:7C:8D:6D:67:2B", "sensor_id": "sensor-1", "owner_id": "plant-a"}
	if !reflect.DeepEqual(p.tags, wantTags) {
		t.Errorf("tags = %v, want %v", p.tags, wantTags)
	}
	wantFields := map[string]any{"moisture": 35.0, "battery": int64(80)}
	if !reflect.DeepEqual(p.fields, wantFields) {
		t.Errorf("fields = %v, want %v", p.fields, wantFields)
	}
	if !p.ts.Equal(received) {
		t.Errorf("timestamp = %v, want %v", p.ts, received)
	}
}

func TestPointMirror_SkipsEmpty(t *testing.T) {
	points := &fakePointWriter{}
	NewPointMirror(points).Mirror(&Reading{SensorID: "s", OwnerIDSnapshot: "o"}, "id")

	if len(points.points) != 0 {
		t.Error("empty reading mirrored")
	}
}

func TestMeasurements_IsEmpty(t *testing.T) {
	if !(Measurements{}).IsEmpty() {
		t.Error("zero Measurements should be empty")
	}
	if (Measurements{SignalStrength: i64(-70)}).IsEmpty() {
		t.Error("Measurements with rssi should not be empty")
	}
}
