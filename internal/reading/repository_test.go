package reading

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/plantbridge/internal/infrastructure/database"
	_ "github.com/nerrad567/plantbridge/migrations"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

// setupTestDB opens a migrated SQLite database with one registered sensor.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "readings.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := db.ExecContext(ctx, `
		INSERT INTO sensors (id, device_id, owner_id, created_at, updated_at)
		VALUES ('sensor-1', 'C4:7C:8D:6D:67:2B', 'plant-a', ?, ?)`, now, now); err != nil {
		t.Fatalf("failed to seed sensor: %v", err)
	}
	return db.DB
}

func TestSQLiteRepository_InsertAndList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rd := &Reading{
		SensorID:        "sensor-1",
		OwnerIDSnapshot: "plant-a",
		Measurements: Measurements{
			Moisture:    f64(35),
			Temperature: f64(21.5),
			Fertility:   f64(450),
			Battery:     i64(80),
		},
		RawPayload: []byte(`{"moi":35,"tempc":21.5,"fer":450,"battery":80}`),
		Topic:      "home/gw/BTtoMQTT/C47C8D6D672B",
		ReceivedAt: received,
	}
	if err := repo.Insert(ctx, rd); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if rd.ID == "" {
		t.Error("Insert() did not assign an id")
	}

	got, err := repo.ListBySensor(ctx, "sensor-1")
	if err != nil {
		t.Fatalf("ListBySensor() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}

	r := got[0]
	if *r.Moisture != 35 || *r.Temperature != 21.5 || *r.Fertility != 450 || *r.Battery != 80 {
		t.Errorf("measurements = %+v", r.Measurements)
	}
	if r.LightLux != nil || r.SignalStrength != nil {
		t.Errorf("absent measurements stored as values: lux=%v rssi=%v", r.LightLux, r.SignalStrength)
	}
	if r.OwnerIDSnapshot != "plant-a" {
		t.Errorf("OwnerIDSnapshot = %q", r.OwnerIDSnapshot)
	}
	if string(r.RawPayload) != string(rd.RawPayload) {
		t.Errorf("RawPayload = %s", r.RawPayload)
	}
	if !r.ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want %v", r.ReceivedAt, received)
	}
}

func TestSQLiteRepository_InsertRejectsMissingOwner(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Insert(context.Background(), &Reading{SensorID: "sensor-1", ReceivedAt: time.Now()})
	if !errors.Is(err, ErrMissingOwner) {
		t.Errorf("Insert() error = %v, want ErrMissingOwner", err)
	}
}

func TestSQLiteRepository_InsertUnknownSensor(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Insert(context.Background(), &Reading{
		SensorID:        "no-such-sensor",
		OwnerIDSnapshot: "plant-a",
		ReceivedAt:      time.Now(),
	})
	if err == nil {
		t.Error("Insert() for unknown sensor should violate the foreign key")
	}
}

func TestOwnerSnapshotSurvivesReassignment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	w := NewWriter(repo)
	ctx := context.Background()

	if _, err := w.Write(ctx, Input{SensorID: "sensor-1", OwnerID: "plant-a", Raw: []byte(`{}`)}); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	if _, err := db.ExecContext(ctx, `UPDATE sensors SET owner_id = 'plant-b' WHERE id = 'sensor-1'`); err != nil {
		t.Fatalf("reassigning sensor: %v", err)
	}

	if _, err := w.Write(ctx, Input{SensorID: "sensor-1", OwnerID: "plant-b", Raw: []byte(`{}`)}); err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	got, err := repo.ListBySensor(ctx, "sensor-1")
	if err != nil {
		t.Fatalf("ListBySensor() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].OwnerIDSnapshot != "plant-a" || got[1].OwnerIDSnapshot != "plant-b" {
		t.Errorf("snapshots = %q, %q; want plant-a, plant-b", got[0].OwnerIDSnapshot, got[1].OwnerIDSnapshot)
	}
}
