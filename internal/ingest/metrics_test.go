package ingest

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/plantbridge/internal/sensor"
)

func TestMetrics_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	res := &mockResolver{res: sensor.Resolution{
		SensorID: "sensor-1",
		OwnerID:  "quarantine-1",
		Outcome:  sensor.OutcomeCreated,
	}}
	p, _ := newTestPipeline(res, &mockWriter{})
	p.SetMetrics(m)

	ctx := context.Background()
	p.Handle(ctx, flowerCareTopic, []byte(`{"plant":true,"moi":20}`))
	p.Handle(ctx, flowerCareTopic, []byte(`garbage`))
	p.Handle(ctx, "home/gw/BTtoMQTT/A4C138000000", []byte(`{}`))

	checks := map[Outcome]float64{
		OutcomeWritten:     1,
		OutcomeMalformed:   1,
		OutcomeOutOfScope:  1,
		OutcomeWriteFailed: 0,
	}
	for outcome, want := range checks {
		got := testutil.ToFloat64(m.messagesTotal.WithLabelValues(string(outcome)))
		if got != want {
			t.Errorf("messages_total{outcome=%q} = %v, want %v", outcome, got, want)
		}
	}

	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("created")); got != 1 {
		t.Errorf("sensor_resolutions_total{result=created} = %v, want 1", got)
	}

	// Every outcome series exists from the start.
	if n := testutil.CollectAndCount(m.messagesTotal); n != len(Outcomes) {
		t.Errorf("messages_total series = %d, want %d", n, len(Outcomes))
	}
}

func TestMetrics_PatchedFields(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	m.recordResolution(sensor.Resolution{Outcome: sensor.OutcomeHit, Patched: []string{"model", "probe_type"}})

	if got := testutil.ToFloat64(m.patchedFields.WithLabelValues("model")); got != 1 {
		t.Errorf("metadata_patches_total{field=model} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.patchedFields.WithLabelValues("probe_type")); got != 1 {
		t.Errorf("metadata_patches_total{field=probe_type} = %v, want 1", got)
	}
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("first NewMetrics() error = %v", err)
	}
	if _, err := NewMetrics(reg); err == nil {
		t.Error("second NewMetrics() on the same registry should fail")
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.recordOutcome(OutcomeWritten, 0)
	m.recordResolution(sensor.Resolution{Outcome: sensor.OutcomeHit})
}
