package sensor

import (
	"reflect"
	"testing"
)

func str(s string) *string { return &s }

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		stored     Metadata
		observed   Metadata
		wantFields []string
	}{
		{
			name:       "nothing observed",
			stored:     Metadata{Model: str("MiFlora"), Brand: str("Xiaomi")},
			observed:   Metadata{ProbeType: ProbeUnknown},
			wantFields: nil,
		},
		{
			name:       "identical values",
			stored:     Metadata{Model: str("MiFlora"), HWName: str("Flower care"), ProbeType: ProbeShallow},
			observed:   Metadata{Model: str("MiFlora"), HWName: str("Flower care"), ProbeType: ProbeShallow},
			wantFields: nil,
		},
		{
			name:       "model differs",
			stored:     Metadata{Model: str("Unknown")},
			observed:   Metadata{Model: str("MiFlora")},
			wantFields: []string{"model"},
		},
		{
			name:       "fills stored nulls",
			stored:     Metadata{},
			observed:   Metadata{Model: str("MiFlora"), Brand: str("Xiaomi"), HWName: str("Flower care"), ProbeType: ProbeShallow},
			wantFields: []string{"model", "brand", "hw_name", "probe_type"},
		},
		{
			name:       "empty observed string ignored",
			stored:     Metadata{Brand: str("Xiaomi")},
			observed:   Metadata{Brand: str("")},
			wantFields: nil,
		},
		{
			name:       "unknown probe never clears stored",
			stored:     Metadata{ProbeType: ProbeDeep},
			observed:   Metadata{ProbeType: ProbeUnknown},
			wantFields: nil,
		},
		{
			name:       "probe corrected",
			stored:     Metadata{ProbeType: ProbeShallow},
			observed:   Metadata{ProbeType: ProbeDeep},
			wantFields: []string{"probe_type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch := Reconcile(tt.stored, tt.observed)
			if got := patch.Fields(); !reflect.DeepEqual(got, tt.wantFields) {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
			if patch.IsEmpty() != (len(tt.wantFields) == 0) {
				t.Errorf("IsEmpty() = %v with fields %v", patch.IsEmpty(), tt.wantFields)
			}
		})
	}
}

func TestReconcile_NeverRegresses(t *testing.T) {
	stored := Metadata{Model: str("HHCCJCY01"), Brand: str("Xiaomi"), HWName: str("Flower care"), ProbeType: ProbeShallow}

	patch := Reconcile(stored, Metadata{ProbeType: ProbeUnknown})
	merged := stored
	patch.Apply(&merged)

	if *merged.Model != "HHCCJCY01" || *merged.Brand != "Xiaomi" || *merged.HWName != "Flower care" {
		t.Errorf("stored values regressed: %+v", merged)
	}
	if merged.ProbeType != ProbeShallow {
		t.Errorf("ProbeType = %q, want shallow", merged.ProbeType)
	}
}

func TestMetadataPatch_Apply(t *testing.T) {
	m := Metadata{Model: str("Unknown")}
	deep := ProbeDeep
	MetadataPatch{Model: str("MiFlora"), ProbeType: &deep}.Apply(&m)

	if m.Model == nil || *m.Model != "MiFlora" {
		t.Errorf("Model = %v, want MiFlora", m.Model)
	}
	if m.ProbeType != ProbeDeep {
		t.Errorf("ProbeType = %q, want deep", m.ProbeType)
	}
	if m.Brand != nil {
		t.Errorf("Brand = %v, want nil", m.Brand)
	}
}

func TestParseProbeType(t *testing.T) {
	tests := map[string]ProbeType{
		"shallow": ProbeShallow,
		"deep":    ProbeDeep,
		"":        ProbeUnknown,
		"unknown": ProbeUnknown,
		"medium":  ProbeUnknown,
	}
	for in, want := range tests {
		if got := ParseProbeType(in); got != want {
			t.Errorf("ParseProbeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSensor_Validate(t *testing.T) {
	if err := (&Sensor{DeviceID: "C4:7C:8D:6D:67:2B", OwnerID: "plant-1"}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (&Sensor{DeviceID: "C4:7C:8D:6D:67:2B"}).Validate(); err != ErrInvalidSensor {
		t.Errorf("Validate() without owner = %v, want ErrInvalidSensor", err)
	}
	if err := (&Sensor{OwnerID: "plant-1"}).Validate(); err != ErrInvalidSensor {
		t.Errorf("Validate() without device id = %v, want ErrInvalidSensor", err)
	}
}
