package reading

import "time"

// Measurements are the telemetry values extracted from one message.
// A nil field means the gateway did not report a usable value.
type Measurements struct {
	Moisture       *float64
	Temperature    *float64
	Fertility      *float64
	LightLux       *float64
	Battery        *int64
	SignalStrength *int64
}

// IsEmpty reports whether no measurement was extracted.
func (m Measurements) IsEmpty() bool {
	return m.Moisture == nil && m.Temperature == nil && m.Fertility == nil &&
		m.LightLux == nil && m.Battery == nil && m.SignalStrength == nil
}

// Fields returns the present measurements keyed by column name.
func (m Measurements) Fields() map[string]any {
	fields := make(map[string]any, 6)
	if m.Moisture != nil {
		fields["moisture"] = *m.Moisture
	}
	if m.Temperature != nil {
		fields["temperature"] = *m.Temperature
	}
	if m.Fertility != nil {
		fields["fertility"] = *m.Fertility
	}
	if m.LightLux != nil {
		fields["light_lux"] = *m.LightLux
	}
	if m.Battery != nil {
		fields["battery"] = *m.Battery
	}
	if m.SignalStrength != nil {
		fields["signal_strength"] = *m.SignalStrength
	}
	return fields
}

// Reading is one persisted telemetry row.
type Reading struct {
	ID              string
	SensorID        string
	OwnerIDSnapshot string
	Measurements
	RawPayload []byte
	Topic      string
	ReceivedAt time.Time
}

// Validate checks the invariants every stored reading must satisfy.
func (r *Reading) Validate() error {
	if r.SensorID == "" {
		return ErrMissingSensor
	}
	if r.OwnerIDSnapshot == "" {
		return ErrMissingOwner
	}
	return nil
}
