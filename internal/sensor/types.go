package sensor

import "time"

// ProbeType is the soil depth a sensor measures at.
type ProbeType string

// Probe types. ProbeUnknown is stored as NULL.
const (
	ProbeShallow ProbeType = "shallow"
	ProbeDeep    ProbeType = "deep"
	ProbeUnknown ProbeType = "unknown"
)

// Known reports whether p is a concrete probe type.
func (p ProbeType) Known() bool {
	return p == ProbeShallow || p == ProbeDeep
}

// ParseProbeType maps a stored value back to a ProbeType.
// Anything unrecognised, including NULL, is ProbeUnknown.
func ParseProbeType(s string) ProbeType {
	switch ProbeType(s) {
	case ProbeShallow, ProbeDeep:
		return ProbeType(s)
	default:
		return ProbeUnknown
	}
}

// Metadata is the descriptive part of a sensor that gateways report.
// Nil pointers mean "not known".
type Metadata struct {
	Model     *string
	Brand     *string
	HWName    *string
	ProbeType ProbeType
}

// Sensor is a registered physical device.
type Sensor struct {
	ID       string
	DeviceID string
	OwnerID  string
	Metadata
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the fields the store requires.
func (s *Sensor) Validate() error {
	if s.DeviceID == "" || s.OwnerID == "" {
		return ErrInvalidSensor
	}
	return nil
}

// MetadataPatch lists only the metadata fields that should change.
// Nil fields are left untouched.
type MetadataPatch struct {
	Model     *string
	Brand     *string
	HWName    *string
	ProbeType *ProbeType
}

// IsEmpty reports whether the patch changes nothing.
func (p MetadataPatch) IsEmpty() bool {
	return p.Model == nil && p.Brand == nil && p.HWName == nil && p.ProbeType == nil
}

// Fields names the columns the patch touches, in a stable order.
func (p MetadataPatch) Fields() []string {
	var fields []string
	if p.Model != nil {
		fields = append(fields, "model")
	}
	if p.Brand != nil {
		fields = append(fields, "brand")
	}
	if p.HWName != nil {
		fields = append(fields, "hw_name")
	}
	if p.ProbeType != nil {
		fields = append(fields, "probe_type")
	}
	return fields
}

// Apply writes the patch onto m.
func (p MetadataPatch) Apply(m *Metadata) {
	if p.Model != nil {
		m.Model = ptr(*p.Model)
	}
	if p.Brand != nil {
		m.Brand = ptr(*p.Brand)
	}
	if p.HWName != nil {
		m.HWName = ptr(*p.HWName)
	}
	if p.ProbeType != nil {
		m.ProbeType = *p.ProbeType
	}
}

// Reconcile computes the minimal patch that brings stored up to date with
// what was just observed. A field is included only when the observed value
// is present and differs from the stored one, so a stored value is never
// cleared.
func Reconcile(stored, observed Metadata) MetadataPatch {
	var patch MetadataPatch
	patch.Model = changed(stored.Model, observed.Model)
	patch.Brand = changed(stored.Brand, observed.Brand)
	patch.HWName = changed(stored.HWName, observed.HWName)

	if observed.ProbeType.Known() && observed.ProbeType != stored.ProbeType {
		pt := observed.ProbeType
		patch.ProbeType = &pt
	}
	return patch
}

func changed(stored, observed *string) *string {
	if observed == nil || *observed == "" {
		return nil
	}
	if stored != nil && *stored == *observed {
		return nil
	}
	return ptr(*observed)
}

func ptr[T any](v T) *T {
	return &v
}
