package sensor

import (
	"context"
	"errors"
	"fmt"
)

// AutoRegisteredNote is stored in Notes for sensors the bridge created itself.
const AutoRegisteredNote = "Auto-registered by worker"

// Outcome describes how an identity was resolved.
type Outcome string

// Resolution outcomes.
const (
	OutcomeHit     Outcome = "hit"
	OutcomeCreated Outcome = "created"
)

// Resolution is the sensor and owner a message should be recorded against.
type Resolution struct {
	SensorID string
	OwnerID  string
	Outcome  Outcome

	// Patched lists the metadata fields updated on a hit.
	Patched []string
}

// Logger is the logging surface the resolver needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Resolver maps device identities to registered sensors.
// It holds no per-message state and is safe for concurrent use.
type Resolver struct {
	repo          Repository
	fallbackOwner string
	logger        Logger
}

// NewResolver creates a resolver. An empty fallbackOwnerID disables
// auto-registration.
func NewResolver(repo Repository, fallbackOwnerID string) *Resolver {
	return &Resolver{
		repo:          repo,
		fallbackOwner: fallbackOwnerID,
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Resolve finds the sensor for deviceID, reconciling its metadata against
// observed, or registers it under the fallback owner.
//
// A failed lookup is logged and treated as a miss, so a flaky store leans
// toward registration; the UNIQUE identity constraint then reports
// ErrSensorExists if the sensor was in fact there. Returns
// ErrUnregisteredSensor when the identity is unknown and no fallback owner
// is configured.
func (r *Resolver) Resolve(ctx context.Context, deviceID string, observed Metadata) (Resolution, error) {
	existing, err := r.repo.FindByDeviceID(ctx, deviceID)
	switch {
	case err == nil:
		return r.reconcile(ctx, existing, observed), nil
	case errors.Is(err, ErrSensorNotFound):
	default:
		r.logger.Error("sensor lookup failed, treating as unregistered",
			"device_id", deviceID,
			"transient", IsTransient(err),
			"error", err,
		)
	}

	if r.fallbackOwner == "" {
		return Resolution{}, ErrUnregisteredSensor
	}

	note := AutoRegisteredNote
	created := &Sensor{
		DeviceID: deviceID,
		OwnerID:  r.fallbackOwner,
		Metadata: observed,
		Notes:    &note,
	}
	if err := r.repo.Create(ctx, created); err != nil {
		return Resolution{}, fmt.Errorf("auto-registering sensor %s: %w", deviceID, err)
	}

	r.logger.Info("sensor auto-registered",
		"device_id", deviceID,
		"sensor_id", created.ID,
		"owner_id", created.OwnerID,
	)

	return Resolution{
		SensorID: created.ID,
		OwnerID:  created.OwnerID,
		Outcome:  OutcomeCreated,
	}, nil
}

// reconcile patches a known sensor. A failed patch is logged and the
// reading is still recorded against the sensor.
func (r *Resolver) reconcile(ctx context.Context, s *Sensor, observed Metadata) Resolution {
	res := Resolution{
		SensorID: s.ID,
		OwnerID:  s.OwnerID,
		Outcome:  OutcomeHit,
	}

	patch := Reconcile(s.Metadata, observed)
	if patch.IsEmpty() {
		return res
	}

	if err := r.repo.UpdateMetadata(ctx, s.ID, patch); err != nil {
		r.logger.Error("sensor metadata patch failed",
			"sensor_id", s.ID,
			"device_id", s.DeviceID,
			"fields", patch.Fields(),
			"transient", IsTransient(err),
			"error", err,
		)
		return res
	}

	patch.Apply(&s.Metadata)
	res.Patched = patch.Fields()
	return res
}
