package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/plantbridge/internal/reading"
	"github.com/nerrad567/plantbridge/internal/sensor"
	"github.com/nerrad567/plantbridge/internal/telemetry"
)

// SensorResolver maps an identity to a sensor and its current owner.
type SensorResolver interface {
	Resolve(ctx context.Context, deviceID string, observed sensor.Metadata) (sensor.Resolution, error)
}

// ReadingWriter stores one reading.
type ReadingWriter interface {
	Write(ctx context.Context, in reading.Input) (*reading.Reading, error)
}

// Logger is the logging surface the pipeline needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Pipeline processes inbound messages. It keeps no per-message state, so
// Handle may run concurrently for overlapping messages.
type Pipeline struct {
	classifier *telemetry.Classifier
	resolver   SensorResolver
	writer     ReadingWriter
	metrics    *Metrics
	logger     Logger
	now        func() time.Time
}

// NewPipeline wires the pipeline stages together.
func NewPipeline(classifier *telemetry.Classifier, resolver SensorResolver, writer ReadingWriter) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		resolver:   resolver,
		writer:     writer,
		logger:     noopLogger{},
		now:        time.Now,
	}
}

// SetLogger sets the logger for the pipeline.
func (p *Pipeline) SetLogger(logger Logger) {
	p.logger = logger
}

// SetMetrics attaches outcome metrics. Nil disables them.
func (p *Pipeline) SetMetrics(m *Metrics) {
	p.metrics = m
}

// Handler adapts the pipeline to an MQTT message callback. ctx should be
// the process context so shutdown cancels in-flight store calls.
func (p *Pipeline) Handler(ctx context.Context) func(topic string, payload []byte) error {
	return func(topic string, payload []byte) error {
		p.Handle(ctx, topic, payload)
		return nil
	}
}

// Handle runs one message through the pipeline and reports how it ended.
func (p *Pipeline) Handle(ctx context.Context, topic string, payload []byte) Outcome {
	start := p.now()
	outcome := p.handle(ctx, topic, payload, start)
	p.metrics.recordOutcome(outcome, p.now().Sub(start))
	return outcome
}

func (p *Pipeline) handle(ctx context.Context, topic string, payload []byte, receivedAt time.Time) Outcome {
	msg, err := telemetry.Parse(payload)
	if err != nil {
		p.logger.Warn("skipping malformed payload", "topic", topic, "error", err)
		return OutcomeMalformed
	}

	deviceID, err := telemetry.Identify(msg, topic)
	if err != nil {
		p.logger.Warn("skipping message without device identity", "topic", topic)
		return OutcomeUnidentified
	}

	class := p.classifier.Classify(msg, telemetry.HexOnly(deviceID))
	if !class.InScope {
		return OutcomeOutOfScope
	}

	measurements := telemetry.MapFields(msg)

	res, err := p.resolver.Resolve(ctx, deviceID, class.Metadata)
	if err != nil {
		return p.resolveFailed(topic, deviceID, err)
	}
	p.metrics.recordResolution(res)

	if len(res.Patched) > 0 {
		p.logger.Info("sensor metadata updated",
			"device_id", deviceID,
			"sensor_id", res.SensorID,
			"fields", res.Patched,
		)
	}

	rd, err := p.writer.Write(ctx, reading.Input{
		SensorID:     res.SensorID,
		DeviceID:     deviceID,
		OwnerID:      res.OwnerID,
		Topic:        topic,
		Measurements: measurements,
		Raw:          msg.Raw(),
		ReceivedAt:   receivedAt,
	})
	if err != nil {
		p.logger.Error("reading write failed",
			"device_id", deviceID,
			"sensor_id", res.SensorID,
			"transient", sensor.IsTransient(err),
			"error", err,
		)
		return OutcomeWriteFailed
	}

	p.logger.Debug("reading stored",
		"device_id", deviceID,
		"sensor_id", res.SensorID,
		"reading_id", rd.ID,
		"owner_id", rd.OwnerIDSnapshot,
		"rule", string(class.Rule),
		"resolution", string(res.Outcome),
	)
	return OutcomeWritten
}

func (p *Pipeline) resolveFailed(topic, deviceID string, err error) Outcome {
	switch {
	case errors.Is(err, sensor.ErrUnregisteredSensor):
		p.logger.Warn("unknown sensor and no fallback owner configured, skipping",
			"device_id", deviceID,
			"topic", topic,
		)
		return OutcomeUnregistered
	case errors.Is(err, sensor.ErrSensorExists):
		p.logger.Error("sensor identity conflict during auto-registration",
			"device_id", deviceID,
			"error", err,
		)
		return OutcomeIdentityConflict
	default:
		p.logger.Error("sensor resolution failed",
			"device_id", deviceID,
			"transient", sensor.IsTransient(err),
			"error", err,
		)
		return OutcomeResolveFailed
	}
}
