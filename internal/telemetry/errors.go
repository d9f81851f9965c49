package telemetry

import "errors"

var (
	// ErrMalformedPayload is returned when a payload is not a JSON object.
	ErrMalformedPayload = errors.New("telemetry: malformed payload")

	// ErrNoIdentity is returned when neither the payload nor the topic
	// yields a device identity.
	ErrNoIdentity = errors.New("telemetry: no device identity")
)
