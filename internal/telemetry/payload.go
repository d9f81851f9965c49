package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Payload is a decoded gateway message.
type Payload struct {
	fields map[string]any
	raw    []byte
}

// Parse decodes a UTF-8 JSON object. Anything else (arrays, scalars,
// invalid JSON) is ErrMalformedPayload.
func Parse(data []byte) (Payload, error) {
	if !utf8.Valid(data) {
		return Payload{}, fmt.Errorf("%w: invalid UTF-8", ErrMalformedPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if fields == nil {
		return Payload{}, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}

	return Payload{fields: fields, raw: data}, nil
}

// Raw returns the bytes the payload was parsed from.
func (p Payload) Raw() []byte {
	return p.raw
}

// Value returns the raw decoded value for key. JSON null counts as absent.
func (p Payload) Value(key string) (any, bool) {
	v, ok := p.fields[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns a trimmed, non-empty string field.
func (p Payload) String(key string) (string, bool) {
	v, ok := p.Value(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Bool returns a JSON boolean field. Strings such as "true" do not count.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p.Value(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
