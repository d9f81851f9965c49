package telemetry

import (
	"strings"
)

const macHexLen = 12

// Identity keys, in priority order.
var identityKeys = []string{"device_id", "id"}

// Normalize canonicalises a device identifier. Twelve hex digits, with any
// separators, become AA:BB:CC:DD:EE:FF; anything else is returned verbatim.
// An empty or blank input returns "".
//
// Normalize is idempotent.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	hex := HexOnly(raw)
	if len(hex) != macHexLen {
		return raw
	}

	var b strings.Builder
	b.Grow(macHexLen + macHexLen/2 - 1)
	for i := 0; i < macHexLen; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex[i : i+2])
	}
	return b.String()
}

// HexOnly strips every non-hex character and upper-cases the rest.
func HexOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// LastTopicSegment returns the last non-empty level of an MQTT topic.
//
//	home/gw/BTtoMQTT/C47C8D6D672B  -> C47C8D6D672B
//	home/gw/BTtoMQTT/C47C8D6D672B/ -> C47C8D6D672B
func LastTopicSegment(topic string) string {
	levels := strings.Split(topic, "/")
	for i := len(levels) - 1; i >= 0; i-- {
		if strings.TrimSpace(levels[i]) != "" {
			return levels[i]
		}
	}
	return ""
}

// Identify returns the canonical identity for a message: the payload's
// device_id or id when present, otherwise the last topic segment.
// Returns ErrNoIdentity when neither yields anything.
func Identify(p Payload, topic string) (string, error) {
	for _, key := range identityKeys {
		if raw, ok := rawIdentifier(p, key); ok {
			return Normalize(raw), nil
		}
	}

	if id := Normalize(LastTopicSegment(topic)); id != "" {
		return id, nil
	}
	return "", ErrNoIdentity
}

// rawIdentifier returns a string id field exactly as sent. Blank strings
// and non-string values count as absent.
func rawIdentifier(p Payload, key string) (string, bool) {
	v, ok := p.Value(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
