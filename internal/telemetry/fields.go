package telemetry

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/plantbridge/internal/reading"
)

// Field aliases, first present wins. Gateways disagree on naming: Theengs
// decoder uses moi/tempc/fer, others spell the fields out.
var (
	moistureKeys    = []string{"moisture", "moi"}
	temperatureKeys = []string{"temp", "tempc"}
	fertilityKeys   = []string{"fertility", "fer", "conductivity", "ec", "ec_uScm"}
	lightKeys       = []string{"light_lux", "lux"}
	batteryKeys     = []string{"battery"}
	signalKeys      = []string{"rssi"}
)

// MapFields extracts the measurements from a payload. Missing or
// unparseable values are nil, never zero.
func MapFields(p Payload) reading.Measurements {
	return reading.Measurements{
		Moisture:       toFloat(first(p, moistureKeys)),
		Temperature:    toFloat(first(p, temperatureKeys)),
		Fertility:      toFloat(first(p, fertilityKeys)),
		LightLux:       toFloat(first(p, lightKeys)),
		Battery:        toInt(first(p, batteryKeys)),
		SignalStrength: toInt(first(p, signalKeys)),
	}
}

// first returns the value of the first alias present with a non-null value.
// A present but unusable value still wins over later aliases.
func first(p Payload, keys []string) any {
	for _, k := range keys {
		if v, ok := p.Value(k); ok {
			return v
		}
	}
	return nil
}

// toFloat accepts JSON numbers and numeric strings.
func toFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// toInt truncates numbers toward zero and parses the leading integer of a
// string, so "80%" is 80 and "-3.9" is -3.
func toInt(v any) *int64 {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return &i
		}
		return truncate(toFloat(x))
	case float64:
		return truncate(toFloat(x))
	case string:
		return leadingInt(x)
	default:
		return nil
	}
}

func truncate(f *float64) *int64 {
	if f == nil {
		return nil
	}
	t := math.Trunc(*f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return nil
	}
	i := int64(t)
	return &i
}

func leadingInt(s string) *int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}

	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return nil
	}
	return &i
}
