package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefixSystem is the base for topics the bridge itself publishes.
const TopicPrefixSystem = "plantbridge/system"

// Topics provides builders for the bridge's own MQTT topics.
type Topics struct{}

// SystemStatus returns the retained online/offline status topic.
//
// Example: plantbridge/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ValidateFilter checks that a subscription filter uses wildcards legally:
// '+' must occupy a whole level and '#' must be the whole final level.
func ValidateFilter(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch {
		case level == "#":
			if i != len(levels)-1 {
				return fmt.Errorf("%w: '#' must be the last level in %q", ErrInvalidTopic, filter)
			}
		case level == "+":
		case strings.ContainsAny(level, "+#"):
			return fmt.Errorf("%w: wildcard must occupy a whole level in %q", ErrInvalidTopic, filter)
		}
	}
	return nil
}

// MatchFilter reports whether a concrete topic matches a subscription filter.
func MatchFilter(filter, topic string) bool {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")

	for i, level := range f {
		if level == "#" {
			return true
		}
		if i >= len(t) {
			return false
		}
		if level != "+" && level != t[i] {
			return false
		}
	}
	return len(f) == len(t)
}
