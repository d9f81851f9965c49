package telemetry

import (
	"regexp"
	"strings"

	"github.com/nerrad567/plantbridge/internal/sensor"
)

// DefaultModel is recorded when a plant sensor's payload names no model.
const DefaultModel = "MiFlora"

// Rule names the classification rule that admitted a message.
type Rule string

// Classification rules, in evaluation order.
const (
	RuleTypeTag      Rule = "type_tag"
	RulePlantFlag    Rule = "plant_flag"
	RuleModelPattern Rule = "model_pattern"
	RuleNamePattern  Rule = "name_pattern"
	RuleVendorPrefix Rule = "vendor_prefix"
)

// Classification is the classifier's verdict for one message.
type Classification struct {
	InScope bool

	// Rule is the first rule that matched. Empty when out of scope.
	Rule Rule

	// Metadata is inferred only for in-scope messages.
	Metadata sensor.Metadata
}

// plantTypeTags are the lower-cased "type" values gateways use for plant sensors.
var plantTypeTags = map[string]struct{}{
	"miflora":      {},
	"flower care":  {},
	"hhccjcy01":    {},
	"plant":        {},
	"plant_sensor": {},
}

// plantModelPatterns match model and advertised names of plant sensors,
// tolerating any case and irregular internal whitespace.
var plantModelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)flower\s*care`),
	regexp.MustCompile(`(?i)grow\s*care\s*garden`),
	regexp.MustCompile(`(?i)mi\s*flora`),
	regexp.MustCompile(`(?i)hhccjcy01`),
	regexp.MustCompile(`(?i)hhccpot002`),
}

var (
	flowerCareName     = regexp.MustCompile(`(?i)flower\s*care`)
	growCareGardenName = regexp.MustCompile(`(?i)grow\s*care\s*garden`)
)

// vendorFamily is a BLE OUI prefix known to belong to plant sensors.
type vendorFamily struct {
	prefix string
	name   string
	probe  sensor.ProbeType
}

var vendorFamilies = []vendorFamily{
	{prefix: "C47C8D", name: "Flower Care", probe: sensor.ProbeShallow},
	{prefix: "5C857E", name: "Grow Care Garden", probe: sensor.ProbeDeep},
}

func familyFor(hexID string) (vendorFamily, bool) {
	for _, f := range vendorFamilies {
		if strings.HasPrefix(hexID, f.prefix) {
			return f, true
		}
	}
	return vendorFamily{}, false
}

// classificationRule reports match or pass for one signal.
type classificationRule struct {
	name  Rule
	match func(p Payload, hexID string) bool
}

var classificationRules = []classificationRule{
	{RuleTypeTag, func(p Payload, _ string) bool {
		tag, ok := p.String("type")
		if !ok {
			return false
		}
		_, known := plantTypeTags[strings.ToLower(tag)]
		return known
	}},
	{RulePlantFlag, func(p Payload, _ string) bool {
		plant, ok := p.Bool("plant")
		return ok && plant
	}},
	{RuleModelPattern, func(p Payload, _ string) bool {
		return matchesPlantModel(p, "model")
	}},
	{RuleNamePattern, func(p Payload, _ string) bool {
		return matchesPlantModel(p, "name")
	}},
	{RuleVendorPrefix, func(_ Payload, hexID string) bool {
		_, ok := familyFor(hexID)
		return ok
	}},
}

func matchesPlantModel(p Payload, key string) bool {
	s, ok := p.String(key)
	if !ok {
		return false
	}
	for _, re := range plantModelPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// probeRule infers a probe type or passes.
type probeRule func(hwName, hexID string) (sensor.ProbeType, bool)

var probeRules = []probeRule{
	func(hwName, _ string) (sensor.ProbeType, bool) {
		return sensor.ProbeShallow, flowerCareName.MatchString(hwName)
	},
	func(hwName, _ string) (sensor.ProbeType, bool) {
		return sensor.ProbeDeep, growCareGardenName.MatchString(hwName)
	},
	func(_, hexID string) (sensor.ProbeType, bool) {
		f, ok := familyFor(hexID)
		return f.probe, ok
	},
}

func inferProbe(hwName, hexID string) sensor.ProbeType {
	for _, rule := range probeRules {
		if probe, ok := rule(hwName, hexID); ok {
			return probe
		}
	}
	return sensor.ProbeUnknown
}

// Classifier gates messages to plant sensors.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	defaultModel string
}

// NewClassifier creates a classifier. An empty defaultModel uses DefaultModel.
func NewClassifier(defaultModel string) *Classifier {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &Classifier{defaultModel: defaultModel}
}

// Classify evaluates the rules in order and stops at the first match.
// hexID is the identity with separators removed, see HexOnly.
func (c *Classifier) Classify(p Payload, hexID string) Classification {
	for _, rule := range classificationRules {
		if rule.match(p, hexID) {
			return Classification{
				InScope:  true,
				Rule:     rule.name,
				Metadata: c.inferMetadata(p, hexID),
			}
		}
	}
	return Classification{}
}

func (c *Classifier) inferMetadata(p Payload, hexID string) sensor.Metadata {
	model := c.defaultModel
	if m, ok := p.String("model"); ok {
		model = m
	}

	md := sensor.Metadata{Model: &model}
	if brand, ok := p.String("brand"); ok {
		md.Brand = &brand
	}

	hwName, ok := p.String("name")
	if ok {
		md.HWName = &hwName
	}
	md.ProbeType = inferProbe(hwName, hexID)
	return md
}
