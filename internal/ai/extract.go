package ai

import (
	"regexp"
	"strconv"
	"strings"
)

// ExtractedSpec is one numeric requirement pulled out of a free-text
// prompt, normalized to the parameter's base unit.
type ExtractedSpec struct {
	Parameter string  // power, frequency, temperature, voltage, current
	Value     float64 // in BaseUnit
	BaseUnit  string
	Raw       string // matched text as the user wrote it
}

type unitRule struct {
	parameter string
	baseUnit  string
	re        *regexp.Regexp
	factors   map[string]float64
}

// Unit suffixes are matched case-sensitively where SI prefixes collide
// (mW vs MW style ambiguity does not arise in this set, but GHz/kHz do
// rely on case). Hz matching tolerates lowercase "hz".
var unitRules = []unitRule{
	{
		parameter: "power",
		baseUnit:  "W",
		re:        regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kW|mW|W)\b`),
		factors:   map[string]float64{"W": 1, "kW": 1e3, "mW": 1e-3},
	},
	{
		parameter: "frequency",
		baseUnit:  "Hz",
		re:        regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(GHz|MHz|kHz|Hz|ghz|mhz|khz|hz)\b`),
		factors:   map[string]float64{"hz": 1, "khz": 1e3, "mhz": 1e6, "ghz": 1e9},
	},
	{
		parameter: "temperature",
		baseUnit:  "C",
		re:        regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(?:°\s*C|℃|degC|deg C)`),
		factors:   nil, // celsius only
	},
	{
		parameter: "voltage",
		baseUnit:  "V",
		re:        regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kV|mV|V)\b`),
		factors:   map[string]float64{"V": 1, "kV": 1e3, "mV": 1e-3},
	},
	{
		parameter: "current",
		baseUnit:  "A",
		re:        regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mA|A)\b`),
		factors:   map[string]float64{"A": 1, "mA": 1e-3},
	},
}

// ExtractSpecs scans prompt for numeric technical requirements. One entry
// per parameter; the first match wins. "requires 2.4GHz, under 85°C"
// yields frequency=2.4e9 Hz and temperature=85 C.
func ExtractSpecs(prompt string) []ExtractedSpec {
	var specs []ExtractedSpec
	for _, rule := range unitRules {
		m := rule.re.FindStringSubmatch(prompt)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if rule.factors != nil {
			factor, ok := rule.factors[strings.ToLower(m[2])]
			if !ok {
				factor, ok = rule.factors[m[2]]
			}
			if !ok {
				continue
			}
			value *= factor
		}
		specs = append(specs, ExtractedSpec{
			Parameter: rule.parameter,
			Value:     value,
			BaseUnit:  rule.baseUnit,
			Raw:       strings.TrimSpace(m[0]),
		})
	}
	return specs
}

// MatchesDescription reports whether the equipment description textually
// mentions the extracted value, either verbatim as the user wrote it or as
// the bare number next to any casing of the unit.
func (s ExtractedSpec) MatchesDescription(description string) bool {
	if description == "" {
		return false
	}
	desc := strings.ToLower(description)
	if strings.Contains(desc, strings.ToLower(s.Raw)) {
		return true
	}
	// bare number, e.g. "2.4" within "2.4 GHz band"
	number := strings.TrimFunc(s.Raw, func(r rune) bool {
		return !('0' <= r && r <= '9') && r != '.' && r != '-'
	})
	return number != "" && strings.Contains(desc, strings.ToLower(number))
}
