// Package validation checks component dimensions against engineering ranges
// before a profile is generated.
package validation

import "Contour/internal/section"

// Rule bounds one numeric field of a component.
type Rule struct {
	Field       string  `json:"field"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
}

// ProportionRule flags an unusual Numerator/Denominator ratio. It never
// fails validation.
type ProportionRule struct {
	Kind        section.Kind `json:"kind"`
	Numerator   string       `json:"numerator"`
	Denominator string       `json:"denominator"`
	MaxRatio    float64      `json:"max_ratio"`
	Warning     string       `json:"warning"`
}

// RuleSet is the full validation configuration. Field rules are checked in
// slice order and the first failure wins.
type RuleSet struct {
	Fields      map[section.Kind][]Rule `json:"fields"`
	Proportions []ProportionRule        `json:"proportions"`
}

const (
	defaultMin = 1
	defaultMax = 100000
)

// DefaultRules returns the production rule set.
func DefaultRules() RuleSet {
	return RuleSet{
		Fields: map[section.Kind][]Rule{
			section.Beam: {
				{Field: "H", Min: defaultMin, Max: defaultMax, Description: "Total depth (H)"},
				{Field: "B", Min: defaultMin, Max: defaultMax, Description: "Flange width (B)"},
				{Field: "tw", Min: defaultMin, Max: defaultMax, Description: "Web thickness (tw)"},
				{Field: "tf", Min: defaultMin, Max: defaultMax, Description: "Flange thickness (tf)"},
			},
			section.Column: {
				{Field: "width", Min: defaultMin, Max: defaultMax, Description: "Width"},
				{Field: "height", Min: defaultMin, Max: defaultMax, Description: "Height"},
			},
		},
		Proportions: []ProportionRule{
			{
				Kind:        section.Beam,
				Numerator:   "H",
				Denominator: "B",
				MaxRatio:    10,
				Warning:     "H/B ratio exceeds 10, which is unusual for standard I-beams. Consider revising dimensions.",
			},
		},
	}
}
