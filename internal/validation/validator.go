package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"Contour/internal/section"
)

// ValidationError reports the first field that failed its rule.
type ValidationError struct {
	Field       string
	Description string
	Min         float64
	Max         float64
	NotNumber   bool
}

func (e *ValidationError) Error() string {
	if e.NotNumber {
		return fmt.Sprintf("%s must be a number.", e.Description)
	}
	return fmt.Sprintf("%s must be between %s and %s mm.", e.Description, formatBound(e.Min), formatBound(e.Max))
}

// Validator applies a RuleSet. It holds no mutable state and is safe for
// concurrent use.
type Validator struct {
	rules  RuleSet
	logger *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets where proportion warnings are reported.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// New returns a Validator for rules. Warnings are discarded unless a logger
// is supplied.
func New(rules RuleSet, opts ...Option) *Validator {
	v := &Validator{
		rules:  rules,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Rules returns the rule set the validator was built with.
func (v *Validator) Rules() RuleSet {
	return v.rules
}

// Validate reports whether params satisfy the rules of kind and, if not,
// the message of the first failing field.
func (v *Validator) Validate(kind section.Kind, params map[string]any) (bool, string) {
	if _, err := v.Check(kind, params); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Check validates params and returns any advisory warnings. The error is a
// *ValidationError or *section.UnsupportedComponentTypeError.
func (v *Validator) Check(kind section.Kind, params map[string]any) ([]string, error) {
	rules, ok := v.rules.Fields[kind]
	if !ok {
		return nil, &section.UnsupportedComponentTypeError{Type: kind.String()}
	}

	values := make(map[string]float64, len(rules))
	for _, rule := range rules {
		n, ok := Number(params[rule.Field])
		if !ok {
			return nil, &ValidationError{
				Field:       rule.Field,
				Description: rule.Description,
				Min:         rule.Min,
				Max:         rule.Max,
				NotNumber:   true,
			}
		}
		// Written as a negated range so NaN fails too.
		if !(n >= rule.Min && n <= rule.Max) {
			return nil, &ValidationError{
				Field:       rule.Field,
				Description: rule.Description,
				Min:         rule.Min,
				Max:         rule.Max,
			}
		}
		values[rule.Field] = n
	}

	var warnings []string
	for _, pr := range v.rules.Proportions {
		if pr.Kind != kind {
			continue
		}
		num, okNum := values[pr.Numerator]
		den, okDen := values[pr.Denominator]
		if !okNum || !okDen || den <= 0 {
			continue
		}
		if ratio := num / den; ratio > pr.MaxRatio {
			v.logger.LogAttrs(context.Background(), slog.LevelWarn, pr.Warning,
				slog.String("kind", kind.String()),
				slog.Float64("ratio", ratio),
				slog.Float64("max_ratio", pr.MaxRatio),
			)
			warnings = append(warnings, pr.Warning)
		}
	}
	return warnings, nil
}

// Number converts a decoded parameter value to float64. Only numeric types
// are accepted; numeric strings are not.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
