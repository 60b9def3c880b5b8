package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidObservation matches every failure Normalise returns, via errors.Is.
var ErrInvalidObservation = errors.New("invalid observation")

// Machine-readable validation reason codes.
const (
	ReasonMissing           = "missing"
	ReasonOutOfRange        = "out_of_range"
	ReasonNegative          = "negative"
	ReasonNonPositive       = "non_positive"
	ReasonNotFinite         = "not_finite"
	ReasonMissingOffset     = "missing_offset"
	ReasonBelowAbsoluteZero = "below_absolute_zero"
)

// ValidationError reports one field that failed a semantic constraint.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidObservation
}

// ValidationErrors is every violation found in one observation, in field order.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes each violation so errors.As can reach a *ValidationError.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Fields returns the offending field names in order, without duplicates.
func (v ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(v))
	var out []string
	for _, e := range v {
		if !seen[e.Field] {
			seen[e.Field] = true
			out = append(out, e.Field)
		}
	}
	return out
}

// Has reports whether field failed, optionally with the given reason.
func (v ValidationErrors) Has(field, reason string) bool {
	for _, e := range v {
		if e.Field == field && (reason == "" || e.Reason == reason) {
			return true
		}
	}
	return false
}

// UnsupportedUnitError is returned when a unit is outside the conversion tables.
type UnsupportedUnitError struct {
	Quantity string // "temperature" or "wind_speed"
	Unit     string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported %s unit %q", e.Quantity, e.Unit)
}

func (e *UnsupportedUnitError) Is(target error) bool {
	return target == ErrInvalidObservation
}
