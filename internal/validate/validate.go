// SPDX-License-Identifier: MIT

// Package validate accumulates field failures so a document is reported in
// full rather than one error at a time.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Error is one failing field.
type Error struct {
	Field   string // dotted document key
	Value   any
	Message string
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// HasError reports whether a failure was recorded for field.
func (v *Validator) HasError(field string) bool {
	for _, e := range v.errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Err returns nil when nothing failed, else a ValidationError holding a copy
// of the failures so far.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)
	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Fields returns the distinct failing field names in first-seen order.
func (e ValidationError) Fields() []string {
	seen := make(map[string]struct{}, len(e.errors))
	out := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		if _, ok := seen[err.Field]; ok {
			continue
		}
		seen[err.Field] = struct{}{}
		out = append(out, err.Field)
	}
	return out
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Finite validates that a float is neither NaN nor infinite.
// It reports whether the value passed so callers can skip dependent checks.
func (v *Validator) Finite(field string, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		v.AddError(field, fmt.Sprintf("value must be a finite number, got %v", value), value)
		return false
	}
	return true
}

// UnitInterval validates 0 <= value <= 1. expr is the value as written and
// is echoed in the message.
func (v *Validator) UnitInterval(field, expr string, value float64) {
	if !v.Finite(field, value) {
		return
	}
	if value < 0 || value > 1 {
		v.AddError(field, fmt.Sprintf("value must be between 0 and 1, got %s = %g", expr, value), expr)
	}
}

// NotGreater validates lower <= upper for a pair of related fields; the error
// is attributed to the lower field.
func (v *Validator) NotGreater(lowerField string, lower float64, upperField string, upper float64) {
	if lower > upper {
		v.AddError(lowerField,
			fmt.Sprintf("must not exceed %s (%g > %g)", upperField, lower, upper),
			lower)
	}
}

// Matches validates that a value matches the pattern; desc names the expected form.
func (v *Validator) Matches(field, value string, pattern *regexp.Regexp, desc string) {
	if !pattern.MatchString(value) {
		v.AddError(field, fmt.Sprintf("value must be %s, got %q", desc, value), value)
	}
}
