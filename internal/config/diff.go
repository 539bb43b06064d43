// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"reflect"

	"github.com/ManuGH/advexp/internal/fraction"
)

// Change is one document key whose effective value differs.
type Change struct {
	Path           string
	Old            any
	New            any
	AffectsOutcome bool
}

// String renders the change as "path: old -> new".
func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Path, FormatValue(c.Old), FormatValue(c.New))
}

// ChangeSummary lists the differing keys in document order.
type ChangeSummary struct {
	Changes []Change
	// OutcomeChanged is set when any change can alter training results,
	// as opposed to only moving output files or logs.
	OutcomeChanged bool
}

// Empty reports whether the experiments are equivalent.
func (s ChangeSummary) Empty() bool {
	return len(s.Changes) == 0
}

// Paths returns the changed key paths.
func (s ChangeSummary) Paths() []string {
	out := make([]string, len(s.Changes))
	for i, c := range s.Changes {
		out[i] = c.Path
	}
	return out
}

// Diff compares two effective experiments key by key. Fractions compare by
// value, so "8/255" and "0.03137254901960784" are not reported.
func Diff(a, b Experiment) ChangeSummary {
	var sum ChangeSummary
	for _, e := range registry {
		oldV, newV := e.Value(a), e.Value(b)
		if equalValues(oldV, newV) {
			continue
		}
		sum.Changes = append(sum.Changes, Change{
			Path:           e.Path,
			Old:            oldV,
			New:            newV,
			AffectsOutcome: e.AffectsOutcome,
		})
		if e.AffectsOutcome {
			sum.OutcomeChanged = true
		}
	}
	return sum
}

func equalValues(a, b any) bool {
	fa, okA := a.(fraction.Fraction)
	fb, okB := b.(fraction.Fraction)
	if okA && okB {
		return fa.Value == fb.Value
	}
	return reflect.DeepEqual(a, b)
}

// FormatValue renders a registry value for terminal output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case fraction.Fraction:
		return fmt.Sprintf("%s (%.6g)", x.Expr, x.Value)
	case string:
		return fmt.Sprintf("%q", x)
	case JobLogging:
		return fmt.Sprintf("{root: %s %v, %d handlers}", x.Root.Level, x.Root.Handlers, len(x.Handlers))
	default:
		return fmt.Sprint(x)
	}
}
