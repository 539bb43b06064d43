// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fraction evaluates the fractional budget expressions used by
// experiment documents, such as "8/255" or "0.03".
package fraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmpty is returned for blank expressions.
	ErrEmpty = errors.New("empty expression")
	// ErrSyntax is returned for anything other than a literal or a single division.
	ErrSyntax = errors.New("invalid fraction expression")
	// ErrDivisionByZero is returned for a zero denominator.
	ErrDivisionByZero = errors.New("division by zero")
)

var literal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Fraction is an evaluated expression. Expr keeps the source text so the
// document can be written back unchanged.
type Fraction struct {
	Expr  string
	Value float64
}

// Parse evaluates s. Accepted forms are a decimal literal ("0.03", "3e-2") or
// the quotient of two decimal literals ("8/255", "2.5 / 255").
func Parse(s string) (Fraction, error) {
	expr := strings.TrimSpace(s)
	if expr == "" {
		return Fraction{}, ErrEmpty
	}

	num, den, hasDen := strings.Cut(expr, "/")
	r, err := parseLiteral(num)
	if err != nil {
		return Fraction{}, fmt.Errorf("%w: %q", err, expr)
	}
	if hasDen {
		d, err := parseLiteral(den)
		if err != nil {
			return Fraction{}, fmt.Errorf("%w: %q", err, expr)
		}
		if d.Sign() == 0 {
			return Fraction{}, fmt.Errorf("%w: %q", ErrDivisionByZero, expr)
		}
		r.Quo(r, d)
	}

	v, _ := r.Float64()
	return Fraction{Expr: expr, Value: v}, nil
}

// MustParse is like Parse but panics on error. Intended for defaults.
func MustParse(s string) Fraction {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

func parseLiteral(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if !literal.MatchString(s) {
		return nil, ErrSyntax
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, ErrSyntax
	}
	return r, nil
}

// InUnitInterval reports whether 0 <= Value <= 1.
func (f Fraction) InUnitInterval() bool {
	return f.Value >= 0 && f.Value <= 1
}

// IsZero reports whether f was never set.
func (f Fraction) IsZero() bool {
	return f.Expr == ""
}

// String returns the source expression.
func (f Fraction) String() string {
	return f.Expr
}

// UnmarshalYAML accepts any scalar; numeric and string scalars are evaluated alike.
func (f *Fraction) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %w: expected a scalar", value.Line, ErrSyntax)
	}
	parsed, err := Parse(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = parsed
	return nil
}

// MarshalYAML writes the source expression back.
func (f Fraction) MarshalYAML() (interface{}, error) {
	return f.Expr, nil
}

// MarshalJSON writes the source expression as a JSON string.
func (f Fraction) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Expr)
}

// UnmarshalJSON accepts a JSON string or number.
func (f *Fraction) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("%w: %s", ErrSyntax, data)
		}
		raw = num.String()
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
