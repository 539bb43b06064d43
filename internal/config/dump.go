// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the Dump encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Dump writes the effective experiment to w. Fractions are written as their
// source expressions so the output loads back to the same experiment.
func Dump(w io.Writer, exp Experiment, format Format) error {
	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(exp); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(exp); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// MarshalYAML returns the YAML dump of exp.
func MarshalYAML(exp Experiment) ([]byte, error) {
	var buf bytes.Buffer
	if err := Dump(&buf, exp, FormatYAML); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint is the hex sha256 of the YAML dump. Equal experiments have equal
// fingerprints; map keys are emitted sorted by yaml.v3.
func Fingerprint(exp Experiment) (string, error) {
	data, err := MarshalYAML(exp)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
