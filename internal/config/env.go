// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/ManuGH/advexp/internal/fraction"
	"github.com/ManuGH/advexp/internal/log"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment override of a document key.
const EnvPrefix = "ADVEXP_"

// EnvName returns the environment variable overriding the dotted key path.
func EnvName(path string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

// parseEnv implements the shared lookup/log/fallback flow of the Parse* helpers.
// Empty variables and values parse rejects fall back to defaultValue.
func parseEnv[T any](key string, defaultValue T, kind string, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().
			Str("key", key).
			Interface("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	if strings.TrimSpace(v) == "" {
		logger.Debug().
			Str("key", key).
			Interface("default", defaultValue).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}
	parsed, err := parse(v)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", v).
			Interface("default", defaultValue).
			Msgf("invalid %s in environment variable, using default", kind)
		return defaultValue
	}
	logEnvSource(logger, key, parsed)
	return parsed
}

func logEnvSource(logger zerolog.Logger, key string, value any) {
	logger.Debug().
		Str("key", key).
		Interface("value", value).
		Str("source", "environment").
		Msg("using environment variable")
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, "string", func(s string) (string, error) {
		return strings.TrimSpace(s), nil
	})
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, "integer", func(s string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(s))
	})
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, "float", func(s string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	})
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, "boolean", func(s string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}

// ParseFraction reads a fractional expression such as "8/255" from environment
// variable or returns default value.
func ParseFraction(key string, defaultValue fraction.Fraction) fraction.Fraction {
	return parseEnv(key, defaultValue, "fraction", fraction.Parse)
}
