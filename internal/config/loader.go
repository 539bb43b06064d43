// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/advexp/internal/fraction"
	"gopkg.in/yaml.v3"
)

// Loader handles experiment loading with precedence
type Loader struct {
	configPath      string
	version         string
	requireComplete bool
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new experiment loader. An empty configPath loads
// defaults and environment overrides only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// RequireComplete makes Load fail unless the document sets every key itself.
func (l *Loader) RequireComplete(on bool) *Loader {
	l.requireComplete = on
	return l
}

// Path returns the document path the loader reads.
func (l *Loader) Path() string {
	return l.configPath
}

// Version returns the tool version the loader was created with.
func (l *Loader) Version() string {
	return l.version
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envFraction(key string, defaultVal fraction.Fraction) fraction.Fraction {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFraction(key, defaultVal)
}

// Load loads the experiment with precedence: ENV > File > Defaults.
// Order: Defaults -> Parse File (Strict) -> Apply Env -> Normalize -> Validate.
func (l *Loader) Load() (Experiment, error) {
	exp := DefaultExperiment()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return exp, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&exp, fileCfg)
	}

	l.mergeEnvConfig(&exp)
	normalize(&exp)

	if err := Validate(exp); err != nil {
		return exp, fmt.Errorf("config validation failed: %w", err)
	}
	return exp, nil
}

// loadFile loads the document with STRICT parsing.
// Unknown fields, duplicate keys and trailing documents are fatal.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- experiment paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return l.parse(data)
}

func (l *Loader) parse(data []byte) (*FileConfig, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			if l.requireComplete {
				return nil, missingKeysError(RequiredPaths())
			}
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if err := dec.Decode(&yaml.Node{}); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}

	idx, err := indexKeys(&doc)
	if err != nil {
		return nil, err
	}
	if l.requireComplete {
		if missing := idx.missing(RequiredPaths()); len(missing) > 0 {
			return nil, missingKeysError(missing)
		}
	}

	var fileCfg FileConfig
	strict := yaml.NewDecoder(bytes.NewReader(data))
	strict.KnownFields(true)
	if err := strict.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, classifyDecodeError(err)
	}
	return &fileCfg, nil
}

// classifyDecodeError attaches a sentinel to yaml.v3 decode failures.
func classifyDecodeError(err error) error {
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return fmt.Errorf("strict config parse error: %w", err)
	}
	for _, msg := range typeErr.Errors {
		if strings.Contains(msg, "not found in type") {
			return fmt.Errorf("strict config parse error (%w): %s", ErrUnknownField, strings.Join(typeErr.Errors, "; "))
		}
	}
	return fmt.Errorf("strict config parse error (%w): %s", ErrTypeMismatch, strings.Join(typeErr.Errors, "; "))
}

// normalize folds case and whitespace on the selector keys.
func normalize(exp *Experiment) {
	exp.Dataset = strings.ToLower(strings.TrimSpace(exp.Dataset))
	exp.Device = strings.ToLower(strings.TrimSpace(exp.Device))
	exp.Act = strings.ToLower(strings.TrimSpace(exp.Act))
	exp.ClassifierName = strings.TrimSpace(exp.ClassifierName)
}
