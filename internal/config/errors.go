// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

// Use errors.Is against these instead of matching message text.
var (
	// ErrUnknownField classifies strict YAML parse failures caused by unknown keys.
	ErrUnknownField = errors.New("unknown config field")
	// ErrTypeMismatch classifies values that do not decode into the key's type.
	ErrTypeMismatch = errors.New("config value has wrong type")
	// ErrDuplicateKey is returned when a key appears twice in the same mapping.
	ErrDuplicateKey = errors.New("duplicate config key")
	// ErrMissingKey is returned by complete loads when a document key is absent.
	ErrMissingKey = errors.New("missing config key")
	// ErrMultipleDocuments is returned when the file holds more than one YAML document.
	ErrMultipleDocuments = errors.New("config file contains multiple documents or trailing content")
	// ErrUnsupportedFormat is returned for files that are not .yaml/.yml.
	ErrUnsupportedFormat = errors.New("unsupported config format")
	// ErrSyntax wraps YAML syntax errors and non-mapping documents.
	ErrSyntax = errors.New("config syntax error")
)
