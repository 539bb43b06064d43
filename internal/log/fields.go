// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID      = "run_id"
	FieldJobName    = "job_name"
	FieldConfigHash = "config_hash"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Experiment fields
	FieldKey        = "key"
	FieldDataset    = "dataset"
	FieldClassifier = "classifier"
	FieldDevice     = "device"

	// Path fields
	FieldPath       = "path"
	FieldRunDir     = "run_dir"
	FieldConfigPath = "config_path"
	FieldLogFile    = "log_file"
)
