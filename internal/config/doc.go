// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and compares experiment documents: the flat
// hyperparameter files (dataset, optimizer settings, adversarial budgets, run
// directory and job logging) consumed by adversarial-training runs.
//
// File responsibilities:
//   - types.go: FileConfig (document shape) and Experiment (effective values)
//   - defaults.go: the baseline fast-FGSM experiment
//   - loader.go, keys.go, merge_file.go, merge_env.go: Defaults -> File -> ENV
//   - validation.go: aggregated validation
//   - registry.go: one entry per document key
//   - diff.go, dump.go: comparison, serialization and fingerprinting
//   - reload.go: hot reload of a watched document
package config
