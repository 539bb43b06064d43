// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// LoadFileConfig strictly parses the document at path without applying
// defaults, environment overrides or validation.
func LoadFileConfig(path string) (*FileConfig, error) {
	return (&Loader{ConsumedEnvKeys: map[string]struct{}{}}).loadFile(path)
}
