// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// cleanEnv returns the process environment without ADVEXP_ overrides.
func cleanEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "ADVEXP_") {
			env = append(env, e)
		}
	}
	return env
}

func buildValidate(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "validate-test")
	// #nosec G204 -- Test code: building test binary with controlled arguments
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build validate binary: %v\n%s", err, out)
	}
	return binaryPath
}

// TestValidateCLI tests the validate binary with various experiment documents
func TestValidateCLI(t *testing.T) {
	binaryPath := buildValidate(t)

	tests := []struct {
		name       string
		args       []string
		wantExit   int
		wantOutput string // substring expected in combined output
	}{
		{
			name:       "valid complete document",
			args:       []string{"-f", "../../internal/config/testdata/valid-complete.yaml", "--complete"},
			wantOutput: "is valid",
		},
		{
			name:       "partial document filled from defaults",
			args:       []string{"-f", "../../internal/config/testdata/partial.yaml"},
			wantOutput: "is valid",
		},
		{
			name:       "partial document with --complete",
			args:       []string{"-f", "../../internal/config/testdata/partial.yaml", "--complete"},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "invalid unknown key",
			args:       []string{"-f", "../../internal/config/testdata/invalid-unknown-key.yaml"},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "invalid type mismatch",
			args:       []string{"-f", "../../internal/config/testdata/invalid-type.yaml"},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "epsilon out of range",
			args:       []string{"-f", "../../internal/config/testdata/invalid-epsilon.yaml"},
			wantExit:   1,
			wantOutput: "Validation error",
		},
		{
			name:       "no file flag provided",
			wantExit:   2,
			wantOutput: "--file is required",
		},
		{
			name:       "non-existent file",
			args:       []string{"-f", "does-not-exist.yaml"},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// #nosec G204 -- Test code: running test binary with controlled arguments
			cmd := exec.Command(binaryPath, tt.args...)
			cmd.Env = cleanEnv()

			output, err := cmd.CombinedOutput()
			exitCode := 0
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					t.Fatalf("unexpected error running validate: %v", err)
				}
			}

			if exitCode != tt.wantExit {
				t.Errorf("exit code = %d, want %d\nOutput:\n%s", exitCode, tt.wantExit, output)
			}
			if !strings.Contains(string(output), tt.wantOutput) {
				t.Errorf("output does not contain %q\nGot:\n%s", tt.wantOutput, output)
			}
		})
	}
}

// TestValidateCLI_Version tests the -version flag
func TestValidateCLI_Version(t *testing.T) {
	binaryPath := buildValidate(t)

	// #nosec G204 -- Test code: running test binary with controlled arguments
	output, err := exec.Command(binaryPath, "-version").CombinedOutput()
	if err != nil {
		t.Fatalf("unexpected error running validate -version: %v", err)
	}
	if strings.TrimSpace(string(output)) == "" {
		t.Error("version output is empty")
	}
}

// TestValidateCLI_ShippedConfig checks the experiment shipped under configs/.
func TestValidateCLI_ShippedConfig(t *testing.T) {
	cfg := "../../configs/fast_fgsm_config.yaml"
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		t.Skipf("%s not found, skipping", cfg)
	}
	binaryPath := buildValidate(t)

	// #nosec G204
	cmd := exec.Command(binaryPath, "-f", cfg, "--complete")
	cmd.Env = cleanEnv()
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("validate failed for %s: %v\nOutput:\n%s", cfg, err, output)
	}
	if !strings.Contains(string(output), "is valid") {
		t.Errorf("expected success message, got:\n%s", string(output))
	}
}
