// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/ledger"
	"github.com/ManuGH/advexp/internal/rundir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../../internal/config/testdata/"

func TestMain(m *testing.M) {
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, config.EnvPrefix) {
			key, _, _ := strings.Cut(e, "=")
			_ = os.Unsetenv(key)
		}
	}
	os.Exit(m.Run())
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := &cli{stdout: &stdout, stderr: &stderr}
	code := c.run(args)
	return code, stdout.String(), stderr.String()
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, _ = runCLI(t, "help")
	assert.Equal(t, 0, code)

	code, _, stderr = runCLI(t, "train")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command: train")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "commit:")
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantExit   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "valid complete document",
			args:       []string{"-f", testdata + "valid-complete.yaml", "--complete"},
			wantStdout: "valid-complete.yaml is valid",
		},
		{
			name:       "partial document with defaults",
			args:       []string{"-f", testdata + "partial.yaml"},
			wantStdout: "partial.yaml is valid",
		},
		{
			name:       "partial document rejected when complete",
			args:       []string{"-f", testdata + "partial.yaml", "--complete"},
			wantExit:   1,
			wantStderr: "Configuration error in",
		},
		{
			name:       "unknown key",
			args:       []string{"-f", testdata + "invalid-unknown-key.yaml"},
			wantExit:   1,
			wantStderr: "learning_rte",
		},
		{
			name:       "range violations listed per field",
			args:       []string{"-f", testdata + "invalid-ranges.yaml"},
			wantExit:   1,
			wantStderr: "  momentum:",
		},
		{
			name:       "missing file",
			args:       []string{"-f", "does-not-exist.yaml"},
			wantExit:   1,
			wantStderr: "Configuration error in does-not-exist.yaml",
		},
		{
			name:       "no file",
			wantExit:   2,
			wantStderr: "at least one --file is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, append([]string{"validate"}, tt.args...)...)
			assert.Equal(t, tt.wantExit, code, "stderr: %s", stderr)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			}
		})
	}
}

func TestValidateCommandKeepsArgumentOrder(t *testing.T) {
	code, stdout, stderr := runCLI(t, "validate",
		"-f", testdata+"partial.yaml",
		"-f", testdata+"invalid-type.yaml",
		testdata+"valid-complete.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid-type.yaml")

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "partial.yaml")
	assert.Contains(t, lines[1], "valid-complete.yaml")
}

func TestDumpCommandRoundTrips(t *testing.T) {
	code, stdout, stderr := runCLI(t, "dump", "-f", testdata+"valid-complete.yaml")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "epsilon: 8/255")

	path := filepath.Join(t.TempDir(), "dumped.yaml")
	require.NoError(t, os.WriteFile(path, []byte(stdout), 0o600))

	code, stdout, stderr = runCLI(t, "diff", testdata+"valid-complete.yaml", path)
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "equivalent")
}

func TestDumpCommandJSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, "dump", "-f", testdata+"partial.yaml", "--format", "json")
	require.Equal(t, 0, code, stderr)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "cifar100", doc["dataset"])

	code, _, _ = runCLI(t, "dump", "--format", "toml")
	assert.Equal(t, 2, code)
}

func TestDumpCommandFingerprint(t *testing.T) {
	code, stdout, _ := runCLI(t, "dump", "-f", testdata+"valid-complete.yaml", "--fingerprint")
	require.Equal(t, 0, code)
	assert.Len(t, strings.TrimSpace(stdout), 64)
}

func TestDiffCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "diff", testdata+"valid-complete.yaml", testdata+"partial.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, `dataset: "cifar10" -> "cifar100"`)
	assert.Contains(t, stdout, "changes the training outcome")

	code, _, stderr := runCLI(t, "diff", testdata+"valid-complete.yaml")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Usage: advexp diff")

	code, _, _ = runCLI(t, "diff", testdata+"valid-complete.yaml", testdata+"invalid-type.yaml")
	assert.Equal(t, 2, code)
}

func TestPlanCommandJSON(t *testing.T) {
	code, stdout, stderr := runCLI(t, "plan", "-f", testdata+"valid-complete.yaml",
		"--format", "json", "--points", "3")
	require.Equal(t, 0, code, stderr)

	var p plan
	require.NoError(t, json.Unmarshal([]byte(stdout), &p))
	assert.Equal(t, "cifar10", p.Dataset)
	assert.Equal(t, 391, p.StepsPerEpoch) // ceil(50000/128)
	assert.Equal(t, 391*30, p.TotalSteps)
	assert.Equal(t, "preact_resnet18_at.pth", p.Checkpoint)
	require.Len(t, p.LR, 3)
	assert.InDelta(t, 0.1, p.LR[0].LR, 1e-12)
	assert.Equal(t, p.TotalSteps, p.LR[2].Step)
	assert.Len(t, p.Budget.Epsilon.PerChannel, 3)
}

func TestPlanCommandText(t *testing.T) {
	code, stdout, stderr := runCLI(t, "plan", "-f", testdata+"valid-complete.yaml",
		"--schedule", "epochs", "--steps-per-epoch", "10")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "epsilon_iter")
	assert.Contains(t, stdout, "10 per epoch, 300 total")
	assert.Contains(t, stdout, "epochs learning rate:")

	code, _, stderr = runCLI(t, "plan", "-f", testdata+"valid-complete.yaml", "--schedule", "step")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown schedule")
}

func TestPrepareAndRunsCommands(t *testing.T) {
	cwd := t.TempDir()
	ledgerPath := filepath.Join(cwd, "runs.db")

	code, stdout, stderr := runCLI(t, "prepare", "-f", testdata+"valid-complete.yaml",
		"--cwd", cwd, "--ledger", ledgerPath, "--json")
	require.Equal(t, 0, code, stderr)

	var run rundir.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &run))
	assert.Equal(t, "valid-complete", run.JobName)
	assert.True(t, strings.HasPrefix(run.Dir, filepath.Join(cwd, "outputs", "fast_fgsm")))
	assert.Equal(t, filepath.Join(run.Dir, "valid-complete.log"), run.LogFile)
	assert.FileExists(t, filepath.Join(run.Dir, rundir.SnapshotDir, "config.yaml"))
	assert.FileExists(t, run.LogFile)

	loaded, err := rundir.LoadRun(run.Dir)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)

	// A second run of the same document is flagged as a repeat.
	code, _, stderr = runCLI(t, "prepare", "-f", testdata+"valid-complete.yaml",
		"--cwd", cwd, "--ledger", ledgerPath, "--job-name", "again")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "identical experiment already ran as "+run.ID)

	code, stdout, stderr = runCLI(t, "runs", "--ledger", ledgerPath, "--json")
	require.Equal(t, 0, code, stderr)
	var entries []ledger.Entry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "again", entries[0].JobName)
	assert.Equal(t, run.ConfigHash, entries[1].ConfigHash)

	code, stdout, _ = runCLI(t, "runs", "--ledger", ledgerPath, "--dataset", "cifar100")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, strings.Count(stdout, "\n"), "header only")

	code, stdout, _ = runCLI(t, "runs", "--ledger", ledgerPath, "--show", run.ID)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "classifier_name: preact_resnet18")

	code, stdout, _ = runCLI(t, "runs", "--ledger", ledgerPath, "--verify", "quick")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "passed quick check")
}

func TestPrepareRecordsEnvOverrides(t *testing.T) {
	t.Setenv("ADVEXP_SEED", "7")
	cwd := t.TempDir()

	code, stdout, stderr := runCLI(t, "prepare", "-f", testdata+"valid-complete.yaml", "--cwd", cwd, "--json")
	require.Equal(t, 0, code, stderr)

	var run rundir.Run
	require.NoError(t, json.Unmarshal([]byte(stdout), &run))
	assert.Equal(t, []string{"seed=7"}, run.Overrides)
}

func TestRunsCommandRequiresLedger(t *testing.T) {
	code, _, stderr := runCLI(t, "runs")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--ledger is required")
}

func TestKeysCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "keys")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "ADVEXP_PGD_EPSILON_ITER")
	assert.Contains(t, stdout, "hydra.job_logging")
	// header plus one line per key
	assert.Equal(t, len(config.Entries())+1, strings.Count(stdout, "\n"))
}

func TestWatchCommandRejectsInvalidDocument(t *testing.T) {
	code, _, stderr := runCLI(t, "watch", "-f", testdata+"invalid-ranges.yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Validation error in")

	code, _, _ = runCLI(t, "watch")
	assert.Equal(t, 2, code)
}

func TestMetricsRouter(t *testing.T) {
	exp, err := config.NewLoader(testdata+"valid-complete.yaml", "test").Load()
	require.NoError(t, err)
	holder := config.NewHolder(exp, config.NewLoader(testdata+"valid-complete.yaml", "test"))

	srv := httptest.NewServer(newMetricsRouter(holder))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	want, err := config.Fingerprint(exp)
	require.NoError(t, err)
	assert.Equal(t, want, health.Fingerprint)
	assert.Equal(t, "cifar10", health.Dataset)

	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
