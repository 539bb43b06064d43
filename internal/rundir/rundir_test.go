// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rundir

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func prepareDefault(t *testing.T, mutate func(*config.Experiment)) (Run, config.Experiment, string) {
	t.Helper()
	cwd := t.TempDir()
	exp := config.DefaultExperiment()
	if mutate != nil {
		mutate(&exp)
	}
	run, err := Prepare(context.Background(), exp, Options{
		ConfigPath: "configs/fast_fgsm_config.yaml",
		Cwd:        cwd,
		Now:        time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC),
		Overrides:  []string{"seed=3"},
		Probe:      func() bool { return false },
	})
	require.NoError(t, err)
	return run, exp, cwd
}

func TestPrepare_Layout(t *testing.T) {
	run, exp, cwd := prepareDefault(t, nil)

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "fast_fgsm_config", run.JobName)
	assert.Equal(t, filepath.Join(cwd, "outputs", "2025-03-07", "14-05-09"), run.Dir)
	assert.Equal(t, filepath.Join(cwd, "data"), run.DataDir)
	assert.Equal(t, filepath.Join(run.Dir, "preact_resnet18_at.pth"), run.Checkpoint)
	assert.Equal(t, filepath.Join(run.Dir, "fast_fgsm_config.log"), run.LogFile)

	hash, err := config.Fingerprint(exp)
	require.NoError(t, err)
	assert.Equal(t, hash, run.ConfigHash)

	assert.DirExists(t, filepath.Join(run.Dir, SnapshotDir))
}

func TestPrepare_SnapshotLoadsBack(t *testing.T) {
	run, exp, _ := prepareDefault(t, nil)

	snapshot := filepath.Join(run.Dir, SnapshotDir, "config.yaml")
	again, err := config.NewLoader(snapshot, "test").RequireComplete(true).Load()
	require.NoError(t, err)
	assert.Equal(t, exp, again)

	data, err := os.ReadFile(filepath.Join(run.Dir, SnapshotDir, "overrides.yaml"))
	require.NoError(t, err)
	var overrides []string
	require.NoError(t, yaml.Unmarshal(data, &overrides))
	assert.Equal(t, []string{"seed=3"}, overrides)

	info, err := os.Stat(snapshot)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPrepare_RunMetadata(t *testing.T) {
	run, _, _ := prepareDefault(t, nil)

	loaded, err := LoadRun(run.Dir)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, run.ConfigHash, loaded.ConfigHash)
	assert.True(t, run.Created.Equal(loaded.Created))
	assert.Equal(t, run.Device, loaded.Device)
}

func TestPrepare_DeviceFallback(t *testing.T) {
	run, _, _ := prepareDefault(t, nil)
	assert.Equal(t, "cuda", run.Device.Requested)
	assert.Equal(t, "cpu", run.Device.Effective)
	assert.True(t, run.Device.Fallback())

	run, _, _ = prepareDefault(t, func(e *config.Experiment) { e.Device = "cpu" })
	assert.False(t, run.Device.Fallback())
}

func TestPrepare_AbsolutePathsKept(t *testing.T) {
	abs := t.TempDir()
	run, _, _ := prepareDefault(t, func(e *config.Experiment) {
		e.Hydra.Run.Dir = filepath.Join(abs, "run-${seed}")
		e.DataDir = "/datasets/cifar"
	})
	assert.Equal(t, filepath.Join(abs, "run-0"), run.Dir)
	assert.Equal(t, "/datasets/cifar", run.DataDir)
}

func TestPrepare_NoFileHandler(t *testing.T) {
	run, _, _ := prepareDefault(t, func(e *config.Experiment) {
		e.Hydra.JobLogging.Root.Handlers = []string{"console"}
	})
	assert.Empty(t, run.LogFile)
}

func TestPrepare_InterpolationError(t *testing.T) {
	exp := config.DefaultExperiment()
	exp.Hydra.Run.Dir = "outputs/${missing}"
	_, err := Prepare(context.Background(), exp, Options{Cwd: t.TempDir()})
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestPrepare_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Prepare(ctx, config.DefaultExperiment(), Options{Cwd: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJobNameFromPath(t *testing.T) {
	assert.Equal(t, "fast_fgsm_config", JobNameFromPath("/x/fast_fgsm_config.yaml"))
	assert.Equal(t, DefaultJobName, JobNameFromPath(""))
}

func TestToAbsolutePath(t *testing.T) {
	assert.Equal(t, "/work/data", ToAbsolutePath("data", "/work"))
	assert.Equal(t, "/data", ToAbsolutePath("../data", "/work"))
	assert.Equal(t, "/abs", ToAbsolutePath("/abs/", "/work"))
	assert.Empty(t, ToAbsolutePath("", "/work"))
}

func TestOpenLogger_WritesRunLogFile(t *testing.T) {
	run, exp, _ := prepareDefault(t, nil)

	var console bytes.Buffer
	logger, closer, err := OpenLogger(run, exp, &console)
	require.NoError(t, err)
	logger.Info().Msg("epoch finished")
	logger.Debug().Msg("hidden at INFO")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(run.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "epoch finished")
	assert.Contains(t, string(data), run.ID)
	assert.NotContains(t, string(data), "hidden at INFO")
	assert.Contains(t, console.String(), "epoch finished")
}

func TestOpenLogger_UsesPathsResolvedAtPrepare(t *testing.T) {
	cwd := t.TempDir()
	exp := config.DefaultExperiment()
	exp.Hydra.JobLogging.Handlers["file"] = config.Handler{
		Class:    "logging.FileHandler",
		Filename: "${now:%H}.log",
	}
	exp.Hydra.JobLogging.Handlers["audit"] = config.Handler{
		Class:    "logging.FileHandler",
		Filename: "${hydra.runtime.cwd}/audit/run.log",
	}
	exp.Hydra.JobLogging.Root.Handlers = []string{"console", "file", "audit"}

	run, err := Prepare(context.Background(), exp, Options{
		Cwd:   cwd,
		Now:   time.Date(2025, 3, 7, 23, 30, 0, 0, time.FixedZone("UTC+5", 5*3600)),
		Probe: func() bool { return false },
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(run.Dir, "23.log"), run.LogFile)
	assert.Equal(t, filepath.Join(cwd, "audit", "run.log"), run.LogFiles["audit"])

	loaded, err := LoadRun(run.Dir)
	require.NoError(t, err)
	assert.Equal(t, run.LogFiles, loaded.LogFiles)

	logger, closer, err := OpenLogger(loaded, exp, &bytes.Buffer{})
	require.NoError(t, err)
	logger.Info().Msg("resumed")
	require.NoError(t, closer.Close())

	for _, file := range []string{run.LogFile, run.LogFiles["audit"]} {
		data, err := os.ReadFile(file)
		require.NoError(t, err)
		assert.Contains(t, string(data), "resumed")
	}
}

func TestOpenLogger_MissingResolvedFile(t *testing.T) {
	run, exp, _ := prepareDefault(t, nil)
	run.LogFiles = nil

	_, _, err := OpenLogger(run, exp, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler file")
}
