// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package rundir materializes a run of an experiment: it resolves the run
// directory pattern, snapshots the effective configuration into it and
// derives the paths the training program writes to.
package rundir

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/device"
	"github.com/ManuGH/advexp/internal/log"
	"github.com/ManuGH/advexp/internal/metrics"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SnapshotDir is the run subdirectory holding the configuration snapshot.
const SnapshotDir = ".hydra"

// DefaultJobName is used when neither Options nor the config path name the job.
const DefaultJobName = "advexp"

// Options controls Prepare. Zero values select the process defaults.
type Options struct {
	JobName    string
	ConfigPath string    // job name falls back to its base name
	Cwd        string    // original working directory
	Now        time.Time // run creation time
	Overrides  []string  // key=value overrides recorded in overrides.yaml
	Probe      device.Probe
}

// Run describes a prepared run directory.
type Run struct {
	ID         string            `json:"id" yaml:"id"`
	JobName    string            `json:"job_name" yaml:"job_name"`
	Dir        string            `json:"dir" yaml:"dir"`
	DataDir    string            `json:"data_dir" yaml:"data_dir"`
	Checkpoint string            `json:"checkpoint" yaml:"checkpoint"`
	LogFile    string            `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFiles   map[string]string `json:"log_files,omitempty" yaml:"log_files,omitempty"`
	ConfigHash string            `json:"config_hash" yaml:"config_hash"`
	Device     device.Resolution `json:"device" yaml:"device"`
	Overrides  []string          `json:"overrides" yaml:"overrides"`
	Created    time.Time         `json:"created" yaml:"created"`
}

// Prepare creates the run directory of exp and writes its snapshot:
// .hydra/config.yaml (the effective experiment), .hydra/overrides.yaml and
// .hydra/run.yaml. Relative paths resolve against the original working
// directory, not the run directory.
func Prepare(ctx context.Context, exp config.Experiment, opts Options) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return Run{}, err
	}

	ictx := NewContext(exp, opts.JobName, opts.Cwd, opts.Now)
	dir, err := Interpolate(exp.Hydra.Run.Dir, ictx)
	if err != nil {
		return Run{}, fmt.Errorf("hydra.run.dir: %w", err)
	}
	dataDir, err := Interpolate(exp.DataDir, ictx)
	if err != nil {
		return Run{}, fmt.Errorf("data_dir: %w", err)
	}

	hash, err := config.Fingerprint(exp)
	if err != nil {
		return Run{}, fmt.Errorf("fingerprint experiment: %w", err)
	}

	run := Run{
		ID:         uuid.NewString(),
		JobName:    opts.JobName,
		Dir:        ToAbsolutePath(dir, opts.Cwd),
		DataDir:    ToAbsolutePath(dataDir, opts.Cwd),
		ConfigHash: hash,
		Device:     device.ResolveWith(exp.Device, opts.Probe),
		Overrides:  append([]string{}, opts.Overrides...),
		Created:    opts.Now.UTC(),
	}
	run.Checkpoint = filepath.Join(run.Dir, exp.CheckpointName())
	if run.LogFiles, err = logFiles(exp.Hydra.JobLogging, run.Dir, ictx); err != nil {
		return Run{}, err
	}
	for _, name := range exp.Hydra.JobLogging.Root.Handlers {
		if file, ok := run.LogFiles[name]; ok {
			run.LogFile = file
			break
		}
	}

	if err := os.MkdirAll(filepath.Join(run.Dir, SnapshotDir), 0o750); err != nil {
		return Run{}, fmt.Errorf("create run dir: %w", err)
	}
	if err := writeSnapshot(ctx, run, exp); err != nil {
		return Run{}, err
	}

	metrics.RecordRunPrepared(exp.Dataset, run.Device.Fallback())
	logger := log.WithComponentFromContext(log.ContextWithJobName(log.ContextWithRunID(ctx, run.ID), run.JobName), "rundir")
	logger.Info().
		Str(log.FieldEvent, "run.prepared").
		Str(log.FieldDataset, exp.Dataset).
		Str(log.FieldClassifier, exp.ClassifierName).
		Str(log.FieldRunDir, run.Dir).
		Str(log.FieldLogFile, run.LogFile).
		Str(log.FieldConfigHash, run.ConfigHash).
		Str(log.FieldDevice, run.Device.Effective).
		Msg("run directory prepared")
	if run.Device.Fallback() {
		logger.Warn().
			Str(log.FieldEvent, "run.device_fallback").
			Str("requested", run.Device.Requested).
			Str("reason", run.Device.Reason).
			Msg("requested device unavailable, using cpu")
	}
	return run, nil
}

func (o Options) withDefaults() (Options, error) {
	if o.Cwd == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return o, fmt.Errorf("get working directory: %w", err)
		}
		o.Cwd = cwd
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.JobName == "" {
		o.JobName = JobNameFromPath(o.ConfigPath)
	}
	if o.Probe == nil {
		o.Probe = device.HasCUDA
	}
	return o, nil
}

// JobNameFromPath derives the job name from a config file path, the way the
// training program names its log file.
func JobNameFromPath(path string) string {
	if path == "" {
		return DefaultJobName
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ToAbsolutePath resolves p against the original working directory cwd.
// Absolute paths are returned cleaned.
func ToAbsolutePath(p, cwd string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(cwd, p)
}

// logFiles resolves the file of every root handler writing to one, keyed by
// handler name. Resolution happens once, against the creation time and
// working directory of the run, so later readers never re-interpolate.
func logFiles(jl config.JobLogging, runDir string, ictx Context) (map[string]string, error) {
	var out map[string]string
	for _, name := range jl.Root.Handlers {
		h, ok := jl.Handlers[name]
		if !ok || h.Filename == "" {
			continue
		}
		file, err := Interpolate(h.Filename, ictx)
		if err != nil {
			return nil, fmt.Errorf("hydra.job_logging.handlers.%s.filename: %w", name, err)
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = ToAbsolutePath(file, runDir)
	}
	return out, nil
}

func writeSnapshot(ctx context.Context, run Run, exp config.Experiment) error {
	snap := filepath.Join(run.Dir, SnapshotDir)

	var cfg bytes.Buffer
	if err := config.Dump(&cfg, exp, config.FormatYAML); err != nil {
		return fmt.Errorf("encode config snapshot: %w", err)
	}
	if err := writeAtomic(ctx, filepath.Join(snap, "config.yaml"), cfg.Bytes()); err != nil {
		return err
	}

	overrides, err := yaml.Marshal(run.Overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := writeAtomic(ctx, filepath.Join(snap, "overrides.yaml"), overrides); err != nil {
		return err
	}

	meta, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run metadata: %w", err)
	}
	return writeAtomic(ctx, filepath.Join(snap, "run.yaml"), meta)
}

// writeAtomic replaces path with data: fsync before rename.
func writeAtomic(ctx context.Context, path string, data []byte) error {
	logger := log.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(log.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadRun reads the run metadata snapshot of a prepared run directory.
func LoadRun(dir string) (Run, error) {
	// #nosec G304 -- run directories are chosen by the operator
	data, err := os.ReadFile(filepath.Join(dir, SnapshotDir, "run.yaml"))
	if err != nil {
		return Run{}, fmt.Errorf("read run metadata: %w", err)
	}
	var run Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("decode run metadata: %w", err)
	}
	return run, nil
}

// OpenLogger builds the run's logger from the experiment's job_logging
// section: stream handlers go to console, file handlers to the files Prepare
// resolved for the run. The closer releases the files.
func OpenLogger(run Run, exp config.Experiment, console io.Writer) (zerolog.Logger, io.Closer, error) {
	jl := exp.Hydra.JobLogging

	names := append([]string(nil), jl.Root.Handlers...)
	sort.Strings(names)

	cfg := log.RunConfig{Level: jl.Root.Level, Console: console, RunID: run.ID}
	for _, name := range names {
		h, ok := jl.Handlers[name]
		if !ok {
			continue
		}
		handler := log.Handler{Name: name, Level: h.Level}
		if h.Filename != "" {
			file, ok := run.LogFiles[name]
			if !ok {
				return zerolog.Nop(), nil, fmt.Errorf("handler %s: run has no resolved log file", name)
			}
			handler.File = file
		}
		cfg.Handlers = append(cfg.Handlers, handler)
	}

	logger, closer, err := log.NewRunLogger(cfg)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return logger.With().Str(log.FieldJobName, run.JobName).Str(log.FieldConfigHash, run.ConfigHash).Logger(), closer, nil
}
