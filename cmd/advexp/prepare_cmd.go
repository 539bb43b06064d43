// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/ledger"
	"github.com/ManuGH/advexp/internal/log"
	"github.com/ManuGH/advexp/internal/rundir"
	"github.com/ManuGH/advexp/internal/version"
)

func (c *cli) runPrepare(args []string) int {
	fs := flag.NewFlagSet("advexp prepare", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var (
		file       string
		ledgerPath string
		cwd        string
		jobName    string
		asJSON     bool
	)
	fs.StringVar(&file, "file", "", "path to YAML experiment document")
	fs.StringVar(&file, "f", "", "path to YAML experiment document (shorthand)")
	fs.StringVar(&ledgerPath, "ledger", "", "record the run in this SQLite ledger")
	fs.StringVar(&cwd, "cwd", "", "directory relative paths resolve against (default: current)")
	fs.StringVar(&jobName, "job-name", "", "job name (default: document base name)")
	fs.BoolVar(&asJSON, "json", false, "print the run as JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(file)
	exp, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		c.reportInvalid(displayPath(path), err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	run, err := rundir.Prepare(ctx, exp, rundir.Options{
		JobName:    jobName,
		ConfigPath: path,
		Cwd:        cwd,
		Overrides:  envOverrides(),
	})
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: prepare run: %v\n", err)
		return 1
	}

	runLog, closer, err := rundir.OpenLogger(run, exp, c.stderr)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: open run log: %v\n", err)
		return 1
	}
	defer func() { _ = closer.Close() }()
	runLog.Info().
		Str(log.FieldEvent, "run.start").
		Str(log.FieldDevice, run.Device.Effective).
		Str("checkpoint", run.Checkpoint).
		Msg("experiment prepared")

	if ledgerPath != "" {
		if err := c.recordRun(log.ContextWithRunID(ctx, run.ID), ledgerPath, run, exp); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
	}

	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(c.stdout, "run %s\n", run.ID)
	fmt.Fprintf(c.stdout, "  dir:        %s\n", run.Dir)
	fmt.Fprintf(c.stdout, "  data_dir:   %s\n", run.DataDir)
	fmt.Fprintf(c.stdout, "  checkpoint: %s\n", run.Checkpoint)
	if run.LogFile != "" {
		fmt.Fprintf(c.stdout, "  log:        %s\n", run.LogFile)
	}
	fmt.Fprintf(c.stdout, "  device:     %s\n", deviceLine(run.Device))
	fmt.Fprintf(c.stdout, "  config:     %s\n", run.ConfigHash)
	return 0
}

// recordRun appends run to the ledger and reports earlier runs of the same
// effective experiment.
func (c *cli) recordRun(ctx context.Context, path string, run rundir.Run, exp config.Experiment) error {
	store, err := ledger.Open(path, ledger.DefaultConfig())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	prior, err := store.FindByHash(ctx, run.ConfigHash)
	if err != nil {
		return err
	}
	for _, p := range prior {
		fmt.Fprintf(c.stderr, "note: identical experiment already ran as %s (%s)\n", p.ID, p.Dir)
	}
	return store.Record(ctx, run, exp)
}

// envOverrides lists the ADVEXP_* variables in effect as key=value pairs.
func envOverrides() []string {
	var out []string
	for _, e := range config.Entries() {
		if e.Env == "" {
			continue
		}
		if v, ok := os.LookupEnv(e.Env); ok {
			out = append(out, e.Path+"="+strings.TrimSpace(v))
		}
	}
	return out
}
