// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/advexp/internal/ledger"
)

func (c *cli) runRuns(args []string) int {
	fs := flag.NewFlagSet("advexp runs", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var (
		path   string
		filter ledger.Filter
		asJSON bool
		verify string
		show   string
	)
	fs.StringVar(&path, "ledger", "", "path to the SQLite ledger (required)")
	fs.StringVar(&filter.Dataset, "dataset", "", "only runs on this dataset")
	fs.StringVar(&filter.Classifier, "classifier", "", "only runs of this classifier")
	fs.IntVar(&filter.Limit, "limit", 0, "maximum number of runs (0: all)")
	fs.BoolVar(&asJSON, "json", false, "print runs as JSON")
	fs.StringVar(&verify, "verify", "", "check ledger integrity: quick or full")
	fs.StringVar(&show, "show", "", "print the recorded experiment of this run id")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if path == "" {
		fmt.Fprintln(c.stderr, "Error: --ledger is required")
		return 2
	}

	if verify != "" {
		return c.verifyLedger(path, verify)
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := ledger.Open(path, ledger.DefaultConfig())
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	if show != "" {
		data, err := store.Experiment(ctx, show)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		_, _ = c.stdout.Write(data)
		return 0
	}

	entries, err := store.List(ctx, filter)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tDATASET\tCLASSIFIER\tEPSILON\tSEED\tDEVICE\tCONFIG")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Dataset, e.Classifier,
			e.Epsilon, e.Seed, e.DeviceEffective, shortHash(e.ConfigHash))
	}
	_ = tw.Flush()
	return 0
}

func (c *cli) verifyLedger(path, mode string) int {
	if mode != "quick" && mode != "full" {
		fmt.Fprintf(c.stderr, "Error: --verify must be quick or full, got %q\n", mode)
		return 2
	}
	problems, err := ledger.VerifyIntegrity(path, mode)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	if len(problems) > 0 {
		fmt.Fprintf(c.stderr, "Ledger %s is corrupt:\n", path)
		for _, p := range problems {
			fmt.Fprintf(c.stderr, "  %s\n", p)
		}
		return 1
	}
	fmt.Fprintf(c.stdout, "✓ %s passed %s check\n", path, mode)
	return 0
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
