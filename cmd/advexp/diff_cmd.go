// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ManuGH/advexp/internal/config"
)

// runDiff exits 0 when the experiments are equivalent and 1 when they differ,
// like diff(1).
func (c *cli) runDiff(args []string) int {
	fs := flag.NewFlagSet("advexp diff", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var outcomeOnly bool
	fs.BoolVar(&outcomeOnly, "outcome-only", false, "ignore keys that only move output files or logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(c.stderr, "Usage: advexp diff [--outcome-only] a.yaml b.yaml")
		return 2
	}

	results := loadAll(context.Background(), fs.Args(), false)
	failed := false
	for _, r := range results {
		if r.err != nil {
			c.reportInvalid(r.path, r.err)
			failed = true
		}
	}
	if failed {
		return 2
	}

	sum := config.Diff(results[0].exp, results[1].exp)
	changed := 0
	for _, ch := range sum.Changes {
		if outcomeOnly && !ch.AffectsOutcome {
			continue
		}
		marker := " "
		if ch.AffectsOutcome {
			marker = "*"
		}
		fmt.Fprintf(c.stdout, "%s %s\n", marker, ch)
		changed++
	}

	if changed == 0 {
		fmt.Fprintln(c.stdout, "experiments are equivalent")
		return 0
	}
	if sum.OutcomeChanged {
		fmt.Fprintln(c.stdout, "* changes the training outcome")
	} else {
		fmt.Fprintln(c.stdout, "only output locations differ")
	}
	return 1
}
