// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/ManuGH/advexp/internal/config"
)

func (c *cli) runKeys(args []string) int {
	fs := flag.NewFlagSet("advexp keys", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	defaults := config.DefaultExperiment()
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tENV\tKIND\tOUTCOME\tDEFAULT\tDESCRIPTION")
	for _, e := range config.Entries() {
		env := e.Env
		if env == "" {
			env = "-"
		}
		outcome := "no"
		if e.AffectsOutcome {
			outcome = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Path, env, e.Kind, outcome, config.FormatValue(e.Value(defaults)), e.Description)
	}
	_ = tw.Flush()
	return 0
}
