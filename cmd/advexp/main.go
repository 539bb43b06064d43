// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// advexp inspects and prepares adversarial-training experiments described by
// flat YAML experiment documents.
//
// Usage:
//
//	advexp <command> [flags]
//
// Exit codes:
//   - 0: success
//   - 1: the experiment is invalid or the command failed
//   - 2: usage error
package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ManuGH/advexp/internal/log"
	"github.com/ManuGH/advexp/internal/version"
)

// cli carries the output streams so commands can be run in-process by tests.
type cli struct {
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(c *cli, args []string) int
}

var commands = map[string]command{
	"validate": {"validate one or more experiment documents", (*cli).runValidate},
	"dump":     {"print the effective experiment (defaults + file + env)", (*cli).runDump},
	"diff":     {"compare the effective experiments of two documents", (*cli).runDiff},
	"plan":     {"show derived budgets, device and learning-rate schedule", (*cli).runPlan},
	"prepare":  {"create a run directory with a configuration snapshot", (*cli).runPrepare},
	"runs":     {"list runs recorded in a ledger", (*cli).runRuns},
	"watch":    {"revalidate a document on change and serve metrics", (*cli).runWatch},
	"keys":     {"list document keys, env overrides and defaults", (*cli).runKeys},
}

func main() {
	log.Configure(log.Config{Service: "advexp", Version: version.Version})
	c := &cli{stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.usage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	if args[0] == "-version" || args[0] == "--version" || args[0] == "version" {
		fmt.Fprintln(c.stdout, version.String())
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(c.stderr, "Unknown command: %s\n\n", args[0])
		c.usage()
		return 2
	}
	return cmd.run(c, args[1:])
}

func (c *cli) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(c.stderr, "Usage:")
	fmt.Fprintln(c.stderr, "  advexp <command> [flags]")
	fmt.Fprintln(c.stderr, "")
	fmt.Fprintln(c.stderr, "Commands:")
	for _, name := range names {
		fmt.Fprintf(c.stderr, "  %-9s %s\n", name, commands[name].summary)
	}
}

// fileList collects repeated -f flags.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("empty file name")
	}
	*f = append(*f, v)
	return nil
}
