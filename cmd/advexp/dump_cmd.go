// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/version"
)

func (c *cli) runDump(args []string) int {
	fs := flag.NewFlagSet("advexp dump", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var file string
	var format string
	var fingerprint bool
	fs.StringVar(&file, "file", "", "path to YAML experiment document (empty: defaults + env)")
	fs.StringVar(&file, "f", "", "path to YAML experiment document (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&fingerprint, "fingerprint", false, "print only the configuration fingerprint")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	outFormat, err := config.ParseFormat(format)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 2
	}

	path := strings.TrimSpace(file)
	exp, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		c.reportInvalid(displayPath(path), err)
		return 1
	}

	if fingerprint {
		sum, err := config.Fingerprint(exp)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(c.stdout, sum)
		return 0
	}
	if err := config.Dump(c.stdout, exp, outFormat); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func displayPath(path string) string {
	if path == "" {
		return "<defaults>"
	}
	return path
}
