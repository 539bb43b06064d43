// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT

// validate is a CI-friendly tool that checks one experiment document.
//
// Usage:
//
//	validate -f fast_fgsm_config.yaml
//	validate --file fast_fgsm_config.yaml --complete
//
// Exit codes:
//   - 0: Experiment is valid
//   - 1: Experiment is invalid (parse or validation error)
//   - 2: Usage error (missing required flag)
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/validate"
	"github.com/ManuGH/advexp/internal/version"
)

func main() {
	var file string
	var complete bool
	var showVersion bool

	flag.StringVar(&file, "file", "", "path to YAML experiment document")
	flag.StringVar(&file, "f", "", "path to YAML experiment document (shorthand)")
	flag.BoolVar(&complete, "complete", false, "require every document key to be present")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.Version)
		os.Exit(0)
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  validate -f fast_fgsm_config.yaml")
		fmt.Fprintln(os.Stderr, "  validate --file fast_fgsm_config.yaml --complete")
		os.Exit(2)
	}

	// Strict parse, env overrides and validation in one pass
	_, err := config.NewLoader(file, version.Version).RequireComplete(complete).Load()
	if err != nil {
		var ve validate.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(os.Stderr, "Validation error in %s:\n", file)
			for _, fe := range ve.Errors() {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
			}
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n", file)
		fmt.Fprintf(os.Stderr, "  %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ %s is valid\n", file)
}
