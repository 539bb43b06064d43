// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/metrics"
	"github.com/ManuGH/advexp/internal/validate"
	"github.com/ManuGH/advexp/internal/version"
	"golang.org/x/sync/errgroup"
)

// maxParallelLoads bounds concurrent document loads.
const maxParallelLoads = 8

type loadResult struct {
	path string
	exp  config.Experiment
	err  error
}

// loadAll loads every document concurrently; results keep argument order.
func loadAll(ctx context.Context, paths []string, complete bool) []loadResult {
	results := make([]loadResult, len(paths))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			exp, err := config.NewLoader(p, version.Version).RequireComplete(complete).Load()
			results[i] = loadResult{path: p, exp: exp, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *cli) runValidate(args []string) int {
	fs := flag.NewFlagSet("advexp validate", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var files fileList
	var complete bool
	fs.Var(&files, "file", "path to YAML experiment document (repeatable)")
	fs.Var(&files, "f", "path to YAML experiment document (shorthand, repeatable)")
	fs.BoolVar(&complete, "complete", false, "require every document key to be set in the file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	files = append(files, fs.Args()...)
	if len(files) == 0 {
		fmt.Fprintln(c.stderr, "Error: at least one --file is required")
		return 2
	}

	exit := 0
	for _, r := range loadAll(context.Background(), files, complete) {
		if r.err != nil {
			metrics.RecordValidation(false, config.FailingKeys(r.err))
			c.reportInvalid(r.path, r.err)
			exit = 1
			continue
		}
		metrics.RecordValidation(true, nil)
		fmt.Fprintf(c.stdout, "✓ %s is valid\n", r.path)
	}
	return exit
}

// reportInvalid prints one line per failing field, or the load error.
func (c *cli) reportInvalid(path string, err error) {
	var ve validate.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(c.stderr, "Validation error in %s:\n", path)
		for _, fe := range ve.Errors() {
			fmt.Fprintf(c.stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}
	fmt.Fprintf(c.stderr, "Configuration error in %s:\n  %v\n", path, err)
}
