// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/log"
	"github.com/ManuGH/advexp/internal/metrics"
	"github.com/ManuGH/advexp/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (c *cli) runWatch(args []string) int {
	fs := flag.NewFlagSet("advexp watch", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var (
		file        string
		metricsAddr string
		debounce    time.Duration
	)
	fs.StringVar(&file, "file", "", "path to YAML experiment document (required)")
	fs.StringVar(&file, "f", "", "path to YAML experiment document (shorthand)")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
	fs.DurationVar(&debounce, "debounce", config.DefaultDebounce, "quiet period before reloading")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	path := strings.TrimSpace(file)
	if path == "" {
		fmt.Fprintln(c.stderr, "Error: --file is required")
		return 2
	}

	loader := config.NewLoader(path, version.Version)
	exp, err := loader.Load()
	if err != nil {
		metrics.RecordValidation(false, config.FailingKeys(err))
		c.reportInvalid(path, err)
		return 1
	}
	metrics.RecordValidation(true, nil)
	metrics.SetLastLoad(time.Now())
	fmt.Fprintf(c.stdout, "✓ %s is valid, watching for changes\n", path)

	ctx, cancel := signalContext()
	defer cancel()

	holder := config.NewHolder(exp, loader)
	holder.SetDebounce(debounce)
	if err := holder.StartWatcher(ctx); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	defer holder.Stop()

	logger := log.WithComponent("watch")
	g, gctx := errgroup.WithContext(ctx)

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           newMetricsRouter(holder),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", metricsAddr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	updates := make(chan config.Experiment, 1)
	holder.RegisterListener(updates)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case next := <-updates:
				sum, err := config.Fingerprint(next)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.stdout, "✓ %s reloaded (config %s)\n", path, shortHash(sum))
			}
		}
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}
	logger.Info().Str(log.FieldEvent, "watch.stopped").Msg("watch stopped")
	return 0
}

type healthResponse struct {
	Status      string `json:"status"`
	Dataset     string `json:"dataset"`
	Classifier  string `json:"classifier"`
	Fingerprint string `json:"fingerprint"`
}

// newMetricsRouter serves Prometheus metrics and the fingerprint of the
// experiment currently held.
func newMetricsRouter(holder *config.Holder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		exp := holder.Get()
		sum, err := config.Fingerprint(exp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:      "ok",
			Dataset:     exp.Dataset,
			Classifier:  exp.ClassifierName,
			Fingerprint: sum,
		})
	})
	return r
}
