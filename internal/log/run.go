// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler is one output of a run logger. An empty File means the console.
type Handler struct {
	Name  string
	File  string
	Level string // python logging level name; empty inherits RunConfig.Level
}

// RunConfig describes the logger of a single experiment run, built from the
// document's job_logging section.
type RunConfig struct {
	Level    string
	Handlers []Handler
	Console  io.Writer // defaults to os.Stderr
	RunID    string
}

// ParsePythonLevel maps python logging level names onto zerolog levels.
// zerolog level names are accepted as well.
func ParsePythonLevel(s string) (zerolog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NOTSET":
		return zerolog.TraceLevel, nil
	case "DEBUG":
		return zerolog.DebugLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "WARNING", "WARN":
		return zerolog.WarnLevel, nil
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "CRITICAL", "FATAL":
		return zerolog.FatalLevel, nil
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(s)); err == nil {
		return lvl, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRunLogger builds a logger fanning out to every configured handler. File
// handlers append to their file; the returned closer releases them.
func NewRunLogger(cfg RunConfig) (zerolog.Logger, io.Closer, error) {
	rootLevel, err := ParsePythonLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("root level: %w", err)
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		writers []io.Writer
		files   closers
	)
	for _, h := range cfg.Handlers {
		level := rootLevel
		if h.Level != "" {
			if level, err = ParsePythonLevel(h.Level); err != nil {
				_ = files.Close()
				return zerolog.Nop(), nil, fmt.Errorf("handler %s: %w", h.Name, err)
			}
		}

		var out io.Writer
		if h.File == "" {
			out = zerolog.ConsoleWriter{Out: console, NoColor: true, TimeFormat: time.DateTime}
		} else {
			if err := os.MkdirAll(filepath.Dir(h.File), 0o750); err != nil {
				_ = files.Close()
				return zerolog.Nop(), nil, fmt.Errorf("handler %s: create log dir: %w", h.Name, err)
			}
			// #nosec G304 -- log file path comes from the operator's experiment document
			f, err := os.OpenFile(h.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				_ = files.Close()
				return zerolog.Nop(), nil, fmt.Errorf("handler %s: open log file: %w", h.Name, err)
			}
			files = append(files, f)
			out = f
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: out},
			Level:  level,
		})
	}

	if len(writers) == 0 {
		return zerolog.Nop(), files, nil
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(rootLevel).With().Timestamp()
	if cfg.RunID != "" {
		ctx = ctx.Str(FieldRunID, cfg.RunID)
	}
	return ctx.Logger(), files, nil
}
