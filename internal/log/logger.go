// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the process logger.
type Config struct {
	Level   string    // zerolog level name; falls back to LOG_LEVEL, then info
	Format  string    // "json" or "console"; falls back to LOG_FORMAT, then json
	Output  io.Writer // defaults to os.Stderr; stdout carries command output
	Service string    // attached to every entry
	Version string
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the process logger. Only the first call has effect;
// loggers obtained before it use the defaults.
func Configure(cfg Config) {
	once.Do(func() {
		base = build(cfg)
	})
}

func build(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	for _, name := range []string{cfg.Level, os.Getenv("LOG_LEVEL")} {
		if name == "" {
			continue
		}
		if parsed, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
			level = parsed
		}
		break
	}
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	format := cfg.Format
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	service := cfg.Service
	if service == "" {
		service = "advexp"
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp().Str("service", service)
	if cfg.Version != "" {
		ctx = ctx.Str("version", cfg.Version)
	}
	return ctx.Logger()
}

func logger() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}
