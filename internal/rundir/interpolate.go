// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rundir

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/fraction"
	"github.com/ncruces/go-strftime"
)

var (
	// ErrUnresolved is returned for a ${...} reference with no value.
	ErrUnresolved = errors.New("unresolved interpolation")
	// ErrInterpolationSyntax is returned for unterminated or nested references.
	ErrInterpolationSyntax = errors.New("invalid interpolation")
)

// Context supplies the values ${...} references resolve to.
type Context struct {
	Now     time.Time
	JobName string
	Cwd     string            // original working directory, ${hydra.runtime.cwd}
	Values  map[string]string // top-level document keys
}

// NewContext exposes every scalar document key of exp for interpolation.
func NewContext(exp config.Experiment, jobName, cwd string, now time.Time) Context {
	values := make(map[string]string)
	for _, e := range config.Entries() {
		if e.Kind == config.KindMapping {
			continue
		}
		switch v := e.Value(exp).(type) {
		case fraction.Fraction:
			values[e.Path] = v.Expr
		default:
			values[e.Path] = fmt.Sprint(v)
		}
	}
	return Context{Now: now, JobName: jobName, Cwd: cwd, Values: values}
}

// Interpolate resolves ${now:<strftime>}, ${hydra.job.name},
// ${hydra.runtime.cwd} and ${<key>} references in s. A '$' not followed by
// '{' is kept literally.
func Interpolate(s string, c Context) (string, error) {
	var b strings.Builder
	rest := s
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:i])
		rest = rest[i+2:]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated reference in %q", ErrInterpolationSyntax, s)
		}
		ref := rest[:end]
		if strings.Contains(ref, "${") {
			return "", fmt.Errorf("%w: nested reference in %q", ErrInterpolationSyntax, s)
		}
		val, err := c.resolve(strings.TrimSpace(ref))
		if err != nil {
			return "", err
		}
		b.WriteString(val)
		rest = rest[end+1:]
	}
}

func (c Context) resolve(ref string) (string, error) {
	if layout, ok := strings.CutPrefix(ref, "now:"); ok {
		return strftime.Format(layout, c.Now), nil
	}
	switch ref {
	case "":
		return "", fmt.Errorf("%w: empty reference", ErrInterpolationSyntax)
	case "hydra.job.name":
		if c.JobName != "" {
			return c.JobName, nil
		}
	case "hydra.runtime.cwd":
		if c.Cwd != "" {
			return c.Cwd, nil
		}
	default:
		if v, ok := c.Values[ref]; ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: ${%s}", ErrUnresolved, ref)
}
