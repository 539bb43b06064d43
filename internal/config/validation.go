// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ManuGH/advexp/internal/dataset"
	"github.com/ManuGH/advexp/internal/fraction"
	"github.com/ManuGH/advexp/internal/validate"
	"github.com/go-playground/validator/v10"
)

var devicePattern = regexp.MustCompile(`^(cpu|cuda(:\d+)?)$`)

var (
	structValidatorOnce sync.Once
	structValidator     *validator.Validate
)

// tagValidator returns the shared struct-tag validator. Field names in its
// errors are the document's yaml names.
func tagValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		structValidator = v
	})
	return structValidator
}

// Validate checks the effective experiment and reports every failure at once
// as a validate.ValidationError.
func Validate(exp Experiment) error {
	v := validate.New()

	validateFloats(v, exp)
	validateBudgets(v, exp)
	validateSelectors(v, exp)
	validateJobLogging(v, exp.Hydra.JobLogging)
	validateTags(v, exp)

	return v.Err()
}

func validateFloats(v *validate.Validator, exp Experiment) {
	v.Finite("lr_min", exp.LRMin)
	v.Finite("lr_max", exp.LRMax)
	v.Finite("learning_rate", exp.LearningRate)
	v.Finite("momentum", exp.Momentum)
	v.Finite("weight_decay", exp.WeightDecay)
}

func validateBudgets(v *validate.Validator, exp Experiment) {
	budgets := []struct {
		field string
		value fraction.Fraction
	}{
		{"epsilon", exp.Epsilon},
		{"epsilon_iter", exp.EpsilonIter},
		{"pgd_epsilon_iter", exp.PGDEpsilonIter},
	}
	for _, b := range budgets {
		if b.value.IsZero() {
			v.AddError(b.field, "fraction expression cannot be empty", b.value.Expr)
			continue
		}
		v.UnitInterval(b.field, b.value.Expr, b.value.Value)
	}
	if !v.HasError("epsilon") && !v.HasError("pgd_epsilon_iter") {
		v.NotGreater("pgd_epsilon_iter", exp.PGDEpsilonIter.Value, "epsilon", exp.Epsilon.Value)
	}
}

func validateSelectors(v *validate.Validator, exp Experiment) {
	if exp.Device != "" {
		v.Matches("device", exp.Device, devicePattern, `"cpu", "cuda" or "cuda:<index>"`)
	}

	if exp.Dataset == "" {
		return
	}
	info, ok := dataset.Lookup(exp.Dataset)
	if !ok {
		v.AddError("dataset",
			fmt.Sprintf("unknown dataset %q (known: %s)", exp.Dataset, strings.Join(dataset.Names(), ", ")),
			exp.Dataset)
		return
	}
	if exp.NClasses != info.Classes {
		v.AddError("n_classes",
			fmt.Sprintf("%s has %d classes, got %d", info.Name, info.Classes, exp.NClasses),
			exp.NClasses)
	}
}

func validateJobLogging(v *validate.Validator, jl JobLogging) {
	const prefix = jobLoggingPath

	for _, name := range sortedKeys(jl.Handlers) {
		h := jl.Handlers[name]
		field := prefix + ".handlers." + name
		if h.Formatter != "" {
			if _, ok := jl.Formatters[h.Formatter]; !ok {
				v.AddError(field+".formatter",
					fmt.Sprintf("references undeclared formatter %q", h.Formatter), h.Formatter)
			}
		}
		if h.Level != "" {
			if _, err := validate.ParseLogLevel(h.Level); err != nil {
				v.AddError(field+".level", levelMessage(h.Level), h.Level)
			}
		}
		if h.Filename == "" && h.Stream == "" && strings.HasSuffix(h.Class, "FileHandler") {
			v.AddError(field+".filename", "file handler needs a filename", h.Filename)
		}
	}

	if jl.Root.Level != "" {
		if _, err := validate.ParseLogLevel(jl.Root.Level); err != nil {
			v.AddError(prefix+".root.level", levelMessage(jl.Root.Level), jl.Root.Level)
		}
	}
	for _, name := range jl.Root.Handlers {
		if _, ok := jl.Handlers[name]; !ok {
			v.AddError(prefix+".root.handlers",
				fmt.Sprintf("references undeclared handler %q", name), name)
		}
	}
}

func levelMessage(level string) string {
	return fmt.Sprintf("invalid log level %q (must be NOTSET, DEBUG, INFO, WARNING, ERROR or CRITICAL)", level)
}

// validateTags runs the struct-tag rules; fields already reported are skipped
// so a NaN is not reported twice.
func validateTags(v *validate.Validator, exp Experiment) {
	err := tagValidator().Struct(exp)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.AddError("experiment", err.Error(), nil)
		return
	}
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		if v.HasError(field) {
			continue
		}
		v.AddError(field, tagMessage(fe), fe.Value())
	}
}

// fieldPath turns "Experiment.hydra.run.dir" into "hydra.run.dir".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "gt":
		return fmt.Sprintf("value must be greater than %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("value must be at least %s, got %v", fe.Param(), fe.Value())
	case "lt":
		return fmt.Sprintf("value must be less than %s, got %v", fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("value must not be below %s, got %v", yamlName(fe.Param()), fe.Value())
	case "oneof":
		return fmt.Sprintf("value must be one of [%s], got %q", fe.Param(), fe.Value())
	}
	return fmt.Sprintf("failed %q check", fe.Tag())
}

// yamlName maps an Experiment Go field name to its document key.
func yamlName(goField string) string {
	f, ok := reflect.TypeOf(Experiment{}).FieldByName(goField)
	if !ok {
		return goField
	}
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	return name
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
