// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package budget converts an experiment's pixel-space perturbation budgets
// into the normalized-input quantities the training program works with.
package budget

import (
	"errors"
	"fmt"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/dataset"
	"github.com/ManuGH/advexp/internal/fraction"
)

// Evaluation attack parameters used by the training program.
const (
	PGDIterations = 50
	PGDRestarts   = 2
)

var (
	// ErrUnknownDataset is returned when no normalization constants exist for the dataset.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrOutOfRange is returned for a budget outside [0, 1] pixel space.
	ErrOutOfRange = errors.New("budget outside [0, 1]")
)

// Scaled is one budget in pixel space and per channel in normalized space.
type Scaled struct {
	Expr       string    `json:"expr" yaml:"expr"`
	Value      float64   `json:"value" yaml:"value"`
	PerChannel []float64 `json:"per_channel" yaml:"per_channel"`
}

// PGD holds the evaluation attack parameters.
type PGD struct {
	Iterations int       `json:"iterations" yaml:"iterations"`
	Restarts   int       `json:"restarts" yaml:"restarts"`
	Epsilon    []float64 `json:"epsilon" yaml:"epsilon"`
	Step       []float64 `json:"step" yaml:"step"`
}

// Budget is the derived attack geometry of an experiment.
type Budget struct {
	Dataset     string    `json:"dataset" yaml:"dataset"`
	Epsilon     Scaled    `json:"epsilon" yaml:"epsilon"`
	EpsilonIter Scaled    `json:"epsilon_iter" yaml:"epsilon_iter"`
	PGDStep     Scaled    `json:"pgd_epsilon_iter" yaml:"pgd_epsilon_iter"`
	Lower       []float64 `json:"lower_limit" yaml:"lower_limit"`
	Upper       []float64 `json:"upper_limit" yaml:"upper_limit"`
	PGD         PGD       `json:"pgd" yaml:"pgd"`
}

// Derive divides each budget by the dataset's per-channel std and computes
// the valid input range in normalized space.
func Derive(exp config.Experiment) (Budget, error) {
	info, ok := dataset.Lookup(exp.Dataset)
	if !ok {
		return Budget{}, fmt.Errorf("%w: %q", ErrUnknownDataset, exp.Dataset)
	}

	for _, f := range []fraction.Fraction{exp.Epsilon, exp.EpsilonIter, exp.PGDEpsilonIter} {
		if !f.InUnitInterval() {
			return Budget{}, fmt.Errorf("%w: %s", ErrOutOfRange, f.Expr)
		}
	}

	lower, upper := info.ClipBounds()
	b := Budget{
		Dataset:     info.Name,
		Epsilon:     scale(info, exp.Epsilon),
		EpsilonIter: scale(info, exp.EpsilonIter),
		PGDStep:     scale(info, exp.PGDEpsilonIter),
		Lower:       lower,
		Upper:       upper,
	}
	b.PGD = PGD{
		Iterations: PGDIterations,
		Restarts:   PGDRestarts,
		Epsilon:    b.Epsilon.PerChannel,
		Step:       b.PGDStep.PerChannel,
	}
	return b, nil
}

func scale(info dataset.Info, f fraction.Fraction) Scaled {
	return Scaled{Expr: f.Expr, Value: f.Value, PerChannel: info.Scale(f.Value)}
}

// Ratio reports how many training steps of EpsilonIter fit in Epsilon.
// Fast-FGSM deliberately steps past the budget and projects back.
func (b Budget) Ratio() float64 {
	if b.Epsilon.Value == 0 {
		return 0
	}
	return b.EpsilonIter.Value / b.Epsilon.Value
}
