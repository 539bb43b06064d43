// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package budget

import (
	"testing"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/fraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_CIFAR10(t *testing.T) {
	b, err := Derive(config.DefaultExperiment())
	require.NoError(t, err)

	std := []float64{0.2471, 0.2435, 0.2616}
	require.Len(t, b.Epsilon.PerChannel, 3)
	for c := range std {
		assert.InDelta(t, (8.0/255.0)/std[c], b.Epsilon.PerChannel[c], 1e-12)
		assert.InDelta(t, (10.0/255.0)/std[c], b.EpsilonIter.PerChannel[c], 1e-12)
		assert.InDelta(t, (2.0/255.0)/std[c], b.PGDStep.PerChannel[c], 1e-12)
		assert.Less(t, b.Lower[c], 0.0)
		assert.Greater(t, b.Upper[c], 0.0)
	}

	assert.Equal(t, "8/255", b.Epsilon.Expr)
	assert.Equal(t, PGDIterations, b.PGD.Iterations)
	assert.Equal(t, PGDRestarts, b.PGD.Restarts)
	assert.Equal(t, b.Epsilon.PerChannel, b.PGD.Epsilon)
	assert.Equal(t, b.PGDStep.PerChannel, b.PGD.Step)
	assert.InDelta(t, 1.25, b.Ratio(), 1e-12)
}

func TestDerive_SingleChannel(t *testing.T) {
	exp := config.DefaultExperiment()
	exp.Dataset = "mnist"
	exp.Epsilon = fraction.MustParse("0.3")

	b, err := Derive(exp)
	require.NoError(t, err)
	require.Len(t, b.Epsilon.PerChannel, 1)
	assert.InDelta(t, 0.3/0.3081, b.Epsilon.PerChannel[0], 1e-12)
}

func TestDerive_UnknownDataset(t *testing.T) {
	exp := config.DefaultExperiment()
	exp.Dataset = "imagenet"
	_, err := Derive(exp)
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestRatio_ZeroEpsilon(t *testing.T) {
	assert.Zero(t, Budget{}.Ratio())
}

func TestDerive_OutOfRange(t *testing.T) {
	exp := config.DefaultExperiment()
	exp.EpsilonIter = fraction.MustParse("300/255")
	_, err := Derive(exp)
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Contains(t, err.Error(), "300/255")
}
