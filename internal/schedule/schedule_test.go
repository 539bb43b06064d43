// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine_Endpoints(t *testing.T) {
	assert.InDelta(t, 0.2, Cosine(0, 100, 0.2, 0), 1e-12)
	assert.InDelta(t, 0.1, Cosine(50, 100, 0.2, 0), 1e-12)
	assert.InDelta(t, 0.0, Cosine(100, 100, 0.2, 0), 1e-12)
	assert.InDelta(t, 0.05, Cosine(100, 100, 0.2, 0.05), 1e-12)
}

func TestCosine_Monotonic(t *testing.T) {
	prev := Cosine(0, 40, 1, 0)
	for step := 1; step <= 40; step++ {
		cur := Cosine(step, 40, 1, 0)
		assert.LessOrEqual(t, cur, prev, "step %d", step)
		prev = cur
	}
}

func TestLambda(t *testing.T) {
	l, err := NewLambda(0.1, 1000)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, l.Factor(0), 1e-12)
	assert.InDelta(t, 0.1, l.At(0), 1e-12)
	assert.InDelta(t, FloorLR, l.At(1000), 1e-15)
	assert.Equal(t, 1000, l.Total())
}

func TestLambda_Invalid(t *testing.T) {
	_, err := NewLambda(0.1, 0)
	assert.True(t, errors.Is(err, ErrNoSteps))

	_, err = NewLambda(0, 10)
	assert.Error(t, err)
}

func TestCyclic(t *testing.T) {
	c, err := NewCyclic(0, 0.2, 100)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, c.At(0), 1e-12)
	assert.InDelta(t, 0.1, c.At(25), 1e-12)
	assert.InDelta(t, 0.2, c.At(50), 1e-12)
	assert.InDelta(t, 0.1, c.At(75), 1e-12)
	assert.InDelta(t, 0.0, c.At(100), 1e-12)
}

func TestCyclic_Invalid(t *testing.T) {
	_, err := NewCyclic(0.3, 0.2, 100)
	assert.Error(t, err)
	_, err = NewCyclic(0, 0.2, -1)
	assert.True(t, errors.Is(err, ErrNoSteps))
}

func TestTable(t *testing.T) {
	l, err := NewLambda(0.1, 10)
	require.NoError(t, err)

	pts := Table(l, 3)
	require.Len(t, pts, 3)
	assert.Equal(t, 0, pts[0].Step)
	assert.Equal(t, 5, pts[1].Step)
	assert.Equal(t, 10, pts[2].Step)
	assert.InDelta(t, 0.1, pts[0].LR, 1e-12)

	// More points than steps collapses to one point per step.
	pts = Table(l, 50)
	assert.Len(t, pts, 11)

	pts = Table(l, 0)
	require.Len(t, pts, 2)
	assert.Equal(t, 10, pts[1].Step)
}

func TestEpochEnds(t *testing.T) {
	l, err := NewLambda(0.1, 30)
	require.NoError(t, err)

	pts := EpochEnds(l, 10)
	require.Len(t, pts, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{pts[0].Step, pts[1].Step, pts[2].Step})
	assert.InDelta(t, FloorLR, pts[2].LR, 1e-15)

	assert.Nil(t, EpochEnds(l, 0))
}
