// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package schedule computes the per-step learning rates an experiment's
// optimizer settings describe.
package schedule

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoSteps is returned when a schedule is built over zero steps.
var ErrNoSteps = errors.New("total steps must be positive")

// FloorLR is the learning rate the lambda schedule anneals down to.
const FloorLR = 1e-6

// Schedule yields the learning rate in effect after the given optimizer step.
type Schedule interface {
	At(step int) float64
	Total() int
}

// Cosine anneals from lrMax at step 0 to lrMin at step total.
func Cosine(step, total int, lrMax, lrMin float64) float64 {
	return lrMin + (lrMax-lrMin)*0.5*(1+math.Cos(float64(step)/float64(total)*math.Pi))
}

// Lambda is a multiplicative cosine schedule on top of a base learning rate:
// the factor goes from 1 to FloorLR/base so the rate ends at FloorLR.
type Lambda struct {
	base  float64
	total int
}

// NewLambda builds the schedule for learningRate over totalSteps optimizer steps.
func NewLambda(learningRate float64, totalSteps int) (*Lambda, error) {
	if totalSteps <= 0 {
		return nil, ErrNoSteps
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be positive, got %g", learningRate)
	}
	return &Lambda{base: learningRate, total: totalSteps}, nil
}

// Factor returns the multiplier applied to the base rate at step.
func (l *Lambda) Factor(step int) float64 {
	return Cosine(step, l.total, 1, FloorLR/l.base)
}

// At returns the effective learning rate at step.
func (l *Lambda) At(step int) float64 {
	return l.base * l.Factor(step)
}

// Total returns the number of steps the schedule spans.
func (l *Lambda) Total() int { return l.total }

// Cyclic is a triangular schedule rising from lrMin to lrMax over the first
// half of training and falling back over the second half.
type Cyclic struct {
	min, max float64
	up, down float64
	total    int
}

// NewCyclic builds a single-cycle triangular schedule.
func NewCyclic(lrMin, lrMax float64, totalSteps int) (*Cyclic, error) {
	if totalSteps <= 0 {
		return nil, ErrNoSteps
	}
	if lrMin > lrMax {
		return nil, fmt.Errorf("lr_min %g exceeds lr_max %g", lrMin, lrMax)
	}
	half := float64(totalSteps) / 2
	return &Cyclic{min: lrMin, max: lrMax, up: half, down: half, total: totalSteps}, nil
}

// At returns the effective learning rate at step.
func (c *Cyclic) At(step int) float64 {
	size := c.up + c.down
	ratio := c.up / size
	cycle := math.Floor(1 + float64(step)/size)
	x := 1 + float64(step)/size - cycle

	var scale float64
	if x <= ratio {
		scale = x / ratio
	} else {
		scale = (x - 1) / (ratio - 1)
	}
	return c.min + (c.max-c.min)*scale
}

// Total returns the number of steps the schedule spans.
func (c *Cyclic) Total() int { return c.total }

// Point is one sampled (step, learning rate) pair.
type Point struct {
	Step int     `json:"step" yaml:"step"`
	LR   float64 `json:"lr" yaml:"lr"`
}

// Table samples s at points evenly spaced steps, always including the first
// and the last step.
func Table(s Schedule, points int) []Point {
	total := s.Total()
	if points < 2 {
		points = 2
	}
	if points > total+1 {
		points = total + 1
	}

	out := make([]Point, 0, points)
	last := -1
	for i := 0; i < points; i++ {
		step := i * total / (points - 1)
		if step == last {
			continue
		}
		last = step
		out = append(out, Point{Step: step, LR: s.At(step)})
	}
	return out
}

// EpochEnds samples s at the end of every epoch, the rate a training log
// reports per epoch.
func EpochEnds(s Schedule, stepsPerEpoch int) []Point {
	if stepsPerEpoch <= 0 {
		return nil
	}
	epochs := s.Total() / stepsPerEpoch
	out := make([]Point, 0, epochs)
	for e := 1; e <= epochs; e++ {
		step := e * stepsPerEpoch
		out = append(out, Point{Step: step, LR: s.At(step)})
	}
	return out
}
