// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package dataset holds the image datasets an experiment can name together with
// the normalization constants their budgets are scaled by.
package dataset

import (
	"sort"
	"strings"
)

// Info describes a dataset as the training program sees it after
// per-channel normalization.
type Info struct {
	Name      string
	Classes   int
	Channels  int
	ImageSize int
	TrainSize int
	TestSize  int
	Mean      []float64
	Std       []float64
}

var known = map[string]Info{
	"cifar10": {
		Name:      "cifar10",
		TrainSize: 50000,
		TestSize:  10000,
		Classes:   10,
		Channels:  3,
		ImageSize: 32,
		Mean:      []float64{0.4914, 0.4822, 0.4465},
		Std:       []float64{0.2471, 0.2435, 0.2616},
	},
	"cifar100": {
		Name:      "cifar100",
		TrainSize: 50000,
		TestSize:  10000,
		Classes:   100,
		Channels:  3,
		ImageSize: 32,
		Mean:      []float64{0.5071, 0.4865, 0.4409},
		Std:       []float64{0.2673, 0.2564, 0.2762},
	},
	"svhn": {
		Name:      "svhn",
		TrainSize: 73257,
		TestSize:  26032,
		Classes:   10,
		Channels:  3,
		ImageSize: 32,
		Mean:      []float64{0.4377, 0.4438, 0.4728},
		Std:       []float64{0.1980, 0.2010, 0.1970},
	},
	"mnist": {
		Name:      "mnist",
		TrainSize: 60000,
		TestSize:  10000,
		Classes:   10,
		Channels:  1,
		ImageSize: 28,
		Mean:      []float64{0.1307},
		Std:       []float64{0.3081},
	},
}

// Lookup finds a dataset by name, ignoring case and surrounding whitespace.
func Lookup(name string) (Info, bool) {
	info, ok := known[strings.ToLower(strings.TrimSpace(name))]
	return info, ok
}

// Names lists the known dataset names in sorted order.
func Names() []string {
	out := make([]string, 0, len(known))
	for name := range known {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ClipBounds returns the per-channel limits of a valid image in normalized
// space: (0-mean)/std and (1-mean)/std.
func (i Info) ClipBounds() (lower, upper []float64) {
	lower = make([]float64, i.Channels)
	upper = make([]float64, i.Channels)
	for c := 0; c < i.Channels; c++ {
		lower[c] = (0 - i.Mean[c]) / i.Std[c]
		upper[c] = (1 - i.Mean[c]) / i.Std[c]
	}
	return lower, upper
}

// Scale divides v by each channel's std, mapping a pixel-space budget into
// normalized space.
func (i Info) Scale(v float64) []float64 {
	out := make([]float64, i.Channels)
	for c := 0; c < i.Channels; c++ {
		out[c] = v / i.Std[c]
	}
	return out
}
