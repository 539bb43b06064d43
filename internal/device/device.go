// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package device resolves the compute device an experiment asks for against
// what the host offers.
package device

import (
	"os"
	"strings"
)

const (
	CPU  = "cpu"
	CUDA = "cuda"
)

// Probe reports whether a CUDA device is usable on this host.
type Probe func() bool

// Resolution records the requested device, the one that will be used, and why
// they differ.
type Resolution struct {
	Requested string `json:"requested" yaml:"requested"`
	Effective string `json:"effective" yaml:"effective"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Fallback reports whether the requested device was replaced.
func (r Resolution) Fallback() bool {
	return r.Requested != r.Effective
}

// HasCUDA checks for the NVIDIA control device and honours CUDA_VISIBLE_DEVICES.
func HasCUDA() bool {
	if v, ok := os.LookupEnv("CUDA_VISIBLE_DEVICES"); ok {
		v = strings.TrimSpace(v)
		if v == "" || v == "-1" {
			return false
		}
	}
	if _, err := os.Stat("/dev/nvidiactl"); err == nil {
		return true
	}
	return false
}

// Resolve maps requested onto an available device using HasCUDA.
func Resolve(requested string) Resolution {
	return ResolveWith(requested, HasCUDA)
}

// ResolveWith is Resolve with an injectable probe.
func ResolveWith(requested string, probe Probe) Resolution {
	req := strings.ToLower(strings.TrimSpace(requested))
	res := Resolution{Requested: req, Effective: req}

	if IsCUDA(req) && !probe() {
		res.Effective = CPU
		res.Reason = "no CUDA device visible"
	}
	return res
}

// IsCUDA reports whether name selects a CUDA device ("cuda" or "cuda:N").
func IsCUDA(name string) bool {
	return name == CUDA || strings.HasPrefix(name, CUDA+":")
}
