// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"strings"
)

const jobLoggingPath = "hydra.job_logging"

// Kind is the value type of a document key.
type Kind string

const (
	KindString   Kind = "string"
	KindFloat    Kind = "float"
	KindInt      Kind = "int"
	KindBool     Kind = "bool"
	KindFraction Kind = "fraction"
	KindMapping  Kind = "mapping"
)

// Entry describes one document key.
type Entry struct {
	Path        string // dotted key path as written in the document
	Env         string // environment override; empty when the key has none
	Kind        Kind
	Description string
	// AffectsOutcome is false for keys that only move files or logs around.
	AffectsOutcome bool

	get func(Experiment) any
}

// Value reads the entry's effective value from exp.
func (e Entry) Value(exp Experiment) any {
	return e.get(exp)
}

func entry(path string, kind Kind, outcome bool, desc string, get func(Experiment) any) Entry {
	env := EnvName(path)
	if kind == KindMapping {
		env = ""
	}
	return Entry{Path: path, Env: env, Kind: kind, Description: desc, AffectsOutcome: outcome, get: get}
}

var registry = []Entry{
	entry("dataset", KindString, true, "dataset to train/evaluate on",
		func(e Experiment) any { return e.Dataset }),
	entry("data_dir", KindString, false, "filesystem path to dataset storage",
		func(e Experiment) any { return e.DataDir }),
	entry("classifier_name", KindString, true, "model architecture identifier",
		func(e Experiment) any { return e.ClassifierName }),
	entry("lr_min", KindFloat, true, "lower learning-rate bound",
		func(e Experiment) any { return e.LRMin }),
	entry("lr_max", KindFloat, true, "upper learning-rate bound",
		func(e Experiment) any { return e.LRMax }),
	entry("learning_rate", KindFloat, true, "base optimizer learning rate",
		func(e Experiment) any { return e.LearningRate }),
	entry("momentum", KindFloat, true, "SGD momentum",
		func(e Experiment) any { return e.Momentum }),
	entry("weight_decay", KindFloat, true, "L2 weight decay",
		func(e Experiment) any { return e.WeightDecay }),
	entry("epsilon", KindFraction, true, "overall L-inf perturbation budget",
		func(e Experiment) any { return e.Epsilon }),
	entry("epsilon_iter", KindFraction, true, "training attack step size",
		func(e Experiment) any { return e.EpsilonIter }),
	entry("pgd_epsilon_iter", KindFraction, true, "evaluation PGD step size",
		func(e Experiment) any { return e.PGDEpsilonIter }),
	entry("n_classes", KindInt, true, "number of output classes",
		func(e Experiment) any { return e.NClasses }),
	entry("n_batch_train", KindInt, true, "training batch size",
		func(e Experiment) any { return e.NBatchTrain }),
	entry("n_batch_test", KindInt, true, "evaluation batch size",
		func(e Experiment) any { return e.NBatchTest }),
	entry("n_epochs", KindInt, true, "training epochs",
		func(e Experiment) any { return e.NEpochs }),
	entry("early_stop", KindBool, true, "stop training early on a criterion",
		func(e Experiment) any { return e.EarlyStop }),
	entry("seed", KindInt, true, "random seed",
		func(e Experiment) any { return e.Seed }),
	entry("device", KindString, false, "compute device selector",
		func(e Experiment) any { return e.Device }),
	entry("act", KindString, true, "activation function",
		func(e Experiment) any { return e.Act }),
	entry("inference", KindBool, true, "load a checkpoint instead of training",
		func(e Experiment) any { return e.Inference }),
	entry("hydra.run.dir", KindString, false, "run output directory pattern",
		func(e Experiment) any { return e.Hydra.Run.Dir }),
	entry(jobLoggingPath, KindMapping, false, "job logging handlers",
		func(e Experiment) any { return e.Hydra.JobLogging }),
}

// Entries returns the document keys in document order.
func Entries() []Entry {
	out := make([]Entry, len(registry))
	copy(out, registry)
	return out
}

// LookupEntry finds the entry for a dotted key path.
func LookupEntry(path string) (Entry, bool) {
	for _, e := range registry {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

// FailingKeys maps the fields of a validation failure onto registry paths.
// Logging handler and formatter names are user chosen, so everything under
// hydra.job_logging collapses to that key.
func FailingKeys(err error) []string {
	var ve interface{ Fields() []string }
	if !errors.As(err, &ve) {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	for _, f := range ve.Fields() {
		key := f
		if _, ok := LookupEntry(f); !ok {
			key = jobLoggingPath
			if !strings.HasPrefix(f, jobLoggingPath) {
				key = "other"
			}
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// RequiredPaths lists every key a complete document must contain.
func RequiredPaths() []string {
	out := make([]string, len(registry))
	for i, e := range registry {
		out[i] = e.Path
	}
	return out
}
