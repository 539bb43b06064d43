// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "github.com/ManuGH/advexp/internal/fraction"

// DefaultRunDir is the run directory pattern used when the document sets none.
const DefaultRunDir = "outputs/${now:%Y-%m-%d}/${now:%H-%M-%S}"

// DefaultExperiment returns the baseline fast-FGSM adversarial training setup
// on CIFAR-10 with a pre-activation ResNet-18.
func DefaultExperiment() Experiment {
	return Experiment{
		Dataset:        "cifar10",
		DataDir:        "data",
		ClassifierName: "preact_resnet18",
		LRMin:          0,
		LRMax:          0.2,
		LearningRate:   0.1,
		Momentum:       0.9,
		WeightDecay:    5e-4,
		Epsilon:        fraction.MustParse("8/255"),
		EpsilonIter:    fraction.MustParse("10/255"),
		PGDEpsilonIter: fraction.MustParse("2/255"),
		NClasses:       10,
		NBatchTrain:    128,
		NBatchTest:     256,
		NEpochs:        30,
		EarlyStop:      false,
		Seed:           0,
		Device:         "cuda",
		Act:            "relu",
		Inference:      false,
		Hydra: Hydra{
			Run:        HydraRun{Dir: DefaultRunDir},
			JobLogging: DefaultJobLogging(),
		},
	}
}

// DefaultJobLogging mirrors the usual job logging: a console handler and a
// per-job log file, both at INFO.
func DefaultJobLogging() JobLogging {
	return JobLogging{
		Version: 1,
		Formatters: map[string]Formatter{
			"simple": {Format: "[%(asctime)s][%(name)s][%(levelname)s] - %(message)s"},
		},
		Handlers: map[string]Handler{
			"console": {
				Class:     "logging.StreamHandler",
				Formatter: "simple",
				Stream:    "ext://sys.stdout",
			},
			"file": {
				Class:     "logging.FileHandler",
				Formatter: "simple",
				Filename:  "${hydra.job.name}.log",
			},
		},
		Root: RootLogger{
			Level:    "INFO",
			Handlers: []string{"console", "file"},
		},
		DisableExistingLoggers: false,
	}
}
