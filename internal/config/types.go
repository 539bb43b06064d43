// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "github.com/ManuGH/advexp/internal/fraction"

// FileConfig represents the YAML experiment document. Pointer fields
// distinguish "absent" from the zero value so defaults survive partial files.
type FileConfig struct {
	Dataset        *string            `yaml:"dataset,omitempty"`
	DataDir        *string            `yaml:"data_dir,omitempty"`
	ClassifierName *string            `yaml:"classifier_name,omitempty"`
	LRMin          *float64           `yaml:"lr_min,omitempty"`
	LRMax          *float64           `yaml:"lr_max,omitempty"`
	LearningRate   *float64           `yaml:"learning_rate,omitempty"`
	Momentum       *float64           `yaml:"momentum,omitempty"`
	WeightDecay    *float64           `yaml:"weight_decay,omitempty"`
	Epsilon        *fraction.Fraction `yaml:"epsilon,omitempty"`
	EpsilonIter    *fraction.Fraction `yaml:"epsilon_iter,omitempty"`
	PGDEpsilonIter *fraction.Fraction `yaml:"pgd_epsilon_iter,omitempty"`
	NClasses       *int               `yaml:"n_classes,omitempty"`
	NBatchTrain    *int               `yaml:"n_batch_train,omitempty"`
	NBatchTest     *int               `yaml:"n_batch_test,omitempty"`
	NEpochs        *int               `yaml:"n_epochs,omitempty"`
	EarlyStop      *bool              `yaml:"early_stop,omitempty"`
	Seed           *int               `yaml:"seed,omitempty"`
	Device         *string            `yaml:"device,omitempty"`
	Act            *string            `yaml:"act,omitempty"`
	Inference      *bool              `yaml:"inference,omitempty"`
	Hydra          *HydraFileConfig   `yaml:"hydra,omitempty"`
}

// HydraFileConfig is the run-directory and logging section of the document.
type HydraFileConfig struct {
	Run        *HydraRunFileConfig   `yaml:"run,omitempty"`
	JobLogging *JobLoggingFileConfig `yaml:"job_logging,omitempty"`
}

// HydraRunFileConfig holds the run output directory pattern.
type HydraRunFileConfig struct {
	Dir *string `yaml:"dir,omitempty"`
}

// JobLoggingFileConfig is a partial python-logging dictConfig; set entries are
// merged over the default job logging.
type JobLoggingFileConfig struct {
	Version                int                  `yaml:"version,omitempty"`
	Formatters             map[string]Formatter `yaml:"formatters,omitempty"`
	Handlers               map[string]Handler   `yaml:"handlers,omitempty"`
	Root                   *RootLogger          `yaml:"root,omitempty"`
	DisableExistingLoggers *bool                `yaml:"disable_existing_loggers,omitempty"`
}

// Experiment is the effective, validated experiment configuration.
type Experiment struct {
	Dataset        string            `yaml:"dataset" json:"dataset" validate:"required"`
	DataDir        string            `yaml:"data_dir" json:"data_dir" validate:"required"`
	ClassifierName string            `yaml:"classifier_name" json:"classifier_name" validate:"required"`
	LRMin          float64           `yaml:"lr_min" json:"lr_min" validate:"gte=0"`
	LRMax          float64           `yaml:"lr_max" json:"lr_max" validate:"gtefield=LRMin"`
	LearningRate   float64           `yaml:"learning_rate" json:"learning_rate" validate:"gt=0"`
	Momentum       float64           `yaml:"momentum" json:"momentum" validate:"gte=0,lt=1"`
	WeightDecay    float64           `yaml:"weight_decay" json:"weight_decay" validate:"gte=0"`
	Epsilon        fraction.Fraction `yaml:"epsilon" json:"epsilon"`
	EpsilonIter    fraction.Fraction `yaml:"epsilon_iter" json:"epsilon_iter"`
	PGDEpsilonIter fraction.Fraction `yaml:"pgd_epsilon_iter" json:"pgd_epsilon_iter"`
	NClasses       int               `yaml:"n_classes" json:"n_classes" validate:"gte=2"`
	NBatchTrain    int               `yaml:"n_batch_train" json:"n_batch_train" validate:"gt=0"`
	NBatchTest     int               `yaml:"n_batch_test" json:"n_batch_test" validate:"gt=0"`
	NEpochs        int               `yaml:"n_epochs" json:"n_epochs" validate:"gt=0"`
	EarlyStop      bool              `yaml:"early_stop" json:"early_stop"`
	Seed           int               `yaml:"seed" json:"seed" validate:"gte=0"`
	Device         string            `yaml:"device" json:"device" validate:"required"`
	Act            string            `yaml:"act" json:"act" validate:"oneof=relu swish"`
	Inference      bool              `yaml:"inference" json:"inference"`
	Hydra          Hydra             `yaml:"hydra" json:"hydra"`
}

// Hydra is the effective run-directory and logging section.
type Hydra struct {
	Run        HydraRun   `yaml:"run" json:"run"`
	JobLogging JobLogging `yaml:"job_logging" json:"job_logging"`
}

// HydraRun holds the run directory pattern; ${...} references are resolved
// when a run is prepared, not at load time.
type HydraRun struct {
	Dir string `yaml:"dir" json:"dir" validate:"required"`
}

// JobLogging is a python-logging dictConfig describing the run's log outputs.
type JobLogging struct {
	Version                int                  `yaml:"version" json:"version"`
	Formatters             map[string]Formatter `yaml:"formatters" json:"formatters"`
	Handlers               map[string]Handler   `yaml:"handlers" json:"handlers"`
	Root                   RootLogger           `yaml:"root" json:"root"`
	DisableExistingLoggers bool                 `yaml:"disable_existing_loggers" json:"disable_existing_loggers"`
}

// Formatter is a named log line format.
type Formatter struct {
	Format  string `yaml:"format,omitempty" json:"format,omitempty"`
	Datefmt string `yaml:"datefmt,omitempty" json:"datefmt,omitempty"`
}

// Handler is a named log output. Handlers with a Filename write to a file.
type Handler struct {
	Class     string `yaml:"class,omitempty" json:"class,omitempty"`
	Formatter string `yaml:"formatter,omitempty" json:"formatter,omitempty"`
	Filename  string `yaml:"filename,omitempty" json:"filename,omitempty"`
	Stream    string `yaml:"stream,omitempty" json:"stream,omitempty"`
	Level     string `yaml:"level,omitempty" json:"level,omitempty"`
}

// RootLogger selects the root level and the handlers attached to it.
type RootLogger struct {
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`
	Handlers []string `yaml:"handlers,omitempty" json:"handlers,omitempty"`
}

// TotalSteps returns the number of optimizer steps for trainSize samples.
func (e Experiment) TotalSteps(trainSize int) int {
	if e.NBatchTrain <= 0 || trainSize <= 0 {
		return 0
	}
	perEpoch := (trainSize + e.NBatchTrain - 1) / e.NBatchTrain
	return perEpoch * e.NEpochs
}

// CheckpointName is the file name the training program saves weights under.
func (e Experiment) CheckpointName() string {
	return e.ClassifierName + "_at.pth"
}
