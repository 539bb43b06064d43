// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// mergeFileConfig overlays the keys the document sets onto exp.
func mergeFileConfig(exp *Experiment, src *FileConfig) {
	if src == nil {
		return
	}
	setPtr(&exp.Dataset, src.Dataset)
	setPtr(&exp.DataDir, src.DataDir)
	setPtr(&exp.ClassifierName, src.ClassifierName)
	setPtr(&exp.Device, src.Device)
	setPtr(&exp.Act, src.Act)

	setPtr(&exp.LRMin, src.LRMin)
	setPtr(&exp.LRMax, src.LRMax)
	setPtr(&exp.LearningRate, src.LearningRate)
	setPtr(&exp.Momentum, src.Momentum)
	setPtr(&exp.WeightDecay, src.WeightDecay)

	setPtr(&exp.Epsilon, src.Epsilon)
	setPtr(&exp.EpsilonIter, src.EpsilonIter)
	setPtr(&exp.PGDEpsilonIter, src.PGDEpsilonIter)

	setPtr(&exp.NClasses, src.NClasses)
	setPtr(&exp.NBatchTrain, src.NBatchTrain)
	setPtr(&exp.NBatchTest, src.NBatchTest)
	setPtr(&exp.NEpochs, src.NEpochs)
	setPtr(&exp.Seed, src.Seed)

	setPtr(&exp.EarlyStop, src.EarlyStop)
	setPtr(&exp.Inference, src.Inference)

	if src.Hydra != nil {
		if src.Hydra.Run != nil {
			setPtr(&exp.Hydra.Run.Dir, src.Hydra.Run.Dir)
		}
		if src.Hydra.JobLogging != nil {
			mergeJobLogging(&exp.Hydra.JobLogging, src.Hydra.JobLogging)
		}
	}
}

// mergeJobLogging merges named formatters and handlers field by field so a
// document can, for example, only rename the log file.
func mergeJobLogging(dst *JobLogging, src *JobLoggingFileConfig) {
	if src.Version != 0 {
		dst.Version = src.Version
	}
	if len(src.Formatters) > 0 {
		merged := make(map[string]Formatter, len(dst.Formatters)+len(src.Formatters))
		for name, f := range dst.Formatters {
			merged[name] = f
		}
		for name, f := range src.Formatters {
			cur := merged[name]
			setString(&cur.Format, f.Format)
			setString(&cur.Datefmt, f.Datefmt)
			merged[name] = cur
		}
		dst.Formatters = merged
	}
	if len(src.Handlers) > 0 {
		merged := make(map[string]Handler, len(dst.Handlers)+len(src.Handlers))
		for name, h := range dst.Handlers {
			merged[name] = h
		}
		for name, h := range src.Handlers {
			cur := merged[name]
			setString(&cur.Class, h.Class)
			setString(&cur.Formatter, h.Formatter)
			setString(&cur.Filename, h.Filename)
			setString(&cur.Stream, h.Stream)
			setString(&cur.Level, h.Level)
			merged[name] = cur
		}
		dst.Handlers = merged
	}
	if src.Root != nil {
		setString(&dst.Root.Level, src.Root.Level)
		if src.Root.Handlers != nil {
			dst.Root.Handlers = append([]string(nil), src.Root.Handlers...)
		}
	}
	setPtr(&dst.DisableExistingLoggers, src.DisableExistingLoggers)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
