// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// mergeEnvConfig merges ADVEXP_* environment variables into exp.
// ENV variables have the highest precedence.
func (l *Loader) mergeEnvConfig(exp *Experiment) {
	l.mergeEnvData(exp)
	l.mergeEnvOptimizer(exp)
	l.mergeEnvBudget(exp)
	l.mergeEnvTraining(exp)
	l.mergeEnvRuntime(exp)
}

func (l *Loader) mergeEnvData(exp *Experiment) {
	exp.Dataset = l.envString(EnvName("dataset"), exp.Dataset)
	exp.DataDir = l.envString(EnvName("data_dir"), exp.DataDir)
	exp.ClassifierName = l.envString(EnvName("classifier_name"), exp.ClassifierName)
	exp.NClasses = l.envInt(EnvName("n_classes"), exp.NClasses)
}

func (l *Loader) mergeEnvOptimizer(exp *Experiment) {
	exp.LRMin = l.envFloat(EnvName("lr_min"), exp.LRMin)
	exp.LRMax = l.envFloat(EnvName("lr_max"), exp.LRMax)
	exp.LearningRate = l.envFloat(EnvName("learning_rate"), exp.LearningRate)
	exp.Momentum = l.envFloat(EnvName("momentum"), exp.Momentum)
	exp.WeightDecay = l.envFloat(EnvName("weight_decay"), exp.WeightDecay)
}

func (l *Loader) mergeEnvBudget(exp *Experiment) {
	exp.Epsilon = l.envFraction(EnvName("epsilon"), exp.Epsilon)
	exp.EpsilonIter = l.envFraction(EnvName("epsilon_iter"), exp.EpsilonIter)
	exp.PGDEpsilonIter = l.envFraction(EnvName("pgd_epsilon_iter"), exp.PGDEpsilonIter)
}

func (l *Loader) mergeEnvTraining(exp *Experiment) {
	exp.NBatchTrain = l.envInt(EnvName("n_batch_train"), exp.NBatchTrain)
	exp.NBatchTest = l.envInt(EnvName("n_batch_test"), exp.NBatchTest)
	exp.NEpochs = l.envInt(EnvName("n_epochs"), exp.NEpochs)
	exp.EarlyStop = l.envBool(EnvName("early_stop"), exp.EarlyStop)
	exp.Seed = l.envInt(EnvName("seed"), exp.Seed)
	exp.Act = l.envString(EnvName("act"), exp.Act)
	exp.Inference = l.envBool(EnvName("inference"), exp.Inference)
}

func (l *Loader) mergeEnvRuntime(exp *Experiment) {
	exp.Device = l.envString(EnvName("device"), exp.Device)
	exp.Hydra.Run.Dir = l.envString(EnvName("hydra.run.dir"), exp.Hydra.Run.Dir)
}
