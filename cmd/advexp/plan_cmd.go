// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ManuGH/advexp/internal/budget"
	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/dataset"
	"github.com/ManuGH/advexp/internal/device"
	"github.com/ManuGH/advexp/internal/schedule"
	"github.com/ManuGH/advexp/internal/version"
)

// plan is everything derived from an experiment before training starts.
type plan struct {
	Dataset       string            `json:"dataset"`
	Classifier    string            `json:"classifier"`
	StepsPerEpoch int               `json:"steps_per_epoch"`
	TotalSteps    int               `json:"total_steps"`
	Schedule      string            `json:"schedule"`
	Budget        budget.Budget     `json:"budget"`
	Device        device.Resolution `json:"device"`
	Checkpoint    string            `json:"checkpoint"`
	LR            []schedule.Point  `json:"lr"`
}

func (c *cli) runPlan(args []string) int {
	fs := flag.NewFlagSet("advexp plan", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var (
		file          string
		stepsPerEpoch int
		points        int
		kind          string
		format        string
	)
	fs.StringVar(&file, "file", "", "path to YAML experiment document")
	fs.StringVar(&file, "f", "", "path to YAML experiment document (shorthand)")
	fs.IntVar(&stepsPerEpoch, "steps-per-epoch", 0, "optimizer steps per epoch (0: derive from dataset size)")
	fs.IntVar(&points, "points", 11, "number of learning-rate samples")
	fs.StringVar(&kind, "schedule", "lambda", "learning-rate schedule: lambda, cyclic or epochs")
	fs.StringVar(&format, "format", "text", "output format: text or json")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if stepsPerEpoch < 0 || points < 2 {
		fmt.Fprintln(c.stderr, "Error: --steps-per-epoch must be >= 0 and --points >= 2")
		return 2
	}

	path := strings.TrimSpace(file)
	exp, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		c.reportInvalid(displayPath(path), err)
		return 1
	}

	p, err := buildPlan(exp, stepsPerEpoch, points, kind)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return 1
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return 1
		}
	case "text", "":
		writePlan(c.stdout, p)
	default:
		fmt.Fprintf(c.stderr, "Error: unsupported format %q\n", format)
		return 2
	}
	return 0
}

func buildPlan(exp config.Experiment, stepsPerEpoch, points int, kind string) (plan, error) {
	b, err := budget.Derive(exp)
	if err != nil {
		return plan{}, err
	}
	if stepsPerEpoch == 0 {
		info, _ := dataset.Lookup(exp.Dataset)
		stepsPerEpoch = exp.TotalSteps(info.TrainSize) / exp.NEpochs
	}
	total := stepsPerEpoch * exp.NEpochs

	p := plan{
		Dataset:       exp.Dataset,
		Classifier:    exp.ClassifierName,
		StepsPerEpoch: stepsPerEpoch,
		TotalSteps:    total,
		Schedule:      kind,
		Budget:        b,
		Device:        device.Resolve(exp.Device),
		Checkpoint:    exp.CheckpointName(),
	}

	switch kind {
	case "lambda":
		s, err := schedule.NewLambda(exp.LearningRate, total)
		if err != nil {
			return plan{}, err
		}
		p.LR = schedule.Table(s, points)
	case "cyclic":
		s, err := schedule.NewCyclic(exp.LRMin, exp.LRMax, total)
		if err != nil {
			return plan{}, err
		}
		p.LR = schedule.Table(s, points)
	case "epochs":
		s, err := schedule.NewLambda(exp.LearningRate, total)
		if err != nil {
			return plan{}, err
		}
		p.LR = schedule.EpochEnds(s, stepsPerEpoch)
	default:
		return plan{}, fmt.Errorf("unknown schedule %q (lambda, cyclic or epochs)", kind)
	}
	return p, nil
}

func writePlan(w io.Writer, p plan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "dataset\t%s\n", p.Dataset)
	fmt.Fprintf(tw, "classifier\t%s\n", p.Classifier)
	fmt.Fprintf(tw, "checkpoint\t%s\n", p.Checkpoint)
	fmt.Fprintf(tw, "device\t%s\n", deviceLine(p.Device))
	fmt.Fprintf(tw, "steps\t%d per epoch, %d total\n", p.StepsPerEpoch, p.TotalSteps)
	fmt.Fprintf(tw, "epsilon\t%s = %.6g\t%s\n", p.Budget.Epsilon.Expr, p.Budget.Epsilon.Value, floats(p.Budget.Epsilon.PerChannel))
	fmt.Fprintf(tw, "epsilon_iter\t%s = %.6g\t%s\n", p.Budget.EpsilonIter.Expr, p.Budget.EpsilonIter.Value, floats(p.Budget.EpsilonIter.PerChannel))
	fmt.Fprintf(tw, "pgd_epsilon_iter\t%s = %.6g\t%s\n", p.Budget.PGDStep.Expr, p.Budget.PGDStep.Value, floats(p.Budget.PGDStep.PerChannel))
	fmt.Fprintf(tw, "step/budget\t%.4g\n", p.Budget.Ratio())
	fmt.Fprintf(tw, "pgd\t%d iterations, %d restarts\n", p.Budget.PGD.Iterations, p.Budget.PGD.Restarts)
	fmt.Fprintf(tw, "input range\t%s .. %s\n", floats(p.Budget.Lower), floats(p.Budget.Upper))
	_ = tw.Flush()

	fmt.Fprintf(w, "\n%s learning rate:\n", p.Schedule)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "step\tlr\t")
	for _, pt := range p.LR {
		fmt.Fprintf(tw, "%d\t%.6g\t\n", pt.Step, pt.LR)
	}
	_ = tw.Flush()
}

func deviceLine(r device.Resolution) string {
	if !r.Fallback() {
		return r.Effective
	}
	return fmt.Sprintf("%s (requested %s: %s)", r.Effective, r.Requested, r.Reason)
}

func floats(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%.4g", f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
