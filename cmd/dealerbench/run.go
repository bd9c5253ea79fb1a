package main

import (
	"github.com/lox/dealerbench/cmd/dealerbench/shared"
	"github.com/lox/dealerbench/internal/draw"
	"github.com/lox/dealerbench/internal/randutil"
)

type RunCmd struct {
	ArmFlags
	SourceFlags
	ReportFlags
}

func (c *RunCmd) Run(g *Globals) error {
	logger := g.logger()
	engine := g.engineLogger()

	ctx, cancel := shared.SetupSignalHandlerWithLogger(logger)
	defer cancel()

	cfg, err := g.load(logger)
	if err != nil {
		return err
	}
	if err := c.ArmFlags.apply(cfg); err != nil {
		return err
	}
	if err := c.ReportFlags.apply(cfg); err != nil {
		return err
	}

	factory, err := c.SourceFlags.factory(cfg, engine)
	if err != nil {
		return err
	}

	// Both arms derive from one logged seed so the pair can be replayed.
	seed := randutil.Seed(cfg.Experiment.Seed)
	logger.Info().Int64("seed", seed).Str("source", c.SourceFlags.Source).Msg("Starting run")

	control, err := playArm(ctx, "control", randutil.Derive(seed, 0), cfg, draw.UniformFactory(), logger, engine)
	if err != nil {
		return err
	}
	exp, err := playArm(ctx, c.SourceFlags.name(), randutil.Derive(seed, 1), cfg, factory, logger, engine)
	if err != nil {
		return err
	}

	if _, err := saveArm(cfg.Experiment.OutputDir, control, logger); err != nil {
		return err
	}
	if _, err := saveArm(cfg.Experiment.OutputDir, exp, logger); err != nil {
		return err
	}
	logSummary(logger, control.Summary())
	logSummary(logger, exp.Summary())

	return c.ReportFlags.report(cfg, control, exp, logger)
}
