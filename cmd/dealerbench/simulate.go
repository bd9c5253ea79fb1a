package main

import (
	"github.com/lox/dealerbench/cmd/dealerbench/shared"
)

type SimulateCmd struct {
	ArmFlags
	SourceFlags

	Name string `kong:"help='Arm name, also the record file name (defaults to the source name)'"`
}

func (c *SimulateCmd) Run(g *Globals) error {
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

	factory, err := c.SourceFlags.factory(cfg, engine)
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		name = c.SourceFlags.name()
	}
	arm, err := playArm(ctx, name, cfg.Experiment.Seed, cfg, factory, logger, engine)
	if err != nil {
		return err
	}

	logSummary(logger, arm.Summary())
	_, err = saveArm(cfg.Experiment.OutputDir, arm, logger)
	return err
}
