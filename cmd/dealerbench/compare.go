package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/dealerbench/internal/config"
	"github.com/lox/dealerbench/internal/experiment"
	"github.com/lox/dealerbench/internal/record"
	"github.com/rs/zerolog"
)

// ReportFlags control analysis overrides and report output.
type ReportFlags struct {
	Features     []string `kong:"help='Features to test (default dealer_hand, player_hand, dealer_hand_value, player_hand_value)'"`
	Alpha        float64  `kong:"help='Significance level (overrides config)'"`
	SampleSize   int      `kong:"help='Games used per arm; -1 uses every game'"`
	Format       string   `kong:"default='text',enum='text,json',help='Report format on stdout'"`
	Output       string   `kong:"type='path',help='Also write the report to this file'"`
	FailOnReject bool     `kong:"help='Exit non-zero when any test rejects the fair-dealer hypothesis'"`
}

func (f ReportFlags) apply(cfg *config.Config) error {
	if len(f.Features) > 0 {
		cfg.Analysis.Features = f.Features
	}
	if f.Alpha != 0 {
		cfg.Analysis.Alpha = f.Alpha
	}
	if f.SampleSize != 0 {
		cfg.Analysis.SampleSize = f.SampleSize
	}
	return cfg.Validate()
}

func (f ReportFlags) report(cfg *config.Config, control, exp *experiment.Arm, logger zerolog.Logger) error {
	features, err := cfg.AnalysisFeatures()
	if err != nil {
		return err
	}
	cmp, err := experiment.Compare(control, exp, cfg.AnalysisOptions(), features...)
	if err != nil {
		return err
	}

	format, err := experiment.ParseFormat(f.Format)
	if err != nil {
		return err
	}
	if err := cmp.Write(os.Stdout, format); err != nil {
		return err
	}

	output := f.Output
	if output == "" {
		output = filepath.Join(cfg.Experiment.OutputDir, "report-"+cmp.RunID+".json")
	}
	outFormat := experiment.FormatJSON
	if strings.HasSuffix(output, ".txt") {
		outFormat = experiment.FormatText
	}
	if err := cmp.Save(output, outFormat); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	rejections := cmp.Rejections()
	logger.Info().
		Str("run_id", cmp.RunID).
		Str("path", output).
		Int("rejections", len(rejections)).
		Msg("Comparison complete")

	if f.FailOnReject && len(rejections) > 0 {
		return fmt.Errorf("%d test(s) rejected the fair-dealer hypothesis", len(rejections))
	}
	return nil
}

type CompareCmd struct {
	ReportFlags

	Control    string `arg:"" type:"existingfile" help:"JSONL records of the control arm"`
	Experiment string `arg:"" type:"existingfile" help:"JSONL records of the experiment arm"`
}

func (c *CompareCmd) Run(g *Globals) error {
	logger := g.logger()

	cfg, err := g.load(logger)
	if err != nil {
		return err
	}
	if err := c.ReportFlags.apply(cfg); err != nil {
		return err
	}

	control, err := loadArm(c.Control)
	if err != nil {
		return err
	}
	exp, err := loadArm(c.Experiment)
	if err != nil {
		return err
	}
	return c.ReportFlags.report(cfg, control, exp, logger)
}

func loadArm(path string) (*experiment.Arm, error) {
	outcomes, err := record.Read(path)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return experiment.NewArm(name, outcomes), nil
}
