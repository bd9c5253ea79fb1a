// Package analysis compares two samples of game outcomes.
//
// Each routine takes the raw records of a control and an experiment arm plus
// a Feature, caps both arms to Options.SampleSize games, builds aligned histograms
// and computes one statistic. The routines are pure and safe for concurrent
// use: nothing is shared and inputs are never modified.
//
// The tests are deliberately applied to histogram bins, not to per-game
// observations: KS and Anderson-Darling compare the two frequency profiles
// as samples of bin values.
package analysis

import (
	"fmt"

	"github.com/lox/dealerbench/internal/game"
	"golang.org/x/sync/errgroup"
)

// FeatureReport holds every statistic computed for one feature. A routine
// that cannot run (Anderson-Darling on degenerate input) is listed in Errors
// instead of failing the whole feature.
type FeatureReport struct {
	Feature Feature         `json:"feature"`
	Results []Result        `json:"results"`
	Errors  map[Kind]string `json:"errors,omitempty"`
}

// Result returns the result of kind, if it was computed.
func (r FeatureReport) Result(kind Kind) (Result, bool) {
	for _, res := range r.Results {
		if res.Test == kind {
			return res, true
		}
	}
	return Result{}, false
}

// Report is the battery's output over several features. Sizes count
// records (one per seat); Games count games after the cap.
type Report struct {
	Options         Options         `json:"options"`
	ControlSize     int             `json:"control_size"`
	ExperimentSize  int             `json:"experiment_size"`
	ControlGames    int             `json:"control_games"`
	ExperimentGames int             `json:"experiment_games"`
	Features        []FeatureReport `json:"features"`
}

// Feature returns the report for f, if present.
func (r *Report) Feature(f Feature) (FeatureReport, bool) {
	for _, fr := range r.Features {
		if fr.Feature == f {
			return fr, true
		}
	}
	return FeatureReport{}, false
}

type routine func(o Options, control, experiment []game.Outcome, f Feature) (Result, error)

var routines = []struct {
	kind Kind
	run  routine
}{
	{KindKL, Options.KL},
	{KindJensenShannon, Options.JensenShannon},
	{KindChiSquared, Options.ChiSquared},
	{KindKS, Options.KolmogorovSmirnov},
	{KindAndersonDarling, Options.AndersonDarling},
}

// Battery runs all five statistics for each feature, concurrently across
// features. With no features it uses CoreFeatures.
func (o Options) Battery(control, experiment []game.Outcome, features ...Feature) (*Report, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		features = CoreFeatures()
	}
	for _, f := range features {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, string(f))
		}
	}

	cappedControl, cappedExperiment := o.Cap(control), o.Cap(experiment)
	report := &Report{
		Options:         o,
		ControlSize:     len(cappedControl),
		ExperimentSize:  len(cappedExperiment),
		ControlGames:    len(game.Games(cappedControl)),
		ExperimentGames: len(game.Games(cappedExperiment)),
		Features:        make([]FeatureReport, len(features)),
	}

	var g errgroup.Group
	for i, f := range features {
		g.Go(func() error {
			fr := FeatureReport{Feature: f}
			for _, r := range routines {
				res, err := r.run(o, control, experiment, f)
				if err != nil {
					if fr.Errors == nil {
						fr.Errors = make(map[Kind]string)
					}
					fr.Errors[r.kind] = err.Error()
					continue
				}
				fr.Results = append(fr.Results, res)
			}
			report.Features[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// KL computes Options.KL with DefaultOptions.
func KL(control, experiment []game.Outcome, f Feature) (Result, error) {
	return DefaultOptions().KL(control, experiment, f)
}

// JensenShannon computes Options.JensenShannon with DefaultOptions.
func JensenShannon(control, experiment []game.Outcome, f Feature) (Result, error) {
	return DefaultOptions().JensenShannon(control, experiment, f)
}

// ChiSquared computes Options.ChiSquared with DefaultOptions.
func ChiSquared(control, experiment []game.Outcome, f Feature) (Result, error) {
	return DefaultOptions().ChiSquared(control, experiment, f)
}

// KolmogorovSmirnov computes Options.KolmogorovSmirnov with DefaultOptions.
func KolmogorovSmirnov(control, experiment []game.Outcome, f Feature) (Result, error) {
	return DefaultOptions().KolmogorovSmirnov(control, experiment, f)
}

// AndersonDarling computes Options.AndersonDarling with DefaultOptions.
func AndersonDarling(control, experiment []game.Outcome, f Feature) (Result, error) {
	return DefaultOptions().AndersonDarling(control, experiment, f)
}

// Battery computes Options.Battery with DefaultOptions.
func Battery(control, experiment []game.Outcome, features ...Feature) (*Report, error) {
	return DefaultOptions().Battery(control, experiment, features...)
}
