package experiment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lox/dealerbench/internal/analysis"
)

// Comparison is the battery's verdict on an experiment arm against its
// control.
type Comparison struct {
	RunID      string           `json:"run_id"`
	CreatedAt  time.Time        `json:"created_at"`
	Control    Summary          `json:"control"`
	Experiment Summary          `json:"experiment"`
	Report     *analysis.Report `json:"report"`
}

// Rejection names one test that rejected the null hypothesis.
type Rejection struct {
	Feature analysis.Feature `json:"feature"`
	Test    analysis.Kind    `json:"test"`
	PValue  float64          `json:"p_value"`
}

// Compare runs the battery over features (the core features when none are
// given). Starved arms are compared anyway; the caller decides whether the
// counts in the summaries are large enough to mean anything.
func Compare(control, experiment *Arm, opts analysis.Options, features ...analysis.Feature) (*Comparison, error) {
	if control == nil || experiment == nil {
		return nil, errors.New("compare requires two arms")
	}
	report, err := opts.Battery(control.Outcomes, experiment.Outcomes, features...)
	if err != nil {
		return nil, fmt.Errorf("battery failed: %w", err)
	}
	return &Comparison{
		RunID:      uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Control:    control.Summary(),
		Experiment: experiment.Summary(),
		Report:     report,
	}, nil
}

// Rejections lists every test that rejected, in report order.
func (c *Comparison) Rejections() []Rejection {
	var out []Rejection
	for _, fr := range c.Report.Features {
		for _, res := range fr.Results {
			if !res.Rejected() {
				continue
			}
			r := Rejection{Feature: fr.Feature, Test: res.Test}
			if res.PValue != nil {
				r.PValue = *res.PValue
			}
			out = append(out, r)
		}
	}
	return out
}
