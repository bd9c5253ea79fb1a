package analysis

import (
	"math"
	"slices"

	"github.com/lox/dealerbench/internal/game"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// KL returns the Kullback-Leibler divergence Σ p·ln(p/q) of the experiment
// (q) from the control (p) over the aligned, normalized, floored
// distributions.
func (o Options) KL(control, experiment []game.Outcome, f Feature) (Result, error) {
	p, q, err := o.prepare(control, experiment, f, true)
	if err != nil {
		return Result{}, err
	}
	var kl float64
	if p.Len() > 0 {
		kl = math.Max(0, stat.KullbackLeibler(p.Values, q.Values))
	}
	return Result{Test: KindKL, Feature: f, Statistic: kl, Labels: p.Len()}, nil
}

// JensenShannon returns the Jensen-Shannon distance: the square root of the
// base-2 JS divergence, so the result is symmetric and bounded in [0, 1].
func (o Options) JensenShannon(control, experiment []game.Outcome, f Feature) (Result, error) {
	p, q, err := o.prepare(control, experiment, f, true)
	if err != nil {
		return Result{}, err
	}
	var dist float64
	if p.Len() > 0 {
		p, q = p.Normalized(), q.Normalized()
		divergence := stat.JensenShannon(p.Values, q.Values) / math.Ln2
		dist = math.Sqrt(math.Min(1, math.Max(0, divergence)))
	}
	return Result{Test: KindJensenShannon, Feature: f, Statistic: dist, Labels: p.Len()}, nil
}

// ChiSquared runs a goodness-of-fit test of the experiment's counts against
// the control's over the aligned raw counts, with the experiment rescaled to
// the control's total. Degrees of freedom are the label count minus one.
func (o Options) ChiSquared(control, experiment []game.Outcome, f Feature) (Result, error) {
	expected, observed, err := o.prepare(control, experiment, f, false)
	if err != nil {
		return Result{}, err
	}
	return o.chiSquared(expected, observed, f), nil
}

func (o Options) chiSquared(expected, observed Distribution, f Feature) Result {
	k := expected.Len()
	res := Result{Test: KindChiSquared, Feature: f, Labels: k}
	if k < 2 {
		// A single category cannot differ.
		res.PValue = ptr(1.0)
		res.CriticalValue = ptr(0.0)
		res.RejectNull = ptr(false)
		return res
	}

	statistic := stat.ChiSquare(observed.Values, expected.Values)
	dist := distuv.ChiSquared{K: float64(k - 1)}
	critical := dist.Quantile(1 - o.Alpha)

	res.Statistic = statistic
	res.PValue = ptr(dist.Survival(statistic))
	res.CriticalValue = ptr(critical)
	res.RejectNull = ptr(statistic > critical)
	return res
}

// sortedValues returns a sorted copy of d's values.
func sortedValues(d Distribution) []float64 {
	out := slices.Clone(d.Values)
	slices.Sort(out)
	return out
}
