package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/lox/dealerbench/internal/game"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateSample is returned by the Anderson-Darling test when the
// pooled samples hold fewer than two distinct values.
var ErrDegenerateSample = errors.New("anderson-darling needs at least two distinct pooled values")

// adLevels are the tabulated significance levels, largest first.
var adLevels = []float64{0.25, 0.10, 0.05, 0.025, 0.01, 0.005, 0.001}

// Interpolation coefficients for the critical values: b0 + b1/√m + b2/m.
var (
	adB0 = []float64{0.675, 1.281, 1.645, 1.96, 2.326, 2.573, 3.085}
	adB1 = []float64{-0.245, 0.25, 0.678, 1.149, 1.822, 2.364, 3.615}
	adB2 = []float64{-0.105, -0.305, -0.362, -0.391, -0.396, -0.345, -0.154}
)

// AndersonDarling runs the k-sample Anderson-Darling test (midrank form) on
// the aligned normalized values. The critical value comes from the smallest
// tabulated level not below Alpha; the p-value is interpolated from the table
// and clamped to [0.001, 0.25].
func (o Options) AndersonDarling(control, experiment []game.Outcome, f Feature) (Result, error) {
	p, q, err := o.prepare(control, experiment, f, true)
	if err != nil {
		return Result{}, err
	}

	statistic, critical, err := andersonKSamples(p.Values, q.Values)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", f, err)
	}

	level := adLevelIndex(o.Alpha)
	return Result{
		Test:          KindAndersonDarling,
		Feature:       f,
		Statistic:     statistic,
		PValue:        ptr(adPValue(statistic, critical)),
		CriticalValue: ptr(critical[level]),
		RejectNull:    ptr(statistic > critical[level]),
		Significance:  adLevels[level],
		Labels:        p.Len(),
	}, nil
}

// adLevelIndex picks the smallest table level ≥ alpha, or the largest level
// when alpha exceeds the table.
func adLevelIndex(alpha float64) int {
	for i := len(adLevels) - 1; i >= 0; i-- {
		if adLevels[i] >= alpha {
			return i
		}
	}
	return 0
}

// andersonKSamples returns the standardized k-sample statistic of Scholz and
// Stephens (1987), midrank version for data with ties, and the critical
// values for adLevels.
func andersonKSamples(samples ...[]float64) (float64, []float64, error) {
	k := len(samples)
	if k < 2 {
		return 0, nil, fmt.Errorf("need at least two samples, got %d", k)
	}

	var pooled []float64
	sorted := make([][]float64, k)
	for i, s := range samples {
		if len(s) == 0 {
			return 0, nil, fmt.Errorf("sample %d is empty", i)
		}
		sorted[i] = slices.Clone(s)
		slices.Sort(sorted[i])
		pooled = append(pooled, s...)
	}
	slices.Sort(pooled)
	distinct := slices.Compact(slices.Clone(pooled))
	if len(distinct) < 2 {
		return 0, nil, ErrDegenerateSample
	}

	n := float64(len(pooled))
	// lj is the multiplicity of each distinct value, bj its midrank.
	lj := make([]float64, len(distinct))
	bj := make([]float64, len(distinct))
	for j, z := range distinct {
		left := sort.SearchFloat64s(pooled, z)
		right := searchRight(pooled, z)
		lj[j] = float64(right - left)
		bj[j] = float64(left) + lj[j]/2
	}

	var a2kn float64
	for _, s := range sorted {
		ni := float64(len(s))
		var inner float64
		for j, z := range distinct {
			left := sort.SearchFloat64s(s, z)
			right := searchRight(s, z)
			mij := float64(right) - float64(right-left)/2
			num := n*mij - bj[j]*ni
			inner += lj[j] / n * num * num / (bj[j]*(n-bj[j]) - n*lj[j]/4)
		}
		a2kn += inner / ni
	}
	a2kn *= (n - 1) / n

	var hSum float64
	for _, s := range sorted {
		hSum += 1 / float64(len(s))
	}
	// h = Σ_{i=1}^{N-1} 1/i; g = Σ_{i=1}^{N-2} Σ_{j=i+1}^{N-1} 1/((N-i)j).
	var cum, g float64
	N := len(pooled)
	for idx, denom := 0, N-1; denom >= 2; idx, denom = idx+1, denom-1 {
		cum += 1 / float64(denom)
		g += cum / float64(idx+2)
	}
	h := cum + 1

	kf := float64(k)
	a := (4*g-6)*(kf-1) + (10-6*g)*hSum
	b := (2*g-4)*kf*kf + 8*h*kf + (2*g-14*h-4)*hSum - 8*h + 4*g - 6
	c := (6*h+2*g-2)*kf*kf + (4*h-4*g+6)*kf + (2*h-6)*hSum + 4*h
	d := (2*h+6)*kf*kf - 4*h*kf
	sigmaSq := (a*n*n*n + b*n*n + c*n + d) / ((n - 1) * (n - 2) * (n - 3))
	if N < 4 || sigmaSq <= 0 {
		return 0, nil, ErrDegenerateSample
	}

	m := kf - 1
	statistic := (a2kn - m) / math.Sqrt(sigmaSq)

	critical := make([]float64, len(adLevels))
	for i := range critical {
		critical[i] = adB0[i] + adB1[i]/math.Sqrt(m) + adB2[i]/m
	}
	return statistic, critical, nil
}

func searchRight(sorted []float64, v float64) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
}

// adPValue interpolates the significance level for statistic with a
// quadratic least-squares fit of ln(level) against the critical values.
func adPValue(statistic float64, critical []float64) float64 {
	lo, hi := adLevels[len(adLevels)-1], adLevels[0]
	if statistic <= critical[0] {
		return hi
	}
	if statistic >= critical[len(critical)-1] {
		return lo
	}

	rows := len(critical)
	design := mat.NewDense(rows, 3, nil)
	logs := mat.NewVecDense(rows, nil)
	for i, cv := range critical {
		design.Set(i, 0, cv*cv)
		design.Set(i, 1, cv)
		design.Set(i, 2, 1)
		logs.SetVec(i, math.Log(adLevels[i]))
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, logs); err != nil {
		return hi
	}
	fit := coef.AtVec(0)*statistic*statistic + coef.AtVec(1)*statistic + coef.AtVec(2)
	return math.Min(hi, math.Max(lo, math.Exp(fit)))
}
