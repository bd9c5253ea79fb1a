package analysis

import (
	"math"

	"github.com/lox/dealerbench/internal/game"
	"gonum.org/v1/gonum/stat"
)

// exactKSLimit bounds n·m for the exact lattice-path p-value.
const exactKSLimit = 10000

// KolmogorovSmirnov runs the two-sample KS test on the aligned normalized
// values, each distribution's bin values treated as one sample. The null is
// rejected when the two-sided p-value is below Alpha.
func (o Options) KolmogorovSmirnov(control, experiment []game.Outcome, f Feature) (Result, error) {
	p, q, err := o.prepare(control, experiment, f, true)
	if err != nil {
		return Result{}, err
	}

	x, y := sortedValues(p), sortedValues(q)
	d, pValue := 0.0, 1.0
	if len(x) > 0 && len(y) > 0 {
		d = stat.KolmogorovSmirnov(x, nil, y, nil)
		pValue = ksPValue(d, len(x), len(y))
	}

	return Result{
		Test:       KindKS,
		Feature:    f,
		Statistic:  d,
		PValue:     ptr(pValue),
		RejectNull: ptr(pValue < o.Alpha),
		Labels:     p.Len(),
	}, nil
}

func ksPValue(d float64, n, m int) float64 {
	if d <= 0 {
		return 1
	}
	if n*m <= exactKSLimit {
		return ksExact(d, n, m)
	}
	en := math.Sqrt(float64(n) * float64(m) / float64(n+m))
	return kolmogorovSurvival((en + 0.12 + 0.11/en) * d)
}

// ksExact returns P(D ≥ d) for samples of size n and m under the null by
// counting monotone lattice paths from (0,0) to (n,m) that never reach a
// point where |i/n − j/m| ≥ d.
func ksExact(d float64, n, m int) float64 {
	h := int(math.Round(d * float64(n) * float64(m)))
	if h <= 0 {
		return 1
	}

	inside := make([]float64, m+1)
	all := make([]float64, m+1)
	for i := 0; i <= n; i++ {
		for j := 0; j <= m; j++ {
			if i == 0 && j == 0 {
				inside[0], all[0] = 1, 1
				continue
			}
			var in, total float64
			if i > 0 {
				in, total = inside[j], all[j]
			}
			if j > 0 {
				in += inside[j-1]
				total += all[j-1]
			}
			if abs(i*m-j*n) >= h {
				in = 0
			}
			inside[j], all[j] = in, total
		}
	}

	p := 1 - inside[m]/all[m]
	return math.Min(1, math.Max(0, p))
}

// kolmogorovSurvival is Q(λ) = 2 Σ (−1)^(k−1) exp(−2k²λ²).
func kolmogorovSurvival(lambda float64) float64 {
	if lambda < 1e-3 {
		return 1
	}
	var sum float64
	sign := 1.0
	for k := 1; k <= 100; k++ {
		term := sign * math.Exp(-2*float64(k*k)*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}
	return math.Min(1, math.Max(0, 2*sum))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
