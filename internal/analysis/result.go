package analysis

// Kind names a statistic in the battery.
type Kind string

const (
	KindKL              Kind = "kl_divergence"
	KindJensenShannon   Kind = "jensen_shannon_distance"
	KindChiSquared      Kind = "chi_squared"
	KindKS              Kind = "kolmogorov_smirnov"
	KindAndersonDarling Kind = "anderson_darling"
)

// Kinds returns the battery's statistics in report order.
func Kinds() []Kind {
	return []Kind{KindKL, KindJensenShannon, KindChiSquared, KindKS, KindAndersonDarling}
}

// Result is the outcome of one statistic over one feature. PValue,
// CriticalValue and RejectNull are nil for the divergences, which make no
// decision. The KS test reports a p-value but no critical value.
type Result struct {
	Test          Kind     `json:"test"`
	Feature       Feature  `json:"feature"`
	Statistic     float64  `json:"statistic"`
	PValue        *float64 `json:"p_value,omitempty"`
	CriticalValue *float64 `json:"critical_value,omitempty"`
	RejectNull    *bool    `json:"reject_null,omitempty"`
	// Significance is the table level the Anderson-Darling critical value
	// was taken from.
	Significance float64 `json:"significance,omitempty"`
	Labels       int     `json:"labels"`
}

// Rejected reports whether the test rejected the null hypothesis. It is
// false for statistics that make no decision.
func (r Result) Rejected() bool {
	return r.RejectNull != nil && *r.RejectNull
}

func ptr[T any](v T) *T {
	return &v
}
