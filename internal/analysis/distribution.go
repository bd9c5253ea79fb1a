package analysis

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/game"
	"gonum.org/v1/gonum/floats"
)

// Distribution is an ordered histogram: parallel label and value slices in
// canonical label order.
type Distribution struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of labels.
func (d Distribution) Len() int {
	return len(d.Labels)
}

// Get returns the value for label.
func (d Distribution) Get(label string) (float64, bool) {
	for i, l := range d.Labels {
		if l == label {
			return d.Values[i], true
		}
	}
	return 0, false
}

// Total sums the values.
func (d Distribution) Total() float64 {
	return floats.Sum(d.Values)
}

// Normalized returns a copy scaled to sum to one. An empty or all-zero
// distribution is returned unchanged.
func (d Distribution) Normalized() Distribution {
	out := d.clone()
	total := d.Total()
	if total <= 0 {
		return out
	}
	for i := range out.Values {
		out.Values[i] /= total
	}
	return out
}

func (d Distribution) clone() Distribution {
	return Distribution{
		Labels: slices.Clone(d.Labels),
		Values: slices.Clone(d.Values),
	}
}

// ToDistribution builds the histogram of feature f over records. Rank
// multisets are pooled into one histogram across all records; scalar
// features count occurrences of each integer value. Dealer features read one
// record per game (see Feature.PerGame); the rest read every seat. With
// normalize the values are probabilities.
func ToDistribution(records []game.Outcome, f Feature, normalize bool) (Distribution, error) {
	if !f.Valid() {
		return Distribution{}, fmt.Errorf("%w: %q", ErrUnknownFeature, string(f))
	}
	if f.PerGame() {
		records = firstSeats(records)
	}

	var d Distribution
	if f.IsMultiset() {
		pooled := make(cards.Counts)
		for _, o := range records {
			pooled.Merge(f.counts(o))
		}
		for _, r := range cards.Ranks() {
			if n := pooled[r]; n > 0 {
				d.Labels = append(d.Labels, r.String())
				d.Values = append(d.Values, float64(n))
			}
		}
	} else {
		counts := make(map[int]int)
		for _, o := range records {
			counts[f.scalar(o)]++
		}
		keys := make([]int, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			d.Labels = append(d.Labels, strconv.Itoa(k))
			d.Values = append(d.Values, float64(counts[k]))
		}
	}

	if normalize {
		d = d.Normalized()
	}
	return d, nil
}

func firstSeats(records []game.Outcome) []game.Outcome {
	games := game.Games(records)
	out := make([]game.Outcome, len(games))
	for i, g := range games {
		out[i] = g[0]
	}
	return out
}

// Align re-expresses a and b over the union of their labels in canonical
// order. Absent or non-positive entries are floored (FloorProbability when
// normalize, FloorCount otherwise). For raw counts with different totals,
// b is rescaled by total(a)/total(b). Inputs are not modified.
func (o Options) Align(a, b Distribution, normalize bool) (Distribution, Distribution) {
	labels := unionLabels(a.Labels, b.Labels)
	floor := o.floor(normalize)

	fill := func(d Distribution) Distribution {
		out := Distribution{Labels: slices.Clone(labels), Values: make([]float64, len(labels))}
		for i, l := range labels {
			v, ok := d.Get(l)
			if !ok || v <= 0 {
				v = floor
			}
			out.Values[i] = v
		}
		return out
	}

	alignedA, alignedB := fill(a), fill(b)
	if !normalize {
		totalA, totalB := alignedA.Total(), alignedB.Total()
		if totalB > 0 && totalA != totalB {
			scale := totalA / totalB
			for i := range alignedB.Values {
				alignedB.Values[i] *= scale
			}
		}
	}
	return alignedA, alignedB
}

func unionLabels(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var labels []string
	for _, l := range append(slices.Clone(a), b...) {
		if !seen[l] {
			seen[l] = true
			labels = append(labels, l)
		}
	}
	slices.SortFunc(labels, compareLabels)
	return labels
}

// compareLabels orders integers ascending and rank labels in face-value
// order. Rank values coincide with their digit labels, so "10" sorts before
// "jack" under either reading. Anything else sorts last, lexically.
func compareLabels(x, y string) int {
	kx, okx := labelKey(x)
	ky, oky := labelKey(y)
	switch {
	case okx && oky:
		if kx != ky {
			return kx - ky
		}
		return strings.Compare(x, y)
	case okx:
		return -1
	case oky:
		return 1
	default:
		return strings.Compare(x, y)
	}
}

func labelKey(label string) (int, bool) {
	if n, err := strconv.Atoi(label); err == nil {
		return n, true
	}
	if r, err := cards.ParseRank(label); err == nil {
		return int(r), true
	}
	return 0, false
}
