package cards

// Counts is a rank multiset. The zero value is not usable for writes; use
// make(Counts) or Hand.Counts.
type Counts map[Rank]int

// Merge adds other into c. Merging is associative and commutative, so
// partial counts from parallel workers can be combined in any order.
func (c Counts) Merge(other Counts) {
	for r, n := range other {
		c[r] += n
	}
}

// Total returns the number of cards in the multiset.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for r, n := range c {
		out[r] = n
	}
	return out
}
