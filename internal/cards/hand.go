package cards

import "strings"

// Blackjack is the target total; anything above it is a bust.
const Blackjack = 21

// Hand is the ordered sequence of ranks held by one participant.
type Hand []Rank

// HandValue computes the best Blackjack total for ranks. Aces start at 11
// and are reduced to 1, one at a time, while the total exceeds 21.
func HandValue(ranks []Rank) int {
	total, _ := softTotal(ranks)
	return total
}

func softTotal(ranks []Rank) (total int, unreduced int) {
	for _, r := range ranks {
		total += r.Points()
		if r.IsAce() {
			unreduced++
		}
	}
	for total > Blackjack && unreduced > 0 {
		total -= 10
		unreduced--
	}
	return total, unreduced
}

// Add appends a drawn rank.
func (h *Hand) Add(r Rank) {
	*h = append(*h, r)
}

// Value returns the hand's best total.
func (h Hand) Value() int {
	return HandValue(h)
}

// IsBust returns true if the hand is over 21.
func (h Hand) IsBust() bool {
	return h.Value() > Blackjack
}

// IsSoft returns true if at least one ace is still counted as 11.
func (h Hand) IsSoft() bool {
	_, unreduced := softTotal(h)
	return unreduced > 0
}

// IsBlackjack returns true for a two-card 21.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Value() == Blackjack
}

// Counts returns the hand as a rank multiset.
func (h Hand) Counts() Counts {
	c := make(Counts, len(h))
	for _, r := range h {
		c[r]++
	}
	return c
}

// Clone returns an independent copy of the hand.
func (h Hand) Clone() Hand {
	if h == nil {
		return nil
	}
	out := make(Hand, len(h))
	copy(out, h)
	return out
}

// Labels returns the rank labels in draw order.
func (h Hand) Labels() []string {
	labels := make([]string, len(h))
	for i, r := range h {
		labels[i] = r.String()
	}
	return labels
}

func (h Hand) String() string {
	return strings.Join(h.Labels(), ", ")
}
