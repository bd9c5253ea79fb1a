// Package cards models Blackjack ranks, hands and rank multisets.
package cards

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRank is returned when a label is not one of the 13 canonical ranks.
var ErrInvalidRank = errors.New("invalid rank")

// Rank represents a card rank. Suits play no part in Blackjack scoring and
// are not modelled.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// NumRanks is the number of distinct rank labels.
const NumRanks = 13

var rankLabels = [...]string{
	Two:   "2",
	Three: "3",
	Four:  "4",
	Five:  "5",
	Six:   "6",
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "jack",
	Queen: "queen",
	King:  "king",
	Ace:   "ace",
}

// Ranks returns all ranks in face-value order, 2 through ace.
func Ranks() []Rank {
	ranks := make([]Rank, 0, NumRanks)
	for r := Two; r <= Ace; r++ {
		ranks = append(ranks, r)
	}
	return ranks
}

// Valid reports whether r is one of the 13 canonical ranks.
func (r Rank) Valid() bool {
	return r >= Two && r <= Ace
}

// String returns the canonical lower-case label ("2".."10", "jack", "ace").
func (r Rank) String() string {
	if !r.Valid() {
		return "?"
	}
	return rankLabels[r]
}

// Points returns the Blackjack point value with aces counted high.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten && r <= King:
		return 10
	default:
		return int(r)
	}
}

// IsAce returns true if the rank is an Ace
func (r Rank) IsAce() bool {
	return r == Ace
}

// ParseRank parses a rank label. Matching is case-insensitive and ignores
// surrounding whitespace; anything outside the closed label set is rejected.
func ParseRank(s string) (Rank, error) {
	label := strings.ToLower(strings.TrimSpace(s))
	for r := Two; r <= Ace; r++ {
		if rankLabels[r] == label {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRank, s)
}

// MustParseRank is like ParseRank but panics on error. Intended for tests
// and literals.
func MustParseRank(s string) Rank {
	r, err := ParseRank(s)
	if err != nil {
		panic(err)
	}
	return r
}

// MarshalText implements encoding.TextMarshaler so rank-keyed maps encode as
// JSON objects keyed by label.
func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRank, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
