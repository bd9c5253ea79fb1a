package draw

import (
	"context"
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/dealerbench/internal/cards"
)

// Rigged always returns Rank when drawing for Role and delegates every other
// draw to Inner. A dealer that always hits itself an ace is
// Rigged{Role: Dealer, Rank: cards.Ace, Inner: NewUniform(rng)}.
type Rigged struct {
	Role  Role
	Rank  cards.Rank
	Inner Source

	// HitsOnly restricts rigging to draws after the initial deal, i.e. once
	// the role already holds two cards.
	HitsOnly bool
}

// RiggedFactory builds a Rigged source over a per-game Uniform.
func RiggedFactory(role Role, rank cards.Rank, hitsOnly bool) Factory {
	return func(rng *rand.Rand) Source {
		return &Rigged{Role: role, Rank: rank, Inner: NewUniform(rng), HitsOnly: hitsOnly}
	}
}

// Draw implements Source.
func (r *Rigged) Draw(ctx context.Context, state State) (cards.Rank, error) {
	if state.Turn == r.Role && (!r.HitsOnly || r.holding(state) >= 2) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return r.Rank, nil
	}
	return r.Inner.Draw(ctx, state)
}

func (r *Rigged) holding(state State) int {
	if r.Role == Dealer {
		return len(state.DealerHand)
	}
	return len(state.PlayerHand)
}

// Sequence returns scripted ranks in order and fails with ErrExhausted once
// they run out.
type Sequence struct {
	ranks []cards.Rank
	next  int
}

// NewSequence returns a Sequence over ranks.
func NewSequence(ranks ...cards.Rank) *Sequence {
	return &Sequence{ranks: ranks}
}

// ParseSequence builds a Sequence from rank labels.
func ParseSequence(labels ...string) (*Sequence, error) {
	ranks := make([]cards.Rank, len(labels))
	for i, l := range labels {
		r, err := cards.ParseRank(l)
		if err != nil {
			return nil, err
		}
		ranks[i] = r
	}
	return NewSequence(ranks...), nil
}

// Draw implements Source.
func (s *Sequence) Draw(ctx context.Context, _ State) (cards.Rank, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.next >= len(s.ranks) {
		return 0, fmt.Errorf("%w: sequence of %d cards used up", ErrExhausted, len(s.ranks))
	}
	r := s.ranks[s.next]
	s.next++
	return r, nil
}

// Remaining returns the number of scripted cards not yet drawn.
func (s *Sequence) Remaining() int {
	return len(s.ranks) - s.next
}
