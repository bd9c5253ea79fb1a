package draw

import (
	"context"
	rand "math/rand/v2"

	"github.com/lox/dealerbench/internal/cards"
)

// Uniform draws each of the 13 rank labels with equal probability. It is not
// weighted by deck composition: a ten-point card is 4/13 likely, not the
// 16/52 of a real shoe split across labels. This is the baseline model the
// analysis compares against.
type Uniform struct {
	rng *rand.Rand
}

// NewUniform returns a uniform source driven by rng. The rng must not be
// shared with another goroutine.
func NewUniform(rng *rand.Rand) *Uniform {
	return &Uniform{rng: rng}
}

// UniformFactory builds a Uniform source per game.
func UniformFactory() Factory {
	return func(rng *rand.Rand) Source {
		return NewUniform(rng)
	}
}

// Draw implements Source.
func (u *Uniform) Draw(ctx context.Context, _ State) (cards.Rank, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return cards.Two + cards.Rank(u.rng.IntN(cards.NumRanks)), nil
}
