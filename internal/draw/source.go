// Package draw provides the card-draw sources used by the game engine.
//
// A Source yields exactly one rank per call or an error. The engine never
// substitutes a default card for a failed draw: the game is abandoned
// instead, so a misbehaving source cannot bias the recorded sample.
//
// Built-in sources:
//   - Uniform: each of the 13 labels with equal probability (the baseline)
//   - External: a text-completion provider behind a validating, retrying,
//     time-bounded adapter
//   - Rigged: a fixed rank for one role, everything else delegated
//   - Sequence: a scripted list, for tests and replays
package draw

import (
	"context"
	"errors"
	rand "math/rand/v2"

	"github.com/lox/dealerbench/internal/cards"
)

var (
	// ErrExhausted is returned when a source could not produce a valid rank
	// within its attempt budget, or a scripted source ran out of cards.
	ErrExhausted = errors.New("draw source exhausted")
	// ErrMalformedResponse is returned for provider replies that contain no
	// recognisable rank label.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrTimeout is returned when a provider call exceeds its deadline.
	ErrTimeout = errors.New("provider call timed out")
)

// Source draws one card for the given state.
type Source interface {
	Draw(ctx context.Context, state State) (cards.Rank, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, state State) (cards.Rank, error)

// Draw calls f.
func (f SourceFunc) Draw(ctx context.Context, state State) (cards.Rank, error) {
	return f(ctx, state)
}

// Factory builds a fresh Source for one game. Per-game state such as a
// deferral to random draws never outlives the game, and each game draws
// from its own random stream.
type Factory func(rng *rand.Rand) Source
