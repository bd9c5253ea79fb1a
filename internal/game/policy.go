package game

import (
	"fmt"

	"github.com/lox/dealerbench/internal/draw"
)

// DefaultThreshold is the hit-below value used by ThresholdPolicy when none
// is configured.
const DefaultThreshold = 17

// Policy decides whether the active player takes another card.
type Policy interface {
	Hit(state draw.State) bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(state draw.State) bool

// Hit calls f.
func (f PolicyFunc) Hit(state draw.State) bool {
	return f(state)
}

// ThresholdPolicy hits while the player's value is below Threshold.
type ThresholdPolicy struct {
	Threshold int
}

// Hit implements Policy.
func (p ThresholdPolicy) Hit(state draw.State) bool {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return state.PlayerValue < threshold
}

// UpcardPolicy plays against the dealer's face-up card: against a strong
// upcard (7 or more points, aces included) it hits below 17, against a weak
// one it hits below 12.
type UpcardPolicy struct{}

// Hit implements Policy.
func (UpcardPolicy) Hit(state draw.State) bool {
	upcard, ok := state.DealerUpcard()
	if !ok || upcard.Points() >= 7 {
		return state.PlayerValue < 17
	}
	return state.PlayerValue < 12
}

// ParsePolicy resolves a policy by name. threshold is only used by
// "threshold".
func ParsePolicy(name string, threshold int) (Policy, error) {
	switch name {
	case "", "upcard":
		return UpcardPolicy{}, nil
	case "threshold":
		return ThresholdPolicy{Threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unknown player policy %q", name)
	}
}
