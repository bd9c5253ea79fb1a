package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/game"
)

// ErrUnknownFeature is returned for feature names outside the closed set.
var ErrUnknownFeature = errors.New("unknown feature")

// Feature selects which column of a game record is compared. Multiset
// features pool rank counts across records; scalar features count
// occurrences of an integer value.
type Feature string

const (
	DealerHand      Feature = "dealer_hand"
	PlayerHand      Feature = "player_hand"
	DealerHandValue Feature = "dealer_hand_value"
	PlayerHandValue Feature = "player_hand_value"
	PlayerWin       Feature = "player_win"
	DealerWin       Feature = "dealer_win"
	Push            Feature = "push"
	DealerBust      Feature = "dealer_bust"
)

var allFeatures = []Feature{
	DealerHand, PlayerHand, DealerHandValue, PlayerHandValue,
	PlayerWin, DealerWin, Push, DealerBust,
}

// Features returns every supported feature.
func Features() []Feature {
	return append([]Feature(nil), allFeatures...)
}

// CoreFeatures returns the card-frequency and hand-value features compared
// by default.
func CoreFeatures() []Feature {
	return []Feature{DealerHand, PlayerHand, DealerHandValue, PlayerHandValue}
}

// ParseFeature resolves a feature name.
func ParseFeature(name string) (Feature, error) {
	f := Feature(strings.ToLower(strings.TrimSpace(name)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, name)
	}
	return f, nil
}

// Valid reports whether f is a known feature.
func (f Feature) Valid() bool {
	for _, known := range allFeatures {
		if f == known {
			return true
		}
	}
	return false
}

// IsMultiset reports whether the feature is a rank multiset.
func (f Feature) IsMultiset() bool {
	return f == DealerHand || f == PlayerHand
}

// PerGame reports whether the feature describes the dealer, whose hand is
// shared by every seat and so is counted once per game.
func (f Feature) PerGame() bool {
	return f == DealerHand || f == DealerHandValue
}

func (f Feature) String() string {
	return string(f)
}

func (f Feature) counts(o game.Outcome) cards.Counts {
	if f == DealerHand {
		return o.DealerHand
	}
	return o.PlayerHand
}

func (f Feature) scalar(o game.Outcome) int {
	switch f {
	case DealerHandValue:
		return o.DealerHandValue
	case PlayerHandValue:
		return o.PlayerHandValue
	case PlayerWin:
		return o.PlayerWin
	case DealerWin:
		return o.DealerWin
	case Push:
		return o.Push
	case DealerBust:
		return o.DealerBust
	}
	return 0
}
