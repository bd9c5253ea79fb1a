package game

import (
	"errors"
	"fmt"

	"github.com/lox/dealerbench/internal/cards"
)

// ErrInvalidOutcome is returned by Validate for records that break the
// outcome invariants.
var ErrInvalidOutcome = errors.New("invalid outcome")

// Outcome is the terminal record of one seat in one game. The JSON tags are
// the persisted record format.
type Outcome struct {
	Seat            int          `json:"seat"`
	PlayerWin       int          `json:"player_win"`
	DealerWin       int          `json:"dealer_win"`
	Push            int          `json:"push"`
	DealerBust      int          `json:"dealer_bust"`
	PlayerHandValue int          `json:"player_hand_value"`
	DealerHandValue int          `json:"dealer_hand_value"`
	PlayerHand      cards.Counts `json:"player_hand"`
	DealerHand      cards.Counts `json:"dealer_hand"`
}

// Settle compares final hands. The checks run in a fixed order and a player
// bust is always decided first: a busted player loses even if the dealer
// would have busted too, and DealerBust stays 0 for that seat.
func Settle(seat int, player, dealer cards.Hand) Outcome {
	o := Outcome{
		Seat:            seat,
		PlayerHandValue: player.Value(),
		DealerHandValue: dealer.Value(),
		PlayerHand:      player.Counts(),
		DealerHand:      dealer.Counts(),
	}

	switch {
	case o.PlayerHandValue > cards.Blackjack:
		o.DealerWin = 1
	case o.DealerHandValue > cards.Blackjack:
		o.PlayerWin = 1
		o.DealerBust = 1
	case o.DealerHandValue < o.PlayerHandValue:
		o.PlayerWin = 1
	case o.DealerHandValue == o.PlayerHandValue:
		o.Push = 1
	default:
		o.DealerWin = 1
	}
	return o
}

// Games splits a flat record stream into games. Each Seat 0 record starts a
// new game, as does the first record. The groups share the input's backing
// array.
func Games(outcomes []Outcome) [][]Outcome {
	var games [][]Outcome
	start := 0
	for i := 1; i <= len(outcomes); i++ {
		if i == len(outcomes) || outcomes[i].Seat == 0 {
			games = append(games, outcomes[start:i])
			start = i
		}
	}
	return games
}

// Validate checks the invariants of a record read from outside the engine:
// binary flags with exactly one of win/win/push set, a dealer bust backed by
// the dealer's value, a busted player never winning, and hand values that
// match the recorded compositions.
func (o Outcome) Validate() error {
	for name, v := range map[string]int{
		"player_win":  o.PlayerWin,
		"dealer_win":  o.DealerWin,
		"push":        o.Push,
		"dealer_bust": o.DealerBust,
	} {
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: %s = %d", ErrInvalidOutcome, name, v)
		}
	}
	if o.PlayerWin+o.DealerWin+o.Push != 1 {
		return fmt.Errorf("%w: player_win=%d dealer_win=%d push=%d", ErrInvalidOutcome, o.PlayerWin, o.DealerWin, o.Push)
	}
	if o.DealerBust == 1 && o.DealerHandValue <= cards.Blackjack {
		return fmt.Errorf("%w: dealer_bust with dealer value %d", ErrInvalidOutcome, o.DealerHandValue)
	}
	if o.PlayerHandValue > cards.Blackjack && o.DealerWin != 1 {
		return fmt.Errorf("%w: player bust with value %d not settled as a dealer win", ErrInvalidOutcome, o.PlayerHandValue)
	}
	if len(o.PlayerHand) > 0 {
		if v := countsValue(o.PlayerHand); v != o.PlayerHandValue {
			return fmt.Errorf("%w: player_hand is worth %d, recorded %d", ErrInvalidOutcome, v, o.PlayerHandValue)
		}
	}
	if len(o.DealerHand) > 0 {
		if v := countsValue(o.DealerHand); v != o.DealerHandValue {
			return fmt.Errorf("%w: dealer_hand is worth %d, recorded %d", ErrInvalidOutcome, v, o.DealerHandValue)
		}
	}
	return nil
}

// Hand values do not depend on draw order, so a multiset is enough.
func countsValue(c cards.Counts) int {
	var h cards.Hand
	for _, r := range cards.Ranks() {
		for i := 0; i < c[r]; i++ {
			h.Add(r)
		}
	}
	return h.Value()
}
