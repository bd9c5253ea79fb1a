package draw

import (
	"encoding/json"

	"github.com/lox/dealerbench/internal/cards"
)

// Role identifies whose hand a card is being drawn for.
type Role int

const (
	Player Role = iota
	Dealer
)

func (r Role) String() string {
	if r == Dealer {
		return "dealer"
	}
	return "player"
}

// State is the read-only snapshot handed to a Source. Hands are copies; a
// source cannot append to them. Only the game engine adds drawn cards.
type State struct {
	Turn        Role
	Seat        int // active player seat; the first seat while the dealer draws
	PlayerHand  cards.Hand
	PlayerValue int
	DealerHand  cards.Hand
	DealerValue int
	Players     []cards.Hand // every seat's hand, in seat order
}

// DealerUpcard returns the dealer's first card, if dealt.
func (s State) DealerUpcard() (cards.Rank, bool) {
	if len(s.DealerHand) == 0 {
		return 0, false
	}
	return s.DealerHand[0], true
}

type stateJSON struct {
	DrawingFor      string   `json:"drawing_for"`
	PlayerHand      []string `json:"player_hand"`
	PlayerHandValue int      `json:"player_hand_value"`
	DealerHand      []string `json:"dealer_hand"`
	DealerHandValue int      `json:"dealer_hand_value"`
}

// JSON renders the state in the indented form embedded into provider prompts.
func (s State) JSON() string {
	data, err := json.MarshalIndent(stateJSON{
		DrawingFor:      s.Turn.String(),
		PlayerHand:      s.PlayerHand.Labels(),
		PlayerHandValue: s.PlayerValue,
		DealerHand:      s.DealerHand.Labels(),
		DealerHandValue: s.DealerValue,
	}, "", "    ")
	if err != nil {
		// Only strings and ints; marshalling cannot fail.
		return "{}"
	}
	return string(data)
}
