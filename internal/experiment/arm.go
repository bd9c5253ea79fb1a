package experiment

import (
	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/game"
	"gonum.org/v1/gonum/stat"
)

// Arm is the reduced result of one batch of games.
type Arm struct {
	Name  string `json:"name"`
	Seed  int64  `json:"seed,omitempty"`
	Games int    `json:"games"`

	Completed int `json:"completed"`
	Abandoned int `json:"abandoned"`
	TimedOut  int `json:"timed_out"`
	// Deferred counts completed games in which the provider handed drawing
	// over to the random fallback.
	Deferred int `json:"deferred"`

	// Outcomes holds one record per seat per completed game, in game order.
	Outcomes []game.Outcome `json:"-"`

	PlayerCards cards.Counts `json:"player_cards"`
	DealerCards cards.Counts `json:"dealer_cards"`
}

// NewArm rebuilds an arm from stored outcomes. Every game has a seat 0
// record, which is how games are counted.
func NewArm(name string, outcomes []game.Outcome) *Arm {
	arm := &Arm{Name: name}
	for _, g := range game.Games(outcomes) {
		arm.add(g)
	}
	arm.Games = arm.Completed
	return arm
}

func (a *Arm) add(outcomes []game.Outcome) {
	if len(outcomes) == 0 {
		return
	}
	if a.PlayerCards == nil {
		a.PlayerCards = make(cards.Counts)
		a.DealerCards = make(cards.Counts)
	}
	a.Completed++
	a.Outcomes = append(a.Outcomes, outcomes...)
	for _, o := range outcomes {
		a.PlayerCards.Merge(o.PlayerHand)
	}
	a.DealerCards.Merge(outcomes[0].DealerHand)
}

// Summary is the headline view of an arm.
type Summary struct {
	Name      string `json:"name"`
	Games     int    `json:"games"`
	Completed int    `json:"completed"`
	Abandoned int    `json:"abandoned"`
	TimedOut  int    `json:"timed_out"`
	Deferred  int    `json:"deferred"`
	Outcomes  int    `json:"outcomes"`

	PlayerWinRate  float64 `json:"player_win_rate"`
	DealerWinRate  float64 `json:"dealer_win_rate"`
	PushRate       float64 `json:"push_rate"`
	DealerBustRate float64 `json:"dealer_bust_rate"`
	AvgPlayerHand  float64 `json:"avg_player_hand"`
	AvgDealerHand  float64 `json:"avg_dealer_hand"`
}

// Summary computes per-outcome rates and average final hand values.
func (a *Arm) Summary() Summary {
	s := Summary{
		Name:      a.Name,
		Games:     a.Games,
		Completed: a.Completed,
		Abandoned: a.Abandoned,
		TimedOut:  a.TimedOut,
		Deferred:  a.Deferred,
		Outcomes:  len(a.Outcomes),
	}
	if len(a.Outcomes) == 0 {
		return s
	}

	n := len(a.Outcomes)
	playerWin := make([]float64, n)
	dealerWin := make([]float64, n)
	push := make([]float64, n)
	bust := make([]float64, n)
	playerValue := make([]float64, n)
	dealerValue := make([]float64, n)
	for i, o := range a.Outcomes {
		playerWin[i] = float64(o.PlayerWin)
		dealerWin[i] = float64(o.DealerWin)
		push[i] = float64(o.Push)
		bust[i] = float64(o.DealerBust)
		playerValue[i] = float64(o.PlayerHandValue)
		dealerValue[i] = float64(o.DealerHandValue)
	}

	s.PlayerWinRate = stat.Mean(playerWin, nil)
	s.DealerWinRate = stat.Mean(dealerWin, nil)
	s.PushRate = stat.Mean(push, nil)
	s.DealerBustRate = stat.Mean(bust, nil)
	s.AvgPlayerHand = stat.Mean(playerValue, nil)
	s.AvgDealerHand = stat.Mean(dealerValue, nil)
	return s
}
