package game

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/draw"
	"github.com/lox/dealerbench/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(nil, log.Options{Level: log.WarnLevel})
}

func seq(t *testing.T, labels ...string) *draw.Sequence {
	t.Helper()
	s, err := draw.ParseSequence(labels...)
	require.NoError(t, err)
	return s
}

func TestSettleOrder(t *testing.T) {
	t.Parallel()
	h := func(labels ...string) cards.Hand {
		var out cards.Hand
		for _, l := range labels {
			out.Add(cards.MustParseRank(l))
		}
		return out
	}

	tests := []struct {
		name       string
		player     cards.Hand
		dealer     cards.Hand
		playerWin  int
		dealerWin  int
		push       int
		dealerBust int
	}{
		{"player bust beats dealer bust", h("10", "6", "king"), h("10", "6", "9"), 0, 1, 0, 0},
		{"player bust", h("10", "queen", "2"), h("10", "7"), 0, 1, 0, 0},
		{"dealer bust", h("10", "6"), h("10", "6", "8"), 1, 0, 0, 1},
		{"player higher", h("10", "9"), h("10", "7"), 1, 0, 0, 0},
		{"push", h("10", "7"), h("king", "7"), 0, 0, 1, 0},
		{"dealer higher", h("10", "7"), h("10", "9"), 0, 1, 0, 0},
		{"soft 21 vs 20", h("ace", "5", "5"), h("10", "jack"), 1, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Settle(0, tt.player, tt.dealer)
			assert.Equal(t, tt.playerWin, o.PlayerWin, "player_win")
			assert.Equal(t, tt.dealerWin, o.DealerWin, "dealer_win")
			assert.Equal(t, tt.push, o.Push, "push")
			assert.Equal(t, tt.dealerBust, o.DealerBust, "dealer_bust")
			require.NoError(t, o.Validate())
		})
	}
}

func TestPlayScripted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		draws       []string
		wantPlayer  int
		wantDealer  int
		wantOutcome [3]int // player_win, dealer_win, push
		dealerDrawn int
		playerCards int
	}{
		{
			// 16 vs a 10 upcard hits and busts; the dealer never draws.
			name:        "player bust ends game",
			draws:       []string{"10", "6", "10", "6", "king"},
			wantPlayer:  26,
			wantDealer:  16,
			wantOutcome: [3]int{0, 1, 0},
			dealerDrawn: 2,
			playerCards: 3,
		},
		{
			name:        "push on 17",
			draws:       []string{"10", "7", "10", "7"},
			wantPlayer:  17,
			wantDealer:  17,
			wantOutcome: [3]int{0, 0, 1},
			dealerDrawn: 2,
			playerCards: 2,
		},
		{
			name:        "player stands on 19",
			draws:       []string{"10", "9", "10", "7"},
			wantPlayer:  19,
			wantDealer:  17,
			wantOutcome: [3]int{1, 0, 0},
			dealerDrawn: 2,
			playerCards: 2,
		},
		{
			// Weak upcard: stand on 12 and let the dealer draw.
			name:        "weak upcard stands on 12",
			draws:       []string{"10", "2", "5", "10", "3"},
			wantPlayer:  12,
			wantDealer:  18,
			wantOutcome: [3]int{0, 1, 0},
			dealerDrawn: 3,
			playerCards: 2,
		},
		{
			name:        "dealer busts",
			draws:       []string{"10", "8", "6", "10", "jack"},
			wantPlayer:  18,
			wantDealer:  26,
			wantOutcome: [3]int{1, 0, 0},
			dealerDrawn: 3,
			playerCards: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := seq(t, tt.draws...)
			g := New(Config{Logger: testLogger()}, src)

			outcomes, err := g.Play(context.Background())
			require.NoError(t, err)
			require.Len(t, outcomes, 1)
			o := outcomes[0]

			assert.Equal(t, Settled, g.Phase())
			assert.Equal(t, tt.wantPlayer, o.PlayerHandValue)
			assert.Equal(t, tt.wantDealer, o.DealerHandValue)
			assert.Equal(t, tt.wantOutcome, [3]int{o.PlayerWin, o.DealerWin, o.Push})
			assert.Len(t, g.Dealer().Hand, tt.dealerDrawn)
			assert.Len(t, g.Players()[0].Hand, tt.playerCards)
			assert.Zero(t, src.Remaining(), "every scripted card should be used")
			require.NoError(t, o.Validate())
		})
	}
}

func TestBustPrecedenceWithDealerBust(t *testing.T) {
	t.Parallel()
	// Seat 0 busts, seat 1 stands, and the dealer then busts too.
	src := seq(t, "10", "6", "10", "8", "10", "6", "king", "9")
	g := New(Config{Players: 2, Policy: ThresholdPolicy{Threshold: 17}, Logger: testLogger()}, src)

	outcomes, err := g.Play(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	busted, stood := outcomes[0], outcomes[1]
	assert.Equal(t, 26, busted.PlayerHandValue)
	assert.Equal(t, 25, busted.DealerHandValue)
	assert.Equal(t, 1, busted.DealerWin)
	assert.Equal(t, 0, busted.PlayerWin)
	assert.Equal(t, 0, busted.DealerBust)

	assert.Equal(t, 1, stood.PlayerWin)
	assert.Equal(t, 1, stood.DealerBust)
}

func TestDealOrder(t *testing.T) {
	t.Parallel()

	var turns []draw.Role
	record := func(inner draw.Source) draw.Source {
		return draw.SourceFunc(func(ctx context.Context, s draw.State) (cards.Rank, error) {
			turns = append(turns, s.Turn)
			return inner.Draw(ctx, s)
		})
	}

	g := New(Config{DealOrder: DealRounds, Logger: testLogger()}, record(seq(t, "2", "3", "4", "5")))
	require.NoError(t, g.Deal(context.Background()))
	assert.Equal(t, cards.Hand{cards.Two, cards.Four}, g.Players()[0].Hand)
	assert.Equal(t, cards.Hand{cards.Three, cards.Five}, g.Dealer().Hand)
	assert.Equal(t, []draw.Role{draw.Player, draw.Dealer, draw.Player, draw.Dealer}, turns)

	turns = nil
	g = New(Config{Logger: testLogger()}, record(seq(t, "2", "3", "4", "5")))
	require.NoError(t, g.Deal(context.Background()))
	assert.Equal(t, cards.Hand{cards.Two, cards.Three}, g.Players()[0].Hand)
	assert.Equal(t, cards.Hand{cards.Four, cards.Five}, g.Dealer().Hand)
	assert.Equal(t, []draw.Role{draw.Player, draw.Player, draw.Dealer, draw.Dealer}, turns)
}

func TestSourceCannotMutateHands(t *testing.T) {
	t.Parallel()
	src := draw.SourceFunc(func(_ context.Context, s draw.State) (cards.Rank, error) {
		if len(s.PlayerHand) > 0 {
			s.PlayerHand[0] = cards.Ace
		}
		if len(s.DealerHand) > 0 {
			s.DealerHand[0] = cards.Ace
		}
		return cards.Two, nil
	})

	g := New(Config{Logger: testLogger()}, src)
	require.NoError(t, g.Deal(context.Background()))
	assert.Equal(t, cards.Hand{cards.Two, cards.Two}, g.Players()[0].Hand)
	assert.Equal(t, cards.Hand{cards.Two, cards.Two}, g.Dealer().Hand)
}

func TestDrawFailureAborts(t *testing.T) {
	t.Parallel()
	g := New(Config{Logger: testLogger()}, seq(t, "10", "6", "10"))

	outcomes, err := g.Play(context.Background())
	require.Error(t, err)
	assert.Nil(t, outcomes)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.True(t, errors.Is(err, draw.ErrExhausted))
	assert.Equal(t, Aborted, g.Phase())

	_, err = g.Outcomes()
	assert.ErrorIs(t, err, ErrAborted)
}

func TestInvalidRankAborts(t *testing.T) {
	t.Parallel()
	src := draw.SourceFunc(func(context.Context, draw.State) (cards.Rank, error) {
		return cards.Rank(99), nil
	})
	_, err := New(Config{Logger: testLogger()}, src).Play(context.Background())
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, cards.ErrInvalidRank)
}

func TestPhaseErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := New(Config{Logger: testLogger()}, seq(t, "10", "7", "10", "7"))

	_, err := g.Hit(ctx)
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.ErrorIs(t, g.Stay(), ErrInvalidPhase)
	assert.ErrorIs(t, g.PlayDealer(ctx), ErrInvalidPhase)
	_, err = g.Outcomes()
	assert.ErrorIs(t, err, ErrInvalidPhase)

	require.NoError(t, g.Deal(ctx))
	assert.ErrorIs(t, g.Deal(ctx), ErrInvalidPhase)
	assert.ErrorIs(t, g.PlayDealer(ctx), ErrInvalidPhase)

	require.NoError(t, g.Stay())
	assert.Equal(t, DealerTurn, g.Phase())
	assert.ErrorIs(t, g.Stay(), ErrInvalidPhase)

	require.NoError(t, g.PlayDealer(ctx))
	outcomes, err := g.Outcomes()
	require.NoError(t, err)
	assert.Equal(t, 1, outcomes[0].Push)
}

func TestExplicitHitUntilBust(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g := New(Config{Logger: testLogger()}, seq(t, "10", "5", "9", "8", "4", "king"))
	require.NoError(t, g.Deal(ctx))

	r, err := g.Hit(ctx)
	require.NoError(t, err)
	assert.Equal(t, cards.Four, r)
	assert.Equal(t, PlayerTurn, g.Phase())

	_, err = g.Hit(ctx)
	require.NoError(t, err)
	assert.Equal(t, DealerTurn, g.Phase(), "bust ends the turn")

	require.NoError(t, g.PlayDealer(ctx))
	assert.Len(t, g.Dealer().Hand, 2, "dealer does not draw against a busted table")
}

func TestOutcomeExclusivity(t *testing.T) {
	t.Parallel()
	const games = 5000
	for i := 0; i < games; i++ {
		g := New(Config{Players: 1 + i%3, Logger: testLogger()}, draw.NewUniform(randutil.ForGame(7, i)))
		outcomes, err := g.Play(context.Background())
		require.NoError(t, err)
		for _, o := range outcomes {
			require.Equal(t, 1, o.PlayerWin+o.DealerWin+o.Push, "game %d: %+v", i, o)
			if o.Push == 1 {
				require.Zero(t, o.PlayerWin+o.DealerWin)
			}
			if o.PlayerHandValue > cards.Blackjack {
				require.Equal(t, 1, o.DealerWin)
				require.Zero(t, o.DealerBust)
			}
			require.NoError(t, o.Validate())
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	t.Parallel()
	play := func() [][]Outcome {
		var all [][]Outcome
		for i := 0; i < 200; i++ {
			outcomes, err := New(Config{Logger: testLogger()}, draw.NewUniform(randutil.ForGame(99, i))).Play(context.Background())
			require.NoError(t, err)
			all = append(all, outcomes)
		}
		return all
	}
	assert.Equal(t, play(), play())
}

func TestOutcomeValidate(t *testing.T) {
	t.Parallel()
	valid := Settle(0, cards.Hand{cards.Ten, cards.Nine}, cards.Hand{cards.Ten, cards.Seven})

	tests := []struct {
		name   string
		mutate func(o *Outcome)
	}{
		{"two winners", func(o *Outcome) { o.DealerWin = 1 }},
		{"no result", func(o *Outcome) { o.PlayerWin = 0 }},
		{"non-binary flag", func(o *Outcome) { o.PlayerWin = 2 }},
		{"phantom dealer bust", func(o *Outcome) { o.DealerBust = 1 }},
		{"value mismatch", func(o *Outcome) { o.PlayerHandValue = 20 }},
		{"bust scored as win", func(o *Outcome) {
			o.PlayerHand = cards.Counts{cards.Ten: 2, cards.Five: 1}
			o.PlayerHandValue = 25
		}},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			o.PlayerHand = valid.PlayerHand.Clone()
			tt.mutate(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOutcome)
		})
	}
}

func TestPolicies(t *testing.T) {
	t.Parallel()
	state := func(player int, upcard cards.Rank) draw.State {
		return draw.State{PlayerValue: player, DealerHand: cards.Hand{upcard, cards.Two}}
	}

	up := UpcardPolicy{}
	assert.True(t, up.Hit(state(16, cards.Seven)))
	assert.False(t, up.Hit(state(17, cards.Ace)))
	assert.True(t, up.Hit(state(11, cards.Six)))
	assert.False(t, up.Hit(state(12, cards.Six)))

	th := ThresholdPolicy{}
	assert.True(t, th.Hit(state(16, cards.Two)))
	assert.False(t, th.Hit(state(17, cards.Two)))
	assert.True(t, ThresholdPolicy{Threshold: 19}.Hit(state(18, cards.Two)))

	p, err := ParsePolicy("threshold", 15)
	require.NoError(t, err)
	assert.Equal(t, ThresholdPolicy{Threshold: 15}, p)
	_, err = ParsePolicy("martingale", 0)
	assert.Error(t, err)
}
