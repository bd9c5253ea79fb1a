package game

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/draw"
)

var (
	// ErrAborted wraps the draw failure that ended a game. Aborted games
	// produce no outcome.
	ErrAborted = errors.New("game aborted")
	// ErrInvalidPhase is returned when a step is called out of order.
	ErrInvalidPhase = errors.New("invalid phase for action")
)

// DefaultDealerStandOn is the standard stand-on-17 rule.
const DefaultDealerStandOn = 17

// Phase is the game's position in the state machine.
type Phase int

const (
	Dealing Phase = iota
	PlayerTurn
	DealerTurn
	Settled
	Aborted
)

func (p Phase) String() string {
	switch p {
	case Dealing:
		return "dealing"
	case PlayerTurn:
		return "player-turn"
	case DealerTurn:
		return "dealer-turn"
	case Settled:
		return "settled"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// DealOrder selects how the initial two cards are handed out.
type DealOrder int

const (
	// DealGrouped gives each seat both its cards, then the dealer both of
	// theirs: P,P,D,D for a single player.
	DealGrouped DealOrder = iota
	// DealRounds deals two rounds of one card per seat followed by one to the
	// dealer: P,D,P,D for a single player.
	DealRounds
)

// ParseDealOrder resolves "grouped" or "rounds".
func ParseDealOrder(name string) (DealOrder, error) {
	switch name {
	case "", "grouped":
		return DealGrouped, nil
	case "rounds":
		return DealRounds, nil
	default:
		return 0, fmt.Errorf("unknown deal order %q", name)
	}
}

// Config holds the table rules. Zero values select the defaults.
type Config struct {
	Players       int // seats at the table; 1 when zero
	Policy        Policy
	DealerStandOn int
	DealOrder     DealOrder
	Logger        *log.Logger
}

// Participant is one hand at the table. Players and the dealer differ only
// by role and the policy that plays them.
type Participant struct {
	Role draw.Role
	Seat int
	Hand cards.Hand
}

// Value returns the participant's hand value.
func (p Participant) Value() int {
	return p.Hand.Value()
}

// Game runs one deal against a single draw source. It is not safe for
// concurrent use; run one Game per goroutine.
type Game struct {
	config Config
	source draw.Source
	logger *log.Logger

	players []Participant
	dealer  Participant
	phase   Phase
	active  int

	outcomes []Outcome
	err      error
}

// New returns a game in the Dealing phase.
func New(config Config, source draw.Source) *Game {
	if config.Players <= 0 {
		config.Players = 1
	}
	if config.Policy == nil {
		config.Policy = UpcardPolicy{}
	}
	if config.DealerStandOn <= 0 {
		config.DealerStandOn = DefaultDealerStandOn
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	players := make([]Participant, config.Players)
	for i := range players {
		players[i] = Participant{Role: draw.Player, Seat: i}
	}

	return &Game{
		config:  config,
		source:  source,
		logger:  logger,
		players: players,
		dealer:  Participant{Role: draw.Dealer},
		phase:   Dealing,
	}
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	return g.phase
}

// Err returns the error that aborted the game, if any.
func (g *Game) Err() error {
	return g.err
}

// Active returns the seat whose turn it is during PlayerTurn.
func (g *Game) Active() int {
	return g.active
}

// Players returns copies of the player participants in seat order.
func (g *Game) Players() []Participant {
	out := make([]Participant, len(g.players))
	for i, p := range g.players {
		out[i] = Participant{Role: p.Role, Seat: p.Seat, Hand: p.Hand.Clone()}
	}
	return out
}

// Dealer returns a copy of the dealer participant.
func (g *Game) Dealer() Participant {
	return Participant{Role: draw.Dealer, Hand: g.dealer.Hand.Clone()}
}

// State returns the snapshot a source sees for the next draw: the active
// seat during PlayerTurn, the dealer otherwise.
func (g *Game) State() draw.State {
	if g.phase == PlayerTurn {
		return g.snapshot(draw.Player, g.active)
	}
	return g.snapshot(draw.Dealer, 0)
}

func (g *Game) snapshot(turn draw.Role, seat int) draw.State {
	player := g.players[seat].Hand
	hands := make([]cards.Hand, len(g.players))
	for i, p := range g.players {
		hands[i] = p.Hand.Clone()
	}
	return draw.State{
		Turn:        turn,
		Seat:        seat,
		PlayerHand:  player.Clone(),
		PlayerValue: player.Value(),
		DealerHand:  g.dealer.Hand.Clone(),
		DealerValue: g.dealer.Value(),
		Players:     hands,
	}
}

// Play runs the whole state machine with the configured policy and returns
// one outcome per seat.
func (g *Game) Play(ctx context.Context) ([]Outcome, error) {
	if err := g.Deal(ctx); err != nil {
		return nil, err
	}
	if err := g.PlayPlayers(ctx); err != nil {
		return nil, err
	}
	if err := g.PlayDealer(ctx); err != nil {
		return nil, err
	}
	return g.Outcomes()
}

// Deal hands out the initial two cards per participant and moves to
// PlayerTurn.
func (g *Game) Deal(ctx context.Context) error {
	if g.phase != Dealing {
		return fmt.Errorf("%w: deal during %s", ErrInvalidPhase, g.phase)
	}

	switch g.config.DealOrder {
	case DealRounds:
		for round := 0; round < 2; round++ {
			for seat := range g.players {
				if err := g.drawFor(ctx, draw.Player, seat); err != nil {
					return err
				}
			}
			if err := g.drawFor(ctx, draw.Dealer, 0); err != nil {
				return err
			}
		}
	default:
		for seat := range g.players {
			for i := 0; i < 2; i++ {
				if err := g.drawFor(ctx, draw.Player, seat); err != nil {
					return err
				}
			}
		}
		for i := 0; i < 2; i++ {
			if err := g.drawFor(ctx, draw.Dealer, 0); err != nil {
				return err
			}
		}
	}

	g.logger.Debug("Dealt initial hands", "players", len(g.players), "dealer", g.dealer.Hand)
	g.phase = PlayerTurn
	g.active = 0
	return nil
}

// PlayPlayers asks the policy for every remaining seat until all have stood
// or busted.
func (g *Game) PlayPlayers(ctx context.Context) error {
	for g.phase == PlayerTurn {
		var err error
		if g.config.Policy.Hit(g.State()) {
			_, err = g.Hit(ctx)
		} else {
			err = g.Stay()
		}
		if err != nil {
			return err
		}
	}
	if g.phase != DealerTurn {
		return fmt.Errorf("%w: players finished during %s", ErrInvalidPhase, g.phase)
	}
	return nil
}

// Hit draws one card for the active seat. A value over 21 ends the seat's
// turn as a bust.
func (g *Game) Hit(ctx context.Context) (cards.Rank, error) {
	if g.phase != PlayerTurn {
		return 0, fmt.Errorf("%w: hit during %s", ErrInvalidPhase, g.phase)
	}
	seat := g.active
	if err := g.drawFor(ctx, draw.Player, seat); err != nil {
		return 0, err
	}
	hand := g.players[seat].Hand
	drawn := hand[len(hand)-1]
	g.logger.Debug("Player hit", "seat", seat, "card", drawn, "value", hand.Value())
	if hand.IsBust() {
		g.logger.Debug("Player bust", "seat", seat, "value", hand.Value())
		g.advance()
	}
	return drawn, nil
}

// Stay ends the active seat's turn.
func (g *Game) Stay() error {
	if g.phase != PlayerTurn {
		return fmt.Errorf("%w: stay during %s", ErrInvalidPhase, g.phase)
	}
	g.logger.Debug("Player stays", "seat", g.active, "value", g.players[g.active].Value())
	g.advance()
	return nil
}

func (g *Game) advance() {
	g.active++
	if g.active >= len(g.players) {
		g.phase = DealerTurn
	}
}

// PlayDealer draws for the dealer while its value is below the stand-on
// value, then settles every seat. The dealer does not draw when every player
// has already busted.
func (g *Game) PlayDealer(ctx context.Context) error {
	if g.phase != DealerTurn {
		return fmt.Errorf("%w: dealer play during %s", ErrInvalidPhase, g.phase)
	}

	if g.allBusted() {
		g.logger.Debug("All players bust, dealer stands", "value", g.dealer.Value())
	} else {
		for g.dealer.Value() < g.config.DealerStandOn {
			if err := g.drawFor(ctx, draw.Dealer, 0); err != nil {
				return err
			}
			g.logger.Debug("Dealer hit", "card", g.dealer.Hand[len(g.dealer.Hand)-1], "value", g.dealer.Value())
		}
	}

	g.outcomes = make([]Outcome, len(g.players))
	for i, p := range g.players {
		g.outcomes[i] = Settle(p.Seat, p.Hand, g.dealer.Hand)
	}
	g.phase = Settled
	g.logger.Debug("Game settled", "dealer", g.dealer.Value(), "seats", len(g.players))
	return nil
}

func (g *Game) allBusted() bool {
	for _, p := range g.players {
		if !p.Hand.IsBust() {
			return false
		}
	}
	return true
}

// Outcomes returns the per-seat outcomes of a settled game.
func (g *Game) Outcomes() ([]Outcome, error) {
	if g.phase != Settled {
		if g.phase == Aborted {
			return nil, g.err
		}
		return nil, fmt.Errorf("%w: outcomes during %s", ErrInvalidPhase, g.phase)
	}
	out := make([]Outcome, len(g.outcomes))
	copy(out, g.outcomes)
	return out, nil
}

// drawFor asks the source for one card and appends it. Any failure aborts
// the game; no card is substituted.
func (g *Game) drawFor(ctx context.Context, turn draw.Role, seat int) error {
	rank, err := g.source.Draw(ctx, g.snapshot(turn, seat))
	if err == nil && !rank.Valid() {
		err = fmt.Errorf("%w: %d", cards.ErrInvalidRank, int(rank))
	}
	if err != nil {
		g.phase = Aborted
		g.err = fmt.Errorf("%w: %s draw for seat %d: %w", ErrAborted, turn, seat, err)
		g.logger.Warn("Game aborted", "turn", turn, "seat", seat, "error", err)
		return g.err
	}

	if turn == draw.Dealer {
		g.dealer.Hand.Add(rank)
	} else {
		g.players[seat].Hand.Add(rank)
	}
	return nil
}
