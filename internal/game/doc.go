// Package game implements the Blackjack rules used to generate samples.
//
// A Game is a small state machine over one shoe-less deal:
//
//	Dealing → PlayerTurn → DealerTurn → Settled
//
// Every card comes from a draw.Source. The engine alone appends cards to
// hands; sources only see a draw.State snapshot. A draw failure moves the
// game to Aborted and no outcome is produced, so a broken source can never
// contribute a substituted card to the sample.
//
// # Basic Usage
//
//	g := game.New(game.Config{}, draw.NewUniform(randutil.New(42)))
//	outcomes, err := g.Play(ctx)
//
// Step-wise control is available for callers that make their own hit/stay
// decisions:
//
//	g.Deal(ctx)
//	for g.Phase() == game.PlayerTurn {
//	    if wantCard(g.State()) {
//	        g.Hit(ctx)
//	    } else {
//	        g.Stay()
//	    }
//	}
//	g.PlayDealer(ctx)
//	outcomes, _ := g.Outcomes()
//
// With a deterministic source the game is a pure function of the draw
// sequence, so a seeded Uniform source replays exactly.
package game
