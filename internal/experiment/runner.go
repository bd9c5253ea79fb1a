// Package experiment plays batches of games against a draw source and
// compares the resulting samples.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/dealerbench/internal/draw"
	"github.com/lox/dealerbench/internal/game"
	"github.com/lox/dealerbench/internal/randutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrSampleStarvation is returned when fewer games completed than the
// configured minimum. The arm is still returned; statistics computed from it
// are not meaningful.
var ErrSampleStarvation = errors.New("too few completed games")

// ErrGameTimeout marks a game abandoned because it ran past GameTimeout.
var ErrGameTimeout = errors.New("game timed out")

// Config controls one arm of an experiment.
type Config struct {
	Name    string
	Games   int
	Workers int   // defaults to GOMAXPROCS
	Seed    int64 // zero picks a time-based seed
	Game    game.Config

	// GameTimeout bounds a whole game; zero disables it.
	GameTimeout time.Duration
	// MinCompleted is the fewest completed games accepted without
	// ErrSampleStarvation.
	MinCompleted int

	Clock quartz.Clock
}

// Runner plays the games of one arm.
type Runner struct {
	config  Config
	factory draw.Factory
	logger  zerolog.Logger
	clock   quartz.Clock
}

// NewRunner creates a runner that builds each game's source with factory.
func NewRunner(config Config, factory draw.Factory, logger zerolog.Logger) *Runner {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Name == "" {
		config.Name = "arm"
	}
	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Runner{
		config:  config,
		factory: factory,
		logger:  logger.With().Str("arm", config.Name).Logger(),
		clock:   clock,
	}
}

type slot struct {
	outcomes []game.Outcome
	done     bool
	timedOut bool
	deferred bool
	err      error
}

// Run plays config.Games games across config.Workers goroutines. Every game
// draws from its own stream derived from the seed and its index, so the
// result does not depend on scheduling.
//
// Games that abort or time out are counted as abandoned and contribute no
// outcomes. When ctx is cancelled no further games start, in-flight games
// are discarded, and the partial arm is returned with ctx's error.
func (r *Runner) Run(ctx context.Context) (*Arm, error) {
	if r.config.Games < 1 {
		return nil, fmt.Errorf("games must be positive, got %d", r.config.Games)
	}
	if r.factory == nil {
		return nil, errors.New("runner requires a draw source factory")
	}

	seed := randutil.Seed(r.config.Seed)
	r.logger.Info().
		Int("games", r.config.Games).
		Int("workers", r.config.Workers).
		Int64("seed", seed).
		Dur("game_timeout", r.config.GameTimeout).
		Msg("Starting arm")

	start := r.clock.Now()
	slots := make([]slot, r.config.Games)

	var g errgroup.Group
	g.SetLimit(r.config.Workers)
	for i := range slots {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			slots[i] = r.play(ctx, seed, i)
			return nil
		})
	}
	_ = g.Wait()

	arm := &Arm{Name: r.config.Name, Seed: seed, Games: r.config.Games}
	for i := range slots {
		s := &slots[i]
		switch {
		case s.done:
			arm.add(s.outcomes)
			if s.deferred {
				arm.Deferred++
			}
		case s.err != nil && ctx.Err() == nil:
			arm.Abandoned++
			if s.timedOut {
				arm.TimedOut++
			}
		}
	}

	elapsed := r.clock.Since(start)
	r.logger.Info().
		Int("completed", arm.Completed).
		Int("abandoned", arm.Abandoned).
		Int("timed_out", arm.TimedOut).
		Int("deferred", arm.Deferred).
		Dur("elapsed", elapsed).
		Msg("Arm finished")

	if err := ctx.Err(); err != nil {
		return arm, fmt.Errorf("arm %s cancelled after %d games: %w", arm.Name, arm.Completed, err)
	}
	if arm.Completed < r.config.MinCompleted {
		return arm, fmt.Errorf("%w: arm %s completed %d of %d games, need %d",
			ErrSampleStarvation, arm.Name, arm.Completed, r.config.Games, r.config.MinCompleted)
	}
	return arm, nil
}

// play runs one game in its own goroutine so a source that ignores its
// context cannot hold the worker past GameTimeout. An abandoned game keeps
// its own source and drains into a buffered channel.
func (r *Runner) play(ctx context.Context, seed int64, index int) slot {
	gctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		outcomes []game.Outcome
		err      error
	}
	timeoutFired := make(chan struct{})
	if r.config.GameTimeout > 0 {
		timer := r.clock.AfterFunc(r.config.GameTimeout, func() {
			close(timeoutFired)
		}, "experiment", "game")
		defer timer.Stop()
	}

	src := r.factory(randutil.ForGame(seed, index))
	results := make(chan result, 1)
	go func() {
		outcomes, err := game.New(r.config.Game, src).Play(gctx)
		results <- result{outcomes, err}
	}()

	var res result
	select {
	case res = <-results:
	case <-timeoutFired:
		err := fmt.Errorf("%w after %s", ErrGameTimeout, r.config.GameTimeout)
		r.logger.Debug().Err(err).Int("game", index).Msg("Game abandoned")
		return slot{err: err, timedOut: true}
	case <-ctx.Done():
		return slot{err: ctx.Err()}
	}

	if res.err != nil {
		if ctx.Err() == nil {
			r.logger.Debug().Err(res.err).Int("game", index).Msg("Game abandoned")
		}
		return slot{err: res.err}
	}

	s := slot{outcomes: res.outcomes, done: true}
	if d, ok := src.(interface{ Deferred() bool }); ok {
		s.deferred = d.Deferred()
	}
	return s
}
