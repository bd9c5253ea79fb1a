package draw

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/dealerbench/internal/cards"
)

// DefaultMaxAttempts bounds provider calls per drawn card.
const DefaultMaxAttempts = 3

// Completer is an opaque text-completion provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ExternalConfig configures an External source.
type ExternalConfig struct {
	Prompt      string        // prompt template; DealerPrompt when empty
	MaxAttempts int           // provider calls per card; DefaultMaxAttempts when zero
	Timeout     time.Duration // per call; zero disables the deadline
	QueueExtra  bool          // keep further labels of a CSV reply for later draws of the same role
	Clock       quartz.Clock
	Logger      *log.Logger
}

// External draws cards by asking a Completer. Replies are validated by
// ParseResponse and retried up to MaxAttempts; a call that outlives Timeout
// ends the draw with ErrTimeout. The random sentinel makes the source defer
// to its fallback for the rest of the game.
//
// An External carries per-game state and must not be shared across games or
// goroutines; build one per game with ExternalFactory.
type External struct {
	completer Completer
	fallback  Source
	prompt    *Prompt
	config    ExternalConfig
	clock     quartz.Clock
	logger    *log.Logger

	deferred  bool
	queued    []cards.Rank
	queueRole Role

	calls int
}

// NewExternal returns an External source. fallback serves draws after the
// provider replies with the random sentinel.
func NewExternal(completer Completer, fallback Source, config ExternalConfig) (*External, error) {
	if completer == nil {
		return nil, errors.New("external draw source requires a completer")
	}
	if fallback == nil {
		return nil, errors.New("external draw source requires a fallback source")
	}
	prompt, err := config.parsePrompt()
	if err != nil {
		return nil, err
	}
	return newExternal(completer, fallback, prompt, config), nil
}

func (c ExternalConfig) parsePrompt() (*Prompt, error) {
	text := c.Prompt
	if text == "" {
		text = DealerPrompt
	}
	return NewPrompt(text)
}

// newExternal assumes completer and fallback are non-nil.
func newExternal(completer Completer, fallback Source, prompt *Prompt, config ExternalConfig) *External {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &External{
		completer: completer,
		fallback:  fallback,
		prompt:    prompt,
		config:    config,
		clock:     clock,
		logger:    logger.WithPrefix("external-draw"),
	}
}

// ExternalFactory builds one External per game, each with a Uniform fallback
// on the game's own stream. The prompt template is parsed once.
func ExternalFactory(completer Completer, config ExternalConfig) (Factory, error) {
	if completer == nil {
		return nil, errors.New("external draw source requires a completer")
	}
	prompt, err := config.parsePrompt()
	if err != nil {
		return nil, err
	}
	return func(rng *rand.Rand) Source {
		return newExternal(completer, NewUniform(rng), prompt, config)
	}, nil
}

// Deferred reports whether the provider handed the game to the fallback.
func (e *External) Deferred() bool {
	return e.deferred
}

// Calls returns the number of provider calls made so far.
func (e *External) Calls() int {
	return e.calls
}

// Draw implements Source.
func (e *External) Draw(ctx context.Context, state State) (cards.Rank, error) {
	if e.deferred {
		return e.fallback.Draw(ctx, state)
	}
	if len(e.queued) > 0 && e.queueRole == state.Turn {
		r := e.queued[0]
		e.queued = e.queued[1:]
		e.logger.Debug("Using queued card", "card", r, "turn", state.Turn)
		return r, nil
	}
	e.queued = nil

	prompt, err := e.prompt.Render(state)
	if err != nil {
		return 0, err
	}

	var lastErr error
	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		text, err := e.complete(ctx, prompt)
		if err != nil {
			if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
				return 0, err
			}
			e.logger.Debug("Provider call failed", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		reply, err := ParseResponse(text)
		if err != nil {
			e.logger.Debug("Rejected provider reply", "attempt", attempt, "reply", truncate(text, 80), "error", err)
			lastErr = err
			continue
		}

		if reply.Random {
			e.logger.Debug("Provider deferred to random draws", "turn", state.Turn)
			e.deferred = true
			return e.fallback.Draw(ctx, state)
		}

		if e.config.QueueExtra && len(reply.Ranks) > 1 {
			e.queued = append([]cards.Rank(nil), reply.Ranks[1:]...)
			e.queueRole = state.Turn
		}
		e.logger.Debug("Provider drew card", "card", reply.Ranks[0], "turn", state.Turn, "attempt", attempt)
		return reply.Ranks[0], nil
	}

	return 0, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, e.config.MaxAttempts, lastErr)
}

// complete calls the provider in its own goroutine so a provider that
// ignores ctx cannot hold the draw past Timeout. The abandoned call drains
// into a buffered channel.
func (e *External) complete(ctx context.Context, prompt string) (string, error) {
	e.calls++
	if e.config.Timeout <= 0 {
		return e.completer.Complete(ctx, prompt)
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	timeoutFired := make(chan struct{})
	timer := e.clock.AfterFunc(e.config.Timeout, func() {
		close(timeoutFired)
	}, "external", "complete")
	defer timer.Stop()

	type reply struct {
		text string
		err  error
	}
	replies := make(chan reply, 1)
	go func() {
		text, err := e.completer.Complete(callCtx, prompt)
		replies <- reply{text, err}
	}()

	select {
	case r := <-replies:
		return r.text, r.err
	case <-timeoutFired:
		return "", fmt.Errorf("%w after %s", ErrTimeout, e.config.Timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
