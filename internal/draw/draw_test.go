package draw

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns canned replies in order and counts calls.
type scripted struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *scripted) Complete(_ context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i >= len(s.replies) {
		return "", err
	}
	return s.replies[i], err
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      []cards.Rank
		random    bool
		wantErrIs error
	}{
		{name: "bare label", input: "7", want: []cards.Rank{cards.Seven}},
		{name: "quoted mixed case", input: `  "King" `, want: []cards.Rank{cards.King}},
		{name: "backticks", input: "`ace`", want: []cards.Rank{cards.Ace}},
		{name: "csv list", input: "10, Jack, 3", want: []cards.Rank{cards.Ten, cards.Jack, cards.Three}},
		{name: "sentence", input: "I draw the queen of hearts.", want: []cards.Rank{cards.Queen}},
		{name: "random sentinel", input: "Random", random: true},
		{name: "label before random", input: "5 then random", want: []cards.Rank{cards.Five}},
		{name: "empty", input: "   ", wantErrIs: ErrMalformedResponse},
		{name: "no label in prose", input: "I cannot do that", wantErrIs: ErrMalformedResponse},
		{name: "single invalid token", input: "joker", wantErrIs: cards.ErrInvalidRank},
		{name: "eleven is not a card", input: "11", wantErrIs: cards.ErrInvalidRank},
		{name: "word boundary", input: "spaced race", wantErrIs: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.input)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.random, got.Random)
			assert.Equal(t, tt.want, got.Ranks)
		})
	}
}

func TestUniformCoversAllRanks(t *testing.T) {
	src := NewUniform(randutil.New(1))
	seen := make(map[cards.Rank]int)
	for i := 0; i < 13000; i++ {
		r, err := src.Draw(context.Background(), State{})
		require.NoError(t, err)
		require.True(t, r.Valid())
		seen[r]++
	}
	require.Len(t, seen, cards.NumRanks)
	for r, n := range seen {
		// 1000 expected per label; 6 sigma is about 180.
		assert.InDelta(t, 1000, n, 200, "rank %s", r)
	}
}

func TestUniformRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewUniform(randutil.New(1)).Draw(ctx, State{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExternalRetriesUntilValid(t *testing.T) {
	provider := &scripted{replies: []string{"banana", "I refuse", "Queen"}}
	src, err := NewExternal(provider, NewUniform(randutil.New(1)), ExternalConfig{})
	require.NoError(t, err)

	state := State{Turn: Dealer, DealerHand: cards.Hand{cards.Ten, cards.Two}, DealerValue: 12}
	r, err := src.Draw(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, cards.Queen, r)
	assert.Equal(t, 3, src.Calls())
	require.Len(t, provider.prompts, 3)
	assert.Contains(t, provider.prompts[0], `"drawing_for": "dealer"`)
	assert.Contains(t, provider.prompts[0], `"dealer_hand_value": 12`)
}

func TestExternalExhaustsAfterMaxAttempts(t *testing.T) {
	provider := &scripted{replies: []string{"x", "y", "z", "4"}}
	src, err := NewExternal(provider, NewUniform(randutil.New(1)), ExternalConfig{})
	require.NoError(t, err)

	_, err = src.Draw(context.Background(), State{})
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, DefaultMaxAttempts, src.Calls(), "the fourth reply must never be requested")
}

func TestExternalProviderErrorsCountAsAttempts(t *testing.T) {
	boom := errors.New("503")
	provider := &scripted{replies: []string{"", "", "9"}, errs: []error{boom, boom}}
	src, err := NewExternal(provider, NewUniform(randutil.New(1)), ExternalConfig{})
	require.NoError(t, err)

	r, err := src.Draw(context.Background(), State{})
	require.NoError(t, err)
	assert.Equal(t, cards.Nine, r)
}

func TestExternalRandomSentinelDefersForRestOfGame(t *testing.T) {
	provider := &scripted{replies: []string{"random"}}
	src, err := NewExternal(provider, NewSequence(cards.Two, cards.Three, cards.Four), ExternalConfig{})
	require.NoError(t, err)

	var got []cards.Rank
	for i := 0; i < 3; i++ {
		r, err := src.Draw(context.Background(), State{Turn: Role(i % 2)})
		require.NoError(t, err)
		got = append(got, r)
	}
	assert.Equal(t, []cards.Rank{cards.Two, cards.Three, cards.Four}, got)
	assert.True(t, src.Deferred())
	assert.Equal(t, 1, src.Calls())
}

func TestExternalQueuesCSVForSameRole(t *testing.T) {
	provider := &scripted{replies: []string{"7, king", "2"}}
	src, err := NewExternal(provider, NewUniform(randutil.New(1)), ExternalConfig{QueueExtra: true})
	require.NoError(t, err)

	first, err := src.Draw(context.Background(), State{Turn: Dealer})
	require.NoError(t, err)
	second, err := src.Draw(context.Background(), State{Turn: Dealer})
	require.NoError(t, err)
	third, err := src.Draw(context.Background(), State{Turn: Dealer})
	require.NoError(t, err)

	assert.Equal(t, []cards.Rank{cards.Seven, cards.King, cards.Two}, []cards.Rank{first, second, third})
	assert.Equal(t, 2, src.Calls())
}

func TestExternalTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	called := make(chan struct{})
	provider := CompleterFunc(func(ctx context.Context, _ string) (string, error) {
		close(called)
		<-ctx.Done()
		return "", ctx.Err()
	})

	src, err := NewExternal(provider, NewUniform(randutil.New(1)), ExternalConfig{
		Timeout: 5 * time.Second,
		Clock:   mClock,
	})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := src.Draw(ctx, State{})
		errCh <- err
	}()

	<-called
	mClock.Advance(5 * time.Second).MustWait(ctx)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrTimeout)
	case <-ctx.Done():
		t.Fatal("draw did not return after timeout")
	}
}

func TestExternalTimeoutWithUnresponsiveProvider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mClock := quartz.NewMock(t)
	called := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	// The provider never looks at its context.
	provider := CompleterFunc(func(context.Context, string) (string, error) {
		close(called)
		<-release
		return "Ace", nil
	})

	src, err := NewExternal(provider, NewUniform(randutil.New(1)), ExternalConfig{
		Timeout: 5 * time.Second,
		Clock:   mClock,
	})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := src.Draw(ctx, State{})
		errCh <- err
	}()

	<-called
	mClock.Advance(5 * time.Second).MustWait(ctx)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrTimeout)
	case <-ctx.Done():
		t.Fatal("draw waited on a provider that ignores cancellation")
	}
	assert.Equal(t, 1, src.Calls())
}

func TestExternalFactory(t *testing.T) {
	provider := &scripted{replies: []string{"Queen", "4"}}
	factory, err := ExternalFactory(provider, ExternalConfig{Prompt: ZeroShotPrompt})
	require.NoError(t, err)

	first := factory(randutil.New(1))
	second := factory(randutil.New(2))
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)

	r, err := first.Draw(context.Background(), State{Turn: Dealer})
	require.NoError(t, err)
	assert.Equal(t, cards.Queen, r)
	r, err = second.Draw(context.Background(), State{Turn: Dealer})
	require.NoError(t, err)
	assert.Equal(t, cards.Four, r)
	require.Len(t, provider.prompts, 2)
	assert.NotContains(t, provider.prompts[0], "blackjack dealer")

	_, err = ExternalFactory(provider, ExternalConfig{Prompt: "{{.Nope"})
	assert.Error(t, err)
	_, err = ExternalFactory(nil, ExternalConfig{})
	assert.Error(t, err)
}

func TestExternalRejectsBadPrompt(t *testing.T) {
	_, err := NewExternal(&scripted{}, NewUniform(randutil.New(1)), ExternalConfig{Prompt: "{{.Nope"})
	require.Error(t, err)
}

func TestRiggedHitsOnly(t *testing.T) {
	src := &Rigged{Role: Dealer, Rank: cards.Ace, Inner: NewSequence(cards.Two, cards.Three, cards.Four), HitsOnly: true}
	ctx := context.Background()

	// Initial deal: dealer holds fewer than two cards, so inner is used.
	r, err := src.Draw(ctx, State{Turn: Dealer, DealerHand: cards.Hand{cards.Five}})
	require.NoError(t, err)
	assert.Equal(t, cards.Two, r)

	// Dealer hit: rigged.
	r, err = src.Draw(ctx, State{Turn: Dealer, DealerHand: cards.Hand{cards.Five, cards.Two}})
	require.NoError(t, err)
	assert.Equal(t, cards.Ace, r)

	// Player hit: untouched.
	r, err = src.Draw(ctx, State{Turn: Player, PlayerHand: cards.Hand{cards.Five, cards.Two}})
	require.NoError(t, err)
	assert.Equal(t, cards.Three, r)
}

func TestSequenceExhausts(t *testing.T) {
	seq, err := ParseSequence("ace", "10")
	require.NoError(t, err)
	_, _ = seq.Draw(context.Background(), State{})
	_, _ = seq.Draw(context.Background(), State{})
	_, err = seq.Draw(context.Background(), State{})
	require.ErrorIs(t, err, ErrExhausted)

	_, err = ParseSequence("ace", "eleven")
	require.ErrorIs(t, err, cards.ErrInvalidRank)
}

func TestStateJSON(t *testing.T) {
	s := State{
		Turn:        Player,
		PlayerHand:  cards.Hand{cards.Ace, cards.Nine},
		PlayerValue: 20,
		DealerHand:  cards.Hand{cards.King},
		DealerValue: 10,
	}
	out := s.JSON()
	for _, want := range []string{`"drawing_for": "player"`, `"ace"`, `"player_hand_value": 20`, `"king"`} {
		assert.True(t, strings.Contains(out, want), "missing %s in %s", want, out)
	}
}
