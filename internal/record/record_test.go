package record

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lox/dealerbench/internal/cards"
	"github.com/lox/dealerbench/internal/draw"
	"github.com/lox/dealerbench/internal/game"
	"github.com/lox/dealerbench/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var outcomes []game.Outcome
	for i := 0; i < 100; i++ {
		out, err := game.New(game.Config{Players: 2}, draw.NewUniform(randutil.ForGame(3, i))).Play(context.Background())
		require.NoError(t, err)
		outcomes = append(outcomes, out...)
	}

	path := filepath.Join(t.TempDir(), "runs", "baseline.jsonl")
	require.NoError(t, Write(path, outcomes))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)
}

func TestEncodeFormat(t *testing.T) {
	o := game.Settle(0, cards.Hand{cards.Ace, cards.Ace, cards.Nine}, cards.Hand{cards.Ten, cards.Jack})
	var sb strings.Builder
	require.NoError(t, Encode(&sb, []game.Outcome{o}))

	line := sb.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, `"player_hand":{"9":1,"ace":2}`)
	assert.Contains(t, line, `"dealer_hand":{"10":1,"jack":1}`)
	assert.Contains(t, line, `"player_win":1`)
	assert.Contains(t, line, `"player_hand_value":21`)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	valid := `{"seat":0,"player_win":1,"dealer_win":0,"push":0,"dealer_bust":0,"player_hand_value":19,"dealer_hand_value":17,"player_hand":{"10":1,"9":1},"dealer_hand":{"10":1,"7":1}}`

	tests := []struct {
		name  string
		input string
	}{
		{"unknown rank", strings.Replace(valid, `"9":1`, `"joker":1`, 1)},
		{"two winners", strings.Replace(valid, `"dealer_win":0`, `"dealer_win":1`, 1)},
		{"unknown field", strings.Replace(valid, `"seat":0`, `"seat":0,"stake":10`, 1)},
		{"value mismatch", strings.Replace(valid, `"player_hand_value":19`, `"player_hand_value":18`, 1)},
		{"not json", "player_win=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(valid + "\n\n" + tt.input + "\n"))
			require.ErrorIs(t, err, ErrInvalidRecord)
			assert.Contains(t, err.Error(), "line 3")
		})
	}

	got, err := Decode(strings.NewReader(valid + "\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].PlayerHand.Total())
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
