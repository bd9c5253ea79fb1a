package cards

import (
	"encoding/json"
	"errors"
	"testing"
)

func hand(labels ...string) Hand {
	h := make(Hand, 0, len(labels))
	for _, l := range labels {
		h.Add(MustParseRank(l))
	}
	return h
}

func TestParseRank(t *testing.T) {
	tests := []struct {
		input   string
		want    Rank
		wantErr bool
	}{
		{input: "2", want: Two},
		{input: "10", want: Ten},
		{input: "Jack", want: Jack},
		{input: "QUEEN", want: Queen},
		{input: "  king ", want: King},
		{input: "ace", want: Ace},
		{input: "1", wantErr: true},
		{input: "11", wantErr: true},
		{input: "joker", wantErr: true},
		{input: "", wantErr: true},
		{input: "T", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRank(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRank) {
					t.Fatalf("ParseRank(%q) error = %v, want ErrInvalidRank", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRank(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRank(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRanksOrderAndPoints(t *testing.T) {
	ranks := Ranks()
	if len(ranks) != NumRanks {
		t.Fatalf("Ranks() returned %d ranks, want %d", len(ranks), NumRanks)
	}
	wantLabels := []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "jack", "queen", "king", "ace"}
	wantPoints := []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 10, 10, 11}
	for i, r := range ranks {
		if r.String() != wantLabels[i] {
			t.Errorf("rank %d label = %q, want %q", i, r.String(), wantLabels[i])
		}
		if r.Points() != wantPoints[i] {
			t.Errorf("rank %s points = %d, want %d", r, r.Points(), wantPoints[i])
		}
	}
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name string
		hand Hand
		want int
	}{
		{"empty", Hand{}, 0},
		{"pair of aces", hand("ace", "ace"), 12},
		{"two aces and nine", hand("ace", "ace", "9"), 21},
		{"ten and jack", hand("10", "jack"), 20},
		{"blackjack", hand("ace", "king"), 21},
		{"hard bust", hand("king", "queen", "2"), 22},
		{"soft seventeen", hand("ace", "6"), 17},
		{"soft hand hardens", hand("ace", "6", "10"), 17},
		{"four aces", hand("ace", "ace", "ace", "ace"), 14},
		{"aces cannot save a bust", hand("ace", "ace", "king", "queen"), 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hand.Value(); got != tt.want {
				t.Errorf("Value(%v) = %d, want %d", tt.hand, got, tt.want)
			}
		})
	}
}

func TestHandPredicates(t *testing.T) {
	if !hand("ace", "king").IsBlackjack() {
		t.Error("ace+king should be blackjack")
	}
	if hand("ace", "5", "5").IsBlackjack() {
		t.Error("three-card 21 is not blackjack")
	}
	if !hand("ace", "6").IsSoft() {
		t.Error("ace+6 should be soft")
	}
	if hand("ace", "6", "10").IsSoft() {
		t.Error("ace+6+10 should be hard")
	}
	if !hand("10", "10", "5").IsBust() {
		t.Error("25 should bust")
	}
}

func TestCountsMerge(t *testing.T) {
	a := hand("ace", "ace", "2").Counts()
	b := hand("2", "king").Counts()

	ab := a.Clone()
	ab.Merge(b)
	ba := b.Clone()
	ba.Merge(a)

	for _, c := range []Counts{ab, ba} {
		if c[Ace] != 2 || c[Two] != 2 || c[King] != 1 {
			t.Errorf("unexpected merged counts %v", c)
		}
		if c.Total() != 5 {
			t.Errorf("Total() = %d, want 5", c.Total())
		}
	}
	if a[Two] != 1 {
		t.Error("Merge must not mutate the argument")
	}
}

func TestCountsJSON(t *testing.T) {
	c := hand("ace", "10", "ace").Counts()
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"10":1,"ace":2}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var decoded Counts
	if err := json.Unmarshal([]byte(`{"Queen":3,"7":1}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded[Queen] != 3 || decoded[Seven] != 1 {
		t.Errorf("decoded = %v", decoded)
	}

	if err := json.Unmarshal([]byte(`{"joker":1}`), &decoded); err == nil {
		t.Error("expected error for unknown label")
	}
}
