package draw

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lox/dealerbench/internal/cards"
)

// RandomSentinel is the reply that hands the rest of the game to the
// fallback uniform source.
const RandomSentinel = "random"

var labelPattern = regexp.MustCompile(`(?i)\b([2-9]|10|jack|queen|king|ace|random)\b`)

// Reply is a parsed provider response.
type Reply struct {
	Ranks  []cards.Rank // labels in the order they appear
	Random bool         // the first label was the random sentinel
}

// ParseResponse extracts rank labels from free text. The text is lower-cased,
// trimmed and stripped of quoting; the first recognised label decides the
// reply. A CSV list yields every label in order.
//
// A bare single token that is not a label fails with cards.ErrInvalidRank;
// any other text without a label fails with ErrMalformedResponse.
func ParseResponse(text string) (Reply, error) {
	normalized := normalizeReply(text)
	if normalized == "" {
		return Reply{}, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	matches := labelPattern.FindAllString(normalized, -1)
	if len(matches) == 0 {
		if !strings.ContainsAny(normalized, " ,\n\t") {
			_, err := cards.ParseRank(normalized)
			return Reply{}, err
		}
		return Reply{}, fmt.Errorf("%w: no card label in %q", ErrMalformedResponse, truncate(normalized, 80))
	}

	if matches[0] == RandomSentinel {
		return Reply{Random: true}, nil
	}

	var reply Reply
	for _, m := range matches {
		if m == RandomSentinel {
			break
		}
		r, err := cards.ParseRank(m)
		if err != nil {
			// The pattern only matches valid labels.
			return Reply{}, err
		}
		reply.Ranks = append(reply.Ranks, r)
	}
	return reply, nil
}

func normalizeReply(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.NewReplacer("`", "", `"`, "", "'", "", "“", "", "”", "").Replace(s)
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
