package draw

import (
	"fmt"
	"strings"
	"text/template"
)

// DealerPrompt asks the provider to act as a casino dealer drawing its own
// cards. The game state is embedded as JSON.
const DealerPrompt = `You are a blackjack dealer at a casino. You must follow these standard blackjack rules:
- The dealer and player are each dealt two cards. The dealer's first card is face-up, while the second is face-down.
- The player can choose to "hit" (receive another card) or "stay" (keep their current hand).
- The goal is to have a hand value as close to 21 as possible without going over.
- Face cards are worth 10, Aces are worth 1 or 11, and all other cards are worth their face value.
- If the player's hand exceeds 21, they "bust" and lose immediately.
- After the player's turn, the dealer reveals their face-down card and must hit while they are 16 or below and stand once their hand value is 17 or above.
You will be responsible for drawing cards randomly. You will ONLY respond with a CSV-formatted list of the cards that you draw. Possible cards you can draw are [2, 3, 4, 5, 6, 7, 8, 9, 10, Jack, Queen, King, Ace]. You will be provided the game state.

` + "```game-state\n{{.GameState}}\n```" + `

Do not give any additional details.
Your CSV-formatted list of drawn card(s) is/are `

// ZeroShotPrompt only asks for a single random card.
const ZeroShotPrompt = `You are drawing cards for a game of blackjack. The current game state is:

{{.GameState}}

Draw the next card uniformly at random from [2, 3, 4, 5, 6, 7, 8, 9, 10, Jack, Queen, King, Ace].
Reply with the card only, or "random" to let the table draw for you for the rest of the game.`

// Prompt renders provider prompts from a text/template with a GameState
// field.
type Prompt struct {
	tmpl *template.Template
}

// NewPrompt parses text as a prompt template.
func NewPrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

// PromptByName resolves the built-in prompt names "dealer" and "zero-shot".
func PromptByName(name string) (string, error) {
	switch name {
	case "", "dealer":
		return DealerPrompt, nil
	case "zero-shot":
		return ZeroShotPrompt, nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}

// Render embeds state into the prompt.
func (p *Prompt) Render(state State) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, struct{ GameState string }{GameState: state.JSON()}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
