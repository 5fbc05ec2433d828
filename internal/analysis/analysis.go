package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevmo/sprintdeck/internal/ai"
)

const systemPrompt = "You are a concise Scrum Poker assistant. Respond in plain text, no markdown."

// Bridge turns a captured vote rendering into a short natural-language
// summary via an AI provider. It owns the prompt construction and the
// request timeout; any provider failure comes back as an error with a
// human-readable reason, never as a panic.
type Bridge struct {
	provider ai.Provider
	model    string
	timeout  time.Duration
}

func New(provider ai.Provider, model string, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Bridge{provider: provider, model: model, timeout: timeout}
}

// Analyze asks the provider to summarize the votes. The votes argument
// is the pre-rendered "- name: card" block captured when the request
// was made.
func (b *Bridge) Analyze(ctx context.Context, votes, cardSet string) (string, error) {
	prompt := buildPrompt(votes, cardSet)

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	summary, err := b.provider.CompleteWithSystem(ctx, b.model, systemPrompt, prompt)
	if err != nil {
		return "", fmt.Errorf("AI analysis failed: %v", err)
	}
	return strings.TrimSpace(summary), nil
}

func buildPrompt(votes, cardSet string) string {
	return fmt.Sprintf(
		"You are a helpful Scrum Poker assistant. The team just voted on a story using the "+
			"'%s' card set. Here are the votes:\n\n"+
			"%s\n\n"+
			"Please provide a brief summary (2-4 sentences). "+
			"Highlight any outlying votes that are significantly different from the majority. "+
			"If there is strong consensus, say so. "+
			"Suggest whether the team should discuss further or can agree on an estimate. "+
			"Keep it concise and friendly. Use one or two emojis.",
		cardSet, votes)
}
