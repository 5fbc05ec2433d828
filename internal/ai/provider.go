package ai

import "context"

// Provider is a chat-completion backend. Implementations must honor
// the context deadline so a slow service cannot hang a room.
type Provider interface {
	Complete(ctx context.Context, model string, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, model string, systemPrompt string, prompt string) (string, error)
}
