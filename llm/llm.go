package llm

import "context"

// Model is the language-model interface the workflow nodes depend on.
type Model interface {
	// Chat sends a system and a user message and returns the assistant's
	// free-text reply.
	Chat(ctx context.Context, system, user string) (string, error)

	// ChatStructured is Chat with the provider's JSON output mode enabled.
	// The reply is expected to be a single JSON object; callers still parse
	// and validate it themselves.
	ChatStructured(ctx context.Context, system, user string) (string, error)
}
