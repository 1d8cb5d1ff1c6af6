// Package llmclient implements a JSON-in/JSON-out wrapper around a chat
// completion provider, with markdown-fence stripping and a fallback signal
// every calling node uses to fall back to its deterministic path.
package llmclient

import "context"

// CompletionRequest is the adapter's input contract.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSONOnly asks the provider for a JSON-object response when the
	// provider supports constrained output; callers MUST still validate the
	// returned content themselves, because not every openai-compatible
	// backend honors this.
	JSONOnly bool
}

// CompletionResponse carries either Content or Error, never both.
type CompletionResponse struct {
	Content string
	Error   string
}

// Adapter is the CORE contract. Nodes depend on this interface, never on
// the concrete provider client, so tests can substitute a deterministic
// stub.
type Adapter interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// Unavailable is a stub Adapter that always reports the provider as
// unavailable, forcing every calling node onto its deterministic fallback.
// Used in tests that want to exercise fallback paths without a live
// provider, and as a safe default before a provider is configured.
type Unavailable struct{}

// Complete implements Adapter.
func (Unavailable) Complete(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
	return CompletionResponse{Error: "llm adapter not configured"}, nil
}
