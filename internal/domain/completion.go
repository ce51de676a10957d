package domain

import (
	"context"

	"github.com/kailas-cloud/bizlookup/internal/domain/citation"
)

// Completer is the shared text completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// HealthChecker verifies completion provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CredentialChecker reports whether a completer holds a provider credential.
// Decorators forward it so a missing key is detected before throttling or budgeting.
type CredentialChecker interface {
	HasCredential() bool
}

// HasCredential reports false only when c declares a missing credential.
// Completers that do not implement CredentialChecker are assumed to be configured.
func HasCredential(c Completer) bool {
	cc, ok := c.(CredentialChecker)
	return !ok || cc.HasCredential()
}

// CompletionRequest is a single-turn prompt for the hosted model.
type CompletionRequest struct {
	Prompt      string
	Temperature float32
	WebSearch   bool
}

// CompletionResponse carries generated text, grounding sources and token usage
// through the decorator chain.
type CompletionResponse struct {
	Text             string
	Citations        []citation.Citation
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
