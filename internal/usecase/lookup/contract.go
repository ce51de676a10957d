package lookup

import (
	"context"

	"github.com/kailas-cloud/bizlookup/internal/domain"
	"github.com/kailas-cloud/bizlookup/internal/domain/search/request"
)

// Completer sends a prompt to the hosted model.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error)
}

// PromptBuilder turns a query into the model instruction.
type PromptBuilder interface {
	Build(q request.Request) string
}
