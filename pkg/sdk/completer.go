package bizlookup

import "context"

// Completer is a custom completion backend (for tests or unsupported providers).
// Errors carrying an HTTP status in their text ("429", "401") are classified
// the same way provider errors are.
type Completer interface {
	Complete(ctx context.Context, prompt string, webSearch bool) (Completion, error)
}

// Completion is the raw model answer with its grounding sources.
type Completion struct {
	Text        string
	Citations   []Citation
	TotalTokens int
}
