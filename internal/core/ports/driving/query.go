package driving

import (
	"context"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

// QueryService decides, per question, between retrieval-augmented and
// direct mode, and assembles the context and citations for the external
// generation step.
type QueryService interface {
	// Ask embeds the question, queries the index and applies the
	// similarity threshold. Infrastructure failures propagate wrapped in
	// domain.ErrQueryFailed; they are never reported as a direct-mode
	// decision.
	Ask(ctx context.Context, question string) (*domain.Decision, error)
}
