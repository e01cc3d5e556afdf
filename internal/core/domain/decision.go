package domain

import (
	"fmt"
	"strings"
)

// Mode is the answer mode chosen for a query.
type Mode int

const (
	// ModeDirect answers from the model's general knowledge, without context.
	ModeDirect Mode = iota

	// ModeRetrievalAugmented answers from retrieved document context.
	ModeRetrievalAugmented
)

// String returns the mode's wire/display name.
func (m Mode) String() string {
	switch m {
	case ModeRetrievalAugmented:
		return "retrieval-augmented"
	case ModeDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ContextItem is one selected chunk with its citation, handed to the
// external generation step.
type ContextItem struct {
	// Text is the chunk content to interpolate into the prompt.
	Text string

	// DocumentID and Locator form the citation shown to the user.
	DocumentID string
	Locator    string

	// Similarity is the score that selected this item.
	Similarity float64
}

// Citation returns the "document / locator" pair for display.
func (c ContextItem) Citation() string {
	return fmt.Sprintf("%s / %s", c.DocumentID, c.Locator)
}

// Decision is the retrieval engine's output: the chosen mode, and when
// retrieval-augmented, the selected context ordered by relevance.
// The scores that drove the decision are always reported so a caller can
// tell "no relevant documents" apart from a miscalibrated threshold.
type Decision struct {
	// Mode is the chosen answer mode.
	Mode Mode

	// Context holds the selected chunks, descending by similarity.
	// Empty in direct mode.
	Context []ContextItem

	// BestSimilarity is the top hit's score, or 0 when the index
	// returned no hits at all.
	BestSimilarity float64

	// Threshold is the gate the decision was made against.
	Threshold float64
}

// ContextBlock renders the selected context as numbered references for
// prompt interpolation. Returns "" in direct mode.
func (d Decision) ContextBlock() string {
	if len(d.Context) == 0 {
		return ""
	}

	parts := make([]string, 0, len(d.Context))
	for i, item := range d.Context {
		parts = append(parts, fmt.Sprintf("[Reference %d] (%s)\n%s", i+1, item.Citation(), item.Text))
	}
	return strings.Join(parts, "\n\n")
}
