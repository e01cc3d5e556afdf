package driven

import (
	"context"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

// ChangeType represents the type of corpus change observed by a watcher.
type ChangeType int

const (
	// ChangeUpserted indicates a document was created or modified.
	ChangeUpserted ChangeType = iota

	// ChangeRemoved indicates a document was deleted.
	ChangeRemoved
)

// CorpusChange is a change event for a single document under the root.
type CorpusChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Document is the affected document. For ChangeRemoved only the ID
	// is populated.
	Document domain.RawDocument
}

// CorpusScanner picks up raw documents from the configured corpus root.
type CorpusScanner interface {
	// Scan streams every supported document under the root. Per-file read
	// failures go to the error channel without stopping the scan; both
	// channels close when the scan completes or the context is cancelled.
	Scan(ctx context.Context) (<-chan domain.RawDocument, <-chan error)

	// Load reads a single document by its relative path.
	Load(ctx context.Context, id string) (*domain.RawDocument, error)

	// Watch emits change events for documents under the root until the
	// context is cancelled.
	Watch(ctx context.Context) (<-chan CorpusChange, error)

	// Close releases watcher resources.
	Close() error
}
