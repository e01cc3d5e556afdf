package driving

import (
	"context"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

// IngestOrchestrator drives extraction, chunking, embedding and indexing
// for the document corpus.
type IngestOrchestrator interface {
	// IngestAll ingests every document under the corpus root. Extraction
	// failures skip only the affected document; quota and index failures
	// abort the run.
	IngestAll(ctx context.Context) (*IngestReport, error)

	// Ingest replaces a single document's index entries. Safe to re-run
	// on unchanged input (idempotent replace semantics).
	Ingest(ctx context.Context, raw domain.RawDocument) error

	// Remove deletes a document's index entries.
	Remove(ctx context.Context, documentID string) error
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	// DocumentsIndexed is the count of successfully replaced documents.
	DocumentsIndexed int

	// DocumentsSkipped counts documents skipped over extraction failures.
	DocumentsSkipped int

	// ChunksIndexed is the total number of entries written.
	ChunksIndexed int

	// Errors holds the per-document failures that did not abort the run.
	Errors []error
}
