package driven

import (
	"context"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

// VectorIndex persists chunk embeddings and answers similarity queries.
//
// Entries are keyed by (document id, chunk index), so upserting identical
// content is a no-op in effect. The index must survive process restart
// (except the in-memory test driver), support concurrent reads during
// single-document writes, and validate the stored embedding model and
// dimension against the configured embedder at open time.
//
// Storage I/O failures wrap domain.ErrIndexUnavailable and are always
// surfaced: an index silently returning empty results would corrupt the
// mode decision downstream.
type VectorIndex interface {
	// Upsert inserts or replaces entries keyed by (document id, chunk index).
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Replace atomically swaps all of a document's entries for the given
	// set. A concurrent reader observes either the old entries or the new
	// ones, never a document mid-replace.
	Replace(ctx context.Context, documentID string, entries []domain.IndexEntry) error

	// Query returns the k entries most similar to the vector, descending
	// by cosine similarity, ties broken by ascending document id then
	// ascending chunk index. Ordering is deterministic for identical
	// (index state, vector, k).
	Query(ctx context.Context, vector []float32, k int) ([]domain.Hit, error)

	// Delete removes all entries for a document.
	Delete(ctx context.Context, documentID string) error

	// Count returns the total number of entries.
	Count(ctx context.Context) (int, error)

	// DocumentCount returns the number of distinct indexed documents.
	DocumentCount(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
