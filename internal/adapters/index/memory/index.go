// Package memory provides an in-memory vector index for tests and
// throwaway sessions. It implements the full index contract, including
// deterministic query ordering, but nothing survives process exit.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Index is an in-memory vector index keyed by (document id, chunk index).
type Index struct {
	mu         sync.RWMutex
	dimensions int
	// entries[documentID][chunkIndex]
	entries map[string]map[int]domain.IndexEntry
}

var _ driven.VectorIndex = (*Index)(nil)

// New creates an empty in-memory index expecting vectors of the given size.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}
	return &Index{
		dimensions: dimensions,
		entries:    make(map[string]map[int]domain.IndexEntry),
	}, nil
}

// Upsert inserts or replaces entries keyed by (document id, chunk index).
func (idx *Index) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.upsertLocked(entries)
}

// Replace atomically swaps all of a document's entries for the given set.
func (idx *Index) Replace(_ context.Context, documentID string, entries []domain.IndexEntry) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.entries, documentID)
	return idx.upsertLocked(entries)
}

func (idx *Index) upsertLocked(entries []domain.IndexEntry) error {
	for _, entry := range entries {
		if len(entry.Embedding) != idx.dimensions {
			return fmt.Errorf("%w: entry %s/%d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, entry.Chunk.DocumentID, entry.Chunk.Index,
				len(entry.Embedding), idx.dimensions)
		}

		doc := idx.entries[entry.Chunk.DocumentID]
		if doc == nil {
			doc = make(map[int]domain.IndexEntry)
			idx.entries[entry.Chunk.DocumentID] = doc
		}
		doc[entry.Chunk.Index] = entry
	}
	return nil
}

// Query returns the k entries most similar to the vector, descending by
// cosine similarity, ties broken by ascending document id then chunk index.
func (idx *Index) Query(_ context.Context, vector []float32, k int) ([]domain.Hit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []domain.Hit
	for _, doc := range idx.entries {
		for _, entry := range doc {
			hits = append(hits, domain.Hit{
				Chunk:      entry.Chunk,
				Similarity: cosineSimilarity(vector, entry.Embedding),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Chunk.DocumentID != hits[j].Chunk.DocumentID {
			return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
		}
		return hits[i].Chunk.Index < hits[j].Chunk.Index
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes all entries for a document.
func (idx *Index) Delete(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.entries, documentID)
	return nil
}

// Count returns the total number of entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var count int
	for _, doc := range idx.entries {
		count += len(doc)
	}
	return count, nil
}

// DocumentCount returns the number of distinct indexed documents.
func (idx *Index) DocumentCount(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries), nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
