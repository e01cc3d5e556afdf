// Package chromem provides a vector index backed by chromem-go, an embedded
// persistent vector database. It is an alternative to the SQLite driver for
// larger corpora, since chromem keeps vectors in memory and searches them
// concurrently.
//
// chromem stores documents in per-collection gob files under the data
// directory. The embedding model name, vector dimensions, and the set of
// indexed document ids live in a sidecar meta.json next to them; the model
// and dimensions are validated on open the same way the SQLite driver does
// it, failing with domain.ErrModelMismatch or domain.ErrDimensionMismatch.
package chromem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

const (
	collectionName = "chunks"
	metaFileName   = "meta.json"
)

// indexMeta is the sidecar metadata persisted alongside the chromem files.
type indexMeta struct {
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
	Documents  []string `json:"documents"`
}

// Index is a chromem-go backed vector index. Reads run concurrently with
// each other and exclusively with writes, so a query never observes a
// half-finished replace.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	metaPath   string
	model      string
	dimensions int
	documents  map[string]struct{}
}

var _ driven.VectorIndex = (*Index)(nil)

// New opens (or creates) a chromem index at the specified data directory and
// validates it against the given embedding model and vector dimensions. If
// dataDir is empty, defaults to ~/.docquery/data/chromem.
func New(dataDir, model string, dimensions int) (*Index, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: embedding model name is required", domain.ErrInvalidInput)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docquery", "data", "chromem")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrIndexUnavailable, err)
	}

	idx := &Index{
		metaPath:   filepath.Join(dataDir, metaFileName),
		model:      model,
		dimensions: dimensions,
		documents:  make(map[string]struct{}),
	}

	if err := idx.loadMeta(); err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dataDir, "vectors"), false)
	if err != nil {
		return nil, fmt.Errorf("%w: opening vector db: %w", domain.ErrIndexUnavailable, err)
	}

	// Embeddings are computed upstream and attached to every document, so
	// the collection's embedding func must never run.
	col, err := db.GetOrCreateCollection(collectionName, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection: %w", domain.ErrIndexUnavailable, err)
	}

	idx.db = db
	idx.collection = col
	return idx, nil
}

// rejectEmbeddingFunc guards against accidental text queries: all vectors
// come from the embedding service, never from the index.
func rejectEmbeddingFunc(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem index does not embed text; pass vectors explicitly")
}

// loadMeta reads the sidecar metadata, validating model and dimensions, or
// writes fresh metadata for a new index.
func (idx *Index) loadMeta() error {
	data, err := os.ReadFile(idx.metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return idx.saveMetaLocked()
	}
	if err != nil {
		return fmt.Errorf("%w: reading index metadata: %w", domain.ErrIndexUnavailable, err)
	}

	var meta indexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("%w: parsing index metadata: %w", domain.ErrIndexUnavailable, err)
	}

	if meta.Model != idx.model {
		return fmt.Errorf("%w: index was built with model %q, configured model is %q (re-ingest to rebuild)",
			domain.ErrModelMismatch, meta.Model, idx.model)
	}
	if meta.Dimensions != idx.dimensions {
		return fmt.Errorf("%w: index stores %d-dimensional vectors, embedder produces %d",
			domain.ErrDimensionMismatch, meta.Dimensions, idx.dimensions)
	}

	for _, doc := range meta.Documents {
		idx.documents[doc] = struct{}{}
	}
	return nil
}

// saveMetaLocked persists the sidecar metadata. Callers must hold mu (or be
// in single-threaded initialisation).
func (idx *Index) saveMetaLocked() error {
	meta := indexMeta{
		Model:      idx.model,
		Dimensions: idx.dimensions,
		Documents:  make([]string, 0, len(idx.documents)),
	}
	for doc := range idx.documents {
		meta.Documents = append(meta.Documents, doc)
	}
	sort.Strings(meta.Documents)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling index metadata: %w", err)
	}
	if err := os.WriteFile(idx.metaPath, data, 0600); err != nil {
		return fmt.Errorf("%w: writing index metadata: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// entryID builds the chromem document id for a chunk. Zero-padding keeps ids
// unique per (document, chunk index) pair.
func entryID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s#%06d", documentID, chunkIndex)
}

// toChromemDocs converts index entries to chromem documents, validating
// vector dimensions.
func (idx *Index) toChromemDocs(entries []domain.IndexEntry) ([]chromem.Document, error) {
	docs := make([]chromem.Document, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Embedding) != idx.dimensions {
			return nil, fmt.Errorf("%w: entry %s/%d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, entry.Chunk.DocumentID, entry.Chunk.Index,
				len(entry.Embedding), idx.dimensions)
		}

		metadata := map[string]string{
			"document_id": entry.Chunk.DocumentID,
			"chunk_index": strconv.Itoa(entry.Chunk.Index),
			"locator":     entry.Chunk.Locator,
		}
		if pos, ok := entry.Chunk.Metadata["section_position"]; ok {
			metadata["section_position"] = fmt.Sprintf("%v", pos)
		}

		docs = append(docs, chromem.Document{
			ID:        entryID(entry.Chunk.DocumentID, entry.Chunk.Index),
			Content:   entry.Chunk.Text,
			Metadata:  metadata,
			Embedding: entry.Embedding,
		})
	}
	return docs, nil
}

// Upsert inserts or replaces entries keyed by (document id, chunk index).
func (idx *Index) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs, err := idx.toChromemDocs(entries)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: adding documents: %w", domain.ErrIndexUnavailable, err)
	}

	for _, entry := range entries {
		idx.documents[entry.Chunk.DocumentID] = struct{}{}
	}
	return idx.saveMetaLocked()
}

// Replace atomically swaps all of a document's entries for the given set.
func (idx *Index) Replace(ctx context.Context, documentID string, entries []domain.IndexEntry) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	docs, err := idx.toChromemDocs(entries)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil); err != nil {
		return fmt.Errorf("%w: clearing document entries: %w", domain.ErrIndexUnavailable, err)
	}

	if len(docs) > 0 {
		if err := idx.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("%w: adding documents: %w", domain.ErrIndexUnavailable, err)
		}
		idx.documents[documentID] = struct{}{}
	} else {
		delete(idx.documents, documentID)
	}

	return idx.saveMetaLocked()
}

// Query returns the k entries most similar to the vector, descending by
// cosine similarity, ties broken by ascending document id then chunk index.
func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]domain.Hit, error) {
	if len(vector) != idx.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	// The read lock spans the count clamp and the search itself, so a
	// concurrent Replace cannot expose its delete-then-add window.
	idx.mu.RLock()
	count := idx.collection.Count()
	if count == 0 {
		idx.mu.RUnlock()
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := idx.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	idx.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %w", domain.ErrIndexUnavailable, err)
	}

	hits := make([]domain.Hit, 0, len(results))
	for _, result := range results {
		chunkIndex, err := strconv.Atoi(result.Metadata["chunk_index"])
		if err != nil {
			return nil, fmt.Errorf("%w: corrupt chunk index in entry %s: %w",
				domain.ErrIndexUnavailable, result.ID, err)
		}

		chunk := domain.Chunk{
			DocumentID: result.Metadata["document_id"],
			Index:      chunkIndex,
			Locator:    result.Metadata["locator"],
			Text:       result.Content,
		}
		if pos, ok := result.Metadata["section_position"]; ok {
			chunk.Metadata = map[string]any{"section_position": pos}
		}

		hits = append(hits, domain.Hit{
			Chunk:      chunk,
			Similarity: float64(result.Similarity),
		})
	}

	// chromem orders by similarity only; re-sort so ties are stable.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Chunk.DocumentID != hits[j].Chunk.DocumentID {
			return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
		}
		return hits[i].Chunk.Index < hits[j].Chunk.Index
	})

	return hits, nil
}

// Delete removes all entries for a document.
func (idx *Index) Delete(ctx context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err := idx.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil); err != nil {
		return fmt.Errorf("%w: deleting document entries: %w", domain.ErrIndexUnavailable, err)
	}

	delete(idx.documents, documentID)
	return idx.saveMetaLocked()
}

// Count returns the total number of entries.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.collection.Count(), nil
}

// DocumentCount returns the number of distinct indexed documents.
func (idx *Index) DocumentCount(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.documents), nil
}

// Close releases resources. chromem persists on every write, so there is
// nothing to flush.
func (idx *Index) Close() error {
	return nil
}
