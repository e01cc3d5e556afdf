package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// mockScanner feeds preset documents and errors through Scan. Errors in
// scanErrs arrive before any document, lateScanErrs after the last one.
type mockScanner struct {
	docs         []domain.RawDocument
	scanErrs     []error
	lateScanErrs []error
}

var _ driven.CorpusScanner = (*mockScanner)(nil)

func (m *mockScanner) Scan(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsCh := make(chan domain.RawDocument)
	errsCh := make(chan error, len(m.scanErrs)+len(m.lateScanErrs)+1)

	go func() {
		defer close(docsCh)
		defer close(errsCh)

		for _, err := range m.scanErrs {
			errsCh <- err
		}
		for _, doc := range m.docs {
			select {
			case docsCh <- doc:
			case <-ctx.Done():
				return
			}
		}
		for _, err := range m.lateScanErrs {
			errsCh <- err
		}
	}()

	return docsCh, errsCh
}

func (m *mockScanner) Load(_ context.Context, id string) (*domain.RawDocument, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, fmt.Errorf("document %s not found", id)
}

func (m *mockScanner) Watch(context.Context) (<-chan driven.CorpusChange, error) {
	return nil, fmt.Errorf("watch not supported")
}

func (m *mockScanner) Close() error { return nil }

// mockEmbedder returns canned vectors, with optional per-call failures.
type mockEmbedder struct {
	mu         sync.Mutex
	dimensions int
	embedFunc  func(text string) ([]float32, error)
	calls      int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder(dimensions int) *mockEmbedder {
	return &mockEmbedder{dimensions: dimensions}
}

func (m *mockEmbedder) embed(text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	fn := m.embedFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(text)
	}
	// Deterministic vector derived from text length.
	vec := make([]float32, m.dimensions)
	for i := range vec {
		vec[i] = float32(len(text)%7) + float32(i)
	}
	return vec, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return m.embed(text)
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := m.embed(text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dimensions }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

// mockIndex records writes and serves canned query results.
type mockIndex struct {
	mu         sync.Mutex
	replaced   map[string][]domain.IndexEntry
	deleted    []string
	queryHits  []domain.Hit
	replaceErr error
	queryErr   error
	deleteErr  error
}

var _ driven.VectorIndex = (*mockIndex)(nil)

func newMockIndex() *mockIndex {
	return &mockIndex{replaced: make(map[string][]domain.IndexEntry)}
}

func (m *mockIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range entries {
		m.replaced[entry.Chunk.DocumentID] = append(m.replaced[entry.Chunk.DocumentID], entry)
	}
	return nil
}

func (m *mockIndex) Replace(_ context.Context, documentID string, entries []domain.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaced[documentID] = entries
	return nil
}

func (m *mockIndex) Query(_ context.Context, _ []float32, k int) ([]domain.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	hits := m.queryHits
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndex) Delete(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockIndex) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int
	for _, entries := range m.replaced {
		count += len(entries)
	}
	return count, nil
}

func (m *mockIndex) DocumentCount(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.replaced), nil
}

func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) entriesFor(documentID string) []domain.IndexEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaced[documentID]
}
