package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docquery-labs/docquery-cli/internal/chunker"
	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driving"
	"github.com/docquery-labs/docquery-cli/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestOrchestrator = (*Ingestor)(nil)

// embedBatchSize caps how many chunk texts go into one embedding request.
const embedBatchSize = 32

// Ingestor coordinates document ingestion: extraction, chunking, embedding
// and indexing.
type Ingestor struct {
	scanner  driven.CorpusScanner
	registry driven.ExtractorRegistry
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex

	retryAttempts int
	retryDelay    time.Duration

	// docLocks serialises concurrent ingestion of the same document while
	// letting distinct documents proceed in parallel.
	docLocks sync.Map // document id -> *sync.Mutex
}

// NewIngestor creates a new ingestion orchestrator.
func NewIngestor(
	scanner driven.CorpusScanner,
	registry driven.ExtractorRegistry,
	chunks *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
) *Ingestor {
	return &Ingestor{
		scanner:       scanner,
		registry:      registry,
		chunker:       chunks,
		embedder:      embedder,
		index:         index,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
}

// IngestAll ingests every document under the corpus root. Extraction
// failures skip only the affected document; quota and index failures abort
// the run.
func (g *Ingestor) IngestAll(ctx context.Context) (*driving.IngestReport, error) {
	report := &driving.IngestReport{RunID: uuid.NewString()}

	logger.Section("Ingestion Run")
	logger.Info("Run %s starting", report.RunID)

	docsCh, errsCh := g.scanner.Scan(ctx)

	// Both channels drain fully before the run completes, so a scan error
	// buffered behind the last document still reaches the report.
	for docsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return report, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			// Per-file scan failures skip the file, not the run.
			logger.Warn("Scan error: %v", err)
			report.DocumentsSkipped++
			report.Errors = append(report.Errors, err)

		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}

			logger.Debug("Ingesting: %s", raw.ID)
			count, err := g.ingestDocument(ctx, raw)
			if err != nil {
				if errors.Is(err, domain.ErrExtraction) {
					// A malformed document must not poison the corpus.
					logger.Warn("Skipping %s: %v", raw.ID, err)
					report.DocumentsSkipped++
					report.Errors = append(report.Errors, fmt.Errorf("%s: %w", raw.ID, err))
					continue
				}
				// Quota exhaustion, index failures and exhausted retries
				// abort the whole run.
				logger.Error("Run %s aborted on %s: %v", report.RunID, raw.ID, err)
				return report, fmt.Errorf("%w: document %s: %w", domain.ErrIngestionFailed, raw.ID, err)
			}

			report.DocumentsIndexed++
			report.ChunksIndexed += count
		}
	}

	logger.Info("Run %s complete: %d documents, %d chunks, %d skipped",
		report.RunID, report.DocumentsIndexed, report.ChunksIndexed,
		report.DocumentsSkipped)
	return report, nil
}

// Ingest replaces a single document's index entries. Re-running on
// unchanged input produces the same index state.
func (g *Ingestor) Ingest(ctx context.Context, raw domain.RawDocument) error {
	_, err := g.ingestDocument(ctx, raw)
	return err
}

// Remove deletes a document's index entries.
func (g *Ingestor) Remove(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	unlock := g.lockDocument(documentID)
	defer unlock()

	logger.Debug("Removing: %s", documentID)
	if err := g.index.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	return nil
}

// ingestDocument runs the extract, chunk, embed, replace pipeline for one
// document and returns the number of chunks indexed.
func (g *Ingestor) ingestDocument(ctx context.Context, raw domain.RawDocument) (int, error) {
	if raw.ID == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	unlock := g.lockDocument(raw.ID)
	defer unlock()

	// 1. EXTRACT
	extractor, err := g.registry.ForFormat(raw.Format)
	if err != nil {
		return 0, err
	}
	sections, err := extractor.Extract(ctx, &raw)
	if err != nil {
		return 0, err
	}

	// 2. CHUNK
	chunks := g.chunker.Split(raw.ID, sections)
	if len(chunks) == 0 {
		// An empty document still clears any stale entries.
		if err := g.index.Replace(ctx, raw.ID, nil); err != nil {
			return 0, fmt.Errorf("clear document %s: %w", raw.ID, err)
		}
		return 0, nil
	}

	// 3. EMBED (batched, with retry on transient failures)
	entries := make([]domain.IndexEntry, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		var vectors [][]float32
		err := withRetry(ctx, g.retryAttempts, g.retryDelay, func() error {
			var embedErr error
			vectors, embedErr = g.embedder.EmbedBatch(ctx, texts)
			return embedErr
		})
		if err != nil {
			return 0, fmt.Errorf("embed document %s: %w", raw.ID, err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("%w: embedding count mismatch for %s: got %d, want %d",
				domain.ErrEmbeddingService, raw.ID, len(vectors), len(batch))
		}

		for i, chunk := range batch {
			entries = append(entries, domain.IndexEntry{
				Chunk:     chunk,
				Embedding: vectors[i],
			})
		}
	}

	// 4. REPLACE (atomic per-document swap)
	if err := g.index.Replace(ctx, raw.ID, entries); err != nil {
		return 0, fmt.Errorf("index document %s: %w", raw.ID, err)
	}

	logger.Debug("Indexed %s: %d chunks", raw.ID, len(entries))
	return len(entries), nil
}

// lockDocument acquires the per-document mutex and returns its unlock func.
func (g *Ingestor) lockDocument(documentID string) func() {
	lock, _ := g.docLocks.LoadOrStore(documentID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
