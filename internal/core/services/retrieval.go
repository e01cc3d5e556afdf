package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driving"
	"github.com/docquery-labs/docquery-cli/internal/logger"
)

// Ensure Retrieval implements the interface.
var _ driving.QueryService = (*Retrieval)(nil)

// Retrieval defaults.
const (
	// DefaultThreshold is the minimum cosine similarity for a hit to
	// count as relevant.
	DefaultThreshold = 0.35

	// DefaultTopK is how many nearest neighbours to retrieve per query.
	DefaultTopK = 3
)

// Retrieval answers the mode question per query: embed, search, compare the
// best hit against the threshold, and assemble context with citations.
type Retrieval struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	threshold float64
	topK      int

	retryAttempts int
	retryDelay    time.Duration
}

// RetrievalOption customises the retrieval service.
type RetrievalOption func(*Retrieval)

// WithThreshold sets the similarity gate. Values outside (0, 1) keep the
// default.
func WithThreshold(threshold float64) RetrievalOption {
	return func(r *Retrieval) {
		if threshold > 0 && threshold < 1 {
			r.threshold = threshold
		}
	}
}

// WithTopK sets how many nearest neighbours to retrieve.
func WithTopK(topK int) RetrievalOption {
	return func(r *Retrieval) {
		if topK > 0 {
			r.topK = topK
		}
	}
}

// NewRetrieval creates a new retrieval service.
func NewRetrieval(embedder driven.EmbeddingService, index driven.VectorIndex, opts ...RetrievalOption) *Retrieval {
	r := &Retrieval{
		embedder:      embedder,
		index:         index,
		threshold:     DefaultThreshold,
		topK:          DefaultTopK,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the configured similarity gate.
func (r *Retrieval) Threshold() float64 {
	return r.threshold
}

// TopK returns the configured neighbour count.
func (r *Retrieval) TopK() int {
	return r.topK
}

// Ask embeds the question, queries the index and applies the similarity
// threshold. Infrastructure failures propagate wrapped in
// domain.ErrQueryFailed; they are never reported as a direct-mode decision.
func (r *Retrieval) Ask(ctx context.Context, question string) (*domain.Decision, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	logger.Section("Query Execution")
	logger.Debug("Question: %q", question)

	// 1. EMBED the question, retrying transient failures.
	var vector []float32
	err := withRetry(ctx, r.retryAttempts, r.retryDelay, func() error {
		var embedErr error
		vector, embedErr = r.embedder.Embed(ctx, question)
		return embedErr
	})
	if err != nil {
		logger.Error("Embedding the question failed: %v", err)
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrQueryFailed, err)
	}
	logger.Debug("Question embedding: %d dimensions", len(vector))

	// 2. SEARCH the index.
	hits, err := r.index.Query(ctx, vector, r.topK)
	if err != nil {
		logger.Error("Similarity search failed: %v", err)
		return nil, fmt.Errorf("%w: similarity search: %w", domain.ErrQueryFailed, err)
	}
	logger.Debug("Similarity search: %d hits (top-%d)", len(hits), r.topK)

	// 3. DECIDE. The best hit gates the mode; in retrieval-augmented mode
	// every hit at or above the threshold becomes context.
	decision := &domain.Decision{
		Mode:      domain.ModeDirect,
		Threshold: r.threshold,
	}

	if len(hits) == 0 {
		logger.Info("Decision: direct (empty index)")
		return decision, nil
	}

	decision.BestSimilarity = hits[0].Similarity
	if hits[0].Similarity < r.threshold {
		logger.Info("Decision: direct (best %.4f < threshold %.4f)",
			decision.BestSimilarity, r.threshold)
		return decision, nil
	}

	decision.Mode = domain.ModeRetrievalAugmented
	for _, hit := range hits {
		if hit.Similarity < r.threshold {
			continue
		}
		decision.Context = append(decision.Context, domain.ContextItem{
			Text:       hit.Chunk.Text,
			DocumentID: hit.Chunk.DocumentID,
			Locator:    hit.Chunk.Locator,
			Similarity: hit.Similarity,
		})
	}

	logger.Info("Decision: retrieval-augmented (best %.4f >= threshold %.4f, %d context items)",
		decision.BestSimilarity, r.threshold, len(decision.Context))
	return decision, nil
}
