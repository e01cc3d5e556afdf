package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The same model/version must serve both ingestion and query time: the
// vector index validates the configured model name and dimension against
// what it has stored, and rejects mismatches rather than coercing them.
//
// Failure modes are part of the contract. Transient failures (network,
// 5xx, timeouts) wrap domain.ErrEmbeddingService and may be retried with
// backoff; quota exhaustion wraps domain.ErrEmbeddingQuota and aborts the
// current run without retry.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// request order in the response.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
