package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction indicates a document's bytes could not be parsed in
	// their declared format. Ingestion logs it, skips the document and
	// continues with the rest of the batch.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbeddingService indicates a transient embedding service failure.
	// Callers retry with bounded backoff before surfacing it.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrEmbeddingQuota indicates the embedding quota is exhausted.
	// Fatal for the current run; never retried.
	ErrEmbeddingQuota = errors.New("embedding quota exceeded")

	// ErrIndexUnavailable indicates vector index storage I/O failed.
	// Always surfaced: a degraded index silently returning empty results
	// would corrupt the mode decision.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector's dimension does not match
	// the index's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrModelMismatch indicates the index was built with a different
	// embedding model than the one configured.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrIngestionFailed wraps a non-recoverable ingestion failure after
	// retries are exhausted.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrQueryFailed wraps a query-time infrastructure failure. It is
	// never conflated with a direct-mode decision.
	ErrQueryFailed = errors.New("query failed")
)
