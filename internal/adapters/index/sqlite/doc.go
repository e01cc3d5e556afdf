// Package sqlite provides a SQLite-backed implementation of the vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. Embeddings are stored as
// little-endian float32 blobs alongside chunk text and metadata; similarity
// queries are answered by a brute-force cosine scan, which is exact and fast
// enough for corpora in the tens of thousands of chunks.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Entries are keyed by (document_id, chunk_index), so
// re-indexing unchanged content is idempotent.
//
// # Model Validation
//
// The embedding model name and vector dimensions are persisted in an
// index_meta table on first open. Subsequent opens validate the configured
// embedder against the stored values and fail with domain.ErrModelMismatch or
// domain.ErrDimensionMismatch rather than mixing incompatible vector spaces.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode; Replace swaps a document's entries in a
// single transaction, so concurrent readers never observe a document
// mid-replace.
package sqlite
