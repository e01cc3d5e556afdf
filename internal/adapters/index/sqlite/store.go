package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/docquery-labs/docquery-cli/internal/adapters/index/sqlite/migrations"
	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Meta keys persisted in the index_meta table.
const (
	metaKeyModel      = "embedding_model"
	metaKeyDimensions = "embedding_dimensions"
)

// Store is a SQLite-backed vector index.
type Store struct {
	db         *sql.DB
	path       string
	model      string
	dimensions int
}

var _ driven.VectorIndex = (*Store)(nil)

// NewStore opens (or creates) a SQLite vector index at the specified data
// directory and validates it against the given embedding model and vector
// dimensions. If dataDir is empty, defaults to ~/.docquery/data.
func NewStore(dataDir, model string, dimensions int) (*Store, error) {
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
		dataDir = filepath.Join(home, ".docquery", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrIndexUnavailable, err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrIndexUnavailable, err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		model:      model,
		dimensions: dimensions,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrIndexUnavailable, err)
	}

	// Refuse to mix vector spaces: the stored model and dimensions must
	// match the configured embedder.
	if err := s.validateMeta(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// validateMeta compares the stored embedding model and dimensions against the
// configured values, writing them on first open.
func (s *Store) validateMeta() error {
	storedModel, err := s.getMeta(metaKeyModel)
	if err != nil {
		return fmt.Errorf("%w: reading index metadata: %w", domain.ErrIndexUnavailable, err)
	}

	if storedModel == "" {
		// Fresh index: record the configured embedder.
		if err := s.setMeta(metaKeyModel, s.model); err != nil {
			return fmt.Errorf("%w: writing index metadata: %w", domain.ErrIndexUnavailable, err)
		}
		if err := s.setMeta(metaKeyDimensions, strconv.Itoa(s.dimensions)); err != nil {
			return fmt.Errorf("%w: writing index metadata: %w", domain.ErrIndexUnavailable, err)
		}
		return nil
	}

	if storedModel != s.model {
		return fmt.Errorf("%w: index was built with model %q, configured model is %q (re-ingest to rebuild)",
			domain.ErrModelMismatch, storedModel, s.model)
	}

	storedDims, err := s.getMeta(metaKeyDimensions)
	if err != nil {
		return fmt.Errorf("%w: reading index metadata: %w", domain.ErrIndexUnavailable, err)
	}
	if storedDims != strconv.Itoa(s.dimensions) {
		return fmt.Errorf("%w: index stores %s-dimensional vectors, embedder produces %d",
			domain.ErrDimensionMismatch, storedDims, s.dimensions)
	}

	return nil
}

func (s *Store) getMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *Store) setMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Upsert inserts or replaces entries keyed by (document id, chunk index).
func (s *Store) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.upsertTx(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Replace atomically swaps all of a document's entries for the given set.
func (s *Store) Replace(ctx context.Context, documentID string, entries []domain.IndexEntry) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM entries WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("%w: clearing document entries: %w", domain.ErrIndexUnavailable, err)
	}

	if err := s.upsertTx(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// upsertTx writes entries inside an existing transaction.
func (s *Store) upsertTx(ctx context.Context, tx *sql.Tx, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (document_id, chunk_index, locator, content, metadata, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(document_id, chunk_index) DO UPDATE SET
			locator = excluded.locator,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if len(entry.Embedding) != s.dimensions {
			return fmt.Errorf("%w: entry %s/%d has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, entry.Chunk.DocumentID, entry.Chunk.Index,
				len(entry.Embedding), s.dimensions)
		}

		metadataJSON, err := json.Marshal(entry.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(entry.Embedding)

		if _, err := stmt.ExecContext(ctx, entry.Chunk.DocumentID, entry.Chunk.Index,
			entry.Chunk.Locator, entry.Chunk.Text, string(metadataJSON), embeddingBlob); err != nil {
			return fmt.Errorf("%w: saving entry: %w", domain.ErrIndexUnavailable, err)
		}
	}

	return nil
}

// Query returns the k entries most similar to the vector, descending by
// cosine similarity, ties broken by ascending document id then chunk index.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]domain.Hit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(vector), s.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, chunk_index, locator, content, metadata, embedding
		FROM entries
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying entries: %w", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var hits []domain.Hit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON string
		var embeddingBlob []byte

		if err := rows.Scan(&chunk.DocumentID, &chunk.Index, &chunk.Locator,
			&chunk.Text, &metadataJSON, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("%w: scanning entry: %w", domain.ErrIndexUnavailable, err)
		}

		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}

		embedding := bytesToFloat32Slice(embeddingBlob)
		hits = append(hits, domain.Hit{
			Chunk:      chunk,
			Similarity: cosineSimilarity(vector, embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating entries: %w", domain.ErrIndexUnavailable, err)
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes all entries for a document.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("%w: deleting document entries: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Count returns the total number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting entries: %w", domain.ErrIndexUnavailable, err)
	}
	return count, nil
}

// DocumentCount returns the number of distinct indexed documents.
func (s *Store) DocumentCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT document_id) FROM entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting documents: %w", domain.ErrIndexUnavailable, err)
	}
	return count, nil
}

// ==================== Helper Functions ====================

// sortHits orders hits by descending similarity, ties broken by ascending
// document id then ascending chunk index.
func sortHits(hits []domain.Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].Chunk.DocumentID != hits[j].Chunk.DocumentID {
			return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
		}
		return hits[i].Chunk.Index < hits[j].Chunk.Index
	})
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for zero-norm vectors.
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

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
