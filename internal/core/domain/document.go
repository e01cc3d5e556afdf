package domain

// Format identifies how a raw document's bytes are to be parsed.
type Format string

const (
	// FormatMarkdown is structured markup parsed into heading-scoped sections.
	FormatMarkdown Format = "markdown"

	// FormatHTML is structured markup stripped to plain text.
	FormatHTML Format = "html"

	// FormatPlainText is unstructured text taken as a single section.
	FormatPlainText Format = "plaintext"

	// FormatPDF is a page-based binary document extracted per physical page.
	FormatPDF Format = "pdf"
)

// RawDocument represents opaque bytes picked up from the corpus root.
// It is the scanner's output before extraction.
type RawDocument struct {
	// ID is the document identifier: the path relative to the corpus root.
	ID string

	// Path is the absolute filesystem location.
	Path string

	// Format is the declared parse format, derived from the file extension.
	Format Format

	// Content is the raw bytes. Immutable once extracted; re-ingestion
	// supersedes the document rather than mutating it.
	Content []byte
}

// Section is an ordered unit of extracted text within a document.
// The locator is the human-readable provenance shown in citations,
// e.g. "page 3" or "Install > Requirements".
type Section struct {
	// Text is the plain text extracted for this section.
	Text string

	// Locator identifies the section within its document.
	Locator string
}

// Chunk is a contiguous text span prepared for embedding.
// Chunks never span two documents.
type Chunk struct {
	// DocumentID links to the owning document.
	DocumentID string

	// Index is the document-global ordinal. Together with DocumentID it
	// is the storage key, so re-ingesting identical content overwrites
	// in place instead of duplicating.
	Index int

	// Locator is the owning section's locator, carried for citation.
	Locator string

	// Text is the chunk content.
	Text string

	// Metadata contains chunk-specific key-value pairs, including the
	// zero-based position local to the owning section.
	Metadata map[string]any
}

// IndexEntry pairs a chunk with its embedding vector for persistence.
type IndexEntry struct {
	Chunk Chunk

	// Embedding is the vector representation. Its length must match the
	// index's configured dimension or indexing fails.
	Embedding []float32
}

// Hit is a single similarity search result.
type Hit struct {
	Chunk Chunk

	// Similarity is the cosine similarity to the query vector, in [-1, 1].
	Similarity float64
}
