// Package chunker provides fixed-size overlapping text chunking.
package chunker

import (
	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Chunker splits extracted sections into fixed-size overlapping chunks.
// Sizes are measured in runes so multi-byte corpora split at character
// boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured window size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split walks each section with a sliding window of chunkSize characters,
// advancing by (chunkSize - overlap) per step. The remainder shorter than
// the window becomes the final chunk of its section: never dropped, never
// padded. A section shorter than the window yields exactly one chunk; an
// empty section yields none. Chunks never cross section boundaries.
//
// Chunk indices are document-global (the storage key); the zero-based
// position within the owning section is kept in chunk metadata.
func (c *Chunker) Split(documentID string, sections []domain.Section) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0

	for _, section := range sections {
		runes := []rune(section.Text)
		sectionLen := len(runes)
		if sectionLen == 0 {
			continue
		}

		local := 0
		for start := 0; start < sectionLen; start += c.chunkSize - c.overlap {
			end := start + c.chunkSize
			if end > sectionLen {
				end = sectionLen
			}

			chunks = append(chunks, domain.Chunk{
				DocumentID: documentID,
				Index:      index,
				Locator:    section.Locator,
				Text:       string(runes[start:end]),
				Metadata: map[string]any{
					"section_position": local,
				},
			})
			index++
			local++

			if end == sectionLen {
				break
			}
		}
	}

	return chunks
}
