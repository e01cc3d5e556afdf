package driven

import (
	"context"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

// Extractor parses a raw document into ordered, provenance-tagged text
// sections. Each extractor handles specific formats (e.g. PDF, Markdown).
//
// Extraction is side-effect-free: the same input always yields the same
// sections. Unparseable content fails wrapping domain.ErrExtraction.
type Extractor interface {
	// SupportedFormats returns the formats this extractor handles.
	SupportedFormats() []domain.Format

	// Extract parses the document into sections. Page-based formats
	// yield one section per physical page with "page N" locators;
	// markup formats yield heading-scoped sections stripped of markup.
	Extract(ctx context.Context, raw *domain.RawDocument) ([]domain.Section, error)
}

// ExtractorRegistry selects the extractor responsible for a format.
type ExtractorRegistry interface {
	// Register adds an extractor for all of its supported formats.
	Register(e Extractor)

	// ForFormat returns the extractor for the given format.
	// Fails wrapping domain.ErrExtraction for unknown formats.
	ForFormat(format domain.Format) (Extractor, error)
}
