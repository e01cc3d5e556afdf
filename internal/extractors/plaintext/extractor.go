// Package plaintext extracts text from plain text documents.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents as a single section with the
// locator "document".
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatPlainText}
}

// Extract returns the document text as one section. Carriage returns are
// normalised away; otherwise the text is untouched.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) ([]domain.Section, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s: content is not valid UTF-8", domain.ErrExtraction, raw.ID)
	}

	text := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	return []domain.Section{{Text: text, Locator: "document"}}, nil
}
