package extractors

import (
	"fmt"
	"sync"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps document formats to their extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.Format]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.Format]driven.Extractor),
	}
}

// Register adds an extractor for every format it supports.
// A later registration for the same format wins.
func (r *Registry) Register(e driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range e.SupportedFormats() {
		r.extractors[f] = e
	}
}

// ForFormat returns the extractor for the given format.
func (r *Registry) ForFormat(format domain.Format) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.extractors[format]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for format %q", domain.ErrExtraction, format)
	}
	return e, nil
}

// Formats returns all registered formats.
func (r *Registry) Formats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]domain.Format, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	return formats
}
