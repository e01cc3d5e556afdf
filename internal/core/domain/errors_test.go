package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrExtraction", ErrExtraction},
		{"ErrEmbeddingService", ErrEmbeddingService},
		{"ErrEmbeddingQuota", ErrEmbeddingQuota},
		{"ErrIndexUnavailable", ErrIndexUnavailable},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrModelMismatch", ErrModelMismatch},
		{"ErrIngestionFailed", ErrIngestionFailed},
		{"ErrQueryFailed", ErrQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that the transient and fatal embedding errors
// never match each other, since retry policy hangs on the distinction.
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrEmbeddingService, ErrEmbeddingQuota))
	assert.False(t, errors.Is(ErrEmbeddingQuota, ErrEmbeddingService))
}

// TestErrors_Wrapping tests that wrapped errors remain classifiable.
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("ingest corpus: %w", fmt.Errorf("%w: status 429", ErrEmbeddingQuota))
	assert.True(t, errors.Is(wrapped, ErrEmbeddingQuota))
	assert.False(t, errors.Is(wrapped, ErrEmbeddingService))
}
