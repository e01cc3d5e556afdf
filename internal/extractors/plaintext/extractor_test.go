package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

func TestExtract(t *testing.T) {
	e := New()

	t.Run("single section with document locator", func(t *testing.T) {
		sections, err := e.Extract(context.Background(), &domain.RawDocument{
			ID:      "notes.txt",
			Format:  domain.FormatPlainText,
			Content: []byte("line one\r\nline two\n"),
		})
		require.NoError(t, err)
		require.Len(t, sections, 1)
		assert.Equal(t, "document", sections[0].Locator)
		assert.Equal(t, "line one\nline two", sections[0].Text)
	})

	t.Run("empty content yields no sections", func(t *testing.T) {
		sections, err := e.Extract(context.Background(), &domain.RawDocument{
			ID:      "empty.txt",
			Format:  domain.FormatPlainText,
			Content: []byte("   \n\t\n"),
		})
		require.NoError(t, err)
		assert.Empty(t, sections)
	})

	t.Run("nil document", func(t *testing.T) {
		_, err := e.Extract(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := e.Extract(context.Background(), &domain.RawDocument{
			ID:      "bin.txt",
			Content: []byte{0xc3, 0x28},
		})
		assert.ErrorIs(t, err, domain.ErrExtraction)
	})
}
