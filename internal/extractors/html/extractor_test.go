package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
)

func TestSupportedFormats(t *testing.T) {
	e := New()
	assert.Equal(t, []domain.Format{domain.FormatHTML}, e.SupportedFormats())
}

func TestExtract_NilDocument(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_TitleBecomesLocator(t *testing.T) {
	content := `<!DOCTYPE html>
<html>
<head><title>Operations Handbook</title></head>
<body>
<h1>Escalation</h1>
<p>Call the on-duty engineer first.</p>
<script>console.log("noise")</script>
<style>.x { color: red }</style>
</body>
</html>`

	e := New()
	sections, err := e.Extract(context.Background(), &domain.RawDocument{
		ID:      "handbook.html",
		Format:  domain.FormatHTML,
		Content: []byte(content),
	})
	require.NoError(t, err)
	require.Len(t, sections, 1)

	assert.Equal(t, "Operations Handbook", sections[0].Locator)
	assert.Contains(t, sections[0].Text, "Escalation")
	assert.Contains(t, sections[0].Text, "Call the on-duty engineer first.")
	assert.NotContains(t, sections[0].Text, "console.log")
	assert.NotContains(t, sections[0].Text, "color: red")
	assert.NotContains(t, sections[0].Text, "<")
}

func TestExtract_NoTitle(t *testing.T) {
	e := New()
	sections, err := e.Extract(context.Background(), &domain.RawDocument{
		ID:      "plain.html",
		Format:  domain.FormatHTML,
		Content: []byte("<p>Just a paragraph.</p>"),
	})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "document", sections[0].Locator)
	assert.Equal(t, "Just a paragraph.", sections[0].Text)
}

func TestExtract_EntitiesUnescaped(t *testing.T) {
	e := New()
	sections, err := e.Extract(context.Background(), &domain.RawDocument{
		ID:      "ent.html",
		Format:  domain.FormatHTML,
		Content: []byte("<p>Fish &amp; chips &lt;hot&gt;</p>"),
	})
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Text, "Fish & chips <hot>")
}

func TestExtract_EmptyBody(t *testing.T) {
	e := New()
	sections, err := e.Extract(context.Background(), &domain.RawDocument{
		ID:      "empty.html",
		Format:  domain.FormatHTML,
		Content: []byte("<html><body></body></html>"),
	})
	require.NoError(t, err)
	assert.Empty(t, sections)
}
