// Package html extracts text sections from HTML documents.
package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents. The whole document becomes a single
// section with tags, scripts and styles stripped; the locator is the
// <title> text, falling back to "document".
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatHTML}
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements = regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	brTags        = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Extract strips the HTML down to a single plain-text section.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) ([]domain.Section, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s: content is not valid UTF-8", domain.ErrExtraction, raw.ID)
	}

	content := string(raw.Content)

	locator := "document"
	if m := titleTag.FindStringSubmatch(content); m != nil {
		if title := strings.TrimSpace(html.UnescapeString(stripAll(m[1]))); title != "" {
			locator = title
		}
	}

	text := stripHTML(content)
	if text == "" {
		return nil, nil
	}

	return []domain.Section{{Text: text, Locator: locator}}, nil
}

// stripAll removes any leftover tags from an extracted fragment.
func stripAll(s string) string {
	return allTags.ReplaceAllString(s, "")
}

// stripHTML converts an HTML document to plain text.
func stripHTML(content string) string {
	content = htmlComments.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")

	// Preserve block structure as line breaks before dropping tags.
	content = brTags.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, " ")

	content = html.UnescapeString(content)

	// Normalise whitespace.
	content = multiSpaces.ReplaceAllString(content, " ")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
