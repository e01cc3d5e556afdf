// Package markdown extracts sections from Markdown documents.
package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents. The document is split into one
// section per heading; each section's locator is the heading path down to
// it (e.g. "Install > Requirements"). Text before the first heading gets
// the locator "document".
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatMarkdown}
}

var headingLine = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

// Extract splits the markdown into heading-scoped sections with markup
// stripped from the body text.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) ([]domain.Section, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(raw.Content) {
		return nil, fmt.Errorf("%w: %s: content is not valid UTF-8", domain.ErrExtraction, raw.ID)
	}

	var sections []domain.Section
	var body []string

	// Heading text per level, forming the locator path.
	path := make([]string, 0, 6)

	flush := func() {
		text := strings.TrimSpace(stripMarkdown(strings.Join(body, "\n")))
		body = body[:0]
		if text == "" {
			return
		}
		locator := "document"
		if len(path) > 0 {
			locator = strings.Join(path, " > ")
		}
		sections = append(sections, domain.Section{Text: text, Locator: locator})
	}

	for _, line := range strings.Split(string(raw.Content), "\n") {
		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			body = append(body, line)
			continue
		}

		flush()
		level := len(m[1])
		title := strings.TrimSpace(m[2])

		if level <= len(path) {
			path = path[:level-1]
		}
		path = append(path, title)
	}
	flush()

	return sections, nil
}

// stripMarkdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func stripMarkdown(content string) string {
	// Remove code blocks (```...```)
	codeBlock := regexp.MustCompile("(?s)```[^`]*```")
	content = codeBlock.ReplaceAllString(content, "")

	// Remove inline code (`code`)
	inlineCode := regexp.MustCompile("`[^`]+`")
	content = inlineCode.ReplaceAllString(content, "")

	// Remove images ![alt](url)
	images := regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	content = images.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	links := regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	content = links.ReplaceAllString(content, "$1")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")

	// Remove blockquote markers
	blockquote := regexp.MustCompile(`(?m)^>\s*`)
	content = blockquote.ReplaceAllString(content, "")

	// Remove horizontal rules
	hr := regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	content = hr.ReplaceAllString(content, "")

	// Remove list markers
	lists := regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	content = lists.ReplaceAllString(content, "")

	// Collapse excessive blank lines
	blank := regexp.MustCompile(`\n{3,}`)
	content = blank.ReplaceAllString(content, "\n\n")

	return content
}
