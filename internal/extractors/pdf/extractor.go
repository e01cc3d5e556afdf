// Package pdf extracts per-page text sections from PDF documents.
//
// Extraction shells out to pdftotext (poppler-utils), which must be on
// PATH. The command is injected through the CommandRunner interface so
// tests can substitute a fake.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found on PATH")

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents, one section per physical page with
// "page N" locators.
type Extractor struct {
	runner CommandRunner
}

// New creates a new PDF extractor using pdftotext from PATH.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with an injected command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns human-readable install guidance.
func InstallInstructions() string {
	return `pdftotext is required for PDF ingestion.
  macOS:  brew install poppler
  Debian: apt install poppler-utils`
}

// SupportedFormats returns the formats this extractor handles.
func (e *Extractor) SupportedFormats() []domain.Format {
	return []domain.Format{domain.FormatPDF}
}

// Extract converts the PDF to text with page layout preserved and splits
// the output on form feeds, one section per page. Blank pages yield no
// section; page numbering still counts them so locators match the
// physical document.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) ([]domain.Section, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := CheckAvailable(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	// pdftotext reads from a file, so spill the bytes to a temp path.
	tmp, err := os.CreateTemp("", "docquery-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp file: %w", domain.ErrExtraction, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: write temp file: %w", domain.ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %w", domain.ErrExtraction, err)
	}

	// "-" sends the text to stdout; pages are separated by form feeds.
	out, err := e.runner.Run(ctx, "pdftotext", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: pdftotext: %w", domain.ErrExtraction, filepath.Base(raw.ID), err)
	}

	var sections []domain.Section
	for i, page := range strings.Split(string(out), "\f") {
		text := strings.TrimSpace(page)
		if text == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Text:    text,
			Locator: fmt.Sprintf("page %d", i+1),
		})
	}

	return sections, nil
}
