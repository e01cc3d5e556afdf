// Package filesystem provides a corpus scanner over a local directory tree.
//
// Documents are identified by their path relative to the corpus root, so the
// same corpus checked out at two locations produces identical document ids.
// Hidden files and directories (dot-prefixed) are skipped, as are files with
// unsupported extensions. Watch uses fsnotify to surface create, write,
// remove and rename events as corpus changes, registering subdirectories as
// they appear.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/docquery-labs/docquery-cli/internal/core/domain"
	"github.com/docquery-labs/docquery-cli/internal/core/ports/driven"
)

// formatsByExtension maps file extensions to document formats.
var formatsByExtension = map[string]domain.Format{
	".md":       domain.FormatMarkdown,
	".markdown": domain.FormatMarkdown,
	".html":     domain.FormatHTML,
	".htm":      domain.FormatHTML,
	".txt":      domain.FormatPlainText,
	".text":     domain.FormatPlainText,
	".pdf":      domain.FormatPDF,
}

// Scanner walks a local directory tree for supported documents.
type Scanner struct {
	root string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

var _ driven.CorpusScanner = (*Scanner)(nil)

// New creates a scanner rooted at the given directory.
func New(root string) *Scanner {
	return &Scanner{root: root}
}

// Root returns the corpus root directory.
func (s *Scanner) Root() string {
	return s.root
}

// Validate checks the corpus root exists and is a directory.
func (s *Scanner) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.root)
	if os.IsNotExist(err) {
		return fmt.Errorf("corpus root %s does not exist", s.root)
	}
	if err != nil {
		return fmt.Errorf("corpus root error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("corpus root %s is not a directory", s.root)
	}
	return nil
}

// Scan streams every supported document under the root.
func (s *Scanner) Scan(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := s.Validate(ctx); err != nil {
			errs <- err
			return
		}

		walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs <- fmt.Errorf("walking %s: %w", path, err)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if d.IsDir() {
				if path != s.root && isHidden(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if isHidden(d.Name()) {
				return nil
			}

			format, ok := FormatForPath(path)
			if !ok {
				return nil
			}

			doc, err := s.read(path, format)
			if err != nil {
				// A single unreadable file must not abort the scan.
				errs <- err
				return nil
			}

			select {
			case docs <- *doc:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if walkErr != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("scanning corpus: %w", walkErr)
		}
	}()

	return docs, errs
}

// Load reads a single document by its relative path.
func (s *Scanner) Load(ctx context.Context, id string) (*domain.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	path := filepath.Join(s.root, filepath.FromSlash(id))

	format, ok := FormatForPath(path)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported document format: %s", domain.ErrInvalidInput, id)
	}

	return s.read(path, format)
}

// read builds a RawDocument from a file on disk.
func (s *Scanner) read(path string, format domain.Format) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	id, err := s.documentID(path)
	if err != nil {
		return nil, err
	}

	return &domain.RawDocument{
		ID:      id,
		Path:    path,
		Format:  format,
		Content: content,
	}, nil
}

// documentID converts an absolute path into a root-relative document id,
// normalised to forward slashes.
func (s *Scanner) documentID(path string) (string, error) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return "", fmt.Errorf("relativising %s: %w", path, err)
	}
	return filepath.ToSlash(rel), nil
}

// Watch emits change events for documents under the root.
func (s *Scanner) Watch(ctx context.Context) (<-chan driven.CorpusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("scanner is closed")
	}
	if err := s.Validate(ctx); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	// Watch the root and every existing subdirectory; fsnotify is not
	// recursive on its own.
	walkErr := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if walkErr != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching corpus: %w", walkErr)
	}

	s.watcher = watcher

	changes := make(chan driven.CorpusChange)
	go s.watchLoop(ctx, watcher, changes)
	return changes, nil
}

// watchLoop translates fsnotify events into corpus changes until the context
// is cancelled or the watcher closes.
func (s *Scanner) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- driven.CorpusChange) {
	defer close(changes)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			change := s.handleFsEvent(watcher, event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// Watcher errors are transient; keep watching.
		}
	}
}

// handleFsEvent converts a single fsnotify event into a corpus change, or
// nil if the event is irrelevant (directories, hidden files, unsupported
// formats, chmod).
func (s *Scanner) handleFsEvent(watcher *fsnotify.Watcher, event fsnotify.Event) *driven.CorpusChange {
	name := filepath.Base(event.Name)
	if isHidden(name) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			// New directories need their own watch for recursion.
			if event.Op.Has(fsnotify.Create) {
				_ = watcher.Add(event.Name)
			}
			return nil
		}

		format, ok := FormatForPath(event.Name)
		if !ok {
			return nil
		}
		doc, err := s.read(event.Name, format)
		if err != nil {
			return nil
		}
		return &driven.CorpusChange{Type: driven.ChangeUpserted, Document: *doc}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		if _, ok := FormatForPath(event.Name); !ok {
			return nil
		}
		id, err := s.documentID(event.Name)
		if err != nil {
			return nil
		}
		return &driven.CorpusChange{
			Type:     driven.ChangeRemoved,
			Document: domain.RawDocument{ID: id},
		}
	}

	return nil
}

// Close releases watcher resources. Safe to call multiple times.
func (s *Scanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// FormatForPath returns the document format for a file path, based on its
// extension, and whether the extension is supported.
func FormatForPath(path string) (domain.Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := formatsByExtension[ext]
	return format, ok
}

// isHidden reports whether a file or directory name is dot-prefixed.
// "." and ".." are path components, not hidden names.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
