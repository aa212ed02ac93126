// Package textract turns uploaded files into raw text for extraction.
// Adapters are selected by file extension.
package textract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions with no adapter.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Result is the raw text of one file.
type Result struct {
	Text  string
	Pages int
}

// Extractor converts file content to text.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (Result, error)
}

// Registry maps lowercased extensions (with dot) to extractors.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry registers the plaintext, spreadsheet, word-processor and PDF
// adapters. pdftotextPath defaults to "pdftotext" on PATH.
func NewRegistry(pdftotextPath string) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	plain := PlainText{}
	for _, ext := range []string{".txt", ".csv", ".md", ".text"} {
		r.Register(ext, plain)
	}
	r.Register(".xlsx", Spreadsheet{})
	r.Register(".docx", WordDocument{})
	r.Register(".pdf", NewPDF(pdftotextPath, nil))
	return r
}

// Register binds an extractor to an extension, replacing any existing one.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Extract dispatches on filename's extension.
func (r *Registry) Extract(ctx context.Context, filename string, content []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := r.byExt[ext]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	res, err := e.Extract(ctx, content)
	if err != nil {
		return Result{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	if res.Pages == 0 {
		res.Pages = 1
	}
	return res, nil
}

// Safe extracts text and degrades any failure to empty text with a warning.
func (r *Registry) Safe(ctx context.Context, filename string, content []byte) Result {
	res, err := r.Extract(ctx, filename, content)
	if err != nil {
		slog.Warn("text extraction failed, continuing with empty text",
			"filename", filename,
			"error", err,
		)
		return Result{Pages: 1}
	}
	return res
}

// Capabilities reports which optional formats are usable in this process.
func (r *Registry) Capabilities() map[string]bool {
	caps := map[string]bool{}
	for ext, e := range r.byExt {
		name := strings.TrimPrefix(ext, ".")
		if p, ok := e.(*PDF); ok {
			caps[name] = p.Available()
			continue
		}
		caps[name] = true
	}
	return caps
}
