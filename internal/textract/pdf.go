package textract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// PDF extracts text with the poppler pdftotext CLI in layout mode.
type PDF struct {
	binPath string
	runner  CommandRunner
}

// NewPDF creates a PDF adapter. Empty binPath means "pdftotext"; a nil
// runner executes the binary.
func NewPDF(binPath string, runner CommandRunner) *PDF {
	if binPath == "" {
		binPath = "pdftotext"
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &PDF{binPath: binPath, runner: runner}
}

// Available reports whether the pdftotext binary can be found.
func (p *PDF) Available() bool {
	if _, ok := p.runner.(execRunner); !ok {
		return true
	}
	_, err := exec.LookPath(p.binPath)
	return err == nil
}

// Extract implements Extractor. Pages are counted from form feeds.
func (p *PDF) Extract(ctx context.Context, content []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "tradescan-*.pdf")
	if err != nil {
		return Result{}, fmt.Errorf("pdf: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("pdf: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("pdf: write temp file: %w", err)
	}

	out, err := p.runner.Run(ctx, p.binPath, "-layout", tmp.Name(), "-")
	if err != nil {
		return Result{}, fmt.Errorf("pdf: %w", err)
	}

	text := string(out)
	pages := strings.Count(strings.TrimRight(text, "\f"), "\f") + 1
	return Result{Text: strings.ReplaceAll(text, "\f", "\n"), Pages: pages}, nil
}
