package textract

import (
	"bytes"
	"context"
	"unicode/utf8"
)

// PlainText passes UTF-8 text through. A leading byte-order mark is dropped
// and invalid sequences are replaced.
type PlainText struct{}

// Extract implements Extractor.
func (PlainText) Extract(_ context.Context, content []byte) (Result, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		content = bytes.ToValidUTF8(content, []byte("�"))
	}
	text := string(bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n")))
	return Result{Text: text, Pages: 1}, nil
}
