package textract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// WordDocument reads the body text of a .docx package, one line per
// paragraph. Table cells become paragraphs too.
type WordDocument struct{}

const documentPart = "word/document.xml"

// Extract implements Extractor.
func (WordDocument) Extract(_ context.Context, content []byte) (Result, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, fmt.Errorf("docx: open package: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return Result{}, fmt.Errorf("docx: open %s: %w", documentPart, err)
		}
		defer rc.Close()

		text, err := paragraphs(rc)
		if err != nil {
			return Result{}, fmt.Errorf("docx: parse %s: %w", documentPart, err)
		}
		return Result{Text: text, Pages: 1}, nil
	}
	return Result{}, fmt.Errorf("docx: %s not found", documentPart)
}

// paragraphs streams the document XML, collecting w:t text and breaking
// lines at w:p ends, w:br and w:tab.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var out, line strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteByte(' ')
			case "br":
				line.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString(line.String())
				out.WriteByte('\n')
				line.Reset()
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	out.WriteString(line.String())
	return strings.TrimRight(out.String(), "\n"), nil
}
