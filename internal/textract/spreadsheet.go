package textract

import (
	"context"
	"fmt"
	"strings"

	"github.com/tealeg/xlsx/v2"
)

// Spreadsheet renders every sheet of an .xlsx workbook as lines of
// space-separated cells. Sheets are separated by a blank line.
type Spreadsheet struct{}

// Extract implements Extractor.
func (Spreadsheet) Extract(ctx context.Context, content []byte) (Result, error) {
	f, err := xlsx.OpenBinary(content)
	if err != nil {
		return Result{}, fmt.Errorf("xlsx: open workbook: %w", err)
	}

	parts := make([]string, 0, len(f.Sheets))
	for _, sheet := range f.Sheets {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		var b strings.Builder
		for _, row := range sheet.Rows {
			if line := rowText(row); line != "" {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
		if b.Len() > 0 {
			parts = append(parts, strings.TrimRight(b.String(), "\n"))
		}
	}

	return Result{Text: strings.Join(parts, "\n\n"), Pages: max(1, len(f.Sheets))}, nil
}

func rowText(row *xlsx.Row) string {
	if row == nil {
		return ""
	}
	cells := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		if v := strings.TrimSpace(cell.String()); v != "" {
			cells = append(cells, v)
		}
	}
	return strings.Join(cells, " ")
}
