package extract

import (
	"regexp"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

var (
	// description, tariff code, quantity, amount
	itemRow = regexp.MustCompile(`(?i)([A-Za-z0-9 &/(),\-]+?)\s+([0-9]{6,8})\s+([0-9]{1,6})\s+\$?([0-9,]+(?:\.[0-9]{2})?)`)

	itemPivot    = regexp.MustCompile(`\b([0-9]{6,8})\b`)
	itemQuantity = regexp.MustCompile(`^[0-9]{1,6}$`)
	itemAmount   = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{2})?)|\b([0-9][0-9,]*\.[0-9]{2})\b`)
)

const usd = "USD"

// ExtractItems pulls table rows from classified lines. The per-line pivot
// scan runs only when the row pattern finds nothing.
func ExtractItems(lines []domain.LabeledLine) []domain.LineItem {
	if len(lines) == 0 {
		return nil
	}

	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	blob := strings.Join(texts, " \n")
	blobUSD := strings.Contains(blob, usd)

	var items []domain.LineItem
	for _, m := range itemRow.FindAllStringSubmatch(blob, -1) {
		item := domain.LineItem{
			Description: strings.TrimSpace(m[1]),
			TariffCode:  m[2],
			Quantity:    m[3],
			Amount:      m[4],
		}
		if strings.Contains(m[0], "$") || blobUSD {
			item.Currency = usd
		}
		items = append(items, item)
	}
	if len(items) > 0 {
		return items
	}

	for _, line := range texts {
		if item, ok := pivotItem(line); ok {
			items = append(items, item)
		}
	}
	return items
}

// pivotItem reads one line around its first tariff-code-length digit run.
func pivotItem(line string) (domain.LineItem, bool) {
	hs := itemPivot.FindStringSubmatch(line)
	if hs == nil {
		return domain.LineItem{}, false
	}

	item := domain.LineItem{TariffCode: hs[1]}
	tokens := strings.Fields(line)
	pos := -1
	for i, tok := range tokens {
		if tok == hs[1] {
			pos = i
			break
		}
	}
	if pos > 0 {
		item.Description = strings.Join(tokens[:pos], " ")
	}
	if pos >= 0 && pos+1 < len(tokens) && itemQuantity.MatchString(tokens[pos+1]) {
		item.Quantity = tokens[pos+1]
	}
	if m := itemAmount.FindStringSubmatch(line); m != nil {
		item.Amount = m[1]
		if item.Amount == "" {
			item.Amount = m[2]
		}
	}
	if strings.Contains(line, "$") || strings.Contains(line, usd) {
		item.Currency = usd
	}
	return item, true
}
