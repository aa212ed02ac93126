package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Resolver field keys.
const (
	KeyInvoiceNo   = "invoice_no"
	KeyDate        = "date"
	KeyExporter    = "exporter"
	KeyConsignee   = "consignee"
	KeyCurrency    = "currency"
	KeyPortLoading = "port_loading"
	KeyPortDest    = "port_dest"
	KeyMode        = "mode"
	KeyTaxID       = "tax_id"
)

// DefaultSynonymPatterns is the ordered synonym table. Supporting a new
// template means adding patterns here.
var DefaultSynonymPatterns = map[string][]string{
	KeyInvoiceNo:   {`invoice\s*no\.?`, `\binv\b\.?\s*#?`, `invoice\s*number`, `bill\s*no\.?`, `reference\s*no\.?`},
	KeyDate:        {`\bdate\b`, `invoice\s*date`, `dt\.`},
	KeyExporter:    {`\bexporter\b`, `\bseller\b`, `\bshipper\b`, `exported\s*by`},
	KeyConsignee:   {`\bconsignee\b`, `\bbuyer\b`, `\bto\s*party\b`, `\bclient\b`},
	KeyCurrency:    {`\bcurrency\b`, `\bcur\b`},
	KeyPortLoading: {`port\s*of\s*loading`, `pol\b`},
	KeyPortDest:    {`port\s*of\s*(?:destination|discharge)`, `pod\b`, `final\s*destination`},
	KeyMode:        {`mode\s*of\s*transport`, `\btransport\b`, `\bby\s*(?:air|sea|road|rail)\b`},
	KeyTaxID:       {`\bgstin\b`, `\btax\s*id\b`, `\bvat\s*(?:no\.?|number)`},
}

type synonym struct {
	sameLine *regexp.Regexp
	nextLine *regexp.Regexp
}

// SynonymTable resolves named fields from free text.
type SynonymTable struct {
	fields map[string][]synonym
}

// NewSynonymTable compiles an ordered pattern table.
func NewSynonymTable(patterns map[string][]string) (*SynonymTable, error) {
	t := &SynonymTable{fields: make(map[string][]synonym, len(patterns))}
	for key, pats := range patterns {
		for _, p := range pats {
			same, err := regexp.Compile(`(?i)` + p + `\s*[:\-]?\s*([^\n\r]+)`)
			if err != nil {
				return nil, fmt.Errorf("synonym %s %q: %w", key, p, err)
			}
			next, err := regexp.Compile(`(?i)` + p + `.*?\n\s*([^\n\r]{2,100})`)
			if err != nil {
				return nil, fmt.Errorf("synonym %s %q: %w", key, p, err)
			}
			t.fields[key] = append(t.fields[key], synonym{sameLine: same, nextLine: next})
		}
	}
	return t, nil
}

// DefaultSynonyms returns the compiled default table.
func DefaultSynonyms() *SynonymTable {
	t, err := NewSynonymTable(DefaultSynonymPatterns)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the first non-empty value for key. Each pattern is tried
// as "pattern: value" on one line, then as a header with the value on the
// following line, before moving to the next pattern.
func (t *SynonymTable) Resolve(text, key string) string {
	if text == "" {
		return ""
	}
	for _, s := range t.fields[key] {
		if v := capture(s.sameLine, text); v != "" {
			return v
		}
		if v := capture(s.nextLine, text); v != "" {
			return v
		}
	}
	return ""
}

func capture(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
