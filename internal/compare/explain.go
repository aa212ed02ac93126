package compare

import (
	"fmt"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

type template struct {
	issue      string // format with (title, value1, value2)
	suggestion string
	severity   domain.Severity
}

const (
	suggestQuantity  = "Verify item-level totals and packing list quantities; check rounding or consolidated shipments."
	suggestInvoice   = "Ensure all documents reference the correct invoice number and revision."
	suggestExporter  = "Confirm whether forwarding agent or ultimate exporter differs; prefer legal entity on invoice."
	suggestConsignee = "Ensure consignee is identical on invoice, packing list and BL to avoid customs issues."
	suggestCurrency  = "Make sure all documents use the same transaction currency or show equivalent conversions."
	suggestPort      = "Confirm port abbreviations and full names; check if transshipment or alternate port used."
	suggestMode      = "Verify mode (Sea/Air/Road) across BL, invoice, and insurance documents."
	suggestDefault   = "Review documents and confirm which value is authoritative."
)

var (
	quantityTmpl  = template{"%[1]s mismatch: %[2]s vs %[3]s.", suggestQuantity, domain.SeverityMedium}
	valueTmpl     = template{"%[1]s mismatch: %[2]s vs %[3]s.", suggestQuantity, domain.SeverityHigh}
	invoiceTmpl   = template{"Invoice/reference mismatch: %[2]s vs %[3]s.", suggestInvoice, domain.SeverityHigh}
	exporterTmpl  = template{"Exporter/shipper mismatch: %[2]s vs %[3]s.", suggestExporter, domain.SeverityMedium}
	consigneeTmpl = template{"Consignee mismatch: %[2]s vs %[3]s.", suggestConsignee, domain.SeverityHigh}
	currencyTmpl  = template{"Currency mismatch: %[2]s vs %[3]s.", suggestCurrency, domain.SeverityMedium}
	portTmpl      = template{"Port mismatch: %[2]s vs %[3]s.", suggestPort, domain.SeverityMedium}
	modeTmpl      = template{"Transport mode mismatch: %[2]s vs %[3]s.", suggestMode, domain.SeverityMedium}
	defaultTmpl   = template{"%[1]s differences detected: %[2]s vs %[3]s.", suggestDefault, domain.SeverityLow}
)

// templates is keyed by normalized field name.
var templates = map[string]template{
	"qty sum":             quantityTmpl,
	"quantity":            quantityTmpl,
	"amount":              valueTmpl,
	"value":               valueTmpl,
	"invoice no":          invoiceTmpl,
	"bill no":             invoiceTmpl,
	"reference":           invoiceTmpl,
	"exporter":            exporterTmpl,
	"shipper":             exporterTmpl,
	"consignee":           consigneeTmpl,
	"buyer":               consigneeTmpl,
	"currency":            currencyTmpl,
	"port loading":        portTmpl,
	"port dest":           portTmpl,
	"port of loading":     portTmpl,
	"port of destination": portTmpl,
	"mode":                modeTmpl,
	"mode of transport":   modeTmpl,
}

// Explain describes a field difference between two sides. Each side is a
// single document value or, for master rows, all document values joined.
func Explain(field string, a, b []string) domain.Explanation {
	key := normalizeField(field)
	tmpl, ok := templates[key]
	title := field
	if ok {
		title = titleCase(key)
	} else {
		tmpl = defaultTmpl
	}

	v1, v2 := joinValues(a), joinValues(b)
	return domain.Explanation{
		Field:      field,
		Value1:     v1,
		Value2:     v2,
		Issue:      fmt.Sprintf(tmpl.issue, title, v1, v2),
		Suggestion: tmpl.suggestion,
		Severity:   tmpl.severity,
	}
}

// normalizeField lowercases and turns "_" and "-" into single spaces.
func normalizeField(field string) string {
	f := strings.ToLower(field)
	f = strings.NewReplacer("_", " ", "-", " ").Replace(f)
	return strings.Join(strings.Fields(f), " ")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func joinValues(vals []string) string {
	var parts []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}
