package extract

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
	"github.com/opensource-finance/tradescan/internal/nlp"
)

const presentConfidence = 0.95

var (
	invoiceFallback  = regexp.MustCompile(`(?i)Invoice\s*No\.?\s*[:\-]?\s*([A-Za-z0-9/\-]+)`)
	dateFallback     = regexp.MustCompile(`(?i)Date\s*[:\-]?\s*([0-9]{1,2}[-/][A-Za-z]{3,}[-/][0-9]{2,4})`)
	currencyFallback = regexp.MustCompile(`(?i)\b(USD|EUR|INR|GBP)\b`)
	taxIDFallback    = regexp.MustCompile(`(?i)GSTIN[:\-]?\s*([0-9A-Z]{15})`)

	amountTail = `\b\s*(?:\(?(?:USD|EUR|INR|GBP)\)?)?\s*[:\-]?\s*(?:USD|EUR|INR|GBP)?\s*[$€£₹]?\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

	// amountRules are tried in order; the first capture wins.
	amountRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bgrand\s+total` + amountTail),
		regexp.MustCompile(`(?i)\b(?:invoice\s+total|total\s+amount|total\s+value|total)` + amountTail),
		regexp.MustCompile(`\$\s*([0-9,]+(?:\.[0-9]{2})?)`),
		regexp.MustCompile(`(?i)Amount\s*\(?USD\)?\s*[:\-]?\s*\$?([0-9,]+(?:\.[0-9]{2})?)`),
	}
)

// Extractor builds document records. It is safe for concurrent use.
type Extractor struct {
	synonyms  *SynonymTable
	entities  nlp.EntityExtractor
	fuzzy     nlp.FuzzyMatcher
	suffixes  []string
	threshold float64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEntityExtractor sets the named-entity capability.
func WithEntityExtractor(e nlp.EntityExtractor) Option {
	return func(x *Extractor) {
		if e != nil {
			x.entities = e
		}
	}
}

// WithFuzzyMatcher sets the fuzzy-matching capability.
func WithFuzzyMatcher(m nlp.FuzzyMatcher) Option {
	return func(x *Extractor) {
		if m != nil {
			x.fuzzy = m
		}
	}
}

// WithSynonyms replaces the field synonym table.
func WithSynonyms(t *SynonymTable) Option {
	return func(x *Extractor) {
		if t != nil {
			x.synonyms = t
		}
	}
}

// WithFuzzyThreshold sets the minimum suffix match score.
func WithFuzzyThreshold(threshold float64) Option {
	return func(x *Extractor) {
		if threshold > 0 {
			x.threshold = threshold
		}
	}
}

// New creates an Extractor. Capabilities default to null implementations.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		synonyms:  DefaultSynonyms(),
		entities:  nlp.NullEntityExtractor{},
		fuzzy:     nlp.NullFuzzyMatcher{},
		suffixes:  DefaultSuffixes,
		threshold: DefaultFuzzyThreshold,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Capabilities reports which optional capabilities are wired.
func (x *Extractor) Capabilities() (entities, fuzzy bool) {
	return x.entities.Available(), x.fuzzy.Available()
}

// Extract runs ExtractCore and attaches the filename.
func (x *Extractor) Extract(filename, text string) *domain.DocumentRecord {
	core := x.ExtractCore(text)
	return &domain.DocumentRecord{
		Filename:          filename,
		Fields:            core.Fields,
		Items:             core.Items,
		Lines:             core.Lines,
		Summary:           core.Summary,
		OverallConfidence: core.OverallConfidence,
	}
}

// ExtractCore is a pure function of text.
func (x *Extractor) ExtractCore(text string) domain.CoreResult {
	lines := ClassifyLines(text)
	items := ExtractItems(lines)
	route := ResolveRoute(lines, text)

	invoiceNo := first(x.synonyms.Resolve(text, KeyInvoiceNo), capture(invoiceFallback, text))
	date := first(x.synonyms.Resolve(text, KeyDate), capture(dateFallback, text))
	exporterRaw := x.synonyms.Resolve(text, KeyExporter)
	consigneeRaw := x.synonyms.Resolve(text, KeyConsignee)
	taxID := first(x.synonyms.Resolve(text, KeyTaxID), capture(taxIDFallback, text))
	currency := first(x.synonyms.Resolve(text, KeyCurrency), strings.ToUpper(capture(currencyFallback, text)))
	if currency == "" && strings.Contains(text, "$") {
		currency = usd
	}
	amount := resolveAmount(text)

	exporter, exporterScore := x.NormalizeEntity(exporterRaw)
	consignee, consigneeScore := x.NormalizeEntity(consigneeRaw)

	fields := map[string]domain.FieldValue{
		domain.FieldInvoiceNo:    present(invoiceNo),
		domain.FieldDate:         present(date),
		domain.FieldExporter:     blended(exporter, exporterScore),
		domain.FieldExporterRaw:  present(exporterRaw),
		domain.FieldConsignee:    blended(consignee, consigneeScore),
		domain.FieldConsigneeRaw: present(consigneeRaw),
		domain.FieldTaxID:        present(taxID),
		domain.FieldAmount:       present(amount),
		domain.FieldCurrency:     present(currency),
		domain.FieldPortLoading:  present(route.PortLoading),
		domain.FieldPortDest:     present(route.PortDest),
		domain.FieldMode:         present(route.Mode),
	}
	itemsField := domain.FieldValue{Value: items}
	if len(items) > 0 {
		itemsField.Validated = true
		itemsField.Confidence = presentConfidence
	}
	fields[domain.FieldItems] = itemsField

	return domain.CoreResult{
		Fields:            fields,
		Items:             items,
		Lines:             lines,
		Summary:           BuildSummary(fields, items),
		OverallConfidence: overallConfidence(fields),
	}
}

// BuildSummary renders the one-sentence document summary. Absent fields are
// left out of the sentence.
func BuildSummary(fields map[string]domain.FieldValue, items []domain.LineItem) string {
	get := func(k string) string { return fields[k].Text() }

	currency := get(domain.FieldCurrency)
	if currency == "" {
		for _, it := range items {
			if it.Currency == usd {
				currency = usd
				break
			}
		}
	}

	var header []string
	if v := get(domain.FieldInvoiceNo); v != "" {
		header = append(header, "Invoice "+v)
	} else {
		header = append(header, "Invoice")
	}
	if v := get(domain.FieldDate); v != "" {
		header = append(header, "dated "+v)
	}
	if v := get(domain.FieldExporter); v != "" {
		header = append(header, "from "+v)
	}
	if v := get(domain.FieldConsignee); v != "" {
		header = append(header, "to "+v)
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, " "))
	switch len(items) {
	case 0:
		b.WriteString(", no line items detected")
	case 1:
		b.WriteString(", 1 item")
	default:
		fmt.Fprintf(&b, ", %d items", len(items))
	}
	if amt := get(domain.FieldAmount); amt != "" {
		b.WriteString(", total ")
		if currency != "" {
			b.WriteString(currency + " ")
		}
		b.WriteString(amt)
	}
	b.WriteString(".")

	loading, dest := get(domain.FieldPortLoading), get(domain.FieldPortDest)
	if loading != "" && dest != "" {
		fmt.Fprintf(&b, " Shipped from %s to %s", loading, dest)
		if mode := get(domain.FieldMode); mode != "" {
			b.WriteString(" via " + mode)
		}
	}
	return b.String()
}

func resolveAmount(text string) string {
	for _, re := range amountRules {
		if v := capture(re, text); v != "" {
			return v
		}
	}
	return ""
}

func present(v string) domain.FieldValue {
	if v == "" {
		return domain.FieldValue{Value: nil}
	}
	return domain.FieldValue{Value: v, Validated: true, Confidence: presentConfidence}
}

func blended(v string, score float64) domain.FieldValue {
	if v == "" {
		return domain.FieldValue{Value: nil}
	}
	return domain.FieldValue{Value: v, Validated: true, Confidence: round2(0.5 + 0.5*clamp01(score))}
}

func overallConfidence(fields map[string]domain.FieldValue) float64 {
	if len(fields) == 0 {
		return 0
	}
	var sum float64
	for _, f := range fields {
		sum += f.Confidence
	}
	return clamp01(round2(sum / float64(len(fields))))
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
