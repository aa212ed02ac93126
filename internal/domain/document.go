// Package domain defines the core types and collaborator interfaces for tradescan.
package domain

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// LineLabel classifies a single line of extracted document text.
type LineLabel string

const (
	LabelInvoiceNo       LineLabel = "invoice_no"
	LabelTitle           LineLabel = "title"
	LabelDate            LineLabel = "date"
	LabelExporterHeader  LineLabel = "exporter_header"
	LabelConsigneeHeader LineLabel = "consignee_header"
	LabelPort            LineLabel = "port"
	LabelTransport       LineLabel = "transport"
	LabelPossibleItem    LineLabel = "possible_item"
	LabelOther           LineLabel = "other"
)

// LabeledLine is a non-blank source line with its classification.
type LabeledLine struct {
	Index      int       `json:"index"`
	Text       string    `json:"line"`
	Label      LineLabel `json:"label"`
	Confidence float64   `json:"confidence"`
}

// LineItem is one tabular row pulled from a document.
// Empty strings mean the column could not be resolved.
type LineItem struct {
	Description string `json:"Description,omitempty"`
	TariffCode  string `json:"HS Code,omitempty"`
	Quantity    string `json:"Quantity,omitempty"`
	Amount      string `json:"Amount,omitempty"`
	Currency    string `json:"Currency,omitempty"`
}

// FieldValue is a resolved document field and its confidence.
// Validated is true exactly when Value is non-empty.
type FieldValue struct {
	Value      any     `json:"value"`
	Validated  bool    `json:"validated"`
	Confidence float64 `json:"final_confidence"`
}

// Text returns the value as a string, or "" for non-string values.
func (f FieldValue) Text() string {
	s, _ := f.Value.(string)
	return s
}

// Document field keys, in the order they are presented.
const (
	FieldInvoiceNo    = "Invoice No"
	FieldDate         = "Date"
	FieldExporter     = "Exporter"
	FieldExporterRaw  = "Exporter Raw"
	FieldConsignee    = "Consignee"
	FieldConsigneeRaw = "Consignee Raw"
	FieldTaxID        = "Tax ID"
	FieldAmount       = "Amount"
	FieldCurrency     = "Currency"
	FieldPortLoading  = "Port of Loading"
	FieldPortDest     = "Port of Destination"
	FieldMode         = "Mode of Transport"
	FieldItems        = "Items"
)

// FieldOrder lists every document field key in presentation order.
var FieldOrder = []string{
	FieldInvoiceNo, FieldDate, FieldExporter, FieldExporterRaw,
	FieldConsignee, FieldConsigneeRaw, FieldTaxID, FieldAmount, FieldCurrency,
	FieldPortLoading, FieldPortDest, FieldMode, FieldItems,
}

// Route is the resolved shipment route. Empty fields are unresolved.
type Route struct {
	PortLoading string `json:"port_loading,omitempty"`
	PortDest    string `json:"port_dest,omitempty"`
	Mode        string `json:"mode,omitempty"`
}

// CoreResult is the output of text-only extraction.
type CoreResult struct {
	Fields            map[string]FieldValue `json:"key_fields"`
	Items             []LineItem            `json:"items"`
	Lines             []LabeledLine         `json:"debug_lines"`
	Summary           string                `json:"summary"`
	OverallConfidence float64               `json:"overall_confidence"`
}

// DocumentRecord is the confidence-scored record for one uploaded document.
type DocumentRecord struct {
	Filename          string                `json:"filename"`
	Fields            map[string]FieldValue `json:"key_fields"`
	Items             []LineItem            `json:"items"`
	Lines             []LabeledLine         `json:"-"`
	Summary           string                `json:"summary"`
	OverallConfidence float64               `json:"overall_confidence"`
}

// Field returns the string value stored under key.
func (r *DocumentRecord) Field(key string) string {
	if r == nil {
		return ""
	}
	return r.Fields[key].Text()
}

// Shipment is the flattened per-document view consumed by the comparator,
// detectors and screeners.
type Shipment struct {
	Filename    string     `json:"filename"`
	Summary     string     `json:"summary"`
	InvoiceNo   string     `json:"invoice_no"`
	Date        string     `json:"date"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency"`
	Exporter    string     `json:"exporter"`
	Consignee   string     `json:"consignee"`
	PortLoading string     `json:"port_loading"`
	PortDest    string     `json:"port_dest"`
	Mode        string     `json:"mode"`
	QtySum      int        `json:"qty_sum"`
	Items       []LineItem `json:"items"`
}

// NewShipment flattens a document record. Normalized party names fall back
// to their raw values.
func NewShipment(r *DocumentRecord) Shipment {
	exporter := r.Field(FieldExporter)
	if exporter == "" {
		exporter = r.Field(FieldExporterRaw)
	}
	consignee := r.Field(FieldConsignee)
	if consignee == "" {
		consignee = r.Field(FieldConsigneeRaw)
	}

	qty := 0
	for _, it := range r.Items {
		qty += DigitsInt(it.Quantity)
	}

	return Shipment{
		Filename:    r.Filename,
		Summary:     r.Summary,
		InvoiceNo:   r.Field(FieldInvoiceNo),
		Date:        r.Field(FieldDate),
		Amount:      r.Field(FieldAmount),
		Currency:    r.Field(FieldCurrency),
		Exporter:    exporter,
		Consignee:   consignee,
		PortLoading: r.Field(FieldPortLoading),
		PortDest:    r.Field(FieldPortDest),
		Mode:        r.Field(FieldMode),
		QtySum:      qty,
		Items:       r.Items,
	}
}

// NewShipments flattens a document set, preserving order.
func NewShipments(records []*DocumentRecord) []Shipment {
	out := make([]Shipment, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		out = append(out, NewShipment(r))
	}
	return out
}

// DigitsInt keeps only the ASCII digits of s and parses them.
// Strings without digits (or that overflow) yield 0.
func DigitsInt(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// ParseAmount keeps digits and decimal points and parses the result.
// It reports false for blank or malformed amounts.
func ParseAmount(s string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
