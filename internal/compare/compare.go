// Package compare reconciles the documents of one shipment field by field.
package compare

import (
	"strconv"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Tracked field names, in table order.
const (
	FieldInvoiceNo   = "invoice_no"
	FieldDate        = "date"
	FieldExporter    = "exporter"
	FieldConsignee   = "consignee"
	FieldPortLoading = "port_loading"
	FieldPortDest    = "port_dest"
	FieldMode        = "mode"
	FieldCurrency    = "currency"
	FieldQtySum      = "qty_sum"
)

type trackedField struct {
	name  string
	value func(domain.Shipment) string
}

var tracked = []trackedField{
	{FieldInvoiceNo, func(s domain.Shipment) string { return s.InvoiceNo }},
	{FieldDate, func(s domain.Shipment) string { return s.Date }},
	{FieldExporter, func(s domain.Shipment) string { return s.Exporter }},
	{FieldConsignee, func(s domain.Shipment) string { return s.Consignee }},
	{FieldPortLoading, func(s domain.Shipment) string { return s.PortLoading }},
	{FieldPortDest, func(s domain.Shipment) string { return s.PortDest }},
	{FieldMode, func(s domain.Shipment) string { return s.Mode }},
	{FieldCurrency, func(s domain.Shipment) string { return s.Currency }},
	{FieldQtySum, func(s domain.Shipment) string { return strconv.Itoa(s.QtySum) }},
}

// TrackedFields returns the compared field names in table order.
func TrackedFields() []string {
	out := make([]string, len(tracked))
	for i, f := range tracked {
		out[i] = f.name
	}
	return out
}

// Result holds the master table, the pairwise table and the mismatch report.
type Result struct {
	Table      []domain.ComparisonRow
	Pairwise   []domain.PairwiseRow
	Mismatches []domain.MismatchEntry
}

// MismatchCount is the number of master-table mismatches.
func (r Result) MismatchCount() int {
	return len(r.Mismatches)
}

// Build compares every tracked field across docs. Pairs are taken in input
// order (i < j).
func Build(docs []domain.Shipment) Result {
	var res Result
	for _, f := range tracked {
		values := make([]string, len(docs))
		for i, d := range docs {
			values[i] = f.value(d)
		}

		status := RowStatus(values)
		res.Table = append(res.Table, domain.ComparisonRow{Field: f.name, Values: values, Status: status})
		if status == domain.StatusMismatch {
			e := Explain(f.name, values, nil)
			res.Mismatches = append(res.Mismatches, domain.MismatchEntry{
				Field:      f.name,
				Values:     values,
				Issue:      e.Issue,
				Suggestion: e.Suggestion,
				Severity:   e.Severity,
			})
		}
	}

	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			for _, f := range tracked {
				res.Pairwise = append(res.Pairwise, pairRow(f, docs[i], docs[j]))
			}
		}
	}
	return res
}

// RowStatus is Missing when every value is blank, Match when the non-blank
// trimmed values are all equal, and Mismatch otherwise.
func RowStatus(values []string) domain.Status {
	distinct := make(map[string]struct{})
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			distinct[v] = struct{}{}
		}
	}
	switch len(distinct) {
	case 0:
		return domain.StatusMissing
	case 1:
		return domain.StatusMatch
	default:
		return domain.StatusMismatch
	}
}

func pairRow(f trackedField, a, b domain.Shipment) domain.PairwiseRow {
	v1, v2 := strings.TrimSpace(f.value(a)), strings.TrimSpace(f.value(b))
	row := domain.PairwiseRow{
		Field:  f.name,
		Doc1:   a.Filename,
		Doc2:   b.Filename,
		Value1: v1,
		Value2: v2,
	}
	switch {
	case v1 == "" && v2 == "":
		row.Status = domain.StatusMissing
	case v1 == v2:
		row.Status = domain.StatusMatch
	default:
		row.Status = domain.StatusMismatch
	}
	if row.Status != domain.StatusMatch {
		e := Explain(f.name, []string{v1}, []string{v2})
		row.Explanation = &e
	}
	return row
}
