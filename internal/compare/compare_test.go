package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func TestRowStatus(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   domain.Status
	}{
		{"all identical after trim", []string{"INV-1", " INV-1 ", "INV-1"}, domain.StatusMatch},
		{"all empty", []string{"", " ", ""}, domain.StatusMissing},
		{"no documents", nil, domain.StatusMissing},
		{"one value rest blank", []string{"Sea", "", ""}, domain.StatusMatch},
		{"differs", []string{"Sea", "Air"}, domain.StatusMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RowStatus(tt.values))
		})
	}
}

func shipments() []domain.Shipment {
	return []domain.Shipment{
		{Filename: "invoice.pdf", InvoiceNo: "INV-1", Exporter: "ABC Ltd", PortDest: "Hamburg", Mode: "Sea", Currency: "USD", QtySum: 300},
		{Filename: "packing.pdf", InvoiceNo: "INV-1", Exporter: "ABC Ltd", PortDest: "Hamburg", Mode: "Air", Currency: "USD", QtySum: 300},
		{Filename: "bl.pdf", InvoiceNo: "INV-1", Exporter: "ABC Limited", PortDest: "Hamburg", Mode: "Sea", Currency: "USD", QtySum: 280},
	}
}

func TestBuild(t *testing.T) {
	res := Build(shipments())

	require.Len(t, res.Table, len(TrackedFields()))
	status := map[string]domain.Status{}
	for _, row := range res.Table {
		status[row.Field] = row.Status
		assert.Len(t, row.Values, 3)
	}
	assert.Equal(t, domain.StatusMatch, status[FieldInvoiceNo])
	assert.Equal(t, domain.StatusMissing, status[FieldDate])
	assert.Equal(t, domain.StatusMismatch, status[FieldExporter])
	assert.Equal(t, domain.StatusMismatch, status[FieldMode])
	assert.Equal(t, domain.StatusMismatch, status[FieldQtySum])

	assert.Equal(t, 3, res.MismatchCount())
	assert.Equal(t, FieldExporter, res.Mismatches[0].Field)
	assert.Equal(t, "Exporter/shipper mismatch: ABC Ltd, ABC Ltd, ABC Limited vs .", res.Mismatches[0].Issue)
	assert.Equal(t, domain.SeverityMedium, res.Mismatches[0].Severity)

	// 3 pairs x 9 fields
	require.Len(t, res.Pairwise, 27)
	first := res.Pairwise[0]
	assert.Equal(t, "invoice.pdf", first.Doc1)
	assert.Equal(t, "packing.pdf", first.Doc2)
	assert.Equal(t, domain.StatusMatch, first.Status)
	assert.Nil(t, first.Explanation)

	for _, row := range res.Pairwise {
		if row.Field == FieldMode && row.Doc2 == "packing.pdf" {
			assert.Equal(t, domain.StatusMismatch, row.Status)
			require.NotNil(t, row.Explanation)
			assert.Equal(t, "Transport mode mismatch: Sea vs Air.", row.Explanation.Issue)
		}
		if row.Field == FieldDate {
			assert.Equal(t, domain.StatusMissing, row.Status)
			assert.NotNil(t, row.Explanation)
		}
	}
}

func TestBuild_ReorderKeepsStatuses(t *testing.T) {
	docs := shipments()
	reversed := []domain.Shipment{docs[2], docs[1], docs[0]}

	a, b := Build(docs), Build(reversed)
	for i := range a.Table {
		assert.Equal(t, a.Table[i].Status, b.Table[i].Status, a.Table[i].Field)
	}
	assert.Equal(t, a.MismatchCount(), b.MismatchCount())
}

func TestBuild_ZeroQuantityIsPresent(t *testing.T) {
	res := Build([]domain.Shipment{
		{Filename: "a.pdf", InvoiceNo: "INV-9"},
		{Filename: "b.pdf", InvoiceNo: "INV-9"},
	})

	for _, row := range res.Table {
		if row.Field == FieldQtySum {
			assert.Equal(t, domain.StatusMatch, row.Status)
		}
	}
	var seen bool
	for _, row := range res.Pairwise {
		if row.Field != FieldQtySum {
			continue
		}
		seen = true
		assert.Equal(t, "0", row.Value1)
		assert.Equal(t, "0", row.Value2)
		assert.Equal(t, domain.StatusMatch, row.Status)
		assert.Nil(t, row.Explanation)
	}
	assert.True(t, seen, "qty_sum pair row")
}

func TestBuild_SingleAndEmpty(t *testing.T) {
	one := Build(shipments()[:1])
	assert.Empty(t, one.Pairwise)
	assert.Zero(t, one.MismatchCount())

	none := Build(nil)
	require.Len(t, none.Table, len(TrackedFields()))
	for _, row := range none.Table {
		assert.Equal(t, domain.StatusMissing, row.Status)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		field    string
		severity domain.Severity
		issue    string
	}{
		{"qty_sum", domain.SeverityMedium, "Qty Sum mismatch: 1 vs 2."},
		{"Amount", domain.SeverityHigh, "Amount mismatch: 1 vs 2."},
		{"invoice_no", domain.SeverityHigh, "Invoice/reference mismatch: 1 vs 2."},
		{"Invoice-No", domain.SeverityHigh, "Invoice/reference mismatch: 1 vs 2."},
		{"shipper", domain.SeverityMedium, "Exporter/shipper mismatch: 1 vs 2."},
		{"buyer", domain.SeverityHigh, "Consignee mismatch: 1 vs 2."},
		{"currency", domain.SeverityMedium, "Currency mismatch: 1 vs 2."},
		{"port_dest", domain.SeverityMedium, "Port mismatch: 1 vs 2."},
		{"Mode of Transport", domain.SeverityMedium, "Transport mode mismatch: 1 vs 2."},
		{"colour", domain.SeverityLow, "colour differences detected: 1 vs 2."},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			e := Explain(tt.field, []string{"1"}, []string{"2"})
			assert.Equal(t, tt.severity, e.Severity)
			assert.Equal(t, tt.issue, e.Issue)
			assert.NotEmpty(t, e.Suggestion)
			assert.Equal(t, tt.field, e.Field)
		})
	}

	t.Run("sequences skip blanks", func(t *testing.T) {
		e := Explain("exporter", []string{"A", "", " B "}, nil)
		assert.Equal(t, "A, B", e.Value1)
		assert.Empty(t, e.Value2)
	})
}
