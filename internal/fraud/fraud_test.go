package fraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func itemsOf(amounts ...string) []domain.LineItem {
	out := make([]domain.LineItem, len(amounts))
	for i, a := range amounts {
		out[i] = domain.LineItem{Amount: a}
	}
	return out
}

func TestTotalMismatch(t *testing.T) {
	tests := []struct {
		name  string
		doc   domain.Shipment
		flags bool
	}{
		{"exact", domain.Shipment{Amount: "100", Items: itemsOf("40", "60")}, false},
		{"over tolerance", domain.Shipment{Amount: "150", Items: itemsOf("40", "60")}, true},
		{"within two percent", domain.Shipment{Amount: "101.50", Items: itemsOf("40", "60")}, false},
		{"thousands separators", domain.Shipment{Amount: "$3,000.00", Items: itemsOf("$1,000.00", "2,000.00")}, false},
		{"no items", domain.Shipment{Amount: "100"}, false},
		{"no total", domain.Shipment{Items: itemsOf("40")}, false},
		{"unparseable item", domain.Shipment{Amount: "500", Items: itemsOf("40", "n/a")}, false},
		{"blank item amounts ignored", domain.Shipment{Amount: "500", Items: itemsOf("40", "")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.doc.Filename = "inv.pdf"
			alerts := TotalMismatch([]domain.Shipment{tt.doc})
			if !tt.flags {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, RuleTotalMismatch, alerts[0].Type)
			assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
			assert.Equal(t, []string{"inv.pdf"}, alerts[0].Documents)
		})
	}

	alerts := TotalMismatch([]domain.Shipment{{Amount: "150", Items: itemsOf("40", "60")}})
	require.Len(t, alerts, 1)
	assert.Equal(t, "Sum of item totals (100) ≠ invoice total (150).", alerts[0].Message)
}

func TestExporterVariation(t *testing.T) {
	assert.Empty(t, ExporterVariation([]domain.Shipment{{Exporter: "ABC Ltd."}, {Exporter: "abc ltd"}}))

	alerts := ExporterVariation([]domain.Shipment{{Exporter: "ABC Ltd"}, {Exporter: "ABC Limited"}, {}})
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, "Exporter names differ slightly: ABC Ltd, ABC Limited", alerts[0].Message)
}

func TestDuplicateInvoice(t *testing.T) {
	docs := []domain.Shipment{{InvoiceNo: "INV-1"}, {InvoiceNo: "INV-1"}, {InvoiceNo: "INV-2"}}
	alerts := DuplicateInvoice(docs)
	require.Len(t, alerts, 1)
	assert.Equal(t, RuleDuplicateInvoice, alerts[0].Type)
	assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "Repeated invoice number found: INV-1", alerts[0].Message)

	assert.Empty(t, DuplicateInvoice([]domain.Shipment{{InvoiceNo: "INV-1"}, {InvoiceNo: "INV-2"}, {}}))
}

func TestCheck(t *testing.T) {
	docs := []domain.Shipment{
		{Filename: "a", InvoiceNo: "INV-1", Exporter: "ABC", Amount: "150", Items: itemsOf("40", "60")},
		{Filename: "b", InvoiceNo: "INV-1", Exporter: "XYZ"},
	}
	alerts := Check(docs)
	require.Len(t, alerts, 3)
	assert.Equal(t, RuleTotalMismatch, alerts[0].Type)
	assert.Equal(t, RuleExporterVariation, alerts[1].Type)
	assert.Equal(t, RuleDuplicateInvoice, alerts[2].Type)
}
