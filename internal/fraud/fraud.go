// Package fraud evaluates integrity rules over a document set.
package fraud

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Rule names.
const (
	RuleTotalMismatch     = "Invoice total mismatch"
	RuleExporterVariation = "Exporter name format variation"
	RuleDuplicateInvoice  = "Duplicate Invoice Number"
)

// totalTolerance is the allowed relative gap between items and total.
var totalTolerance = decimal.NewFromFloat(0.02)

var nonAlnum = regexp.MustCompile(`[\W_]+`)

// Rule inspects the full document set.
type Rule func(docs []domain.Shipment) []domain.Alert

// DefaultRules returns the integrity rules in report order.
func DefaultRules() []Rule {
	return []Rule{TotalMismatch, ExporterVariation, DuplicateInvoice}
}

// Check runs the default rules.
func Check(docs []domain.Shipment) []domain.Alert {
	var alerts []domain.Alert
	for _, rule := range DefaultRules() {
		alerts = append(alerts, rule(docs)...)
	}
	return alerts
}

// TotalMismatch flags documents whose item amounts do not add up to the
// invoice total within 2%. Documents with an unparseable total or item
// amount are skipped.
func TotalMismatch(docs []domain.Shipment) []domain.Alert {
	var alerts []domain.Alert
	for _, d := range docs {
		if len(d.Items) == 0 {
			continue
		}
		total, ok := domain.ParseAmount(d.Amount)
		if !ok {
			continue
		}
		sum, ok := sumItems(d.Items)
		if !ok {
			continue
		}
		if sum.Sub(total).Abs().GreaterThan(total.Mul(totalTolerance)) {
			alerts = append(alerts, domain.Alert{
				Type:      RuleTotalMismatch,
				Severity:  domain.SeverityHigh,
				Message:   fmt.Sprintf("Sum of item totals (%s) ≠ invoice total (%s).", sum.String(), total.String()),
				Documents: []string{d.Filename},
			})
		}
	}
	return alerts
}

func sumItems(items []domain.LineItem) (decimal.Decimal, bool) {
	sum := decimal.Zero
	for _, it := range items {
		if it.Amount == "" {
			continue
		}
		amt, ok := domain.ParseAmount(it.Amount)
		if !ok {
			return decimal.Zero, false
		}
		sum = sum.Add(amt)
	}
	return sum, true
}

// ExporterVariation flags exporter names that differ once case and
// punctuation are removed.
func ExporterVariation(docs []domain.Shipment) []domain.Alert {
	var names []string
	forms := make(map[string]struct{})
	for _, d := range docs {
		if d.Exporter == "" {
			continue
		}
		names = append(names, d.Exporter)
		forms[nonAlnum.ReplaceAllString(strings.ToLower(d.Exporter), "")] = struct{}{}
	}
	if len(forms) <= 1 {
		return nil
	}
	return []domain.Alert{{
		Type:     RuleExporterVariation,
		Severity: domain.SeverityMedium,
		Message:  "Exporter names differ slightly: " + strings.Join(names, ", "),
		Values:   names,
	}}
}

// DuplicateInvoice flags a repeated invoice number across documents.
func DuplicateInvoice(docs []domain.Shipment) []domain.Alert {
	seen := make(map[string]int)
	var numbers, repeated []string
	for _, d := range docs {
		if d.InvoiceNo == "" {
			continue
		}
		numbers = append(numbers, d.InvoiceNo)
		seen[d.InvoiceNo]++
		if seen[d.InvoiceNo] == 2 {
			repeated = append(repeated, d.InvoiceNo)
		}
	}
	if len(repeated) == 0 {
		return nil
	}
	return []domain.Alert{{
		Type:     RuleDuplicateInvoice,
		Severity: domain.SeverityHigh,
		Message:  "Repeated invoice number found: " + strings.Join(repeated, ", "),
		Values:   numbers,
	}}
}
