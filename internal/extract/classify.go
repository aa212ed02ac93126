// Package extract turns raw trade-document text into a confidence-scored
// record: labeled lines, synonym-resolved fields, line items, cleaned party
// names and the shipment route.
package extract

import (
	"regexp"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Line confidences are presentation hints, not measured scores.
const (
	labeledConfidence = 0.90
	otherConfidence   = 0.75
)

type lineRule struct {
	label   domain.LineLabel
	pattern *regexp.Regexp
}

// lineRules are tested in order; the first match labels the line.
var lineRules = []lineRule{
	{domain.LabelInvoiceNo, regexp.MustCompile(`invoice\s*no`)},
	{domain.LabelTitle, regexp.MustCompile(`^\s*invoice\b`)},
	{domain.LabelDate, regexp.MustCompile(`\bdate\b`)},
	{domain.LabelExporterHeader, regexp.MustCompile(`exporter|exported by`)},
	{domain.LabelConsigneeHeader, regexp.MustCompile(`consignee`)},
	{domain.LabelPort, regexp.MustCompile(`\bport\b`)},
	{domain.LabelTransport, regexp.MustCompile(`\b(?:sea|air|road|rail|courier|ship|vessel|flight)\b`)},
	{domain.LabelPossibleItem, regexp.MustCompile(`hs\s*code|qty|quantity|\$|\b\d{6,8}\b`)},
}

// ClassifyLines splits text into trimmed non-blank lines and labels each.
func ClassifyLines(text string) []domain.LabeledLine {
	var out []domain.LabeledLine
	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		out = append(out, classify(len(out), line))
	}
	return out
}

func classify(idx int, line string) domain.LabeledLine {
	low := strings.ToLower(line)
	for _, r := range lineRules {
		if r.pattern.MatchString(low) {
			return domain.LabeledLine{Index: idx, Text: line, Label: r.label, Confidence: labeledConfidence}
		}
	}
	return domain.LabeledLine{Index: idx, Text: line, Label: domain.LabelOther, Confidence: otherConfidence}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
