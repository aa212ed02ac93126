// Package screening checks tariff-code consistency, sanctioned parties and
// routes, and trade terms across the documents of one shipment.
package screening

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// AnalyzeHS grades tariff-code consistency. One unique code is Low, codes
// sharing a two-digit chapter are Medium, and differing chapters or no
// codes at all are High.
func AnalyzeHS(docs []domain.Shipment) domain.HSAnalysis {
	var details []domain.HSDetail
	codes := make(map[string]struct{})
	chapters := make(map[string]struct{})
	for _, d := range docs {
		for _, it := range d.Items {
			code := strings.TrimSpace(it.TariffCode)
			if code == "" {
				continue
			}
			details = append(details, domain.HSDetail{Document: d.Filename, Code: code})
			codes[code] = struct{}{}
			if len(code) >= 2 {
				chapters[code[:2]] = struct{}{}
			}
		}
	}

	if len(details) == 0 {
		return domain.HSAnalysis{
			Risk:    domain.SeverityHigh,
			Summary: "No HS codes found in any document.",
			Details: []domain.HSDetail{},
		}
	}

	res := domain.HSAnalysis{Details: details}
	switch {
	case len(codes) == 1:
		res.Risk = domain.SeverityLow
		res.Summary = "All documents share the same HS Code: " + sortedKeys(codes)[0]
	case len(chapters) == 1:
		res.Risk = domain.SeverityMedium
		res.Summary = fmt.Sprintf("Different HS Codes, but same chapter (%s). Moderate consistency.", sortedKeys(chapters)[0])
	default:
		res.Risk = domain.SeverityHigh
		res.Summary = "HS Code inconsistency detected. Chapters differ across documents: " + strings.Join(sortedKeys(chapters), ", ")
	}
	return res
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
