package rules

import (
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// BuiltinRules returns the default risk triggers in reason order.
func BuiltinRules() []domain.RiskRule {
	return []domain.RiskRule{
		{
			ID:         "hs-moderate",
			Name:       "Moderate HS inconsistency",
			Expression: `hs_risk == "Medium"`,
			Points:     25,
			Reason:     "Moderate HS code inconsistency across documents",
			Enabled:    true,
		},
		{
			ID:         "hs-significant",
			Name:       "Significant HS inconsistency",
			Expression: `hs_risk == "High"`,
			Points:     45,
			Reason:     "Significant HS code inconsistency (different chapters)",
			Enabled:    true,
		},
		{
			ID:         "sanctioned-region",
			Name:       "Sanctioned region",
			Expression: `region_texts.exists(t, region_keywords.exists(k, t.contains(k)))`,
			Points:     35,
			Reason:     "Involvement of sanctioned or high-risk region",
			Enabled:    true,
		},
		{
			ID:         "field-mismatches",
			Name:       "Critical field mismatches",
			Expression: `mismatch_count > 0 ? (20 + 5 * mismatch_count > 40 ? 40 : 20 + 5 * mismatch_count) : 0`,
			Reason:     "{mismatch_count} critical field mismatches detected",
			Enabled:    true,
		},
	}
}

// RegionTexts builds the per-document text screened for region keywords:
// lowercased destination port followed by exporter.
func RegionTexts(docs []domain.Shipment) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = strings.ToLower(d.PortDest) + strings.ToLower(d.Exporter)
	}
	return out
}
