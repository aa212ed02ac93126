package screening

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Incoterms 2020 rules, in report order.
var Incoterms = []string{"EXW", "FCA", "FAS", "FOB", "CFR", "CIF", "CPT", "CIP", "DAP", "DPU", "DDP"}

var (
	incotermPatterns = compileIncoterms()
	nonTermChars     = regexp.MustCompile(`[^A-Z0-9 ]+`)
	spaces           = regexp.MustCompile(`\s{2,}`)
)

// compileIncoterms matches "CIF", spaced "C I F" and "CIF ... 2020".
func compileIncoterms() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(Incoterms))
	for _, term := range Incoterms {
		spaced := strings.Join(strings.Split(term, ""), " ")
		out[term] = regexp.MustCompile(`\b` + term + `\b|` + spaced + `|` + term + `[A-Z ]{0,15}2020`)
	}
	return out
}

// DetectIncoterms screens trade terms. When disabled it reports Low so the
// cognitive score treats the category as clean.
func DetectIncoterms(docs []domain.Shipment, enabled bool) domain.IncotermAnalysis {
	if !enabled {
		return domain.IncotermAnalysis{
			Risk:    domain.SeverityLow,
			Summary: "Incoterm screening disabled.",
			Terms:   []string{},
			Details: []domain.IncotermHit{},
		}
	}

	res := domain.IncotermAnalysis{Enabled: true, Terms: []string{}, Details: []domain.IncotermHit{}}
	seen := make(map[string]bool)
	for _, d := range docs {
		text := normalizeTerms(strings.Join([]string{d.Summary, d.PortLoading, d.PortDest, d.InvoiceNo}, " "))
		var found []string
		for _, term := range Incoterms {
			if incotermPatterns[term].MatchString(text) {
				found = append(found, term)
			}
		}
		if len(found) == 0 {
			continue
		}
		res.Details = append(res.Details, domain.IncotermHit{Document: d.Filename, Terms: found})
		for _, term := range found {
			seen[term] = true
		}
	}
	for _, term := range Incoterms {
		if seen[term] {
			res.Terms = append(res.Terms, term)
		}
	}

	switch len(res.Terms) {
	case 0:
		res.Risk = domain.SeverityHigh
		res.Summary = "No Incoterms detected in the provided documents."
	case 1:
		res.Risk = domain.SeverityLow
		res.Summary = fmt.Sprintf("Detected Incoterm(s): %s", res.Terms[0])
	default:
		res.Risk = domain.SeverityMedium
		res.Summary = fmt.Sprintf("Detected Incoterm(s): %s", strings.Join(res.Terms, ", "))
	}
	return res
}

func normalizeTerms(text string) string {
	text = strings.ToUpper(strings.NewReplacer("\n", " ", "\r", " ").Replace(text))
	text = nonTermChars.ReplaceAllString(text, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}
