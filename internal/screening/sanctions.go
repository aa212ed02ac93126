package screening

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/tradescan/internal/domain"
)

//go:embed sanctions.yaml
var defaultSanctions []byte

// Country is a sanctioned jurisdiction and its rationale.
type Country struct {
	Name   string `yaml:"name"`
	Reason string `yaml:"reason"`
}

// SanctionTable lists the screened names.
type SanctionTable struct {
	Countries  []Country `yaml:"countries"`
	Ports      []string  `yaml:"ports"`
	PortReason string    `yaml:"port_reason"`
}

// ParseSanctionTable decodes a YAML table.
func ParseSanctionTable(data []byte) (*SanctionTable, error) {
	var t SanctionTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse sanctions table: %w", err)
	}
	if len(t.Countries) == 0 && len(t.Ports) == 0 {
		return nil, fmt.Errorf("sanctions table is empty")
	}
	if t.PortReason == "" {
		t.PortReason = "Restricted port / embargoed route"
	}
	return &t, nil
}

// LoadSanctionTable reads a YAML table from path, or returns the embedded
// table when path is empty.
func LoadSanctionTable(path string) (*SanctionTable, error) {
	if path == "" {
		return ParseSanctionTable(defaultSanctions)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sanctions table %s: %w", path, err)
	}
	return ParseSanctionTable(data)
}

type matcher struct {
	name    string
	kind    string
	reason  string
	pattern *regexp.Regexp
}

// Screener matches party and route text against a sanction table.
type Screener struct {
	matchers []matcher
}

// NewScreener compiles a whole-word matcher per table entry.
func NewScreener(t *SanctionTable) *Screener {
	s := &Screener{}
	for _, c := range t.Countries {
		s.add(c.Name, domain.HitCountry, c.Reason)
	}
	for _, p := range t.Ports {
		s.add(p, domain.HitPort, t.PortReason)
	}
	return s
}

func (s *Screener) add(name, kind, reason string) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return
	}
	s.matchers = append(s.matchers, matcher{
		name:    name,
		kind:    kind,
		reason:  reason,
		pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`),
	})
}

// Screen checks exporter, consignee, both ports and the summary of every
// document. Any country hit is High, port-only hits are Medium.
func (s *Screener) Screen(docs []domain.Shipment) domain.SanctionAnalysis {
	hits := []domain.SanctionHit{}
	for _, d := range docs {
		block := strings.ToUpper(joinNonEmpty(d.Exporter, d.Consignee, d.PortLoading, d.PortDest, d.Summary))
		if block == "" {
			continue
		}
		for _, m := range s.matchers {
			if m.pattern.MatchString(block) {
				hits = append(hits, domain.SanctionHit{Document: d.Filename, Entity: m.name, Kind: m.kind, Reason: m.reason})
			}
		}
	}

	res := domain.SanctionAnalysis{Risk: domain.SeverityLow, Hits: hits, Summary: "No sanction-related entities detected."}
	if len(hits) == 0 {
		return res
	}
	res.Summary = fmt.Sprintf("%d potential sanction-related entities detected.", len(hits))
	res.Risk = domain.SeverityMedium
	for _, h := range hits {
		if h.Kind == domain.HitCountry {
			res.Risk = domain.SeverityHigh
			break
		}
	}
	return res
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
