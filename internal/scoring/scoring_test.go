package scoring

import (
	"testing"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func TestProcessor(t *testing.T) {
	proc := NewProcessor(domain.DefaultScoring())

	t.Run("AllLow", func(t *testing.T) {
		a := proc.Process(Input{
			DocCount:     2,
			HSRisk:       domain.SeverityLow,
			SanctionRisk: domain.SeverityLow,
			IncotermRisk: domain.SeverityLow,
		})

		if a.Score != 97 {
			t.Errorf("expected score 97, got %d", a.Score)
		}
		if a.Tier != domain.SeverityLow {
			t.Errorf("expected Low tier, got %s", a.Tier)
		}
		want := "Across 2 documents, 0 field mismatches. Overall trade confidence is Low (97%)."
		if a.Summary != want {
			t.Errorf("unexpected summary:\n got %q\nwant %q", a.Summary, want)
		}
	})

	t.Run("PenaltiesAndHighScreening", func(t *testing.T) {
		a := proc.Process(Input{
			DocCount:      3,
			MismatchCount: 3,
			Fraud:         []domain.Alert{{Severity: domain.SeverityHigh}, {Severity: domain.SeverityMedium}},
			HSRisk:        domain.SeverityHigh,
			SanctionRisk:  domain.SeverityHigh,
			IncotermRisk:  domain.SeverityLow,
		})

		// base 100-12-8 = 80; 32 + 9 + 9 + 19 = 69
		if a.Score != 69 {
			t.Errorf("expected score 69, got %d", a.Score)
		}
		if a.Tier != domain.SeverityHigh {
			t.Errorf("expected High tier, got %s", a.Tier)
		}
		want := "Across 3 documents, 3 field mismatches and fraud/pattern anomalies detected. Overall trade confidence is High (69%)."
		if a.Summary != want {
			t.Errorf("unexpected summary:\n got %q\nwant %q", a.Summary, want)
		}

		m := a.Breakdown[domain.CategoryMismatches]
		if m.Risk != domain.SeverityHigh || m.Score != 52 {
			t.Errorf("unexpected mismatch breakdown: %+v", m)
		}
		if a.Breakdown[domain.CategoryHS].Score != 45 {
			t.Errorf("expected HS score 45, got %d", a.Breakdown[domain.CategoryHS].Score)
		}
	})

	t.Run("PatternPenaltyOnlyCountsHigh", func(t *testing.T) {
		a := proc.Process(Input{
			DocCount: 3,
			Patterns: []domain.Alert{{Severity: domain.SeverityMedium}, {Severity: domain.SeverityLow}},
			HSRisk:   domain.SeverityLow, SanctionRisk: domain.SeverityLow, IncotermRisk: domain.SeverityLow,
		})
		if a.Score != 97 {
			t.Errorf("expected score 97, got %d", a.Score)
		}

		a = proc.Process(Input{
			DocCount: 3,
			Patterns: []domain.Alert{{Severity: domain.SeverityHigh}},
			HSRisk:   domain.SeverityLow, SanctionRisk: domain.SeverityLow, IncotermRisk: domain.SeverityLow,
		})
		// base 95 -> 38 + 57
		if a.Score != 95 {
			t.Errorf("expected score 95, got %d", a.Score)
		}
	})

	t.Run("EmptyLevelsScoreFull", func(t *testing.T) {
		a := proc.Process(Input{DocCount: 1})
		if a.Score != 100 {
			t.Errorf("expected score 100, got %d", a.Score)
		}
		if a.Breakdown[domain.CategorySanctions].Risk != domain.SeverityLow {
			t.Errorf("expected empty sanction risk to report Low, got %s", a.Breakdown[domain.CategorySanctions].Risk)
		}
	})

	t.Run("ClampedAtZero", func(t *testing.T) {
		a := proc.Process(Input{DocCount: 2, MismatchCount: 100})
		if a.Score != 0 {
			t.Errorf("expected score 0, got %d", a.Score)
		}
		if a.Breakdown[domain.CategoryMismatches].Score != 0 {
			t.Errorf("expected mismatch score floor 0, got %d", a.Breakdown[domain.CategoryMismatches].Score)
		}
	})
}

func TestLevelScore(t *testing.T) {
	proc := NewProcessor(domain.DefaultScoring())

	tests := []struct {
		level domain.RiskLevel
		want  int
	}{
		{"", 100},
		{domain.SeverityLow, 95},
		{domain.SeverityMedium, 75},
		{domain.SeverityHigh, 45},
		{"Critical", 80},
	}

	for _, tt := range tests {
		if got := proc.LevelScore(tt.level); got != tt.want {
			t.Errorf("LevelScore(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestTierBoundaries(t *testing.T) {
	proc := NewProcessor(domain.DefaultScoring())

	tests := []struct {
		score int
		want  domain.RiskLevel
	}{
		{100, domain.SeverityLow},
		{90, domain.SeverityLow},
		{89, domain.SeverityMedium},
		{70, domain.SeverityMedium},
		{69, domain.SeverityHigh},
		{0, domain.SeverityHigh},
	}

	for _, tt := range tests {
		if got := proc.Tier(tt.score); got != tt.want {
			t.Errorf("Tier(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestFinalizeAfterAdjustment(t *testing.T) {
	proc := NewProcessor(domain.DefaultScoring())
	in := Input{DocCount: 2, MismatchCount: 1}

	a := proc.Finalize(in, 87)
	if a.Tier != domain.SeverityMedium {
		t.Errorf("expected Medium tier, got %s", a.Tier)
	}
	want := "Across 2 documents, 1 field mismatches. Overall trade confidence is Medium (87%)."
	if a.Summary != want {
		t.Errorf("unexpected summary:\n got %q\nwant %q", a.Summary, want)
	}
}

func TestZeroConfigUsesDefaults(t *testing.T) {
	proc := NewProcessor(domain.ScoringConfig{})
	if got := proc.Process(Input{}).Score; got != 100 {
		t.Errorf("expected default-weighted score 100, got %d", got)
	}
}

func TestHeatmap(t *testing.T) {
	keywords := domain.DefaultScoring().RegionKeywords

	docs := []domain.Shipment{
		{Exporter: "Acme Exports", PortDest: "Hamburg"},
		{Exporter: "Acme Exports", PortDest: "Hamburg"},
		{Exporter: "Volga Trading", PortDest: "Novorossiysk, Russia"},
		{Exporter: "Harbor Limited", PortDest: "Rotterdam"},
		{Exporter: "", PortDest: "Rotterdam"},
	}

	cells := Heatmap(docs, keywords)
	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}

	if cells[0].Exporter != "Volga Trading" || cells[0].AvgRisk != 95 {
		t.Errorf("expected sanctioned pair first at 95, got %+v", cells[0])
	}
	if cells[1].Exporter != unknownExporter || cells[1].AvgRisk != 90 {
		t.Errorf("expected unknown exporter at 90, got %+v", cells[1])
	}

	byExporter := map[string]domain.HeatmapCell{}
	for _, c := range cells {
		byExporter[c.Exporter] = c
	}

	acme := byExporter["Acme Exports"]
	if acme.Count != 2 {
		t.Errorf("expected Acme pair counted twice, got %d", acme.Count)
	}
	if acme.AvgRisk < 60 || acme.AvgRisk >= 90 {
		t.Errorf("expected hashed risk in [60,90), got %.1f", acme.AvgRisk)
	}
	if byExporter["Harbor Limited"].AvgRisk != 55 {
		t.Errorf("expected Limited exporter at 55, got %.1f", byExporter["Harbor Limited"].AvgRisk)
	}

	for i := 1; i < len(cells); i++ {
		if cells[i].AvgRisk > cells[i-1].AvgRisk {
			t.Fatalf("cells not sorted descending at %d", i)
		}
	}
}

func TestHeatmapDeterministic(t *testing.T) {
	docs := []domain.Shipment{{Exporter: "Acme Exports", PortDest: "Hamburg"}}
	a := Heatmap(docs, nil)
	b := Heatmap(docs, nil)
	if a[0].AvgRisk != b[0].AvgRisk {
		t.Errorf("heatmap risk not deterministic: %.1f vs %.1f", a[0].AvgRisk, b[0].AvgRisk)
	}
}
