// Package scoring implements the cognitive risk aggregator.
// It folds mismatch, fraud and pattern penalties together with the
// screening risk levels into a single 0-100 trade confidence score.
package scoring

import (
	"fmt"
	"math"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Processor aggregates analysis results into a cognitive score.
type Processor struct {
	cfg domain.ScoringConfig
}

// NewProcessor creates a processor. Zero weights fall back to the defaults.
func NewProcessor(cfg domain.ScoringConfig) *Processor {
	if cfg.BaseWeight+cfg.HSWeight+cfg.SanctionWeight+cfg.IncotermWeight == 0 {
		cfg = domain.DefaultScoring()
	}
	return &Processor{cfg: cfg}
}

// Input contains all data needed for a cognitive score.
type Input struct {
	DocCount      int
	MismatchCount int
	Fraud         []domain.Alert
	Patterns      []domain.Alert
	HSRisk        domain.RiskLevel
	SanctionRisk  domain.RiskLevel
	IncotermRisk  domain.RiskLevel
}

// Process computes the cognitive score, tier, summary and per-category breakdown.
func (p *Processor) Process(in Input) domain.RiskAssessment {
	mismatchPenalty := in.MismatchCount * p.cfg.MismatchPenalty
	fraudPenalty := countHigh(in.Fraud) * p.cfg.FraudPenalty
	patternPenalty := countHigh(in.Patterns) * p.cfg.PatternPenalty

	hsScore := p.LevelScore(in.HSRisk)
	sanctionScore := p.LevelScore(in.SanctionRisk)
	incotermScore := p.LevelScore(in.IncotermRisk)

	base := float64(100 - mismatchPenalty - fraudPenalty - patternPenalty)
	weighted := base*p.cfg.BaseWeight +
		float64(hsScore)*p.cfg.HSWeight +
		float64(sanctionScore)*p.cfg.SanctionWeight +
		float64(incotermScore)*p.cfg.IncotermWeight

	score := int(math.Max(0, math.Min(100, weighted)))

	a := p.Finalize(in, score)
	a.Breakdown = map[string]domain.CategoryScore{
		domain.CategoryHS:        {Risk: in.HSRisk, Score: hsScore},
		domain.CategorySanctions: {Risk: orLow(in.SanctionRisk), Score: sanctionScore},
		domain.CategoryIncoterm:  {Risk: orLow(in.IncotermRisk), Score: incotermScore},
		domain.CategoryMismatches: {
			Risk:  mismatchRisk(mismatchPenalty),
			Score: max(0, 100-mismatchPenalty*4),
		},
	}
	return a
}

// Finalize derives tier and summary for a given score. It is used again
// after the historical recurrence penalty adjusts the score.
func (p *Processor) Finalize(in Input, score int) domain.RiskAssessment {
	tier := p.Tier(score)
	anomalies := countHigh(in.Fraud)*p.cfg.FraudPenalty+countHigh(in.Patterns)*p.cfg.PatternPenalty > 0
	return domain.RiskAssessment{
		Score:   score,
		Tier:    tier,
		Summary: Summary(in.DocCount, in.MismatchCount, anomalies, tier, score),
	}
}

// Tier maps a cognitive score onto a risk tier.
func (p *Processor) Tier(score int) domain.RiskLevel {
	switch {
	case score >= p.cfg.LowTierMin:
		return domain.SeverityLow
	case score >= p.cfg.MediumTierMin:
		return domain.SeverityMedium
	default:
		return domain.SeverityHigh
	}
}

// LevelScore converts a screening risk level into a component score.
func (p *Processor) LevelScore(level domain.RiskLevel) int {
	switch level {
	case "":
		return p.cfg.EmptyScore
	case domain.SeverityLow:
		return p.cfg.LowScore
	case domain.SeverityMedium:
		return p.cfg.MediumScore
	case domain.SeverityHigh:
		return p.cfg.HighScore
	default:
		return p.cfg.UnknownScore
	}
}

// Summary renders the one-sentence cognitive summary.
func Summary(docs, mismatches int, anomalies bool, tier domain.RiskLevel, score int) string {
	tail := ". "
	if anomalies {
		tail = " and fraud/pattern anomalies detected. "
	}
	return fmt.Sprintf("Across %d documents, %d field mismatches%sOverall trade confidence is %s (%d%%).",
		docs, mismatches, tail, tier, score)
}

func mismatchRisk(penalty int) domain.RiskLevel {
	switch {
	case penalty > 8:
		return domain.SeverityHigh
	case penalty > 3:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func countHigh(alerts []domain.Alert) int {
	n := 0
	for _, a := range alerts {
		if a.Severity == domain.SeverityHigh {
			n++
		}
	}
	return n
}

func orLow(level domain.RiskLevel) domain.RiskLevel {
	if level == "" {
		return domain.SeverityLow
	}
	return level
}
