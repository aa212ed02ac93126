package domain

import "time"

// Severity grades alerts and explanations.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// RiskLevel grades screening analyses and tiers. It shares Severity's values.
type RiskLevel = Severity

// Status is the outcome of comparing one field across documents.
type Status string

const (
	StatusMatch    Status = "Match"
	StatusMismatch Status = "Mismatch"
	StatusMissing  Status = "Missing"
)

// ComparisonRow is one tracked field across all documents.
// Values are aligned to the input document order.
type ComparisonRow struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
	Status Status   `json:"status"`
}

// PairwiseRow compares a field between exactly two documents.
type PairwiseRow struct {
	Field       string       `json:"field"`
	Doc1        string       `json:"doc1"`
	Doc2        string       `json:"doc2"`
	Value1      string       `json:"value1"`
	Value2      string       `json:"value2"`
	Status      Status       `json:"status"`
	Explanation *Explanation `json:"explanation,omitempty"`
}

// Explanation describes a field-level mismatch in plain language.
type Explanation struct {
	Field      string   `json:"field"`
	Value1     string   `json:"value1"`
	Value2     string   `json:"value2"`
	Issue      string   `json:"issue_summary"`
	Suggestion string   `json:"suggestion"`
	Severity   Severity `json:"severity"`
}

// MismatchEntry reports a master-table mismatch.
type MismatchEntry struct {
	Field      string   `json:"field"`
	Values     []string `json:"values"`
	Issue      string   `json:"issue"`
	Suggestion string   `json:"suggestion"`
	Severity   Severity `json:"severity"`
}

// Alert is a fraud rule finding or a statistical/pattern anomaly.
type Alert struct {
	Type      string   `json:"type"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	Documents []string `json:"documents,omitempty"`
	Values    []string `json:"values,omitempty"`
	Value     float64  `json:"value,omitempty"`
	Mean      float64  `json:"mean,omitempty"`
	Median    float64  `json:"median,omitempty"`
	ZScore    float64  `json:"z_score,omitempty"`
}

// HSDetail is one tariff code found on a document line item.
type HSDetail struct {
	Document string `json:"doc"`
	Code     string `json:"hs"`
}

// HSAnalysis is the tariff-code consistency screening result.
type HSAnalysis struct {
	Risk    RiskLevel  `json:"risk_level"`
	Summary string     `json:"summary"`
	Details []HSDetail `json:"details"`
}

// SanctionHit is one matched sanctioned country or restricted port.
type SanctionHit struct {
	Document string `json:"document"`
	Entity   string `json:"entity"`
	Kind     string `json:"kind"`
	Reason   string `json:"reason"`
}

// Sanction hit kinds.
const (
	HitCountry = "country"
	HitPort    = "port"
)

// SanctionAnalysis is the sanctioned-entity screening result.
type SanctionAnalysis struct {
	Risk    RiskLevel     `json:"risk_level"`
	Summary string        `json:"summary"`
	Hits    []SanctionHit `json:"hits"`
}

// IncotermAnalysis is the trade-term screening result.
type IncotermAnalysis struct {
	Enabled bool          `json:"enabled"`
	Risk    RiskLevel     `json:"risk_level"`
	Summary string        `json:"summary"`
	Terms   []string      `json:"terms"`
	Details []IncotermHit `json:"details"`
}

// IncotermHit lists the trade terms found in one document.
type IncotermHit struct {
	Document string   `json:"document"`
	Terms    []string `json:"terms"`
}

// RiskScore is the additive trigger-based score.
type RiskScore struct {
	Score   int       `json:"score"`
	Level   RiskLevel `json:"level"`
	Reasons []string  `json:"reasons"`
}

// CategoryScore is one entry of the cognitive breakdown.
type CategoryScore struct {
	Risk  RiskLevel `json:"risk_level"`
	Score int       `json:"score"`
}

// Breakdown categories.
const (
	CategoryHS         = "HS Code"
	CategorySanctions  = "Sanctions"
	CategoryIncoterm   = "Incoterm"
	CategoryMismatches = "Mismatches"
)

// RiskAssessment is the weighted cognitive score and its breakdown.
type RiskAssessment struct {
	Score     int                      `json:"cognitive_score"`
	Tier      RiskLevel                `json:"tier"`
	Summary   string                   `json:"cognitive_summary"`
	Breakdown map[string]CategoryScore `json:"cognitive_breakdown"`
}

// MemoryRecord is one persisted comparison run.
type MemoryRecord struct {
	ID             string    `json:"id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Exporters      []string  `json:"exporters"`
	Consignees     []string  `json:"consignees"`
	DestPorts      []string  `json:"ports"`
	CognitiveScore int       `json:"cognitive_score"`
	RiskTier       RiskLevel `json:"risk_tier"`
	HSRisk         RiskLevel `json:"hs_risk"`
	MismatchCount  int       `json:"mismatch_count"`
}

// TrendPoint is one retained run in the history trend series.
type TrendPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	CognitiveScore int       `json:"cognitive_score"`
	RiskTier       RiskLevel `json:"risk_tier"`
	Exporters      []string  `json:"exporters"`
	Ports          []string  `json:"ports"`
	MismatchCount  int       `json:"mismatch_count"`
}

// RiskHistory reports cross-run recurrence.
type RiskHistory struct {
	TotalRecords       int          `json:"total_records"`
	RecurringExporters []string     `json:"recurring_exporters"`
	RecurringPorts     []string     `json:"recurring_ports"`
	Penalty            int          `json:"penalty"`
	Note               string       `json:"note"`
	Trend              []TrendPoint `json:"trend_data"`
}

// HeatmapCell is the averaged risk of one exporter/port pair.
type HeatmapCell struct {
	Exporter string  `json:"exporter"`
	Port     string  `json:"port"`
	AvgRisk  float64 `json:"avg_risk"`
	Count    int     `json:"count"`
}

// ComparisonReport is the full output of a multi-document comparison.
type ComparisonReport struct {
	ID                 string                   `json:"report_id"`
	CreatedAt          time.Time                `json:"created_at"`
	FilesProcessed     []string                 `json:"files_processed"`
	Documents          []*DocumentRecord        `json:"extracted_data"`
	Mismatches         []MismatchEntry          `json:"mismatch_report"`
	Table              []ComparisonRow          `json:"comparison_report"`
	Pairwise           []PairwiseRow            `json:"pairwise_comparison"`
	HS                 HSAnalysis               `json:"hs_analysis"`
	Sanctions          SanctionAnalysis         `json:"sanction_analysis"`
	Incoterms          IncotermAnalysis         `json:"incoterm_analysis"`
	PatternAlerts      []Alert                  `json:"pattern_alerts"`
	FraudAlerts        []Alert                  `json:"fraud_report"`
	RiskScoreV2        RiskScore                `json:"risk_score_v2"`
	CognitiveScore     int                      `json:"cognitive_score"`
	CognitiveTier      RiskLevel                `json:"cognitive_tier"`
	CognitiveSummary   string                   `json:"cognitive_summary"`
	CognitiveBreakdown map[string]CategoryScore `json:"cognitive_breakdown"`
	History            RiskHistory              `json:"risk_history"`
	Heatmap            []HeatmapCell            `json:"heatmap_data"`
}
