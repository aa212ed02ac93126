package domain

// RiskRule is one additive trigger of the trigger-based risk score.
// Expression is CEL. A bool result adds Points when true; an int or double
// result is added as is.
type RiskRule struct {
	ID         string  `json:"id" mapstructure:"id"`
	Name       string  `json:"name" mapstructure:"name"`
	Expression string  `json:"expression" mapstructure:"expression"`
	Points     float64 `json:"points" mapstructure:"points"`
	// Reason is reported when the trigger contributes; "{mismatch_count}"
	// and "{doc_count}" are substituted.
	Reason  string `json:"reason" mapstructure:"reason"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

// RiskInput is the evaluation context for risk triggers.
type RiskInput struct {
	HSRisk        RiskLevel
	SanctionRisk  RiskLevel
	IncotermRisk  RiskLevel
	MismatchCount int
	DocCount      int
	// RegionTexts holds one lowercased "port_dest + exporter" string per document.
	RegionTexts []string
}

// RiskTrigger is the outcome of one risk rule.
type RiskTrigger struct {
	RuleID string  `json:"rule_id"`
	Points float64 `json:"points"`
	Reason string  `json:"reason,omitempty"`
	Error  string  `json:"error,omitempty"`
}
