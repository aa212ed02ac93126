// Package rules provides the CEL-Go based risk trigger engine.
package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Trigger score bands and cap.
const (
	maxScore     = 100
	mediumFloor  = 30
	highFloor    = 60
	noIssuesText = "No major issues detected"
)

// Engine is the CEL-based risk trigger engine.
type Engine struct {
	mu         sync.RWMutex
	env        *cel.Env
	rules      []*CompiledRule
	keywords   []string
	maxWorkers int
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  domain.RiskRule
	Program cel.Program
}

// NewEngine creates a new trigger engine. regionKeywords are exposed to
// expressions as region_keywords and matched lowercased.
func NewEngine(regionKeywords []string, maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	env, err := cel.NewEnv(
		cel.Variable("hs_risk", cel.StringType),
		cel.Variable("sanction_risk", cel.StringType),
		cel.Variable("incoterm_risk", cel.StringType),
		cel.Variable("mismatch_count", cel.IntType),
		cel.Variable("doc_count", cel.IntType),
		cel.Variable("region_texts", cel.ListType(cel.StringType)),
		cel.Variable("region_keywords", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	keywords := make([]string, 0, len(regionKeywords))
	for _, k := range regionKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}

	return &Engine{
		env:        env,
		keywords:   keywords,
		maxWorkers: maxWorkers,
	}, nil
}

// ValidateRule compiles and validates a rule without mutating loaded engine rules.
func (e *Engine) ValidateRule(cfg domain.RiskRule) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles a rule and appends it, or replaces the loaded rule with
// the same ID in place.
func (e *Engine) LoadRule(cfg domain.RiskRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	for i, r := range e.rules {
		if r.Config.ID == cfg.ID {
			e.rules[i] = compiled
			return nil
		}
	}
	e.rules = append(e.rules, compiled)
	return nil
}

// LoadRules compiles and loads the enabled rules in order.
func (e *Engine) LoadRules(configs []domain.RiskRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules clears all existing rules and loads new ones.
func (e *Engine) ReloadRules(configs []domain.RiskRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make([]*CompiledRule, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules = append(newRules, compiled)
	}

	e.rules = newRules
	return nil
}

// EvaluateAll evaluates all loaded rules in parallel. Results keep the
// load order.
func (e *Engine) EvaluateAll(ctx context.Context, input domain.RiskInput) ([]domain.RiskTrigger, error) {
	e.mu.RLock()
	rules := make([]*CompiledRule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil, nil
	}

	regionTexts := input.RegionTexts
	if regionTexts == nil {
		regionTexts = []string{}
	}
	activation := map[string]any{
		"hs_risk":         string(input.HSRisk),
		"sanction_risk":   string(input.SanctionRisk),
		"incoterm_risk":   string(input.IncotermRisk),
		"mismatch_count":  int64(input.MismatchCount),
		"doc_count":       int64(input.DocCount),
		"region_texts":    regionTexts,
		"region_keywords": e.keywords,
	}
	reasons := strings.NewReplacer(
		"{mismatch_count}", strconv.Itoa(input.MismatchCount),
		"{doc_count}", strconv.Itoa(input.DocCount),
	)

	// Parallel evaluation using worker pool pattern
	results := make([]domain.RiskTrigger, len(rules))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, rule := range rules {
		wg.Add(1)
		go func(idx int, r *CompiledRule) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			results[idx] = evaluateRule(r, activation, reasons)
		}(i, rule)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Score sums the triggers into a capped, banded risk score.
func (e *Engine) Score(ctx context.Context, input domain.RiskInput) (domain.RiskScore, []domain.RiskTrigger, error) {
	triggers, err := e.EvaluateAll(ctx, input)
	if err != nil {
		return domain.RiskScore{}, nil, err
	}

	var total float64
	reasons := []string{}
	for _, t := range triggers {
		if t.Points <= 0 {
			continue
		}
		total += t.Points
		if t.Reason != "" {
			reasons = append(reasons, t.Reason)
		}
	}

	score := int(total)
	if score > maxScore {
		score = maxScore
	}
	if len(reasons) == 0 {
		reasons = []string{noIssuesText}
	}
	return domain.RiskScore{Score: score, Level: Level(score), Reasons: reasons}, triggers, nil
}

// Level bands a trigger score: below 30 Low, below 60 Medium, else High.
func Level(score int) domain.RiskLevel {
	switch {
	case score < mediumFloor:
		return domain.SeverityLow
	case score < highFloor:
		return domain.SeverityMedium
	default:
		return domain.SeverityHigh
	}
}

// evaluateRule evaluates a single rule and returns the trigger.
func evaluateRule(rule *CompiledRule, activation map[string]any, reasons *strings.Replacer) domain.RiskTrigger {
	result := domain.RiskTrigger{RuleID: rule.Config.ID}

	out, _, err := rule.Program.Eval(activation)
	if err != nil {
		result.Error = fmt.Sprintf("evaluation error: %v", err)
		return result
	}

	result.Points = toPoints(out, rule.Config.Points)
	if result.Points > 0 {
		result.Reason = reasons.Replace(rule.Config.Reason)
	}
	return result
}

// toPoints converts a CEL value to trigger points. A true bool is worth the
// rule's configured points.
func toPoints(val ref.Val, points float64) float64 {
	switch v := val.(type) {
	case types.Bool:
		if v {
			return points
		}
		return 0.0
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// GetLoadedRules returns the currently loaded rule configurations in order.
func (e *Engine) GetLoadedRules() []domain.RiskRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]domain.RiskRule, 0, len(e.rules))
	for _, compiled := range e.rules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = nil
	return nil
}

func (e *Engine) compileRule(cfg domain.RiskRule) (*CompiledRule, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("rule id is required")
	}

	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("rule %s: expression must return bool, int, or double, got %s", cfg.ID, outputType)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
