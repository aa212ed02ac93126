package main

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/opensource-finance/tradescan/internal/analyzer"
	"github.com/opensource-finance/tradescan/internal/bus"
	"github.com/opensource-finance/tradescan/internal/cache"
	"github.com/opensource-finance/tradescan/internal/domain"
	"github.com/opensource-finance/tradescan/internal/extract"
	"github.com/opensource-finance/tradescan/internal/memory"
	"github.com/opensource-finance/tradescan/internal/metrics"
	"github.com/opensource-finance/tradescan/internal/nlp"
	"github.com/opensource-finance/tradescan/internal/repository"
	"github.com/opensource-finance/tradescan/internal/rules"
	"github.com/opensource-finance/tradescan/internal/scoring"
	"github.com/opensource-finance/tradescan/internal/screening"
	"github.com/opensource-finance/tradescan/internal/textract"
)

// app holds the wired components shared by all commands.
type app struct {
	repo     *repository.SQLRepository
	cache    domain.Cache
	bus      domain.EventBus
	engine   *rules.Engine
	metrics  *metrics.Metrics
	analyzer *analyzer.Analyzer
}

// buildApp wires the pipeline from cfg. The event bus is only created when
// withBus is set.
func buildApp(cfg *domain.Config, withBus bool) (_ *app, err error) {
	a := &app{metrics: metrics.New()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Repository.Driver != "none" {
		if a.repo, err = repository.New(cfg.Repository); err != nil {
			return nil, fmt.Errorf("initialize repository: %w", err)
		}
		slog.Info("repository initialized", "driver", cfg.Repository.Driver)
	}

	if a.cache, err = cache.New(cfg.Cache); err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	if withBus {
		if a.bus, err = bus.New(cfg.EventBus); err != nil {
			return nil, fmt.Errorf("initialize event bus: %w", err)
		}
		slog.Info("event bus initialized", "type", cfg.EventBus.Type)
	}

	store, err := historyStore(cfg.History, a.repo)
	if err != nil {
		return nil, err
	}

	table, err := screening.LoadSanctionTable(cfg.Screening.SanctionsFile)
	if err != nil {
		return nil, fmt.Errorf("load sanctions: %w", err)
	}

	if a.engine, err = rules.NewEngine(cfg.Scoring.RegionKeywords, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("initialize rule engine: %w", err)
	}
	triggers := append(rules.BuiltinRules(), cfg.Rules.Extra...)
	if err = a.engine.LoadRules(triggers); err != nil {
		return nil, fmt.Errorf("load risk triggers: %w", err)
	}
	slog.Info("rule engine initialized", "rules_count", a.engine.RulesCount())

	deps := analyzer.Deps{
		Extractor: newExtractor(cfg.Extraction),
		Files:     textract.NewRegistry(cfg.Extraction.PDFToTextPath),
		Cache:     a.cache,
		Screener:  screening.NewScreener(table),
		Engine:    a.engine,
		Scorer:    scoring.NewProcessor(cfg.Scoring),
		Tracker:   memory.NewTracker(store, cfg.History.Limit, cfg.Scoring.RecurrencePenalty),
		Metrics:   a.metrics,
	}
	if a.repo != nil {
		deps.Reports = a.repo
	}
	if a.bus != nil {
		deps.Bus = a.bus
	}

	a.analyzer, err = analyzer.New(deps, analyzer.Settings{
		CacheTTL:         cfg.Extraction.CacheTTL,
		IncotermsEnabled: cfg.Screening.IncotermsEnabled,
		RegionKeywords:   cfg.Scoring.RegionKeywords,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newExtractor(ec domain.ExtractionConfig) *extract.Extractor {
	opts := []extract.Option{extract.WithFuzzyThreshold(ec.FuzzyThreshold)}
	if ec.Entities {
		opts = append(opts, extract.WithEntityExtractor(nlp.NewPatternEntityExtractor()))
	}
	if ec.Fuzzy {
		opts = append(opts, extract.WithFuzzyMatcher(nlp.NewLevenshteinMatcher()))
	}
	return extract.New(opts...)
}

func historyStore(hc domain.HistoryConfig, repo *repository.SQLRepository) (domain.HistoryStore, error) {
	switch hc.Store {
	case "memory":
		return memory.NewInMemoryStore(), nil
	case "file":
		return memory.NewFileStore(hc.FilePath), nil
	case "sql":
		if repo == nil {
			return nil, errors.New("history store sql needs a repository")
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: %s", memory.ErrUnknownStore, hc.Store)
	}
}

// Close releases everything buildApp opened.
func (a *app) Close() {
	if a.engine != nil {
		_ = a.engine.Close()
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			slog.Error("failed to close event bus", "error", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("failed to close cache", "error", err)
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			slog.Error("failed to close repository", "error", err)
		}
	}
}

// healthRepo returns the repository as an interface, or nil.
func (a *app) healthRepo() domain.Repository {
	if a.repo == nil {
		return nil
	}
	return a.repo
}
