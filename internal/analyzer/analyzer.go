// Package analyzer runs the document pipeline: text extraction, field
// extraction with caching, cross-document comparison, screening, scoring and
// history tracking.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/opensource-finance/tradescan/internal/anomaly"
	"github.com/opensource-finance/tradescan/internal/cache"
	"github.com/opensource-finance/tradescan/internal/compare"
	"github.com/opensource-finance/tradescan/internal/domain"
	"github.com/opensource-finance/tradescan/internal/extract"
	"github.com/opensource-finance/tradescan/internal/fraud"
	"github.com/opensource-finance/tradescan/internal/memory"
	"github.com/opensource-finance/tradescan/internal/metrics"
	"github.com/opensource-finance/tradescan/internal/rules"
	"github.com/opensource-finance/tradescan/internal/scoring"
	"github.com/opensource-finance/tradescan/internal/screening"
	"github.com/opensource-finance/tradescan/internal/textract"
)

var tracer = otel.Tracer("tradescan-analyzer")

var (
	// ErrNoDocuments is returned when a request carries no documents at all.
	ErrNoDocuments = errors.New("no documents supplied")

	// ErrReportsDisabled is returned by Report when no report store is wired.
	ErrReportsDisabled = errors.New("report storage is not configured")
)

// ReportStore persists finished comparison reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report *domain.ComparisonReport) error
	GetReport(ctx context.Context, reportID string) (*domain.ComparisonReport, error)
}

// Deps are the collaborators of an Analyzer. Extractor, Screener, Engine,
// Scorer and Tracker are required; the rest are optional.
type Deps struct {
	Extractor *extract.Extractor
	Files     *textract.Registry
	Cache     domain.Cache
	Screener  *screening.Screener
	Engine    *rules.Engine
	Scorer    *scoring.Processor
	Tracker   *memory.Tracker
	Reports   ReportStore
	Bus       domain.EventBus
	Metrics   *metrics.Metrics
}

// Settings tune the pipeline.
type Settings struct {
	CacheTTL         time.Duration
	IncotermsEnabled bool
	RegionKeywords   []string
}

// Analyzer orchestrates a full comparison run.
type Analyzer struct {
	extractor *extract.Extractor
	files     *textract.Registry
	cache     domain.Cache
	screener  *screening.Screener
	engine    *rules.Engine
	scorer    *scoring.Processor
	tracker   *memory.Tracker
	reports   ReportStore
	bus       domain.EventBus
	metrics   *metrics.Metrics
	settings  Settings
}

// New validates deps and returns an Analyzer.
func New(d Deps, s Settings) (*Analyzer, error) {
	switch {
	case d.Extractor == nil:
		return nil, fmt.Errorf("analyzer: extractor is required")
	case d.Screener == nil:
		return nil, fmt.Errorf("analyzer: screener is required")
	case d.Engine == nil:
		return nil, fmt.Errorf("analyzer: rules engine is required")
	case d.Scorer == nil:
		return nil, fmt.Errorf("analyzer: scoring processor is required")
	case d.Tracker == nil:
		return nil, fmt.Errorf("analyzer: history tracker is required")
	}
	if d.Files == nil {
		d.Files = textract.NewRegistry("")
	}
	if d.Cache == nil {
		d.Cache = cache.NopCache{}
	}
	if s.RegionKeywords == nil {
		s.RegionKeywords = domain.DefaultScoring().RegionKeywords
	}
	return &Analyzer{
		extractor: d.Extractor,
		files:     d.Files,
		cache:     d.Cache,
		screener:  d.Screener,
		engine:    d.Engine,
		scorer:    d.Scorer,
		tracker:   d.Tracker,
		reports:   d.Reports,
		bus:       d.Bus,
		metrics:   d.Metrics,
		settings:  s,
	}, nil
}

// Extraction is the outcome of extracting one uploaded file.
type Extraction struct {
	Record *domain.DocumentRecord
	Text   string
	Pages  int
}

// ExtractFile converts raw file bytes to text and extracts the document
// record. Unreadable or unsupported files yield an empty-text record.
func (a *Analyzer) ExtractFile(ctx context.Context, filename string, content []byte) (*Extraction, error) {
	ctx, span := tracer.Start(ctx, "analyzer.extract_file")
	defer span.End()
	span.SetAttributes(attribute.String("filename", filename), attribute.Int("bytes", len(content)))

	start := time.Now()
	res := a.files.Safe(ctx, filename, content)
	a.metrics.ObserveStage("text", time.Since(start))

	rec, err := a.ExtractText(ctx, filename, res.Text)
	if err != nil {
		return nil, err
	}
	a.metrics.DocumentExtracted("file")
	return &Extraction{Record: rec, Text: res.Text, Pages: res.Pages}, nil
}

// ExtractText extracts a document record from already-converted text.
// Results are cached by text digest; cache failures never fail extraction.
func (a *Analyzer) ExtractText(ctx context.Context, filename, text string) (*domain.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	digest := cache.Digest(text)

	core, err := a.cache.GetExtraction(ctx, digest)
	if err != nil {
		slog.Warn("extraction cache lookup failed",
			"filename", filename,
			"error", err,
		)
		core = nil
	}
	a.metrics.CacheLookup(core != nil)

	if core == nil {
		res := a.extractor.ExtractCore(text)
		core = &res
		if err := a.cache.SetExtraction(ctx, digest, core, a.settings.CacheTTL); err != nil {
			slog.Warn("extraction cache store failed",
				"filename", filename,
				"error", err,
			)
		}
	}
	a.metrics.ObserveStage("extract", time.Since(start))

	slog.Debug("document extracted",
		"filename", filename,
		"overall_confidence", core.OverallConfidence,
		"items", len(core.Items),
	)

	return &domain.DocumentRecord{
		Filename:          filename,
		Fields:            core.Fields,
		Items:             core.Items,
		Lines:             core.Lines,
		Summary:           core.Summary,
		OverallConfidence: core.OverallConfidence,
	}, nil
}

// CompareTexts extracts every input and compares the resulting records.
func (a *Analyzer) CompareTexts(ctx context.Context, inputs []domain.DocumentInput) (*domain.ComparisonReport, error) {
	if len(inputs) == 0 {
		return nil, ErrNoDocuments
	}
	records := make([]*domain.DocumentRecord, 0, len(inputs))
	for _, in := range inputs {
		rec, err := a.ExtractText(ctx, in.Filename, in.Text)
		if err != nil {
			return nil, err
		}
		a.metrics.DocumentExtracted("text")
		records = append(records, rec)
	}
	return a.Compare(ctx, records)
}

type detections struct {
	fraud     []domain.Alert
	patterns  []domain.Alert
	hs        domain.HSAnalysis
	sanctions domain.SanctionAnalysis
	incoterms domain.IncotermAnalysis
}

// Compare builds the full comparison report for records, in input order.
// An empty set produces a report whose fields are all Missing.
func (a *Analyzer) Compare(ctx context.Context, records []*domain.DocumentRecord) (*domain.ComparisonReport, error) {
	ctx, span := tracer.Start(ctx, "analyzer.compare")
	defer span.End()

	start := time.Now()
	docs := domain.NewShipments(records)
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	cmp := compare.Build(docs)

	det, err := a.detect(ctx, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	riskV2, _, err := a.engine.Score(ctx, domain.RiskInput{
		HSRisk:        det.hs.Risk,
		SanctionRisk:  det.sanctions.Risk,
		IncotermRisk:  det.incoterms.Risk,
		MismatchCount: cmp.MismatchCount(),
		DocCount:      len(docs),
		RegionTexts:   rules.RegionTexts(docs),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("risk triggers: %w", err)
	}

	in := scoring.Input{
		DocCount:      len(docs),
		MismatchCount: cmp.MismatchCount(),
		Fraud:         det.fraud,
		Patterns:      det.patterns,
		HSRisk:        det.hs.Risk,
		SanctionRisk:  det.sanctions.Risk,
		IncotermRisk:  det.incoterms.Risk,
	}
	assessment := a.scorer.Process(in)

	history, err := a.tracker.Track(ctx, memoryRecord(docs, assessment, det.hs.Risk, cmp.MismatchCount()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("track history: %w", err)
	}
	if history.Penalty > 0 {
		adjusted := a.scorer.Finalize(in, memory.Adjust(assessment.Score, history))
		adjusted.Breakdown = assessment.Breakdown
		assessment = adjusted
	}

	files := make([]string, len(docs))
	for i, d := range docs {
		files[i] = d.Filename
	}

	report := &domain.ComparisonReport{
		ID:                 uuid.New().String(),
		CreatedAt:          time.Now().UTC(),
		FilesProcessed:     files,
		Documents:          nonNilRecords(records),
		Mismatches:         cmp.Mismatches,
		Table:              cmp.Table,
		Pairwise:           cmp.Pairwise,
		HS:                 det.hs,
		Sanctions:          det.sanctions,
		Incoterms:          det.incoterms,
		PatternAlerts:      det.patterns,
		FraudAlerts:        det.fraud,
		RiskScoreV2:        riskV2,
		CognitiveScore:     assessment.Score,
		CognitiveTier:      assessment.Tier,
		CognitiveSummary:   assessment.Summary,
		CognitiveBreakdown: assessment.Breakdown,
		History:            history,
		Heatmap:            scoring.Heatmap(docs, a.settings.RegionKeywords),
	}

	if a.reports != nil {
		if err := a.reports.SaveReport(ctx, report); err != nil {
			slog.Error("failed to save report",
				"report_id", report.ID,
				"error", err,
			)
		}
	}

	a.publish(ctx, report)
	a.metrics.ComparisonCompleted(report)
	a.metrics.ObserveStage("compare", time.Since(start))

	span.SetAttributes(
		attribute.String("report_id", report.ID),
		attribute.Int("cognitive_score", report.CognitiveScore),
		attribute.String("cognitive_tier", string(report.CognitiveTier)),
	)

	slog.Info("comparison completed",
		"report_id", report.ID,
		"request_id", RequestID(ctx),
		"document_count", len(docs),
		"mismatch_count", len(report.Mismatches),
		"cognitive_score", report.CognitiveScore,
		"cognitive_tier", report.CognitiveTier,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return report, nil
}

// detect runs the independent detectors concurrently. They share no
// mutable state.
func (a *Analyzer) detect(ctx context.Context, docs []domain.Shipment) (detections, error) {
	ctx, span := tracer.Start(ctx, "analyzer.detect")
	defer span.End()

	var det detections
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		det.fraud = nonNilAlerts(fraud.Check(docs))
		return nil
	})
	g.Go(func() error {
		det.patterns = nonNilAlerts(anomaly.Detect(docs))
		return nil
	})
	g.Go(func() error {
		det.hs = screening.AnalyzeHS(docs)
		return nil
	})
	g.Go(func() error {
		det.sanctions = a.screener.Screen(docs)
		return nil
	})
	g.Go(func() error {
		det.incoterms = screening.DetectIncoterms(docs, a.settings.IncotermsEnabled)
		return nil
	})
	if err := g.Wait(); err != nil {
		return detections{}, err
	}
	if err := ctx.Err(); err != nil {
		return detections{}, err
	}
	return det, nil
}

func (a *Analyzer) publish(ctx context.Context, report *domain.ComparisonReport) {
	if a.bus == nil {
		return
	}
	payload, err := json.Marshal(domain.CompareCompleted{
		RequestID:      RequestID(ctx),
		ReportID:       report.ID,
		CognitiveScore: report.CognitiveScore,
		Tier:           report.CognitiveTier,
	})
	if err != nil {
		slog.Error("failed to encode comparison event", "report_id", report.ID, "error", err)
		return
	}
	if err := a.bus.Publish(ctx, domain.TopicCompareCompleted, payload); err != nil {
		slog.Error("failed to publish comparison",
			"report_id", report.ID,
			"error", err,
		)
	}
	if report.CognitiveTier == domain.SeverityHigh {
		if err := a.bus.Publish(ctx, domain.TopicAlert, payload); err != nil {
			slog.Error("failed to publish alert",
				"report_id", report.ID,
				"error", err,
			)
		}
	}
}

type requestIDKey struct{}

// WithRequestID tags ctx so published comparison events carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Report returns a stored report by ID.
func (a *Analyzer) Report(ctx context.Context, id string) (*domain.ComparisonReport, error) {
	if a.reports == nil {
		return nil, ErrReportsDisabled
	}
	return a.reports.GetReport(ctx, id)
}

// History returns the retained run log without recording a new run.
func (a *Analyzer) History(ctx context.Context) (domain.RiskHistory, error) {
	return a.tracker.History(ctx)
}

// Capabilities reports which optional extraction capabilities are usable.
func (a *Analyzer) Capabilities() map[string]bool {
	caps := a.files.Capabilities()
	caps["ner"], caps["fuzzy"] = a.extractor.Capabilities()
	return caps
}

func memoryRecord(docs []domain.Shipment, assessment domain.RiskAssessment, hs domain.RiskLevel, mismatches int) domain.MemoryRecord {
	rec := domain.MemoryRecord{
		Timestamp:      time.Now().UTC(),
		Exporters:      []string{},
		Consignees:     []string{},
		DestPorts:      []string{},
		CognitiveScore: assessment.Score,
		RiskTier:       assessment.Tier,
		HSRisk:         hs,
		MismatchCount:  mismatches,
	}
	for _, d := range docs {
		if v := strings.TrimSpace(d.Exporter); v != "" {
			rec.Exporters = append(rec.Exporters, v)
		}
		if v := strings.TrimSpace(d.Consignee); v != "" {
			rec.Consignees = append(rec.Consignees, v)
		}
		if v := strings.TrimSpace(d.PortDest); v != "" {
			rec.DestPorts = append(rec.DestPorts, v)
		}
	}
	return rec
}

func nonNilAlerts(a []domain.Alert) []domain.Alert {
	if a == nil {
		return []domain.Alert{}
	}
	return a
}

func nonNilRecords(records []*domain.DocumentRecord) []*domain.DocumentRecord {
	out := make([]*domain.DocumentRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
