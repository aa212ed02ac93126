// Package memory tracks comparison runs across requests and penalizes
// exporters and destination ports that recur between runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// Defaults for the retained window and the per-recurrence penalty.
const (
	DefaultLimit   = 10
	DefaultPenalty = 5
)

// Tracker serializes history reads and writes through a single lock so
// concurrent runs never lose records or exceed the cap.
type Tracker struct {
	mu      sync.Mutex
	store   domain.HistoryStore
	limit   int
	penalty int
}

// NewTracker creates a tracker over store.
func NewTracker(store domain.HistoryStore, limit, penalty int) *Tracker {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if penalty < 0 {
		penalty = DefaultPenalty
	}
	return &Tracker{store: store, limit: limit, penalty: penalty}
}

// Track appends rec and reports recurrence against every previously
// retained run. rec should carry the unadjusted cognitive score; callers
// subtract History.Penalty themselves. A zero Timestamp is set to now.
func (t *Tracker) Track(ctx context.Context, rec domain.MemoryRecord) (domain.RiskHistory, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prior, err := t.store.Load(ctx)
	if err != nil {
		return domain.RiskHistory{}, fmt.Errorf("failed to load history: %w", err)
	}

	retained, err := t.store.AppendAndTrim(ctx, rec, t.limit)
	if err != nil {
		return domain.RiskHistory{}, fmt.Errorf("failed to append history: %w", err)
	}

	exporters := recurring(prior, rec.Exporters, func(r domain.MemoryRecord) []string { return r.Exporters })
	ports := recurring(prior, rec.DestPorts, func(r domain.MemoryRecord) []string { return r.DestPorts })

	h := domain.RiskHistory{
		TotalRecords:       len(retained),
		RecurringExporters: exporters,
		RecurringPorts:     ports,
		Trend:              Trend(retained),
	}
	if n := len(exporters) + len(ports); n > 0 {
		h.Penalty = t.penalty * n
		h.Note = fmt.Sprintf("Historical pattern detected: %d recurrent exporter(s), %d recurrent port(s). Cognitive score adjusted (−%d).",
			len(exporters), len(ports), h.Penalty)
	}
	return h, nil
}

// History returns the retained runs without recording a new one.
func (t *Tracker) History(ctx context.Context) (domain.RiskHistory, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.store.Load(ctx)
	if err != nil {
		return domain.RiskHistory{}, fmt.Errorf("failed to load history: %w", err)
	}
	return domain.RiskHistory{
		TotalRecords:       len(records),
		RecurringExporters: []string{},
		RecurringPorts:     []string{},
		Trend:              Trend(records),
	}, nil
}

// Adjust applies a history penalty to a score, flooring at zero.
func Adjust(score int, h domain.RiskHistory) int {
	return max(0, score-h.Penalty)
}

// Trend projects records onto the display series.
func Trend(records []domain.MemoryRecord) []domain.TrendPoint {
	out := make([]domain.TrendPoint, 0, len(records))
	for _, r := range records {
		out = append(out, domain.TrendPoint{
			Timestamp:      r.Timestamp,
			CognitiveScore: r.CognitiveScore,
			RiskTier:       r.RiskTier,
			Exporters:      nonNil(r.Exporters),
			Ports:          nonNil(r.DestPorts),
			MismatchCount:  r.MismatchCount,
		})
	}
	return out
}

// recurring returns current values seen in any prior record, sorted.
func recurring(prior []domain.MemoryRecord, current []string, values func(domain.MemoryRecord) []string) []string {
	want := map[string]bool{}
	for _, v := range current {
		if v != "" {
			want[v] = true
		}
	}

	found := map[string]bool{}
	for _, r := range prior {
		for _, v := range values(r) {
			if v != "" && want[v] {
				found[v] = true
			}
		}
	}

	out := make([]string, 0, len(found))
	for v := range found {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
