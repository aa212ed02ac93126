// Package worker runs document comparisons requested over the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/tradescan/internal/analyzer"
	"github.com/opensource-finance/tradescan/internal/bus"
	"github.com/opensource-finance/tradescan/internal/domain"
)

// Comparer runs a comparison over raw document texts.
type Comparer interface {
	CompareTexts(ctx context.Context, inputs []domain.DocumentInput) (*domain.ComparisonReport, error)
}

// Worker consumes compare requests from the EventBus. Completion and alert
// events are published by the Comparer; the worker replies to requesters
// and reports failures.
type Worker struct {
	bus      domain.EventBus
	comparer Comparer
	timeout  time.Duration

	mu            sync.Mutex
	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64
}

// NewWorker creates a new async worker. A zero timeout means no per-request
// deadline.
func NewWorker(b domain.EventBus, c Comparer, timeout time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      b,
		comparer: c,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to compare requests.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicCompareRequested, w.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicCompareRequested, err)
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()

	slog.Info("worker started",
		"topic", domain.TopicCompareRequested,
	)
	return nil
}

// handleMessage processes one compare request. Malformed payloads are
// logged and dropped.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var req domain.CompareRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		w.failed.Add(1)
		slog.Error("failed to parse compare request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	ctx = analyzer.WithRequestID(ctx, req.RequestID)

	slog.Debug("processing compare request",
		"request_id", req.RequestID,
		"document_count", len(req.Documents),
	)

	result := domain.CompareCompleted{RequestID: req.RequestID}
	report, err := w.comparer.CompareTexts(ctx, req.Documents)
	if err != nil {
		w.failed.Add(1)
		result.Error = err.Error()
		slog.Error("comparison failed",
			"request_id", req.RequestID,
			"error", err,
		)
		payload, _ := json.Marshal(result)
		if perr := w.bus.Publish(ctx, domain.TopicCompareCompleted, payload); perr != nil {
			slog.Error("failed to publish comparison failure",
				"request_id", req.RequestID,
				"error", perr,
			)
		}
		return w.reply(ctx, msg, payload)
	}

	w.processed.Add(1)
	result.ReportID = report.ID
	result.CognitiveScore = report.CognitiveScore
	result.Tier = report.CognitiveTier

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode compare result: %w", err)
	}

	slog.Info("compare request processed",
		"request_id", req.RequestID,
		"report_id", report.ID,
		"cognitive_score", report.CognitiveScore,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return w.reply(ctx, msg, payload)
}

func (w *Worker) reply(ctx context.Context, msg *domain.Message, payload []byte) error {
	if err := bus.Reply(ctx, w.bus, msg, payload); err != nil {
		slog.Error("failed to reply",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscription_count"`
	Topics            []string `json:"topics"`
	Processed         int64    `json:"processed"`
	Failed            int64    `json:"failed"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
		Processed:         w.processed.Load(),
		Failed:            w.failed.Load(),
	}
}
