package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opensource-finance/tradescan/internal/analyzer"
	"github.com/opensource-finance/tradescan/internal/domain"
	"github.com/opensource-finance/tradescan/internal/repository"
	"github.com/opensource-finance/tradescan/internal/rules"
)

// DefaultMaxDebugLines caps the debug_lines of an extract response.
const DefaultMaxDebugLines = 50

// Handler holds dependencies for API handlers.
type Handler struct {
	analyzer *analyzer.Analyzer
	engine   *rules.Engine
	repo     domain.Repository
	cache    domain.Cache
	bus      domain.EventBus

	maxUpload     int64
	maxDebugLines int
	version       string
}

// HandlerDeps are the collaborators of a Handler. Analyzer and Engine are
// required; Repo, Cache and Bus are only used for health and async compare.
type HandlerDeps struct {
	Analyzer *analyzer.Analyzer
	Engine   *rules.Engine
	Repo     domain.Repository
	Cache    domain.Cache
	Bus      domain.EventBus
}

// NewHandler creates a new API handler.
func NewHandler(d HandlerDeps, cfg domain.ServerConfig, maxDebugLines int, version string) *Handler {
	if maxDebugLines <= 0 {
		maxDebugLines = DefaultMaxDebugLines
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Handler{
		analyzer:      d.Analyzer,
		engine:        d.Engine,
		repo:          d.Repo,
		cache:         d.Cache,
		bus:           d.Bus,
		maxUpload:     maxUpload,
		maxDebugLines: maxDebugLines,
		version:       version,
	}
}

// ExtractRequest is the JSON body for POST /extract.
type ExtractRequest struct {
	Filename   string `json:"filename"`
	Text       string `json:"text"`
	ReviewMode bool   `json:"review_mode"`
}

// ExtractMeta describes the source text of an extraction.
type ExtractMeta struct {
	Pages      int  `json:"pages"`
	Lines      int  `json:"lines"`
	ReviewMode bool `json:"review_mode"`
}

// VisualLine maps one non-blank source line for review overlays.
type VisualLine struct {
	Page  int    `json:"page"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ExtractResponse is the response for POST /extract.
type ExtractResponse struct {
	Filename          string                       `json:"filename"`
	OverallConfidence float64                      `json:"overall_confidence"`
	Summary           string                       `json:"summary"`
	KeyFields         map[string]domain.FieldValue `json:"key_fields"`
	Items             []domain.LineItem            `json:"items"`
	DebugLines        []domain.LabeledLine         `json:"debug_lines"`
	Meta              ExtractMeta                  `json:"meta"`
	VisualMap         []VisualLine                 `json:"visual_map,omitempty"`
}

// CompareRequest is the JSON body for POST /compare and POST /compare/async.
type CompareRequest struct {
	Documents []domain.DocumentInput `json:"documents"`
}

// Extract handles POST /extract: one multipart "file" (with optional
// "review_mode") or a JSON ExtractRequest.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var (
		ex     *analyzer.Extraction
		review bool
		err    error
	)

	if isMultipart(r) {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
			return
		}
		review, _ = strconv.ParseBool(r.FormValue("review_mode"))

		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		content, rerr := io.ReadAll(file)
		if rerr != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload")
			return
		}
		ex, err = h.analyzer.ExtractFile(ctx, header.Filename, content)
	} else {
		var req ExtractRequest
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON request body")
			return
		}
		if req.Filename == "" {
			writeError(w, http.StatusBadRequest, "filename is required")
			return
		}
		review = req.ReviewMode
		var rec *domain.DocumentRecord
		rec, err = h.analyzer.ExtractText(ctx, req.Filename, req.Text)
		if err == nil {
			ex = &analyzer.Extraction{Record: rec, Text: req.Text, Pages: 1}
		}
	}
	if err != nil {
		slog.Error("extraction failed", "error", err)
		writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	writeJSON(w, http.StatusOK, h.extractResponse(ex, review))
}

func (h *Handler) extractResponse(ex *analyzer.Extraction, review bool) ExtractResponse {
	rec := ex.Record
	visual := visualMap(ex.Text)

	debug := rec.Lines
	if len(debug) > h.maxDebugLines {
		debug = debug[:h.maxDebugLines]
	}
	if debug == nil {
		debug = []domain.LabeledLine{}
	}
	items := rec.Items
	if items == nil {
		items = []domain.LineItem{}
	}

	resp := ExtractResponse{
		Filename:          rec.Filename,
		OverallConfidence: rec.OverallConfidence,
		Summary:           rec.Summary,
		KeyFields:         rec.Fields,
		Items:             items,
		DebugLines:        debug,
		Meta: ExtractMeta{
			Pages:      max(ex.Pages, 1),
			Lines:      len(visual),
			ReviewMode: review,
		},
	}
	if review {
		resp.VisualMap = visual
	}
	return resp
}

func visualMap(text string) []VisualLine {
	out := []VisualLine{}
	for i, ln := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, VisualLine{Page: 1, Index: i, Text: t})
		}
	}
	return out
}

// Compare handles POST /compare: multipart "files" or a JSON CompareRequest.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var (
		report *domain.ComparisonReport
		err    error
	)

	if isMultipart(r) {
		if perr := r.ParseMultipartForm(h.maxUpload); perr != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form: "+perr.Error())
			return
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			writeError(w, http.StatusBadRequest, analyzer.ErrNoDocuments.Error())
			return
		}
		records := make([]*domain.DocumentRecord, 0, len(headers))
		for _, fh := range headers {
			content, rerr := readUpload(fh)
			if rerr != nil {
				slog.Warn("failed to read upload, treating as empty",
					"filename", fh.Filename,
					"error", rerr,
				)
			}
			ex, xerr := h.analyzer.ExtractFile(ctx, fh.Filename, content)
			if xerr != nil {
				err = xerr
				break
			}
			records = append(records, ex.Record)
		}
		if err == nil {
			report, err = h.analyzer.Compare(ctx, records)
		}
	} else {
		var req CompareRequest
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON request body")
			return
		}
		report, err = h.analyzer.CompareTexts(ctx, req.Documents)
	}

	switch {
	case errors.Is(err, analyzer.ErrNoDocuments):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("comparison failed", "error", err)
		writeError(w, http.StatusInternalServerError, "comparison failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// CompareAsync handles POST /compare/async. The request is queued on the
// EventBus for the worker and answered with 202 and its request ID.
func (h *Handler) CompareAsync(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		writeError(w, http.StatusServiceUnavailable, "event bus not available")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, analyzer.ErrNoDocuments.Error())
		return
	}

	requestID := GetRequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}
	payload, err := json.Marshal(domain.CompareRequest{RequestID: requestID, Documents: req.Documents})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode request")
		return
	}
	if err := h.bus.Publish(r.Context(), domain.TopicCompareRequested, payload); err != nil {
		slog.Error("failed to queue comparison", "request_id", requestID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "failed to queue comparison")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"request_id": requestID,
		"status":     "queued",
		"topic":      domain.TopicCompareCompleted,
	})
}

// GetReport handles GET /reports/{id}.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "report id is required")
		return
	}

	report, err := h.analyzer.Report(r.Context(), id)
	switch {
	case errors.Is(err, analyzer.ErrReportsDisabled):
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "report not found")
		return
	case err != nil:
		slog.Error("failed to load report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// History handles GET /history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	hist, err := h.analyzer.History(r.Context())
	if err != nil {
		slog.Error("failed to load history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, hist)
}

// Health handles GET /health and reports optional capabilities.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       status,
		"version":      h.version,
		"capabilities": h.analyzer.Capabilities(),
		"rules":        h.engine.RulesCount(),
	})
}

// Ready handles GET /ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// ListRules returns the loaded risk triggers.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	loaded := h.engine.GetLoadedRules()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": loaded,
		"count": len(loaded),
	})
}

// GetRule returns one loaded risk trigger.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, rule := range h.engine.GetLoadedRules() {
		if rule.ID == id {
			writeJSON(w, http.StatusOK, rule)
			return
		}
	}
	writeError(w, http.StatusNotFound, "rule not found")
}

// CreateRule compiles and loads a risk trigger. A trigger with an existing
// ID replaces it. Triggers added here live until restart.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var rule domain.RiskRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if rule.ID == "" || rule.Expression == "" {
		writeError(w, http.StatusBadRequest, "id and expression are required")
		return
	}
	if !rule.Enabled {
		if err := h.engine.ValidateRule(rule); err != nil {
			writeError(w, http.StatusBadRequest, "invalid CEL expression: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rule": rule, "loaded": false})
		return
	}
	if err := h.engine.LoadRule(rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid CEL expression: "+err.Error())
		return
	}

	slog.Info("risk trigger loaded", "rule_id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"rule": rule, "loaded": true})
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}
