package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opensource-finance/tradescan/internal/analyzer"
	"github.com/opensource-finance/tradescan/internal/metrics"
)

func TestCorrelate(t *testing.T) {
	var seen string
	h := Correlate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = analyzer.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("HonoursIncomingID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if seen != "abc-123" {
			t.Errorf("expected abc-123 in context, got %q", seen)
		}
		if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected echoed request id, got %q", got)
		}
		if rr.Header().Get(TraceIDHeader) == "" {
			t.Error("expected trace id header")
		}
		if rr.Code != http.StatusTeapot {
			t.Errorf("expected 418, got %d", rr.Code)
		}
	})

	t.Run("GeneratesID", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
		if seen == "" || rr.Header().Get(RequestIDHeader) != seen {
			t.Errorf("expected generated id %q to be echoed, got %q", seen, rr.Header().Get(RequestIDHeader))
		}
	})
}

func TestRecover(t *testing.T) {
	h := Correlate(AccessLog(metrics.New())(Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://ops.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://ops.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.example" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS grant for unknown origin, got %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(0.001, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/compare", nil))
		codes[i] = rr.Code
		if i == 2 && rr.Header().Get("Retry-After") == "" {
			t.Error("expected Retry-After on rejected request")
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 200, 200, 429, got %v", codes)
	}

	open := RateLimit(0, 0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	for range 5 {
		rr := httptest.NewRecorder()
		open.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/compare", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected disabled limiter to pass, got %d", rr.Code)
		}
	}
}
