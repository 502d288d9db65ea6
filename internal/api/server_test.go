package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/trapline-ai/trapline/internal/detect"
	"github.com/trapline-ai/trapline/internal/engine"
	"github.com/trapline-ai/trapline/internal/persona"
	"github.com/trapline-ai/trapline/internal/report"
	"github.com/trapline-ai/trapline/internal/session"
)

type fixedClassifier struct{ verdict detect.Verdict }

func (f fixedClassifier) Classify(ctx context.Context, text string) detect.Verdict {
	return f.verdict
}

type fixedReplier struct{ reply string }

func (f fixedReplier) Reply(ctx context.Context, p persona.Persona, conversation, latest string, turnCount int) string {
	return f.reply
}

type nopReporter struct{}

func (nopReporter) Send(ctx context.Context, payload report.Payload) error { return nil }

func testServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(
		session.NewMemoryStore(),
		fixedClassifier{verdict: detect.Verdict{IsScam: true, Reason: "test"}},
		fixedReplier{reply: "Ji, tell me more."},
		nopReporter{},
		logger,
	)
	return NewServer(8080, eng, logger)
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := testServer()

	body := `{
		"sessionId": "session-1",
		"message": {"sender": "scammer", "text": "You won a lottery! Pay fee to merchant@ybl", "timestamp": 1730000000000},
		"conversationHistory": [],
		"metadata": {}
	}`

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("expected status success, got %q (%v)", resp["status"], resp)
	}
	if resp["reply"] != "Ji, tell me more." {
		t.Errorf("unexpected reply %q", resp["reply"])
	}
}

func TestAnalyzeAlias(t *testing.T) {
	srv := testServer()

	body := `{"sessionId": "s2", "message": {"sender": "scammer", "text": "hello"}}`
	req := httptest.NewRequest("POST", "/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "success" {
		t.Errorf("expected status success, got %q", resp["status"])
	}
}

func TestAnalyze_MalformedJSON(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with error body, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("expected status error, got %q", resp["status"])
	}
	if resp["message"] == "" {
		t.Error("expected a diagnostic message")
	}
}

func TestAnalyze_MissingSessionID(t *testing.T) {
	srv := testServer()

	body := `{"message": {"sender": "scammer", "text": "hello"}}`
	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("expected status error, got %q", resp["status"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %q", body["status"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAnalyze_HistoryCarriedThrough(t *testing.T) {
	srv := testServer()

	body := `{
		"sessionId": "s3",
		"message": {"sender": "scammer", "text": "IFSC SBIN0001234"},
		"conversationHistory": [
			{"sender": "scammer", "text": "pay to account 1234567890123", "timestamp": 1},
			{"sender": "user", "text": "which bank?", "timestamp": 2}
		]
	}`
	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("expected success, got %v", resp)
	}
}
