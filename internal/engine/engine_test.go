package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/trapline-ai/trapline/internal/detect"
	"github.com/trapline-ai/trapline/internal/intel"
	"github.com/trapline-ai/trapline/internal/persona"
	"github.com/trapline-ai/trapline/internal/report"
	"github.com/trapline-ai/trapline/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubClassifier struct {
	mu      sync.Mutex
	verdict detect.Verdict
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) detect.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.verdict
}

func (s *stubClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubReplier struct{}

func (stubReplier) Reply(ctx context.Context, p persona.Persona, conversation, latest string, turnCount int) string {
	return "Ji, please tell me more."
}

type stubReporter struct {
	mu       sync.Mutex
	fail     bool
	payloads []report.Payload
}

func (s *stubReporter) Send(ctx context.Context, payload report.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("callback returned 502")
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *stubReporter) sent() []report.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report.Payload, len(s.payloads))
	copy(out, s.payloads)
	return out
}

func newTestEngine(classifier *stubClassifier, reporter *stubReporter) (*Engine, *session.MemoryStore) {
	store := session.NewMemoryStore()
	eng := New(store, classifier, stubReplier{}, reporter, testLogger())
	return eng, store
}

func TestProcessTurn_EndToEnd(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Confidence: 90, Reason: "advance fee"}}
	reporter := &stubReporter{}
	eng, store := newTestEngine(classifier, reporter)
	ctx := context.Background()

	reply, err := eng.ProcessTurn(ctx, TurnRequest{
		SessionID: "s1",
		Text:      "Send money to account 1234567890123 IFSC SBIN0001234",
	})
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if reply == "" {
		t.Fatal("turn 1: empty reply")
	}

	rec, _ := store.Get("s1")
	snap := rec.Snapshot()
	if !snap.Intelligence.Has(intel.KindBankAccount, "1234567890123") {
		t.Error("turn 1: missing bank account")
	}
	if !snap.Intelligence.Has(intel.KindRoutingCode, "SBIN0001234") {
		t.Error("turn 1: missing routing code")
	}

	if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "or pay via merchant@ybl"}); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	snap = rec.Snapshot()
	if !snap.Intelligence.Has(intel.KindBankAccount, "1234567890123") ||
		!snap.Intelligence.Has(intel.KindRoutingCode, "SBIN0001234") ||
		!snap.Intelligence.Has(intel.KindUpiID, "merchant@ybl") {
		t.Errorf("turn 2: merged set incomplete: %v", snap.Intelligence.AsLists())
	}

	// Counterparty + agent turns, two exchanges.
	if snap.TurnCount != 4 {
		t.Errorf("expected 4 turns, got %d", snap.TurnCount)
	}
	if !snap.ScamDetected {
		t.Error("expected scam latch set")
	}
	if !snap.ReportSent {
		t.Error("expected report sent")
	}
	if got := reporter.sent(); len(got) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(got))
	}
}

func TestProcessTurn_ClassifierStopsAfterLatch(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Reason: "scam"}}
	eng, _ := newTestEngine(classifier, &stubReporter{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "hello"}); err != nil {
			t.Fatal(err)
		}
	}

	if classifier.callCount() != 1 {
		t.Errorf("expected 1 classification call after latch, got %d", classifier.callCount())
	}
}

func TestProcessTurn_ClassifierRetriesWhileUndetected(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: false, Reason: "looks fine"}}
	eng, _ := newTestEngine(classifier, &stubReporter{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "hello"}); err != nil {
			t.Fatal(err)
		}
	}

	if classifier.callCount() != 3 {
		t.Errorf("expected a classification per turn while undetected, got %d", classifier.callCount())
	}
}

func TestProcessTurn_NoReportWithoutScam(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: false}}
	reporter := &stubReporter{}
	eng, _ := newTestEngine(classifier, reporter)

	if _, err := eng.ProcessTurn(context.Background(), TurnRequest{SessionID: "s1", Text: "pay merchant@ybl"}); err != nil {
		t.Fatal(err)
	}
	if len(reporter.sent()) != 0 {
		t.Error("report must not be sent without the scam latch")
	}
}

func TestProcessTurn_NoReportWithoutActionableIntel(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Reason: "scam"}}
	reporter := &stubReporter{}
	eng, _ := newTestEngine(classifier, reporter)

	if _, err := eng.ProcessTurn(context.Background(), TurnRequest{SessionID: "s1", Text: "urgent KYC verify now"}); err != nil {
		t.Fatal(err)
	}
	if len(reporter.sent()) != 0 {
		t.Error("keywords alone must not open the reporting gate")
	}
}

func TestProcessTurn_ReportRetryAfterFailure(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Reason: "scam"}}
	reporter := &stubReporter{fail: true}
	eng, store := newTestEngine(classifier, reporter)
	ctx := context.Background()

	if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "pay merchant@ybl"}); err != nil {
		t.Fatal(err)
	}

	rec, _ := store.Get("s1")
	if rec.ReportSent() {
		t.Fatal("failed delivery must not latch reportSent")
	}

	// Endpoint recovers; the next turn re-evaluates the gate and retries.
	reporter.mu.Lock()
	reporter.fail = false
	reporter.mu.Unlock()

	if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "did you pay?"}); err != nil {
		t.Fatal(err)
	}
	if !rec.ReportSent() {
		t.Error("expected report sent after retry")
	}
	if len(reporter.sent()) != 1 {
		t.Errorf("expected one delivered report, got %d", len(reporter.sent()))
	}
}

func TestProcessTurn_SecondReportSuppressed(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Reason: "scam"}}
	reporter := &stubReporter{}
	eng, _ := newTestEngine(classifier, reporter)
	ctx := context.Background()

	if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "pay merchant@ybl"}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "also call 9876543210"}); err != nil {
		t.Fatal(err)
	}

	if len(reporter.sent()) != 1 {
		t.Errorf("expected exactly one report for the session, got %d", len(reporter.sent()))
	}
}

func TestProcessTurn_MissingSessionID(t *testing.T) {
	eng, _ := newTestEngine(&stubClassifier{}, &stubReporter{})

	if _, err := eng.ProcessTurn(context.Background(), TurnRequest{Text: "hello"}); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestProcessTurn_EmptyTextStillReplies(t *testing.T) {
	eng, store := newTestEngine(&stubClassifier{}, &stubReporter{})

	reply, err := eng.ProcessTurn(context.Background(), TurnRequest{SessionID: "s1", Text: ""})
	if err != nil {
		t.Fatalf("empty turn must not error: %v", err)
	}
	if reply == "" {
		t.Error("a reply is always produced")
	}

	rec, _ := store.Get("s1")
	if count := rec.Snapshot().Intelligence.Count(); count != 0 {
		t.Errorf("empty turn yielded %d findings", count)
	}
}

func TestProcessTurn_ConcurrentSameSession(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Reason: "scam"}}
	reporter := &stubReporter{}
	eng, store := newTestEngine(classifier, reporter)

	var wg sync.WaitGroup
	texts := []string{"account 1234567890123", "pay merchant@ybl"}
	for _, text := range texts {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			if _, err := eng.ProcessTurn(context.Background(), TurnRequest{SessionID: "s1", Text: text}); err != nil {
				t.Errorf("concurrent turn: %v", err)
			}
		}(text)
	}
	wg.Wait()

	rec, _ := store.Get("s1")
	snap := rec.Snapshot()

	// Two counterparty + two agent turns, no lost update.
	if snap.TurnCount != 4 {
		t.Errorf("expected 4 turns, got %d", snap.TurnCount)
	}
	if !snap.Intelligence.Has(intel.KindBankAccount, "1234567890123") ||
		!snap.Intelligence.Has(intel.KindUpiID, "merchant@ybl") {
		t.Errorf("merged set must be the union of both turns: %v", snap.Intelligence.AsLists())
	}
	if len(reporter.sent()) > 1 {
		t.Errorf("concurrent turns double-sent the report: %d", len(reporter.sent()))
	}
}

func TestProcessTurn_HistoryResync(t *testing.T) {
	classifier := &stubClassifier{verdict: detect.Verdict{IsScam: true, Reason: "scam"}}
	eng, store := newTestEngine(classifier, &stubReporter{})
	ctx := context.Background()

	// Fresh process receives turn 3 of an ongoing conversation with full history.
	history := []session.HistoryMessage{
		{Sender: "scammer", Text: "you won a lottery"},
		{Sender: "user", Text: "kya sach me?"},
		{Sender: "scammer", Text: "yes, pay fee to account 1234567890123"},
		{Sender: "user", Text: "which bank ji?"},
	}
	if _, err := eng.ProcessTurn(ctx, TurnRequest{SessionID: "s1", Text: "IFSC SBIN0001234", History: history}); err != nil {
		t.Fatal(err)
	}

	rec, _ := store.Get("s1")
	snap := rec.Snapshot()
	if !snap.Intelligence.Has(intel.KindBankAccount, "1234567890123") {
		t.Error("history findings missing after resync")
	}
	if !snap.Intelligence.Has(intel.KindRoutingCode, "SBIN0001234") {
		t.Error("new turn's finding missing after resync")
	}
	// 4 replayed + counterparty turn + agent reply.
	if snap.TurnCount != 6 {
		t.Errorf("expected 6 turns, got %d", snap.TurnCount)
	}
}

func TestConversationContext(t *testing.T) {
	turns := []session.Turn{
		{Role: session.RoleCounterparty, Text: "you won"},
		{Role: session.RoleAgent, Text: "really?"},
	}
	got := conversationContext(turns)
	want := "Scammer: you won\nYou: really?"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := conversationContext(nil); got != "No previous conversation." {
		t.Errorf("unexpected empty-context text %q", got)
	}

	// Only the most recent turns go into the prompt.
	var long []session.Turn
	for i := 0; i < 40; i++ {
		long = append(long, session.Turn{Role: session.RoleCounterparty, Text: fmt.Sprintf("msg-%d", i)})
	}
	windowed := conversationContext(long)
	if strings.Contains(windowed, "msg-0") {
		t.Error("old turns must be windowed out")
	}
	if !strings.Contains(windowed, "msg-39") {
		t.Error("latest turn must be present")
	}
}
