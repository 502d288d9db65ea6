// Package engine orchestrates the per-turn pipeline: reconcile the session,
// extract and merge intelligence, classify, generate the persona reply, and
// evaluate the reporting gate. External collaborators run outside the
// per-session critical sections so one session's slow callback never stalls
// another turn's bookkeeping.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trapline-ai/trapline/internal/archive"
	"github.com/trapline-ai/trapline/internal/detect"
	"github.com/trapline-ai/trapline/internal/events"
	"github.com/trapline-ai/trapline/internal/intel"
	"github.com/trapline-ai/trapline/internal/persona"
	"github.com/trapline-ai/trapline/internal/report"
	"github.com/trapline-ai/trapline/internal/session"
)

// contextWindow bounds how much history goes into the reply prompt.
const contextWindow = 15

// Classifier decides whether a message is a scam. Implementations must be
// total: failures degrade to a non-scam verdict.
type Classifier interface {
	Classify(ctx context.Context, text string) detect.Verdict
}

// ReplyGenerator produces the persona's next message and must always return
// a reply.
type ReplyGenerator interface {
	Reply(ctx context.Context, p persona.Persona, conversation, latest string, turnCount int) string
}

// Reporter delivers a report to the scoring endpoint.
type Reporter interface {
	Send(ctx context.Context, payload report.Payload) error
}

// TurnRequest is one inbound counterparty message.
type TurnRequest struct {
	SessionID       string
	Text            string
	TimestampMillis int64
	History         []session.HistoryMessage
}

// Engine wires the pipeline together. Archive and events are optional.
type Engine struct {
	reconciler *session.Reconciler
	classifier Classifier
	replier    ReplyGenerator
	reporter   Reporter
	archive    *archive.Archive
	events     *events.Publisher
	logger     *slog.Logger
}

func New(store session.Store, classifier Classifier, replier ReplyGenerator, reporter Reporter, logger *slog.Logger) *Engine {
	return &Engine{
		reconciler: session.NewReconciler(store, logger),
		classifier: classifier,
		replier:    replier,
		reporter:   reporter,
		logger:     logger,
	}
}

// WithArchive enables Postgres persistence of delivered reports.
func (e *Engine) WithArchive(a *archive.Archive) *Engine {
	e.archive = a
	return e
}

// WithEvents enables NATS milestone events.
func (e *Engine) WithEvents(p *events.Publisher) *Engine {
	e.events = p
	return e
}

// ProcessTurn runs the full pipeline for one turn and returns the reply text.
// The only error it returns is a missing session identifier; collaborator
// failures are absorbed so the conversation never stalls.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (string, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return "", fmt.Errorf("sessionId is required")
	}

	rec, result := e.reconciler.Reconcile(req.SessionID, persona.DefaultKey, req.History, req.Text, req.TimestampMillis)

	if result.HasIntelligence {
		snap := rec.Snapshot()
		e.logger.Info("intelligence extracted",
			"session_id", req.SessionID,
			"turn", snap.TurnCount,
			"new_findings", result.Total(),
		)
		if err := e.events.Publish(events.SubjectIntelExtracted, events.IntelExtracted{
			SessionID: req.SessionID,
			Turn:      snap.TurnCount,
			Findings:  lists(result),
		}); err != nil {
			e.logger.Warn("failed to publish intel event", "error", err)
		}
	}

	// Classify until the latch sets; once a session is flagged it stays
	// flagged and the collaborator is never consulted again.
	if !rec.ScamDetected() {
		verdict := e.classifier.Classify(ctx, req.Text)
		if verdict.IsScam && rec.MarkScamDetected(verdict.Reason) {
			e.logger.Info("scam detected",
				"session_id", req.SessionID,
				"confidence", verdict.Confidence,
				"reason", verdict.Reason,
			)
			if err := e.events.Publish(events.SubjectScamDetected, map[string]any{
				"session_id": req.SessionID,
				"confidence": verdict.Confidence,
				"reason":     verdict.Reason,
			}); err != nil {
				e.logger.Warn("failed to publish scam event", "error", err)
			}
		}
	}

	snap := rec.Snapshot()
	reply := e.replier.Reply(ctx, persona.Lookup(snap.Persona), conversationContext(snap.Turns), req.Text, snap.TurnCount)
	rec.AppendAgentTurn(reply, time.Now().UnixMilli())

	e.maybeReport(ctx, rec)

	return reply, nil
}

// maybeReport evaluates the reporting gate and, when it opens, claims the
// send so concurrent turns cannot double-report. The callback runs without
// holding the record lock; only the latch transition is atomic.
func (e *Engine) maybeReport(ctx context.Context, rec *session.Record) {
	snap := rec.Snapshot()
	if !report.ShouldReport(snap) {
		return
	}
	if !rec.TryClaimReport() {
		return
	}

	payload := report.BuildPayload(snap)
	err := e.reporter.Send(ctx, payload)
	rec.FinishReport(err == nil)

	if err != nil {
		// Leave the latch unset; the next qualifying turn re-evaluates.
		e.logger.Warn("report delivery failed",
			"session_id", snap.SessionID,
			"error", err,
		)
		return
	}

	e.logger.Info("report sent",
		"session_id", snap.SessionID,
		"total_turns", payload.TotalMessagesExchanged,
	)

	reportID := ""
	if e.archive != nil {
		id, err := e.archive.SaveReport(ctx, payload)
		if err != nil {
			e.logger.Error("failed to archive report", "session_id", snap.SessionID, "error", err)
		} else {
			reportID = id.String()
		}
	}

	if err := e.events.Publish(events.SubjectReportSent, events.ReportSent{
		ReportID:   reportID,
		SessionID:  snap.SessionID,
		TotalTurns: payload.TotalMessagesExchanged,
		Findings:   snap.Intelligence.Count(),
	}); err != nil {
		e.logger.Warn("failed to publish report event", "error", err)
	}
}

// lists renders only the non-empty kinds of one extraction result.
func lists(r intel.Result) map[string][]string {
	out := make(map[string][]string)
	for kind, values := range r.ByKind() {
		if len(values) > 0 {
			out[string(kind)] = values
		}
	}
	return out
}

// conversationContext formats the most recent turns for the reply prompt.
func conversationContext(turns []session.Turn) string {
	if len(turns) == 0 {
		return "No previous conversation."
	}
	if len(turns) > contextWindow {
		turns = turns[len(turns)-contextWindow:]
	}

	var b strings.Builder
	for i, turn := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		if turn.Role == session.RoleCounterparty {
			b.WriteString("Scammer: ")
		} else {
			b.WriteString("You: ")
		}
		b.WriteString(turn.Text)
	}
	return b.String()
}
