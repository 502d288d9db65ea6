// Package events publishes pipeline milestones to NATS for downstream
// consumers (dashboards, takedown tooling). The publisher is optional: a nil
// *Publisher is safe to call and drops everything.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectIntelExtracted fires when a turn yields new findings.
	SubjectIntelExtracted = "trapline.intel.extracted"
	// SubjectScamDetected fires when a session's scam latch transitions.
	SubjectScamDetected = "trapline.scam.detected"
	// SubjectReportSent fires after a successful scoring callback.
	SubjectReportSent = "trapline.report.sent"
)

// IntelExtracted is the payload for SubjectIntelExtracted.
type IntelExtracted struct {
	SessionID string              `json:"session_id"`
	Turn      int                 `json:"turn"`
	Findings  map[string][]string `json:"findings"`
}

// ReportSent is the payload for SubjectReportSent.
type ReportSent struct {
	ReportID   string `json:"report_id"`
	SessionID  string `json:"session_id"`
	TotalTurns int    `json:"total_turns"`
	Findings   int    `json:"findings"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect dials NATS with reconnect handling. A failed initial connect is an
// error; transient drops afterwards are retried by the client.
func Connect(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// Publish marshals data and publishes it on subject. Nil receivers drop the
// event silently so callers need no nil checks at every site.
func (p *Publisher) Publish(subject string, data any) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return p.conn.Publish(subject, payload)
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
