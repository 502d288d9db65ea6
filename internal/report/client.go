package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Payload is the callback body expected by the scoring endpoint.
type Payload struct {
	SessionID              string              `json:"sessionId"`
	ScamDetected           bool                `json:"scamDetected"`
	TotalMessagesExchanged int                 `json:"totalMessagesExchanged"`
	ExtractedIntelligence  map[string][]string `json:"extractedIntelligence"`
	AgentNotes             string              `json:"agentNotes"`
}

// Client posts reports to the scoring endpoint.
type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send delivers one report. Any non-2xx acknowledgment is an error; the
// caller leaves the reportSent latch unset so a later qualifying turn
// retries.
func (c *Client) Send(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned %d: %s", resp.StatusCode, string(respBody))
	}

	c.logger.Info("report delivered",
		"session_id", payload.SessionID,
		"status", resp.StatusCode,
		"findings", countFindings(payload.ExtractedIntelligence),
	)
	return nil
}

func countFindings(lists map[string][]string) int {
	n := 0
	for _, values := range lists {
		n += len(values)
	}
	return n
}
