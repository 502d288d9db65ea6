// Package detect classifies messages as scam or legitimate via the Gemini
// collaborator. Classification never fails upward: any collaborator error
// degrades to a non-scam verdict with a diagnostic reason.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/trapline-ai/trapline/internal/gemini"
)

// Verdict is a normalized classification result.
type Verdict struct {
	IsScam     bool
	Confidence int // 0..100
	Reason     string
}

const classifyPrompt = `You are an expert scam detection system. Analyze the following message and determine if it is a scam.

CRITICAL: You must respond with ONLY a valid JSON object. No explanations, no markdown, no extra text.

The JSON must have exactly this structure:
{"is_scam": true or false, "confidence": 0-100, "reason": "brief explanation"}

Rules:
- "is_scam": boolean (true if scam, false if legitimate)
- "confidence": integer from 0 to 100
- "reason": short string explaining why (max 50 words)

Message to analyze:
"""%s"""

JSON response:`

// Detector wraps the LLM collaborator. A nil llm means classification is
// unavailable and every message gets a safe non-scam verdict.
type Detector struct {
	llm    *gemini.Client
	logger *slog.Logger
}

func New(llm *gemini.Client, logger *slog.Logger) *Detector {
	return &Detector{llm: llm, logger: logger}
}

// Classify returns a verdict for one message. It is total: malformed input,
// collaborator failure, and unparseable model output all yield IsScam=false
// with a diagnostic reason.
func (d *Detector) Classify(ctx context.Context, message string) Verdict {
	if strings.TrimSpace(message) == "" {
		return Verdict{Reason: "empty or invalid message"}
	}
	if d.llm == nil {
		return Verdict{Reason: "classifier unavailable"}
	}

	raw, err := d.llm.Generate(ctx, fmt.Sprintf(classifyPrompt, message))
	if err != nil {
		d.logger.Warn("classification call failed", "error", err)
		return Verdict{Reason: truncate("detection failed: "+err.Error(), 120)}
	}

	obj, ok := salvageJSON(raw)
	if !ok {
		d.logger.Warn("no JSON in classification response", "raw_len", len(raw))
		return Verdict{Reason: "response format error: no valid JSON found"}
	}

	return normalize(obj)
}

// normalize coerces the salvaged object into a Verdict, applying defaults for
// missing or mistyped fields.
func normalize(obj map[string]any) Verdict {
	var v Verdict

	switch val := obj["is_scam"].(type) {
	case bool:
		v.IsScam = val
	case string:
		lower := strings.ToLower(val)
		v.IsScam = lower == "true" || lower == "yes" || lower == "1"
	case float64:
		v.IsScam = val != 0
	}

	switch val := obj["confidence"].(type) {
	case float64:
		v.Confidence = clampConfidence(int(val))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			v.Confidence = clampConfidence(n)
		}
	}

	reason, _ := obj["reason"].(string)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "no reason provided"
	}
	v.Reason = reason

	return v
}

func clampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
