// Package report decides when a session's accumulated intelligence is pushed
// to the external scoring endpoint and performs the callback.
package report

import (
	"strings"

	"github.com/trapline-ai/trapline/internal/intel"
	"github.com/trapline-ai/trapline/internal/session"
)

// ShouldReport is the reporting gate: true iff the scam latch is set, at
// least one actionable finding exists, and no report has been sent yet. It is
// a pure function of the snapshot; the caller owns claiming and latching.
func ShouldReport(snap session.Snapshot) bool {
	return snap.ScamDetected &&
		snap.Intelligence.HasActionable() &&
		!snap.ReportSent
}

// Notes summarizes the scammer's observed behavior for the report payload.
func Notes(set intel.Set) string {
	var notes []string

	if keywords := set.Values(intel.KindKeyword); len(keywords) > 0 {
		if len(keywords) > 5 {
			keywords = keywords[:5]
		}
		notes = append(notes, "Used urgency tactics: "+strings.Join(keywords, ", "))
	}
	if len(set.Values(intel.KindUpiID)) > 0 {
		notes = append(notes, "Requested UPI payment")
	}
	if len(set.Values(intel.KindBankAccount)) > 0 {
		notes = append(notes, "Provided bank account details")
	}
	if len(set.Values(intel.KindURL)) > 0 {
		notes = append(notes, "Shared suspicious links")
	}
	if len(set.Values(intel.KindPhoneNumber)) > 0 {
		notes = append(notes, "Shared contact phone number")
	}

	if len(notes) == 0 {
		return "Scam conversation detected"
	}
	return strings.Join(notes, ". ")
}

// BuildPayload assembles the callback payload from a session snapshot.
func BuildPayload(snap session.Snapshot) Payload {
	return Payload{
		SessionID:              snap.SessionID,
		ScamDetected:           snap.ScamDetected,
		TotalMessagesExchanged: snap.TurnCount,
		ExtractedIntelligence:  snap.Intelligence.AsLists(),
		AgentNotes:             Notes(snap.Intelligence),
	}
}
