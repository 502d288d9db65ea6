// Package session owns per-conversation state: the append-only turn log, the
// merged intelligence set, and the one-way scam/report latches. All mutation
// goes through Record methods so invariants hold under concurrent turns.
package session

import (
	"sync"
	"time"

	"github.com/trapline-ai/trapline/internal/intel"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	// RoleCounterparty is the suspected scammer.
	RoleCounterparty Role = "scammer"
	// RoleAgent is the honeypot's own persona.
	RoleAgent Role = "agent"
)

// Turn is one message in a session. Turns are created once and never mutated;
// Seq is the authoritative ordering, the timestamp is advisory.
type Turn struct {
	Role            Role
	Text            string
	Seq             int
	TimestampMillis int64
}

// HistoryMessage is one entry of the transport-supplied conversation history.
type HistoryMessage struct {
	Sender          string
	Text            string
	TimestampMillis int64
}

// Record is the accumulated state for one session. The zero value is not
// usable; records are created through a Store.
type Record struct {
	mu sync.Mutex

	sessionID string
	persona   string
	createdAt time.Time

	turns        []Turn
	intelligence intel.Set

	scamDetected bool
	scamReason   string

	// reportSent latches true after a successful callback; reportPending
	// claims the in-flight send so concurrent turns cannot double-report.
	reportSent    bool
	reportPending bool
}

func newRecord(sessionID, persona string) *Record {
	return &Record{
		sessionID:    sessionID,
		persona:      persona,
		createdAt:    time.Now().UTC(),
		intelligence: intel.NewSet(),
	}
}

// Ingest applies one counterparty turn to the record: reconcile against the
// supplied history, append the turn, extract and merge its intelligence. It
// returns the new turn's extraction result.
//
// If the supplied history is longer than the local turn log the transport has
// seen more of the conversation than this process (stateless/restarted
// caller); the log is rebuilt from the history and extraction re-runs over
// every counterparty turn in it. The rebuilt set replaces the old one, so a
// turn resubmitted any number of times is counted exactly once. A history of
// equal or shorter length is stale and ignored — state never regresses.
func (r *Record) Ingest(history []HistoryMessage, text string, timestampMillis int64) intel.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(history) > len(r.turns) {
		r.rebuildLocked(history)
	}

	r.appendLocked(RoleCounterparty, text, timestampMillis)

	result := intel.Extract(text)
	r.intelligence.Merge(result)
	return result
}

// AppendAgentTurn records the honeypot's own reply. Agent turns carry no
// intelligence and are never extracted from.
func (r *Record) AppendAgentTurn(text string, timestampMillis int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendLocked(RoleAgent, text, timestampMillis)
}

func (r *Record) appendLocked(role Role, text string, timestampMillis int64) {
	if timestampMillis == 0 {
		timestampMillis = time.Now().UnixMilli()
	}
	r.turns = append(r.turns, Turn{
		Role:            role,
		Text:            text,
		Seq:             len(r.turns),
		TimestampMillis: timestampMillis,
	})
}

func (r *Record) rebuildLocked(history []HistoryMessage) {
	r.turns = r.turns[:0]
	r.intelligence = intel.NewSet()

	for _, msg := range history {
		role := RoleAgent
		if msg.Sender == string(RoleCounterparty) {
			role = RoleCounterparty
		}
		r.appendLocked(role, msg.Text, msg.TimestampMillis)

		if role == RoleCounterparty {
			r.intelligence.Merge(intel.Extract(msg.Text))
		}
	}
}

// ScamDetected reports the current latch state.
func (r *Record) ScamDetected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scamDetected
}

// MarkScamDetected latches the scam flag. The transition is one-way: the
// first call wins and later calls (including with different reasons) are
// no-ops. Returns true when this call performed the transition.
func (r *Record) MarkScamDetected(reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scamDetected {
		return false
	}
	r.scamDetected = true
	r.scamReason = reason
	return true
}

// ReportSent reports the current latch state.
func (r *Record) ReportSent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reportSent
}

// TryClaimReport atomically claims the right to send the report. It fails
// when a report was already sent or another turn is mid-send. The claimant
// must call FinishReport exactly once.
func (r *Record) TryClaimReport() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reportSent || r.reportPending {
		return false
	}
	r.reportPending = true
	return true
}

// FinishReport releases a claim taken by TryClaimReport. On delivered=true
// the reportSent latch transitions; on failure the record stays eligible so a
// later qualifying turn re-attempts the send.
func (r *Record) FinishReport(delivered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reportPending = false
	if delivered {
		r.reportSent = true
	}
}

// Snapshot returns a consistent copy of the record for lock-free reads while
// external collaborators are called.
func (r *Record) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	turns := make([]Turn, len(r.turns))
	copy(turns, r.turns)

	return Snapshot{
		SessionID:    r.sessionID,
		Persona:      r.persona,
		CreatedAt:    r.createdAt,
		Turns:        turns,
		TurnCount:    len(r.turns),
		Intelligence: r.intelligence.Clone(),
		ScamDetected: r.scamDetected,
		ScamReason:   r.scamReason,
		ReportSent:   r.reportSent,
	}
}

// Snapshot is an immutable view of a Record at one point in time.
type Snapshot struct {
	SessionID    string
	Persona      string
	CreatedAt    time.Time
	Turns        []Turn
	TurnCount    int
	Intelligence intel.Set
	ScamDetected bool
	ScamReason   string
	ReportSent   bool
}
