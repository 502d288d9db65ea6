package session

import (
	"log/slog"

	"github.com/trapline-ai/trapline/internal/intel"
)

// Reconciler folds incoming turns into conversation records, resynchronizing
// from transport-supplied history when it is longer than local memory.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// NewReconciler returns a Reconciler over the given store.
func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile locates or creates the session record, applies the supplied
// history and the new counterparty turn, and returns the updated record along
// with the new turn's extraction result.
func (r *Reconciler) Reconcile(sessionID, persona string, history []HistoryMessage, text string, timestampMillis int64) (*Record, intel.Result) {
	rec := r.store.GetOrCreate(sessionID, persona)

	before := rec.Snapshot().TurnCount
	result := rec.Ingest(history, text, timestampMillis)

	if len(history) > before {
		r.logger.Info("rebuilt session from supplied history",
			"session_id", sessionID,
			"history_len", len(history),
			"local_turns", before,
		)
	}

	return rec, result
}
