package lifecycle

import (
	"context"
	"time"
)

// Entry is one immutable status-change record. OldStatus is nil only when the
// record predates tracking of the source status; the first real transition of
// an entity records the creation default as its OldStatus.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"entityType"`
	EntityID  int64     `json:"entityId"`
	OldStatus *Status   `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	Note      *string   `json:"notes"`
	ChangedAt time.Time `json:"changedAt"`
}

// Ledger reads the append-only transition history. Appends happen inside
// Repository.Transition so the status update and the ledger row commit in the
// same transaction.
type Ledger interface {
	// History returns all entries for (kind, entityID), most recent first.
	// An entity with no transitions yet yields an empty slice, not an error.
	History(ctx context.Context, kind Kind, entityID int64) ([]Entry, error)
}
