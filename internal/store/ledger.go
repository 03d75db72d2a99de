// Package store implements PostgreSQL persistence for tracked entities and
// the status ledger.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"huntboard/tracker-service/internal/lifecycle"
)

// LedgerStore persists the append-only status_history table. Rows are never
// updated or deleted except when the owning entity is deleted, which removes
// its history in the same transaction.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore returns a ledger store backed by pool.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

const appendEntrySQL = `
	INSERT INTO status_history (entity_type, entity_id, old_status, new_status, notes, changed_at)
	VALUES ($1::entity_type, $2, $3, $4, $5, $6)`

// Append inserts one ledger entry outside any caller transaction.
func (s *LedgerStore) Append(ctx context.Context, e lifecycle.Entry) error {
	_, err := s.pool.Exec(ctx, appendEntrySQL,
		string(e.Kind), e.EntityID, e.OldStatus, string(e.NewStatus), e.Note, e.ChangedAt)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// AppendTx inserts one ledger entry inside the caller's transaction, so the
// entry commits together with the entity's status update.
func (s *LedgerStore) AppendTx(ctx context.Context, tx pgx.Tx, e lifecycle.Entry) error {
	_, err := tx.Exec(ctx, appendEntrySQL,
		string(e.Kind), e.EntityID, e.OldStatus, string(e.NewStatus), e.Note, e.ChangedAt)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// History returns all entries for (kind, entityID), most recent first.
func (s *LedgerStore) History(ctx context.Context, kind lifecycle.Kind, entityID int64) ([]lifecycle.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_type, entity_id, old_status, new_status, notes, changed_at
		FROM status_history
		WHERE entity_type = $1::entity_type AND entity_id = $2
		ORDER BY changed_at DESC, id DESC`,
		string(kind), entityID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	entries := make([]lifecycle.Entry, 0)
	for rows.Next() {
		var e lifecycle.Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.EntityID, &e.OldStatus, &e.NewStatus, &e.Note, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// deleteForTx removes all entries for (kind, entityID) inside the caller's
// transaction. Used only by entity deletion.
func (s *LedgerStore) deleteForTx(ctx context.Context, tx pgx.Tx, kind lifecycle.Kind, entityID int64) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM status_history WHERE entity_type = $1::entity_type AND entity_id = $2`,
		string(kind), entityID)
	if err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	return nil
}
