package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"huntboard/tracker-service/internal/lifecycle"
	"huntboard/tracker-service/internal/model"
)

const recruiterColumns = `id, user_id, full_name, company, position, linkedin_url,
	contact_info, status, last_contact_date, notes, created_at, updated_at`

var recruiterPatchColumns = map[string]string{
	"fullName":        "full_name",
	"company":         "company",
	"position":        "position",
	"linkedinUrl":     "linkedin_url",
	"contactInfo":     "contact_info",
	"lastContactDate": "last_contact_date",
	"notes":           "notes",
}

// RecruiterStore implements lifecycle.Repository for recruiter contacts.
type RecruiterStore struct {
	pool   *pgxpool.Pool
	ledger *LedgerStore
}

// NewRecruiterStore returns a recruiter store that records transitions through ledger.
func NewRecruiterStore(pool *pgxpool.Pool, ledger *LedgerStore) *RecruiterStore {
	return &RecruiterStore{pool: pool, ledger: ledger}
}

func scanRecruiter(row pgx.Row) (*model.Recruiter, error) {
	var r model.Recruiter
	err := row.Scan(
		&r.ID, &r.UserID, &r.FullName, &r.Company, &r.Position, &r.LinkedinURL,
		&r.ContactInfo, &r.Status, &r.LastContactDate, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a recruiter at the lifecycle's initial status.
func (s *RecruiterStore) Create(ctx context.Context, ownerID int64, p model.RecruiterParams, initial lifecycle.Status) (*model.Recruiter, error) {
	if strings.TrimSpace(p.FullName) == "" {
		return nil, &lifecycle.ValidationError{Msg: "fullName is required"}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO recruiters (user_id, full_name, company, position, linkedin_url, contact_info, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::recruiter_status, $8)
		RETURNING `+recruiterColumns,
		ownerID, p.FullName, p.Company, p.Position, p.LinkedinURL, p.ContactInfo,
		string(initial), p.Notes)

	r, err := scanRecruiter(row)
	if err != nil {
		return nil, fmt.Errorf("insert recruiter: %w", err)
	}
	return r, nil
}

// FindOne loads one recruiter scoped by (id, ownerID).
func (s *RecruiterStore) FindOne(ctx context.Context, id, ownerID int64) (*model.Recruiter, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+recruiterColumns+` FROM recruiters WHERE id = $1 AND user_id = $2`,
		id, ownerID)
	r, err := scanRecruiter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, lifecycle.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query recruiter: %w", err)
	}
	return r, nil
}

// List returns the owner's recruiters, newest activity first.
func (s *RecruiterStore) List(ctx context.Context, ownerID int64, status *lifecycle.Status) ([]*model.Recruiter, error) {
	var (
		rows pgx.Rows
		err  error
	)
	base := `SELECT ` + recruiterColumns + ` FROM recruiters WHERE user_id = $1`
	if status != nil {
		rows, err = s.pool.Query(ctx, base+` AND status = $2::recruiter_status ORDER BY updated_at DESC`, ownerID, string(*status))
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY updated_at DESC`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list recruiters: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Recruiter, 0)
	for rows.Next() {
		r, err := scanRecruiter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recruiter: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateFields applies a whitelisted partial update to non-lifecycle columns.
func (s *RecruiterStore) UpdateFields(ctx context.Context, id, ownerID int64, patch lifecycle.Fields) (*model.Recruiter, error) {
	sets, args, err := buildPatch(recruiterPatchColumns, patch)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return s.FindOne(ctx, id, ownerID)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE recruiters SET %s, updated_at = NOW()
		WHERE id = $%d AND user_id = $%d
		RETURNING `+recruiterColumns,
		strings.Join(sets, ", "), len(args)-1, len(args))

	r, err := scanRecruiter(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, lifecycle.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update recruiter: %w", err)
	}
	return r, nil
}

// Transition commits the status change, derived-field patch, optional note and
// ledger entry in one transaction, conditional on the row still holding from.
func (s *RecruiterStore) Transition(ctx context.Context, id, ownerID int64, from, to lifecycle.Status, patch lifecycle.FieldPatch, note string, changedAt time.Time) (*model.Recruiter, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	notePtr := nilIfEmpty(note)
	row := tx.QueryRow(ctx, `
		UPDATE recruiters
		SET status            = $1::recruiter_status,
		    last_contact_date = COALESCE($2::timestamptz, last_contact_date),
		    notes             = COALESCE($3::text, notes),
		    updated_at        = NOW()
		WHERE id = $4 AND user_id = $5 AND status = $6::recruiter_status
		RETURNING `+recruiterColumns,
		string(to), patch.LastContactDate, notePtr, id, ownerID, string(from))

	r, err := scanRecruiter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyMiss(ctx, tx, id, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("transition recruiter: %w", err)
	}

	old := from
	err = s.ledger.AppendTx(ctx, tx, lifecycle.Entry{
		Kind:      lifecycle.KindRecruiter,
		EntityID:  id,
		OldStatus: &old,
		NewStatus: to,
		Note:      notePtr,
		ChangedAt: changedAt,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return r, nil
}

func (s *RecruiterStore) classifyMiss(ctx context.Context, tx pgx.Tx, id, ownerID int64) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM recruiters WHERE id = $1 AND user_id = $2)`,
		id, ownerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classify transition miss: %w", err)
	}
	if exists {
		return lifecycle.ErrStaleStatus
	}
	return lifecycle.ErrNotFound
}

// Delete removes the recruiter and its ledger history in one transaction.
func (s *RecruiterStore) Delete(ctx context.Context, id, ownerID int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM recruiters WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete recruiter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	if err := s.ledger.deleteForTx(ctx, tx, lifecycle.KindRecruiter, id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
