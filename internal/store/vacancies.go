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

const vacancyColumns = `id, user_id, company_name, job_title, description, source_platform,
	source_url, salary, status, application_date, last_contact_date, notes, created_at, updated_at`

// vacancyPatchColumns maps API field names accepted by UpdateFields to their
// columns. status is deliberately absent: it only changes through Transition.
var vacancyPatchColumns = map[string]string{
	"companyName":     "company_name",
	"jobTitle":        "job_title",
	"description":     "description",
	"sourcePlatform":  "source_platform",
	"sourceUrl":       "source_url",
	"salary":          "salary",
	"applicationDate": "application_date",
	"lastContactDate": "last_contact_date",
	"notes":           "notes",
}

// VacancyStore implements lifecycle.Repository for vacancies.
type VacancyStore struct {
	pool   *pgxpool.Pool
	ledger *LedgerStore
}

// NewVacancyStore returns a vacancy store that records transitions through ledger.
func NewVacancyStore(pool *pgxpool.Pool, ledger *LedgerStore) *VacancyStore {
	return &VacancyStore{pool: pool, ledger: ledger}
}

func scanVacancy(row pgx.Row) (*model.Vacancy, error) {
	var v model.Vacancy
	err := row.Scan(
		&v.ID, &v.UserID, &v.CompanyName, &v.JobTitle, &v.Description, &v.SourcePlatform,
		&v.SourceURL, &v.Salary, &v.Status, &v.ApplicationDate, &v.LastContactDate,
		&v.Notes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a vacancy at the lifecycle's initial status.
func (s *VacancyStore) Create(ctx context.Context, ownerID int64, p model.VacancyParams, initial lifecycle.Status) (*model.Vacancy, error) {
	if strings.TrimSpace(p.CompanyName) == "" {
		return nil, &lifecycle.ValidationError{Msg: "companyName is required"}
	}
	if strings.TrimSpace(p.JobTitle) == "" {
		return nil, &lifecycle.ValidationError{Msg: "jobTitle is required"}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO vacancies (user_id, company_name, job_title, description, source_platform,
		                       source_url, salary, status, application_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vacancy_status, $9, $10)
		RETURNING `+vacancyColumns,
		ownerID, p.CompanyName, p.JobTitle, p.Description, p.SourcePlatform,
		p.SourceURL, p.Salary, string(initial), p.ApplicationDate, p.Notes)

	v, err := scanVacancy(row)
	if err != nil {
		return nil, fmt.Errorf("insert vacancy: %w", err)
	}
	return v, nil
}

// FindOne loads one vacancy scoped by (id, ownerID).
func (s *VacancyStore) FindOne(ctx context.Context, id, ownerID int64) (*model.Vacancy, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+vacancyColumns+` FROM vacancies WHERE id = $1 AND user_id = $2`,
		id, ownerID)
	v, err := scanVacancy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, lifecycle.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query vacancy: %w", err)
	}
	return v, nil
}

// List returns the owner's vacancies, newest activity first.
func (s *VacancyStore) List(ctx context.Context, ownerID int64, status *lifecycle.Status) ([]*model.Vacancy, error) {
	var (
		rows pgx.Rows
		err  error
	)
	base := `SELECT ` + vacancyColumns + ` FROM vacancies WHERE user_id = $1`
	if status != nil {
		rows, err = s.pool.Query(ctx, base+` AND status = $2::vacancy_status ORDER BY updated_at DESC`, ownerID, string(*status))
	} else {
		rows, err = s.pool.Query(ctx, base+` ORDER BY updated_at DESC`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list vacancies: %w", err)
	}
	defer rows.Close()

	out := make([]*model.Vacancy, 0)
	for rows.Next() {
		v, err := scanVacancy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vacancy: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateFields applies a whitelisted partial update to non-lifecycle columns.
func (s *VacancyStore) UpdateFields(ctx context.Context, id, ownerID int64, patch lifecycle.Fields) (*model.Vacancy, error) {
	sets, args, err := buildPatch(vacancyPatchColumns, patch)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return s.FindOne(ctx, id, ownerID)
	}

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE vacancies SET %s, updated_at = NOW()
		WHERE id = $%d AND user_id = $%d
		RETURNING `+vacancyColumns,
		strings.Join(sets, ", "), len(args)-1, len(args))

	v, err := scanVacancy(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, lifecycle.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update vacancy: %w", err)
	}
	return v, nil
}

// Transition commits the status change, derived-field patch, optional note and
// ledger entry in one transaction. The update is conditional on the row still
// holding from, which serializes racing transitions against the same vacancy.
func (s *VacancyStore) Transition(ctx context.Context, id, ownerID int64, from, to lifecycle.Status, patch lifecycle.FieldPatch, note string, changedAt time.Time) (*model.Vacancy, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // safe no-op after commit

	notePtr := nilIfEmpty(note)
	row := tx.QueryRow(ctx, `
		UPDATE vacancies
		SET status            = $1::vacancy_status,
		    application_date  = CASE WHEN $2::timestamptz IS NOT NULL AND application_date IS NULL
		                             THEN $2 ELSE application_date END,
		    last_contact_date = COALESCE($3::timestamptz, last_contact_date),
		    notes             = COALESCE($4::text, notes),
		    updated_at        = NOW()
		WHERE id = $5 AND user_id = $6 AND status = $7::vacancy_status
		RETURNING `+vacancyColumns,
		string(to), patch.ApplicationDate, patch.LastContactDate, notePtr,
		id, ownerID, string(from))

	v, err := scanVacancy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.classifyMiss(ctx, tx, id, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("transition vacancy: %w", err)
	}

	old := from
	err = s.ledger.AppendTx(ctx, tx, lifecycle.Entry{
		Kind:      lifecycle.KindVacancy,
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
	return v, nil
}

// classifyMiss decides whether a conditional update missed because the row is
// absent (or not ours) or because the status moved underneath us.
func (s *VacancyStore) classifyMiss(ctx context.Context, tx pgx.Tx, id, ownerID int64) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vacancies WHERE id = $1 AND user_id = $2)`,
		id, ownerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classify transition miss: %w", err)
	}
	if exists {
		return lifecycle.ErrStaleStatus
	}
	return lifecycle.ErrNotFound
}

// Delete removes the vacancy and its ledger history in one transaction.
func (s *VacancyStore) Delete(ctx context.Context, id, ownerID int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM vacancies WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete vacancy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrNotFound
	}
	if err := s.ledger.deleteForTx(ctx, tx, lifecycle.KindVacancy, id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
