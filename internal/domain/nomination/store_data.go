package nomination

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

const nominationColumns = `id, cycle_id, requester_id, COALESCE(reviewer_id::text, ''), COALESCE(external_email, ''),
    relationship_type, approval_status, completion_status, COALESCE(rejection_reason, ''),
    COALESCE(decided_by::text, ''), created_at, COALESCE(decided_at, 'epoch'), COALESCE(completed_at, 'epoch'), version`

func scanNomination(row pgx.Row) (Nomination, error) {
	var n Nomination
	err := row.Scan(&n.ID, &n.CycleID, &n.RequesterID, &n.ReviewerID, &n.ExternalEmail,
		&n.Relationship, &n.Approval, &n.Completion, &n.RejectionReason,
		&n.DecidedBy, &n.CreatedAt, &n.DecidedAt, &n.CompletedAt, &n.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Nomination{}, ErrNotFound
	}
	if err != nil {
		return Nomination{}, err
	}
	if n.DecidedAt.Year() <= 1970 {
		n.DecidedAt = zeroTime
	}
	if n.CompletedAt.Year() <= 1970 {
		n.CompletedAt = zeroTime
	}
	return n, nil
}

func (s *Store) GetNomination(ctx context.Context, id string) (Nomination, error) {
	return scanNomination(s.DB.QueryRow(ctx, "SELECT "+nominationColumns+" FROM nominations WHERE id = $1", id))
}

// CreateNomination inserts inside a transaction that serializes creations
// per (cycle, requester) and per reviewer via advisory locks, re-checking
// capacity, the duplicate rule, and the reviewer load against committed
// state. Both locks are always taken in the same order, requester first,
// so concurrent creations cannot deadlock. The partial unique index on
// non-rejected pairs backs the duplicate rule at the schema level too.
func (s *Store) CreateNomination(ctx context.Context, n Nomination, cfg Config) (Nomination, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Nomination{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", n.CycleID+"/"+n.RequesterID); err != nil {
		return Nomination{}, err
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", n.CycleID+"#"+n.ReviewerKey()); err != nil {
		return Nomination{}, err
	}

	var active int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM nominations
    WHERE cycle_id = $1 AND requester_id = $2 AND approval_status IN ($3,$4)
  `, n.CycleID, n.RequesterID, ApprovalPending, ApprovalApproved).Scan(&active); err != nil {
		return Nomination{}, err
	}
	if active >= cfg.MaxActivePerRequester {
		return Nomination{}, ErrCapacityExceeded
	}

	loadQuery := `
    SELECT COUNT(1)
    FROM nominations
    WHERE approval_status IN ($1,$2)
      AND (reviewer_id::text = $3 OR lower(COALESCE(external_email, '')) = $3)
  `
	loadArgs := []any{ApprovalPending, ApprovalApproved, n.ReviewerKey()}
	if !cfg.ReviewerLoadAcrossCycles {
		loadQuery += " AND cycle_id = $4"
		loadArgs = append(loadArgs, n.CycleID)
	}
	var load int
	if err := tx.QueryRow(ctx, loadQuery, loadArgs...).Scan(&load); err != nil {
		return Nomination{}, err
	}
	if load >= cfg.MaxReviewerLoad {
		return Nomination{}, ErrReviewerOverloaded
	}

	var duplicates int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM nominations
    WHERE cycle_id = $1 AND requester_id = $2 AND approval_status <> $3
      AND (reviewer_id::text = $4 OR lower(COALESCE(external_email, '')) = $4)
  `, n.CycleID, n.RequesterID, ApprovalRejected, n.ReviewerKey()).Scan(&duplicates); err != nil {
		return Nomination{}, err
	}
	if duplicates > 0 {
		return Nomination{}, ErrDuplicateNomination
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO nominations
      (id, cycle_id, requester_id, reviewer_id, external_email, relationship_type, approval_status, completion_status, created_at, version)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, n.ID, n.CycleID, n.RequesterID, nullIfEmpty(n.ReviewerID), nullIfEmpty(n.ExternalEmail),
		n.Relationship, n.Approval, n.Completion, n.CreatedAt, n.Version); err != nil {
		if isUniqueViolation(err) {
			return Nomination{}, ErrDuplicateNomination
		}
		return Nomination{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Nomination{}, err
	}
	return n, nil
}

func (s *Store) UpdateNomination(ctx context.Context, n Nomination) (Nomination, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE nominations
    SET approval_status = $1, completion_status = $2, rejection_reason = $3,
        decided_by = $4, decided_at = $5, completed_at = $6, version = version + 1
    WHERE id = $7 AND version = $8
  `, n.Approval, n.Completion, nullIfEmpty(n.RejectionReason), nullIfEmpty(n.DecidedBy),
		nullIfZeroTime(n.DecidedAt), nullIfZeroTime(n.CompletedAt), n.ID, n.Version)
	if err != nil {
		return Nomination{}, err
	}
	if tag.RowsAffected() == 0 {
		return Nomination{}, ErrConcurrentModification
	}
	n.Version++
	return n, nil
}

func (s *Store) ListByRequester(ctx context.Context, cycleID, requesterID string) ([]Nomination, error) {
	return s.list(ctx, `
    SELECT `+nominationColumns+`
    FROM nominations
    WHERE cycle_id = $1 AND requester_id = $2
    ORDER BY created_at
  `, cycleID, requesterID)
}

func (s *Store) ListByReviewer(ctx context.Context, cycleID, reviewerKey string) ([]Nomination, error) {
	return s.list(ctx, `
    SELECT `+nominationColumns+`
    FROM nominations
    WHERE cycle_id = $1 AND (reviewer_id::text = $2 OR lower(COALESCE(external_email, '')) = $2)
    ORDER BY created_at
  `, cycleID, reviewerKey)
}

func (s *Store) ListByCycle(ctx context.Context, cycleID string) ([]Nomination, error) {
	return s.list(ctx, "SELECT "+nominationColumns+" FROM nominations WHERE cycle_id = $1 ORDER BY created_at", cycleID)
}

func (s *Store) ReviewerLoad(ctx context.Context, cycleID, reviewerKey string, acrossCycles bool) (int, error) {
	query := `
    SELECT COUNT(1)
    FROM nominations
    WHERE approval_status IN ($1,$2)
      AND (reviewer_id::text = $3 OR lower(COALESCE(external_email, '')) = $3)
  `
	args := []any{ApprovalPending, ApprovalApproved, reviewerKey}
	if !acrossCycles {
		query += " AND cycle_id = $4"
		args = append(args, cycleID)
	}
	var count int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Nomination, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nominations []Nomination
	for rows.Next() {
		n, err := scanNomination(rows)
		if err != nil {
			return nil, err
		}
		nominations = append(nominations, n)
	}
	return nominations, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var zeroTime time.Time

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullIfZeroTime(ts time.Time) any {
	if ts.IsZero() {
		return nil
	}
	return ts
}
