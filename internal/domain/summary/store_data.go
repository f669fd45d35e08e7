package summary

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedback360/internal/domain/nomination"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const nominationColumns = `id, cycle_id, requester_id, COALESCE(reviewer_id::text, ''), COALESCE(external_email, ''),
    relationship_type, approval_status, completion_status, COALESCE(rejection_reason, ''),
    COALESCE(decided_by::text, ''), created_at, COALESCE(decided_at, 'epoch'), COALESCE(completed_at, 'epoch'), version`

func collectNominations(rows pgx.Rows) ([]nomination.Nomination, error) {
	defer rows.Close()
	var out []nomination.Nomination
	for rows.Next() {
		var n nomination.Nomination
		if err := rows.Scan(&n.ID, &n.CycleID, &n.RequesterID, &n.ReviewerID, &n.ExternalEmail,
			&n.Relationship, &n.Approval, &n.Completion, &n.RejectionReason,
			&n.DecidedBy, &n.CreatedAt, &n.DecidedAt, &n.CompletedAt, &n.Version); err != nil {
			return nil, err
		}
		if n.DecidedAt.Year() <= 1970 {
			n.DecidedAt = time.Time{}
		}
		if n.CompletedAt.Year() <= 1970 {
			n.CompletedAt = time.Time{}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CycleNominations(ctx context.Context, cycleID string) ([]nomination.Nomination, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+nominationColumns+" FROM nominations WHERE cycle_id = $1 ORDER BY created_at", cycleID)
	if err != nil {
		return nil, err
	}
	return collectNominations(rows)
}

func (s *Store) RequesterNominations(ctx context.Context, cycleID, requesterID string) ([]nomination.Nomination, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT "+nominationColumns+" FROM nominations WHERE cycle_id = $1 AND requester_id = $2 ORDER BY created_at",
		cycleID, requesterID)
	if err != nil {
		return nil, err
	}
	return collectNominations(rows)
}

func (s *Store) SubmittedResponses(ctx context.Context, cycleID string) (map[string]bool, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.nomination_id
    FROM feedback_responses r
    JOIN nominations n ON n.id = r.nomination_id
    WHERE n.cycle_id = $1`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	submitted := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		submitted[id] = true
	}
	return submitted, rows.Err()
}

func (s *Store) ActiveEmployeeCount(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE active").Scan(&count)
	return count, err
}

func (s *Store) PendingForManager(ctx context.Context, cycleID, managerID string) ([]nomination.Nomination, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+nominationColumns+`
    FROM nominations
    WHERE cycle_id = $1
      AND approval_status = 'pending'
      AND requester_id IN (SELECT id FROM employees WHERE manager_id = $2)
    ORDER BY created_at`, cycleID, managerID)
	if err != nil {
		return nil, err
	}
	return collectNominations(rows)
}

func (s *Store) Rejections(ctx context.Context, cycleID string) ([]RejectionRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, requester_id, COALESCE(reviewer_id::text, external_email, ''),
           COALESCE(rejection_reason, ''), COALESCE(decided_by::text, ''), COALESCE(decided_at, 'epoch')
    FROM nominations
    WHERE cycle_id = $1 AND approval_status = 'rejected'
    ORDER BY decided_at DESC`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RejectionRecord
	for rows.Next() {
		var r RejectionRecord
		if err := rows.Scan(&r.NominationID, &r.RequesterID, &r.ReviewerKey, &r.Reason, &r.DecidedBy, &r.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
