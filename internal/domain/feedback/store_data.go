package feedback

import (
	"context"
	"encoding/json"
	"errors"

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

var _ StoreAPI = (*Store)(nil)

func (s *Store) GetDraft(ctx context.Context, nominationID string) (map[string]Answer, error) {
	var raw []byte
	err := s.DB.QueryRow(ctx, "SELECT answers FROM feedback_drafts WHERE nomination_id = $1", nominationID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]Answer{}, nil
	}
	if err != nil {
		return nil, err
	}
	var answers map[string]Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *Store) SaveDraft(ctx context.Context, nominationID string, answers map[string]Answer) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO feedback_drafts (nomination_id, answers)
    VALUES ($1,$2)
    ON CONFLICT (nomination_id) DO UPDATE SET answers = EXCLUDED.answers, saved_at = now()
  `, nominationID, raw)
	return err
}

func (s *Store) GetResponse(ctx context.Context, nominationID string) (Response, error) {
	var resp Response
	var raw []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, nomination_id, answers, submitted_at
    FROM feedback_responses
    WHERE nomination_id = $1
  `, nominationID).Scan(&resp.ID, &resp.NominationID, &raw, &resp.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Response{}, ErrResponseNotFound
	}
	if err != nil {
		return Response{}, err
	}
	if err := json.Unmarshal(raw, &resp.Answers); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// SubmitResponse commits the final response, drops the draft and completes
// the nomination in one transaction. The version guard on the nomination
// update makes a second concurrent submit lose cleanly.
func (s *Store) SubmitResponse(ctx context.Context, resp Response, n nomination.Nomination) (Response, error) {
	raw, err := json.Marshal(resp.Answers)
	if err != nil {
		return Response{}, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE nominations
    SET completion_status = $1, completed_at = $2, version = version + 1
    WHERE id = $3 AND version = $4
  `, n.Completion, n.CompletedAt, n.ID, n.Version)
	if err != nil {
		return Response{}, err
	}
	if tag.RowsAffected() == 0 {
		return Response{}, nomination.ErrConcurrentModification
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO feedback_responses (id, nomination_id, answers, submitted_at)
    VALUES ($1,$2,$3,$4)
  `, resp.ID, resp.NominationID, raw, resp.SubmittedAt); err != nil {
		return Response{}, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM feedback_drafts WHERE nomination_id = $1", resp.NominationID); err != nil {
		return Response{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Response{}, err
	}
	return resp, nil
}

func (s *Store) ListReceived(ctx context.Context, cycleID, requesterID string) ([]ReceivedFeedback, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT fr.nomination_id, n.relationship_type, fr.answers, fr.submitted_at
    FROM feedback_responses fr
    JOIN nominations n ON n.id = fr.nomination_id
    WHERE n.cycle_id = $1 AND n.requester_id = $2
    ORDER BY fr.submitted_at
  `, cycleID, requesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var received []ReceivedFeedback
	for rows.Next() {
		var rf ReceivedFeedback
		var raw []byte
		if err := rows.Scan(&rf.NominationID, &rf.Relationship, &raw, &rf.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &rf.Answers); err != nil {
			return nil, err
		}
		received = append(received, rf)
	}
	return received, rows.Err()
}
