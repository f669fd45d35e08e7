package cycle

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedback360/internal/domain/org"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

var _ StoreAPI = (*Store)(nil)

const cycleColumns = `id, name, display_name, cycle_year, quarter, phase,
    nomination_start, COALESCE(approval_start, 'epoch'), COALESCE(collection_start, 'epoch'),
    COALESCE(results_start, 'epoch'), COALESCE(closed_at, 'epoch'),
    nomination_deadline, feedback_deadline, COALESCE(created_by::text, ''), created_at, version`

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var approval, collection, results, closed time.Time
	err := row.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Year, &c.Quarter, &c.Phase,
		&c.NominationStart, &approval, &collection, &results, &closed,
		&c.NominationDeadline, &c.FeedbackDeadline, &c.CreatedBy, &c.CreatedAt, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cycle{}, ErrCycleNotFound
	}
	if err != nil {
		return Cycle{}, err
	}
	// COALESCE to epoch keeps scanning simple; zero the placeholders back out.
	if approval.Year() > 1970 {
		c.ApprovalStart = approval
	}
	if collection.Year() > 1970 {
		c.CollectionStart = collection
	}
	if results.Year() > 1970 {
		c.ResultsStart = results
	}
	if closed.Year() > 1970 {
		c.ClosedAt = closed
	}
	return c, nil
}

func (s *Store) GetCycle(ctx context.Context, id string) (Cycle, error) {
	return scanCycle(s.DB.QueryRow(ctx, "SELECT "+cycleColumns+" FROM review_cycles WHERE id = $1", id))
}

func (s *Store) ActiveCycle(ctx context.Context) (Cycle, error) {
	c, err := scanCycle(s.DB.QueryRow(ctx, `
    SELECT `+cycleColumns+`
    FROM review_cycles
    WHERE phase <> $1
    ORDER BY created_at DESC
    LIMIT 1
  `, PhaseClosed))
	if errors.Is(err, ErrCycleNotFound) {
		return Cycle{}, ErrNoActiveCycle
	}
	return c, err
}

func (s *Store) ListCycles(ctx context.Context) ([]Cycle, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+cycleColumns+" FROM review_cycles ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}

func (s *Store) CreateCycle(ctx context.Context, c Cycle, templates TemplateSet) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO review_cycles
      (name, display_name, cycle_year, quarter, phase, nomination_start, nomination_deadline, feedback_deadline, created_by, version)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1)
    RETURNING id
  `, c.Name, c.DisplayName, c.Year, c.Quarter, c.Phase, c.NominationStart, c.NominationDeadline, c.FeedbackDeadline, nullIfEmpty(c.CreatedBy)).Scan(&id); err != nil {
		return "", err
	}

	for rel, questions := range templates {
		for _, q := range questions {
			if _, err := tx.Exec(ctx, `
        INSERT INTO cycle_questions (cycle_id, relationship_type, question_key, question_text, question_type, sort_order, required)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
      `, id, string(rel), q.ID, q.Text, q.Type, q.Order, q.Needed); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AdvanceCycle(ctx context.Context, c Cycle) (Cycle, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE review_cycles
    SET phase = $1,
        approval_start = COALESCE(approval_start, $2),
        collection_start = COALESCE(collection_start, $3),
        results_start = COALESCE(results_start, $4),
        closed_at = COALESCE(closed_at, $5),
        version = version + 1
    WHERE id = $6 AND version = $7
  `, c.Phase, nullIfZero(c.ApprovalStart), nullIfZero(c.CollectionStart), nullIfZero(c.ResultsStart), nullIfZero(c.ClosedAt), c.ID, c.Version)
	if err != nil {
		return Cycle{}, err
	}
	if tag.RowsAffected() == 0 {
		return Cycle{}, ErrStaleCycle
	}
	return s.GetCycle(ctx, c.ID)
}

func (s *Store) Questions(ctx context.Context, cycleID string, rel org.Relationship) ([]Question, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT question_key, question_text, question_type, sort_order, required
    FROM cycle_questions
    WHERE cycle_id = $1 AND relationship_type = $2
    ORDER BY sort_order
  `, cycleID, string(rel))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.Order, &q.Needed); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) CreateExtension(ctx context.Context, ext DeadlineExtension) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO deadline_extensions (cycle_id, employee_id, kind, new_deadline, reason, extended_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (cycle_id, employee_id, kind) DO UPDATE SET
      new_deadline = EXCLUDED.new_deadline, reason = EXCLUDED.reason,
      extended_by = EXCLUDED.extended_by, created_at = now()
    RETURNING id
  `, ext.CycleID, ext.EmployeeID, ext.Kind, ext.NewDeadline, ext.Reason, ext.ExtendedBy).Scan(&id)
	return id, err
}

func (s *Store) ListExtensions(ctx context.Context, cycleID string) ([]DeadlineExtension, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, cycle_id, employee_id, kind, new_deadline, reason, extended_by, created_at
    FROM deadline_extensions
    WHERE cycle_id = $1
    ORDER BY created_at DESC
  `, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var extensions []DeadlineExtension
	for rows.Next() {
		var e DeadlineExtension
		if err := rows.Scan(&e.ID, &e.CycleID, &e.EmployeeID, &e.Kind, &e.NewDeadline, &e.Reason, &e.ExtendedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		extensions = append(extensions, e)
	}
	return extensions, rows.Err()
}

func (s *Store) ExtendedDeadline(ctx context.Context, cycleID, employeeID, kind string) (time.Time, bool, error) {
	var deadline time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT new_deadline
    FROM deadline_extensions
    WHERE cycle_id = $1 AND employee_id = $2 AND kind = $3
  `, cycleID, employeeID, kind).Scan(&deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return deadline, true, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullIfZero(ts time.Time) any {
	if ts.IsZero() {
		return nil
	}
	return ts
}
