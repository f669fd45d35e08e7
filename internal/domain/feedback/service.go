package feedback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/nomination"
	"feedback360/internal/domain/org"
)

var (
	ErrIncompleteAnswers = errors.New("required questions are unanswered")
	ErrResponseNotFound  = errors.New("feedback response not found")
)

type NominationStore interface {
	GetNomination(ctx context.Context, id string) (nomination.Nomination, error)
	UpdateNomination(ctx context.Context, n nomination.Nomination) (nomination.Nomination, error)
}

type CycleProvider interface {
	Get(ctx context.Context, id string) (cycle.Cycle, error)
	Questions(ctx context.Context, cycleID string, rel org.Relationship) ([]cycle.Question, error)
	DeadlineFor(ctx context.Context, c cycle.Cycle, employeeID, kind string) (time.Time, error)
}

type Service struct {
	store  StoreAPI
	noms   NominationStore
	cycles CycleProvider
}

func NewService(store StoreAPI, noms NominationStore, cycles CycleProvider) *Service {
	return &Service{store: store, noms: noms, cycles: cycles}
}

// guard loads the nomination and checks the invariants shared by draft and
// submit: the actor must be the nomination's reviewer, the cycle must be
// collecting feedback, and the reviewer's feedback deadline must not have
// passed.
func (s *Service) guard(ctx context.Context, nominationID, reviewerKey string) (nomination.Nomination, error) {
	n, err := s.noms.GetNomination(ctx, nominationID)
	if err != nil {
		return nomination.Nomination{}, err
	}
	if n.ReviewerKey() != reviewerKey {
		return nomination.Nomination{}, nomination.ErrNotAuthorized
	}
	c, err := s.cycles.Get(ctx, n.CycleID)
	if err != nil {
		return nomination.Nomination{}, err
	}
	if err := cycle.Gate(c.Phase, cycle.OpSubmitFeedback); err != nil {
		return nomination.Nomination{}, err
	}

	// Extensions are recorded per employee; external reviewers get the
	// cycle's base deadline.
	deadline := c.FeedbackDeadline
	if n.ReviewerID != "" {
		if deadline, err = s.cycles.DeadlineFor(ctx, c, n.ReviewerID, cycle.DeadlineFeedback); err != nil {
			return nomination.Nomination{}, err
		}
	}
	if !deadline.IsZero() && time.Now().UTC().After(deadline) {
		return nomination.Nomination{}, cycle.ErrDeadlinePassed
	}
	return n, nil
}

// SaveDraft upserts partial answers. The first draft moves the nomination's
// completion axis to in_progress; drafts after submission are refused.
func (s *Service) SaveDraft(ctx context.Context, nominationID, reviewerKey string, answers map[string]Answer) (nomination.Nomination, error) {
	n, err := s.guard(ctx, nominationID, reviewerKey)
	if err != nil {
		return nomination.Nomination{}, err
	}

	before := n.Completion
	if err := n.StartDraft(); err != nil {
		return nomination.Nomination{}, err
	}
	if n.Completion != before {
		if n, err = s.noms.UpdateNomination(ctx, n); err != nil {
			return nomination.Nomination{}, err
		}
	}

	if err := s.store.SaveDraft(ctx, nominationID, answers); err != nil {
		return nomination.Nomination{}, err
	}
	return n, nil
}

func (s *Service) Draft(ctx context.Context, nominationID, reviewerKey string) (map[string]Answer, error) {
	n, err := s.noms.GetNomination(ctx, nominationID)
	if err != nil {
		return nil, err
	}
	if n.ReviewerKey() != reviewerKey {
		return nil, nomination.ErrNotAuthorized
	}
	return s.store.GetDraft(ctx, nominationID)
}

// Submit finalizes the feedback: answers are validated for completeness
// against the cycle's question template for the nomination's relationship,
// then the immutable response is written, the draft discarded, and the
// nomination completed in one atomic store operation.
func (s *Service) Submit(ctx context.Context, nominationID, reviewerKey string, answers map[string]Answer) (Response, error) {
	n, err := s.guard(ctx, nominationID, reviewerKey)
	if err != nil {
		return Response{}, err
	}

	if n.Completion == nomination.CompletionCompleted {
		return Response{}, nomination.ErrAlreadyCompleted
	}

	questions, err := s.cycles.Questions(ctx, n.CycleID, n.Relationship)
	if err != nil {
		return Response{}, err
	}
	if err := checkComplete(questions, answers); err != nil {
		return Response{}, err
	}

	if err := n.Complete(time.Now().UTC()); err != nil {
		return Response{}, err
	}

	resp := Response{
		ID:           uuid.NewString(),
		NominationID: nominationID,
		Answers:      answers,
		SubmittedAt:  n.CompletedAt,
	}
	stored, err := s.store.SubmitResponse(ctx, resp, n)
	if err != nil {
		return Response{}, err
	}
	slog.Info("feedback submitted", "nomination", nominationID, "cycle", n.CycleID)
	return stored, nil
}

// Received returns the requester's completed feedback with reviewer
// identities withheld.
func (s *Service) Received(ctx context.Context, cycleID, requesterID string) ([]ReceivedFeedback, error) {
	return s.store.ListReceived(ctx, cycleID, requesterID)
}

func checkComplete(questions []cycle.Question, answers map[string]Answer) error {
	for _, q := range questions {
		if !q.Needed {
			continue
		}
		a, ok := answers[q.ID]
		if !ok || a.Empty() {
			return ErrIncompleteAnswers
		}
		if q.Type == cycle.QuestionTypeRating && a.Rating == nil {
			return ErrIncompleteAnswers
		}
	}
	return nil
}
