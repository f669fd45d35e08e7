package nomination

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/org"
)

type GraphProvider interface {
	Snapshot(ctx context.Context) (*org.Graph, error)
}

type CycleProvider interface {
	Get(ctx context.Context, id string) (cycle.Cycle, error)
	Active(ctx context.Context) (cycle.Cycle, error)
	// DeadlineFor resolves the employee's effective deadline, honouring any
	// HR-granted extension.
	DeadlineFor(ctx context.Context, c cycle.Cycle, employeeID, kind string) (time.Time, error)
}

type Service struct {
	cfg    Config
	store  StoreAPI
	graphs GraphProvider
	cycles CycleProvider
}

func NewService(cfg Config, store StoreAPI, graphs GraphProvider, cycles CycleProvider) *Service {
	if cfg.MaxActivePerRequester <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{cfg: cfg, store: store, graphs: graphs, cycles: cycles}
}

func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) Get(ctx context.Context, id string) (Nomination, error) {
	return s.store.GetNomination(ctx, id)
}

func (s *Service) ListForRequester(ctx context.Context, cycleID, requesterID string) ([]Nomination, error) {
	return s.store.ListByRequester(ctx, cycleID, requesterID)
}

func (s *Service) ListForReviewer(ctx context.Context, cycleID, reviewerKey string) ([]Nomination, error) {
	return s.store.ListByReviewer(ctx, cycleID, reviewerKey)
}

// Classify previews the relationship that would be recorded for a candidate
// without creating anything.
func (s *Service) Classify(ctx context.Context, requesterID string, candidate org.Candidate) (org.Relationship, error) {
	graph, err := s.graphs.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("load organization graph: %w", err)
	}
	return org.Classify(graph, requesterID, candidate)
}

// Create runs the full eligibility check against the active cycle and, when
// every rule passes, creates exactly one pending nomination. Validation and
// creation are atomic: the store re-checks capacity and duplicates inside
// its transaction, so a concurrent creation can never push the requester
// past the capacity limit.
func (s *Service) Create(ctx context.Context, requesterID string, candidate org.Candidate) (Nomination, error) {
	current, err := s.cycles.Active(ctx)
	if err != nil {
		return Nomination{}, err
	}
	// The nomination deadline binds while nominations are being gathered.
	// Collection-phase creations are replacements for rejections and are
	// governed by the replacement rule instead.
	if current.Phase == cycle.PhaseNomination || current.Phase == cycle.PhaseApproval {
		deadline, err := s.cycles.DeadlineFor(ctx, current, requesterID, cycle.DeadlineNomination)
		if err != nil {
			return Nomination{}, err
		}
		if !deadline.IsZero() && time.Now().UTC().After(deadline) {
			return Nomination{}, cycle.ErrDeadlinePassed
		}
	}
	graph, err := s.graphs.Snapshot(ctx)
	if err != nil {
		return Nomination{}, fmt.Errorf("load organization graph: %w", err)
	}

	relationship, err := org.Classify(graph, requesterID, candidate)
	if err != nil {
		return Nomination{}, err
	}
	requester, _ := graph.Employee(requesterID)

	existing, err := s.store.ListByRequester(ctx, current.ID, requesterID)
	if err != nil {
		return Nomination{}, err
	}
	load, err := s.store.ReviewerLoad(ctx, current.ID, candidateKey(candidate), s.cfg.ReviewerLoadAcrossCycles)
	if err != nil {
		return Nomination{}, err
	}

	if err := CheckEligibility(s.cfg, EligibilityInput{
		Requester:    requester,
		Candidate:    candidate,
		Relationship: relationship,
		Cycle:        current,
		Existing:     existing,
		ReviewerLoad: load,
	}); err != nil {
		return Nomination{}, err
	}

	n := Nomination{
		ID:            uuid.NewString(),
		CycleID:       current.ID,
		RequesterID:   requesterID,
		ReviewerID:    candidate.EmployeeID,
		ExternalEmail: candidate.ExternalEmail,
		Relationship:  relationship,
		Approval:      ApprovalPending,
		Completion:    CompletionNotStarted,
		CreatedAt:     time.Now().UTC(),
		Version:       1,
	}
	created, err := s.store.CreateNomination(ctx, n, s.cfg)
	if err != nil {
		return Nomination{}, err
	}
	slog.Info("nomination created",
		"nomination", created.ID,
		"cycle", created.CycleID,
		"requester", created.RequesterID,
		"relationship", created.Relationship)
	return created, nil
}

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Decide applies a manager's approve/reject decision. Authority is
// structural: the actor must be the requester's direct manager in the
// current graph, not merely hold a manager role. At most one decision can
// win; the loser of a concurrent race observes ErrConcurrentModification.
func (s *Service) Decide(ctx context.Context, nominationID, actorID, decision, reason string) (Nomination, error) {
	n, err := s.store.GetNomination(ctx, nominationID)
	if err != nil {
		return Nomination{}, err
	}
	c, err := s.cycles.Get(ctx, n.CycleID)
	if err != nil {
		return Nomination{}, err
	}
	if err := cycle.Gate(c.Phase, cycle.OpDecideNomination); err != nil {
		return Nomination{}, err
	}

	graph, err := s.graphs.Snapshot(ctx)
	if err != nil {
		return Nomination{}, fmt.Errorf("load organization graph: %w", err)
	}
	if !graph.IsDirectManager(actorID, n.RequesterID) {
		return Nomination{}, ErrNotAuthorized
	}

	now := time.Now().UTC()
	switch decision {
	case DecisionApprove:
		err = n.Approve(s.cfg, actorID, now)
	case DecisionReject:
		err = n.Reject(actorID, reason, now)
	default:
		return Nomination{}, fmt.Errorf("unknown decision %q", decision)
	}
	if err != nil {
		return Nomination{}, err
	}

	updated, err := s.store.UpdateNomination(ctx, n)
	if err != nil {
		return Nomination{}, err
	}
	slog.Info("nomination decided",
		"nomination", updated.ID,
		"decision", decision,
		"manager", actorID)
	return updated, nil
}
