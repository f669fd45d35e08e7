package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedback360/internal/domain/org"
)

var (
	ErrCycleNotFound  = errors.New("review cycle not found")
	ErrNoActiveCycle  = errors.New("no active review cycle")
	ErrCycleClosed    = errors.New("review cycle is closed")
	ErrPhaseRegressed = errors.New("cycle phase cannot move backwards")
	ErrStaleCycle     = errors.New("cycle was modified concurrently")
	// ErrDeadlinePassed means the actor's effective deadline, extensions
	// included, is behind the current time.
	ErrDeadlinePassed = errors.New("deadline has passed")
)

type StoreAPI interface {
	GetCycle(ctx context.Context, id string) (Cycle, error)
	ActiveCycle(ctx context.Context) (Cycle, error)
	ListCycles(ctx context.Context) ([]Cycle, error)
	CreateCycle(ctx context.Context, c Cycle, templates TemplateSet) (string, error)
	// AdvanceCycle writes the new phase only when the stored version still
	// matches c.Version, returning ErrStaleCycle otherwise.
	AdvanceCycle(ctx context.Context, c Cycle) (Cycle, error)
	Questions(ctx context.Context, cycleID string, rel org.Relationship) ([]Question, error)
	CreateExtension(ctx context.Context, ext DeadlineExtension) (string, error)
	ListExtensions(ctx context.Context, cycleID string) ([]DeadlineExtension, error)
	ExtendedDeadline(ctx context.Context, cycleID, employeeID, kind string) (time.Time, bool, error)
}

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id string) (Cycle, error) {
	return s.store.GetCycle(ctx, id)
}

func (s *Service) Active(ctx context.Context) (Cycle, error) {
	return s.store.ActiveCycle(ctx)
}

func (s *Service) List(ctx context.Context) ([]Cycle, error) {
	return s.store.ListCycles(ctx)
}

func (s *Service) Questions(ctx context.Context, cycleID string, rel org.Relationship) ([]Question, error) {
	return s.store.Questions(ctx, cycleID, rel)
}

// Create opens a new cycle in the nomination phase with its question
// templates frozen in.
func (s *Service) Create(ctx context.Context, c Cycle, templates TemplateSet, createdBy string) (Cycle, error) {
	if c.Name == "" {
		return Cycle{}, fmt.Errorf("cycle name is required")
	}
	if c.FeedbackDeadline.Before(c.NominationDeadline) {
		return Cycle{}, fmt.Errorf("feedback deadline precedes nomination deadline")
	}
	c.Phase = PhaseNomination
	if c.NominationStart.IsZero() {
		c.NominationStart = time.Now().UTC()
	}
	c.CreatedBy = createdBy
	id, err := s.store.CreateCycle(ctx, c, templates)
	if err != nil {
		return Cycle{}, err
	}
	return s.store.GetCycle(ctx, id)
}

// Advance moves the cycle to its next phase. Strictly forward-only: closed
// cycles stay closed and a concurrent advance by another HR actor loses with
// ErrStaleCycle.
func (s *Service) Advance(ctx context.Context, cycleID string, now time.Time) (Cycle, error) {
	c, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	next, ok := c.Phase.Next()
	if !ok {
		return Cycle{}, ErrCycleClosed
	}
	c.Phase = next
	switch next {
	case PhaseApproval:
		c.ApprovalStart = now
	case PhaseCollection:
		c.CollectionStart = now
	case PhaseResults:
		c.ResultsStart = now
	case PhaseClosed:
		c.ClosedAt = now
	}
	return s.store.AdvanceCycle(ctx, c)
}

// ExtendDeadline grants one employee extra time past a cycle deadline.
func (s *Service) ExtendDeadline(ctx context.Context, ext DeadlineExtension) (DeadlineExtension, error) {
	if ext.Kind != DeadlineNomination && ext.Kind != DeadlineFeedback {
		return DeadlineExtension{}, fmt.Errorf("unknown deadline kind %q", ext.Kind)
	}
	c, err := s.store.GetCycle(ctx, ext.CycleID)
	if err != nil {
		return DeadlineExtension{}, err
	}
	if c.Phase == PhaseClosed {
		return DeadlineExtension{}, ErrCycleClosed
	}
	id, err := s.store.CreateExtension(ctx, ext)
	if err != nil {
		return DeadlineExtension{}, err
	}
	ext.ID = id
	return ext, nil
}

func (s *Service) Extensions(ctx context.Context, cycleID string) ([]DeadlineExtension, error) {
	return s.store.ListExtensions(ctx, cycleID)
}

// DeadlineFor resolves the effective deadline for an employee, honouring any
// HR-granted extension.
func (s *Service) DeadlineFor(ctx context.Context, c Cycle, employeeID, kind string) (time.Time, error) {
	base := c.NominationDeadline
	if kind == DeadlineFeedback {
		base = c.FeedbackDeadline
	}
	extended, ok, err := s.store.ExtendedDeadline(ctx, c.ID, employeeID, kind)
	if err != nil {
		return time.Time{}, err
	}
	if ok && extended.After(base) {
		return extended, nil
	}
	return base, nil
}
