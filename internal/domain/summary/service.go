package summary

import (
	"context"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/nomination"
)

type CycleProvider interface {
	Get(ctx context.Context, id string) (cycle.Cycle, error)
}

type Service struct {
	store  StoreAPI
	cycles CycleProvider
	cfg    nomination.Config
}

func NewService(store StoreAPI, cycles CycleProvider, cfg nomination.Config) *Service {
	return &Service{store: store, cycles: cycles, cfg: cfg}
}

func (s *Service) EmployeeSummary(ctx context.Context, cycleID, employeeID string) (EmployeeSummary, error) {
	noms, err := s.store.RequesterNominations(ctx, cycleID, employeeID)
	if err != nil {
		return EmployeeSummary{}, err
	}
	return buildEmployeeSummary(cycleID, employeeID, s.cfg.MaxActivePerRequester, noms), nil
}

func (s *Service) CycleMetrics(ctx context.Context, cycleID string) (CycleMetrics, error) {
	c, err := s.cycles.Get(ctx, cycleID)
	if err != nil {
		return CycleMetrics{}, err
	}
	noms, err := s.store.CycleNominations(ctx, cycleID)
	if err != nil {
		return CycleMetrics{}, err
	}
	headcount, err := s.store.ActiveEmployeeCount(ctx)
	if err != nil {
		return CycleMetrics{}, err
	}
	return buildCycleMetrics(c, noms, headcount), nil
}

// ApprovalQueue lists the manager's direct reports' pending nominations,
// oldest first.
func (s *Service) ApprovalQueue(ctx context.Context, cycleID, managerID string) ([]nomination.Nomination, error) {
	return s.store.PendingForManager(ctx, cycleID, managerID)
}

func (s *Service) RejectionLog(ctx context.Context, cycleID string) ([]RejectionRecord, error) {
	return s.store.Rejections(ctx, cycleID)
}

func (s *Service) Integrity(ctx context.Context, cycleID string) ([]IntegrityWarning, error) {
	noms, err := s.store.CycleNominations(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	submitted, err := s.store.SubmittedResponses(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return integrityWarnings(noms, submitted), nil
}
