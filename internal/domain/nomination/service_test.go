package nomination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/org"
)

type fakeGraphs struct {
	graph *org.Graph
}

func (f fakeGraphs) Snapshot(context.Context) (*org.Graph, error) {
	return f.graph, nil
}

type fakeCycles struct {
	cycle cycle.Cycle
	// extensions is keyed by employeeID+"/"+kind.
	extensions map[string]time.Time
}

func (f fakeCycles) Get(_ context.Context, id string) (cycle.Cycle, error) {
	if id != f.cycle.ID {
		return cycle.Cycle{}, cycle.ErrCycleNotFound
	}
	return f.cycle, nil
}

func (f fakeCycles) Active(context.Context) (cycle.Cycle, error) {
	return f.cycle, nil
}

func (f fakeCycles) DeadlineFor(_ context.Context, c cycle.Cycle, employeeID, kind string) (time.Time, error) {
	base := c.NominationDeadline
	if kind == cycle.DeadlineFeedback {
		base = c.FeedbackDeadline
	}
	if ext, ok := f.extensions[employeeID+"/"+kind]; ok && ext.After(base) {
		return ext, nil
	}
	return base, nil
}

func testServiceWith(c cycle.Cycle, extensions map[string]time.Time) (*Service, *memStore) {
	employees := []org.Employee{
		{ID: "mgr", Email: "mgr@example.com", Team: "platform", Level: 4, Active: true},
		{ID: "req", Email: "req@example.com", Team: "platform", Level: 2, ManagerID: "mgr", Active: true},
	}
	for i := 1; i <= 8; i++ {
		employees = append(employees, org.Employee{
			ID:        fmt.Sprintf("rev%d", i),
			Email:     fmt.Sprintf("rev%d@example.com", i),
			Team:      "platform",
			Level:     2,
			ManagerID: "mgr",
			Active:    true,
		})
	}
	store := newMemStore()
	svc := NewService(DefaultConfig(), store, fakeGraphs{graph: org.NewGraph(employees)}, fakeCycles{cycle: c, extensions: extensions})
	return svc, store
}

func testService(phase cycle.Phase) (*Service, *memStore) {
	return testServiceWith(cycle.Cycle{
		ID:              "c1",
		Phase:           phase,
		NominationStart: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}, nil)
}

func TestCreatePeerNomination(t *testing.T) {
	svc, _ := testService(cycle.PhaseNomination)

	n, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n.Relationship != org.RelationshipPeer {
		t.Fatalf("expected peer relationship, got %s", n.Relationship)
	}
	if n.Approval != ApprovalPending || n.Completion != CompletionNotStarted {
		t.Fatalf("unexpected initial state: %+v", n)
	}
}

func TestCreateRejectsOwnManager(t *testing.T) {
	svc, store := testService(cycle.PhaseNomination)

	_, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: "mgr"})
	if !errors.Is(err, ErrManagerNomination) {
		t.Fatalf("expected ErrManagerNomination, got %v", err)
	}
	if len(store.byID) != 0 {
		t.Fatal("failed validation must create nothing")
	}
}

func TestCreateCapacityExceeded(t *testing.T) {
	svc, _ := testService(cycle.PhaseNomination)

	for i := 1; i <= 4; i++ {
		if _, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: fmt.Sprintf("rev%d", i)}); err != nil {
			t.Fatalf("nomination %d failed: %v", i, err)
		}
	}
	if _, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: "rev5"}); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded on fifth nomination, got %v", err)
	}
}

func TestCreateAfterNominationDeadline(t *testing.T) {
	svc, store := testServiceWith(cycle.Cycle{
		ID:                 "c1",
		Phase:              cycle.PhaseNomination,
		NominationStart:    time.Now().UTC().Add(-48 * time.Hour),
		NominationDeadline: time.Now().UTC().Add(-time.Hour),
	}, nil)

	_, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: "rev1"})
	if !errors.Is(err, cycle.ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed, got %v", err)
	}
	if len(store.byID) != 0 {
		t.Fatal("expired deadline must create nothing")
	}
}

func TestCreateWithDeadlineExtension(t *testing.T) {
	svc, _ := testServiceWith(cycle.Cycle{
		ID:                 "c1",
		Phase:              cycle.PhaseNomination,
		NominationStart:    time.Now().UTC().Add(-48 * time.Hour),
		NominationDeadline: time.Now().UTC().Add(-time.Hour),
	}, map[string]time.Time{
		"req/" + cycle.DeadlineNomination: time.Now().UTC().Add(24 * time.Hour),
	})

	if _, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: "rev1"}); err != nil {
		t.Fatalf("extended deadline must permit creation, got %v", err)
	}
}

func TestReplacementNotBlockedByNominationDeadline(t *testing.T) {
	collectionStart := time.Now().UTC().Add(-2 * time.Hour)
	svc, store := testServiceWith(cycle.Cycle{
		ID:                 "c1",
		Phase:              cycle.PhaseCollection,
		NominationStart:    time.Now().UTC().Add(-96 * time.Hour),
		CollectionStart:    collectionStart,
		NominationDeadline: time.Now().UTC().Add(-72 * time.Hour),
	}, nil)

	store.byID["old"] = Nomination{
		ID:              "old",
		CycleID:         "c1",
		RequesterID:     "req",
		ReviewerID:      "rev1",
		Relationship:    org.RelationshipPeer,
		Approval:        ApprovalRejected,
		Completion:      CompletionNotStarted,
		RejectionReason: "conflict",
		CreatedAt:       collectionStart.Add(-time.Hour),
		Version:         2,
	}

	if _, err := svc.Create(context.Background(), "req", org.Candidate{EmployeeID: "rev2"}); err != nil {
		t.Fatalf("collection-phase replacement must ignore the nomination deadline, got %v", err)
	}
}

func TestRejectionFreesSlotAndKeepsRecord(t *testing.T) {
	svc, _ := testService(cycle.PhaseApproval)
	ctx := context.Background()

	first, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rejected, err := svc.Decide(ctx, first.ID, "mgr", DecisionReject, "overloaded")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Approval != ApprovalRejected || rejected.RejectionReason != "overloaded" {
		t.Fatalf("unexpected rejected state: %+v", rejected)
	}

	replacement, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev2"})
	if err != nil {
		t.Fatalf("replacement create failed: %v", err)
	}
	if replacement.Approval != ApprovalPending {
		t.Fatalf("expected pending replacement, got %s", replacement.Approval)
	}

	// The rejected record is untouched.
	kept, err := svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kept.Approval != ApprovalRejected || kept.RejectionReason != "overloaded" {
		t.Fatalf("rejected record changed: %+v", kept)
	}

	all, err := svc.ListForRequester(ctx, "c1", "req")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	active := 0
	for _, n := range all {
		if n.Active() {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected 1 active nomination after rejection+replacement, got %d", active)
	}
}

func TestRenominateSameReviewerAfterRejection(t *testing.T) {
	svc, _ := testService(cycle.PhaseApproval)
	ctx := context.Background()

	first, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Decide(ctx, first.ID, "mgr", DecisionReject, "timing"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	second, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("expected re-nomination of rejected reviewer to pass, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("re-nomination must be a new record")
	}
}

func TestDecideRequiresDirectManager(t *testing.T) {
	svc, _ := testService(cycle.PhaseApproval)
	ctx := context.Background()

	n, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// rev2 holds no authority over req even though they manage others.
	if _, err := svc.Decide(ctx, n.ID, "rev2", DecisionApprove, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestDecidePhaseGate(t *testing.T) {
	svc, store := testService(cycle.PhaseNomination)
	ctx := context.Background()

	n, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Decide(ctx, n.ID, "mgr", DecisionApprove, "")
	if !cycle.IsPhaseViolation(err) {
		t.Fatalf("expected phase violation in nomination phase, got %v", err)
	}
	kept, _ := store.GetNomination(ctx, n.ID)
	if kept.Approval != ApprovalPending {
		t.Fatalf("phase violation must not mutate, got %s", kept.Approval)
	}
}

func TestConcurrentDecisionsSingleWinner(t *testing.T) {
	svc, store := testService(cycle.PhaseApproval)
	ctx := context.Background()

	n, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: "rev1"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Two writers hold the same stale read and race the version guard.
	stale1, _ := store.GetNomination(ctx, n.ID)
	stale2, _ := store.GetNomination(ctx, n.ID)
	if err := stale1.Approve(DefaultConfig(), "mgr", time.Now()); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := stale2.Reject("mgr", "conflict", time.Now()); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if _, err := store.UpdateNomination(ctx, stale1); err != nil {
		t.Fatalf("first write should win: %v", err)
	}
	if _, err := store.UpdateNomination(ctx, stale2); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification for losing writer, got %v", err)
	}

	final, _ := store.GetNomination(ctx, n.ID)
	if final.Approval != ApprovalApproved {
		t.Fatalf("losing writer must not overwrite, got %s", final.Approval)
	}
}

func TestConcurrentCreatesRespectCapacity(t *testing.T) {
	svc, _ := testService(cycle.PhaseNomination)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: fmt.Sprintf("rev%d", i)})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrCapacityExceeded) {
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}
	if succeeded != 4 {
		t.Fatalf("expected exactly 4 creations to win, got %d", succeeded)
	}

	all, err := svc.ListForRequester(ctx, "c1", "req")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	active := 0
	for _, n := range all {
		if n.Active() {
			active++
		}
	}
	if active != 4 {
		t.Fatalf("capacity invariant violated: %d active", active)
	}
}

func TestConcurrentCreatesRespectReviewerLoad(t *testing.T) {
	svc, store := testService(cycle.PhaseNomination)
	ctx := context.Background()
	maxLoad := svc.Config().MaxReviewerLoad

	// Eight requesters race to nominate the same reviewer.
	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, fmt.Sprintf("rev%d", i), org.Candidate{EmployeeID: "req"})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrReviewerOverloaded) {
			t.Fatalf("unexpected error from concurrent create: %v", err)
		}
	}
	if succeeded != maxLoad {
		t.Fatalf("expected exactly %d creations to win, got %d", maxLoad, succeeded)
	}

	load, err := store.ReviewerLoad(ctx, "c1", "req", false)
	if err != nil {
		t.Fatalf("load count failed: %v", err)
	}
	if load != maxLoad {
		t.Fatalf("reviewer load invariant violated: %d active", load)
	}
}
