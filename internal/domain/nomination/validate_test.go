package nomination

import (
	"errors"
	"testing"
	"time"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/org"
)

func eligibilityInput(phase cycle.Phase) EligibilityInput {
	return EligibilityInput{
		Requester:    org.Employee{ID: "req", Team: "platform", Level: 2, Active: true},
		Candidate:    org.Candidate{EmployeeID: "peer"},
		Relationship: org.RelationshipPeer,
		Cycle:        cycle.Cycle{ID: "c1", Phase: phase, CollectionStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func activeNomination(reviewer string, created time.Time) Nomination {
	return Nomination{
		CycleID:     "c1",
		RequesterID: "req",
		ReviewerID:  reviewer,
		Approval:    ApprovalPending,
		Completion:  CompletionNotStarted,
		CreatedAt:   created,
	}
}

func TestEligibilityAllowsValidNomination(t *testing.T) {
	if err := CheckEligibility(DefaultConfig(), eligibilityInput(cycle.PhaseNomination)); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestEligibilityPhaseGateFirst(t *testing.T) {
	in := eligibilityInput(cycle.PhaseResults)
	// Even with a manager candidate, the phase rule fires first.
	in.Relationship = org.RelationshipManager
	err := CheckEligibility(DefaultConfig(), in)
	if !cycle.IsPhaseViolation(err) {
		t.Fatalf("expected phase violation, got %v", err)
	}
}

func TestEligibilityRejectsManager(t *testing.T) {
	in := eligibilityInput(cycle.PhaseNomination)
	in.Relationship = org.RelationshipManager
	if err := CheckEligibility(DefaultConfig(), in); !errors.Is(err, ErrManagerNomination) {
		t.Fatalf("expected ErrManagerNomination, got %v", err)
	}
}

func TestEligibilityRejectsDuplicate(t *testing.T) {
	in := eligibilityInput(cycle.PhaseNomination)
	in.Existing = []Nomination{activeNomination("peer", time.Now())}
	if err := CheckEligibility(DefaultConfig(), in); !errors.Is(err, ErrDuplicateNomination) {
		t.Fatalf("expected ErrDuplicateNomination, got %v", err)
	}
}

func TestEligibilityRejectedPairMayBeRetried(t *testing.T) {
	in := eligibilityInput(cycle.PhaseNomination)
	prior := activeNomination("peer", time.Now())
	prior.Approval = ApprovalRejected
	prior.RejectionReason = "overloaded"
	in.Existing = []Nomination{prior}
	if err := CheckEligibility(DefaultConfig(), in); err != nil {
		t.Fatalf("rejected pair should not block re-nomination, got %v", err)
	}
}

func TestEligibilityCapacity(t *testing.T) {
	in := eligibilityInput(cycle.PhaseNomination)
	now := time.Now()
	for i, reviewer := range []string{"r1", "r2", "r3", "r4"} {
		in.Existing = append(in.Existing, activeNomination(reviewer, now.Add(time.Duration(i)*time.Minute)))
	}
	if err := CheckEligibility(DefaultConfig(), in); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	// A rejection frees the slot.
	in.Existing[0].Approval = ApprovalRejected
	in.Existing[0].RejectionReason = "conflict"
	if err := CheckEligibility(DefaultConfig(), in); err != nil {
		t.Fatalf("expected slot after rejection, got %v", err)
	}
}

func TestEligibilityReviewerLoad(t *testing.T) {
	in := eligibilityInput(cycle.PhaseNomination)
	in.ReviewerLoad = DefaultConfig().MaxReviewerLoad
	if err := CheckEligibility(DefaultConfig(), in); !errors.Is(err, ErrReviewerOverloaded) {
		t.Fatalf("expected ErrReviewerOverloaded, got %v", err)
	}
}

func TestEligibilityExternalLevel(t *testing.T) {
	in := eligibilityInput(cycle.PhaseNomination)
	in.Candidate = org.Candidate{ExternalEmail: "partner@client.com"}
	in.Relationship = org.RelationshipExternal

	if err := CheckEligibility(DefaultConfig(), in); !errors.Is(err, ErrExternalNotPermitted) {
		t.Fatalf("expected ErrExternalNotPermitted for level 2, got %v", err)
	}

	in.Requester.Level = 3
	if err := CheckEligibility(DefaultConfig(), in); err != nil {
		t.Fatalf("expected success at manager level, got %v", err)
	}
}

func TestEligibilityCollectionReplacementsOnly(t *testing.T) {
	in := eligibilityInput(cycle.PhaseCollection)
	before := in.Cycle.CollectionStart.Add(-24 * time.Hour)

	// No rejections yet: creation is a phase violation.
	in.Existing = []Nomination{activeNomination("r1", before)}
	err := CheckEligibility(DefaultConfig(), in)
	if !cycle.IsPhaseViolation(err) {
		t.Fatalf("expected phase violation in collection without rejection, got %v", err)
	}

	// One rejection opens exactly one replacement slot.
	rejected := activeNomination("r2", before)
	rejected.Approval = ApprovalRejected
	rejected.RejectionReason = "left the company"
	in.Existing = append(in.Existing, rejected)
	if err := CheckEligibility(DefaultConfig(), in); err != nil {
		t.Fatalf("expected replacement to be allowed, got %v", err)
	}

	// Once the replacement is used, the next creation is gated again.
	in.Existing = append(in.Existing, activeNomination("r3", in.Cycle.CollectionStart.Add(time.Hour)))
	if err := CheckEligibility(DefaultConfig(), in); !cycle.IsPhaseViolation(err) {
		t.Fatalf("expected phase violation after replacement used, got %v", err)
	}
}
