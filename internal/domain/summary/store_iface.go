package summary

import (
	"context"

	"feedback360/internal/domain/nomination"
)

type StoreAPI interface {
	CycleNominations(ctx context.Context, cycleID string) ([]nomination.Nomination, error)
	RequesterNominations(ctx context.Context, cycleID, requesterID string) ([]nomination.Nomination, error)
	SubmittedResponses(ctx context.Context, cycleID string) (map[string]bool, error)
	// ActiveEmployeeCount is the nomination-rate denominator.
	ActiveEmployeeCount(ctx context.Context) (int, error)
	PendingForManager(ctx context.Context, cycleID, managerID string) ([]nomination.Nomination, error)
	Rejections(ctx context.Context, cycleID string) ([]RejectionRecord, error)
}
