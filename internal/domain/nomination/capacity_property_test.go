package nomination

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/org"
)

// TestCapacityInvariantUnderRandomOperations drives the service with random
// interleavings of create/approve/reject and checks that a requester's
// active nomination count never exceeds the capacity limit at any observed
// point.
func TestCapacityInvariantUnderRandomOperations(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc, _ := testService(cycle.PhaseApproval)
		ctx := context.Background()
		cfg := svc.Config()

		var created []string
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				reviewer := fmt.Sprintf("rev%d", rapid.IntRange(1, 8).Draw(rt, "reviewer"))
				n, err := svc.Create(ctx, "req", org.Candidate{EmployeeID: reviewer})
				if err == nil {
					created = append(created, n.ID)
				}
			case 1:
				if len(created) == 0 {
					continue
				}
				id := created[rapid.IntRange(0, len(created)-1).Draw(rt, "approve_idx")]
				_, _ = svc.Decide(ctx, id, "mgr", DecisionApprove, "")
			case 2:
				if len(created) == 0 {
					continue
				}
				id := created[rapid.IntRange(0, len(created)-1).Draw(rt, "reject_idx")]
				_, _ = svc.Decide(ctx, id, "mgr", DecisionReject, "capacity test")
			}

			all, err := svc.ListForRequester(ctx, "c1", "req")
			if err != nil {
				rt.Fatalf("list failed: %v", err)
			}
			active := 0
			for _, n := range all {
				if n.Active() {
					active++
				}
				if n.Approval == ApprovalRejected && n.RejectionReason == "" {
					rt.Fatalf("rejected nomination %s lost its reason", n.ID)
				}
			}
			if active > cfg.MaxActivePerRequester {
				rt.Fatalf("capacity invariant violated after step %d: %d active", i, active)
			}
		}
	})
}
