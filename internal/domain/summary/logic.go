package summary

import (
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/nomination"
)

func buildEmployeeSummary(cycleID, employeeID string, maxSlots int, noms []nomination.Nomination) EmployeeSummary {
	summary := EmployeeSummary{EmployeeID: employeeID, CycleID: cycleID}
	for _, n := range noms {
		switch n.Approval {
		case nomination.ApprovalPending:
			summary.Pending++
		case nomination.ApprovalApproved:
			summary.Approved++
			if n.Completion == nomination.CompletionCompleted {
				summary.FeedbackDone++
			} else {
				summary.FeedbackAwaited++
			}
		case nomination.ApprovalRejected:
			summary.Rejected++
		}
	}
	summary.SlotsUsed = summary.Pending + summary.Approved
	summary.SlotsFree = maxSlots - summary.SlotsUsed
	if summary.SlotsFree < 0 {
		summary.SlotsFree = 0
	}
	return summary
}

func buildCycleMetrics(c cycle.Cycle, noms []nomination.Nomination, activeEmployees int) CycleMetrics {
	metrics := CycleMetrics{
		CycleID:         c.ID,
		Phase:           c.Phase,
		Nominations:     len(noms),
		ActiveEmployees: activeEmployees,
		ByRelationship:  map[string]int{},
	}
	requesters := map[string]bool{}
	for _, n := range noms {
		requesters[n.RequesterID] = true
		metrics.ByRelationship[string(n.Relationship)]++
		switch n.Approval {
		case nomination.ApprovalPending:
			metrics.Pending++
		case nomination.ApprovalApproved:
			metrics.Approved++
		case nomination.ApprovalRejected:
			metrics.Rejected++
		}
		if n.Approval != nomination.ApprovalApproved {
			continue
		}
		switch n.Completion {
		case nomination.CompletionNotStarted:
			metrics.NotStarted++
		case nomination.CompletionInProgress:
			metrics.InProgress++
		case nomination.CompletionCompleted:
			metrics.Completed++
		}
	}
	metrics.Requesters = len(requesters)
	if activeEmployees > 0 {
		metrics.NominationRate = float64(metrics.Requesters) / float64(activeEmployees)
	}
	if decided := metrics.Approved + metrics.Rejected; decided > 0 {
		metrics.ApprovalRate = float64(metrics.Approved) / float64(decided)
	}
	if metrics.Approved > 0 {
		metrics.CompletionRate = float64(metrics.Completed) / float64(metrics.Approved)
	}
	return metrics
}

// integrityWarnings cross-checks nomination state against the set of
// submitted responses. submitted is keyed by nomination ID.
func integrityWarnings(noms []nomination.Nomination, submitted map[string]bool) []IntegrityWarning {
	var warnings []IntegrityWarning
	flag := func(id, problem string) {
		warnings = append(warnings, IntegrityWarning{NominationID: id, Problem: problem})
	}
	for _, n := range noms {
		completed := n.Completion == nomination.CompletionCompleted
		if completed && n.Approval != nomination.ApprovalApproved {
			flag(n.ID, "completed without approval")
		}
		if completed && !submitted[n.ID] {
			flag(n.ID, "marked completed but no response stored")
		}
		if !completed && submitted[n.ID] {
			flag(n.ID, "response stored but nomination not completed")
		}
		if n.Approval == nomination.ApprovalRejected && n.RejectionReason == "" {
			flag(n.ID, "rejected without a reason")
		}
	}
	return warnings
}
