package summary

import (
	"time"

	"feedback360/internal/domain/cycle"
)

// EmployeeSummary is one requester's nomination panel for a cycle.
type EmployeeSummary struct {
	EmployeeID      string `json:"employeeId"`
	CycleID         string `json:"cycleId"`
	Pending         int    `json:"pending"`
	Approved        int    `json:"approved"`
	Rejected        int    `json:"rejected"`
	SlotsUsed       int    `json:"slotsUsed"`
	SlotsFree       int    `json:"slotsFree"`
	FeedbackDone    int    `json:"feedbackDone"`
	FeedbackAwaited int    `json:"feedbackAwaited"`
}

// CycleMetrics is the cycle-wide progress view for HR dashboards.
// NominationRate is the share of active employees with at least one
// nomination, ApprovalRate the share of decided nominations that were
// approved, CompletionRate the share of approved nominations with
// submitted feedback.
type CycleMetrics struct {
	CycleID         string         `json:"cycleId"`
	Phase           cycle.Phase    `json:"phase"`
	Nominations     int            `json:"nominations"`
	Requesters      int            `json:"requesters"`
	ActiveEmployees int            `json:"activeEmployees"`
	Pending         int            `json:"pending"`
	Approved        int            `json:"approved"`
	Rejected        int            `json:"rejected"`
	NotStarted      int            `json:"notStarted"`
	InProgress      int            `json:"inProgress"`
	Completed       int            `json:"completed"`
	NominationRate  float64        `json:"nominationRate"`
	ApprovalRate    float64        `json:"approvalRate"`
	CompletionRate  float64        `json:"completionRate"`
	ByRelationship  map[string]int `json:"byRelationship"`
}

// RejectionRecord feeds HR's rejection monitoring list.
type RejectionRecord struct {
	NominationID string    `json:"nominationId"`
	RequesterID  string    `json:"requesterId"`
	ReviewerKey  string    `json:"reviewerKey"`
	Reason       string    `json:"reason"`
	DecidedBy    string    `json:"decidedBy"`
	DecidedAt    time.Time `json:"decidedAt"`
}

// IntegrityWarning flags a record whose stored state contradicts the
// state machine. These are surfaced, never silently repaired.
type IntegrityWarning struct {
	NominationID string `json:"nominationId"`
	Problem      string `json:"problem"`
}
