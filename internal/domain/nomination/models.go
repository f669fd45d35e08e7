package nomination

import (
	"strings"
	"time"

	"feedback360/internal/domain/org"
)

// ApprovalStatus is the manager-decision axis of a nomination.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// CompletionStatus is the reviewer-progress axis. It only moves once the
// approval axis has reached approved.
type CompletionStatus string

const (
	CompletionNotStarted CompletionStatus = "not_started"
	CompletionInProgress CompletionStatus = "in_progress"
	CompletionCompleted  CompletionStatus = "completed"
)

type Nomination struct {
	ID              string           `json:"id"`
	CycleID         string           `json:"cycleId"`
	RequesterID     string           `json:"requesterId"`
	ReviewerID      string           `json:"reviewerId,omitempty"`
	ExternalEmail   string           `json:"externalEmail,omitempty"`
	Relationship    org.Relationship `json:"relationship"`
	Approval        ApprovalStatus   `json:"approvalStatus"`
	Completion      CompletionStatus `json:"completionStatus"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	DecidedBy       string           `json:"decidedBy,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	DecidedAt       time.Time        `json:"decidedAt,omitzero"`
	CompletedAt     time.Time        `json:"completedAt,omitzero"`
	Version         int              `json:"-"`
}

// Active nominations count toward the requester's 4-slot capacity and the
// reviewer's load. Rejected nominations are retained but excluded.
func (n Nomination) Active() bool {
	return n.Approval == ApprovalPending || n.Approval == ApprovalApproved
}

// ReviewerKey identifies the reviewer side of the pair uniformly for
// internal and external reviewers.
func (n Nomination) ReviewerKey() string {
	if n.ReviewerID != "" {
		return n.ReviewerID
	}
	return strings.ToLower(strings.TrimSpace(n.ExternalEmail))
}

func candidateKey(c org.Candidate) string {
	if c.EmployeeID != "" {
		return c.EmployeeID
	}
	return strings.ToLower(strings.TrimSpace(c.ExternalEmail))
}

// Config carries the engine's policy knobs. Rejection reversal and
// reviewer-load scoping are policy, not hard-coded behavior.
type Config struct {
	// MaxActivePerRequester caps pending+approved nominations per requester
	// per cycle.
	MaxActivePerRequester int
	// MaxReviewerLoad caps a reviewer's incoming active nominations.
	MaxReviewerLoad int
	// ExternalMinLevel is the minimum org level allowed to nominate external
	// stakeholders.
	ExternalMinLevel int
	// ReviewerLoadAcrossCycles widens the reviewer-load count from the
	// current cycle to all cycles.
	ReviewerLoadAcrossCycles bool
	// AllowReapproval lets a manager approve a previously rejected
	// nomination instead of treating rejection as terminal.
	AllowReapproval bool
}

func DefaultConfig() Config {
	return Config{
		MaxActivePerRequester: 4,
		MaxReviewerLoad:       4,
		ExternalMinLevel:      3,
	}
}
