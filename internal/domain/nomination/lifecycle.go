package nomination

import (
	"strings"
	"time"
)

// The lifecycle transitions mutate the record in memory only; callers
// persist the result through a version-guarded store write.

// Approve moves pending -> approved. Rejected is terminal unless policy
// allows re-approval.
func (n *Nomination) Approve(cfg Config, managerID string, now time.Time) error {
	switch n.Approval {
	case ApprovalPending:
	case ApprovalRejected:
		if !cfg.AllowReapproval {
			return ErrAlreadyDecided
		}
		n.RejectionReason = ""
	default:
		return ErrAlreadyDecided
	}
	n.Approval = ApprovalApproved
	n.DecidedBy = managerID
	n.DecidedAt = now
	return nil
}

// Reject moves pending -> rejected. A non-empty reason is required; the
// record is retained for audit and drops out of the active capacity count.
func (n *Nomination) Reject(managerID, reason string, now time.Time) error {
	if n.Approval != ApprovalPending {
		return ErrAlreadyDecided
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}
	n.Approval = ApprovalRejected
	n.RejectionReason = reason
	n.DecidedBy = managerID
	n.DecidedAt = now
	return nil
}

// StartDraft moves completion not_started -> in_progress on the reviewer's
// first draft save. Saving further drafts while in progress is fine.
func (n *Nomination) StartDraft() error {
	if n.Approval != ApprovalApproved {
		return ErrNotApproved
	}
	switch n.Completion {
	case CompletionNotStarted:
		n.Completion = CompletionInProgress
	case CompletionInProgress:
	case CompletionCompleted:
		return ErrAlreadyCompleted
	}
	return nil
}

// Complete moves the completion axis to its terminal state on final
// submission.
func (n *Nomination) Complete(now time.Time) error {
	if n.Approval != ApprovalApproved {
		return ErrNotApproved
	}
	if n.Completion == CompletionCompleted {
		return ErrAlreadyCompleted
	}
	n.Completion = CompletionCompleted
	n.CompletedAt = now
	return nil
}
