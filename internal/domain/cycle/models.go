package cycle

import "time"

type Cycle struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	DisplayName        string    `json:"displayName"`
	Year               int       `json:"year"`
	Quarter            string    `json:"quarter"`
	Phase              Phase     `json:"phase"`
	NominationStart    time.Time `json:"nominationStart"`
	ApprovalStart      time.Time `json:"approvalStart,omitzero"`
	CollectionStart    time.Time `json:"collectionStart,omitzero"`
	ResultsStart       time.Time `json:"resultsStart,omitzero"`
	ClosedAt           time.Time `json:"closedAt,omitzero"`
	NominationDeadline time.Time `json:"nominationDeadline"`
	FeedbackDeadline   time.Time `json:"feedbackDeadline"`
	CreatedBy          string    `json:"createdBy"`
	CreatedAt          time.Time `json:"createdAt"`
	Version            int       `json:"-"`
}

// PhaseStart returns when the cycle entered the given phase, or false when
// it has not reached that phase yet.
func (c Cycle) PhaseStart(p Phase) (time.Time, bool) {
	var ts time.Time
	switch p {
	case PhaseNomination:
		ts = c.NominationStart
	case PhaseApproval:
		ts = c.ApprovalStart
	case PhaseCollection:
		ts = c.CollectionStart
	case PhaseResults:
		ts = c.ResultsStart
	case PhaseClosed:
		ts = c.ClosedAt
	}
	return ts, !ts.IsZero()
}

// DeadlineExtension records HR granting one employee extra time beyond a
// cycle-wide deadline.
type DeadlineExtension struct {
	ID          string    `json:"id"`
	CycleID     string    `json:"cycleId"`
	EmployeeID  string    `json:"employeeId"`
	Kind        string    `json:"kind"` // "nomination" or "feedback"
	NewDeadline time.Time `json:"newDeadline"`
	Reason      string    `json:"reason"`
	ExtendedBy  string    `json:"extendedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	DeadlineNomination = "nomination"
	DeadlineFeedback   = "feedback"
)
