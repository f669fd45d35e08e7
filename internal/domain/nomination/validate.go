package nomination

import (
	"feedback360/internal/domain/cycle"
	"feedback360/internal/domain/org"
)

// EligibilityInput is everything the validator needs, read once up front so
// that validation is a pure decision over a consistent view.
type EligibilityInput struct {
	Requester    org.Employee
	Candidate    org.Candidate
	Relationship org.Relationship
	Cycle        cycle.Cycle
	// Existing holds all of the requester's nominations for the cycle,
	// rejected ones included.
	Existing []Nomination
	// ReviewerLoad is the candidate's incoming active nomination count.
	ReviewerLoad int
}

// CheckEligibility runs the creation rules in order and fails fast with the
// first violation:
//
//  1. phase gate (replacements only during collection)
//  2. no nominating the direct manager
//  3. no duplicate active/decided pair; a rejected pair may be retried
//  4. requester capacity
//  5. reviewer load
//  6. external permission by org level
func CheckEligibility(cfg Config, in EligibilityInput) error {
	if err := checkPhase(in); err != nil {
		return err
	}
	if in.Relationship == org.RelationshipManager {
		return ErrManagerNomination
	}

	active := 0
	rejected := 0
	key := candidateKey(in.Candidate)
	for _, n := range in.Existing {
		if n.Active() {
			active++
			if n.ReviewerKey() == key {
				return ErrDuplicateNomination
			}
		} else {
			rejected++
		}
	}
	if active >= cfg.MaxActivePerRequester {
		return ErrCapacityExceeded
	}
	if in.ReviewerLoad >= cfg.MaxReviewerLoad {
		return ErrReviewerOverloaded
	}
	if in.Relationship == org.RelationshipExternal && in.Requester.Level < cfg.ExternalMinLevel {
		return ErrExternalNotPermitted
	}
	return nil
}

func checkPhase(in EligibilityInput) error {
	if err := cycle.Gate(in.Cycle.Phase, cycle.OpCreateNomination); err != nil {
		return err
	}
	if in.Cycle.Phase != cycle.PhaseCollection {
		return nil
	}

	// During collection only replacements for rejections are allowed: the
	// number of nominations created since the phase began must stay below
	// the number of rejected ones.
	collectionStart, _ := in.Cycle.PhaseStart(cycle.PhaseCollection)
	createdInCollection := 0
	rejected := 0
	for _, n := range in.Existing {
		if n.Approval == ApprovalRejected {
			rejected++
		}
		if !n.CreatedAt.Before(collectionStart) {
			createdInCollection++
		}
	}
	if createdInCollection >= rejected {
		return &cycle.PhaseError{
			Op:      cycle.OpCreateNomination,
			Current: cycle.PhaseCollection,
			Allowed: []cycle.Phase{cycle.PhaseNomination, cycle.PhaseApproval},
			Reason:  "collection phase only permits replacing rejected nominations",
		}
	}
	return nil
}
