package org

import "fmt"

// ClassificationError means the candidate could not be resolved against the
// organization graph, so no relationship can be assigned.
type ClassificationError struct {
	Candidate string
	Reason    string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("cannot classify candidate %s: %s", e.Candidate, e.Reason)
}

// Classify derives the relationship between requester and candidate from the
// graph snapshot. Rule precedence, first match wins:
//
//  1. candidate is the requester's direct manager -> manager
//  2. candidate reports directly to the requester -> reportee
//  3. same team -> peer
//  4. different team, same organization -> internal
//  5. email-only candidate with no graph entry -> external
//
// Pure function of the snapshot; no side effects.
func Classify(g *Graph, requesterID string, candidate Candidate) (Relationship, error) {
	requester, ok := g.Employee(requesterID)
	if !ok || !requester.Active {
		return "", &ClassificationError{Candidate: requesterID, Reason: "requester not found in organization graph"}
	}

	if candidate.External() {
		if _, known := g.EmployeeByEmail(candidate.ExternalEmail); known {
			// Email belongs to an employee; the caller must nominate by id.
			return "", &ClassificationError{Candidate: candidate.ExternalEmail, Reason: "email belongs to an internal employee"}
		}
		return RelationshipExternal, nil
	}

	reviewer, ok := g.Employee(candidate.EmployeeID)
	if !ok {
		return "", &ClassificationError{Candidate: candidate.EmployeeID, Reason: "candidate not found in organization graph"}
	}
	if !reviewer.Active {
		return "", &ClassificationError{Candidate: candidate.EmployeeID, Reason: "candidate is deactivated"}
	}

	switch {
	case requester.ManagerID != "" && requester.ManagerID == reviewer.ID:
		return RelationshipManager, nil
	case reviewer.ManagerID != "" && reviewer.ManagerID == requester.ID:
		return RelationshipReportee, nil
	case requester.Team == reviewer.Team:
		return RelationshipPeer, nil
	default:
		return RelationshipInternal, nil
	}
}
