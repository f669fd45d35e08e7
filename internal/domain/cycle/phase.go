package cycle

import (
	"errors"
	"fmt"
	"strings"
)

// Phase is the cycle lifecycle stage. Phases only ever advance forward.
type Phase string

const (
	PhaseNomination Phase = "nomination"
	PhaseApproval   Phase = "approval"
	PhaseCollection Phase = "collection"
	PhaseResults    Phase = "results"
	PhaseClosed     Phase = "closed"
)

var phaseOrder = map[Phase]int{
	PhaseNomination: 0,
	PhaseApproval:   1,
	PhaseCollection: 2,
	PhaseResults:    3,
	PhaseClosed:     4,
}

func (p Phase) Valid() bool {
	_, ok := phaseOrder[p]
	return ok
}

// Next returns the phase that follows p, or false when p is terminal.
func (p Phase) Next() (Phase, bool) {
	switch p {
	case PhaseNomination:
		return PhaseApproval, true
	case PhaseApproval:
		return PhaseCollection, true
	case PhaseCollection:
		return PhaseResults, true
	case PhaseResults:
		return PhaseClosed, true
	}
	return "", false
}

func (p Phase) Before(q Phase) bool {
	return phaseOrder[p] < phaseOrder[q]
}

// Operation is a gated engine action. Every state-changing component asks
// the gate before acting instead of re-implementing phase logic.
type Operation string

const (
	OpCreateNomination Operation = "create_nomination"
	OpDecideNomination Operation = "decide_nomination"
	OpSubmitFeedback   Operation = "submit_feedback"
	OpReadAggregates   Operation = "read_aggregates"
)

// permittedPhases is the authoritative operation matrix. Nomination creation
// during collection is additionally restricted to rejection replacements by
// the eligibility validator.
var permittedPhases = map[Operation][]Phase{
	OpCreateNomination: {PhaseNomination, PhaseApproval, PhaseCollection},
	OpDecideNomination: {PhaseApproval, PhaseCollection},
	OpSubmitFeedback:   {PhaseCollection},
	OpReadAggregates:   {PhaseNomination, PhaseApproval, PhaseCollection, PhaseResults, PhaseClosed},
}

// PhaseError reports an operation attempted outside its permitted phases.
type PhaseError struct {
	Op      Operation
	Current Phase
	Allowed []Phase
	Reason  string
}

func (e *PhaseError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, p := range e.Allowed {
		names[i] = string(p)
	}
	msg := fmt.Sprintf("operation %s not permitted in phase %s (allowed: %s)", e.Op, e.Current, strings.Join(names, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func Permits(current Phase, op Operation) bool {
	for _, p := range permittedPhases[op] {
		if p == current {
			return true
		}
	}
	return false
}

// Gate returns nil when op is legal in the current phase, otherwise a
// *PhaseError naming the phases that would permit it.
func Gate(current Phase, op Operation) error {
	if Permits(current, op) {
		return nil
	}
	return &PhaseError{Op: op, Current: current, Allowed: permittedPhases[op]}
}

func IsPhaseViolation(err error) bool {
	var pe *PhaseError
	return errors.As(err, &pe)
}
