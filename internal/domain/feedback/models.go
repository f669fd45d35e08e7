package feedback

import "time"

// Answer is a reviewer's response to one question: free text, a 1-5 rating,
// or both depending on the question type.
type Answer struct {
	Value  string `json:"value,omitempty"`
	Rating *int   `json:"rating,omitempty"`
}

func (a Answer) Empty() bool {
	return a.Value == "" && a.Rating == nil
}

// Response is the finalized feedback for one nomination. One response per
// nomination; immutable once submitted.
type Response struct {
	ID           string            `json:"id"`
	NominationID string            `json:"nominationId"`
	Answers      map[string]Answer `json:"answers"`
	SubmittedAt  time.Time         `json:"submittedAt"`
}

// ReceivedFeedback is the requester-facing view of one completed response.
// Reviewer identity is withheld; only the relationship type is exposed.
type ReceivedFeedback struct {
	NominationID string            `json:"nominationId"`
	Relationship string            `json:"relationship"`
	Answers      map[string]Answer `json:"answers"`
	SubmittedAt  time.Time         `json:"submittedAt"`
}
