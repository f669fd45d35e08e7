package feedback

import (
	"context"

	"feedback360/internal/domain/nomination"
)

// StoreAPI persists drafts and final responses. SubmitResponse must be
// atomic: the final response, the draft removal and the version-guarded
// nomination completion commit together or not at all.
type StoreAPI interface {
	GetDraft(ctx context.Context, nominationID string) (map[string]Answer, error)
	SaveDraft(ctx context.Context, nominationID string, answers map[string]Answer) error
	GetResponse(ctx context.Context, nominationID string) (Response, error)
	SubmitResponse(ctx context.Context, resp Response, n nomination.Nomination) (Response, error)
	ListReceived(ctx context.Context, cycleID, requesterID string) ([]ReceivedFeedback, error)
}
