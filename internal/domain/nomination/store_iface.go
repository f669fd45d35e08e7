package nomination

import "context"

// StoreAPI is the persistence contract for nominations. Implementations
// must make CreateNomination atomic with respect to the capacity,
// duplicate, and reviewer-load rules (re-checking them inside the same
// transaction) and must guard UpdateNomination with the record's version so
// that concurrent writers cannot double-apply a decision.
type StoreAPI interface {
	GetNomination(ctx context.Context, id string) (Nomination, error)
	// CreateNomination inserts n after re-validating capacity, the duplicate
	// rule, and the reviewer load against committed state. Returns
	// ErrCapacityExceeded, ErrDuplicateNomination, or ErrReviewerOverloaded
	// when a concurrent creation won the slot.
	CreateNomination(ctx context.Context, n Nomination, cfg Config) (Nomination, error)
	// UpdateNomination persists n only if the stored version still equals
	// n.Version, bumping it on success. Returns ErrConcurrentModification
	// when the guard fails.
	UpdateNomination(ctx context.Context, n Nomination) (Nomination, error)
	ListByRequester(ctx context.Context, cycleID, requesterID string) ([]Nomination, error)
	ListByReviewer(ctx context.Context, cycleID, reviewerKey string) ([]Nomination, error)
	ListByCycle(ctx context.Context, cycleID string) ([]Nomination, error)
	// ReviewerLoad counts active nominations naming the reviewer, scoped to
	// one cycle or across all cycles.
	ReviewerLoad(ctx context.Context, cycleID, reviewerKey string, acrossCycles bool) (int, error)
}
