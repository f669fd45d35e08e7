package nomination

import "errors"

var (
	ErrNotFound               = errors.New("nomination not found")
	ErrManagerNomination      = errors.New("cannot nominate your direct manager")
	ErrDuplicateNomination    = errors.New("reviewer already nominated in this cycle")
	ErrCapacityExceeded       = errors.New("nomination capacity reached for this cycle")
	ErrReviewerOverloaded     = errors.New("reviewer is at their nomination limit")
	ErrExternalNotPermitted   = errors.New("org level does not permit external nominations")
	ErrNotAuthorized          = errors.New("actor is not authorized for this nomination")
	ErrMissingReason          = errors.New("rejection requires a reason")
	ErrAlreadyDecided         = errors.New("nomination already decided")
	ErrNotApproved            = errors.New("nomination is not approved")
	ErrAlreadyCompleted       = errors.New("feedback already completed for this nomination")
	ErrConcurrentModification = errors.New("nomination was modified concurrently, retry from fresh state")
)
