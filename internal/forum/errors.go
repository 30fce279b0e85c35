package forum

import "errors"

// Policy errors returned by the public contract. Store failures are
// returned as-is and mean the whole operation was aborted; these sentinels
// describe rule violations that are safe to show to the user.
var (
	ErrNotFound       = errors.New("content does not exist")
	ErrIsDeleted      = errors.New("content was deleted")
	ErrIsReported     = errors.New("content is under review")
	ErrNotAllowed     = errors.New("operation not allowed")
	ErrYouAreTmp      = errors.New("anonymous sessions can only publish and read single posts")
	ErrTitleUsed      = errors.New("title already taken")
	ErrNoReason       = errors.New("a reason is required")
	ErrNoPoll         = errors.New("post has no poll")
	ErrAlreadyVoted   = errors.New("already voted in this poll")
	ErrUnknownOption  = errors.New("unknown poll option")
	ErrInvalidRequest = errors.New("invalid request")
)
