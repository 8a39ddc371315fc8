package pipeline

import "errors"

// Pipeline-specific error types; the gateway maps these to stable error
// codes on the unicast error event.
var (
	ErrValidation     = errors.New("payload failed validation")
	ErrInvalidRoom    = errors.New("sender is not a member of the target room")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrEmptyMessage   = errors.New("message is empty after trimming")
	ErrMessageTooLong = errors.New("message exceeds maximum length")
	ErrServer         = errors.New("internal server error")
)
