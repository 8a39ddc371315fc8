package interfaces

import "errors"

// ErrUnauthorized is returned by identity providers when no valid identity
// can be derived from a connection attempt.
var ErrUnauthorized = errors.New("unauthorized: missing or invalid identity")
