package errors

import "errors"

// Login flow errors, resolved in the login UI
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrVerificationFailed = errors.New("verification failed")
	ErrNoPendingChallenge = errors.New("no pending verification challenge")
)

// Request pipeline errors. A ResponseError matches ErrTenantUnassigned or
// ErrSessionExpired through errors.Is when its status and body say so.
var (
	ErrTenantUnassigned = errors.New("tenant unassigned")
	ErrSessionExpired   = errors.New("session expired")
	ErrTransport        = errors.New("transport error")
)

var ErrNotFound = errors.New("not found")
