package domain

import "errors"

// Sentinel errors shared across services, repositories, and controllers.
// Controllers translate these with errors.Is into the JSON error envelope.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrRoleAtCapacity rejects an admission whose role has no free seat.
	ErrRoleAtCapacity = errors.New("role is at capacity")

	// ErrLockTimeout means the registration lock could not be acquired
	// within the configured timeout. Retryable, not a server fault.
	ErrLockTimeout = errors.New("lock acquisition timed out")
)
