package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Locker provides mutual exclusion keyed by an arbitrary string, effective
// across process instances. At most one execution of fn runs for a given key
// at a time; other callers wait up to timeout and then fail with
// ErrLockTimeout. The lock is released on every exit path, and fn's error
// propagates to the caller after release.
type Locker interface {
	WithLock(ctx context.Context, key string, timeout time.Duration, fn func(ctx context.Context) error) error
}

// RegistrationLockKey scopes exclusion to "this person acting on this event".
// The email is lowercased so a user and a guest sharing an address serialize
// on the same key, while unrelated attendees proceed in parallel.
func RegistrationLockKey(eventID, email string) string {
	return fmt.Sprintf("registration:%s:%s", eventID, strings.ToLower(strings.TrimSpace(email)))
}
