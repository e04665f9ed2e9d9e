package gateway

import (
	"errors"
	"fmt"
)

// ErrPermission means the source lacks the guild-management capability needed
// to list invites. Guilds without it are expected; callers skip, not fail.
var ErrPermission = errors.New("missing manage-guild permission")

// ErrNoVanity means the guild has no vanity URL capability. Callers treat the
// vanity signal as unavailable.
var ErrNoVanity = errors.New("guild has no vanity url")

// TransientError wraps a network or rate-limit failure talking to the
// external source. The caller keeps its stale state and retries on the next
// trigger; nothing propagates past the component boundary.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
