package auth

import "errors"

// Every failure an authenticator can produce is normalized to one of these
// before it leaves the package. Underlying storage errors are logged by the
// caller and never surfaced to the user.
var (
	// ErrInvalidRequest is returned when CSRF validation fails.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRateLimited is returned while a channel's lockout window is active.
	ErrRateLimited = errors.New("too many failed attempts")

	// ErrInvalidCredentials covers unknown username, wrong password and
	// storage failures alike, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode covers wrong TOTP codes, wrong or already-used
	// recovery codes, and unusable secrets alike.
	ErrInvalidCode = errors.New("invalid code")

	// ErrNotPending is returned when two-factor verification is attempted
	// without a staged login; callers redirect back to the login step.
	ErrNotPending = errors.New("no pending two-factor login")
)
