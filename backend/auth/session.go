package auth

// LoginState is the authentication stage a browser session is in. A session
// is in exactly one state; pending and authenticated identity fields are
// mutually exclusive.
type LoginState int

const (
	StateUnauthenticated LoginState = iota
	StatePendingTwoFactor
	StateAuthenticated
)

func (s LoginState) String() string {
	switch s {
	case StatePendingTwoFactor:
		return "pending_two_factor"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unauthenticated"
}

// LoginSession is the explicit per-browser-session state the login flow
// operates on. Every transition takes the current value and mutates it in
// place; the HTTP layer persists it back to session storage and performs
// identifier regeneration when told to.
type LoginSession struct {
	CSRFToken string

	Login     Lockout // login-channel failure state
	TwoFactor Lockout // 2FA-channel failure state, counted independently

	// Staged identity awaiting two-factor completion.
	PendingUsername string
	PendingRole     Role

	// Fully authenticated identity.
	Username string
	Role     Role
}

// State derives the current stage from the identity fields.
func (s *LoginSession) State() LoginState {
	switch {
	case s.Username != "":
		return StateAuthenticated
	case s.PendingUsername != "":
		return StatePendingTwoFactor
	}
	return StateUnauthenticated
}
