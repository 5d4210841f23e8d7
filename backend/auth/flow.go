package auth

import "time"

// Status is the externally visible result of a login or verification attempt.
type Status string

const (
	StatusLocked         Status = "locked"
	StatusInvalid        Status = "invalid"
	StatusNeedsTwoFactor Status = "needs_two_factor"
	StatusAuthenticated  Status = "authenticated"
)

// Outcome is returned to the calling page. Err carries the sentinel that
// produced a non-success status; RetryAfter is the optional remaining-time
// hint while a channel is locked.
type Outcome struct {
	Status     Status
	Role       Role
	Err        error
	RetryAfter time.Duration
}

// Flow owns the two-stage login state machine: transition rules live here,
// while the actual session-identifier swap is performed by the session store
// whenever a method returns regenerate=true. Regeneration must be a true
// create-new/delete-old operation to keep the anti-fixation guarantee.
type Flow struct {
	Passwords *PasswordAuthenticator
	TwoFactor *TwoFactorAuthenticator
}

// Login validates CSRF, verifies the password and advances the session:
// to authenticated when 2FA is disabled, to pending-two-factor when enabled.
// On a CSRF failure nothing is mutated.
func (f *Flow) Login(sess *LoginSession, username, password, csrf string) (Outcome, bool) {
	if !sess.CSRFValid(csrf) {
		return Outcome{Status: StatusInvalid, Err: ErrInvalidRequest}, false
	}

	res, err := f.Passwords.Verify(sess, username, password)
	if err != nil {
		return failureOutcome(err, f.Passwords.Lockout, sess.Login), false
	}

	if res.TwoFactorEnabled {
		sess.PendingUsername = res.Username
		sess.PendingRole = res.Role
		sess.Username = ""
		sess.Role = ""
		return Outcome{Status: StatusNeedsTwoFactor}, true
	}

	sess.PendingUsername = ""
	sess.PendingRole = ""
	sess.Username = res.Username
	sess.Role = res.Role
	return Outcome{Status: StatusAuthenticated, Role: res.Role}, true
}

// VerifyTwoFactor validates CSRF, verifies the code and promotes the staged
// identity, clearing all pending and attempt state for both channels.
func (f *Flow) VerifyTwoFactor(sess *LoginSession, code, csrf string) (Outcome, bool) {
	if sess.State() != StatePendingTwoFactor {
		return Outcome{Status: StatusInvalid, Err: ErrNotPending}, false
	}
	if !sess.CSRFValid(csrf) {
		return Outcome{Status: StatusInvalid, Err: ErrInvalidRequest}, false
	}

	if err := f.TwoFactor.Verify(sess, code); err != nil {
		return failureOutcome(err, f.TwoFactor.Lockout, sess.TwoFactor), false
	}

	sess.Username = sess.PendingUsername
	sess.Role = sess.PendingRole
	sess.PendingUsername = ""
	sess.PendingRole = ""
	sess.Login = Lockout{}
	sess.TwoFactor = Lockout{}
	return Outcome{Status: StatusAuthenticated, Role: sess.Role}, true
}

func failureOutcome(err error, p LockoutPolicy, l Lockout) Outcome {
	if err == ErrRateLimited {
		return Outcome{Status: StatusLocked, Err: err, RetryAfter: p.Remaining(l)}
	}
	return Outcome{Status: StatusInvalid, Err: err}
}

// IsAuthenticated reports whether the session holds a fully verified admin.
func (f *Flow) IsAuthenticated(sess *LoginSession) bool {
	return sess.State() == StateAuthenticated
}

// CurrentRole returns the authenticated role, if any.
func (f *Flow) CurrentRole(sess *LoginSession) (Role, bool) {
	if sess.State() != StateAuthenticated {
		return "", false
	}
	return sess.Role, true
}

// HasCapability delegates to the role permission table for the
// authenticated identity.
func (f *Flow) HasCapability(sess *LoginSession, c Capability) bool {
	role, ok := f.CurrentRole(sess)
	return ok && role.Can(c)
}
