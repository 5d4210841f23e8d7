package auth

import (
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the username does not exist, so the
// not-found branch costs the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timeclock-dummy-password"), bcrypt.DefaultCost)

// PasswordAuthenticator verifies username/password pairs against the
// credential store and transparently upgrades hashes stored at a weaker
// cost. All failure causes collapse into ErrInvalidCredentials.
type PasswordAuthenticator struct {
	Store   CredentialStore
	Lockout LockoutPolicy
	Cost    int // target bcrypt cost for new and upgraded hashes
	Delay   FailureDelay
}

// PasswordResult is handed to the session flow on success.
type PasswordResult struct {
	Username         string
	Role             Role
	TwoFactorEnabled bool
}

// Verify checks the credentials. CSRF must already be validated by the
// caller. While the login channel is locked nothing touches the store.
func (a *PasswordAuthenticator) Verify(sess *LoginSession, username, password string) (*PasswordResult, error) {
	if a.Lockout.Locked(sess.Login) {
		return nil, ErrRateLimited
	}

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, a.fail(sess)
	}

	acct, err := a.Store.FindByUsername(username)
	if err != nil {
		// Fail closed; the user sees the same generic error.
		slog.Error("credential lookup failed", "source", "auth", "error", err.Error())
		acct = nil
	}
	if acct == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, a.fail(sess)
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, a.fail(sess)
	}

	a.maybeRehash(acct, password)

	a.Lockout.Clear(&sess.Login)
	return &PasswordResult{
		Username:         acct.Username,
		Role:             acct.Role,
		TwoFactorEnabled: acct.TwoFactorEnabled,
	}, nil
}

// maybeRehash upgrades the stored hash when its cost is below the configured
// target. Nothing observable changes besides the stored representation.
func (a *PasswordAuthenticator) maybeRehash(acct *Account, password string) {
	cost, err := bcrypt.Cost([]byte(acct.PasswordHash))
	if err != nil || cost >= a.Cost {
		return
	}
	newHash, err := bcrypt.GenerateFromPassword([]byte(password), a.Cost)
	if err != nil {
		return
	}
	if err := a.Store.UpdatePasswordHash(acct.Username, string(newHash)); err != nil {
		slog.Error("password rehash failed", "source", "auth", "error", err.Error())
	}
}

// fail is the single failure constructor for the login channel: the counter
// increment commits before the uniform delay, and every failure branch must
// return through here.
func (a *PasswordAuthenticator) fail(sess *LoginSession) error {
	a.Lockout.RecordFailure(&sess.Login)
	a.Delay.Apply()
	return ErrInvalidCredentials
}
