package auth

import (
	"crypto/subtle"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TwoFactorAuthenticator verifies a TOTP code or a single-use recovery code
// for the identity staged in the session. All failure causes collapse into
// ErrInvalidCode.
type TwoFactorAuthenticator struct {
	Store   CredentialStore
	Lockout LockoutPolicy
	Delay   FailureDelay
	Clock   func() time.Time // defaults to time.Now
}

func (a *TwoFactorAuthenticator) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

// Verify checks the submitted code against the pending account. The session
// must be in the pending-two-factor state; CSRF must already be validated by
// the caller. While the 2FA channel is locked no codes are checked.
func (a *TwoFactorAuthenticator) Verify(sess *LoginSession, rawCode string) error {
	if sess.State() != StatePendingTwoFactor {
		return ErrNotPending
	}
	if a.Lockout.Locked(sess.TwoFactor) {
		return ErrRateLimited
	}

	rawCode = strings.TrimSpace(rawCode)
	if rawCode == "" {
		return a.fail(sess)
	}

	acct, err := a.Store.FindByUsername(sess.PendingUsername)
	if err != nil {
		slog.Error("credential lookup failed", "source", "auth", "error", err.Error())
		acct = nil
	}
	if acct == nil {
		return a.fail(sess)
	}

	if a.verifyTOTP(acct, rawCode) || a.verifyRecoveryCode(acct, rawCode) {
		a.Lockout.Clear(&sess.TwoFactor)
		return nil
	}
	return a.fail(sess)
}

// verifyTOTP strips formatting characters and checks the code against the
// stored secret with the standard 30s step, 6 digits and ±1 step tolerance.
// A malformed or missing secret is a plain verification failure.
func (a *TwoFactorAuthenticator) verifyTOTP(acct *Account, rawCode string) bool {
	code := digitsOnly(rawCode)
	if code == "" || acct.TwoFactorSecret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, acct.TwoFactorSecret, a.now(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// verifyRecoveryCode compares the raw submission against every stored code.
// The scan always covers the full list with a constant-time equality check
// per entry, so timing does not leak the matching position. The matched code
// is consumed through the store's conditional write; losing that race counts
// as a failure.
func (a *TwoFactorAuthenticator) verifyRecoveryCode(acct *Account, rawCode string) bool {
	match := -1
	for i, candidate := range acct.RecoveryCodes {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(rawCode)) == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return false
	}
	consumed, err := a.Store.ConsumeRecoveryCode(acct.Username, acct.RecoveryCodes[match])
	if err != nil {
		slog.Error("recovery code consumption failed", "source", "auth", "error", err.Error())
		return false
	}
	return consumed
}

// fail is the single failure constructor for the 2FA channel, mirroring the
// password path: increment first, then the uniform delay.
func (a *TwoFactorAuthenticator) fail(sess *LoginSession) error {
	a.Lockout.RecordFailure(&sess.TwoFactor)
	a.Delay.Apply()
	return ErrInvalidCode
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
