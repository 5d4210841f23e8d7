package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func newTestFlow(t *testing.T) (*Flow, *fakeStore) {
	t.Helper()
	store := newFakeStore(
		&Account{
			Username:     "alice",
			PasswordHash: mustHash("Secret123!"),
			Role:         RoleSuperAdmin,
		},
	)
	rec := &sleepRecorder{}
	return &Flow{
		Passwords: newPasswordAuthenticator(store, rec),
		TwoFactor: newTwoFactorAuthenticator(store, rec, nil),
	}, store
}

func TestFlow_CSRFInvalidMutatesNothing(t *testing.T) {
	flow, store := newTestFlow(t)
	sess := &LoginSession{}
	sess.CSRF()

	outcome, regen := flow.Login(sess, "alice", "Secret123!", "forged")
	if outcome.Status != StatusInvalid || !errors.Is(outcome.Err, ErrInvalidRequest) {
		t.Fatalf("forged CSRF should be rejected as invalid request, got %+v", outcome)
	}
	if regen {
		t.Error("a rejected request must not regenerate the session")
	}
	if sess.State() != StateUnauthenticated || sess.Login.Attempts != 0 {
		t.Error("a rejected request must not mutate session state")
	}
	if store.lookups != 0 {
		t.Error("CSRF must be validated before anything touches storage")
	}
}

func TestFlow_LoginWithoutTwoFactor(t *testing.T) {
	flow, _ := newTestFlow(t)
	sess := &LoginSession{}
	csrf := sess.CSRF()

	outcome, regen := flow.Login(sess, "alice", "Secret123!", csrf)
	if outcome.Status != StatusAuthenticated || outcome.Role != RoleSuperAdmin {
		t.Fatalf("expected authenticated super_admin, got %+v", outcome)
	}
	if !regen {
		t.Error("authentication must regenerate the session identifier")
	}
	if sess.State() != StateAuthenticated || sess.Username != "alice" {
		t.Errorf("session should be authenticated as alice, got %+v", sess)
	}
	if !flow.IsAuthenticated(sess) || !flow.HasCapability(sess, CapManageAdmins) {
		t.Error("authenticated super_admin should hold every capability")
	}
}

func TestFlow_FiveFailuresThenLockedEvenWithCorrectPassword(t *testing.T) {
	flow, _ := newTestFlow(t)
	sess := &LoginSession{}
	csrf := sess.CSRF()

	for i := 0; i < 5; i++ {
		outcome, _ := flow.Login(sess, "alice", "wrong", csrf)
		if outcome.Status != StatusInvalid || !errors.Is(outcome.Err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d should be invalid, got %+v", i+1, outcome)
		}
	}

	outcome, regen := flow.Login(sess, "alice", "Secret123!", csrf)
	if outcome.Status != StatusLocked {
		t.Fatalf("sixth attempt must be locked, got %+v", outcome)
	}
	if regen || sess.State() != StateUnauthenticated {
		t.Error("a locked attempt must not authenticate or regenerate")
	}
	if outcome.RetryAfter <= 0 || outcome.RetryAfter > 15*time.Minute {
		t.Errorf("retry-after hint should be within the window, got %v", outcome.RetryAfter)
	}
}

func TestFlow_TwoStageLoginWithRecoveryCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, _ := totpAccount(t, "bob", "AAAA-1111", "BBBB-2222")
	acct.Role = RoleReportsOnly
	acct.PasswordHash = mustHash("Hunter2!!")
	store := newFakeStore(acct)
	rec := &sleepRecorder{}
	flow := &Flow{
		Passwords: newPasswordAuthenticator(store, rec),
		TwoFactor: newTwoFactorAuthenticator(store, rec, func() time.Time { return now }),
	}

	sess := &LoginSession{}
	csrf := sess.CSRF()

	outcome, regen := flow.Login(sess, "bob", "Hunter2!!", csrf)
	if outcome.Status != StatusNeedsTwoFactor || !regen {
		t.Fatalf("expected needs_two_factor with regeneration, got %+v regen=%v", outcome, regen)
	}
	if sess.State() != StatePendingTwoFactor {
		t.Fatalf("session should be pending, got %v", sess.State())
	}
	if flow.IsAuthenticated(sess) {
		t.Fatal("pending session must not count as authenticated")
	}

	outcome, regen = flow.VerifyTwoFactor(sess, "AAAA-1111", csrf)
	if outcome.Status != StatusAuthenticated || outcome.Role != RoleReportsOnly || !regen {
		t.Fatalf("expected authenticated reports_only, got %+v regen=%v", outcome, regen)
	}
	if sess.State() != StateAuthenticated || sess.Username != "bob" {
		t.Errorf("staged identity should be promoted, got %+v", sess)
	}
	if sess.PendingUsername != "" || sess.Login.Attempts != 0 || sess.TwoFactor.Attempts != 0 {
		t.Error("success must clear pending identity and both channels")
	}

	// Same code again through a fresh two-stage login must be rejected.
	sess2 := &LoginSession{}
	csrf2 := sess2.CSRF()
	flow.Login(sess2, "bob", "Hunter2!!", csrf2)
	outcome, _ = flow.VerifyTwoFactor(sess2, "AAAA-1111", csrf2)
	if outcome.Status != StatusInvalid || !errors.Is(outcome.Err, ErrInvalidCode) {
		t.Fatalf("used recovery code must be invalid on reuse, got %+v", outcome)
	}
}

func TestFlow_TwoStageLoginWithTOTP(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, secret := totpAccount(t, "bob")
	acct.PasswordHash = mustHash("Hunter2!!")
	store := newFakeStore(acct)
	rec := &sleepRecorder{}
	flow := &Flow{
		Passwords: newPasswordAuthenticator(store, rec),
		TwoFactor: newTwoFactorAuthenticator(store, rec, func() time.Time { return now }),
	}

	sess := &LoginSession{}
	csrf := sess.CSRF()
	flow.Login(sess, "bob", "Hunter2!!", csrf)

	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		t.Fatal(err)
	}
	outcome, _ := flow.VerifyTwoFactor(sess, code, csrf)
	if outcome.Status != StatusAuthenticated {
		t.Fatalf("valid TOTP should finish the login, got %+v", outcome)
	}
}

func TestFlow_VerifyWithoutPendingIdentity(t *testing.T) {
	flow, _ := newTestFlow(t)
	sess := &LoginSession{}
	csrf := sess.CSRF()

	outcome, regen := flow.VerifyTwoFactor(sess, "123456", csrf)
	if !errors.Is(outcome.Err, ErrNotPending) || regen {
		t.Fatalf("verification while unauthenticated must be ErrNotPending, got %+v", outcome)
	}
}

func TestFlow_ChannelsLockIndependently(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, secret := totpAccount(t, "bob")
	acct.PasswordHash = mustHash("Hunter2!!")
	store := newFakeStore(acct)
	rec := &sleepRecorder{}
	flow := &Flow{
		Passwords: newPasswordAuthenticator(store, rec),
		TwoFactor: newTwoFactorAuthenticator(store, rec, func() time.Time { return now }),
	}

	sess := &LoginSession{}
	csrf := sess.CSRF()
	flow.Login(sess, "bob", "Hunter2!!", csrf)

	// Exhaust the login channel; the 2FA channel must stay usable.
	for i := 0; i < 5; i++ {
		flow.Passwords.Lockout.RecordFailure(&sess.Login)
	}

	code, _ := totp.GenerateCode(secret, now)
	outcome, _ := flow.VerifyTwoFactor(sess, code, csrf)
	if outcome.Status != StatusAuthenticated {
		t.Fatalf("login-channel lockout must not lock the 2FA channel, got %+v", outcome)
	}

	// And the other direction: 2FA lockout leaves the login channel alone.
	sess2 := &LoginSession{}
	csrf2 := sess2.CSRF()
	for i := 0; i < 5; i++ {
		flow.TwoFactor.Lockout.RecordFailure(&sess2.TwoFactor)
	}
	outcome, _ = flow.Login(sess2, "bob", "Hunter2!!", csrf2)
	if outcome.Status != StatusNeedsTwoFactor {
		t.Fatalf("2FA-channel lockout must not lock the login channel, got %+v", outcome)
	}
}

func TestFlow_CurrentRole(t *testing.T) {
	flow, _ := newTestFlow(t)
	sess := &LoginSession{}

	if _, ok := flow.CurrentRole(sess); ok {
		t.Error("unauthenticated session has no role")
	}

	csrf := sess.CSRF()
	flow.Login(sess, "alice", "Secret123!", csrf)
	role, ok := flow.CurrentRole(sess)
	if !ok || role != RoleSuperAdmin {
		t.Errorf("expected super_admin, got %v ok=%v", role, ok)
	}
}
