package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func newTwoFactorAuthenticator(s CredentialStore, rec *sleepRecorder, clock func() time.Time) *TwoFactorAuthenticator {
	return &TwoFactorAuthenticator{
		Store:   s,
		Lockout: testPolicy(clock),
		Delay:   FailureDelay{D: 350 * time.Millisecond, Sleep: rec.sleep},
		Clock:   clock,
	}
}

func totpAccount(t *testing.T, username string, codes ...string) (*Account, string) {
	t.Helper()
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: username})
	if err != nil {
		t.Fatal(err)
	}
	return &Account{
		Username:         username,
		PasswordHash:     mustHash("irrelevant"),
		Role:             RoleSuperAdmin,
		TwoFactorEnabled: true,
		TwoFactorSecret:  key.Secret(),
		RecoveryCodes:    codes,
	}, key.Secret()
}

func pendingSession(username string, role Role) *LoginSession {
	return &LoginSession{PendingUsername: username, PendingRole: role}
}

func TestTwoFactor_ValidTOTP(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, secret := totpAccount(t, "bob")
	store := newFakeStore(acct)
	a := newTwoFactorAuthenticator(store, &sleepRecorder{}, func() time.Time { return now })

	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		t.Fatal(err)
	}

	sess := pendingSession("bob", RoleSuperAdmin)
	sess.TwoFactor.Attempts = 2
	if err := a.Verify(sess, code); err != nil {
		t.Fatalf("valid TOTP code should verify, got %v", err)
	}
	if sess.TwoFactor.Attempts != 0 {
		t.Error("success should clear the 2FA channel counters")
	}
}

func TestTwoFactor_NormalizesFormattedCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, secret := totpAccount(t, "bob")
	a := newTwoFactorAuthenticator(newFakeStore(acct), &sleepRecorder{}, func() time.Time { return now })

	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		t.Fatal(err)
	}
	formatted := code[:3] + " " + code[3:]

	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), formatted); err != nil {
		t.Errorf("formatting characters should be stripped before TOTP check, got %v", err)
	}
}

func TestTwoFactor_AcceptsAdjacentTimeStep(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, secret := totpAccount(t, "bob")
	a := newTwoFactorAuthenticator(newFakeStore(acct), &sleepRecorder{}, func() time.Time { return now })

	code, err := totp.GenerateCode(secret, now.Add(-30*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), code); err != nil {
		t.Errorf("code from the previous time step should be inside the tolerance, got %v", err)
	}
}

func TestTwoFactor_WrongCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, _ := totpAccount(t, "bob", "AAAA-1111")
	rec := &sleepRecorder{}
	a := newTwoFactorAuthenticator(newFakeStore(acct), rec, func() time.Time { return now })

	sess := pendingSession("bob", RoleSuperAdmin)
	if err := a.Verify(sess, "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("wrong code should be ErrInvalidCode, got %v", err)
	}
	if sess.TwoFactor.Attempts != 1 || len(rec.calls) != 1 {
		t.Error("failure must count and be delayed")
	}
}

func TestTwoFactor_RecoveryCodeSingleUse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, _ := totpAccount(t, "bob", "AAAA-1111", "BBBB-2222")
	store := newFakeStore(acct)
	a := newTwoFactorAuthenticator(store, &sleepRecorder{}, func() time.Time { return now })

	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), "AAAA-1111"); err != nil {
		t.Fatalf("unused recovery code should verify, got %v", err)
	}

	// Same code on a fresh pending session must now be rejected.
	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), "AAAA-1111"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("used recovery code must be rejected, got %v", err)
	}

	// The other code is still good.
	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), "BBBB-2222"); err != nil {
		t.Errorf("remaining recovery code should still verify, got %v", err)
	}
}

func TestTwoFactor_RecoveryCodeExactMatchOnly(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, _ := totpAccount(t, "bob", "AAAA-1111")
	a := newTwoFactorAuthenticator(newFakeStore(acct), &sleepRecorder{}, func() time.Time { return now })

	// Recovery codes are matched raw: case and punctuation matter.
	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), "aaaa-1111"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("recovery match must be exact and case-sensitive, got %v", err)
	}
}

func TestTwoFactor_NotPendingRejectedOutright(t *testing.T) {
	acct, _ := totpAccount(t, "bob")
	rec := &sleepRecorder{}
	a := newTwoFactorAuthenticator(newFakeStore(acct), rec, nil)

	if err := a.Verify(&LoginSession{}, "123456"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("verification without a staged login must be ErrNotPending, got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Error("the not-pending rejection must not process the code at all")
	}
}

func TestTwoFactor_LockedChannelSkipsChecks(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct, secret := totpAccount(t, "bob")
	store := newFakeStore(acct)
	a := newTwoFactorAuthenticator(store, &sleepRecorder{}, func() time.Time { return now })

	code, _ := totp.GenerateCode(secret, now)
	sess := pendingSession("bob", RoleSuperAdmin)
	sess.TwoFactor.LockUntil = now.Add(10 * time.Minute)

	if err := a.Verify(sess, code); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("locked channel must fail without checking the code, got %v", err)
	}
	if store.lookups != 0 {
		t.Error("a locked channel must not touch the credential store")
	}
}

func TestTwoFactor_MalformedSecretIsPlainFailure(t *testing.T) {
	acct := &Account{
		Username:         "bob",
		Role:             RoleSuperAdmin,
		TwoFactorEnabled: true,
		TwoFactorSecret:  "not-valid-base32!!!",
	}
	a := newTwoFactorAuthenticator(newFakeStore(acct), &sleepRecorder{}, nil)

	if err := a.Verify(pendingSession("bob", RoleSuperAdmin), "123456"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("unusable secret must surface as a verification failure, got %v", err)
	}
}

func TestTwoFactor_ExhaustedAccountNeverVerifies(t *testing.T) {
	// 2FA enabled, no secret, no recovery codes: terminal state requiring
	// an administrative reset.
	acct := &Account{Username: "bob", Role: RoleSuperAdmin, TwoFactorEnabled: true}
	a := newTwoFactorAuthenticator(newFakeStore(acct), &sleepRecorder{}, nil)

	for _, code := range []string{"123456", "AAAA-1111", ""} {
		if err := a.Verify(pendingSession("bob", RoleSuperAdmin), code); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("code %q should fail on an exhausted account, got %v", code, err)
		}
	}
}
