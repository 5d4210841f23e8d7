package auth

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// fakeStore is an in-memory CredentialStore for authenticator tests.
type fakeStore struct {
	accounts map[string]*Account
	findErr  error

	lookups       int
	updatedHashes map[string]string
}

func newFakeStore(accounts ...*Account) *fakeStore {
	s := &fakeStore{
		accounts:      make(map[string]*Account),
		updatedHashes: make(map[string]string),
	}
	for _, a := range accounts {
		s.accounts[a.Username] = a
	}
	return s
}

func (s *fakeStore) FindByUsername(username string) (*Account, error) {
	s.lookups++
	if s.findErr != nil {
		return nil, s.findErr
	}
	a, ok := s.accounts[username]
	if !ok {
		return nil, nil
	}
	// Copy so tests mutating the store don't alias the returned account.
	cp := *a
	cp.RecoveryCodes = append([]string(nil), a.RecoveryCodes...)
	return &cp, nil
}

func (s *fakeStore) UpdatePasswordHash(username, newHash string) error {
	a, ok := s.accounts[username]
	if !ok {
		return errors.New("no such account")
	}
	a.PasswordHash = newHash
	s.updatedHashes[username] = newHash
	return nil
}

func (s *fakeStore) ConsumeRecoveryCode(username, code string) (bool, error) {
	a, ok := s.accounts[username]
	if !ok {
		return false, nil
	}
	for i, c := range a.RecoveryCodes {
		if c == code {
			a.RecoveryCodes = append(a.RecoveryCodes[:i], a.RecoveryCodes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// sleepRecorder captures artificial-delay invocations instead of sleeping.
type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) sleep(d time.Duration) {
	r.calls = append(r.calls, d)
}

func mustHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}

func testPolicy(clock func() time.Time) LockoutPolicy {
	return LockoutPolicy{Threshold: 5, Window: 15 * time.Minute, Clock: clock}
}
