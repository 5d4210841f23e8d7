package handlers

import (
	"fmt"
	"net/http"
	"time"

	"timeclock/backend/auth"
	"timeclock/backend/config"
	"timeclock/backend/session"

	"github.com/gorilla/sessions"
)

const sessionName = "session"

var Store *session.MemoryStore

// InitSession configures the session store with the secret and timeout from
// config. Refuses to start on a missing or weak secret.
func InitSession() error {
	secret := config.C.Session.Secret
	if secret == "" {
		return fmt.Errorf("session secret is required (set session.secret or SESSION_SECRET)")
	}
	if len(secret) < 32 {
		return fmt.Errorf("session secret must be at least 32 characters")
	}
	Store = session.NewMemoryStore([]byte(secret))
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(config.C.Session.Timeout.Seconds()),
		HttpOnly: true,
		Secure:   config.C.TLS.Enabled,
		SameSite: http.SameSiteStrictMode,
	}
	return nil
}

// Session value keys. The login flow never reads these directly; they exist
// only to round-trip an auth.LoginSession through the session store.
const (
	keyCSRF           = "csrf"
	keyLoginAttempts  = "login_attempts"
	keyLoginLockUntil = "login_lock_until"
	keyTwoFAAttempts  = "2fa_attempts"
	keyTwoFALockUntil = "2fa_lock_until"
	keyPendingAdmin   = "2fa_admin_username"
	keyPendingRole    = "2fa_admin_role"
	keyAdmin          = "admin"
	keyAdminRole      = "admin_role"
)

func loginSessionFrom(s *sessions.Session) *auth.LoginSession {
	ls := &auth.LoginSession{}
	if v, ok := s.Values[keyCSRF].(string); ok {
		ls.CSRFToken = v
	}
	if v, ok := s.Values[keyLoginAttempts].(int); ok {
		ls.Login.Attempts = v
	}
	if v, ok := s.Values[keyLoginLockUntil].(int64); ok && v > 0 {
		ls.Login.LockUntil = time.Unix(v, 0)
	}
	if v, ok := s.Values[keyTwoFAAttempts].(int); ok {
		ls.TwoFactor.Attempts = v
	}
	if v, ok := s.Values[keyTwoFALockUntil].(int64); ok && v > 0 {
		ls.TwoFactor.LockUntil = time.Unix(v, 0)
	}
	if v, ok := s.Values[keyPendingAdmin].(string); ok {
		ls.PendingUsername = v
	}
	if v, ok := s.Values[keyPendingRole].(string); ok {
		ls.PendingRole = auth.Role(v)
	}
	if v, ok := s.Values[keyAdmin].(string); ok {
		ls.Username = v
	}
	if v, ok := s.Values[keyAdminRole].(string); ok {
		ls.Role = auth.Role(v)
	}
	return ls
}

func applyLoginSession(s *sessions.Session, ls *auth.LoginSession) {
	s.Values[keyCSRF] = ls.CSRFToken
	s.Values[keyLoginAttempts] = ls.Login.Attempts
	if ls.Login.LockUntil.IsZero() {
		delete(s.Values, keyLoginLockUntil)
	} else {
		s.Values[keyLoginLockUntil] = ls.Login.LockUntil.Unix()
	}
	s.Values[keyTwoFAAttempts] = ls.TwoFactor.Attempts
	if ls.TwoFactor.LockUntil.IsZero() {
		delete(s.Values, keyTwoFALockUntil)
	} else {
		s.Values[keyTwoFALockUntil] = ls.TwoFactor.LockUntil.Unix()
	}

	setOrDelete(s, keyPendingAdmin, ls.PendingUsername)
	setOrDelete(s, keyPendingRole, string(ls.PendingRole))
	setOrDelete(s, keyAdmin, ls.Username)
	setOrDelete(s, keyAdminRole, string(ls.Role))
}

func setOrDelete(s *sessions.Session, key, value string) {
	if value == "" {
		delete(s.Values, key)
		return
	}
	s.Values[key] = value
}

// CurrentLoginSession reads the request's login state without mutating it.
// Used by routing middleware for authorization decisions.
func CurrentLoginSession(r *http.Request) *auth.LoginSession {
	s, err := Store.Get(r, sessionName)
	if err != nil {
		return &auth.LoginSession{}
	}
	return loginSessionFrom(s)
}
