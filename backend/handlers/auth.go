package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"timeclock/backend/auth"
	"timeclock/backend/config"
	"timeclock/backend/store"

	"gorm.io/gorm"
)

var (
	Flow   *auth.Flow
	Admins *store.AdminStore
)

// InitAuth wires the login flow against the given database using the
// configured security parameters. Both channels share the same lockout
// policy but track their counters independently per session.
func InitAuth(db *gorm.DB) {
	Admins = store.NewAdminStore(db)
	sec := config.C.Security
	policy := auth.LockoutPolicy{
		Threshold: sec.MaxAttempts,
		Window:    sec.LockoutWindow,
	}
	delay := auth.FailureDelay{D: sec.FailureDelay}
	Flow = &auth.Flow{
		Passwords: &auth.PasswordAuthenticator{
			Store:   Admins,
			Lockout: policy,
			Cost:    sec.BcryptCost,
			Delay:   delay,
		},
		TwoFactor: &auth.TwoFactorAuthenticator{
			Store:   Admins,
			Lockout: policy,
			Delay:   delay,
		},
	}
}

type authResponse struct {
	Status            auth.Status `json:"status"`
	Role              auth.Role   `json:"role,omitempty"`
	Error             string      `json:"error,omitempty"`
	RetryAfterSeconds int         `json:"retry_after_seconds,omitempty"`
}

// Session reports the current login stage and hands out the CSRF token the
// login and verification forms must echo back.
func Session(w http.ResponseWriter, r *http.Request) {
	sess, _ := Store.Get(r, sessionName)
	ls := loginSessionFrom(sess)
	token := ls.CSRF()
	applyLoginSession(sess, ls)
	if err := sess.Save(r, w); err != nil {
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"state":      ls.State().String(),
		"csrf_token": token,
	}
	if role, ok := Flow.CurrentRole(ls); ok {
		resp["role"] = role
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func csrfFromRequest(r *http.Request) string {
	if v := r.FormValue("csrf"); v != "" {
		return v
	}
	return r.Header.Get("X-CSRF-Token")
}

// Login runs the first stage of the two-stage login.
func Login(w http.ResponseWriter, r *http.Request) {
	sess, _ := Store.Get(r, sessionName)
	ls := loginSessionFrom(sess)
	username := r.FormValue("username")

	outcome, regenerate := Flow.Login(ls, username, r.FormValue("password"), csrfFromRequest(r))
	if regenerate {
		Store.Regenerate(sess)
	}
	applyLoginSession(sess, ls)
	if err := sess.Save(r, w); err != nil {
		slog.Error("session save failed", "source", "auth", "error", err.Error())
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	switch outcome.Status {
	case auth.StatusAuthenticated:
		slog.Info("admin logged in", "source", "auth", "admin", ls.Username)
		writeAuth(w, http.StatusOK, authResponse{Status: outcome.Status, Role: outcome.Role})
	case auth.StatusNeedsTwoFactor:
		slog.Info("admin passed password check, awaiting 2FA", "source", "auth", "admin", ls.PendingUsername)
		writeAuth(w, http.StatusOK, authResponse{Status: outcome.Status})
	case auth.StatusLocked:
		slog.Warn("login attempt while locked out", "source", "auth")
		writeAuth(w, http.StatusTooManyRequests, authResponse{
			Status:            outcome.Status,
			Error:             "Too many failed login attempts. Please try again later.",
			RetryAfterSeconds: int(outcome.RetryAfter.Seconds()),
		})
	default:
		if errors.Is(outcome.Err, auth.ErrInvalidRequest) {
			writeAuth(w, http.StatusForbidden, authResponse{Status: outcome.Status, Error: "Invalid request."})
			return
		}
		slog.Warn("login failed", "source", "auth", "username", username)
		writeAuth(w, http.StatusUnauthorized, authResponse{Status: outcome.Status, Error: "Invalid credentials"})
	}
}

// VerifyTwoFactor runs the second stage. Requests arriving without a staged
// login are bounced back to the login page without touching the code.
func VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	sess, _ := Store.Get(r, sessionName)
	ls := loginSessionFrom(sess)

	outcome, regenerate := Flow.VerifyTwoFactor(ls, r.FormValue("code"), csrfFromRequest(r))
	if errors.Is(outcome.Err, auth.ErrNotPending) {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	if regenerate {
		Store.Regenerate(sess)
	}
	applyLoginSession(sess, ls)
	if err := sess.Save(r, w); err != nil {
		slog.Error("session save failed", "source", "auth", "error", err.Error())
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	switch outcome.Status {
	case auth.StatusAuthenticated:
		slog.Info("2FA verification successful", "source", "auth", "admin", ls.Username)
		writeAuth(w, http.StatusOK, authResponse{Status: outcome.Status, Role: outcome.Role})
	case auth.StatusLocked:
		slog.Warn("2FA attempt while locked out", "source", "auth")
		writeAuth(w, http.StatusTooManyRequests, authResponse{
			Status:            outcome.Status,
			Error:             "Too many failed attempts. Please try again later.",
			RetryAfterSeconds: int(outcome.RetryAfter.Seconds()),
		})
	default:
		if errors.Is(outcome.Err, auth.ErrInvalidRequest) {
			writeAuth(w, http.StatusForbidden, authResponse{Status: outcome.Status, Error: "Invalid request."})
			return
		}
		slog.Warn("2FA verification failed", "source", "auth")
		writeAuth(w, http.StatusUnauthorized, authResponse{Status: outcome.Status, Error: "Invalid code. Please try again."})
	}
}

// Logout destroys the session entirely.
func Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := Store.Get(r, sessionName)
	admin, _ := sess.Values[keyAdmin].(string)
	slog.Info("admin logged out", "source", "auth", "admin", admin)

	sess.Values = make(map[interface{}]interface{})
	sess.Options.MaxAge = -1
	sess.Save(r, w)

	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func writeAuth(w http.ResponseWriter, code int, resp authResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
