package middleware

import (
	"net/http"

	"timeclock/backend/auth"
	"timeclock/backend/handlers"
)

// RequireAdmin requires a fully authenticated admin session. Sessions stuck
// between the password and 2FA steps are sent to the verification page;
// everyone else goes back to login.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls := handlers.CurrentLoginSession(r)
		switch ls.State() {
		case auth.StateAuthenticated:
			next(w, r)
		case auth.StatePendingTwoFactor:
			http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
		default:
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		}
	}
}

// RequireCapability additionally checks the authenticated role against the
// permission table.
func RequireCapability(c auth.Capability, next http.HandlerFunc) http.HandlerFunc {
	return RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		ls := handlers.CurrentLoginSession(r)
		if !ls.Role.Can(c) {
			http.Error(w, "You do not have permission to access this page.", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}
