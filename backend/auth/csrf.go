package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
)

// NewCSRFToken returns a fresh random 256-bit token, hex encoded.
func NewCSRFToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// CSRF returns the session's anti-forgery token, generating it on first use.
// The token stays constant for the session's lifetime.
func (s *LoginSession) CSRF() string {
	if s.CSRFToken == "" {
		s.CSRFToken = NewCSRFToken()
	}
	return s.CSRFToken
}

// CSRFValid reports whether the submitted token matches the session's token.
// Comparison is constant time; an empty submission or a session without a
// token never validates.
func (s *LoginSession) CSRFValid(submitted string) bool {
	if submitted == "" || s.CSRFToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(submitted)) == 1
}
