package auth

import (
	"crypto/rand"
	"strings"
)

// Unambiguous uppercase alphabet for recovery codes (no 0/O, 1/I).
const recoveryAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateRecoveryCodes produces n single-use backup codes in the form
// XXXX-XXXX. Codes are shown to the admin once at enrollment and stored
// as-is; matching at verification time is exact and case-sensitive.
func GenerateRecoveryCodes(n int) []string {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = randomChunk(4) + "-" + randomChunk(4)
	}
	return codes
}

func randomChunk(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	var sb strings.Builder
	for _, c := range b {
		sb.WriteByte(recoveryAlphabet[int(c)%len(recoveryAlphabet)])
	}
	return sb.String()
}
