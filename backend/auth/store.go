package auth

// Account is the credential view of an admin row. If TwoFactorEnabled is
// true the secret must be non-empty; recovery codes may be exhausted, which
// leaves the account verifiable only by TOTP.
type Account struct {
	Username         string
	PasswordHash     string
	Role             Role
	TwoFactorEnabled bool
	TwoFactorSecret  string
	RecoveryCodes    []string
}

// CredentialStore is the durable-storage boundary the authenticators consume.
type CredentialStore interface {
	// FindByUsername returns (nil, nil) when no such account exists.
	FindByUsername(username string) (*Account, error)

	// UpdatePasswordHash persists a transparently upgraded hash.
	UpdatePasswordHash(username, newHash string) error

	// ConsumeRecoveryCode atomically removes the code from the account's
	// list. It returns false when the code is absent or was consumed by a
	// concurrent attempt; the removal must be a storage-level conditional
	// write so a code can never be spent twice.
	ConsumeRecoveryCode(username, code string) (bool, error)
}
