package domain

// CredentialStore maps a chat user ID to a Readeck bearer token.
// Get returns "" and false when no token is stored; absence is not an
// error. Set must durably persist the new value before returning.
type CredentialStore interface {
	Get(userID string) (string, bool)
	Set(userID, token string) error
}
