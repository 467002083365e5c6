package domain

// PasswordHasher is the one-way transform applied to account secrets.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Compare(hash string, secret string) (bool, error)
}
