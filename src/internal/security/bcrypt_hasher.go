package security

import (
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type BcryptHasher struct {
	cost int
}

var _ domain.PasswordHasher = (*BcryptHasher)(nil)

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.InvalidField("accountPassword", "must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hash account secret: %w", err)
	}

	return string(hashed), nil
}

// Compare reports whether secret matches hash. A mismatch is (false, nil);
// any other bcrypt failure is returned as an error.
func (h *BcryptHasher) Compare(hash string, secret string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, fmt.Errorf("compare account secret: %w", err)
}
