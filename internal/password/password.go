// Package password hashes and verifies account passwords.
package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes is the longest password bcrypt accepts, counted in bytes
const MaxBytes = 72

// Hasher produces salted one-way hashes. Verification re-hashes the
// candidate with the stored salt; hashes are never decrypted.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
	NeedsRehash(hash string) bool
}

// BcryptHasher implements Hasher using bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into bcrypt's valid range
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NeedsRehash reports whether hash was produced with a different cost
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

var _ Hasher = (*BcryptHasher)(nil)
