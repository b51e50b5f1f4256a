package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt. Each hash carries its own salt,
// so two hashes of the same plaintext differ while Verify still succeeds.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword(plaintext, h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hashValue. A mismatch is
// (false, nil); a hash that cannot be parsed at all is (false,
// ErrCorruptCredential) so callers can tell storage corruption apart from a
// wrong password.
func (h *BcryptHasher) Verify(plaintext []byte, hashValue string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashValue), plaintext)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptCredential, err)
	}
}

// wipe zeroes credential material once it is no longer needed.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
