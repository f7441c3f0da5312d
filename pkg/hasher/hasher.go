package hasher

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest plaintext bcrypt accepts
const MaxPasswordBytes = 72

var (
	// ErrMismatch is returned by Compare when the plaintext does not match the digest
	ErrMismatch = errors.New("password does not match")
	// ErrTooLong is returned by Hash for plaintext over MaxPasswordBytes
	ErrTooLong = errors.New("password is too long")
)

// Digest is a password hash. Values of this type are only produced by a Hasher,
// so a plaintext string cannot be stored as a hash by accident.
type Digest string

// Hasher is the password hashing collaborator
type Hasher interface {
	Hash(plaintext string) (Digest, error)
	Compare(digest Digest, plaintext string) error
}

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a bcrypt hasher. Costs outside bcrypt's range fall back to the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash derives a new digest for plaintext
func (h *BcryptHasher) Hash(plaintext string) (Digest, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrTooLong
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return Digest(bytes), nil
}

// Compare checks plaintext against digest
func (h *BcryptHasher) Compare(digest Digest, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
