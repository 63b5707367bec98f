package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// VerificationResult is the outcome of checking a password against a hash.
type VerificationResult int

const (
	VerificationFailed VerificationResult = iota
	VerificationSuccess
)

// BcryptHasher hashes passwords with bcrypt. The plaintext is never stored
// or recoverable.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares password with hash.
func (h BcryptHasher) Verify(hash, password string) VerificationResult {
	if hash == "" {
		return VerificationFailed
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return VerificationSuccess
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		logger.WithError(err).Warn("stored password hash is unusable")
	}
	return VerificationFailed
}
