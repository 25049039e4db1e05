package bcrypt

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 10
)

var (
	ErrMismatch      = errors.New("password does not match")
	ErrMalformedHash = errors.New("stored value is not a bcrypt hash")
)

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword returns ErrMismatch for a wrong password and
// ErrMalformedHash when the stored value was never hashed.
func ComparePassword(hashedPassword, password string) error {
	if !IsHash(hashedPassword) {
		return ErrMalformedHash
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("password comparison failed: %w", err)
	}
	return nil
}

// IsHash reports whether hash parses as a bcrypt hash.
func IsHash(hash string) bool {
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}
