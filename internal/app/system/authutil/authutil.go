// Package authutil holds password rules and bcrypt helpers shared by the
// register and login features.
package authutil

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
	// HashCost is the bcrypt work factor for stored hashes.
	HashCost = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
)

// ValidatePassword checks pw against the length rules.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// PasswordRules describes the rules for display.
func PasswordRules() string {
	return fmt.Sprintf("Passwords must be %d to %d characters.", MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns a bcrypt hash of pw at HashCost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), HashCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. Malformed hashes never match.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// BurnCompare runs a bcrypt comparison against a fixed hash so a login for an
// unknown email costs about as much as one with a wrong password.
func BurnCompare(pw string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("civicbridge-unknown-user"), HashCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pw))
}
