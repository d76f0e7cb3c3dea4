package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen applies to admin passwords, including the bootstrap one.
const MinPasswordLen = 8

// ErrWeakPassword rejects passwords bcrypt cannot or should not hash.
var ErrWeakPassword = errors.New("weak password")

// CheckPassword enforces the length bounds. bcrypt ignores input past 72
// bytes, so longer passwords are refused instead of silently truncated.
func CheckPassword(plain string) error {
	if len(plain) < MinPasswordLen {
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, MinPasswordLen)
	}
	if len(plain) > 72 {
		return fmt.Errorf("%w: at most 72 bytes allowed", ErrWeakPassword)
	}
	return nil
}

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckPassword(plain); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash and a plain password in constant
// time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
