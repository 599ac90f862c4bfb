package utils

import (
	"net/mail"
	"strings"

	"alumni-portal/apperr"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds enforced at registration and reset. bcrypt refuses
// inputs longer than MaxPasswordLength bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// ValidatePassword rejects passwords outside the length bounds
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperr.Validation("Password must be at least 6 characters")
	}
	if len(password) > MaxPasswordLength {
		return apperr.Validation("Password must be at most 72 bytes")
	}
	return nil
}

// HashPassword hashes password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail trims and lowercases an address so one mailbox maps to one
// account
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
