package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost  = 14
	minPassword = 8
	maxPassword = 128
)

// Passwords that pass the character-class checks but are still trivially
// guessable. Matched case-insensitively.
var weakPasswords = map[string]struct{}{
	"password1!":   {},
	"password123":  {},
	"password123!": {},
	"passw0rd!":    {},
	"qwerty123!":   {},
	"letmein123!":  {},
	"admin123!":    {},
	"welcome123!":  {},
	"changeme123!": {},
}

// ErrWeakPassword is returned for any password that fails policy. The
// concrete reason stays server-side so login errors don't leak policy detail.
var ErrWeakPassword = errors.New("invalid password")

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword checks a plaintext password against a bcrypt hash.
func ComparePassword(hashed, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password))
}

// ValidatePassword enforces the password policy: 8-128 characters with at
// least one uppercase letter, one lowercase letter, one digit, and one
// symbol, and no known-weak password embedded in it.
func ValidatePassword(password string) error {
	if len(password) < minPassword || len(password) > maxPassword {
		return ErrWeakPassword
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return ErrWeakPassword
	}

	if _, ok := weakPasswords[strings.ToLower(password)]; ok {
		return ErrWeakPassword
	}

	return nil
}
