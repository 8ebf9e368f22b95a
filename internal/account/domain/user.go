package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a user lookup misses.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when a registration or profile update
	// collides with an existing account's email.
	ErrEmailTaken = errors.New("email is already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("email or password is incorrect")

	// ErrResetTokenInvalid covers both unknown and expired reset tokens;
	// callers are deliberately not told which.
	ErrResetTokenInvalid = errors.New("password reset token is invalid or has expired")
)

// User is an account holder. Hearts is the set of favorited store ids;
// each id appears at most once and order carries no meaning.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	Hearts       []string
	ResetToken   string
	ResetExpires *time.Time
	Created      time.Time
}

// HasHeart reports whether the store is currently favorited.
func (u *User) HasHeart(storeID string) bool {
	for _, id := range u.Hearts {
		if id == storeID {
			return true
		}
	}
	return false
}

// ValidationError reports a rejected account field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NormalizeName trims and validates a display name.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "name is required"}
	}
	return name, nil
}

// NormalizeEmail trims, lowercases and validates an email address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", &ValidationError{Field: "email", Message: "email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", &ValidationError{Field: "email", Message: "email address is not valid"}
	}
	return email, nil
}
