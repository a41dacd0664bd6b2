package models

import (
	"errors"
	"time"
)

// User represents an authenticated account.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validation errors for users.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is invalid")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// ValidateCredentials checks registration input.
func ValidateCredentials(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !ValidEmail(email) {
		return ErrEmailInvalid
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}
