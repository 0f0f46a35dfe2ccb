package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	// MaxEmailLength is the maximum accepted email address length.
	MaxEmailLength = 254

	// MaxPasswordLength bounds stored passwords.
	MaxPasswordLength = 128

	// MaxTitleLength is the maximum length for a map title.
	MaxTitleLength = 120
)

// Validation errors.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email address is invalid")
	ErrEmailTooLong     = errors.New("email address exceeds maximum length")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length")
	ErrTitleTooLong     = errors.New("title exceeds maximum length")
)

// emailPattern is deliberately loose; it mirrors what a browser's
// email input accepts rather than the full RFC grammar.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail checks an email address for login or registration.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword checks a password for login or registration.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateTitle checks a map title. Empty is valid; the service
// substitutes the default title on save.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}
