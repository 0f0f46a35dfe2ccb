package middleware

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		want  error
	}{
		{"alice@example.com", nil},
		{"  alice@example.com  ", nil},
		{"", ErrEmailRequired},
		{"   ", ErrEmailRequired},
		{"not-an-email", ErrEmailInvalid},
		{"a@b", ErrEmailInvalid},
		{"two words@example.com", ErrEmailInvalid},
		{strings.Repeat("a", 250) + "@x.com", ErrEmailTooLong},
	}

	for _, tc := range cases {
		if err := ValidateEmail(tc.email); !errors.Is(err, tc.want) {
			t.Errorf("ValidateEmail(%q) = %v, want %v", tc.email, err, tc.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("hunter2"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePassword(""); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
}

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle(""); err != nil {
		t.Errorf("empty title should be valid, got %v", err)
	}
	if err := ValidateTitle("Road trip 2024"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateTitle(strings.Repeat("t", MaxTitleLength+1)); !errors.Is(err, ErrTitleTooLong) {
		t.Errorf("expected ErrTitleTooLong, got %v", err)
	}
}
