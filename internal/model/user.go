// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account in the local user directory.
//
// Credentials are stored as-is: the application is an intentionally
// insecure single-profile store and makes no attempt at hashing.
// LoginToken holds the current single-use magic-link token, or empty
// when no unredeemed link exists.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Password   string    `json:"password,omitempty"`
	LoginToken string    `json:"loginToken,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
