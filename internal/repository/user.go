package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tripmap/tripmap/internal/model"
)

// Common errors for user directory operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// NormalizeEmail lowercases and trims an address. All directory
// lookups and uniqueness checks go through this, so two spellings of
// the same address cannot create two accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new user with the given credentials.
// Returns ErrEmailExists when the address is already registered.
//
// The duplicate scan and the list write-back are one critical section
// under r.mu; without it two concurrent registrations of the same
// address could both pass the scan.
func (r *Repository) CreateUser(email, password string) (*model.User, error) {
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for _, u := range users {
		if u.Email == email {
			return nil, ErrEmailExists
		}
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	users = append(users, user)

	if err := r.saveUsers(users); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(email string) (*model.User, error) {
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.loadUsers() {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// GetUserByToken retrieves the user holding the given unredeemed
// login token without consuming it. Redemption goes through
// RedeemToken so the find and the clear cannot interleave.
func (r *Repository) GetUserByToken(token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.loadUsers() {
		if u.LoginToken == token {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// RedeemToken finds the user holding token and clears it, one
// find-and-clear critical section under r.mu. Exactly one of any set
// of concurrent redemptions of the same token gets the user; the rest
// see ErrUserNotFound. The returned record has the token already
// cleared.
func (r *Repository) RedeemToken(token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for _, u := range users {
		if u.LoginToken == token {
			u.LoginToken = ""
			if err := r.saveUsers(users); err != nil {
				return nil, err
			}
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

// VerifyCredentials checks an email/password pair. Both an unknown
// address and a wrong password return ErrInvalidCredentials so a login
// form cannot distinguish the two.
func (r *Repository) VerifyCredentials(email, password string) (*model.User, error) {
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.loadUsers() {
		if u.Email == email && u.Password == password {
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// GetOrCreateUserByEmail gets a user by email, creating a passwordless
// record when the address has never been seen. This is how a first
// magic-link request provisions an account.
func (r *Repository) GetOrCreateUserByEmail(email string) (*model.User, error) {
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	users = append(users, user)

	if err := r.saveUsers(users); err != nil {
		return nil, err
	}
	return user, nil
}

// SetLoginToken stores a fresh single-use token on the user record,
// overwriting any prior unredeemed token.
func (r *Repository) SetLoginToken(userID, token string) error {
	return r.updateUser(userID, func(u *model.User) {
		u.LoginToken = token
	})
}

// ClearLoginToken consumes the user's login token.
func (r *Repository) ClearLoginToken(userID string) error {
	return r.updateUser(userID, func(u *model.User) {
		u.LoginToken = ""
	})
}

// updateUser applies fn to the matching record and writes the full
// list back, holding r.mu across the whole read-modify-write.
func (r *Repository) updateUser(userID string, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.loadUsers()
	for _, u := range users {
		if u.ID == userID {
			fn(u)
			return r.saveUsers(users)
		}
	}
	return ErrUserNotFound
}

// loadUsers reads the full user list from the store. A missing or
// malformed list reads as empty. Callers hold r.mu.
func (r *Repository) loadUsers() []*model.User {
	var users []*model.User
	r.store.GetJSON(usersKey, &users)
	return users
}

func (r *Repository) saveUsers(users []*model.User) error {
	if err := r.store.SetJSON(usersKey, users); err != nil {
		return fmt.Errorf("persist user list: %w", err)
	}
	return nil
}
