// Package auth tracks the current authenticated identity and issues
// passwordless magic-link logins.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/repository"
	"github.com/tripmap/tripmap/internal/store"
)

// sessionKey is the store key mirroring the active session, inherited
// from the original profile format.
const sessionKey = "travelMapUser"

// Common errors for session operations.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidToken     = errors.New("invalid or already used login token")
)

// Session is a two-state machine: Anonymous or Authenticated. The
// authenticated identity is held in memory and mirrored to the store
// so a restart resumes where the profile left off.
type Session struct {
	store  *store.Store
	repo   *repository.Repository
	logger *slog.Logger

	mu      sync.Mutex
	current *model.Session
}

// NewSession creates the session tracker and resumes any persisted
// identity.
func NewSession(s *store.Store, repo *repository.Repository, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	sess := &Session{store: s, repo: repo, logger: logger}

	var cached model.Session
	if s.GetJSON(sessionKey, &cached) && cached.Email != "" {
		sess.current = &cached
		logger.Info("session resumed", "email", cached.Email)
	}

	return sess
}

// Current returns the authenticated identity, or nil when anonymous.
func (s *Session) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}
	dup := *s.current
	return &dup
}

// Authenticated reports whether an identity is active.
func (s *Session) Authenticated() bool {
	return s.Current() != nil
}

// Login transitions Anonymous -> Authenticated on a valid
// email/password pair. A failed login leaves the state untouched and
// returns repository.ErrInvalidCredentials for the form to display.
func (s *Session) Login(email, password string) (*model.Session, error) {
	user, err := s.repo.VerifyCredentials(email, password)
	if err != nil {
		return nil, err
	}
	return s.activate(user)
}

// Register creates the account and then behaves exactly as a login.
func (s *Session) Register(email, password string) (*model.Session, error) {
	user, err := s.repo.CreateUser(email, password)
	if err != nil {
		return nil, err
	}
	return s.activate(user)
}

// LoginWithToken redeems a single-use magic-link token. The find and
// the clear are one atomic repository operation, so presenting the
// same URL twice authenticates only once even under concurrent
// requests.
func (s *Session) LoginWithToken(token string) (*model.Session, error) {
	user, err := s.repo.RedeemToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.activate(user)
}

// Logout transitions to Anonymous and clears the persisted session.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.store.Remove(sessionKey); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}

	s.logger.Info("session ended")
	return nil
}

// activate records user as the authenticated identity and mirrors it
// to the store.
func (s *Session) activate(user *model.User) (*model.Session, error) {
	sess := &model.Session{UserID: user.ID, Email: user.Email}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = sess
	if err := s.store.SetJSON(sessionKey, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info("session started", "email", user.Email)
	dup := *sess
	return &dup, nil
}
