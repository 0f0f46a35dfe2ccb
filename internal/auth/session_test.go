package auth

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/tripmap/tripmap/internal/repository"
	"github.com/tripmap/tripmap/internal/store"
)

func newTestEnv(t *testing.T) (*store.Store, *repository.Repository) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "local.json"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s, repository.New(s)
}

func TestSession_RegisterThenLogin(t *testing.T) {
	s, repo := newTestEnv(t)
	sess := NewSession(s, repo, nil)

	if sess.Authenticated() {
		t.Fatal("fresh session should be anonymous")
	}

	identity, err := sess.Register("a@x.com", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if identity.Email != "a@x.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
	if !sess.Authenticated() {
		t.Fatal("register should authenticate")
	}

	if _, err := sess.Register("a@x.com", "pw2"); !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	if err := sess.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("logout should return to anonymous")
	}

	if _, err := sess.Login("a@x.com", "wrong"); !errors.Is(err, repository.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sess.Authenticated() {
		t.Fatal("failed login must stay anonymous")
	}

	if _, err := sess.Login("a@x.com", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := sess.Current(); got == nil || got.Email != "a@x.com" {
		t.Fatalf("unexpected session after login: %+v", got)
	}
}

func TestSession_ResumesPersistedIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")
	s, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	repo := repository.New(s)

	sess := NewSession(s, repo, nil)
	if _, err := sess.Register("a@x.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Restart: a new process over the same store resumes the session.
	s2, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	resumed := NewSession(s2, repository.New(s2), nil)
	if got := resumed.Current(); got == nil || got.Email != "a@x.com" {
		t.Fatalf("expected resumed session, got %+v", got)
	}

	if err := resumed.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	s3, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("reopen store after logout: %v", err)
	}
	if NewSession(s3, repository.New(s3), nil).Authenticated() {
		t.Fatal("logout must clear the persisted session")
	}
}

func TestSession_LoginWithToken(t *testing.T) {
	s, repo := newTestEnv(t)
	issuer := NewMagicLinkIssuer(repo, "http://localhost:8080")

	link, err := issuer.Issue("b@y.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	token := tokenFromLink(t, link)

	sess := NewSession(s, repo, nil)
	identity, err := sess.LoginWithToken(token)
	if err != nil {
		t.Fatalf("login with token: %v", err)
	}
	if identity.Email != "b@y.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}

	// Single use: the same token cannot authenticate twice.
	if _, err := sess.LoginWithToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}
