package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/repository"
)

// MagicLinkIssuer generates and redeems single-use login tokens
// embedded in shareable URLs.
type MagicLinkIssuer struct {
	repo    *repository.Repository
	baseURL string
}

// NewMagicLinkIssuer creates an issuer that builds links against
// baseURL.
func NewMagicLinkIssuer(repo *repository.Repository, baseURL string) *MagicLinkIssuer {
	return &MagicLinkIssuer{repo: repo, baseURL: baseURL}
}

// Issue returns a login URL for email, provisioning an account when
// the address has never been seen. Issuing a new link invalidates any
// prior unredeemed token for that user.
func (i *MagicLinkIssuer) Issue(email string) (string, error) {
	user, err := i.repo.GetOrCreateUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("resolve user for magic link: %w", err)
	}

	token := uuid.NewString()
	if err := i.repo.SetLoginToken(user.ID, token); err != nil {
		return "", fmt.Errorf("store login token: %w", err)
	}

	return fmt.Sprintf("%s?token=%s", i.baseURL, token), nil
}

// Redeem consumes a token and returns its user. The repository clears
// the token in the same locked compound that finds it, so of any set
// of concurrent redemptions exactly one succeeds; the rest fail with
// ErrInvalidToken.
func (i *MagicLinkIssuer) Redeem(token string) (*model.User, error) {
	user, err := i.repo.RedeemToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}
