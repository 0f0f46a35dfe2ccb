// Package sharing decides whether a requested map is viewable or
// editable by the current viewer.
package sharing

import (
	"errors"

	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/repository"
)

// Visibility is the outcome of resolving a map against a viewer.
type Visibility int

const (
	// Denied: the map does not exist, or it is private and the viewer
	// is not its owner. The two cases are indistinguishable on purpose
	// so a share link leaks nothing about private maps.
	Denied Visibility = iota
	// ReadOnly: a public map viewed by anyone but its owner,
	// anonymous viewers included. Mutating controls must be disabled.
	ReadOnly
	// Editable: the owner viewing their own map, public or not.
	Editable
)

// String returns the wire name of the visibility level.
func (v Visibility) String() string {
	switch v {
	case Editable:
		return "editable"
	case ReadOnly:
		return "read_only"
	default:
		return "denied"
	}
}

// ErrMapNotFoundOrPrivate is returned for any denied resolution.
var ErrMapNotFoundOrPrivate = errors.New("map not found or private")

// Resolver gates access to shared maps.
type Resolver struct {
	repo *repository.Repository
}

// NewResolver creates a Resolver over the map collection.
func NewResolver(repo *repository.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve determines the viewer's access to the requested map.
// Ownership is matched by email. On Denied the document is withheld
// and ErrMapNotFoundOrPrivate is returned.
func (r *Resolver) Resolve(mapID string, viewer *model.Session) (Visibility, *model.MapDocument, error) {
	doc, err := r.repo.GetMapByID(mapID)
	if err != nil {
		return Denied, nil, ErrMapNotFoundOrPrivate
	}

	if viewer != nil && viewer.Email == doc.UserEmail {
		return Editable, doc, nil
	}

	if doc.IsPublic {
		return ReadOnly, doc, nil
	}

	return Denied, nil, ErrMapNotFoundOrPrivate
}
