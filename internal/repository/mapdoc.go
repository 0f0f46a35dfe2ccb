package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tripmap/tripmap/internal/model"
)

// Common errors for map collection operations.
var (
	ErrMapNotFound = errors.New("map not found")
)

// GetMapByID retrieves a map document by id with no visibility
// filtering. Access decisions belong to the sharing resolver.
func (r *Repository) GetMapByID(id string) (*model.MapDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.maps {
		if m.ID == id {
			return m.Clone(), nil
		}
	}
	return nil, ErrMapNotFound
}

// ListMapsOwnedBy returns the user's maps, most recently updated
// first.
func (r *Repository) ListMapsOwnedBy(email string) []*model.MapDocument {
	email = NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	var owned []*model.MapDocument
	for _, m := range r.maps {
		if m.UserEmail == email {
			owned = append(owned, m.Clone())
		}
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})
	return owned
}

// SaveMap persists a map document and returns the stored copy.
//
// A document without an id is new: it gets a random identifier and is
// appended to the collection. An existing id has its title, states and
// visibility overwritten in place with UpdatedAt refreshed. Either way
// the entire collection is written back to the store. There is no
// delete operation.
func (r *Repository) SaveMap(doc *model.MapDocument) (*model.MapDocument, error) {
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if doc.ID == "" {
		saved := doc.Clone()
		saved.ID = uuid.NewString()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		r.maps = append(r.maps, saved)

		if err := r.flushMapsLocked(); err != nil {
			r.maps = r.maps[:len(r.maps)-1]
			return nil, err
		}
		return saved.Clone(), nil
	}

	for _, m := range r.maps {
		if m.ID == doc.ID {
			m.Title = doc.Title
			m.States = append([]string(nil), doc.States...)
			m.IsPublic = doc.IsPublic
			m.UpdatedAt = now

			if err := r.flushMapsLocked(); err != nil {
				return nil, err
			}
			return m.Clone(), nil
		}
	}
	return nil, ErrMapNotFound
}

// AllMaps returns a snapshot of the loaded collection.
func (r *Repository) AllMaps() []*model.MapDocument {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.MapDocument, 0, len(r.maps))
	for _, m := range r.maps {
		out = append(out, m.Clone())
	}
	return out
}

// flushMapsLocked writes the whole collection back. Callers hold r.mu.
func (r *Repository) flushMapsLocked() error {
	if err := r.store.SetJSON(mapsKey, r.maps); err != nil {
		return fmt.Errorf("persist map collection: %w", err)
	}
	return nil
}
