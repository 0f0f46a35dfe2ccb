// Package repository provides typed access to the documents held in
// the key-value store: the user directory and the map collection.
//
// Every mutation reads the full list, changes it in memory, and writes
// the full list back. There are no partial updates; the dataset is
// small and single-writer, so correctness wins over efficiency here.
// Upgrading this to fine-grained writes would change observable
// last-write-wins behavior and is deliberately not done.
package repository

import (
	"sync"

	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/store"
)

// Store keys. The names are the original profile's localStorage keys
// and are kept so an existing store file remains readable.
const (
	usersKey = "travelMapUsers"
	mapsKey  = "travelMapAllMaps"
)

// Repository provides user-directory and map-collection access over
// the key-value store.
//
// The map collection is loaded once at construction and held in memory
// for the process lifetime; the user list is re-read on every
// operation. Both behaviors are inherited from the original design.
type Repository struct {
	store *store.Store

	mu   sync.Mutex
	maps []*model.MapDocument
}

// New creates a Repository and loads the map collection.
func New(s *store.Store) *Repository {
	r := &Repository{store: s}

	var maps []*model.MapDocument
	if s.GetJSON(mapsKey, &maps) {
		r.maps = maps
	}

	return r
}
