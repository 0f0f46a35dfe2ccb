package model

import "time"

// MapDocument is a saved travel map: a titled set of visited states
// owned by exactly one user. Documents are never physically deleted;
// saves overwrite title, states and visibility in place.
type MapDocument struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail"`
	Title     string    `json:"title"`
	States    []string  `json:"states"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasState reports whether the document marks the given state visited.
func (m *MapDocument) HasState(name string) bool {
	for _, s := range m.States {
		if s == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate edits without
// aliasing the repository's in-memory collection.
func (m *MapDocument) Clone() *MapDocument {
	dup := *m
	dup.States = append([]string(nil), m.States...)
	return &dup
}
