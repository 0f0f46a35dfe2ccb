// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/tripmap/tripmap/internal/model"
)

// CredentialsRequest is the body for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MagicLinkRequest is the body for requesting a login link.
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// UpdateMapRequest is the body for PUT /api/v1/map. Absent fields are
// left unchanged.
type UpdateMapRequest struct {
	Title    *string `json:"title,omitempty"`
	IsPublic *bool   `json:"isPublic,omitempty"`
}

// ToggleStateRequest is the body for toggling one state.
type ToggleStateRequest struct {
	State string `json:"state"`
}

// SessionResponse describes the current authentication state. Maps is
// the owned-maps listing, refreshed on every transition to
// Authenticated so the UI can fill its saved-maps panel immediately.
type SessionResponse struct {
	Authenticated bool          `json:"authenticated"`
	UserID        string        `json:"userId,omitempty"`
	Email         string        `json:"email,omitempty"`
	Maps          []MapResponse `json:"maps,omitempty"`
}

// EditResponse is the active edit: what the map page renders.
type EditResponse struct {
	MapID    string             `json:"mapId,omitempty"`
	Title    string             `json:"title"`
	States   []string           `json:"states"`
	IsPublic bool               `json:"isPublic"`
	Stats    model.VisitedStats `json:"stats"`
}

// MapResponse is a saved map document.
type MapResponse struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	States    []string           `json:"states"`
	IsPublic  bool               `json:"isPublic"`
	OwnerID   string             `json:"userId"`
	Stats     model.VisitedStats `json:"stats"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SharedMapResponse is a map opened through a share link. ViewOnly
// tells the UI to disable every mutating control.
type SharedMapResponse struct {
	Visibility string      `json:"visibility"`
	ViewOnly   bool        `json:"viewOnly"`
	Map        MapResponse `json:"map"`
}

// SharedDeniedResponse is the body for an unavailable shared map. The
// create path points the visitor at starting a map of their own.
type SharedDeniedResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	CreateURL string `json:"createUrl"`
}

// MapListResponse is a list of saved maps.
type MapListResponse struct {
	Data []MapResponse `json:"data"`
}

// ShareLinkResponse carries a freshly built share URL.
type ShareLinkResponse struct {
	URL string `json:"url"`
}

// MagicLinkResponse carries a freshly issued login URL. The link is
// returned to the caller instead of being emailed.
type MagicLinkResponse struct {
	LoginLink string `json:"loginLink"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToMapResponse converts a map document to its API shape.
func ToMapResponse(doc *model.MapDocument) MapResponse {
	states := doc.States
	if states == nil {
		states = []string{}
	}
	return MapResponse{
		ID:        doc.ID,
		Title:     doc.Title,
		States:    states,
		IsPublic:  doc.IsPublic,
		OwnerID:   doc.UserID,
		Stats:     model.StatsFor(doc.States),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// ToMapListResponse converts a slice of documents.
func ToMapListResponse(docs []*model.MapDocument) MapListResponse {
	responses := make([]MapResponse, len(docs))
	for i, doc := range docs {
		responses[i] = ToMapResponse(doc)
	}
	return MapListResponse{Data: responses}
}
