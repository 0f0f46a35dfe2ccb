package handler

import (
	"net/http"

	"github.com/tripmap/tripmap/internal/geo"
)

// BoundariesHandler serves the GeoJSON the map renderer draws.
type BoundariesHandler struct {
	client *geo.Client
}

// NewBoundariesHandler creates a new BoundariesHandler.
func NewBoundariesHandler(client *geo.Client) *BoundariesHandler {
	return &BoundariesHandler{client: client}
}

// Get handles GET /api/v1/boundaries. A failed upstream fetch is a 502;
// the client renders without the choropleth layer and retries later.
func (h *BoundariesHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.client.Boundaries(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "BOUNDARIES_UNAVAILABLE", "Boundary data could not be loaded")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Raw)
}
