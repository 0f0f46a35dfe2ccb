package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripmap/tripmap/internal/auth"
	"github.com/tripmap/tripmap/internal/handler/dto"
	"github.com/tripmap/tripmap/internal/service"
	"github.com/tripmap/tripmap/internal/sharing"
)

// SharedHandler resolves maps opened through share links.
type SharedHandler struct {
	svc    *service.MapService
	logger *slog.Logger
}

// NewSharedHandler creates a new SharedHandler.
func NewSharedHandler(svc *service.MapService, logger *slog.Logger) *SharedHandler {
	return &SharedHandler{svc: svc, logger: logger}
}

// Open handles GET /api/v1/shared/{mapID}.
//
// A missing map and a private map viewed by a non-owner both produce
// the same 404, so a link leaks nothing about private maps.
func (h *SharedHandler) Open(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_MAP_ID", "Map ID is required")
		return
	}

	sess := auth.SessionFromContext(r.Context())

	vis, doc, err := h.svc.OpenShared(r.Context(), mapID, sess)
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.SharedDeniedResponse{
			Error:     "This map is not available",
			Code:      "MAP_NOT_FOUND",
			CreateURL: "/",
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.SharedMapResponse{
		Visibility: vis.String(),
		ViewOnly:   vis == sharing.ReadOnly,
		Map:        dto.ToMapResponse(doc),
	})
}
