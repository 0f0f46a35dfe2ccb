package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tripmap/tripmap/internal/auth"
	"github.com/tripmap/tripmap/internal/handler/dto"
	"github.com/tripmap/tripmap/internal/middleware"
	"github.com/tripmap/tripmap/internal/service"
)

// MapHandler handles the active map edit and saved-map endpoints.
type MapHandler struct {
	svc    *service.MapService
	logger *slog.Logger
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(svc *service.MapService, logger *slog.Logger) *MapHandler {
	return &MapHandler{svc: svc, logger: logger}
}

// Get handles GET /api/v1/map.
func (h *MapHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toEditResponse(h.svc.Edit()))
}

// Update handles PUT /api/v1/map: title and visibility changes to the
// active edit.
func (h *MapHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Title != nil {
		if err := middleware.ValidateTitle(*req.Title); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_TITLE", err.Error())
			return
		}
		if err := h.svc.SetTitle(*req.Title); err != nil {
			h.internalError(w, err)
			return
		}
	}
	if req.IsPublic != nil {
		if err := h.svc.SetPublic(*req.IsPublic); err != nil {
			h.internalError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toEditResponse(h.svc.Edit()))
}

// Toggle handles POST /api/v1/map/toggle.
func (h *MapHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req dto.ToggleStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	view, err := h.svc.Toggle(req.State)
	if err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			writeError(w, http.StatusBadRequest, "INVALID_STATE", "Unknown state name")
			return
		}
		h.internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEditResponse(view))
}

// Reset handles POST /api/v1/map/reset.
func (h *MapHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reset()
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEditResponse(view))
}

// New handles POST /api/v1/map/new: detach from any saved map and
// start over.
func (h *MapHandler) New(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.NewEdit()
	if err != nil {
		h.internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEditResponse(view))
}

// Save handles POST /api/v1/map/save.
func (h *MapHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	doc, err := h.svc.Save(r.Context(), sess)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Log in to save your map")
			return
		}
		h.internalError(w, err)
		return
	}

	h.logger.Info("map_saved", "map_id", doc.ID, "states", len(doc.States))
	writeJSON(w, http.StatusOK, dto.ToMapResponse(doc))
}

// Share handles POST /api/v1/map/share.
func (h *MapHandler) Share(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())

	link, err := h.svc.ShareLink(r.Context(), sess)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoStatesSelected):
			writeError(w, http.StatusUnprocessableEntity, "EMPTY_MAP", "Select at least one state before sharing")
		case errors.Is(err, auth.ErrNotAuthenticated):
			writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Log in to share your map")
		default:
			h.internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ShareLinkResponse{URL: link})
}

// List handles GET /api/v1/maps.
func (h *MapHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "AUTH_REQUIRED", "Log in to list your maps")
		return
	}
	writeJSON(w, http.StatusOK, dto.ToMapListResponse(h.svc.OwnedMaps(sess)))
}

func (h *MapHandler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

func toEditResponse(view service.EditView) dto.EditResponse {
	states := view.States
	if states == nil {
		states = []string{}
	}
	return dto.EditResponse{
		MapID:    view.MapID,
		Title:    view.Title,
		States:   states,
		IsPublic: view.IsPublic,
		Stats:    view.Stats,
	}
}
