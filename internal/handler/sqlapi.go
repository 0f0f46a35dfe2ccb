package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tripmap/tripmap/internal/sqlstore"
)

// SQLAPIHandler serves the relational backend's REST surface. The
// routes, payloads and status codes predate the v1 API and are kept
// compatible with clients of the SQLite service.
type SQLAPIHandler struct {
	store  *sqlstore.Store
	logger *slog.Logger
}

// NewSQLAPIHandler creates a new SQLAPIHandler.
func NewSQLAPIHandler(store *sqlstore.Store, logger *slog.Logger) *SQLAPIHandler {
	return &SQLAPIHandler{store: store, logger: logger}
}

type sqlCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sqlMapPayload struct {
	UserID   int64    `json:"userId"`
	Title    string   `json:"title"`
	States   []string `json:"states"`
	IsPublic bool     `json:"isPublic"`
}

// Register handles POST /api/auth/register.
func (h *SQLAPIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req sqlCredentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	id, err := h.store.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, sqlstore.ErrEmailExists) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email already exists"})
			return
		}
		h.serverError(w, "Error creating user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// Login handles POST /api/auth/login.
func (h *SQLAPIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req sqlCredentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, sqlstore.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		h.serverError(w, "Error during login", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
}

// CreateMap handles POST /api/maps.
func (h *SQLAPIHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	var req sqlMapPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	id, err := h.store.CreateMap(r.Context(), req.UserID, req.Title, req.States, req.IsPublic)
	if err != nil {
		h.serverError(w, "Error saving map", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// UpdateMap handles PUT /api/maps/{id}.
func (h *SQLAPIHandler) UpdateMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mapID(w, r)
	if !ok {
		return
	}

	var req sqlMapPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := h.store.UpdateMap(r.Context(), id, req.Title, req.States, req.IsPublic); err != nil {
		if errors.Is(err, sqlstore.ErrMapNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Map not found"})
			return
		}
		h.serverError(w, "Error updating map", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetMap handles GET /api/maps/{id}.
func (h *SQLAPIHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mapID(w, r)
	if !ok {
		return
	}

	m, err := h.store.GetMap(r.Context(), id)
	if err != nil {
		if errors.Is(err, sqlstore.ErrMapNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Map not found"})
			return
		}
		h.serverError(w, "Error loading map", err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// ListUserMaps handles GET /api/users/{userID}/maps.
func (h *SQLAPIHandler) ListUserMaps(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid user id"})
		return
	}

	maps, err := h.store.ListUserMaps(r.Context(), userID)
	if err != nil {
		h.serverError(w, "Error loading maps", err)
		return
	}
	if maps == nil {
		maps = []*sqlstore.MapRecord{}
	}

	writeJSON(w, http.StatusOK, maps)
}

// HealthCheck handles GET /api/health-check.
func (h *SQLAPIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SQLAPIHandler) mapID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid map id"})
		return 0, false
	}
	return id, true
}

func (h *SQLAPIHandler) serverError(w http.ResponseWriter, message string, err error) {
	h.logger.Error("sql_api_error", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": message})
}
