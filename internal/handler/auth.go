package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tripmap/tripmap/internal/auth"
	"github.com/tripmap/tripmap/internal/cache"
	"github.com/tripmap/tripmap/internal/handler/dto"
	"github.com/tripmap/tripmap/internal/metrics"
	"github.com/tripmap/tripmap/internal/middleware"
	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/repository"
)

// MapLister supplies the owned-maps listing that rides along with
// every successful authentication.
type MapLister interface {
	OwnedMaps(sess *model.Session) []*model.MapDocument
}

// AuthHandler handles session and login endpoints.
type AuthHandler struct {
	sess    *auth.Session
	issuer  *auth.MagicLinkIssuer
	maps    MapLister
	cache   *cache.Cache // optional, may be nil
	limit   int
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. The cache enables the
// magic-link rate limit; pass nil to disable it.
func NewAuthHandler(sess *auth.Session, issuer *auth.MagicLinkIssuer, maps MapLister, cacheClient *cache.Cache, limit int, recorder metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		sess:    sess,
		issuer:  issuer,
		maps:    maps,
		cache:   cacheClient,
		limit:   limit,
		metrics: recorder,
		logger:  logger,
	}
}

// Session handles GET /api/v1/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	current := h.sess.Current()
	if current == nil {
		writeJSON(w, http.StatusOK, dto.SessionResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, h.sessionResponse(current))
}

// sessionResponse builds the authenticated-session payload, owned
// maps included.
func (h *AuthHandler) sessionResponse(sess *model.Session) dto.SessionResponse {
	resp := dto.SessionResponse{
		Authenticated: true,
		UserID:        sess.UserID,
		Email:         sess.Email,
	}
	if h.maps != nil {
		resp.Maps = dto.ToMapListResponse(h.maps.OwnedMaps(sess)).Data
	}
	return resp
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.sess.Register(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already exists")
			return
		}
		h.internalError(w, err)
		return
	}

	h.metrics.IncLoginSucceeded()
	h.logger.Info("user_registered", "email", sess.Email)
	writeJSON(w, http.StatusCreated, h.sessionResponse(sess))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.sess.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			h.metrics.IncLoginFailed()
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
			return
		}
		h.internalError(w, err)
		return
	}

	h.metrics.IncLoginSucceeded()
	writeJSON(w, http.StatusOK, h.sessionResponse(sess))
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Logout(); err != nil {
		h.internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MagicLink handles POST /api/v1/auth/magic-link. There is no mail
// delivery; the login URL comes back in the response body.
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	var req dto.MagicLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", err.Error())
		return
	}

	if h.cache != nil {
		allowed, err := h.cache.CheckMagicLinkLimit(r.Context(), clientIP(r), h.limit)
		if err != nil {
			// Fail open; the limiter is best effort.
			h.logger.Warn("magic-link rate limit check failed", "error", err)
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many login links requested")
			return
		}
	}

	link, err := h.issuer.Issue(req.Email)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.metrics.IncMagicLinkIssued()
	h.logger.Info("magic_link_issued", "email", req.Email)
	writeJSON(w, http.StatusOK, dto.MagicLinkResponse{LoginLink: link})
}

// Redeem handles GET /api/v1/auth/redeem?token=...
//
// The response is always a redirect to the app root so the token never
// stays in the address bar. An invalid or already used token redirects
// without authenticating.
func (h *AuthHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if _, err := h.sess.LoginWithToken(token); err != nil {
		h.logger.Warn("magic-link redemption failed", "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.metrics.IncMagicLinkRedeemed()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) decodeCredentials(w http.ResponseWriter, r *http.Request) (dto.CredentialsRequest, bool) {
	var req dto.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return req, false
	}
	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", err.Error())
		return req, false
	}
	if err := middleware.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_PASSWORD", err.Error())
		return req, false
	}
	return req, true
}

func (h *AuthHandler) internalError(w http.ResponseWriter, err error) {
	h.logger.Error("internal_error", "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}
