package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tripmap/tripmap/internal/auth"
	"github.com/tripmap/tripmap/internal/geo"
	"github.com/tripmap/tripmap/internal/handler/dto"
	"github.com/tripmap/tripmap/internal/metrics"
	"github.com/tripmap/tripmap/internal/middleware"
	"github.com/tripmap/tripmap/internal/repository"
	"github.com/tripmap/tripmap/internal/service"
	"github.com/tripmap/tripmap/internal/sharing"
	"github.com/tripmap/tripmap/internal/store"
)

type testApp struct {
	router  *chi.Mux
	session *auth.Session
	svc     *service.MapService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(filepath.Join(t.TempDir(), "profile.json"), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	repo := repository.New(st)
	sess := auth.NewSession(st, repo, logger)
	issuer := auth.NewMagicLinkIssuer(repo, "http://app.test")
	resolver := sharing.NewResolver(repo)
	recorder := metrics.NewInMemory()
	svc := service.NewMapService(repo, resolver, nil, st, "http://app.test", recorder)

	authHandler := NewAuthHandler(sess, issuer, svc, nil, 0, recorder, logger)
	mapHandler := NewMapHandler(svc, logger)
	sharedHandler := NewSharedHandler(svc, logger)
	metricsHandler := NewMetricsHandler(recorder)

	r := chi.NewRouter()
	r.Use(middleware.Session(sess))
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/session", authHandler.Session)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/magic-link", authHandler.MagicLink)
			r.Get("/redeem", authHandler.Redeem)
		})
		r.Route("/map", func(r chi.Router) {
			r.Get("/", mapHandler.Get)
			r.Put("/", mapHandler.Update)
			r.Post("/toggle", mapHandler.Toggle)
			r.Post("/reset", mapHandler.Reset)
			r.Post("/new", mapHandler.New)
			r.Post("/save", mapHandler.Save)
			r.Post("/share", mapHandler.Share)
		})
		r.Get("/maps", mapHandler.List)
		r.Get("/shared/{mapID}", sharedHandler.Open)
	})
	r.Get("/metrics", metricsHandler.Metrics)

	return &testApp{router: r, session: sess, svc: svc}
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/v1/session", nil)
	if sess := decode[dto.SessionResponse](t, rec); sess.Authenticated {
		t.Fatal("fresh app should be anonymous")
	}

	rec = app.do(t, http.MethodPost, "/api/v1/auth/register", dto.CredentialsRequest{Email: "alice@example.com", Password: "pw"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodPost, "/api/v1/auth/register", dto.CredentialsRequest{Email: "alice@example.com", Password: "other"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/v1/auth/login", dto.CredentialsRequest{Email: "alice@example.com", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/v1/auth/login", dto.CredentialsRequest{Email: "alice@example.com", Password: "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.do(t, http.MethodGet, "/api/v1/session", nil)
	sess := decode[dto.SessionResponse](t, rec)
	if !sess.Authenticated || sess.Email != "alice@example.com" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestMagicLinkFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/magic-link", dto.MagicLinkRequest{Email: "bob@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("magic-link status = %d: %s", rec.Code, rec.Body.String())
	}
	link := decode[dto.MagicLinkResponse](t, rec).LoginLink
	idx := strings.Index(link, "?token=")
	if idx < 0 {
		t.Fatalf("link %q has no token", link)
	}
	token := link[idx+len("?token="):]

	rec = app.do(t, http.MethodGet, "/api/v1/auth/redeem?token="+token, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("redeem status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("redeem should strip the token and land on /, got %q", loc)
	}
	if cur := app.session.Current(); cur == nil || cur.Email != "bob@example.com" {
		t.Fatalf("session not established: %+v", cur)
	}

	// A consumed token does not authenticate again.
	if err := app.session.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	rec = app.do(t, http.MethodGet, "/api/v1/auth/redeem?token="+token, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("second redeem status = %d", rec.Code)
	}
	if app.session.Current() != nil {
		t.Fatal("consumed token must not authenticate")
	}
}

func TestMapEditEndpoints(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/map/toggle", dto.ToggleStateRequest{State: "Narnia"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid state status = %d", rec.Code)
	}

	rec = app.do(t, http.MethodPost, "/api/v1/map/toggle", dto.ToggleStateRequest{State: "Utah"})
	view := decode[dto.EditResponse](t, rec)
	if len(view.States) != 1 || view.Stats.Count != 1 || view.Stats.Percentage != 2 {
		t.Fatalf("unexpected view %+v", view)
	}

	title := "Western loop"
	public := true
	rec = app.do(t, http.MethodPut, "/api/v1/map/", dto.UpdateMapRequest{Title: &title, IsPublic: &public})
	view = decode[dto.EditResponse](t, rec)
	if view.Title != "Western loop" || !view.IsPublic {
		t.Fatalf("update not applied: %+v", view)
	}

	rec = app.do(t, http.MethodPost, "/api/v1/map/reset", nil)
	if view = decode[dto.EditResponse](t, rec); len(view.States) != 0 {
		t.Fatalf("reset left states %v", view.States)
	}
}

func TestSaveAndShare(t *testing.T) {
	app := newTestApp(t)

	app.do(t, http.MethodPost, "/api/v1/map/toggle", dto.ToggleStateRequest{State: "Maine"})

	rec := app.do(t, http.MethodPost, "/api/v1/map/save", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous save status = %d", rec.Code)
	}

	app.do(t, http.MethodPost, "/api/v1/auth/register", dto.CredentialsRequest{Email: "carol@example.com", Password: "pw"})

	rec = app.do(t, http.MethodPost, "/api/v1/map/save", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	saved := decode[dto.MapResponse](t, rec)
	if saved.ID == "" || saved.Title != service.DefaultTitle {
		t.Fatalf("unexpected saved map %+v", saved)
	}

	rec = app.do(t, http.MethodPost, "/api/v1/map/share", nil)
	share := decode[dto.ShareLinkResponse](t, rec)
	if !strings.Contains(share.URL, "/shared?mapId="+saved.ID) {
		t.Fatalf("unexpected share url %q", share.URL)
	}

	rec = app.do(t, http.MethodGet, "/api/v1/maps", nil)
	list := decode[dto.MapListResponse](t, rec)
	if len(list.Data) != 1 || list.Data[0].ID != saved.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	// Logging in again returns the owned maps with the session.
	app.do(t, http.MethodPost, "/api/v1/auth/logout", nil)
	rec = app.do(t, http.MethodPost, "/api/v1/auth/login", dto.CredentialsRequest{Email: "carol@example.com", Password: "pw"})
	relogin := decode[dto.SessionResponse](t, rec)
	if len(relogin.Maps) != 1 || relogin.Maps[0].ID != saved.ID {
		t.Fatalf("login response missing owned maps: %+v", relogin)
	}

	// Sharing with nothing selected is refused.
	app.do(t, http.MethodPost, "/api/v1/map/new", nil)
	rec = app.do(t, http.MethodPost, "/api/v1/map/share", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty share status = %d", rec.Code)
	}
}

func TestSharedEndpoint(t *testing.T) {
	app := newTestApp(t)

	app.do(t, http.MethodPost, "/api/v1/auth/register", dto.CredentialsRequest{Email: "dave@example.com", Password: "pw"})
	app.do(t, http.MethodPost, "/api/v1/map/toggle", dto.ToggleStateRequest{State: "Ohio"})

	public := true
	app.do(t, http.MethodPut, "/api/v1/map/", dto.UpdateMapRequest{IsPublic: &public})
	rec := app.do(t, http.MethodPost, "/api/v1/map/save", nil)
	saved := decode[dto.MapResponse](t, rec)

	// Owner sees their own map as editable.
	rec = app.do(t, http.MethodGet, "/api/v1/shared/"+saved.ID, nil)
	shared := decode[dto.SharedMapResponse](t, rec)
	if shared.Visibility != "editable" || shared.ViewOnly {
		t.Fatalf("owner visibility = %+v", shared)
	}

	// Anonymous viewers get a read-only copy of a public map.
	if err := app.session.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	rec = app.do(t, http.MethodGet, "/api/v1/shared/"+saved.ID, nil)
	shared = decode[dto.SharedMapResponse](t, rec)
	if shared.Visibility != "read_only" || !shared.ViewOnly || shared.Map.ID != saved.ID {
		t.Fatalf("anonymous view %+v", shared)
	}

	rec = app.do(t, http.MethodGet, "/api/v1/shared/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing map status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	app.do(t, http.MethodPost, "/api/v1/map/toggle", dto.ToggleStateRequest{State: "Iowa"})

	rec := app.do(t, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tripmap_states_toggled_total 1") {
		t.Fatalf("metrics missing toggle counter: %s", rec.Body.String())
	}
}

func TestBoundariesEndpoint(t *testing.T) {
	// Fetch behavior is covered in the geo package; here only the
	// handler's error mapping.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	h := NewBoundariesHandler(geo.NewClient(upstream.URL, nil))
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/boundaries", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
