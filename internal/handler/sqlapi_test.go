package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tripmap/tripmap/internal/sqlstore"
)

func newSQLAPIRouter(t *testing.T) *chi.Mux {
	t.Helper()

	st, err := sqlstore.Open(filepath.Join(t.TempDir(), "maps.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	h := NewSQLAPIHandler(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/maps", h.CreateMap)
		r.Put("/maps/{id}", h.UpdateMap)
		r.Get("/maps/{id}", h.GetMap)
		r.Get("/users/{userID}/maps", h.ListUserMaps)
		r.Get("/health-check", h.HealthCheck)
	})
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSQLAPI_AuthAndMaps(t *testing.T) {
	r := newSQLAPIRouter(t)

	rec := postJSON(t, r, "/api/auth/register", map[string]string{"email": "a@x.com", "password": "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil || reg.ID == 0 {
		t.Fatalf("unexpected register body %s", rec.Body.String())
	}

	rec = postJSON(t, r, "/api/auth/register", map[string]string{"email": "a@x.com", "password": "pw"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}

	rec = postJSON(t, r, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec = postJSON(t, r, "/api/maps", map[string]any{
		"userId": reg.ID, "title": "Trip", "states": []string{"Iowa"}, "isPublic": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create map status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/maps/1", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get map status = %d", rec.Code)
	}
	var m sqlstore.MapRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode map: %v", err)
	}
	if m.ID != created.ID || m.CreatorEmail != "a@x.com" || len(m.States) != 1 {
		t.Fatalf("unexpected map %+v", m)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/maps/999", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing map status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/1/maps", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list maps status = %d", rec.Code)
	}
	var list []sqlstore.MapRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected list body %s", rec.Body.String())
	}
}
