package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const sampleGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "properties": {"name": "California"}, "geometry": null},
		{"type": "Feature", "properties": {"name": "Texas"}, "geometry": null}
	]
}`

func TestClient_FetchAndMemoize(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(sampleGeoJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)

	b, err := c.Boundaries(context.Background())
	if err != nil {
		t.Fatalf("boundaries: %v", err)
	}
	if len(b.Names) != 2 || b.Names[0] != "California" {
		t.Fatalf("unexpected names %v", b.Names)
	}

	if _, err := c.Boundaries(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", hits)
	}
}

func TestClient_FailureRetriesNextCall(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleGeoJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)

	if _, err := c.Boundaries(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}

	// The failure is not sticky.
	if _, err := c.Boundaries(context.Background()); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not geojson</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Boundaries(context.Background()); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}
