// Package geo fetches the US-state GeoJSON boundary data consumed by
// the map renderer.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// ErrFetchFailed reports that boundary data could not be loaded. The
// caller shows a dismissible banner and simply does not render the
// choropleth layer; nothing else is affected.
var ErrFetchFailed = errors.New("failed to load boundary data")

// maxBoundaryBytes caps the accepted payload size. The us-states
// collection is ~90KB; anything near this limit is not boundary data.
const maxBoundaryBytes = 16 << 20

// Boundaries is a fetched GeoJSON FeatureCollection plus the feature
// names extracted from it.
type Boundaries struct {
	Raw   json.RawMessage
	Names []string
}

// Client fetches and memoizes boundary data. There is deliberately no
// timeout or cancellation policy of its own: a slow source keeps only
// the initiating request waiting, and the next request retries.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.Mutex
	cached *Boundaries
}

// NewClient creates a boundary-data client for the given source URL.
func NewClient(url string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Boundaries returns the boundary collection, fetching it on first
// use and serving the in-memory copy afterwards. Failures are never
// cached; every call after a failure retries the source.
func (c *Client) Boundaries(ctx context.Context) (*Boundaries, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached, nil
	}

	b, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("boundary fetch failed", "url", c.url, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	c.cached = b
	c.logger.Info("boundary data loaded", "features", len(b.Names))
	return b, nil
}

func (c *Client) fetch(ctx context.Context) (*Boundaries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch boundaries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBoundaryBytes))
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}

	var collection struct {
		Features []struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("decode boundaries: %w", err)
	}
	if len(collection.Features) == 0 {
		return nil, errors.New("boundary data has no features")
	}

	names := make([]string, 0, len(collection.Features))
	for _, f := range collection.Features {
		names = append(names, f.Properties.Name)
	}

	return &Boundaries{Raw: raw, Names: names}, nil
}
