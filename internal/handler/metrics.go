package handler

import (
	"fmt"
	"net/http"

	"github.com/tripmap/tripmap/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "tripmap_shared_view_cache_hits_total %d\n", snap.SharedViewCacheHits)
	writeMetric(w, "tripmap_shared_view_cache_misses_total %d\n", snap.SharedViewCacheMisses)
	writeMetric(w, "tripmap_shared_views_denied_total %d\n", snap.SharedViewsDenied)
	writeMetric(w, "tripmap_shared_view_duration_seconds_count %d\n", snap.SharedViewDurationCount)
	writeMetric(w, "tripmap_shared_view_duration_seconds_sum %.6f\n", float64(snap.SharedViewDurationTotalNs)/1e9)

	writeMetric(w, "tripmap_maps_saved_total %d\n", snap.MapsSaved)
	writeMetric(w, "tripmap_states_toggled_total %d\n", snap.StatesToggled)

	writeMetric(w, "tripmap_logins_total{status=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "tripmap_logins_total{status=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "tripmap_magic_links_issued_total %d\n", snap.MagicLinksIssued)
	writeMetric(w, "tripmap_magic_links_redeemed_total %d\n", snap.MagicLinksRedeemed)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
