// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Shared-view metrics
	IncSharedViewCacheHit()
	IncSharedViewCacheMiss()
	IncSharedViewDenied()
	ObserveSharedViewDuration(duration time.Duration)

	// Map management metrics
	IncMapSaved()
	IncStateToggled()

	// Auth metrics
	IncLoginSucceeded()
	IncLoginFailed()
	IncMagicLinkIssued()
	IncMagicLinkRedeemed()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
