package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SharedViewCacheHits       uint64
	SharedViewCacheMisses     uint64
	SharedViewsDenied         uint64
	SharedViewDurationCount   uint64
	SharedViewDurationTotalNs int64
	MapsSaved                 uint64
	StatesToggled             uint64
	LoginsSucceeded           uint64
	LoginsFailed              uint64
	MagicLinksIssued          uint64
	MagicLinksRedeemed        uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	sharedViewCacheHits       uint64
	sharedViewCacheMisses     uint64
	sharedViewsDenied         uint64
	sharedViewDurationCount   uint64
	sharedViewDurationTotalNs int64
	mapsSaved                 uint64
	statesToggled             uint64
	loginsSucceeded           uint64
	loginsFailed              uint64
	magicLinksIssued          uint64
	magicLinksRedeemed        uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		SharedViewCacheHits:       atomic.LoadUint64(&m.sharedViewCacheHits),
		SharedViewCacheMisses:     atomic.LoadUint64(&m.sharedViewCacheMisses),
		SharedViewsDenied:         atomic.LoadUint64(&m.sharedViewsDenied),
		SharedViewDurationCount:   atomic.LoadUint64(&m.sharedViewDurationCount),
		SharedViewDurationTotalNs: atomic.LoadInt64(&m.sharedViewDurationTotalNs),
		MapsSaved:                 atomic.LoadUint64(&m.mapsSaved),
		StatesToggled:             atomic.LoadUint64(&m.statesToggled),
		LoginsSucceeded:           atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:              atomic.LoadUint64(&m.loginsFailed),
		MagicLinksIssued:          atomic.LoadUint64(&m.magicLinksIssued),
		MagicLinksRedeemed:        atomic.LoadUint64(&m.magicLinksRedeemed),
	}
}

// IncSharedViewCacheHit increments the shared-view cache hit counter.
func (m *InMemoryRecorder) IncSharedViewCacheHit() {
	atomic.AddUint64(&m.sharedViewCacheHits, 1)
}

// IncSharedViewCacheMiss increments the shared-view cache miss counter.
func (m *InMemoryRecorder) IncSharedViewCacheMiss() {
	atomic.AddUint64(&m.sharedViewCacheMisses, 1)
}

// IncSharedViewDenied increments the denied shared-view counter.
func (m *InMemoryRecorder) IncSharedViewDenied() {
	atomic.AddUint64(&m.sharedViewsDenied, 1)
}

// ObserveSharedViewDuration records shared-view resolution duration.
func (m *InMemoryRecorder) ObserveSharedViewDuration(duration time.Duration) {
	atomic.AddUint64(&m.sharedViewDurationCount, 1)
	atomic.AddInt64(&m.sharedViewDurationTotalNs, duration.Nanoseconds())
}

// IncMapSaved increments the saved-map counter.
func (m *InMemoryRecorder) IncMapSaved() {
	atomic.AddUint64(&m.mapsSaved, 1)
}

// IncStateToggled increments the toggled-state counter.
func (m *InMemoryRecorder) IncStateToggled() {
	atomic.AddUint64(&m.statesToggled, 1)
}

// IncLoginSucceeded increments the successful-login counter.
func (m *InMemoryRecorder) IncLoginSucceeded() {
	atomic.AddUint64(&m.loginsSucceeded, 1)
}

// IncLoginFailed increments the failed-login counter.
func (m *InMemoryRecorder) IncLoginFailed() {
	atomic.AddUint64(&m.loginsFailed, 1)
}

// IncMagicLinkIssued increments the issued magic-link counter.
func (m *InMemoryRecorder) IncMagicLinkIssued() {
	atomic.AddUint64(&m.magicLinksIssued, 1)
}

// IncMagicLinkRedeemed increments the redeemed magic-link counter.
func (m *InMemoryRecorder) IncMagicLinkRedeemed() {
	atomic.AddUint64(&m.magicLinksRedeemed, 1)
}
