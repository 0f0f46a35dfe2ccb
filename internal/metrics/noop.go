package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSharedViewCacheHit is a no-op.
func (n *NoopRecorder) IncSharedViewCacheHit() {}

// IncSharedViewCacheMiss is a no-op.
func (n *NoopRecorder) IncSharedViewCacheMiss() {}

// IncSharedViewDenied is a no-op.
func (n *NoopRecorder) IncSharedViewDenied() {}

// ObserveSharedViewDuration is a no-op.
func (n *NoopRecorder) ObserveSharedViewDuration(duration time.Duration) {}

// IncMapSaved is a no-op.
func (n *NoopRecorder) IncMapSaved() {}

// IncStateToggled is a no-op.
func (n *NoopRecorder) IncStateToggled() {}

// IncLoginSucceeded is a no-op.
func (n *NoopRecorder) IncLoginSucceeded() {}

// IncLoginFailed is a no-op.
func (n *NoopRecorder) IncLoginFailed() {}

// IncMagicLinkIssued is a no-op.
func (n *NoopRecorder) IncMagicLinkIssued() {}

// IncMagicLinkRedeemed is a no-op.
func (n *NoopRecorder) IncMagicLinkRedeemed() {}
