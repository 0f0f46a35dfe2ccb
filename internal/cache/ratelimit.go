package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// magicLinkLimitPrefix is the Redis key prefix for magic-link
	// issuance limits.
	magicLinkLimitPrefix = "ratelimit:magiclink:"

	// magicLinkWindow is the fixed window over which issuance is
	// counted per client.
	magicLinkWindow = time.Minute
)

// CheckMagicLinkLimit counts a magic-link issuance for the client and
// reports whether it stays within limit per minute. The counter is a
// fixed window: INCR plus an expiry set on first use. Redis errors
// fail open so an unavailable cache never blocks logins.
func (c *Cache) CheckMagicLinkLimit(ctx context.Context, clientIP string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	key := magicLinkLimitPrefix + hashIP(clientIP)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("failed to count magic-link issuance: %w", err)
	}
	if count == 1 {
		c.client.Expire(ctx, key, magicLinkWindow)
	}

	return count <= int64(limit), nil
}

// hashIP creates a truncated SHA256 hash of an IP address.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
