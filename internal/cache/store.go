// Package cache provides the response cache sitting between the
// serving layer and the aggregation pipeline. Values are opaque byte
// slices, normally serialized response payloads.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Store is the state store injected into the serving layer.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores value under key for ttl. A non-positive ttl falls
	// back to the store default.
	Put(key string, value []byte, ttl time.Duration)

	// Get returns the value stored under key, or false when the key
	// is absent or has expired.
	Get(key string) ([]byte, bool)

	// Stats returns a snapshot of store activity.
	Stats() Stats

	// Flush drops every entry.
	Flush()
}

// Stats is a point-in-time snapshot of store activity.
type Stats struct {
	Entries    int   `json:"entries"`
	Compressed int   `json:"compressed"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Evictions  int64 `json:"evictions"`
}

// Key derives a fixed-length cache key from its parts, so keys built
// from raw query strings stay bounded.
func Key(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
