// Package cache holds short-lived rendered responses.
//
// Entries expire after their TTL and are never invalidated by writes, so a
// reader may see data that is up to one TTL old.
package cache

import (
	"context"
	"time"
)

// Store is a byte-value cache with per-entry TTL.
type Store interface {
	// Get returns (nil, false, nil) on a miss or an expired entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Flush drops every entry owned by this store.
	Flush(ctx context.Context) error
	Close() error
}
