// Package cache stores grown trees and rendered artifacts between runs.
//
// A growth run is fully determined by its parameters (including the seed),
// so the tree it produces can be cached under a hash of those parameters and
// every artifact rendered from it under the tree hash plus render options.
//
// Three backends implement [Cache]:
//   - [FileCache] for the CLI, one JSON file per entry
//   - [RedisCache] shared between API replicas
//   - [NullCache] when caching is disabled
//
// Keys are produced by a [Keyer]; [ScopedKeyer] prefixes them so several
// tenants can share one backend.
package cache

import (
	"context"
	"time"
)

// TTLs for the cached stages.
const (
	TTLTree     = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the cache.
	Close() error
}
