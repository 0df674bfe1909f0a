// Package cache stores rendered artifacts (SVG and DOT exports of boards)
// keyed by a hash of the world they were rendered from.
//
// Rendering a board through Graphviz is the only expensive operation in
// featuremap; the CLI export command and the HTTP server both consult a
// [Cache] before rendering. Two boards with identical content share an entry.
//
// Implementations:
//   - [FileCache]: JSON entry files under the user cache directory
//   - [RedisCache]: shared cache for `featuremap serve` deployments
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as ok == false with
	// a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the resources held by the cache.
	Close() error
}
