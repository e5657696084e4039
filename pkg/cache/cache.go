// Package cache stores pagination results keyed by document content.
//
// Three backends implement [Cache]: [NullCache] (disabled), [FileCache]
// (one JSON file per entry, for the CLI) and [RedisCache] (shared between
// processes). Keys come from a [Keyer]; wrap one in [NewScopedKeyer] to give
// a tenant or workspace its own namespace.
package cache

import (
	"context"
	"errors"
	"time"
)

// TTLLayout is how long a paginated document stays cached.
const TTLLayout = 7 * 24 * time.Hour

// ErrNetwork is returned by backends that reach the cache over the network
// when the round trip fails. Callers treat it as a miss.
var ErrNetwork = errors.New("cache network error")

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

// LayoutKeyOpts are the settings that change a pagination result for the
// same input document.
type LayoutKeyOpts struct {
	Mode      string  `json:"mode"`
	Page      any     `json:"page"`
	Oracle    any     `json:"oracle"`
	MinHeight float64 `json:"min_height"`
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey is the key of a paginated document.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the stock keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer. The format is "layout:<sha256>".
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}
