// Package provider is the byte store a store.Store keeps its RESP frames in.
//
// A provider hands back exactly what it was given. The store decodes whatever
// Get returns as one frame tree and deletes entries that fail to decode, so a
// provider that adds headers, compresses without restoring, or trims values
// will see every read turn into a miss.
//
// Each store owns the "<ns>:" prefix of the keyspace. Foreign values written
// under it are treated like any other undecodable entry.
package provider

import (
	"context"
	"time"
)

// Provider is a concurrency-safe byte store with per-entry TTLs.
type Provider interface {
	// Get reports a miss as (nil, false, nil). err is reserved for transport
	// or backend failures.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl (0 => no expiry, where supported). cost is a
	// hint for cost-aware caches. ok=false means the write was refused, for
	// example under memory pressure, and is not an error.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}

// MultiGetter is implemented by providers that can fetch many keys in one
// round trip. vals and found are index-aligned with keys.
type MultiGetter interface {
	GetMulti(ctx context.Context, keys []string) (vals [][]byte, found []bool, err error)
}
