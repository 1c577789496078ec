// Package caching holds the keyed TTL cache the repositories read through.
// The cache only ever stores successfully fetched collections, never absence
// or error states, so a miss always falls through to the store.
package caching

import "context"

// Cache maps string keys to serialized collection snapshots with a fixed TTL
// window. Get and Set never fail: a backend problem degrades to a miss, and
// the caller re-reads the store.
//
// Invalidate removes every key containing the given substring, so one
// mutator can drop a whole family of derived keys (all "readings_map_*"
// aggregation snapshots, say) with a single call. InvalidateAll clears
// everything.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	Invalidate(ctx context.Context, pattern string)
	InvalidateAll(ctx context.Context)
	Kind() string
}
