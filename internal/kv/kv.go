// Package kv provides the TTL-aware key-value store used for first-seen
// memory, cluster memory, and the enrichment cache.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// Store is the persistence contract. Values are JSON blobs; every write
// carries a TTL. Writes are idempotent and last-writer-wins.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key with the given TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys with the given prefix, iterating pages.
	List(ctx context.Context, prefix string) ([]string, error)
}
