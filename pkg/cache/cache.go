// Package cache provides the key-value store backing the pipeline's
// content-addressed memoization. Keys are opaque strings, values are
// arbitrary JSON-encoded payloads.
//
// The TTL is stored alongside each entry but no implementation here evicts
// on it: an entry is computed once and stays valid until the caller decides
// otherwise. Last write wins on concurrent puts for the same key.
package cache

import "time"

// Entry is a stored value with its retention metadata.
type Entry struct {
	Value      []byte    `json:"value"`
	TTLSeconds int64     `json:"ttlSeconds"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store is the minimal key-value contract the cache gate needs.
type Store interface {
	// Get returns the entry for key, or (nil, nil) when absent.
	Get(key string) (*Entry, error)

	// Put stores value under key, overwriting any previous entry.
	Put(key string, value []byte, ttlSeconds int64) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	Close() error
}
