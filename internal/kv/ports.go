// Package kv defines the key-value port the ledger is persisted through.
package kv

import "context"

// Store is an asynchronous, durable string key-value service.
// It is single-writer per key and offers no multi-key transactions.
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// has never been set.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Closer is implemented by backends that hold resources.
type Closer interface {
	Close() error
}
