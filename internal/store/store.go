// Package store is the durable key-value layer every piece of local data is
// written through. Values are opaque strings; callers own their encoding.
package store

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("store: empty key")

// Store reads and writes single keys. Implementations guarantee nothing
// beyond atomic single-key reads and writes.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}
