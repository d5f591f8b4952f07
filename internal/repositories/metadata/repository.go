// Package metadata stores small unencrypted key/value pairs next to the
// record table: the installation salt, the password verifier and the pinned
// KDF parameters.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value table.
type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or overwrites key.
	Set(ctx context.Context, key string, value []byte) error

	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
