// Package salt owns the single per-installation KDF salt.
//
// The salt is generated once, persisted outside the encrypted record set and
// then reused for the lifetime of the installation. Regenerating it would make
// every existing record undecryptable, so a Manager never overwrites a stored
// value and never falls back to a weaker source when generation fails.
package salt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
)

// MetadataKey is the metadata entry holding the raw salt bytes.
const MetadataKey = "salt"

// Size is the length of a freshly generated salt.
const Size = 32

// ErrSaltUnavailable is returned when no salt could be loaded or provisioned.
var ErrSaltUnavailable = errors.New("salt unavailable")

// Store is the persistent key/value location for the salt. Get returns
// (nil, nil) when the key is absent. The metadata repository satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Generator returns n cryptographically secure random bytes.
type Generator func(n int) ([]byte, error)

// Manager lazily loads or provisions the salt and caches it after the first
// successful call.
type Manager struct {
	store    Store
	generate Generator

	mu     sync.Mutex
	cached []byte
}

// NewManager returns a Manager backed by store. A nil generator selects
// crypto/rand.
func NewManager(store Store, generate Generator) *Manager {
	if generate == nil {
		generate = common.GenerateRandByteArray
	}
	return &Manager{store: store, generate: generate}
}

// Get returns the installation salt. The first successful call reads it from
// the store or, when absent, generates and persists a new one. Later calls
// return a copy of the cached value without touching the store. A failed call
// leaves nothing cached, so the next call retries.
func (m *Manager) Get(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return clone(m.cached), nil
	}

	existing, err := m.store.Get(ctx, MetadataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrSaltUnavailable, err)
	}
	if len(existing) > 0 {
		m.cached = clone(existing)
		return clone(existing), nil
	}

	fresh, err := m.generate(Size)
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %w", ErrSaltUnavailable, err)
	}
	if len(fresh) == 0 {
		return nil, fmt.Errorf("%w: generator returned no bytes", ErrSaltUnavailable)
	}

	if err := m.store.Set(ctx, MetadataKey, fresh); err != nil {
		return nil, fmt.Errorf("%w: persist: %w", ErrSaltUnavailable, err)
	}

	m.cached = clone(fresh)
	return fresh, nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
