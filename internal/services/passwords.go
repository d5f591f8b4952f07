package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/google/uuid"
)

// PasswordStore is the in-memory password collection. Mutations only change
// memory; call Save to persist them.
type PasswordStore struct {
	coll  *encryptedCollection[models.PasswordEntry]
	now   func() time.Time
	newID func() string

	mu      sync.RWMutex
	entries []models.PasswordEntry
	loaded  bool
}

func NewPasswordStore(v *Vault) *PasswordStore {
	coll := newEncryptedCollection(v, models.KindPasswords,
		func(e models.PasswordEntry) string { return e.ID },
		func(e models.PasswordEntry) time.Time { return e.LastUpdated },
	)
	return &PasswordStore{coll: coll, now: time.Now, newID: uuid.NewString}
}

// Load replaces the in-memory collection with the decrypted persisted one.
// On failure the store keeps its previous state.
func (s *PasswordStore) Load(ctx context.Context, password []byte) error {
	entries, err := s.coll.load(ctx, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.loaded = true
	return nil
}

// Save persists the in-memory collection.
func (s *PasswordStore) Save(ctx context.Context, password []byte) error {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return ErrLocked
	}
	entries := slices.Clone(s.entries)
	s.mu.RUnlock()

	return s.coll.save(ctx, password, entries)
}

// Lock drops the decrypted entries from memory.
func (s *PasswordStore) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.loaded = false
}

func (s *PasswordStore) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// List returns a copy of all entries in insertion order.
func (s *PasswordStore) List() ([]models.PasswordEntry, error) {
	return s.Search("")
}

// Search returns the entries whose website, username or category contains
// term, ignoring case.
func (s *PasswordStore) Search(term string) ([]models.PasswordEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrLocked
	}

	result := make([]models.PasswordEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Matches(term) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *PasswordStore) Get(id string) (models.PasswordEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return models.PasswordEntry{}, ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return models.PasswordEntry{}, fmt.Errorf("password %s: %w", id, common.ErrorNotFound)
	}
	return s.entries[i], nil
}

// Add stores a new entry with a fresh ID and LastUpdated.
func (s *PasswordStore) Add(n models.NewPassword) (models.PasswordEntry, error) {
	if strings.TrimSpace(n.Website) == "" {
		return models.PasswordEntry{}, fmt.Errorf("%w: website is required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.PasswordEntry{}, ErrLocked
	}

	e := models.PasswordEntry{
		ID:          s.newID(),
		Website:     n.Website,
		Username:    n.Username,
		Password:    n.Password,
		Category:    n.Category,
		LastUpdated: s.now().UTC(),
	}
	s.entries = append(s.entries, e)
	return e, nil
}

// Update applies patch to the entry and refreshes LastUpdated, even when the
// patch is empty.
func (s *PasswordStore) Update(id string, patch models.PasswordPatch) (models.PasswordEntry, error) {
	if patch.Website != nil && strings.TrimSpace(*patch.Website) == "" {
		return models.PasswordEntry{}, fmt.Errorf("%w: website is required", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.PasswordEntry{}, ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return models.PasswordEntry{}, fmt.Errorf("password %s: %w", id, common.ErrorNotFound)
	}

	e := s.entries[i]
	e.Apply(patch)
	e.LastUpdated = s.now().UTC()
	s.entries[i] = e
	return e, nil
}

func (s *PasswordStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("password %s: %w", id, common.ErrorNotFound)
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return nil
}

// DeleteAll empties the collection and returns how many entries it held.
func (s *PasswordStore) DeleteAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return 0, ErrLocked
	}

	n := len(s.entries)
	s.entries = []models.PasswordEntry{}
	return n, nil
}

func (s *PasswordStore) index(id string) int {
	return slices.IndexFunc(s.entries, func(e models.PasswordEntry) bool { return e.ID == id })
}
