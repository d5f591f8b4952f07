package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/otp"
	"github.com/google/uuid"
)

// CodeResult is the live code of one account. A failing account carries Err
// and does not affect the others.
type CodeResult struct {
	Account   models.TwoFactorAccount
	Code      string
	Remaining time.Duration
	Err       error
}

// TwoFactorStore is the in-memory authenticator collection. Mutations only
// change memory; call Save to persist them.
type TwoFactorStore struct {
	coll  *encryptedCollection[models.TwoFactorAccount]
	newID func() string

	mu       sync.RWMutex
	accounts []models.TwoFactorAccount
	loaded   bool
}

func NewTwoFactorStore(v *Vault) *TwoFactorStore {
	coll := newEncryptedCollection(v, models.KindTwoFactor,
		func(a models.TwoFactorAccount) string { return a.ID },
		nil,
	)
	return &TwoFactorStore{coll: coll, newID: uuid.NewString}
}

// Load replaces the in-memory collection with the decrypted persisted one.
// On failure the store keeps its previous state.
func (s *TwoFactorStore) Load(ctx context.Context, password []byte) error {
	accounts, err := s.coll.load(ctx, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
	s.loaded = true
	return nil
}

func (s *TwoFactorStore) Save(ctx context.Context, password []byte) error {
	s.mu.RLock()
	if !s.loaded {
		s.mu.RUnlock()
		return ErrLocked
	}
	accounts := slices.Clone(s.accounts)
	s.mu.RUnlock()

	return s.coll.save(ctx, password, accounts)
}

func (s *TwoFactorStore) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = nil
	s.loaded = false
}

func (s *TwoFactorStore) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *TwoFactorStore) List() ([]models.TwoFactorAccount, error) {
	return s.Search("")
}

// Search returns the accounts whose name or issuer contains term, ignoring
// case.
func (s *TwoFactorStore) Search(term string) ([]models.TwoFactorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrLocked
	}

	result := make([]models.TwoFactorAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.Matches(term) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *TwoFactorStore) Get(id string) (models.TwoFactorAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return models.TwoFactorAccount{}, ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return models.TwoFactorAccount{}, fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}
	return s.accounts[i], nil
}

// Add validates acc and stores it under a fresh ID.
func (s *TwoFactorStore) Add(acc otp.Account) (models.TwoFactorAccount, error) {
	added, err := s.AddMany([]otp.Account{acc})
	if err != nil {
		return models.TwoFactorAccount{}, err
	}
	return added[0], nil
}

// AddMany validates every account first and adds either all of them or none.
func (s *TwoFactorStore) AddMany(accs []otp.Account) ([]models.TwoFactorAccount, error) {
	prepared := make([]models.TwoFactorAccount, 0, len(accs))
	for i, acc := range accs {
		acc = normalizeAccount(acc)
		if err := checkAccount(acc); err != nil {
			return nil, fmt.Errorf("account %d (%s): %w", i+1, acc.Label(), err)
		}
		prepared = append(prepared, models.TwoFactorAccount{Account: acc})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrLocked
	}

	for i := range prepared {
		prepared[i].ID = s.newID()
	}
	s.accounts = append(s.accounts, prepared...)
	return prepared, nil
}

// ImportURIs parses provisioning URIs and adds every one that parses. A URI
// that fails is reported in errs and does not stop the others.
func (s *TwoFactorStore) ImportURIs(uris []string) ([]models.TwoFactorAccount, []error) {
	parsed, errs := otp.ParseBatch(uris)
	if len(parsed) == 0 {
		return nil, errs
	}

	added, err := s.AddMany(parsed)
	if err != nil {
		return nil, append(errs, err)
	}
	return added, errs
}

// Update applies patch and validates the result before storing it.
func (s *TwoFactorStore) Update(id string, patch models.TwoFactorPatch) (models.TwoFactorAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.TwoFactorAccount{}, ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return models.TwoFactorAccount{}, fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}

	a := s.accounts[i]
	a.Apply(patch)
	a.Account = normalizeAccount(a.Account)
	if err := checkAccount(a.Account); err != nil {
		return models.TwoFactorAccount{}, err
	}
	s.accounts[i] = a
	return a, nil
}

func (s *TwoFactorStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}
	s.accounts = slices.Delete(s.accounts, i, i+1)
	return nil
}

// AdvanceCounter increments the counter of a HOTP account and returns the
// account with its new counter.
func (s *TwoFactorStore) AdvanceCounter(id string) (models.TwoFactorAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return models.TwoFactorAccount{}, ErrLocked
	}

	i := s.index(id)
	if i < 0 {
		return models.TwoFactorAccount{}, fmt.Errorf("account %s: %w", id, common.ErrorNotFound)
	}
	if s.accounts[i].Type != otp.TypeHOTP {
		return models.TwoFactorAccount{}, fmt.Errorf("%w: %s is not a HOTP account", common.ErrorValidation, s.accounts[i].Label())
	}

	s.accounts[i].Counter++
	return s.accounts[i], nil
}

// Code returns the current code of one account.
func (s *TwoFactorStore) Code(id string, now time.Time) (CodeResult, error) {
	a, err := s.Get(id)
	if err != nil {
		return CodeResult{}, err
	}
	return codeFor(a, now), nil
}

// Codes returns the current code of every account in insertion order.
func (s *TwoFactorStore) Codes(now time.Time) ([]CodeResult, error) {
	accounts, err := s.List()
	if err != nil {
		return nil, err
	}

	results := make([]CodeResult, 0, len(accounts))
	for _, a := range accounts {
		results = append(results, codeFor(a, now))
	}
	return results, nil
}

func codeFor(a models.TwoFactorAccount, now time.Time) CodeResult {
	code, err := otp.Generate(a.Account, now)
	if err != nil {
		return CodeResult{Account: a, Err: err}
	}
	return CodeResult{Account: a, Code: code, Remaining: otp.Remaining(a.Account, now)}
}

func (s *TwoFactorStore) index(id string) int {
	return slices.IndexFunc(s.accounts, func(a models.TwoFactorAccount) bool { return a.ID == id })
}

func normalizeAccount(acc otp.Account) otp.Account {
	acc.Name = strings.TrimSpace(acc.Name)
	acc.Issuer = strings.TrimSpace(acc.Issuer)
	acc.Secret = otp.NormalizeSecret(acc.Secret)
	switch acc.Type {
	case otp.TypeSteam:
		acc.Digits = otp.SteamDigits
		acc.Algorithm = otp.AlgorithmSHA1
	case otp.TypeHOTP:
		if acc.Period == 0 {
			acc.Period = otp.DefaultPeriod
		}
	}
	return acc
}

func checkAccount(acc otp.Account) error {
	if acc.Name == "" {
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	}
	if err := acc.Validate(); err != nil {
		return errors.Join(common.ErrorValidation, err)
	}
	return nil
}
