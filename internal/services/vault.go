package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/vaultkeeper/internal/salt"
)

// Metadata keys written next to the salt.
const (
	VerifierKey = "verifier"
	KDFKey      = "kdf"
)

// Vault derives and verifies master keys. A derived key is never stored; every
// call to Key re-derives it from the password.
type Vault struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	salts  *salt.Manager
	params cryptox.KDFParams
	log    logging.Logger

	// mu serializes first-use pinning and password changes.
	mu sync.Mutex
}

// NewVault returns a Vault over db. params are only used when the vault is
// created and when the password is changed.
func NewVault(db *sql.DB, repos repomanager.RepositoryManager, salts *salt.Manager, params cryptox.KDFParams, log logging.Logger) *Vault {
	if log == nil {
		log = logging.Discard()
	}
	return &Vault{db: db, repos: repos, salts: salts, params: params, log: log}
}

// Status describes the persisted state of the vault without unlocking it.
type Status struct {
	Initialized bool
	KDF         cryptox.KDFParams
	// MetadataKeys lists the names of the unencrypted metadata entries.
	MetadataKeys []string
	Records      map[models.Kind]int
}

// Initialized reports whether a master password has been set.
func (v *Vault) Initialized(ctx context.Context) (bool, error) {
	verifier, err := v.repos.Metadata(v.db).Get(ctx, VerifierKey)
	if err != nil {
		return false, fmt.Errorf("read verifier: %w", err)
	}
	return verifier != nil, nil
}

// Key derives the master key for password. On an uninitialized vault the
// configured KDF parameters and the key's verifier are pinned, so password
// becomes the master password. Otherwise the pinned parameters are used and a
// mismatching password yields ErrWrongPassword.
func (v *Vault) Key(ctx context.Context, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	return v.key(ctx, password)
}

func (v *Vault) key(ctx context.Context, password []byte) ([]byte, error) {
	s, err := v.salts.Get(ctx)
	if err != nil {
		return nil, err
	}

	meta := v.repos.Metadata(v.db)
	verifier, err := meta.Get(ctx, VerifierKey)
	if err != nil {
		return nil, fmt.Errorf("read verifier: %w", err)
	}

	if verifier == nil {
		key, err := cryptox.DeriveKey(password, s, v.params)
		if err != nil {
			return nil, err
		}
		if err := v.pin(ctx, key, v.params); err != nil {
			common.WipeByteArray(key)
			return nil, err
		}
		v.log.Info(ctx, "vault initialized", "kdf", v.params.Algorithm, "iterations", v.params.Iterations)
		return key, nil
	}

	params, err := v.pinnedParams(ctx)
	if err != nil {
		return nil, err
	}
	key, err := cryptox.DeriveKey(password, s, params)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(verifier, cryptox.MakeVerifier(key)) == 0 {
		common.WipeByteArray(key)
		v.log.Warn(ctx, "master password rejected")
		return nil, ErrWrongPassword
	}
	return key, nil
}

// pinnedParams returns the KDF parameters the vault was created with. Vaults
// that predate the kdf entry use LegacyKDFParams.
func (v *Vault) pinnedParams(ctx context.Context) (cryptox.KDFParams, error) {
	raw, err := v.repos.Metadata(v.db).Get(ctx, KDFKey)
	if err != nil {
		return cryptox.KDFParams{}, fmt.Errorf("read kdf params: %w", err)
	}
	if raw == nil {
		return cryptox.LegacyKDFParams(), nil
	}

	var p cryptox.KDFParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return cryptox.KDFParams{}, fmt.Errorf("%w: decode pinned params: %w", cryptox.ErrInvalidKDFParams, err)
	}
	return p, nil
}

func (v *Vault) pin(ctx context.Context, key []byte, p cryptox.KDFParams) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return pinTx(ctx, v.repos, tx, key, raw)
	})
}

func pinTx(ctx context.Context, repos repomanager.RepositoryManager, tx dbx.DBTX, key, rawParams []byte) error {
	meta := repos.Metadata(tx)
	if err := meta.Set(ctx, KDFKey, rawParams); err != nil {
		return err
	}
	return meta.Set(ctx, VerifierKey, cryptox.MakeVerifier(key))
}

// ChangePassword re-encrypts every record under a key derived from newPassword
// and the configured KDF parameters. The salt is kept. Either all records and
// the new verifier are written or nothing is.
func (v *Vault) ChangePassword(ctx context.Context, oldPassword, newPassword []byte) error {
	if len(oldPassword) == 0 || len(newPassword) == 0 {
		return ErrEmptyPassword
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	oldKey, err := v.key(ctx, oldPassword)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldKey)

	s, err := v.salts.Get(ctx)
	if err != nil {
		return err
	}
	newKey, err := cryptox.DeriveKey(newPassword, s, v.params)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newKey)

	rawParams, err := json.Marshal(v.params)
	if err != nil {
		return err
	}

	total := 0
	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := v.repos.Records(tx)
		for _, kind := range []models.Kind{models.KindPasswords, models.KindTwoFactor} {
			rows, err := repo.Load(ctx, kind)
			if err != nil {
				return err
			}
			for i := range rows {
				plain, err := cryptox.Decrypt(rows[i].Blob, oldKey)
				if err != nil {
					return fmt.Errorf("record %s: %w", rows[i].ID, err)
				}
				rows[i].Blob, err = cryptox.Encrypt(plain, newKey)
				common.WipeByteArray(plain)
				if err != nil {
					return err
				}
			}
			if err := repo.Replace(ctx, kind, rows); err != nil {
				return err
			}
			total += len(rows)
		}
		return pinTx(ctx, v.repos, tx, newKey, rawParams)
	})
	if err != nil {
		return fmt.Errorf("change master password: %w", err)
	}

	v.log.Info(ctx, "master password changed", "records", total, "kdf", v.params.Algorithm)
	return nil
}

// Status reports what is stored without deriving a key.
func (v *Vault) Status(ctx context.Context) (Status, error) {
	meta, err := v.repos.Metadata(v.db).List(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("list metadata: %w", err)
	}

	st := Status{Records: make(map[models.Kind]int, 2)}
	for k := range meta {
		st.MetadataKeys = append(st.MetadataKeys, k)
	}
	sort.Strings(st.MetadataKeys)

	if _, ok := meta[VerifierKey]; ok {
		st.Initialized = true
		if st.KDF, err = v.pinnedParams(ctx); err != nil {
			return Status{}, err
		}
	}

	repo := v.repos.Records(v.db)
	for _, kind := range []models.Kind{models.KindPasswords, models.KindTwoFactor} {
		rows, err := repo.Load(ctx, kind)
		if err != nil {
			return Status{}, err
		}
		st.Records[kind] = len(rows)
	}
	return st, nil
}

// Reset deletes every record together with the verifier and KDF parameters,
// so the next Key call sets a new master password. The salt survives. On an
// initialized vault password must be the current master password.
func (v *Vault) Reset(ctx context.Context, password []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	initialized, err := v.Initialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		if len(password) == 0 {
			return ErrEmptyPassword
		}
		key, err := v.key(ctx, password)
		if err != nil {
			return err
		}
		common.WipeByteArray(key)
	}

	s, err := v.salts.Get(ctx)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := v.repos.Records(tx).Clear(ctx); err != nil {
			return err
		}
		meta := v.repos.Metadata(tx)
		if err := meta.Clear(ctx); err != nil {
			return err
		}
		return meta.Set(ctx, salt.MetadataKey, s)
	})
	if err != nil {
		return fmt.Errorf("reset vault: %w", err)
	}

	v.log.Warn(ctx, "vault reset")
	return nil
}

// IsAuthError reports whether err means the password was wrong or missing, as
// opposed to a storage failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrWrongPassword) || errors.Is(err, ErrEmptyPassword)
}
