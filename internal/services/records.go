package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

// encryptedCollection persists a slice of T as one encrypted row per element
// under a single kind.
type encryptedCollection[T any] struct {
	vault *Vault
	kind  models.Kind
	id    func(T) string
	// stamp is the row's updated_at; nil means the time of writing.
	stamp func(T) time.Time
	log   logging.Logger
	now   func() time.Time
}

func newEncryptedCollection[T any](v *Vault, kind models.Kind, id func(T) string, stamp func(T) time.Time) *encryptedCollection[T] {
	return &encryptedCollection[T]{
		vault: v,
		kind:  kind,
		id:    id,
		stamp: stamp,
		log:   v.log.With("kind", string(kind)),
		now:   time.Now,
	}
}

// load derives the key for password and decrypts every row. Any row that
// fails to decrypt fails the whole load.
func (c *encryptedCollection[T]) load(ctx context.Context, password []byte) ([]T, error) {
	key, err := c.vault.Key(ctx, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	rows, err := c.vault.repos.Records(c.vault.db).Load(ctx, c.kind)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.kind, err)
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := cryptox.DecryptEntry(row.Blob, key, &item); err != nil {
			return nil, fmt.Errorf("decrypt %s %s: %w", c.kind, row.ID, err)
		}
		items = append(items, item)
	}

	c.log.Debug(ctx, "records loaded", "count", len(items))
	return items, nil
}

// save encrypts items and makes them the complete content of the kind in a
// single transaction.
func (c *encryptedCollection[T]) save(ctx context.Context, password []byte, items []T) error {
	key, err := c.vault.Key(ctx, password)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	now := c.now().UTC()
	rows := make([]models.Record, 0, len(items))
	for _, item := range items {
		blob, err := cryptox.EncryptEntry(item, key)
		if err != nil {
			return err
		}
		updated := now
		if c.stamp != nil {
			updated = c.stamp(item)
		}
		rows = append(rows, models.Record{ID: c.id(item), Kind: c.kind, Blob: blob, UpdatedAt: updated})
	}

	err = dbx.WithTx(ctx, c.vault.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return c.vault.repos.Records(tx).Replace(ctx, c.kind, rows)
	})
	if err != nil {
		c.log.Error(ctx, "records not saved", "error", err)
		return fmt.Errorf("save %s: %w", c.kind, err)
	}

	c.log.Debug(ctx, "records saved", "count", len(rows))
	return nil
}
