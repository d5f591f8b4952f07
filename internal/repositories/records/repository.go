// Package records persists encrypted vault records, one row per entry,
// grouped by kind. Callers that need atomic replacement run Replace inside
// dbx.WithTx with a repository bound to the transaction.
package records

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

type Repository interface {
	// Load returns the rows of kind in the order they were last written.
	Load(ctx context.Context, kind models.Kind) ([]models.Record, error)

	// Replace makes rows the complete content of kind.
	Replace(ctx context.Context, kind models.Kind, rows []models.Record) error

	// Clear removes rows of every kind.
	Clear(ctx context.Context) error
}
