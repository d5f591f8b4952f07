package records

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Load(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	query := `SELECT id, blob, updated_at FROM records WHERE kind = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to select records[%s]: %w", kind, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		item := models.Record{Kind: kind}
		if err := rows.Scan(&item.ID, &item.Blob, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		item.UpdatedAt = item.UpdatedAt.UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, kind models.Kind, rows []models.Record) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE kind = $1`, string(kind)); err != nil {
		return fmt.Errorf("failed to delete records[%s]: %w", kind, err)
	}

	query := `
		INSERT INTO records (kind, id, position, blob, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, row := range rows {
		if _, err := r.db.ExecContext(ctx, query, string(kind), row.ID, i, row.Blob, row.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", row.ID, err)
		}
	}
	return nil
}

func (r *PostgresRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}
