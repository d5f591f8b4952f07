package records

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
)

// SQLiteRepository stores updated_at as unix nanoseconds.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Load(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	query := `SELECT id, blob, updated_at FROM records WHERE kind = ? ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to select records[%s]: %w", kind, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		item := models.Record{Kind: kind}
		var updated int64
		if err := rows.Scan(&item.ID, &item.Blob, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		item.UpdatedAt = time.Unix(0, updated).UTC()
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Replace(ctx context.Context, kind models.Kind, rows []models.Record) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("failed to delete records[%s]: %w", kind, err)
	}

	query := `INSERT INTO records (kind, id, position, blob, updated_at) VALUES (?, ?, ?, ?, ?)`
	for i, row := range rows {
		if _, err := r.db.ExecContext(ctx, query, string(kind), row.ID, i, row.Blob, row.UpdatedAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", row.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}
