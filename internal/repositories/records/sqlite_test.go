package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/dbx"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE records (
  kind       TEXT    NOT NULL,
  id         TEXT    NOT NULL,
  position   INTEGER NOT NULL,
  blob       TEXT    NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (kind, id)
);`)
	require.NoError(t, err)
	return db
}

func rec(id, blob string, ts time.Time) models.Record {
	return models.Record{ID: id, Blob: blob, UpdatedAt: ts}
}

func TestReplaceThenLoad_PreservesOrderAndKind(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	require.NoError(t, r.Replace(ctx, models.KindPasswords, []models.Record{
		rec("b", "vk1.a256gcm.BBB", ts),
		rec("a", "vk1.a256gcm.AAA", ts.Add(time.Second)),
	}))
	require.NoError(t, r.Replace(ctx, models.KindTwoFactor, []models.Record{
		rec("t", "vk1.a256gcm.TTT", ts),
	}))

	got, err := r.Load(ctx, models.KindPasswords)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].ID)
	require.Equal(t, "a", got[1].ID)
	require.Equal(t, models.KindPasswords, got[0].Kind)
	require.Equal(t, "vk1.a256gcm.BBB", got[0].Blob)
	require.True(t, ts.Equal(got[0].UpdatedAt))

	tf, err := r.Load(ctx, models.KindTwoFactor)
	require.NoError(t, err)
	require.Len(t, tf, 1)
}

func TestReplace_OverwritesOnlyThatKind(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Replace(ctx, models.KindPasswords, []models.Record{rec("1", "x", now), rec("2", "y", now)}))
	require.NoError(t, r.Replace(ctx, models.KindTwoFactor, []models.Record{rec("1", "z", now)}))
	require.NoError(t, r.Replace(ctx, models.KindPasswords, nil))

	got, err := r.Load(ctx, models.KindPasswords)
	require.NoError(t, err)
	require.Empty(t, got)

	tf, err := r.Load(ctx, models.KindTwoFactor)
	require.NoError(t, err)
	require.Len(t, tf, 1)
}

func TestReplace_InTransaction_RollsBackOnDuplicate(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, NewSQLiteRepository(db).Replace(ctx, models.KindPasswords, []models.Record{rec("keep", "x", now)}))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).Replace(ctx, models.KindPasswords, []models.Record{
			rec("dup", "1", now),
			rec("dup", "2", now),
		})
	})
	require.ErrorContains(t, err, "failed to insert record dup")

	got, err := NewSQLiteRepository(db).Load(ctx, models.KindPasswords)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "keep", got[0].ID)
}

func TestClear_RemovesAllKinds(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Replace(ctx, models.KindPasswords, []models.Record{rec("1", "x", now)}))
	require.NoError(t, r.Replace(ctx, models.KindTwoFactor, []models.Record{rec("2", "y", now)}))
	require.NoError(t, r.Clear(ctx))

	for _, k := range []models.Kind{models.KindPasswords, models.KindTwoFactor} {
		got, err := r.Load(ctx, k)
		require.NoError(t, err)
		require.Empty(t, got)
	}
}

func TestSQLite_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Load(ctx, models.KindPasswords)
	require.ErrorContains(t, err, "failed to select records[passwords]")

	err = r.Replace(ctx, models.KindTwoFactor, nil)
	require.ErrorContains(t, err, "failed to delete records[two_factor_accounts]")

	require.ErrorContains(t, r.Clear(ctx), "failed to clear records")
}
