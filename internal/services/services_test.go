package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/vaultkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/vaultkeeper/internal/salt"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	path  string
}

// newFixture opens a migrated SQLite file in a temp dir.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos, err := repomanager.New(repomanager.DriverSQLite)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "vault.db")
	db, err := repomanager.Open(context.Background(), repos, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &fixture{db: db, repos: repos, path: path}
}

// vault builds a Vault with its own salt manager, as a fresh process would.
func (f *fixture) vault(params cryptox.KDFParams) *Vault {
	salts := salt.NewManager(f.repos.Metadata(f.db), nil)
	return NewVault(f.db, f.repos, salts, params, logging.Discard())
}

// fastParams keeps PBKDF2 cheap in tests.
func fastParams() cryptox.KDFParams {
	return cryptox.LegacyKDFParams()
}
