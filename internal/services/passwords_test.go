package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

// newPasswordStore returns a loaded store with deterministic ids and a clock
// that advances one minute per call.
func newPasswordStore(t *testing.T, f *fixture, pw []byte) *PasswordStore {
	t.Helper()
	s := NewPasswordStore(f.vault(fastParams()))

	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	require.NoError(t, s.Load(context.Background(), pw))
	return s
}

func TestPasswordStore_LockedOperations(t *testing.T) {
	s := NewPasswordStore(newFixture(t).vault(fastParams()))

	require.False(t, s.Unlocked())

	_, err := s.List()
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.Get("x")
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.Add(models.NewPassword{Website: "a.com"})
	assert.ErrorIs(t, err, ErrLocked)
	_, err = s.Update("x", models.PasswordPatch{})
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, s.Remove("x"), ErrLocked)
	_, err = s.DeleteAll()
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, s.Save(context.Background(), []byte("pw")), ErrLocked)
}

func TestPasswordStore_AddAssignsIDAndTimestamp(t *testing.T) {
	s := newPasswordStore(t, newFixture(t), []byte("pw"))

	e, err := s.Add(models.NewPassword{Website: "github.com", Username: "octo", Password: "p", Category: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC), e.LastUpdated)

	_, err = s.Add(models.NewPassword{Website: "  "})
	assert.ErrorIs(t, err, common.ErrorValidation)

	got, err := s.Get("id-1")
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestPasswordStore_UpdateRefreshesTimestamp(t *testing.T) {
	s := newPasswordStore(t, newFixture(t), []byte("pw"))

	e, err := s.Add(models.NewPassword{Website: "a.com", Username: "u", Password: "old"})
	require.NoError(t, err)

	updated, err := s.Update(e.ID, models.PasswordPatch{Password: strptr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Password)
	assert.Equal(t, "u", updated.Username)
	assert.True(t, updated.LastUpdated.After(e.LastUpdated))

	again, err := s.Update(e.ID, models.PasswordPatch{})
	require.NoError(t, err)
	assert.True(t, again.LastUpdated.After(updated.LastUpdated), "empty patch still refreshes lastUpdated")

	_, err = s.Update(e.ID, models.PasswordPatch{Website: strptr("")})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update("missing", models.PasswordPatch{})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPasswordStore_SearchRemoveDeleteAll(t *testing.T) {
	s := newPasswordStore(t, newFixture(t), []byte("pw"))

	for _, n := range []models.NewPassword{
		{Website: "GitHub.com", Username: "octo", Category: "Dev"},
		{Website: "bank.example", Username: "alice", Category: "Finance"},
		{Website: "gitlab.com", Username: "alice", Category: "dev"},
	} {
		_, err := s.Add(n)
		require.NoError(t, err)
	}

	found, err := s.Search("DEV")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "GitHub.com", found[0].Website)
	assert.Equal(t, "gitlab.com", found[1].Website)

	found, err = s.Search("alice")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, s.Remove("id-2"))
	assert.ErrorIs(t, s.Remove("id-2"), common.ErrorNotFound)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)

	list[0].Website = "mutated"
	fresh, err := s.Get(list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "GitHub.com", fresh.Website, "List must return copies")

	n, err := s.DeleteAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPasswordStore_SaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pw := []byte("master")

	s := newPasswordStore(t, f, pw)
	for _, site := range []string{"c.com", "a.com", "b.com"} {
		_, err := s.Add(models.NewPassword{Website: site, Password: "pw-" + site})
		require.NoError(t, err)
	}
	require.NoError(t, s.Save(ctx, pw))

	want, err := s.List()
	require.NoError(t, err)

	reloaded := NewPasswordStore(f.vault(fastParams()))
	require.NoError(t, reloaded.Load(ctx, pw))
	got, err := reloaded.List()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rows, err := f.repos.Records(f.db).Load(ctx, models.KindPasswords)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, want[i].ID, row.ID)
		assert.True(t, want[i].LastUpdated.Equal(row.UpdatedAt))
		assert.NotContains(t, row.Blob, "pw-", "plaintext must not reach storage")
	}
}

func TestPasswordStore_LoadWrongPasswordKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := newPasswordStore(t, f, []byte("right"))
	_, err := s.Add(models.NewPassword{Website: "a.com"})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, []byte("right")))

	other := NewPasswordStore(f.vault(fastParams()))
	require.ErrorIs(t, other.Load(ctx, []byte("wrong")), ErrWrongPassword)
	assert.False(t, other.Unlocked())

	require.ErrorIs(t, s.Save(ctx, []byte("wrong")), ErrWrongPassword)

	s.Lock()
	assert.False(t, s.Unlocked())
	_, err = s.List()
	assert.ErrorIs(t, err, ErrLocked)
}
