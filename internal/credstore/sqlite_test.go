package credstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lookforge/lookforge-go/internal/models"

	_ "modernc.org/sqlite"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, runMigrations(context.Background(), db))
	return NewSQLiteStore(db)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := setupStore(t)

	c, err := s.Load(context.Background())
	require.NoError(t, err)
	require.True(t, c.Empty())
	require.Nil(t, c.User)
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	in := Credentials{
		AccessToken:  "acc-1",
		RefreshToken: "ref-1",
		User:         &models.User{ID: "u-1", Email: "ada@example.com", Name: "Ada"},
	}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "acc-1", out.AccessToken)
	require.Equal(t, "ref-1", out.RefreshToken)
	require.Equal(t, "ada@example.com", out.User.Email)
}

func TestSQLiteStore_SetTokens(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "acc-1", RefreshToken: "ref-1"}))

	// Rotation without a new refresh token keeps the stored one.
	require.NoError(t, s.SetTokens(ctx, "acc-2", ""))
	access, err := s.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "acc-2", access)
	refresh, err := s.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "ref-1", refresh)

	// Full rotation replaces both.
	require.NoError(t, s.SetTokens(ctx, "acc-3", "ref-3"))
	refresh, err = s.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "ref-3", refresh)
}

func TestSQLiteStore_ClearIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Credentials{AccessToken: "acc", RefreshToken: "ref"}))
	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	c, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, c.Empty())
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	db, err := InitDatabase(context.Background(), t.TempDir()+"/creds.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLiteStore(db)
	require.NoError(t, s.Save(context.Background(), Credentials{AccessToken: "a"}))
}
