package sqldb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
	"github.com/sakif/ecoguardian/internal/repository/repotest"
)

// newTestDB opens a fresh in-memory SQLite database that is closed when the
// test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DialectSQLite, ":memory:")
	require.NoError(t, err, "opening test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store { return newTestDB(t) })
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open("postgres", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dialect")
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	db, err := Open("", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, DialectSQLite, db.Dialect())
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.migrate())
	require.NoError(t, db.migrate())
}

func TestUsernameIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &model.User{Username: "Alice", PasswordHash: "h"}))

	u, err := db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Username)
}

func TestCreateEntryTruncatesToMillis(t *testing.T) {
	db := newTestDB(t)
	date := time.Date(2025, time.May, 1, 8, 30, 0, 123456789, time.UTC)

	e := &model.CarbonEntry{UserID: "u1", Category: model.CategoryShopping, Amount: 7, Date: date}
	require.NoError(t, db.CreateEntry(context.Background(), e))

	want := date.Truncate(time.Millisecond)
	assert.True(t, e.Date.Equal(want), "returned Date = %v, want %v", e.Date, want)

	list, err := db.ListEntriesByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Date.Equal(want), "stored Date = %v, want %v", list[0].Date, want)
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carbon.db")
	ctx := context.Background()

	db, err := Open(DialectSQLite, path)
	require.NoError(t, err)
	require.NoError(t, db.CreateEntry(ctx, &model.CarbonEntry{UserID: "u1", Category: model.CategoryFood, Amount: 1.5}))
	require.NoError(t, db.Close())

	db, err = Open(DialectSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	list, err := db.ListEntriesByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 1.5, list[0].Amount, 1e-9)
}

func TestCeilMillis(t *testing.T) {
	exact := time.UnixMilli(1000)
	assert.Equal(t, int64(1000), ceilMillis(exact))
	assert.Equal(t, int64(1001), ceilMillis(exact.Add(time.Microsecond)))
}
