package profiles

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-gallery/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = bunDB.Close() })

	require.NoError(t, bunDB.ResetModel(context.Background(), (*models.Profile)(nil)))
	return &DB{Bun: bunDB}
}

func TestUpsertProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertProfile(ctx, models.Profile{ID: "user-1", Email: "ana@example.com", FullName: "Ana"}))

	got, err := db.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FullName)
	assert.Equal(t, models.RoleUser, got.Role)

	// A later submission without a name keeps the stored one
	require.NoError(t, db.UpsertProfile(ctx, models.Profile{ID: "user-1", Email: "ana@new.example.com"}))
	got, err = db.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FullName)
	assert.Equal(t, "ana@new.example.com", got.Email)

	count, err := db.Bun.NewSelect().Model((*models.Profile)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertProfileRequiresID(t *testing.T) {
	db := setupTestDB(t)
	err := db.UpsertProfile(context.Background(), models.Profile{Email: "x@example.com"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestGetProfileNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
