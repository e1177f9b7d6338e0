package locations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "locations.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Location{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_LastWriteWins(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", "sec:0:10"))
	require.NoError(t, repo.Set(ctx, "k", "sec:2:0"))

	token, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "sec:2:0", token)
}

func TestRepository_Missing(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.True(t, apperr.IsNotFound(err))
	assert.NoError(t, repo.Delete(context.Background(), "nope"))
}

func TestRepository_All(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "a", "1"))
	require.NoError(t, repo.Set(ctx, "b", "2"))
	require.NoError(t, repo.Delete(ctx, "a"))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "2"}, all)
}
