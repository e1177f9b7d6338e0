package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "settings.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	err := repo.SetSetting(ctx, entities.SettingKeyTheme, "dark")
	require.NoError(t, err)

	setting, err := repo.GetSetting(ctx, entities.SettingKeyTheme)
	require.NoError(t, err)
	assert.Equal(t, entities.SettingKeyTheme, setting.Key)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SetSetting(ctx, entities.SettingKeyTheme, "light"))
	require.NoError(t, repo.SetSetting(ctx, entities.SettingKeyTheme, "dark"))

	setting, err := repo.GetSetting(ctx, entities.SettingKeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetSetting(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_Values(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SetValues(ctx, map[string]string{
		entities.SettingKeyTheme:    "sepia",
		entities.SettingKeyFontSize: "120",
	}))
	require.NoError(t, repo.SetSetting(ctx, entities.SettingKeyBackupSchedule, "0 3 * * *"))

	values, err := repo.GetValues(ctx, "reader.")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		entities.SettingKeyTheme:    "sepia",
		entities.SettingKeyFontSize: "120",
	}, values)
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SetSetting(ctx, entities.SettingKeyTheme, "dark"))
	require.NoError(t, repo.DeleteSetting(ctx, entities.SettingKeyTheme))

	_, err := repo.GetSetting(ctx, entities.SettingKeyTheme)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
