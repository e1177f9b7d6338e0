package settingsstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/testutil"
)

func setupStore(t *testing.T) (*SettingsStore, *settings.Repository) {
	t.Helper()
	db := testutil.TestDatabase(t)
	repo := settings.NewRepository(db.DB)
	return New(repo), repo
}

func raw(t *testing.T, fields map[string]any) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		out[k] = b
	}
	return out
}

func TestReaderSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults when nothing stored", func(t *testing.T) {
		store, _ := setupStore(t)
		rs, err := store.ReaderSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultReaderSettings(), rs)
	})

	t.Run("round trips every field", func(t *testing.T) {
		store, _ := setupStore(t)
		want := entities.ReaderSettings{
			Theme: "sepia", FontSize: 120, FontFamily: "Georgia, serif", FontWeight: 500,
			LineHeight: 1.8, PageView: entities.PageViewSingle, Language: "de",
		}
		require.NoError(t, store.SaveReaderSettings(ctx, want))

		got, err := store.ReaderSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save rejects invalid settings", func(t *testing.T) {
		store, _ := setupStore(t)
		rs := entities.DefaultReaderSettings()
		rs.FontSize = 20
		err := store.SaveReaderSettings(ctx, rs)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("corrupt stored value falls back to default", func(t *testing.T) {
		store, repo := setupStore(t)
		require.NoError(t, repo.SetSetting(ctx, entities.SettingKeyFontSize, "huge"))
		require.NoError(t, repo.SetSetting(ctx, entities.SettingKeyTheme, "dark"))

		rs, err := store.ReaderSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, 100, rs.FontSize)
		assert.Equal(t, "dark", rs.Theme)
	})
}

func TestApplyReaderSettings(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	rs, applied, err := store.ApplyReaderSettings(ctx, raw(t, map[string]any{
		"theme":      "nord",
		"fontSize":   999,        // out of range
		"pageView":   "triple",   // unknown
		"language":   "ja",
		"lineHeight": "tall",     // wrong type
		"unknown":    "ignored",
	}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"theme", "language"}, applied)
	assert.Equal(t, "nord", rs.Theme)
	assert.Equal(t, "ja", rs.Language)
	assert.Equal(t, 100, rs.FontSize)
	assert.Equal(t, entities.PageViewDouble, rs.PageView)
	assert.Equal(t, 1.5, rs.LineHeight)

	stored, err := store.ReaderSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, rs, stored)

	// Nothing valid leaves the store untouched.
	_, applied, err = store.ApplyReaderSettings(ctx, raw(t, map[string]any{"fontWeight": 50}))
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestResetReaderSettings(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	rs := entities.DefaultReaderSettings()
	rs.Theme = "dark"
	require.NoError(t, store.SaveReaderSettings(ctx, rs))

	require.NoError(t, store.ResetReaderSettings(ctx))
	got, err := store.ReaderSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultReaderSettings(), got)
}

func TestBackupEnabled(t *testing.T) {
	ctx := context.Background()
	store, repo := setupStore(t)
	t.Setenv("BACKUP_ENABLED", "")

	assert.False(t, store.GetBackupEnabled(ctx))
	assert.Equal(t, "default", store.GetBackupEnabledSource(ctx))

	t.Setenv("BACKUP_ENABLED", "true")
	assert.True(t, store.GetBackupEnabled(ctx))
	assert.Equal(t, "environment", store.GetBackupEnabledSource(ctx))

	// Database overrides env
	require.NoError(t, store.SetBackupEnabled(ctx, false))
	assert.False(t, store.GetBackupEnabled(ctx))
	assert.Equal(t, "database", store.GetBackupEnabledSource(ctx))

	require.NoError(t, repo.DeleteSetting(ctx, entities.SettingKeyBackupEnabled))
	assert.True(t, store.GetBackupEnabled(ctx))
}

func TestBackupSchedule(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)
	t.Setenv("BACKUP_SCHEDULE", "")

	assert.Equal(t, DefaultBackupSchedule, store.GetBackupSchedule(ctx))

	t.Setenv("BACKUP_SCHEDULE", "0 */6 * * *")
	info := store.GetBackupScheduleConfigInfo(ctx)
	assert.Equal(t, "0 */6 * * *", info.Schedule)
	assert.Equal(t, "environment", info.ScheduleSource)

	assert.Error(t, store.SetBackupSchedule(ctx, "every day"))
	require.NoError(t, store.SetBackupSchedule(ctx, "30 1 * * *"))
	assert.Equal(t, "30 1 * * *", store.GetBackupSchedule(ctx))

	require.NoError(t, store.ClearBackupScheduleSettings(ctx))
	assert.Equal(t, "environment", store.GetBackupScheduleSource(ctx))
}

func TestBackupStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := setupStore(t)

	assert.Nil(t, store.GetBackupStatus(ctx).LastBackupAt)

	require.NoError(t, store.SetBackupStatus(ctx, "success", "/backups/a.zip"))
	status := store.GetBackupStatus(ctx)
	require.NotNil(t, status.LastBackupAt)
	assert.Equal(t, "success", status.Status)
	assert.Equal(t, "/backups/a.zip", status.Message)
}

func TestCronHelpers(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.Error(t, ValidateCronSchedule("0 3 * *"))

	assert.Equal(t, "Daily at 03:00", GetCronDescription(DefaultBackupSchedule))
	assert.Equal(t, "Custom schedule: 5 4 * * *", GetCronDescription("5 4 * * *"))

	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	next, err := GetNextRunTime(DefaultBackupSchedule, from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC), *next)
}
