package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	db, err := NewQuietDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"blobs", "locations", "documents", "settings", "job_progress"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "table %s should exist", table)
	}

	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewDatabaseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	db, err := NewQuietDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewQuietDatabase(dbPath)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
