package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/testutil"
)

func isolate(t *testing.T) (dbPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("COVER_CACHE_DIR", filepath.Join(dir, "covers"))
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	return filepath.Join(dir, "library.db")
}

func writeAlice(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Alice.epub")
	require.NoError(t, os.WriteFile(path, testutil.Alice(t), 0644))
	return path
}

func TestParseFlags_RequiredArguments(t *testing.T) {
	tests := []struct {
		name string
		cmd  interface{ ParseFlags([]string) error }
		args []string
	}{
		{"ingest without files", NewIngestCommand(), nil},
		{"delete without key", NewDeleteCommand(), nil},
		{"import without file", NewImportCommand(), nil},
		{"search without key", NewSearchCommand(), []string{"-q", "alice"}},
		{"search without query", NewSearchCommand(), []string{"-key", "a-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cmd.ParseFlags(tt.args))
		})
	}
}

func TestIngestCommand_ParseFlags(t *testing.T) {
	cmd := NewIngestCommand()

	require.NoError(t, cmd.ParseFlags([]string{"-db", "x.db", "a.epub", "b.epub"}))

	assert.Equal(t, "x.db", cmd.DatabasePath)
	assert.Equal(t, []string{"a.epub", "b.epub"}, cmd.Paths)
}

func bookKeys(t *testing.T, dbPath string) []string {
	t.Helper()
	app, err := openApp(context.Background(), dbPath, false)
	require.NoError(t, err)
	defer app.Close()
	var keys []string
	for _, rec := range app.Index.List() {
		keys = append(keys, rec.Key)
	}
	return keys
}

func TestCommands_EndToEnd(t *testing.T) {
	dbPath := isolate(t)
	book := writeAlice(t)
	info, err := os.Stat(book)
	require.NoError(t, err)
	key := library.Key("Alice.epub", int(info.Size()))

	ingest := NewIngestCommand()
	require.NoError(t, ingest.ParseFlags([]string{"-db", dbPath, book}))
	require.NoError(t, ingest.Run())
	require.Equal(t, []string{key}, bookKeys(t, dbPath))

	list := NewListCommand()
	require.NoError(t, list.ParseFlags([]string{"-db", dbPath, "-sort", "title"}))
	require.NoError(t, list.Run())

	search := NewSearchCommand()
	require.NoError(t, search.ParseFlags([]string{"-db", dbPath, "-key", key, "-q", "alice"}))
	require.NoError(t, search.Run())

	outDir := filepath.Join(t.TempDir(), "out")
	export := NewExportCommand()
	require.NoError(t, export.ParseFlags([]string{"-db", dbPath, "-out", outDir}))
	require.NoError(t, export.Run())
	archives, err := backup.Archives(outDir)
	require.NoError(t, err)
	require.Len(t, archives, 1)

	del := NewDeleteCommand()
	require.NoError(t, del.ParseFlags([]string{"-db", dbPath, "-key", key}))
	require.NoError(t, del.Run())
	assert.Empty(t, bookKeys(t, dbPath))

	imp := NewImportCommand()
	require.NoError(t, imp.ParseFlags([]string{"-db", dbPath, "-file", filepath.Join(outDir, archives[0])}))
	require.NoError(t, imp.Run())
	assert.Equal(t, []string{key}, bookKeys(t, dbPath))
}

func TestExportCommand_ToFile(t *testing.T) {
	dbPath := isolate(t)
	out := filepath.Join(t.TempDir(), "nested", "library.zip")

	cmd := NewExportCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-out", out}))
	require.NoError(t, cmd.Run())

	assert.FileExists(t, out)
}

func TestSearchCommand_UnknownBook(t *testing.T) {
	dbPath := isolate(t)

	cmd := NewSearchCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-key", "missing-1", "-q", "alice"}))

	assert.Error(t, cmd.Run())
}

func TestIngestCommand_NothingAdded(t *testing.T) {
	dbPath := isolate(t)
	bogus := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bogus, []byte("hello"), 0644))

	cmd := NewIngestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, bogus}))

	assert.Error(t, cmd.Run())
}
