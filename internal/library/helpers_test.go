package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/blobs"
	"github.com/mrlokans/bookshelf/internal/database/documents"
	"github.com/mrlokans/bookshelf/internal/database/locations"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type testStores struct {
	db        *database.Database
	blobs     *blobs.Repository
	locations *locations.Repository
	docs      *documents.Repository
	index     *Index
}

func setupStores(t *testing.T) *testStores {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	docs := documents.NewRepository(db.DB)
	index := NewIndex(docs)
	require.NoError(t, index.Init(context.Background()))

	return &testStores{
		db:        db,
		blobs:     blobs.NewRepository(db.DB),
		locations: locations.NewRepository(db.DB),
		docs:      docs,
		index:     index,
	}
}

type mockParser struct {
	meta DocumentMetadata
	err  error
}

func (p *mockParser) Parse(data []byte) (DocumentMetadata, error) {
	return p.meta, p.err
}

type mockCovers struct {
	uri string
	err error
}

func (c *mockCovers) FetchCover(ctx context.Context, data []byte, locator string) (string, error) {
	return c.uri, c.err
}

// failingDocs fails every save after the first `ok` saves.
type failingDocs struct {
	inner DocumentStore
	ok    int
}

func (f *failingDocs) Load(ctx context.Context, name string, v any) error {
	return f.inner.Load(ctx, name, v)
}

func (f *failingDocs) Save(ctx context.Context, name string, v any) error {
	if f.ok <= 0 {
		return errors.New("disk full")
	}
	f.ok--
	return f.inner.Save(ctx, name, v)
}

type recordingCloser struct {
	closed []string
	onClose func(key string)
}

func (r *recordingCloser) CloseIfOpen(key string) {
	r.closed = append(r.closed, key)
	if r.onClose != nil {
		r.onClose(key)
	}
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1700000000000) }
}

func record(key string) entities.BookRecord {
	return entities.BookRecord{Key: key, Title: key, Author: "A", Annotations: []entities.Annotation{}}
}
