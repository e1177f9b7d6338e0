package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database/documents"
	"github.com/mrlokans/bookshelf/internal/testutil"
)

func setupTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	db := testutil.TestDatabase(t)
	tr := NewTracker(documents.NewRepository(db.DB))
	now := time.UnixMilli(1700000000000)
	tr.SetClock(func() time.Time { return now })
	return tr, &now
}

func TestTracker_EmptyByDefault(t *testing.T) {
	tr, _ := setupTracker(t)
	s, err := tr.Get(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.SessionsCount)
	assert.Nil(t, s.CurrentSessionStartTime)
}

func TestTracker_Sessions(t *testing.T) {
	tr, now := setupTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.StartSession(ctx))
	s, err := tr.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.CurrentSessionStartTime)
	assert.Equal(t, int64(1700000000000), *s.CurrentSessionStartTime)

	*now = now.Add(90 * time.Second)
	require.NoError(t, tr.EndSession(ctx))

	s, err = tr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.SessionsCount)
	assert.Equal(t, int64(90000), s.TotalReadingTimeMs)
	assert.Nil(t, s.CurrentSessionStartTime)

	// Ending without an open session changes nothing.
	require.NoError(t, tr.EndSession(ctx))
	s, _ = tr.Get(ctx)
	assert.Equal(t, int64(90000), s.TotalReadingTimeMs)
}

func TestTracker_CountersAndReset(t *testing.T) {
	tr, _ := setupTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.ChapterRead(ctx))
	require.NoError(t, tr.ChapterRead(ctx))
	require.NoError(t, tr.BookFinished(ctx))

	s, err := tr.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ChaptersRead)
	assert.Equal(t, 1, s.BooksFinished)

	require.NoError(t, tr.Reset(ctx))
	s, _ = tr.Get(ctx)
	assert.Zero(t, s.ChaptersRead)
	assert.Zero(t, s.BooksFinished)
}
