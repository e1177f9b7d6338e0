package progress

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/render"
)

type memLocations map[string]string

func (m memLocations) Set(ctx context.Context, key, token string) error {
	m[key] = token
	return nil
}

type memProgress struct {
	values  map[string]int
	deleted map[string]bool
	writes  int
}

func (m *memProgress) Get(key string) (entities.BookRecord, bool) {
	if m.deleted[key] {
		return entities.BookRecord{}, false
	}
	return entities.BookRecord{Key: key}, true
}

func (m *memProgress) SetProgress(ctx context.Context, key string, percent int) (bool, error) {
	if v, ok := m.values[key]; ok && v == percent {
		return false, nil
	}
	m.values[key] = percent
	m.writes++
	return true, nil
}

type countingStats struct {
	chapters, finished int
}

func (c *countingStats) ChapterRead(context.Context) error  { c.chapters++; return nil }
func (c *countingStats) BookFinished(context.Context) error { c.finished++; return nil }

type fixture struct {
	tracker   *Tracker
	surface   *render.TextSurface
	locations memLocations
	progress  *memProgress
	stats     *countingStats
}

// setup binds a tracker to a 3-section surface of 100 runes each, with
// 10-rune pages, and forwards location events to it.
func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		locations: memLocations{},
		progress:  &memProgress{values: map[string]int{}},
		stats:     &countingStats{},
	}
	f.surface = render.NewTextSurface(func([]byte) ([]render.SectionText, error) {
		return []render.SectionText{
			{Label: "One", Text: strings.Repeat("a", 100)},
			{Label: "Two", Text: strings.Repeat("b", 100)},
			{Label: "Three", Text: strings.Repeat("c", 100)},
		}, nil
	}, 10)
	f.tracker = NewTracker(f.locations, f.progress, 0)
	f.tracker.SetStatsReporter(f.stats)
	f.tracker.Bind("book", f.surface, 0)
	f.surface.Subscribe(func(ev render.Event) {
		if ev.Kind == render.EventLocationChanged {
			require.NoError(t, f.tracker.OnLocationChanged(context.Background(), ev.Token))
		}
	})
	require.NoError(t, f.surface.Load(nil, ""))
	return f
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0))
	assert.Equal(t, 33, Percent(0.3399))
	assert.Equal(t, 100, Percent(1))
	assert.Equal(t, 100, Percent(1.2))
	assert.Equal(t, 0, Percent(-0.1))
}

func TestTracker_LocationChangeWritesThrough(t *testing.T) {
	f := setup(t)
	assert.Equal(t, "sec:0:0", f.locations["book"])

	require.NoError(t, f.surface.Display("sec:1:50"))
	assert.Equal(t, "sec:1:50", f.locations["book"])
	assert.Equal(t, 50, f.tracker.Display())
	assert.Equal(t, 50, f.progress.values["book"])
}

func TestTracker_UnchangedPercentNotRewritten(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.surface.Display("sec:1:50"))
	writes := f.progress.writes

	// Same page again: location rewritten, progress not.
	require.NoError(t, f.surface.Display("sec:1:55"))
	assert.Equal(t, writes, f.progress.writes)
}

func TestTracker_ChapterAndFinishReported(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.surface.Display("sec:1:0"))
	require.NoError(t, f.surface.Display("sec:0:0"))
	require.NoError(t, f.surface.Display("sec:2:0"))
	assert.Equal(t, 2, f.stats.chapters)

	require.NoError(t, f.surface.Display("sec:2:95"))
	assert.Equal(t, 100, f.tracker.Display())
	require.NoError(t, f.surface.Prev())
	require.NoError(t, f.surface.Next())
	assert.Equal(t, 1, f.stats.finished)
}

func TestTracker_RelayoutKeepsPosition(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.surface.Display("sec:1:40"))
	before := f.tracker.Display()

	require.NoError(t, f.surface.ApplyLayout(render.Layout{FontSize: 100, Columns: 2}))
	require.NoError(t, f.tracker.Relayout(context.Background()))

	assert.Equal(t, "sec:1:40", f.surface.CurrentPosition().Token)
	assert.Equal(t, before, f.tracker.Display())
	assert.Equal(t, "sec:1:40", f.locations["book"])
}

func TestTracker_RelayoutHonoursContext(t *testing.T) {
	f := setup(t)
	f.tracker.settle = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.tracker.Relayout(ctx), context.Canceled)
}

func TestTracker_UnboundIsNoop(t *testing.T) {
	f := setup(t)
	f.tracker.Unbind()

	require.NoError(t, f.surface.Display("sec:2:0"))
	assert.Equal(t, "sec:0:0", f.locations["book"])
	assert.NoError(t, f.tracker.Relayout(context.Background()))
	assert.Zero(t, f.tracker.Display())
}

func TestOnLocationChanged_DeletedBookWritesNothing(t *testing.T) {
	f := setup(t)
	writes := f.progress.writes
	delete(f.locations, "book")
	f.progress.deleted = map[string]bool{"book": true}

	require.NoError(t, f.surface.Next())
	assert.NotContains(t, f.locations, "book")
	assert.Equal(t, writes, f.progress.writes)
}
