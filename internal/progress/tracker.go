// Package progress records where the reader is in the open book and keeps
// the stored percentage in step with it.
package progress

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/render"
)

// DefaultSettleDelay is how long Relayout waits for the surface to settle
// before repaginating.
const DefaultSettleDelay = 250 * time.Millisecond

// LocationWriter persists the last position token per book.
type LocationWriter interface {
	Set(ctx context.Context, key, token string) error
}

// ProgressStore persists the percentage per book.
type ProgressStore interface {
	Get(key string) (entities.BookRecord, bool)
	SetProgress(ctx context.Context, key string, percent int) (bool, error)
}

// Surface is the part of the rendering surface the tracker drives.
type Surface interface {
	CurrentPosition() render.Position
	Resize() error
	Display(token string) error
}

// StatsReporter receives reading milestones.
type StatsReporter interface {
	ChapterRead(ctx context.Context) error
	BookFinished(ctx context.Context) error
}

// Tracker follows location changes of one bound book.
type Tracker struct {
	locations LocationWriter
	store     ProgressStore
	settle    time.Duration
	stats     StatsReporter

	mu       sync.Mutex
	key      string
	surface  Surface
	percent  int
	section  int
	finished bool
}

func NewTracker(locations LocationWriter, store ProgressStore, settle time.Duration) *Tracker {
	if settle < 0 {
		settle = DefaultSettleDelay
	}
	return &Tracker{locations: locations, store: store, settle: settle, section: -1}
}

func (t *Tracker) SetStatsReporter(stats StatsReporter) {
	t.stats = stats
}

// Bind starts tracking key on surface. percent is the stored progress and
// is displayed until the first location change.
func (t *Tracker) Bind(key string, surface Surface, percent int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.key = key
	t.surface = surface
	t.percent = percent
	t.section = -1
	t.finished = percent >= 100
}

// Unbind stops tracking; later calls are no-ops.
func (t *Tracker) Unbind() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.key = ""
	t.surface = nil
	t.percent = 0
	t.section = -1
	t.finished = false
}

// Display returns the displayed percentage.
func (t *Tracker) Display() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Key returns the bound book, empty when unbound.
func (t *Tracker) Key() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key
}

// Percent maps a surface fraction to a whole percentage in 0..100.
func Percent(fraction float64) int {
	if math.IsNaN(fraction) {
		return 0
	}
	p := int(math.Floor(fraction * 100))
	return min(100, max(0, p))
}

// OnLocationChanged stores token, refreshes the displayed percentage and
// persists it when it changed. Events for a book no longer in the store
// write nothing.
func (t *Tracker) OnLocationChanged(ctx context.Context, token string) error {
	t.mu.Lock()
	key, surface := t.key, t.surface
	t.mu.Unlock()
	if key == "" || surface == nil {
		return nil
	}
	if _, ok := t.store.Get(key); !ok {
		// Deleted while open.
		return nil
	}

	if err := t.locations.Set(ctx, key, token); err != nil {
		return err
	}

	pos := surface.CurrentPosition()
	percent := Percent(pos.Fraction)

	t.mu.Lock()
	if t.key != key {
		t.mu.Unlock()
		return nil
	}
	t.percent = percent
	advanced := t.section >= 0 && pos.Section > t.section
	if t.section < 0 || pos.Section > t.section {
		t.section = pos.Section
	}
	justFinished := percent >= 100 && !t.finished
	if justFinished {
		t.finished = true
	}
	t.mu.Unlock()

	if _, err := t.store.SetProgress(ctx, key, percent); err != nil {
		return err
	}
	t.report(ctx, advanced, justFinished)
	return nil
}

func (t *Tracker) report(ctx context.Context, advanced, finished bool) {
	if t.stats == nil {
		return
	}
	if advanced {
		if err := t.stats.ChapterRead(ctx); err != nil {
			log.Printf("[PROGRESS] record chapter: %v", err)
		}
	}
	if finished {
		if err := t.stats.BookFinished(ctx); err != nil {
			log.Printf("[PROGRESS] record finished book: %v", err)
		}
	}
}

// Relayout keeps the reader on the same position across a layout change.
// It waits for the settle delay, repaginates, redisplays the position held
// before the change and refreshes the displayed percentage.
func (t *Tracker) Relayout(ctx context.Context) error {
	t.mu.Lock()
	key, surface := t.key, t.surface
	t.mu.Unlock()
	if key == "" || surface == nil {
		return nil
	}
	token := surface.CurrentPosition().Token

	if t.settle > 0 {
		timer := time.NewTimer(t.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if t.Key() != key {
		return nil
	}
	if err := surface.Resize(); err != nil {
		return err
	}
	if token != "" {
		if err := surface.Display(token); err != nil {
			return err
		}
	}

	percent := Percent(surface.CurrentPosition().Fraction)
	t.mu.Lock()
	if t.key == key {
		t.percent = percent
	}
	t.mu.Unlock()
	return nil
}
