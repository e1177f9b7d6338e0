// Package stats keeps aggregate reading statistics in a stored document.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// DocumentStore loads and saves whole JSON documents.
type DocumentStore interface {
	Load(ctx context.Context, name string, v any) error
	Save(ctx context.Context, name string, v any) error
}

// Tracker accumulates reading sessions, chapters and finished books.
type Tracker struct {
	docs DocumentStore
	now  func() time.Time

	mu sync.Mutex
}

func NewTracker(docs DocumentStore) *Tracker {
	return &Tracker{docs: docs, now: time.Now}
}

// SetClock overrides the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Get returns the stored statistics, zero valued when none were saved.
func (t *Tracker) Get(ctx context.Context) (entities.ReadingStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(ctx)
}

func (t *Tracker) load(ctx context.Context) (entities.ReadingStats, error) {
	var s entities.ReadingStats
	if err := t.docs.Load(ctx, entities.DocumentReadingStats, &s); err != nil {
		if apperr.IsNotFound(err) {
			return entities.ReadingStats{}, nil
		}
		return entities.ReadingStats{}, err
	}
	return s, nil
}

func (t *Tracker) update(ctx context.Context, fn func(*entities.ReadingStats)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, err := t.load(ctx)
	if err != nil {
		return err
	}
	fn(&s)
	return t.docs.Save(ctx, entities.DocumentReadingStats, s)
}

// StartSession opens a reading session. A session left open by a crash
// is closed first without counting its time.
func (t *Tracker) StartSession(ctx context.Context) error {
	now := t.now().UnixMilli()
	return t.update(ctx, func(s *entities.ReadingStats) {
		s.SessionsCount++
		s.CurrentSessionStartTime = &now
	})
}

// EndSession adds the elapsed time of the open session. Without an open
// session it does nothing.
func (t *Tracker) EndSession(ctx context.Context) error {
	now := t.now().UnixMilli()
	return t.update(ctx, func(s *entities.ReadingStats) {
		if s.CurrentSessionStartTime == nil {
			return
		}
		if elapsed := now - *s.CurrentSessionStartTime; elapsed > 0 {
			s.TotalReadingTimeMs += elapsed
		}
		s.CurrentSessionStartTime = nil
	})
}

func (t *Tracker) ChapterRead(ctx context.Context) error {
	return t.update(ctx, func(s *entities.ReadingStats) { s.ChaptersRead++ })
}

func (t *Tracker) BookFinished(ctx context.Context) error {
	return t.update(ctx, func(s *entities.ReadingStats) { s.BooksFinished++ })
}

// Reset clears every counter.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.update(ctx, func(s *entities.ReadingStats) { *s = entities.ReadingStats{} })
}
