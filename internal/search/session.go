package search

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is how long a Session waits after the last submission
// before it searches.
const DefaultDebounce = 800 * time.Millisecond

// Searcher runs one query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Session debounces queries typed by the reader. Every Submit cancels the
// pending timer and any in-flight search; only the latest generation may
// publish results.
type Session struct {
	searcher Searcher
	debounce time.Duration

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	query      string
	results    []Result
	searching  bool
	closed     bool
	onComplete func(query string, results []Result)
}

func NewSession(searcher Searcher, debounce time.Duration) *Session {
	if debounce < 0 {
		debounce = DefaultDebounce
	}
	return &Session{searcher: searcher, debounce: debounce}
}

// SetOnComplete registers a callback invoked after a generation publishes
// its results.
func (s *Session) SetOnComplete(fn func(query string, results []Result)) {
	s.mu.Lock()
	s.onComplete = fn
	s.mu.Unlock()
}

// Submit schedules query. An empty query clears results immediately.
func (s *Session) Submit(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	s.generation++
	s.query = query

	if query == "" {
		s.results = nil
		s.searching = false
		return
	}

	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.searching = true
	s.timer = time.AfterFunc(s.debounce, func() { s.run(ctx, gen, query) })
}

func (s *Session) run(ctx context.Context, gen uint64, query string) {
	results, err := s.searcher.Search(ctx, query)

	s.mu.Lock()
	if gen != s.generation || s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("[SEARCH] query %q: %v", query, err)
		}
		results = nil
	}
	s.results = results
	s.searching = false
	s.cancel = nil
	s.timer = nil
	onComplete := s.onComplete
	s.mu.Unlock()

	if onComplete != nil {
		onComplete(query, results)
	}
}

func (s *Session) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Results returns the query and results of the latest completed
// generation.
func (s *Session) Results() (string, []Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return s.query, out
}

// Searching reports whether a generation is pending or running.
func (s *Session) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searching
}

// Close cancels any pending work. Later submissions are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	s.searching = false
	s.results = nil
}
