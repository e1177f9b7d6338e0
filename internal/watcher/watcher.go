// Package watcher ingests books dropped into a directory.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrlokans/bookshelf/internal/library"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = time.Second

// Sink receives a settled book file. It may ingest inline or enqueue.
type Sink func(ctx context.Context, path string) error

// Watcher turns create and write events under one directory into ingests.
type Watcher struct {
	dir      string
	debounce time.Duration
	sink     Sink
	known    func(key string) bool
}

// New returns a watcher for dir. A non-positive debounce selects
// DefaultDebounce.
func New(dir string, debounce time.Duration, sink Sink) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, sink: sink}
}

// SetKnown installs a lookup that skips files whose library key is already
// stored, so a re-written copy does not reset the book's annotations.
func (w *Watcher) SetKnown(fn func(key string) bool) {
	w.known = fn
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create drop dir: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.Printf("[WATCHER] Watching %s", w.dir)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Printf("[WATCHER] Stopped")
			return nil

		case <-fire:
			w.flush(ctx, pending)
			pending = make(map[string]struct{})

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isBook(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WATCHER] Error: %v", werr)
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if w.known != nil && w.known(library.Key(filepath.Base(p), int(info.Size()))) {
			log.Printf("[WATCHER] %s already in library, skipping", filepath.Base(p))
			continue
		}
		if err := w.sink(ctx, p); err != nil {
			log.Printf("[WATCHER] Failed to ingest %s: %v", p, err)
			continue
		}
		log.Printf("[WATCHER] Submitted %s", filepath.Base(p))
	}
}

func isBook(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".epub")
}
