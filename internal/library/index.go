package library

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// DocumentStore persists named JSON documents.
type DocumentStore interface {
	Load(ctx context.Context, name string, v any) error
	Save(ctx context.Context, name string, v any) error
}

// Mutation computes the next collection from the current one. It returns
// false when nothing changed, in which case no write happens.
type Mutation func(records []entities.BookRecord) ([]entities.BookRecord, bool, error)

// Change is delivered to subscribers after a successful write. Key is
// empty when the whole collection was replaced.
type Change struct {
	Key string
}

// Index is the ordered collection of book records. Every write is a
// read-modify-write of the whole collection behind one mutex, so each
// writer computes from the freshest state.
type Index struct {
	docs DocumentStore
	name string

	mu      sync.RWMutex
	records []entities.BookRecord

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// NewIndex creates an index persisted as the library_index document.
func NewIndex(docs DocumentStore) *Index {
	return &Index{
		docs: docs,
		name: entities.DocumentLibraryIndex,
		subs: make(map[int]func(Change)),
	}
}

// Init loads the collection from durable storage. A missing document is an
// empty library.
func (x *Index) Init(ctx context.Context) error {
	records, err := x.load(ctx)
	if err != nil {
		return err
	}

	x.mu.Lock()
	x.records = records
	x.mu.Unlock()
	return nil
}

// Reload discards the in-memory snapshot and reads storage again.
func (x *Index) Reload(ctx context.Context) error {
	if err := x.Init(ctx); err != nil {
		return err
	}
	x.notify(Change{})
	return nil
}

// Dispose drops every subscriber.
func (x *Index) Dispose() {
	x.subMu.Lock()
	x.subs = make(map[int]func(Change))
	x.subMu.Unlock()
}

func (x *Index) load(ctx context.Context) ([]entities.BookRecord, error) {
	var records []entities.BookRecord
	err := x.docs.Load(ctx, x.name, &records)
	if apperr.IsNotFound(err) {
		return []entities.BookRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load library index: %w", err)
	}
	for i := range records {
		if records[i].Annotations == nil {
			records[i].Annotations = []entities.Annotation{}
		}
	}
	return records, nil
}

// List returns a copy of every record in collection order.
func (x *Index) List() []entities.BookRecord {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return cloneAll(x.records)
}

// Get returns a copy of the record under key.
func (x *Index) Get(key string) (entities.BookRecord, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i := indexOf(x.records, key); i >= 0 {
		return x.records[i].Clone(), true
	}
	return entities.BookRecord{}, false
}

// Len returns the number of records.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

// Subscribe registers fn to run after every successful write. The returned
// func unregisters it.
func (x *Index) Subscribe(fn func(Change)) func() {
	x.subMu.Lock()
	id := x.nextSub
	x.nextSub++
	x.subs[id] = fn
	x.subMu.Unlock()

	return func() {
		x.subMu.Lock()
		delete(x.subs, id)
		x.subMu.Unlock()
	}
}

func (x *Index) notify(c Change) {
	x.subMu.Lock()
	fns := make([]func(Change), 0, len(x.subs))
	for _, fn := range x.subs {
		fns = append(fns, fn)
	}
	x.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Mutate runs fn against the current collection and persists its result.
// The in-memory snapshot is replaced only after the write succeeds.
// Subscribers are notified with key once the lock is released.
func (x *Index) Mutate(ctx context.Context, key string, fn Mutation) (bool, error) {
	x.mu.Lock()
	next, changed, err := fn(cloneAll(x.records))
	if err != nil || !changed {
		x.mu.Unlock()
		return false, err
	}
	if err := x.docs.Save(ctx, x.name, next); err != nil {
		x.mu.Unlock()
		return false, fmt.Errorf("save library index: %w", err)
	}
	x.records = next
	x.mu.Unlock()

	x.notify(Change{Key: key})
	return true, nil
}

// Upsert replaces the record with the same key in place, or appends it.
func (x *Index) Upsert(ctx context.Context, record entities.BookRecord) error {
	if record.Annotations == nil {
		record.Annotations = []entities.Annotation{}
	}
	_, err := x.Mutate(ctx, record.Key, func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		if i := indexOf(records, record.Key); i >= 0 {
			records[i] = record
			return records, true, nil
		}
		return append(records, record), true, nil
	})
	return err
}

// Remove drops the record under key. Removing a missing key is a no-op.
func (x *Index) Remove(ctx context.Context, key string) error {
	_, err := x.Mutate(ctx, key, func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		i := indexOf(records, key)
		if i < 0 {
			return records, false, nil
		}
		return append(records[:i], records[i+1:]...), true, nil
	})
	return err
}

// AddAnnotation appends a to the record under key.
func (x *Index) AddAnnotation(ctx context.Context, key string, a entities.Annotation) error {
	return x.ReplaceAnnotation(ctx, key, "", a)
}

// ReplaceAnnotation removes the annotation oldID (if present) and appends a,
// in one write. An empty oldID only appends. A missing record writes
// nothing.
func (x *Index) ReplaceAnnotation(ctx context.Context, key, oldID string, a entities.Annotation) error {
	_, err := x.Mutate(ctx, key, func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		i := indexOf(records, key)
		if i < 0 {
			return records, false, nil
		}
		anns := records[i].Annotations
		if oldID != "" {
			anns = withoutAnnotation(anns, oldID)
		}
		records[i].Annotations = append(anns, a)
		return records, true, nil
	})
	return err
}

// RemoveAnnotation removes the annotation id from the record under key.
func (x *Index) RemoveAnnotation(ctx context.Context, key, id string) error {
	_, err := x.Mutate(ctx, key, func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		i := indexOf(records, key)
		if i < 0 {
			return records, false, nil
		}
		before := len(records[i].Annotations)
		records[i].Annotations = withoutAnnotation(records[i].Annotations, id)
		return records, len(records[i].Annotations) != before, nil
	})
	return err
}

// RemapAnnotations sets new colors by annotation id on the record under key.
func (x *Index) RemapAnnotations(ctx context.Context, key string, colors map[string]string) error {
	_, err := x.Mutate(ctx, key, func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		i := indexOf(records, key)
		if i < 0 {
			return records, false, nil
		}
		changed := false
		for j, a := range records[i].Annotations {
			if c, ok := colors[a.ID]; ok && c != a.Color {
				records[i].Annotations[j].Color = c
				changed = true
			}
		}
		return records, changed, nil
	})
	return err
}

// SetProgress stores percent for key. It reports whether anything was
// written: an unchanged value or a missing record writes nothing.
func (x *Index) SetProgress(ctx context.Context, key string, percent int) (bool, error) {
	return x.Mutate(ctx, key, func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		i := indexOf(records, key)
		if i < 0 {
			return records, false, nil
		}
		if records[i].Progress != nil && *records[i].Progress == percent {
			return records, false, nil
		}
		records[i].Progress = entities.IntPtr(percent)
		return records, true, nil
	})
}

// Merge combines incoming records with the current collection: existing
// records whose key is not incoming keep their order, followed by every
// incoming record in the given order.
func (x *Index) Merge(ctx context.Context, incoming []entities.BookRecord) error {
	_, err := x.Mutate(ctx, "", func(records []entities.BookRecord) ([]entities.BookRecord, bool, error) {
		return MergeRecords(records, incoming), true, nil
	})
	return err
}

// MergeRecords is the pure merge rule used by Merge.
func MergeRecords(existing, incoming []entities.BookRecord) []entities.BookRecord {
	seen := make(map[string]struct{}, len(incoming))
	for _, r := range incoming {
		seen[r.Key] = struct{}{}
	}

	out := make([]entities.BookRecord, 0, len(existing)+len(incoming))
	for _, r := range existing {
		if _, ok := seen[r.Key]; !ok {
			out = append(out, r)
		}
	}
	for _, r := range incoming {
		r = r.Clone()
		if r.Annotations == nil {
			r.Annotations = []entities.Annotation{}
		}
		out = append(out, r)
	}
	return out
}

func indexOf(records []entities.BookRecord, key string) int {
	for i := range records {
		if records[i].Key == key {
			return i
		}
	}
	return -1
}

func withoutAnnotation(anns []entities.Annotation, id string) []entities.Annotation {
	out := make([]entities.Annotation, 0, len(anns))
	for _, a := range anns {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func cloneAll(records []entities.BookRecord) []entities.BookRecord {
	out := make([]entities.BookRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func logf(format string, args ...any) {
	log.Printf("[LIBRARY] "+format, args...)
}
