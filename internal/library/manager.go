package library

import (
	"context"
	"fmt"
)

// LocationStore holds the last position token per book.
type LocationStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
	Delete(ctx context.Context, key string) error
}

// SessionCloser closes the reading session if it holds key.
type SessionCloser interface {
	CloseIfOpen(key string)
}

// Manager removes books from every store.
type Manager struct {
	blobs     BlobStore
	locations LocationStore
	index     *Index
	sessions  SessionCloser
}

// NewManager creates a manager over the three keyed stores.
func NewManager(blobs BlobStore, locations LocationStore, index *Index) *Manager {
	return &Manager{blobs: blobs, locations: locations, index: index}
}

// SetSessionCloser wires the reading session so deleting the open book
// closes it.
func (m *Manager) SetSessionCloser(c SessionCloser) {
	m.sessions = c
}

// Delete closes the session if it shows this book, then removes the blob,
// the saved location and the index record, in that order. Deleting an
// unknown key succeeds.
func (m *Manager) Delete(ctx context.Context, key string) error {
	if m.sessions != nil {
		m.sessions.CloseIfOpen(key)
	}
	if err := m.blobs.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if err := m.locations.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if err := m.index.Remove(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	logf("Deleted %s", key)
	return nil
}
