package covers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func imageServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("fake image data"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewCache(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "covers")

	cache, err := NewCache(cacheDir, 0)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}
	if cache.CacheDir() != cacheDir {
		t.Errorf("expected cache dir %s, got %s", cacheDir, cache.CacheDir())
	}
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Error("cache directory was not created")
	}
	if cache.httpClient.Timeout != DefaultFetchTimeout {
		t.Errorf("expected default timeout, got %s", cache.httpClient.Timeout)
	}
}

func TestGetCover_EmptyURL(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), 0)

	path, err := cache.GetCover(context.Background(), "")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for empty URL, got %s", path)
	}
}

func TestGetCover_FetchAndCache(t *testing.T) {
	var hits int32
	server := imageServer(t, &hits)
	cache, _ := NewCache(t.TempDir(), 0)
	ctx := context.Background()

	path1, err := cache.GetCover(ctx, server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("GetCover failed: %v", err)
	}
	if _, err := os.Stat(path1); os.IsNotExist(err) {
		t.Error("cached file does not exist")
	}

	path2, err := cache.GetCover(ctx, server.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("GetCover (cached) failed: %v", err)
	}
	if path1 != path2 {
		t.Error("expected same path for cached request")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected one download, got %d", got)
	}
}

func TestGetCover_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cache, _ := NewCache(t.TempDir(), 0)

	if _, err := cache.GetCover(context.Background(), server.URL+"/notfound.jpg"); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestGetCover_CancelledContext(t *testing.T) {
	server := imageServer(t, nil)
	cache, _ := NewCache(t.TempDir(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cache.GetCover(ctx, server.URL+"/cover.jpg"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestInvalidateCover(t *testing.T) {
	server := imageServer(t, nil)
	cache, _ := NewCache(t.TempDir(), 0)
	url := server.URL + "/cover.jpg"

	path, err := cache.GetCover(context.Background(), url)
	if err != nil {
		t.Fatalf("GetCover failed: %v", err)
	}

	if err := cache.InvalidateCover(url); err != nil {
		t.Fatalf("InvalidateCover failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cached file should be deleted after invalidation")
	}

	// Invalidating again is fine
	if err := cache.InvalidateCover(url); err != nil {
		t.Errorf("second InvalidateCover failed: %v", err)
	}
}

func TestCoverFilename(t *testing.T) {
	cache, _ := NewCache(t.TempDir(), 0)

	name1 := cache.coverFilename("https://example.com/cover.jpg")
	name2 := cache.coverFilename("https://example.com/cover.jpg")
	if name1 != name2 {
		t.Error("same inputs should produce same filename")
	}

	name3 := cache.coverFilename("https://example.com/other.jpg")
	if name1 == name3 {
		t.Error("different URLs should produce different filenames")
	}
}
