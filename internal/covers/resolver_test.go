package covers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/epub"
	"github.com/mrlokans/bookshelf/internal/testutil"
)

func TestResolver_ArchiveCover(t *testing.T) {
	book := testutil.BuildEPUB(t, testutil.EPUB{
		Title:    "Covered",
		Cover:    testutil.PNG,
		Chapters: []testutil.Chapter{{Title: "One", Body: "text"}},
	})
	r := NewResolver(epub.NewParser(), nil)

	uri, err := r.FetchCover(context.Background(), book, "OEBPS/images/cover.png")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"), uri)

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, testutil.PNG, decoded)
}

func TestResolver_MissingResource(t *testing.T) {
	book := testutil.Alice(t)
	r := NewResolver(epub.NewParser(), nil)

	_, err := r.FetchCover(context.Background(), book, "OEBPS/images/nope.png")
	assert.Error(t, err)

	_, err = r.FetchCover(context.Background(), book, "")
	assert.Error(t, err)
}

func servePayload(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolver_RemoteCover(t *testing.T) {
	server := servePayload(t, testutil.PNG)
	cache, err := NewCache(t.TempDir(), 0)
	require.NoError(t, err)
	r := NewResolver(epub.NewParser(), cache)

	uri, err := r.FetchCover(context.Background(), nil, server.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, DataURI(testutil.PNG, "image/png"), uri)
}

func TestResolver_RemoteNotAnImage(t *testing.T) {
	server := servePayload(t, []byte("<html>not found</html>"))
	dir := t.TempDir()
	cache, err := NewCache(dir, 0)
	require.NoError(t, err)
	r := NewResolver(epub.NewParser(), cache)

	_, err = r.FetchCover(context.Background(), nil, server.URL+"/cover.png")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "bad payload is not kept in the cache")
}

func TestResolver_RemoteWithoutCache(t *testing.T) {
	r := NewResolver(epub.NewParser(), nil)
	_, err := r.FetchCover(context.Background(), nil, "https://example.com/c.jpg")
	assert.Error(t, err)
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,AAE=", DataURI([]byte{0, 1}, "image/jpeg"))
	assert.True(t, strings.HasPrefix(DataURI(testutil.PNG, "application/octet-stream"), "data:image/png;base64,"))
}
