package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/database/blobs"
	"github.com/mrlokans/bookshelf/internal/database/documents"
	"github.com/mrlokans/bookshelf/internal/database/jobs"
	"github.com/mrlokans/bookshelf/internal/database/locations"
	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/epub"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/reader"
	"github.com/mrlokans/bookshelf/internal/render"
	"github.com/mrlokans/bookshelf/internal/search"
	"github.com/mrlokans/bookshelf/internal/settingsstore"
	"github.com/mrlokans/bookshelf/internal/stats"
	"github.com/mrlokans/bookshelf/internal/testutil"
)

type testServer struct {
	router   *gin.Engine
	index    *library.Index
	blobs    *blobs.Repository
	settings *settingsstore.SettingsStore
	reader   *reader.Reader
	surface  *render.TextSurface
	backup   *backup.Coordinator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db := testutil.TestDatabase(t)
	docs := documents.NewRepository(db.DB)
	s := &testServer{
		index:    library.NewIndex(docs),
		blobs:    blobs.NewRepository(db.DB),
		settings: settingsstore.New(settings.NewRepository(db.DB)),
	}
	locs := locations.NewRepository(db.DB)
	require.NoError(t, s.index.Init(ctx))

	ingester := library.NewIngester(s.blobs, s.index, epub.NewParser())
	s.surface = render.NewTextSurface(epub.SurfaceLoader, 40)
	s.reader = reader.NewReader(s.surface, reader.Stores{Blobs: s.blobs, Locations: locs, Index: s.index}, reader.Options{SearchDebounce: 0})
	tracker := stats.NewTracker(docs)
	s.reader.SetStatsRecorder(tracker)
	manager := library.NewManager(s.blobs, locs, s.index)
	manager.SetSessionCloser(s.reader)
	t.Cleanup(func() { s.reader.Close(context.Background()) })

	s.backup = backup.NewCoordinator(backup.Stores{
		Blobs: s.blobs, Locations: locs, Index: s.index, Settings: s.settings,
	}, backup.Options{})

	s.router = NewRouter(RouterConfig{
		Version:  "test",
		Database: db,
		Index:    s.index,
		Ingester: ingester,
		Deleter:  manager,
		Blobs:    s.blobs,
		Searcher: func(ctx context.Context, content []byte, query string) ([]search.Result, error) {
			return search.Document(ctx, render.NewTextSurface(epub.SurfaceLoader, 0), content, query, 0)
		},
		ReaderSettings: s.settings,
		BackupSettings: s.settings,
		Backup:         s.backup,
		BackupDir:      t.TempDir(),
		Reader:         s.reader,
		Interaction:    s.surface,
		Stats:          tracker,
		Jobs: map[string]JobProgressReader{
			"backup_export": jobs.NewRepository(db.DB, entities.JobTypeBackupExport),
		},
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type filePart struct {
	name string
	data []byte
}

func (s *testServer) upload(t *testing.T, path string, files ...filePart) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("file", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) addAlice(t *testing.T) entities.BookRecord {
	t.Helper()
	w := s.upload(t, "/api/books", filePart{"Alice.epub", testutil.Alice(t)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[UploadResponse](t, w)
	require.Len(t, resp.Ingested, 1)
	return resp.Ingested[0]
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "test", resp.Version)
}

func TestRespondAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperr.Validation("bad %s", "input"), http.StatusBadRequest},
		{"not found", apperr.NotFound("book"), http.StatusNotFound},
		{"other", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondAppError(c, tt.err, "test")
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusInternalServerError {
				assert.Contains(t, w.Body.String(), "internal server error")
				assert.NotContains(t, w.Body.String(), "unexpected EOF")
			}
		})
	}
}
