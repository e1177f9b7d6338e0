package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func TestStats_Get(t *testing.T) {
	s := newTestServer(t)
	rec := s.addAlice(t)
	_, err := s.index.SetProgress(context.Background(), rec.Key, 40)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[StatsResponse](t, w)
	assert.Equal(t, 1, resp.Books)
	assert.Equal(t, 1, resp.InProgress)
	assert.Equal(t, 0, resp.SessionsCount)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/stats", nil).Code)
}

func TestStats_Jobs(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/jobs", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]map[string]*entities.JobProgress](t, w)
	require.Contains(t, resp["jobs"], "backup_export")
	assert.Nil(t, resp["jobs"]["backup_export"])
}
