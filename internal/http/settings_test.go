package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func TestSettings_GetDefaults(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/settings", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.DefaultReaderSettings(), decode[entities.ReaderSettings](t, w))
}

func TestSettings_PatchAppliesValidFields(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPatch, "/api/settings", map[string]any{
		"fontSize": 150,
		"theme":    "neon",
		"unknown":  true,
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SettingsUpdateResponse](t, w)
	assert.Equal(t, []string{"fontSize"}, resp.Applied)
	assert.Equal(t, 150, resp.Settings.FontSize)
	assert.Equal(t, "light", resp.Settings.Theme)
	assert.Equal(t, 150, s.reader.Settings().FontSize, "reading session follows saved settings")

	w = s.do(t, http.MethodGet, "/api/settings", nil)
	assert.Equal(t, 150, decode[entities.ReaderSettings](t, w).FontSize)
}

func TestSettings_PatchRejectsNonObject(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPatch, "/api/settings", []int{1, 2})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings_Reset(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPatch, "/api/settings", map[string]any{"theme": "dark"})

	w := s.do(t, http.MethodDelete, "/api/settings", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "light", decode[entities.ReaderSettings](t, w).Theme)
	assert.Equal(t, "light", s.reader.Settings().Theme)
}
