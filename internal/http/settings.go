package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type SettingsController struct {
	store  ReaderSettingsStore
	reader ReaderSession
}

func NewSettingsController(store ReaderSettingsStore, reader ReaderSession) *SettingsController {
	return &SettingsController{store: store, reader: reader}
}

// Get handles GET /api/settings
func (sc *SettingsController) Get(c *gin.Context) {
	rs, err := sc.store.ReaderSettings(c.Request.Context())
	if err != nil {
		respondAppError(c, err, "load settings")
		return
	}
	c.JSON(http.StatusOK, rs)
}

// SettingsUpdateResponse reports which fields were accepted.
type SettingsUpdateResponse struct {
	Settings entities.ReaderSettings `json:"settings"`
	Applied  []string                `json:"applied"`
}

// Update handles PATCH /api/settings. Unknown or invalid fields are
// ignored; the rest apply one by one.
func (sc *SettingsController) Update(c *gin.Context) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondBadRequest(c, "settings body must be a JSON object")
		return
	}
	rs, applied, err := sc.store.ApplyReaderSettings(c.Request.Context(), fields)
	if err != nil {
		respondAppError(c, err, "save settings")
		return
	}
	sc.push(c, rs)
	if applied == nil {
		applied = []string{}
	}
	c.JSON(http.StatusOK, SettingsUpdateResponse{Settings: rs, Applied: applied})
}

// Reset handles DELETE /api/settings
func (sc *SettingsController) Reset(c *gin.Context) {
	ctx := c.Request.Context()
	if err := sc.store.ResetReaderSettings(ctx); err != nil {
		respondAppError(c, err, "reset settings")
		return
	}
	rs, err := sc.store.ReaderSettings(ctx)
	if err != nil {
		respondAppError(c, err, "load settings")
		return
	}
	sc.push(c, rs)
	c.JSON(http.StatusOK, rs)
}

// push hands the new settings to the reading session.
func (sc *SettingsController) push(c *gin.Context, rs entities.ReaderSettings) {
	if sc.reader == nil {
		return
	}
	if err := sc.reader.UpdateSettings(c.Request.Context(), rs); err != nil {
		log.Printf("[HTTP] Reader did not take new settings: %v", err)
	}
}
