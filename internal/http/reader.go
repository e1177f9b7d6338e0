package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/render"
	"github.com/mrlokans/bookshelf/internal/search"
)

// ReaderController drives the headless reading session: open a book,
// page through it, select text and search.
type ReaderController struct {
	session ReaderSession
	surface Interaction
}

func NewReaderController(session ReaderSession, surface Interaction) *ReaderController {
	return &ReaderController{session: session, surface: surface}
}

type openRequest struct {
	Key string `json:"key" binding:"required"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type gestureRequest struct {
	Range string  `json:"cfiRange" binding:"required"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type commitRequest struct {
	Color string                  `json:"color" binding:"required"`
	Type  entities.AnnotationKind `json:"type"`
}

type searchRequest struct {
	Query string `json:"q"`
}

// SearchStateResponse is the debounced search of the open book.
type SearchStateResponse struct {
	Query     string          `json:"query"`
	Results   []search.Result `json:"results"`
	Searching bool            `json:"searching"`
}

func (rc *ReaderController) respondState(c *gin.Context) {
	c.JSON(http.StatusOK, rc.session.State())
}

// State handles GET /api/reader
func (rc *ReaderController) State(c *gin.Context) {
	rc.respondState(c)
}

// Open handles POST /api/reader/open
func (rc *ReaderController) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "key is required")
		return
	}
	if err := rc.session.Open(c.Request.Context(), req.Key); err != nil {
		respondAppError(c, err, "open book")
		return
	}
	rc.respondState(c)
}

// Close handles POST /api/reader/close
func (rc *ReaderController) Close(c *gin.Context) {
	rc.session.Close(c.Request.Context())
	rc.respondState(c)
}

// Next handles POST /api/reader/next
func (rc *ReaderController) Next(c *gin.Context) {
	rc.navigate(c, rc.session.Next)
}

// Prev handles POST /api/reader/prev
func (rc *ReaderController) Prev(c *gin.Context) {
	rc.navigate(c, rc.session.Prev)
}

func (rc *ReaderController) navigate(c *gin.Context, step func() error) {
	if err := step(); err != nil {
		respondAppError(c, err, "navigate")
		return
	}
	rc.respondState(c)
}

// Display handles POST /api/reader/display
func (rc *ReaderController) Display(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "token is required")
		return
	}
	if err := rc.session.GoTo(req.Token); err != nil {
		respondAppError(c, err, "display")
		return
	}
	rc.respondState(c)
}

// Select handles POST /api/reader/select
func (rc *ReaderController) Select(c *gin.Context) {
	rc.gesture(c, rc.surface.Select)
}

// Click handles POST /api/reader/click
func (rc *ReaderController) Click(c *gin.Context) {
	rc.gesture(c, rc.surface.Click)
}

func (rc *ReaderController) gesture(c *gin.Context, fn func(string, render.Point) error) {
	var req gestureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "cfiRange is required")
		return
	}
	if !rc.session.State().Open {
		respondBadRequest(c, "no book is open")
		return
	}
	if err := fn(req.Range, render.Point{X: req.X, Y: req.Y}); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	rc.respondState(c)
}

// Commit handles POST /api/reader/commit
func (rc *ReaderController) Commit(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "color is required")
		return
	}
	a, err := rc.session.Controller().Commit(c.Request.Context(), req.Color, req.Type)
	if err != nil {
		respondAppError(c, err, "save annotation")
		return
	}
	respondCreated(c, a)
}

// Copy handles POST /api/reader/copy
func (rc *ReaderController) Copy(c *gin.Context) {
	text, ok := rc.session.Controller().Copy()
	if !ok {
		respondBadRequest(c, "nothing selected")
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// DeleteAnnotation handles POST /api/reader/delete
func (rc *ReaderController) DeleteAnnotation(c *gin.Context) {
	if err := rc.session.Controller().Delete(c.Request.Context()); err != nil {
		respondAppError(c, err, "delete annotation")
		return
	}
	respondSuccess(c, "annotation deleted")
}

// Dismiss handles POST /api/reader/dismiss
func (rc *ReaderController) Dismiss(c *gin.Context) {
	rc.session.Controller().Dismiss()
	rc.respondState(c)
}

// SubmitSearch handles POST /api/reader/search. The query runs after the
// debounce delay; poll GET /api/reader/search for the outcome.
func (rc *ReaderController) SubmitSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	s, err := rc.session.SearchSession()
	if err != nil {
		respondAppError(c, err, "search")
		return
	}
	s.Submit(req.Query)
	respondAccepted(c, "search submitted", gin.H{"query": req.Query})
}

// SearchState handles GET /api/reader/search
func (rc *ReaderController) SearchState(c *gin.Context) {
	s, err := rc.session.SearchSession()
	if err != nil {
		respondAppError(c, err, "search")
		return
	}
	query, results := s.Results()
	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, SearchStateResponse{Query: query, Results: results, Searching: s.Searching()})
}

// ShowResult handles POST /api/reader/show
func (rc *ReaderController) ShowResult(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "token is required")
		return
	}
	if err := rc.session.ShowResult(req.Token); err != nil {
		respondAppError(c, err, "show result")
		return
	}
	rc.respondState(c)
}

