package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/search"
	"github.com/mrlokans/bookshelf/internal/utils"
)

type BooksController struct {
	index    BookIndex
	ingester BookIngester
	deleter  BookDeleter
	blobs    BlobReader
	searcher DocumentSearcher
	open     ReaderSession
}

func NewBooksController(index BookIndex, ingester BookIngester, deleter BookDeleter, blobs BlobReader, searcher DocumentSearcher) *BooksController {
	return &BooksController{index: index, ingester: ingester, deleter: deleter, blobs: blobs, searcher: searcher}
}

// SetOpenBook lets Content serve the open book from the reading session.
func (bc *BooksController) SetOpenBook(session ReaderSession) {
	bc.open = session
}

// BookListResponse is the library view.
type BookListResponse struct {
	Books           []entities.BookRecord `json:"books"`
	Total           int                   `json:"total"`
	ContinueReading *entities.BookRecord  `json:"continueReading,omitempty"`
}

// List handles GET /api/books?q=&sort=
func (bc *BooksController) List(c *gin.Context) {
	all := bc.index.List()
	books := library.Sort(library.Filter(all, c.Query("q")), library.ParseSortOrder(c.Query("sort")))

	resp := BookListResponse{Books: books, Total: len(all)}
	if rec, ok := library.ContinueReading(all); ok {
		resp.ContinueReading = &rec
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/books/:key
func (bc *BooksController) Get(c *gin.Context) {
	rec, ok := bc.index.Get(c.Param("key"))
	if !ok {
		respondNotFound(c, "book")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UploadResponse lists what a multipart upload stored.
type UploadResponse struct {
	Ingested []entities.BookRecord `json:"ingested"`
	Failed   map[string]string     `json:"failed,omitempty"`
}

// Upload handles POST /api/books with one or more multipart "file" parts.
// Every file is attempted; a request where none succeeded is a 400.
func (bc *BooksController) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, "multipart form with a file field is required")
		return
	}
	headers := form.File["file"]
	if len(headers) == 0 {
		respondBadRequest(c, "no file uploaded")
		return
	}

	uploads := make([]library.Upload, 0, len(headers))
	for _, h := range headers {
		up, err := readUpload(h)
		if err != nil {
			respondInternalError(c, err, "read upload")
			return
		}
		uploads = append(uploads, up)
	}

	result := bc.ingester.IngestAll(c.Request.Context(), uploads)
	resp := UploadResponse{Ingested: result.Ingested}
	if len(result.Failed) > 0 {
		resp.Failed = make(map[string]string, len(result.Failed))
		for name, err := range result.Failed {
			resp.Failed[name] = err.Error()
		}
	}
	if len(resp.Ingested) == 0 {
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	respondCreated(c, resp)
}

func readUpload(h *multipart.FileHeader) (library.Upload, error) {
	f, err := h.Open()
	if err != nil {
		return library.Upload{}, fmt.Errorf("open %s: %w", h.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return library.Upload{}, fmt.Errorf("read %s: %w", h.Filename, err)
	}
	return library.Upload{Name: h.Filename, ContentType: h.Header.Get("Content-Type"), Data: data}, nil
}

// Delete handles DELETE /api/books/:key. Deleting a missing book succeeds.
func (bc *BooksController) Delete(c *gin.Context) {
	if err := bc.deleter.Delete(c.Request.Context(), c.Param("key")); err != nil {
		respondAppError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// Content handles GET /api/books/:key/content
func (bc *BooksController) Content(c *gin.Context) {
	key := c.Param("key")
	var data []byte
	if bc.open != nil {
		if v, err := bc.open.OpenView(); err == nil {
			defer v.Release()
			if v.Key() == key {
				data = v.Bytes()
			}
		}
	}
	if data == nil {
		var err error
		if data, err = bc.blobs.Get(c.Request.Context(), key); err != nil {
			respondAppError(c, err, "read book")
			return
		}
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", utils.SanitizeFilename(fileNameFor(key))))
	c.Data(http.StatusOK, utils.EPUBMediaType, data)
}

// fileNameFor recovers the uploaded file name from a "<name>-<size>" key.
func fileNameFor(key string) string {
	if i := strings.LastIndexByte(key, '-'); i > 0 {
		return key[:i]
	}
	return key
}

// SearchResponse carries the matches of one query.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// Search handles GET /api/books/:key/search?q=
func (bc *BooksController) Search(c *gin.Context) {
	key := c.Param("key")
	if _, ok := bc.index.Get(key); !ok {
		respondNotFound(c, "book")
		return
	}
	if bc.searcher == nil {
		respondInternalError(c, fmt.Errorf("searcher not configured"), "search book")
		return
	}
	data, err := bc.blobs.Get(c.Request.Context(), key)
	if err != nil {
		respondAppError(c, err, "read book")
		return
	}
	query := c.Query("q")
	results, err := bc.searcher(c.Request.Context(), data, query)
	if err != nil {
		respondAppError(c, err, "search book")
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}

// Annotations handles GET /api/books/:key/annotations
func (bc *BooksController) Annotations(c *gin.Context) {
	rec, ok := bc.index.Get(c.Param("key"))
	if !ok {
		respondNotFound(c, "book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"annotations": rec.Annotations})
}

// DeleteAnnotation handles DELETE /api/books/:key/annotations/:id
func (bc *BooksController) DeleteAnnotation(c *gin.Context) {
	key := c.Param("key")
	if _, ok := bc.index.Get(key); !ok {
		respondNotFound(c, "book")
		return
	}
	if err := bc.index.RemoveAnnotation(c.Request.Context(), key, c.Param("id")); err != nil {
		respondAppError(c, err, "delete annotation")
		return
	}
	respondSuccess(c, "annotation deleted")
}
