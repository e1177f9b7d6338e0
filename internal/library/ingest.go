package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/utils"
)

// UnknownAuthor is stored when the document names no creator.
const UnknownAuthor = "Unknown Author"

// BlobStore holds the raw bytes of every ingested book.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// DocumentMetadata is what a parser extracts from a book file.
type DocumentMetadata struct {
	Title        string
	Author       string
	CoverLocator string // opaque; resolved by a CoverFetcher
}

// DocumentParser extracts metadata from raw book bytes.
type DocumentParser interface {
	Parse(data []byte) (DocumentMetadata, error)
}

// CoverFetcher turns a cover locator into a data URI.
type CoverFetcher interface {
	FetchCover(ctx context.Context, data []byte, locator string) (string, error)
}

// ProgressReporter receives the progress of batch ingests.
type ProgressReporter interface {
	StartJob(ctx context.Context, totalItems int) error
	UpdateJob(ctx context.Context, processed, succeeded, failed int, currentItem string) error
	CompleteJob(ctx context.Context, succeeded bool, errorMsg string) error
}

// Upload is one candidate book file.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// BatchResult summarizes a best-effort batch ingest.
type BatchResult struct {
	Ingested []entities.BookRecord
	Failed   map[string]error
}

// Key derives the library key of a file: its name, a dash and its size.
func Key(name string, size int) string {
	return fmt.Sprintf("%s-%d", name, size)
}

// ValidateUpload rejects anything that is not an EPUB, judged by file
// name suffix or by declared content type.
func ValidateUpload(name, contentType string) error {
	if utils.HasEPUBExtension(name) || utils.IsEPUBMediaType(contentType) {
		return nil
	}
	return apperr.Validation("Please upload a valid .epub file")
}

// Ingester stores new books: blob first, then the index record.
type Ingester struct {
	blobs  BlobStore
	index  *Index
	parser DocumentParser

	covers   CoverFetcher
	progress ProgressReporter
	now      func() time.Time
}

// NewIngester creates an ingester writing to blobs and index.
func NewIngester(blobs BlobStore, index *Index, parser DocumentParser) *Ingester {
	return &Ingester{
		blobs:  blobs,
		index:  index,
		parser: parser,
		now:    time.Now,
	}
}

// SetCoverFetcher enables cover extraction. Without one every book is
// stored with a null cover.
func (in *Ingester) SetCoverFetcher(f CoverFetcher) {
	in.covers = f
}

// SetProgressReporter attaches a reporter for batch ingests.
func (in *Ingester) SetProgressReporter(r ProgressReporter) {
	in.progress = r
}

// SetClock overrides the time source used for addedAt.
func (in *Ingester) SetClock(now func() time.Time) {
	in.now = now
}

// Ingest validates, parses and stores one book. Parse failures write
// nothing. A failure after the blob write leaves an orphan blob, which is
// tolerated.
func (in *Ingester) Ingest(ctx context.Context, up Upload) (entities.BookRecord, error) {
	if err := ValidateUpload(up.Name, up.ContentType); err != nil {
		return entities.BookRecord{}, err
	}

	meta, err := in.parser.Parse(up.Data)
	if err != nil {
		return entities.BookRecord{}, apperr.Validation("could not read %s: %v", up.Name, err)
	}

	key := Key(up.Name, len(up.Data))
	record := entities.BookRecord{
		Key:         key,
		Title:       strings.TrimSpace(meta.Title),
		Author:      strings.TrimSpace(meta.Author),
		AddedAt:     in.now().UnixMilli(),
		Annotations: []entities.Annotation{},
	}
	if record.Title == "" {
		record.Title = utils.TrimEPUBExtension(up.Name)
	}
	if record.Author == "" {
		record.Author = UnknownAuthor
	}
	record.Cover = in.fetchCover(ctx, up.Data, meta.CoverLocator, key)

	if err := in.blobs.Put(ctx, key, up.Data); err != nil {
		return entities.BookRecord{}, fmt.Errorf("store %s: %w", key, err)
	}
	if err := in.index.Upsert(ctx, record); err != nil {
		return entities.BookRecord{}, fmt.Errorf("index %s: %w", key, err)
	}

	logf("Ingested %q by %s as %s", record.Title, record.Author, key)
	return record, nil
}

func (in *Ingester) fetchCover(ctx context.Context, data []byte, locator, key string) *string {
	if in.covers == nil || locator == "" {
		return nil
	}
	uri, err := in.covers.FetchCover(ctx, data, locator)
	if err != nil {
		logf("Cover for %s unavailable: %v", key, err)
		return nil
	}
	if uri == "" {
		return nil
	}
	return &uri
}

// IngestFile reads path from disk and ingests it under its base name.
func (in *Ingester) IngestFile(ctx context.Context, path string) (entities.BookRecord, error) {
	name := filepath.Base(path)
	if err := ValidateUpload(name, ""); err != nil {
		return entities.BookRecord{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.BookRecord{}, apperr.IO("read "+name, err)
	}
	return in.Ingest(ctx, Upload{Name: name, Data: data})
}

// IngestAll ingests every upload, continuing past failures.
func (in *Ingester) IngestAll(ctx context.Context, uploads []Upload) BatchResult {
	result := BatchResult{Failed: make(map[string]error)}
	in.startJob(ctx, len(uploads))

	for i, up := range uploads {
		if err := ctx.Err(); err != nil {
			result.Failed[up.Name] = err
			continue
		}
		rec, err := in.Ingest(ctx, up)
		if err != nil {
			logf("Skipping %s: %v", up.Name, err)
			result.Failed[up.Name] = err
		} else {
			result.Ingested = append(result.Ingested, rec)
		}
		in.updateJob(ctx, i+1, len(result.Ingested), len(result.Failed), up.Name)
	}

	in.completeJob(ctx, result)
	return result
}

// IngestFiles is IngestAll over paths on disk.
func (in *Ingester) IngestFiles(ctx context.Context, paths []string) BatchResult {
	result := BatchResult{Failed: make(map[string]error)}
	in.startJob(ctx, len(paths))

	for i, path := range paths {
		rec, err := in.IngestFile(ctx, path)
		if err != nil {
			logf("Skipping %s: %v", path, err)
			result.Failed[path] = err
		} else {
			result.Ingested = append(result.Ingested, rec)
		}
		in.updateJob(ctx, i+1, len(result.Ingested), len(result.Failed), filepath.Base(path))
	}

	in.completeJob(ctx, result)
	return result
}

func (in *Ingester) startJob(ctx context.Context, total int) {
	if in.progress == nil {
		return
	}
	if err := in.progress.StartJob(ctx, total); err != nil {
		logf("Failed to record ingest start: %v", err)
	}
}

func (in *Ingester) updateJob(ctx context.Context, processed, succeeded, failed int, current string) {
	if in.progress == nil {
		return
	}
	if err := in.progress.UpdateJob(ctx, processed, succeeded, failed, current); err != nil {
		logf("Failed to record ingest progress: %v", err)
	}
}

func (in *Ingester) completeJob(ctx context.Context, result BatchResult) {
	if in.progress == nil {
		return
	}
	msg := ""
	if len(result.Failed) > 0 {
		msg = fmt.Sprintf("%d of %d files failed", len(result.Failed), len(result.Failed)+len(result.Ingested))
	}
	if err := in.progress.CompleteJob(ctx, len(result.Failed) == 0, msg); err != nil {
		logf("Failed to record ingest completion: %v", err)
	}
}
