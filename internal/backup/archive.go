// Package backup writes the whole user state into one zip archive and
// merges such an archive back into the stores.
//
// Archive layout:
//
//	metadata.json      {"version":1,"timestamp":...,"settings":{...},"library":[...]}
//	books/<key>.epub   one entry per book whose bytes were available
//	positions.json     {"<key>":"<token>"} (exact position policy only)
package backup

import (
	"compress/flate"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// FormatVersion is the only archive version this package reads and writes.
const FormatVersion = 1

const (
	MetadataFile  = "metadata.json"
	PositionsFile = "positions.json"
	booksDir      = "books/"
	bookExt       = ".epub"
)

// DefaultCompressionLevel is the deflate level used for archives.
const DefaultCompressionLevel = 6

// PositionPolicy decides whether exact positions travel with a backup.
type PositionPolicy string

const (
	// PolicyPercentage keeps only the progress percentage of each book.
	PolicyPercentage PositionPolicy = "percentage"
	// PolicyExact also stores the last position token of each book.
	PolicyExact PositionPolicy = "exact"
)

// ParsePositionPolicy maps a config value to a policy, defaulting to
// PolicyPercentage.
func ParsePositionPolicy(s string) (PositionPolicy, error) {
	switch PositionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPercentage:
		return PolicyPercentage, nil
	case PolicyExact:
		return PolicyExact, nil
	default:
		return "", fmt.Errorf("unknown position policy %q", s)
	}
}

// Metadata is the content of metadata.json.
type Metadata struct {
	Version   int                     `json:"version"`
	Timestamp int64                   `json:"timestamp"`
	Settings  entities.ReaderSettings `json:"settings"`
	Library   []entities.BookRecord   `json:"library"`
}

// incomingMetadata keeps settings raw so they apply field by field, and
// keeps presence of each section observable.
type incomingMetadata struct {
	Version   int                        `json:"version"`
	Timestamp int64                      `json:"timestamp"`
	Settings  map[string]json.RawMessage `json:"settings"`
	Library   []entities.BookRecord      `json:"library"`
}

func (m *incomingMetadata) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Version, validation.Required, validation.In(FormatVersion)),
		validation.Field(&m.Settings, validation.NotNil),
		validation.Field(&m.Library, validation.NotNil, validation.Each(validation.By(validRecord))),
	)
}

func validRecord(value any) error {
	rec, ok := value.(entities.BookRecord)
	if !ok {
		return fmt.Errorf("not a book record")
	}
	return validation.ValidateStruct(&rec,
		validation.Field(&rec.Key, validation.Required, validation.By(validKey)),
	)
}

func validKey(value any) error {
	key, _ := value.(string)
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("must not contain path separators")
	}
	return nil
}

func parseMetadata(raw []byte) (*incomingMetadata, error) {
	var m incomingMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, apperr.Validation("malformed %s: %v", MetadataFile, err)
	}
	if err := m.Validate(); err != nil {
		return nil, apperr.ValidationFrom("invalid "+MetadataFile, err)
	}
	return &m, nil
}

func bookEntry(key string) string {
	return booksDir + key + bookExt
}

// BlobStore is the book byte store.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// LocationStore is the saved position store.
type LocationStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
}

// Index is the library index.
type Index interface {
	List() []entities.BookRecord
	Merge(ctx context.Context, incoming []entities.BookRecord) error
	Reload(ctx context.Context) error
}

// SettingsStore reads and applies reader settings.
type SettingsStore interface {
	ReaderSettings(ctx context.Context) (entities.ReaderSettings, error)
	ApplyReaderSettings(ctx context.Context, fields map[string]json.RawMessage) (entities.ReaderSettings, []string, error)
}

// ProgressReporter records long-running export and import jobs.
type ProgressReporter interface {
	StartJob(ctx context.Context, totalItems int) error
	UpdateJob(ctx context.Context, processed, succeeded, failed int, currentItem string) error
	CompleteJob(ctx context.Context, succeeded bool, errorMsg string) error
}

// ProgressFunc receives human readable progress messages.
type ProgressFunc func(message string)

func validLevel(level int) bool {
	return level >= flate.HuffmanOnly && level <= flate.BestCompression
}
