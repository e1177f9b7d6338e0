// Package documents stores named JSON documents that are always read and
// written whole, such as the library index.
package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles all document database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new document repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load decodes the document called name into v.
func (r *Repository) Load(ctx context.Context, name string, v any) error {
	var doc entities.Document
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("document " + name)
	}
	if err != nil {
		return apperr.IO("load document", err)
	}
	if err := json.Unmarshal([]byte(doc.Body), v); err != nil {
		return apperr.IO("load document", fmt.Errorf("decode %s: %w", name, err))
	}
	return nil
}

// Save replaces the document called name with the JSON encoding of v.
func (r *Repository) Save(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	doc := entities.Document{Name: name, Body: string(body)}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&doc).Error
	return apperr.IO("save document", err)
}
