// Package blobs stores the raw bytes of ingested books.
//
// # Usage
//
//	repo := blobs.NewRepository(db)
//	err := repo.Put(ctx, "Alice.epub-120000", data)
package blobs

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles all blob database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new blob repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Put stores data under key, silently replacing any previous bytes.
func (r *Repository) Put(ctx context.Context, key string, data []byte) error {
	blob := entities.Blob{Key: key, Data: data, Size: int64(len(data))}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&blob).Error
	return apperr.IO("put blob", err)
}

// Get returns the bytes stored under key.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	var blob entities.Blob
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("blob " + key)
	}
	if err != nil {
		return nil, apperr.IO("get blob", err)
	}
	return blob.Data, nil
}

// Delete removes the bytes under key. Deleting a missing key is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.Blob{}).Error
	return apperr.IO("delete blob", err)
}

// Keys lists every stored key. Orphans (keys with no library record)
// show up here and nowhere else.
func (r *Repository) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&entities.Blob{}).Order("key").Pluck("key", &keys).Error
	if err != nil {
		return nil, apperr.IO("list blobs", err)
	}
	return keys, nil
}
