// Package locations stores the last reading position of every book as an
// opaque token. Writes are last-write-wins.
package locations

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles all location database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new location repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the token saved for key.
func (r *Repository) Get(ctx context.Context, key string) (string, error) {
	var loc entities.Location
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperr.NotFound("location " + key)
	}
	if err != nil {
		return "", apperr.IO("get location", err)
	}
	return loc.Token, nil
}

// Set saves token for key.
func (r *Repository) Set(ctx context.Context, key, token string) error {
	loc := entities.Location{Key: key, Token: token}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&loc).Error
	return apperr.IO("set location", err)
}

// Delete removes the token for key. Deleting a missing key is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&entities.Location{}).Error
	return apperr.IO("delete location", err)
}

// All returns every saved token keyed by book key.
func (r *Repository) All(ctx context.Context) (map[string]string, error) {
	var rows []entities.Location
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, apperr.IO("list locations", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Token
	}
	return out, nil
}
