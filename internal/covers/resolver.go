package covers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ResourceReader reads a file out of a book archive.
type ResourceReader interface {
	ReadResource(data []byte, path string) ([]byte, string, error)
}

// Resolver turns a cover locator into a data URI. Locators starting with
// http:// or https:// are downloaded through the cache; anything else is a
// path inside the book archive.
type Resolver struct {
	resources ResourceReader
	cache     *Cache
}

func NewResolver(resources ResourceReader, cache *Cache) *Resolver {
	return &Resolver{resources: resources, cache: cache}
}

// FetchCover implements library.CoverFetcher.
func (r *Resolver) FetchCover(ctx context.Context, data []byte, locator string) (string, error) {
	if locator == "" {
		return "", errors.New("book has no cover")
	}

	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		if r.cache == nil {
			return "", errors.New("remote covers are disabled")
		}
		path, err := r.cache.GetCover(ctx, locator)
		if err != nil {
			return "", fmt.Errorf("fetch cover: %w", err)
		}
		img, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read cached cover: %w", err)
		}
		if !strings.HasPrefix(http.DetectContentType(img), "image/") {
			// Not an image; drop it so the next ingest refetches.
			if err := r.cache.InvalidateCover(locator); err != nil {
				return "", fmt.Errorf("invalidate cover: %w", err)
			}
			return "", errors.New("remote cover is not an image")
		}
		return DataURI(img, ""), nil
	}

	img, mediaType, err := r.resources.ReadResource(data, locator)
	if err != nil {
		return "", fmt.Errorf("read cover: %w", err)
	}
	return DataURI(img, mediaType), nil
}

// DataURI encodes img as a base64 data URI. An empty or non-image
// mediaType is replaced by the sniffed type.
func DataURI(img []byte, mediaType string) string {
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = http.DetectContentType(img)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(img)
}
