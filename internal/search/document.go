package search

import (
	"context"
	"fmt"

	"github.com/mrlokans/bookshelf/internal/render"
)

// Loadable is a surface that can take a whole book and release it again.
type Loadable interface {
	Sectioned
	Load(content []byte, resumeAt string) error
	Unload()
}

// Document searches a book that is not open in the reading session by
// loading it into surface for the duration of the call.
func Document(ctx context.Context, surface Loadable, content []byte, query string, minLen int) ([]Result, error) {
	if err := surface.Load(content, ""); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	defer surface.Unload()

	x := NewIndexer(surface)
	if minLen > 0 {
		x.SetMinQueryLength(minLen)
	}
	return x.Search(ctx, query)
}

var _ Loadable = (*render.TextSurface)(nil)
