package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/render"
)

func TestDocument(t *testing.T) {
	s := render.NewTextSurface(func(content []byte) ([]render.SectionText, error) {
		return []render.SectionText{{Label: "One", Text: string(content)}}, nil
	}, 0)

	results, err := Document(context.Background(), s, []byte("Alice met alice"), "alice", 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.False(t, s.Loaded(), "surface is released after the search")
}

func TestDocument_LoadFailure(t *testing.T) {
	s := render.NewTextSurface(func([]byte) ([]render.SectionText, error) {
		return nil, errors.New("not a book")
	}, 0)

	_, err := Document(context.Background(), s, []byte("x"), "alice", 0)
	assert.Error(t, err)
}

func TestDocument_MinQueryLength(t *testing.T) {
	s := render.NewTextSurface(func(content []byte) ([]render.SectionText, error) {
		return []render.SectionText{{Label: "One", Text: string(content)}}, nil
	}, 0)

	results, err := Document(context.Background(), s, []byte("Alice"), "ali", 4)
	require.NoError(t, err)
	assert.Empty(t, results)
}
