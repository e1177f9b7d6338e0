// Package search runs deduplicated full-text queries over the sections of a
// rendering surface.
package search

import (
	"context"
	"iter"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/render"
)

// MinQueryLength is the shortest query, in runes, that is searched.
const MinQueryLength = 2

// Result is one match.
type Result struct {
	Token   string `json:"cfi"`
	Excerpt string `json:"excerpt"`
}

// Sectioned is the part of a surface the indexer reads.
type Sectioned interface {
	Sections() []render.Section
}

// Indexer searches every section of a surface.
type Indexer struct {
	source   Sectioned
	minQuery int
}

func NewIndexer(source Sectioned) *Indexer {
	return &Indexer{source: source, minQuery: MinQueryLength}
}

// SetMinQueryLength overrides MinQueryLength. Values below 1 are ignored.
func (x *Indexer) SetMinQueryLength(n int) {
	if n >= 1 {
		x.minQuery = n
	}
}

// Search collects every batch. Cancellation returns the context error and
// no results.
func (x *Indexer) Search(ctx context.Context, query string) ([]Result, error) {
	results := []Result{}
	for batch, err := range x.Batches(ctx, query) {
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

// Batches yields, section by section, the results not seen in an earlier
// section or variant. Sections that fail are logged and skipped. The
// context is checked before every section; once it is done the sequence
// yields the context error and stops.
func (x *Indexer) Batches(ctx context.Context, query string) iter.Seq2[[]Result, error] {
	return func(yield func([]Result, error) bool) {
		if utf8.RuneCountInString(query) < x.minQuery {
			return
		}
		variants := Variants(query, x.minQuery)
		seen := make(map[string]struct{})

		for _, section := range x.source.Sections() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			var batch []Result
			for _, v := range variants {
				matches, err := section.Find(v)
				if err != nil {
					log.Printf("[SEARCH] section %d: %v", section.Index(), apperr.Render("find", err))
					break
				}
				for _, m := range matches {
					if _, dup := seen[m.Token]; dup {
						continue
					}
					seen[m.Token] = struct{}{}
					batch = append(batch, Result{Token: m.Token, Excerpt: m.Excerpt})
				}
			}
			if len(batch) == 0 {
				continue
			}
			if !yield(batch, nil) {
				return
			}
		}
	}
}

// Variants returns the case variants of query in search order: as typed,
// lower, title and upper. Duplicates and variants shorter than minLen runes
// are dropped.
func Variants(query string, minLen int) []string {
	candidates := []string{query, strings.ToLower(query), titleCase(query), strings.ToUpper(query)}
	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if utf8.RuneCountInString(c) < minLen {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
