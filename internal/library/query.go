package library

import (
	"sort"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// SortOrder names the library orderings offered to readers.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortTitle  SortOrder = "title"
	SortAuthor SortOrder = "author"
)

// ParseSortOrder maps a user supplied value to a SortOrder, defaulting to
// newest.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortTitle:
		return SortTitle
	case SortAuthor:
		return SortAuthor
	default:
		return SortNewest
	}
}

// Filter keeps records whose title or author contains query, ignoring
// case. An empty query keeps everything.
func Filter(records []entities.BookRecord, query string) []entities.BookRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := make([]entities.BookRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Author), q) {
			out = append(out, r)
		}
	}
	return out
}

// Sort orders records in place and returns them. Ties keep collection order.
func Sort(records []entities.BookRecord, order SortOrder) []entities.BookRecord {
	var less func(a, b entities.BookRecord) bool
	switch order {
	case SortOldest:
		less = func(a, b entities.BookRecord) bool { return a.AddedAt < b.AddedAt }
	case SortTitle:
		less = func(a, b entities.BookRecord) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortAuthor:
		less = func(a, b entities.BookRecord) bool { return strings.ToLower(a.Author) < strings.ToLower(b.Author) }
	default:
		less = func(a, b entities.BookRecord) bool { return a.AddedAt > b.AddedAt }
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
	return records
}

// ContinueReading returns the first record with some progress.
func ContinueReading(records []entities.BookRecord) (entities.BookRecord, bool) {
	for _, r := range records {
		if r.ProgressValue() > 0 {
			return r, true
		}
	}
	return entities.BookRecord{}, false
}
