package entities

// ReadingStats aggregates reading activity across all books.
type ReadingStats struct {
	TotalReadingTimeMs      int64  `json:"totalReadingTimeMs"`
	BooksFinished           int    `json:"booksFinished"`
	ChaptersRead            int    `json:"chaptersRead"`
	SessionsCount           int    `json:"sessionsCount"`
	CurrentSessionStartTime *int64 `json:"currentSessionStartTime"`
}
