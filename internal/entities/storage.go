package entities

import "time"

// Blob holds the raw bytes of an ingested book.
type Blob struct {
	Key       string    `gorm:"primaryKey;size:512"`
	Data      []byte    `gorm:"type:blob"`
	Size      int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Blob) TableName() string {
	return "blobs"
}

// Location holds the last saved position token for a book.
type Location struct {
	Key       string    `gorm:"primaryKey;size:512"`
	Token     string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Location) TableName() string {
	return "locations"
}

// Document is a named JSON document rewritten as a whole on every save.
type Document struct {
	Name      string    `gorm:"primaryKey;size:100"`
	Body      string    `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

// Known document names
const (
	DocumentLibraryIndex = "library_index"
	DocumentReadingStats = "reading_stats"
)
