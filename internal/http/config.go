package http

// RouterConfig contains every dependency of the router. Nil optional
// dependencies disable their routes.
type RouterConfig struct {
	Version  string
	Database Pinger

	// Library
	Index    BookIndex
	Ingester BookIngester
	Deleter  BookDeleter
	Blobs    BlobReader
	Searcher DocumentSearcher

	// Settings
	ReaderSettings ReaderSettingsStore
	BackupSettings BackupScheduleStore

	// Backup
	Backup    BackupService
	Snapshots SnapshotRunner
	BackupDir string

	// Reading session (optional)
	Reader      ReaderSession
	Interaction Interaction

	Stats StatsStore

	// Job progress by job type
	Jobs map[string]JobProgressReader

	// Task queue client (optional)
	TaskQueue TaskQueue

	// MaxMultipartMemory is held in memory per upload before spilling to
	// disk; zero keeps gin's default.
	MaxMultipartMemory int64
}
