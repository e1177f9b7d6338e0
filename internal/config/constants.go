package config

const (
	// DefaultDatabasePath holds every durable store of the library.
	DefaultDatabasePath = "./bookshelf.db"

	// DefaultBackupDir receives scheduled and on-demand snapshot archives.
	DefaultBackupDir = "./backups"

	// DefaultCoverCacheDir caches covers fetched over HTTP.
	DefaultCoverCacheDir = "./covers"

	// DefaultDropDir is watched for new books when watching is enabled.
	DefaultDropDir = "./inbox"
)
