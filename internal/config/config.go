package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Covers
		Search
		Progress
		Backup
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Library struct {
		DropDir       string
		WatchEnabled  bool
		WatchDebounce time.Duration
	}
	Covers struct {
		CacheDir     string
		FetchTimeout time.Duration
	}
	Search struct {
		Debounce       time.Duration
		MinQueryLength int
		FlashDuration  time.Duration
	}
	Progress struct {
		SettleDelay time.Duration
	}
	Backup struct {
		Dir              string
		Enabled          bool
		Schedule         string // Cron format: "0 3 * * *" = nightly at 03:00
		Keep             int    // Archives kept in Dir after a scheduled run; 0 keeps all
		PositionPolicy   string // "percentage" or "exact"
		CompressionLevel int    // Deflate level 1-9
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	v.SetDefault("library_drop_dir", DefaultDropDir)
	v.SetDefault("library_watch_enabled", false)
	v.SetDefault("library_watch_debounce", "1s")

	v.SetDefault("cover_cache_dir", DefaultCoverCacheDir)
	v.SetDefault("cover_fetch_timeout", "30s")

	v.SetDefault("search_debounce", "800ms")
	v.SetDefault("search_min_query_length", 2)
	v.SetDefault("search_flash_duration", "3s")

	v.SetDefault("progress_settle_delay", "250ms")

	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_enabled", false)
	v.SetDefault("backup_schedule", "0 3 * * *")
	v.SetDefault("backup_keep", 7)
	v.SetDefault("backup_position_policy", "percentage")
	v.SetDefault("backup_compression_level", 6)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Library: Library{
			DropDir:       v.GetString("LIBRARY_DROP_DIR"),
			WatchEnabled:  v.GetBool("LIBRARY_WATCH_ENABLED"),
			WatchDebounce: v.GetDuration("LIBRARY_WATCH_DEBOUNCE"),
		},
		Covers: Covers{
			CacheDir:     v.GetString("COVER_CACHE_DIR"),
			FetchTimeout: v.GetDuration("COVER_FETCH_TIMEOUT"),
		},
		Search: Search{
			Debounce:       v.GetDuration("SEARCH_DEBOUNCE"),
			MinQueryLength: v.GetInt("SEARCH_MIN_QUERY_LENGTH"),
			FlashDuration:  v.GetDuration("SEARCH_FLASH_DURATION"),
		},
		Progress: Progress{
			SettleDelay: v.GetDuration("PROGRESS_SETTLE_DELAY"),
		},
		Backup: Backup{
			Dir:              v.GetString("BACKUP_DIR"),
			Enabled:          v.GetBool("BACKUP_ENABLED"),
			Schedule:         v.GetString("BACKUP_SCHEDULE"),
			Keep:             v.GetInt("BACKUP_KEEP"),
			PositionPolicy:   v.GetString("BACKUP_POSITION_POLICY"),
			CompressionLevel: v.GetInt("BACKUP_COMPRESSION_LEVEL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	for _, s := range []validation.Validatable{&c.HTTP, &c.Database, &c.Search, &c.Progress, &c.Backup, &c.Tasks} {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *HTTP) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(int32(1)), validation.Max(int32(65535))),
	)
}

func (c *Database) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

func (c *Search) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.MinQueryLength, validation.Min(1)),
	)
}

func (c *Progress) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SettleDelay, validation.Min(time.Duration(0))),
	)
}

func (c *Backup) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Keep, validation.Min(0)),
		validation.Field(&c.PositionPolicy, validation.In("percentage", "exact")),
		validation.Field(&c.CompressionLevel, validation.Min(0), validation.Max(9)),
	)
}

func (c *Tasks) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(64)),
	)
}
