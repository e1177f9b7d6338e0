package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/bookshelf/internal/config"
)

// Config tunes the dispatcher and the per-queue defaults.
type Config struct {
	Workers           int
	MaxRetries        int
	RetryDelay        time.Duration
	TaskTimeout       time.Duration
	ReleaseAfter      time.Duration
	CleanupInterval   time.Duration
	RetentionDuration time.Duration
}

// DefaultConfig returns two workers, three attempts and a day of retention.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// FromConfig fills zero fields of the application section with defaults.
func FromConfig(c config.Tasks) Config {
	d := DefaultConfig()
	out := Config{
		Workers:           c.Workers,
		MaxRetries:        c.MaxRetries,
		RetryDelay:        c.RetryDelay,
		TaskTimeout:       c.TaskTimeout,
		ReleaseAfter:      c.ReleaseAfter,
		CleanupInterval:   c.CleanupInterval,
		RetentionDuration: c.RetentionDuration,
	}
	if out.Workers <= 0 {
		out.Workers = d.Workers
	}
	if out.MaxRetries <= 0 {
		out.MaxRetries = d.MaxRetries
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = d.RetryDelay
	}
	if out.TaskTimeout <= 0 {
		out.TaskTimeout = d.TaskTimeout
	}
	if out.ReleaseAfter <= 0 {
		out.ReleaseAfter = d.ReleaseAfter
	}
	if out.CleanupInterval <= 0 {
		out.CleanupInterval = d.CleanupInterval
	}
	if out.RetentionDuration <= 0 {
		out.RetentionDuration = d.RetentionDuration
	}
	return out
}

func retention(d time.Duration) *backlite.Retention {
	return &backlite.Retention{
		Duration:   d,
		OnlyFailed: false,
		Data:       &backlite.RetainData{OnlyFailed: true},
	}
}
