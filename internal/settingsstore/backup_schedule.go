package settingsstore

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// DefaultBackupSchedule runs a snapshot every night at 03:00.
const DefaultBackupSchedule = "0 3 * * *"

// BackupScheduleConfig is the effective configuration of automatic backups.
type BackupScheduleConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// BackupScheduleConfigInfo includes source information for each field
type BackupScheduleConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"` // "database", "environment", "default"

	Schedule       string `json:"schedule"`
	ScheduleSource string `json:"schedule_source"`
}

// BackupStatus is the outcome of the last automatic backup.
type BackupStatus struct {
	LastBackupAt *time.Time `json:"last_backup_at,omitempty"`
	Status       string     `json:"status,omitempty"`  // "success", "failed", ""
	Message      string     `json:"message,omitempty"` // error message or archive path
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// GetBackupEnabled returns whether automatic backups run (database > env > default)
func (s *SettingsStore) GetBackupEnabled(ctx context.Context) bool {
	if v, ok := s.value(ctx, entities.SettingKeyBackupEnabled); ok {
		return parseBool(v)
	}
	if envVal := os.Getenv("BACKUP_ENABLED"); envVal != "" {
		return parseBool(envVal)
	}
	return false
}

func (s *SettingsStore) GetBackupEnabledSource(ctx context.Context) string {
	if _, ok := s.value(ctx, entities.SettingKeyBackupEnabled); ok {
		return "database"
	}
	if envVal := os.Getenv("BACKUP_ENABLED"); envVal != "" {
		return "environment"
	}
	return "default"
}

func (s *SettingsStore) SetBackupEnabled(ctx context.Context, enabled bool) error {
	return s.repo.SetSetting(ctx, entities.SettingKeyBackupEnabled, strconv.FormatBool(enabled))
}

// GetBackupSchedule returns the cron schedule (database > env > default)
func (s *SettingsStore) GetBackupSchedule(ctx context.Context) string {
	if v, ok := s.value(ctx, entities.SettingKeyBackupSchedule); ok {
		return v
	}
	if envVal := os.Getenv("BACKUP_SCHEDULE"); envVal != "" {
		return envVal
	}
	return DefaultBackupSchedule
}

func (s *SettingsStore) GetBackupScheduleSource(ctx context.Context) string {
	if _, ok := s.value(ctx, entities.SettingKeyBackupSchedule); ok {
		return "database"
	}
	if envVal := os.Getenv("BACKUP_SCHEDULE"); envVal != "" {
		return "environment"
	}
	return "default"
}

// SetBackupSchedule validates and stores schedule.
func (s *SettingsStore) SetBackupSchedule(ctx context.Context, schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, entities.SettingKeyBackupSchedule, schedule)
}

func (s *SettingsStore) GetBackupScheduleConfig(ctx context.Context) BackupScheduleConfig {
	return BackupScheduleConfig{
		Enabled:  s.GetBackupEnabled(ctx),
		Schedule: s.GetBackupSchedule(ctx),
	}
}

func (s *SettingsStore) GetBackupScheduleConfigInfo(ctx context.Context) BackupScheduleConfigInfo {
	return BackupScheduleConfigInfo{
		Enabled:        s.GetBackupEnabled(ctx),
		EnabledSource:  s.GetBackupEnabledSource(ctx),
		Schedule:       s.GetBackupSchedule(ctx),
		ScheduleSource: s.GetBackupScheduleSource(ctx),
	}
}

func (s *SettingsStore) GetBackupStatus(ctx context.Context) BackupStatus {
	status := BackupStatus{}
	if v, ok := s.value(ctx, entities.SettingKeyBackupLastAt); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			status.LastBackupAt = &ts
		}
	}
	status.Status, _ = s.value(ctx, entities.SettingKeyBackupLastStatus)
	status.Message, _ = s.value(ctx, entities.SettingKeyBackupLastMessage)
	return status
}

// SetBackupStatus records the outcome of a backup run.
func (s *SettingsStore) SetBackupStatus(ctx context.Context, status, message string) error {
	return s.repo.SetValues(ctx, map[string]string{
		entities.SettingKeyBackupLastAt:      time.Now().UTC().Format(time.RFC3339),
		entities.SettingKeyBackupLastStatus:  status,
		entities.SettingKeyBackupLastMessage: message,
	})
}

// ClearBackupScheduleSettings drops database overrides, reverting to env/default
func (s *SettingsStore) ClearBackupScheduleSettings(ctx context.Context) error {
	for _, key := range []string{entities.SettingKeyBackupEnabled, entities.SettingKeyBackupSchedule} {
		if err := s.repo.DeleteSetting(ctx, key); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case DefaultBackupSchedule:
		return "Daily at 03:00"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next backup will run
func GetNextRunTime(schedule string, from time.Time) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(from)
	return &next, nil
}
