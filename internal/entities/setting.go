package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Reader settings, one row per field
	SettingKeyTheme      = "reader.theme"
	SettingKeyFontSize   = "reader.fontSize"
	SettingKeyFontFamily = "reader.fontFamily"
	SettingKeyFontWeight = "reader.fontWeight"
	SettingKeyLineHeight = "reader.lineHeight"
	SettingKeyPageView   = "reader.pageView"
	SettingKeyLanguage   = "reader.language"

	// Scheduled backup settings
	SettingKeyBackupEnabled     = "backup_enabled"
	SettingKeyBackupSchedule    = "backup_schedule"
	SettingKeyBackupLastAt      = "backup_last_at"
	SettingKeyBackupLastStatus  = "backup_last_status"
	SettingKeyBackupLastMessage = "backup_last_message"
)
