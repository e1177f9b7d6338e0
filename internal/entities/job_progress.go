package entities

import (
	"time"
)

type JobType string

const (
	JobTypeBackupExport JobType = "backup_export"
	JobTypeBackupImport JobType = "backup_import"
	JobTypeIngestBatch  JobType = "ingest_batch"
)

type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobProgress tracks the latest run of a bulk operation, one row per job type.
type JobProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	JobType     JobType    `gorm:"size:50;uniqueIndex" json:"job_type"`
	Status      JobStatus  `gorm:"size:20" json:"status"`
	TotalItems  int        `json:"total_items"`
	Processed   int        `json:"processed"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	CurrentItem string     `gorm:"size:512" json:"current_item,omitempty"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (JobProgress) TableName() string {
	return "job_progress"
}
