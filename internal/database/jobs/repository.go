// Package jobs records the progress of bulk operations such as backup
// export, backup restore and batch ingest, one row per job type.
//
// # Usage
//
//	repo := jobs.NewRepository(db, entities.JobTypeBackupExport)
//	err := repo.StartJob(ctx, len(books))
package jobs

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// staleAfter is how long a running job may go without an update before it
// is considered interrupted.
const staleAfter = 10 * time.Minute

// Repository handles job progress database operations for one job type.
type Repository struct {
	db      *gorm.DB
	jobType entities.JobType
}

// NewRepository creates a job repository for jobType.
func NewRepository(db *gorm.DB, jobType entities.JobType) *Repository {
	return &Repository{db: db, jobType: jobType}
}

// GetProgress retrieves the latest progress for the job type.
func (r *Repository) GetProgress(ctx context.Context) (*entities.JobProgress, error) {
	var progress entities.JobProgress
	err := r.db.WithContext(ctx).Where("job_type = ?", r.jobType).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// StartJob creates or resets the progress record.
func (r *Repository) StartJob(ctx context.Context, totalItems int) error {
	db := r.db.WithContext(ctx)
	var progress entities.JobProgress
	result := db.Where("job_type = ?", r.jobType).First(&progress)

	now := time.Now()
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		progress = entities.JobProgress{
			JobType:    r.jobType,
			Status:     entities.JobStatusRunning,
			TotalItems: totalItems,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		return db.Create(&progress).Error
	} else if result.Error != nil {
		return result.Error
	}

	progress.Status = entities.JobStatusRunning
	progress.TotalItems = totalItems
	progress.Processed = 0
	progress.Succeeded = 0
	progress.Failed = 0
	progress.CurrentItem = ""
	progress.Error = ""
	progress.StartedAt = now
	progress.UpdatedAt = now
	progress.CompletedAt = nil

	return db.Save(&progress).Error
}

// UpdateJob records the counters of a running job.
func (r *Repository) UpdateJob(ctx context.Context, processed, succeeded, failed int, currentItem string) error {
	return r.db.WithContext(ctx).Model(&entities.JobProgress{}).
		Where("job_type = ?", r.jobType).
		Updates(map[string]any{
			"processed":    processed,
			"succeeded":    succeeded,
			"failed":       failed,
			"current_item": currentItem,
			"updated_at":   time.Now(),
		}).Error
}

// CompleteJob marks the job as completed or failed.
func (r *Repository) CompleteJob(ctx context.Context, succeeded bool, errorMsg string) error {
	now := time.Now()
	status := entities.JobStatusCompleted
	if !succeeded {
		status = entities.JobStatusFailed
	}

	updates := map[string]any{
		"status":       status,
		"current_item": "",
		"updated_at":   now,
		"completed_at": now,
	}
	if errorMsg != "" {
		updates["error"] = errorMsg
	}
	return r.db.WithContext(ctx).Model(&entities.JobProgress{}).
		Where("job_type = ?", r.jobType).
		Updates(updates).Error
}

// IsRunning reports whether a job of this type is in progress. A job with
// no update for staleAfter is marked failed and reported as not running.
func (r *Repository) IsRunning(ctx context.Context) (bool, error) {
	var progress entities.JobProgress
	err := r.db.WithContext(ctx).
		Where("job_type = ? AND status = ?", r.jobType, entities.JobStatusRunning).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if progress.UpdatedAt.Before(time.Now().Add(-staleAfter)) {
		_ = r.CompleteJob(ctx, false, "job was interrupted")
		return false, nil
	}

	return true, nil
}
