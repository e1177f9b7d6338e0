package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/bookshelf/internal/backup"
)

// ExportBackupTask writes a snapshot archive into Dir and keeps the newest
// Keep archives there. Keep <= 0 disables pruning.
type ExportBackupTask struct {
	Dir  string `json:"dir"`
	Keep int    `json:"keep"`
}

func (t ExportBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "export_backup",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention:   retention(7 * 24 * time.Hour),
	}
}

// Exporter is satisfied by *backup.Coordinator.
type Exporter interface {
	ExportToDir(ctx context.Context, dir string, onProgress backup.ProgressFunc) (string, backup.ExportSummary, error)
}

// StatusRecorder stores the outcome of the last backup run.
type StatusRecorder interface {
	SetBackupStatus(ctx context.Context, status, message string) error
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunExport performs one export and records its outcome. It is shared by
// the queue processor and the scheduler's inline mode.
func RunExport(ctx context.Context, exporter Exporter, status StatusRecorder, dir string, keep int) (string, error) {
	path, summary, err := exporter.ExportToDir(ctx, dir, nil)
	if err != nil {
		record(ctx, status, StatusFailed, err.Error())
		return "", fmt.Errorf("export backup to %s: %w", dir, err)
	}
	log.Printf("[TASK] Backup written to %s (%d books, %d missing)", path, summary.Books, len(summary.Missing))

	if keep > 0 {
		removed, err := backup.Prune(dir, keep)
		if err != nil {
			log.Printf("[TASK] Failed to prune backups in %s: %v", dir, err)
		} else if len(removed) > 0 {
			log.Printf("[TASK] Pruned %d old backups", len(removed))
		}
	}
	record(ctx, status, StatusSuccess, path)
	return path, nil
}

func record(ctx context.Context, status StatusRecorder, outcome, message string) {
	if status == nil {
		return
	}
	if err := status.SetBackupStatus(ctx, outcome, message); err != nil {
		log.Printf("[TASK] Failed to record backup status: %v", err)
	}
}

func ExportBackupProcessor(exporter Exporter, status StatusRecorder) backlite.QueueProcessor[ExportBackupTask] {
	return func(ctx context.Context, task ExportBackupTask) error {
		if exporter == nil {
			return fmt.Errorf("exporter not configured")
		}
		_, err := RunExport(ctx, exporter, status, task.Dir, task.Keep)
		return err
	}
}

func NewExportBackupQueue(exporter Exporter, status StatusRecorder) backlite.Queue {
	return backlite.NewQueue(ExportBackupProcessor(exporter, status))
}
