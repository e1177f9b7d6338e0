package tasks

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/backup"
)

// RestoreBackupTask merges a staged archive into the library. When Remove is
// set the archive file is deleted once the task finishes.
type RestoreBackupTask struct {
	Path   string `json:"path"`
	Remove bool   `json:"remove"`
}

func (t RestoreBackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "restore_backup",
		MaxAttempts: 1,
		Timeout:     30 * time.Minute,
		Retention:   retention(7 * 24 * time.Hour),
	}
}

// Importer is satisfied by *backup.Coordinator.
type Importer interface {
	ImportFile(ctx context.Context, path string, onProgress backup.ProgressFunc) (backup.ImportSummary, error)
}

func RestoreBackupProcessor(importer Importer) backlite.QueueProcessor[RestoreBackupTask] {
	return func(ctx context.Context, task RestoreBackupTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}
		if task.Remove {
			defer func() {
				if err := os.Remove(task.Path); err != nil && !os.IsNotExist(err) {
					log.Printf("[TASK] Failed to remove staged archive %s: %v", task.Path, err)
				}
			}()
		}

		summary, err := importer.ImportFile(ctx, task.Path, nil)
		if apperr.IsValidation(err) {
			log.Printf("[TASK] Rejected archive %s: %v", task.Path, err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("restore %s: %w", task.Path, err)
		}
		log.Printf("[TASK] Restored %d/%d books from %s (%d failed)",
			summary.Restored, summary.Books, task.Path, len(summary.Failed))
		return nil
	}
}

func NewRestoreBackupQueue(importer Importer) backlite.Queue {
	return backlite.NewQueue(RestoreBackupProcessor(importer))
}
