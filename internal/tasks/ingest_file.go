package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// IngestFileTask ingests one book file from disk.
type IngestFileTask struct {
	Path string `json:"path"`
}

func (t IngestFileTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "ingest_file",
		MaxAttempts: 3,
		Backoff:     10 * time.Second,
		Timeout:     2 * time.Minute,
		Retention:   retention(24 * time.Hour),
	}
}

// FileIngester is satisfied by *library.Ingester.
type FileIngester interface {
	IngestFile(ctx context.Context, path string) (entities.BookRecord, error)
}

// IngestFileProcessor ingests the task's file. Rejected files finish the
// task without a retry; storage failures are retried.
func IngestFileProcessor(ingester FileIngester) backlite.QueueProcessor[IngestFileTask] {
	return func(ctx context.Context, task IngestFileTask) error {
		if ingester == nil {
			return fmt.Errorf("ingester not configured")
		}
		rec, err := ingester.IngestFile(ctx, task.Path)
		switch {
		case apperr.IsValidation(err):
			log.Printf("[TASK] Skipping %s: %v", task.Path, err)
			return nil
		case err != nil:
			return fmt.Errorf("ingest %s: %w", task.Path, err)
		}
		log.Printf("[TASK] Ingested %s as %s (%q)", task.Path, rec.Key, rec.Title)
		return nil
	}
}

func NewIngestFileQueue(ingester FileIngester) backlite.Queue {
	return backlite.NewQueue(IngestFileProcessor(ingester))
}
