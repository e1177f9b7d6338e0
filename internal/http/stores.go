package http

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/annotations"
	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/reader"
	"github.com/mrlokans/bookshelf/internal/render"
	"github.com/mrlokans/bookshelf/internal/search"
	"github.com/mrlokans/bookshelf/internal/settingsstore"
)

// Each controller depends on the narrow interface it needs. The concrete
// types live in library, backup, settingsstore, stats, scheduler and tasks.

type Pinger interface {
	Ping(ctx context.Context) error
}

// BookIndex is the read side of the library index plus annotation removal.
type BookIndex interface {
	List() []entities.BookRecord
	Get(key string) (entities.BookRecord, bool)
	RemoveAnnotation(ctx context.Context, key, id string) error
}

type BookIngester interface {
	IngestAll(ctx context.Context, uploads []library.Upload) library.BatchResult
}

type BookDeleter interface {
	Delete(ctx context.Context, key string) error
}

type BlobReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// DocumentSearcher searches a stored book outside the reading session.
type DocumentSearcher func(ctx context.Context, content []byte, query string) ([]search.Result, error)

type ReaderSettingsStore interface {
	ReaderSettings(ctx context.Context) (entities.ReaderSettings, error)
	ApplyReaderSettings(ctx context.Context, fields map[string]json.RawMessage) (entities.ReaderSettings, []string, error)
	ResetReaderSettings(ctx context.Context) error
}

type BackupScheduleStore interface {
	GetBackupScheduleConfigInfo(ctx context.Context) settingsstore.BackupScheduleConfigInfo
	GetBackupStatus(ctx context.Context) settingsstore.BackupStatus
	SetBackupEnabled(ctx context.Context, enabled bool) error
	SetBackupSchedule(ctx context.Context, schedule string) error
}

type BackupService interface {
	Export(ctx context.Context, w io.Writer, onProgress backup.ProgressFunc) (backup.ExportSummary, error)
	ImportBytes(ctx context.Context, data []byte, onProgress backup.ProgressFunc) (backup.ImportSummary, error)
}

// SnapshotRunner is implemented by *scheduler.BackupScheduler.
type SnapshotRunner interface {
	RunNow(ctx context.Context) (string, error)
	Reschedule() error
	NextRunTime() *time.Time
}

type StatsStore interface {
	Get(ctx context.Context) (entities.ReadingStats, error)
	Reset(ctx context.Context) error
}

// JobProgressReader is implemented by *jobs.Repository.
type JobProgressReader interface {
	GetProgress(ctx context.Context) (*entities.JobProgress, error)
}

// TaskQueue is implemented by *tasks.Client.
type TaskQueue interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
	Status(ctx context.Context, id string) (backlite.TaskStatus, error)
}

// ReaderSession is the reading session driven by the reader routes.
type ReaderSession interface {
	Open(ctx context.Context, key string) error
	Close(ctx context.Context)
	State() reader.State
	Next() error
	Prev() error
	GoTo(token string) error
	Controller() *annotations.Controller
	Search(ctx context.Context, query string) ([]search.Result, error)
	SearchSession() (*search.Session, error)
	ShowResult(token string) error
	UpdateSettings(ctx context.Context, rs entities.ReaderSettings) error
	OpenView() (*reader.View, error)
}

// Interaction injects reader gestures into a headless surface.
// *render.TextSurface implements it.
type Interaction interface {
	Select(token string, p render.Point) error
	Click(token string, p render.Point) error
}
