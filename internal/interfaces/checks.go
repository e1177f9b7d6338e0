package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/annotations"
	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/blobs"
	"github.com/mrlokans/bookshelf/internal/database/documents"
	"github.com/mrlokans/bookshelf/internal/database/jobs"
	"github.com/mrlokans/bookshelf/internal/database/locations"
	"github.com/mrlokans/bookshelf/internal/epub"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/progress"
	"github.com/mrlokans/bookshelf/internal/reader"
	"github.com/mrlokans/bookshelf/internal/render"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/search"
	"github.com/mrlokans/bookshelf/internal/settingsstore"
	"github.com/mrlokans/bookshelf/internal/stats"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Byte and position stores
var _ library.BlobStore = (*blobs.Repository)(nil)
var _ backup.BlobStore = (*blobs.Repository)(nil)
var _ reader.BlobReader = (*blobs.Repository)(nil)
var _ library.LocationStore = (*locations.Repository)(nil)
var _ backup.LocationStore = (*locations.Repository)(nil)
var _ reader.LocationStore = (*locations.Repository)(nil)
var _ progress.LocationWriter = (*locations.Repository)(nil)

// JSON documents
var _ library.DocumentStore = (*documents.Repository)(nil)
var _ stats.DocumentStore = (*documents.Repository)(nil)

// Library index
var _ annotations.Store = (*library.Index)(nil)
var _ reader.Index = (*library.Index)(nil)
var _ backup.Index = (*library.Index)(nil)
var _ progress.ProgressStore = (*library.Index)(nil)
var _ http.BookIndex = (*library.Index)(nil)

// Settings
var _ backup.SettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.ReaderSettingsStore = (*settingsstore.SettingsStore)(nil)
var _ http.BackupScheduleStore = (*settingsstore.SettingsStore)(nil)
var _ scheduler.BackupSettings = (*settingsstore.SettingsStore)(nil)
var _ tasks.StatusRecorder = (*settingsstore.SettingsStore)(nil)

// =============================================================================
// Rendering
// =============================================================================

var _ render.Surface = (*render.TextSurface)(nil)
var _ render.LayoutConfigurer = (*render.TextSurface)(nil)
var _ progress.Surface = (*render.TextSurface)(nil)
var _ search.Sectioned = (*render.TextSurface)(nil)
var _ search.Loadable = (*render.TextSurface)(nil)
var _ search.Decorator = (*render.TextSurface)(nil)
var _ http.Interaction = (*render.TextSurface)(nil)

// =============================================================================
// Ingest and Covers
// =============================================================================

var _ library.DocumentParser = (*epub.Parser)(nil)
var _ covers.ResourceReader = (*epub.Parser)(nil)
var _ library.CoverFetcher = (*covers.Resolver)(nil)
var _ http.BookIngester = (*library.Ingester)(nil)
var _ tasks.FileIngester = (*library.Ingester)(nil)
var _ http.BookDeleter = (*library.Manager)(nil)
var _ library.SessionCloser = (*reader.Reader)(nil)

// =============================================================================
// Reading Session
// =============================================================================

var _ http.ReaderSession = (*reader.Reader)(nil)
var _ reader.StatsRecorder = (*stats.Tracker)(nil)
var _ progress.StatsReporter = (*stats.Tracker)(nil)
var _ http.StatsStore = (*stats.Tracker)(nil)
var _ search.Searcher = (*search.Indexer)(nil)

// =============================================================================
// Backup and Background Jobs
// =============================================================================

var _ http.BackupService = (*backup.Coordinator)(nil)
var _ tasks.Exporter = (*backup.Coordinator)(nil)
var _ tasks.Importer = (*backup.Coordinator)(nil)
var _ http.SnapshotRunner = (*scheduler.BackupScheduler)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Progress Tracking
// =============================================================================

var _ library.ProgressReporter = (*jobs.Repository)(nil)
var _ backup.ProgressReporter = (*jobs.Repository)(nil)
var _ http.JobProgressReader = (*jobs.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)
