package entrypoint

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/blobs"
	"github.com/mrlokans/bookshelf/internal/database/documents"
	"github.com/mrlokans/bookshelf/internal/database/jobs"
	"github.com/mrlokans/bookshelf/internal/database/locations"
	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/epub"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/reader"
	"github.com/mrlokans/bookshelf/internal/render"
	"github.com/mrlokans/bookshelf/internal/search"
	"github.com/mrlokans/bookshelf/internal/settingsstore"
	"github.com/mrlokans/bookshelf/internal/stats"
)

// App holds the stores and services shared by the server and the CLI.
type App struct {
	Config *config.Config

	DB        *database.Database
	Blobs     *blobs.Repository
	Locations *locations.Repository
	Index     *library.Index
	Settings  *settingsstore.SettingsStore
	Stats     *stats.Tracker

	Parser   *epub.Parser
	Ingester *library.Ingester
	Manager  *library.Manager
	Surface  *render.TextSurface
	Reader   *reader.Reader
	Backup   *backup.Coordinator

	Jobs map[entities.JobType]*jobs.Repository
}

// Build opens the database and wires every in-process service. The caller
// owns the returned App and must Close it.
func Build(ctx context.Context, cfg *config.Config, quiet bool) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	open := database.NewDatabase
	if quiet {
		open = database.NewQuietDatabase
	}
	db, err := open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	docs := documents.NewRepository(db.DB)
	app := &App{
		Config:    cfg,
		DB:        db,
		Blobs:     blobs.NewRepository(db.DB),
		Locations: locations.NewRepository(db.DB),
		Index:     library.NewIndex(docs),
		Settings:  settingsstore.New(settings.NewRepository(db.DB)),
		Stats:     stats.NewTracker(docs),
		Parser:    epub.NewParser(),
		Jobs: map[entities.JobType]*jobs.Repository{
			entities.JobTypeIngestBatch:  jobs.NewRepository(db.DB, entities.JobTypeIngestBatch),
			entities.JobTypeBackupExport: jobs.NewRepository(db.DB, entities.JobTypeBackupExport),
			entities.JobTypeBackupImport: jobs.NewRepository(db.DB, entities.JobTypeBackupImport),
		},
	}
	if err := app.Index.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load library index: %w", err)
	}

	app.Ingester = library.NewIngester(app.Blobs, app.Index, app.Parser)
	app.Ingester.SetProgressReporter(app.Jobs[entities.JobTypeIngestBatch])
	var coverCache *covers.Cache
	if cfg.Covers.CacheDir != "" {
		coverCache, err = covers.NewCache(cfg.Covers.CacheDir, cfg.Covers.FetchTimeout)
		if err != nil {
			log.Printf("WARNING: Failed to initialize cover cache: %v", err)
			coverCache = nil
		} else {
			log.Printf("Cover cache initialized at %s", coverCache.CacheDir())
		}
	}
	app.Ingester.SetCoverFetcher(covers.NewResolver(app.Parser, coverCache))

	app.Surface = render.NewTextSurface(epub.SurfaceLoader, 0)
	app.Reader = reader.NewReader(app.Surface, reader.Stores{
		Blobs:     app.Blobs,
		Locations: app.Locations,
		Index:     app.Index,
	}, reader.Options{
		SettleDelay:    cfg.Progress.SettleDelay,
		SearchDebounce: cfg.Search.Debounce,
		MinQueryLength: cfg.Search.MinQueryLength,
		FlashDuration:  cfg.Search.FlashDuration,
	})
	app.Reader.SetStatsRecorder(app.Stats)
	if rs, err := app.Settings.ReaderSettings(ctx); err == nil {
		if err := app.Reader.UpdateSettings(ctx, rs); err != nil {
			log.Printf("WARNING: Failed to apply reader settings: %v", err)
		}
	}

	app.Manager = library.NewManager(app.Blobs, app.Locations, app.Index)
	app.Manager.SetSessionCloser(app.Reader)

	policy, err := backup.ParsePositionPolicy(cfg.Backup.PositionPolicy)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Backup = backup.NewCoordinator(backup.Stores{
		Blobs:     app.Blobs,
		Locations: app.Locations,
		Index:     app.Index,
		Settings:  app.Settings,
	}, backup.Options{Policy: policy, CompressionLevel: cfg.Backup.CompressionLevel})
	app.Backup.SetProgressReporters(app.Jobs[entities.JobTypeBackupExport], app.Jobs[entities.JobTypeBackupImport])

	return app, nil
}

// Search runs query against a stored book without touching the reading
// session.
func (a *App) Search(ctx context.Context, content []byte, query string) ([]search.Result, error) {
	surface := render.NewTextSurface(epub.SurfaceLoader, 0)
	return search.Document(ctx, surface, content, query, a.Config.Search.MinQueryLength)
}

// Close ends the reading session and releases the database.
func (a *App) Close() error {
	if a.Reader != nil {
		a.Reader.Close(context.Background())
	}
	if a.Index != nil {
		a.Index.Dispose()
	}
	return a.DB.Close()
}
