package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/bookshelf/internal/config"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/tasks"
	"github.com/mrlokans/bookshelf/internal/watcher"
)

// Run starts the HTTP server with the task queue, the backup scheduler and
// the drop folder watcher, and blocks until ctx ends or a signal arrives.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	log.Printf("Starting Bookshelf v%s", version)

	app, err := Build(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	log.Printf("Library loaded with %d books", app.Index.Len())

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()
		taskClient.Register(
			tasks.NewIngestFileQueue(app.Ingester),
			tasks.NewExportBackupQueue(app.Backup, app.Settings),
			tasks.NewRestoreBackupQueue(app.Backup),
		)
	}

	backups := scheduler.NewBackupScheduler(app.Settings, app.Backup, cfg.Backup.Dir, cfg.Backup.Keep)
	if taskClient != nil {
		backups.SetQueue(taskClient)
	}

	routerCfg := http_controllers.RouterConfig{
		Version:        version,
		Database:       app.DB,
		Index:          app.Index,
		Ingester:       app.Ingester,
		Deleter:        app.Manager,
		Blobs:          app.Blobs,
		Searcher:       app.Search,
		ReaderSettings: app.Settings,
		BackupSettings: app.Settings,
		Backup:         app.Backup,
		Snapshots:      backups,
		BackupDir:      cfg.Backup.Dir,
		Reader:         app.Reader,
		Interaction:    app.Surface,
		Stats:          app.Stats,
		Jobs:           make(map[string]http_controllers.JobProgressReader, len(app.Jobs)),
	}
	for jobType, repo := range app.Jobs {
		routerCfg.Jobs[string(jobType)] = repo
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	router := http_controllers.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if taskClient != nil {
		taskClient.Start(gCtx)
	}

	if err := backups.Start(gCtx); err != nil {
		log.Printf("WARNING: Automatic backups disabled: %v", err)
	}

	if cfg.Library.WatchEnabled {
		w := watcher.New(cfg.Library.DropDir, cfg.Library.WatchDebounce, dropSink(app, taskClient))
		w.SetKnown(func(key string) bool {
			_, ok := app.Index.Get(key)
			return ok
		})
		g.Go(func() error {
			return w.Run(gCtx)
		})
	}

	g.Go(func() error {
		log.Printf("Starting server at %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			log.Printf("Received %s", sig)
		case <-gCtx.Done():
		}

		timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
		log.Printf("Shutdown Server, waiting %v before killing", timeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		backups.Stop()
		if taskClient != nil {
			taskClient.Stop(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server Shutdown: %v", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("Server exiting")
	return err
}

// dropSink hands new drop folder files to the task queue, or ingests them
// inline when the queue is off.
func dropSink(app *App, taskClient *tasks.Client) watcher.Sink {
	return func(ctx context.Context, path string) error {
		if taskClient != nil {
			_, err := taskClient.Enqueue(tasks.IngestFileTask{Path: path})
			return err
		}
		rec, err := app.Ingester.IngestFile(ctx, path)
		if err != nil {
			return err
		}
		log.Printf("[WATCHER] Ingested %s as %s", path, rec.Key)
		return nil
	}
}
