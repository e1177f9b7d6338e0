package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates the gin engine with every route whose dependencies are
// present in cfg.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	if cfg.MaxMultipartMemory > 0 {
		router.MaxMultipartMemory = cfg.MaxMultipartMemory
	}

	health := NewHealthController(cfg.Database, cfg.Index, cfg.Version)
	router.GET("/health", health.Status)

	api := router.Group("/api")

	if cfg.Index != nil {
		books := NewBooksController(cfg.Index, cfg.Ingester, cfg.Deleter, cfg.Blobs, cfg.Searcher)
		if cfg.Reader != nil {
			books.SetOpenBook(cfg.Reader)
		}
		api.GET("/books", books.List)
		api.GET("/books/:key", books.Get)
		api.GET("/books/:key/annotations", books.Annotations)
		api.DELETE("/books/:key/annotations/:id", books.DeleteAnnotation)
		if cfg.Ingester != nil {
			api.POST("/books", books.Upload)
		}
		if cfg.Deleter != nil {
			api.DELETE("/books/:key", books.Delete)
		}
		if cfg.Blobs != nil {
			api.GET("/books/:key/content", books.Content)
			api.GET("/books/:key/search", books.Search)
		}
	}

	if cfg.Backup != nil && cfg.BackupSettings != nil {
		backups := NewBackupController(cfg.Backup, cfg.BackupSettings, cfg.Snapshots, cfg.TaskQueue, cfg.BackupDir)
		api.GET("/backup", backups.Download)
		api.POST("/backup", backups.Restore)
		api.POST("/backup/snapshot", backups.Snapshot)
		api.GET("/backup/status", backups.Status)
		api.PUT("/backup/schedule", backups.UpdateSchedule)
	}

	if cfg.ReaderSettings != nil {
		settings := NewSettingsController(cfg.ReaderSettings, cfg.Reader)
		api.GET("/settings", settings.Get)
		api.PATCH("/settings", settings.Update)
		api.DELETE("/settings", settings.Reset)
	}

	if cfg.Stats != nil {
		stats := NewStatsController(cfg.Stats, cfg.Index, cfg.Jobs)
		api.GET("/stats", stats.Get)
		api.DELETE("/stats", stats.Reset)
		api.GET("/jobs", stats.Jobs)
	}

	if cfg.TaskQueue != nil {
		tasks := NewTasksController(cfg.TaskQueue)
		api.GET("/tasks/:id", tasks.GetTaskStatus)
	}

	if cfg.Reader != nil && cfg.Interaction != nil {
		rc := NewReaderController(cfg.Reader, cfg.Interaction)
		r := api.Group("/reader")
		r.GET("", rc.State)
		r.POST("/open", rc.Open)
		r.POST("/close", rc.Close)
		r.POST("/next", rc.Next)
		r.POST("/prev", rc.Prev)
		r.POST("/display", rc.Display)
		r.POST("/select", rc.Select)
		r.POST("/click", rc.Click)
		r.POST("/commit", rc.Commit)
		r.POST("/copy", rc.Copy)
		r.POST("/delete", rc.DeleteAnnotation)
		r.POST("/dismiss", rc.Dismiss)
		r.POST("/search", rc.SubmitSearch)
		r.GET("/search", rc.SearchState)
		r.POST("/show", rc.ShowResult)
	}

	return router
}
