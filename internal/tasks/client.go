package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the job database and the backlite dispatcher that drains it.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	path   string

	mu      sync.RWMutex
	started bool
}

// DatabasePath derives the job database path from the library database path:
// "data/bookshelf.db" becomes "data/bookshelf-tasks.db".
func DatabasePath(libraryDBPath string) string {
	dir := filepath.Dir(libraryDBPath)
	base := filepath.Base(libraryDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

// NewClient opens the job database next to the library database and installs
// the backlite schema. Queues must be registered before Start.
func NewClient(libraryDBPath string, cfg Config) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	path := DatabasePath(libraryDBPath)

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open task database %s: %w", path, err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          &taskLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create task dispatcher: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}

	return &Client{client: client, db: db, config: cfg, path: path}, nil
}

// Register adds queues to the dispatcher.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins dispatching. It is non-blocking and idempotent.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("[TASK] Dispatcher started with %d workers (%s)", c.config.Workers, c.path)
	c.client.Start(ctx)
}

// Stop waits for running jobs until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	ok := c.client.Stop(ctx)
	if ok {
		log.Println("[TASK] Dispatcher stopped")
	} else {
		log.Println("[TASK] Dispatcher stopped before all jobs finished")
	}
	return ok
}

// Close releases the job database. Call it after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Add starts an enqueue operation; call Save on the result.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Enqueue saves tasks and returns their ids.
func (c *Client) Enqueue(tasks ...backlite.Task) ([]string, error) {
	ids, err := c.client.Add(tasks...).Save()
	if err != nil {
		return nil, fmt.Errorf("enqueue: %w", err)
	}
	return ids, nil
}

// Status returns the status of a job by id.
func (c *Client) Status(ctx context.Context, id string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, id)
}

// Path is the job database file.
func (c *Client) Path() string {
	return c.path
}

type taskLogger struct{}

func (l *taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (l *taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
