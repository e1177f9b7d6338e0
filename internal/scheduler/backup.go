package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshelf/internal/settingsstore"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// BackupSettings supplies the effective schedule and stores run outcomes.
// *settingsstore.SettingsStore implements it.
type BackupSettings interface {
	GetBackupScheduleConfig(ctx context.Context) settingsstore.BackupScheduleConfig
	SetBackupStatus(ctx context.Context, status, message string) error
}

// Enqueuer hands work to the background queue. *tasks.Client implements it.
type Enqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

// BackupScheduler writes snapshot archives on a cron schedule. With a queue
// attached each tick enqueues an export task; otherwise the export runs on
// the cron goroutine.
type BackupScheduler struct {
	settings BackupSettings
	exporter tasks.Exporter
	queue    Enqueuer
	dir      string
	keep     int

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	parent    context.Context
	cancel    context.CancelFunc
}

func NewBackupScheduler(settings BackupSettings, exporter tasks.Exporter, dir string, keep int) *BackupScheduler {
	return &BackupScheduler{
		settings: settings,
		exporter: exporter,
		dir:      dir,
		keep:     keep,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// SetQueue routes scheduled runs through the background queue.
func (s *BackupScheduler) SetQueue(q Enqueuer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = q
}

// Start schedules backups if they are enabled. The scheduler stops itself
// when ctx is cancelled.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	s.parent = ctx

	cfg := s.settings.GetBackupScheduleConfig(ctx)
	if !cfg.Enabled {
		log.Printf("[SCHEDULER] Automatic backups disabled")
		return nil
	}
	if s.dir == "" {
		log.Printf("[SCHEDULER] Backup directory not configured, skipping")
		return nil
	}
	if err := settingsstore.ValidateCronSchedule(cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", cfg.Schedule, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	entryID, err := s.cron.AddFunc(cfg.Schedule, func() { s.tick(runCtx) })
	if err != nil {
		cancel()
		return fmt.Errorf("schedule backup job: %w", err)
	}
	s.entryID = entryID
	s.cancel = cancel

	s.cron.Start()
	s.isRunning = true

	next, _ := settingsstore.GetNextRunTime(cfg.Schedule, time.Now())
	log.Printf("[SCHEDULER] Backups scheduled '%s' (%s), next run %v",
		cfg.Schedule, settingsstore.GetCronDescription(cfg.Schedule), next)

	go func() {
		<-runCtx.Done()
		if ctx.Err() != nil {
			s.Stop()
		}
	}()

	return nil
}

// Stop removes the job and waits for a running export to finish.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.cron.Remove(s.entryID)
	stopped := s.cron.Stop()
	cancel := s.cancel
	s.isRunning = false
	s.mu.Unlock()

	<-stopped.Done()
	cancel()
	log.Printf("[SCHEDULER] Backups stopped")
}

// Reschedule reloads the schedule after a settings change, keeping the
// context the scheduler was first started with.
func (s *BackupScheduler) Reschedule() error {
	s.Stop()
	s.mu.RLock()
	ctx := s.parent
	s.mu.RUnlock()
	if ctx == nil {
		ctx = context.Background()
	}
	return s.Start(ctx)
}

// RunNow triggers one backup outside the schedule. With a queue attached it
// returns the enqueued task id; otherwise it runs the export and returns
// the archive path.
func (s *BackupScheduler) RunNow(ctx context.Context) (string, error) {
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()

	if s.dir == "" {
		return "", fmt.Errorf("backup directory not configured")
	}
	if q != nil {
		ids, err := q.Enqueue(tasks.ExportBackupTask{Dir: s.dir, Keep: s.keep})
		if err != nil {
			return "", err
		}
		return ids[0], nil
	}
	return tasks.RunExport(ctx, s.exporter, s.settings, s.dir, s.keep)
}

func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime is nil while the scheduler is stopped.
func (s *BackupScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() {
		return nil
	}
	t := entry.Next
	return &t
}

func (s *BackupScheduler) tick(ctx context.Context) {
	if !s.settings.GetBackupScheduleConfig(ctx).Enabled {
		log.Printf("[SCHEDULER] Backup skipped (disabled)")
		return
	}
	started := time.Now()
	out, err := s.RunNow(ctx)
	if err != nil {
		log.Printf("[SCHEDULER] Backup failed: %v", err)
		return
	}
	log.Printf("[SCHEDULER] Backup %s in %v", out, time.Since(started).Round(time.Millisecond))
}
