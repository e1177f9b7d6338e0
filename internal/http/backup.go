package http

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/backup"
	"github.com/mrlokans/bookshelf/internal/settingsstore"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

type BackupController struct {
	service   BackupService
	settings  BackupScheduleStore
	snapshots SnapshotRunner
	queue     TaskQueue
	dir       string
}

func NewBackupController(service BackupService, settings BackupScheduleStore, snapshots SnapshotRunner, queue TaskQueue, dir string) *BackupController {
	return &BackupController{service: service, settings: settings, snapshots: snapshots, queue: queue, dir: dir}
}

// Download handles GET /api/backup by streaming a fresh archive.
func (bc *BackupController) Download(c *gin.Context) {
	name := backup.FileName(time.Now())
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)

	summary, err := bc.service.Export(c.Request.Context(), c.Writer, nil)
	if err != nil {
		// Headers are already sent; the truncated archive fails to open.
		log.Printf("[HTTP] Backup download failed: %v", err)
		c.Abort()
		return
	}
	log.Printf("[HTTP] Backup %s streamed (%d books)", name, summary.Books)
}

// Restore handles POST /api/backup with a multipart "file". With
// ?async=true the archive is staged in the backup directory and merged by
// the task queue.
func (bc *BackupController) Restore(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "backup file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondInternalError(c, err, "open backup upload")
		return
	}
	defer f.Close()

	if c.Query("async") == "true" {
		bc.restoreAsync(c, f)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		respondInternalError(c, err, "read backup upload")
		return
	}
	summary, err := bc.service.ImportBytes(c.Request.Context(), data, nil)
	if err != nil {
		respondAppError(c, err, "restore backup")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (bc *BackupController) restoreAsync(c *gin.Context, src io.Reader) {
	if bc.queue == nil || bc.dir == "" {
		respondBadRequest(c, "background restore is not available")
		return
	}
	if err := os.MkdirAll(bc.dir, 0755); err != nil {
		respondInternalError(c, err, "create backup dir")
		return
	}
	staged, err := os.CreateTemp(bc.dir, ".restore-*.zip")
	if err != nil {
		respondInternalError(c, err, "stage backup")
		return
	}
	_, err = io.Copy(staged, src)
	if cerr := staged.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(staged.Name())
		respondInternalError(c, err, "stage backup")
		return
	}

	ids, err := bc.queue.Enqueue(tasks.RestoreBackupTask{Path: staged.Name(), Remove: true})
	if err != nil {
		os.Remove(staged.Name())
		respondInternalError(c, err, "enqueue restore")
		return
	}
	respondAccepted(c, "restore enqueued", gin.H{"task_id": ids[0]})
}

// Snapshot handles POST /api/backup/snapshot. With a task queue the export
// is enqueued; otherwise it runs inline.
func (bc *BackupController) Snapshot(c *gin.Context) {
	if bc.snapshots == nil {
		respondBadRequest(c, "snapshots are not configured")
		return
	}
	out, err := bc.snapshots.RunNow(c.Request.Context())
	if err != nil {
		respondAppError(c, err, "snapshot")
		return
	}
	if bc.queue != nil {
		respondAccepted(c, "snapshot enqueued", gin.H{"task_id": out})
		return
	}
	respondCreated(c, gin.H{"path": out})
}

// BackupStatusResponse describes automatic backups.
type BackupStatusResponse struct {
	Schedule    settingsstore.BackupScheduleConfigInfo `json:"schedule"`
	Description string                                 `json:"description"`
	LastRun     settingsstore.BackupStatus             `json:"last_run"`
	NextRun     *time.Time                             `json:"next_run,omitempty"`
	Archives    []string                               `json:"archives"`
}

// Status handles GET /api/backup/status
func (bc *BackupController) Status(c *gin.Context) {
	ctx := c.Request.Context()
	info := bc.settings.GetBackupScheduleConfigInfo(ctx)
	resp := BackupStatusResponse{
		Schedule:    info,
		Description: settingsstore.GetCronDescription(info.Schedule),
		LastRun:     bc.settings.GetBackupStatus(ctx),
		Archives:    []string{},
	}
	if bc.snapshots != nil {
		resp.NextRun = bc.snapshots.NextRunTime()
	}
	if bc.dir != "" {
		archives, err := backup.Archives(bc.dir)
		if err != nil {
			respondInternalError(c, err, "list archives")
			return
		}
		if archives != nil {
			resp.Archives = archives
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ScheduleRequest updates automatic backups. Absent fields are unchanged.
type ScheduleRequest struct {
	Enabled  *bool   `json:"enabled"`
	Schedule *string `json:"schedule"`
}

// UpdateSchedule handles PUT /api/backup/schedule
func (bc *BackupController) UpdateSchedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	if req.Schedule != nil {
		if err := settingsstore.ValidateCronSchedule(*req.Schedule); err != nil {
			respondBadRequest(c, fmt.Sprintf("invalid cron schedule: %v", err))
			return
		}
		if err := bc.settings.SetBackupSchedule(ctx, *req.Schedule); err != nil {
			respondInternalError(c, err, "save backup schedule")
			return
		}
	}
	if req.Enabled != nil {
		if err := bc.settings.SetBackupEnabled(ctx, *req.Enabled); err != nil {
			respondInternalError(c, err, "save backup enabled")
			return
		}
	}
	if bc.snapshots != nil {
		if err := bc.snapshots.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule backups")
			return
		}
	}
	bc.Status(c)
}
