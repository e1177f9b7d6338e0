package backup

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// FilePrefix starts the name of every archive written by ExportToDir.
const FilePrefix = "bookshelf-backup-"

const fileTimeLayout = "2006-01-02-150405"

// Stores groups the collaborators of a Coordinator.
type Stores struct {
	Blobs     BlobStore
	Locations LocationStore
	Index     Index
	Settings  SettingsStore
}

// Options configures archive creation. A zero CompressionLevel selects
// DefaultCompressionLevel.
type Options struct {
	Policy           PositionPolicy
	CompressionLevel int
}

// ExportSummary describes a written archive.
type ExportSummary struct {
	Books     int      `json:"books"`
	Missing   []string `json:"missing,omitempty"`
	Positions int      `json:"positions"`
}

// ImportSummary describes a merged archive.
type ImportSummary struct {
	Books            int               `json:"books"`
	Restored         int               `json:"restored"`
	Failed           map[string]string `json:"failed,omitempty"`
	Missing          []string          `json:"missing,omitempty"`
	SettingsApplied  []string          `json:"settingsApplied"`
	PositionsApplied int               `json:"positionsApplied"`
}

// Coordinator exports and imports the complete user state.
type Coordinator struct {
	stores Stores
	policy PositionPolicy
	level  int
	now    func() time.Time

	exportProgress ProgressReporter
	importProgress ProgressReporter
}

func NewCoordinator(stores Stores, opts Options) *Coordinator {
	policy := opts.Policy
	if policy == "" {
		policy = PolicyPercentage
	}
	level := opts.CompressionLevel
	if level == 0 || !validLevel(level) {
		level = DefaultCompressionLevel
	}
	return &Coordinator{stores: stores, policy: policy, level: level, now: time.Now}
}

// SetProgressReporters records export and import runs as jobs.
func (c *Coordinator) SetProgressReporters(export, restore ProgressReporter) {
	c.exportProgress = export
	c.importProgress = restore
}

func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// Policy returns the position policy in effect.
func (c *Coordinator) Policy() PositionPolicy {
	return c.policy
}

func notify(fn ProgressFunc, format string, args ...any) {
	if fn != nil {
		fn(fmt.Sprintf(format, args...))
	}
}

// Export writes an archive to w. Books whose bytes are missing are
// logged, listed in the summary and left out of books/; their records are
// still exported.
func (c *Coordinator) Export(ctx context.Context, w io.Writer, onProgress ProgressFunc) (ExportSummary, error) {
	records := c.stores.Index.List()
	job := startJob(ctx, c.exportProgress, len(records))

	summary, err := c.export(ctx, w, records, onProgress, job)
	msg := ""
	if err != nil {
		msg = err.Error()
	} else if len(summary.Missing) > 0 {
		msg = fmt.Sprintf("%d books had no stored file", len(summary.Missing))
	}
	job.complete(ctx, err == nil, msg)
	return summary, err
}

func (c *Coordinator) export(ctx context.Context, w io.Writer, records []entities.BookRecord, onProgress ProgressFunc, job *jobTracker) (ExportSummary, error) {
	var summary ExportSummary

	settings, err := c.stores.Settings.ReaderSettings(ctx)
	if err != nil {
		return summary, err
	}

	zw := zip.NewWriter(w)
	level := c.level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	notify(onProgress, "Writing library metadata...")
	meta := Metadata{
		Version:   FormatVersion,
		Timestamp: c.now().UnixMilli(),
		Settings:  settings,
		Library:   records,
	}
	if err := writeJSON(zw, MetadataFile, meta); err != nil {
		return summary, err
	}

	positions := make(map[string]string)
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		notify(onProgress, "Adding %s...", rec.Title)

		data, err := c.stores.Blobs.Get(ctx, rec.Key)
		switch {
		case apperr.IsNotFound(err):
			log.Printf("[BACKUP] No stored file for %s, skipping", rec.Key)
			summary.Missing = append(summary.Missing, rec.Key)
			job.update(ctx, i+1, summary.Books, len(summary.Missing), rec.Key)
			continue
		case err != nil:
			return summary, err
		}

		f, err := zw.CreateHeader(&zip.FileHeader{Name: bookEntry(rec.Key), Method: zip.Deflate})
		if err != nil {
			return summary, apperr.IO("write archive", err)
		}
		if _, err := f.Write(data); err != nil {
			return summary, apperr.IO("write archive", err)
		}
		summary.Books++

		if c.policy == PolicyExact {
			token, err := c.stores.Locations.Get(ctx, rec.Key)
			if err == nil && token != "" {
				positions[rec.Key] = token
			} else if err != nil && !apperr.IsNotFound(err) {
				return summary, err
			}
		}
		job.update(ctx, i+1, summary.Books, len(summary.Missing), rec.Key)
	}

	if c.policy == PolicyExact {
		if err := writeJSON(zw, PositionsFile, positions); err != nil {
			return summary, err
		}
		summary.Positions = len(positions)
	}

	if err := zw.Close(); err != nil {
		return summary, apperr.IO("finish archive", err)
	}
	notify(onProgress, "Backup complete")
	log.Printf("[BACKUP] Exported %d books (%d missing)", summary.Books, len(summary.Missing))
	return summary, nil
}

func writeJSON(zw *zip.Writer, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return apperr.IO("write archive", err)
	}
	if _, err := f.Write(data); err != nil {
		return apperr.IO("write archive", err)
	}
	return nil
}

// FileName returns the archive name for a backup taken at t.
func FileName(t time.Time) string {
	return FilePrefix + t.Format(fileTimeLayout) + ".zip"
}

// ExportToDir writes an archive into dir and returns its path. The file
// appears under its final name only once it is complete.
func (c *Coordinator) ExportToDir(ctx context.Context, dir string, onProgress ProgressFunc) (string, ExportSummary, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", ExportSummary{}, apperr.IO("create backup dir", err)
	}

	tmp, err := os.CreateTemp(dir, ".backup_tmp_")
	if err != nil {
		return "", ExportSummary{}, apperr.IO("create backup file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	summary, err := c.Export(ctx, tmp, onProgress)
	if err != nil {
		return "", summary, err
	}
	if err := tmp.Sync(); err != nil {
		return "", summary, apperr.IO("sync backup file", err)
	}
	if err := tmp.Close(); err != nil {
		return "", summary, apperr.IO("close backup file", err)
	}

	path := filepath.Join(dir, FileName(c.now()))
	if err := os.Rename(tmpPath, path); err != nil {
		return "", summary, apperr.IO("rename backup file", err)
	}
	return path, summary, nil
}

// Import merges the archive into the stores: incoming books replace
// existing books with the same key and are appended after the rest.
// Settings apply field by field. Book files are restored best effort.
func (c *Coordinator) Import(ctx context.Context, r io.ReaderAt, size int64, onProgress ProgressFunc) (ImportSummary, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return ImportSummary{}, apperr.Validation("not a backup archive: %v", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	metaFile, ok := files[MetadataFile]
	if !ok {
		return ImportSummary{}, apperr.Validation("archive has no %s", MetadataFile)
	}
	raw, err := readEntry(metaFile)
	if err != nil {
		return ImportSummary{}, apperr.Validation("cannot read %s: %v", MetadataFile, err)
	}
	meta, err := parseMetadata(raw)
	if err != nil {
		return ImportSummary{}, err
	}

	job := startJob(ctx, c.importProgress, len(meta.Library))
	summary, err := c.restore(ctx, meta, files, onProgress, job)
	msg := ""
	if err != nil {
		msg = err.Error()
	} else if len(summary.Failed) > 0 {
		msg = fmt.Sprintf("%d of %d books failed", len(summary.Failed), summary.Books)
	}
	job.complete(ctx, err == nil, msg)
	return summary, err
}

func (c *Coordinator) restore(ctx context.Context, meta *incomingMetadata, files map[string]*zip.File, onProgress ProgressFunc, job *jobTracker) (ImportSummary, error) {
	summary := ImportSummary{Books: len(meta.Library), Failed: map[string]string{}}

	for i, rec := range meta.Library {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		f, ok := files[bookEntry(rec.Key)]
		if !ok {
			log.Printf("[BACKUP] Archive has no file for %s", rec.Key)
			summary.Missing = append(summary.Missing, rec.Key)
			job.update(ctx, i+1, summary.Restored, len(summary.Failed), rec.Key)
			continue
		}
		notify(onProgress, "Restoring: %s...", rec.Title)
		data, err := readEntry(f)
		if err == nil {
			err = c.stores.Blobs.Put(ctx, rec.Key, data)
		}
		if err != nil {
			log.Printf("[BACKUP] Failed to restore %s: %v", rec.Key, err)
			summary.Failed[rec.Key] = err.Error()
		} else {
			summary.Restored++
		}
		job.update(ctx, i+1, summary.Restored, len(summary.Failed), rec.Key)
	}

	notify(onProgress, "Updating library index...")
	incoming := make([]entities.BookRecord, len(meta.Library))
	for i, rec := range meta.Library {
		if rec.Annotations == nil {
			rec.Annotations = []entities.Annotation{}
		}
		incoming[i] = rec
	}
	if err := c.stores.Index.Merge(ctx, incoming); err != nil {
		return summary, err
	}

	notify(onProgress, "Restoring settings...")
	_, applied, err := c.stores.Settings.ApplyReaderSettings(ctx, meta.Settings)
	if err != nil {
		return summary, err
	}
	summary.SettingsApplied = applied
	if summary.SettingsApplied == nil {
		summary.SettingsApplied = []string{}
	}

	if c.policy == PolicyExact {
		n, err := c.restorePositions(ctx, files, incoming)
		if err != nil {
			return summary, err
		}
		summary.PositionsApplied = n
	}

	notify(onProgress, "Reloading library...")
	if err := c.stores.Index.Reload(ctx); err != nil {
		return summary, err
	}

	notify(onProgress, "Restore complete!")
	log.Printf("[BACKUP] Imported %d books (%d restored, %d failed, %d missing)",
		summary.Books, summary.Restored, len(summary.Failed), len(summary.Missing))
	return summary, nil
}

func (c *Coordinator) restorePositions(ctx context.Context, files map[string]*zip.File, incoming []entities.BookRecord) (int, error) {
	f, ok := files[PositionsFile]
	if !ok {
		return 0, nil
	}
	raw, err := readEntry(f)
	if err != nil {
		log.Printf("[BACKUP] Cannot read %s: %v", PositionsFile, err)
		return 0, nil
	}
	var positions map[string]string
	if err := json.Unmarshal(raw, &positions); err != nil {
		log.Printf("[BACKUP] Ignoring malformed %s: %v", PositionsFile, err)
		return 0, nil
	}

	applied := 0
	for _, rec := range incoming {
		token, ok := positions[rec.Key]
		if !ok || token == "" {
			continue
		}
		if err := c.stores.Locations.Set(ctx, rec.Key, token); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}

// ImportFile imports the archive at path.
func (c *Coordinator) ImportFile(ctx context.Context, path string, onProgress ProgressFunc) (ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportSummary{}, apperr.IO("open backup", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return ImportSummary{}, apperr.IO("open backup", err)
	}
	return c.Import(ctx, f, info.Size(), onProgress)
}

// ImportBytes imports an archive held in memory.
func (c *Coordinator) ImportBytes(ctx context.Context, data []byte, onProgress ProgressFunc) (ImportSummary, error) {
	return c.Import(ctx, bytes.NewReader(data), int64(len(data)), onProgress)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Archives lists backup archives in dir, newest first.
func Archives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), FilePrefix) || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		names = append(names, e.Name())
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// Prune keeps the newest keep archives in dir and removes the rest.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	paths, err := Archives(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) <= keep {
		return nil, nil
	}
	var removed []string
	for _, p := range paths[keep:] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed = append(removed, p)
	}
	return removed, nil
}

type jobTracker struct {
	reporter ProgressReporter
}

func startJob(ctx context.Context, reporter ProgressReporter, total int) *jobTracker {
	j := &jobTracker{reporter: reporter}
	if reporter != nil {
		if err := reporter.StartJob(ctx, total); err != nil {
			log.Printf("[BACKUP] Failed to record job start: %v", err)
		}
	}
	return j
}

func (j *jobTracker) update(ctx context.Context, processed, succeeded, failed int, current string) {
	if j.reporter == nil {
		return
	}
	if err := j.reporter.UpdateJob(ctx, processed, succeeded, failed, current); err != nil {
		log.Printf("[BACKUP] Failed to record job progress: %v", err)
	}
}

func (j *jobTracker) complete(ctx context.Context, succeeded bool, msg string) {
	if j.reporter == nil {
		return
	}
	if err := j.reporter.CompleteJob(ctx, succeeded, msg); err != nil {
		log.Printf("[BACKUP] Failed to record job completion: %v", err)
	}
}
