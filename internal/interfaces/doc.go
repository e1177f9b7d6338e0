// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the narrow interface they need next to the code that
// uses it; the concrete types live elsewhere. checks.go asserts every
// pairing at compile time.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - BlobStore / BlobReader: raw book bytes by key (internal/library, internal/backup, internal/reader)
//   - LocationStore: last read position per book (internal/library, internal/reader, internal/backup)
//   - DocumentStore: whole JSON documents such as the library index (internal/library, internal/stats)
//   - SettingsStore: reader display settings (internal/backup, internal/http)
//
// ## Reading Session Interfaces
//
//   - render.Surface: the rendering collaborator a session drives (internal/render)
//   - annotations.Store: annotation writes through the index (internal/annotations)
//   - progress.Surface / ProgressStore: position tracking (internal/progress)
//   - search.Sectioned / Loadable: text sections for full-text search (internal/search)
//
// ## Background Work Interfaces
//
//   - tasks.FileIngester / Exporter / Importer: work done by queued tasks (internal/tasks)
//   - scheduler.BackupSettings / Enqueuer: scheduled snapshots (internal/scheduler)
//   - ProgressReporter: bulk job progress (internal/library, internal/backup)
//
// # Adding a New Book Format
//
//  1. Implement library.DocumentParser and covers.ResourceReader for the format.
//
//  2. Provide a render.SectionText loader like epub.SurfaceLoader so the
//     text surface and search can read it.
//
//  3. Wire both in entrypoint.Build.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
