// Package reader owns the reading session of the one open book: it loads
// the book into the surface, restores the saved position and routes
// surface events to the annotation controller and the progress tracker.
package reader

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/annotations"
	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/progress"
	"github.com/mrlokans/bookshelf/internal/render"
	"github.com/mrlokans/bookshelf/internal/search"
)

// BlobReader reads book bytes.
type BlobReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// LocationStore reads and writes saved positions.
type LocationStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, token string) error
}

// Index is the library index as seen by a session.
type Index interface {
	annotations.Store
	SetProgress(ctx context.Context, key string, percent int) (bool, error)
}

// StatsRecorder receives session boundaries and reading milestones.
type StatsRecorder interface {
	progress.StatsReporter
	StartSession(ctx context.Context) error
	EndSession(ctx context.Context) error
}

// Stores groups the durable collaborators of a Reader.
type Stores struct {
	Blobs     BlobReader
	Locations LocationStore
	Index     Index
}

// Options tunes timing of a Reader.
type Options struct {
	SettleDelay    time.Duration
	SearchDebounce time.Duration
	MinQueryLength int
	FlashDuration  time.Duration
}

// State is a snapshot of the session for display.
type State struct {
	Open     bool                 `json:"open"`
	Key      string               `json:"key,omitempty"`
	Title    string               `json:"title,omitempty"`
	Percent  int                  `json:"percent"`
	Position render.Position      `json:"position"`
	Pending  *annotations.Pending `json:"pending,omitempty"`
}

// Reader is the single reading session over one surface.
type Reader struct {
	surface    render.Surface
	stores     Stores
	opts       Options
	controller *annotations.Controller
	tracker    *progress.Tracker
	indexer    *search.Indexer
	flasher    *search.Flasher
	stats      StatsRecorder

	// eventMu serializes event dispatch.
	eventMu sync.Mutex

	mu          sync.Mutex
	key         string
	content     []byte
	settings    entities.ReaderSettings
	unsubscribe func()
	session     *search.Session
	views       []*View
}

func NewReader(surface render.Surface, stores Stores, opts Options) *Reader {
	tracker := progress.NewTracker(stores.Locations, stores.Index, opts.SettleDelay)
	indexer := search.NewIndexer(surface)
	if opts.MinQueryLength > 0 {
		indexer.SetMinQueryLength(opts.MinQueryLength)
	}
	return &Reader{
		surface:    surface,
		stores:     stores,
		opts:       opts,
		controller: annotations.NewController(stores.Index, surface),
		tracker:    tracker,
		indexer:    indexer,
		flasher:    search.NewFlasher(surface, opts.FlashDuration),
		settings:   entities.DefaultReaderSettings(),
	}
}

// SetStatsRecorder enables reading statistics.
func (r *Reader) SetStatsRecorder(stats StatsRecorder) {
	r.stats = stats
	r.tracker.SetStatsReporter(stats)
}

// IsNoLocation reports whether a stored position means "start of book".
func IsNoLocation(token string) bool {
	return token == "" || token == "null" || token == "undefined"
}

// Open closes any open book, then loads key at its saved position and
// draws its annotations.
func (r *Reader) Open(ctx context.Context, key string) error {
	r.Close(ctx)

	rec, ok := r.stores.Index.Get(key)
	if !ok {
		return apperr.NotFound("book " + key)
	}
	data, err := r.stores.Blobs.Get(ctx, key)
	if err != nil {
		return err
	}
	resumeAt, err := r.stores.Locations.Get(ctx, key)
	if err != nil && !apperr.IsNotFound(err) {
		return err
	}
	if IsNoLocation(resumeAt) {
		resumeAt = ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.applyLayoutLocked()
	r.tracker.Bind(key, r.surface, rec.ProgressValue())
	unsubscribe := r.surface.Subscribe(r.dispatch)

	if err := r.surface.Load(data, resumeAt); err != nil {
		unsubscribe()
		r.tracker.Unbind()
		return apperr.Validation("cannot display %s: %v", key, err)
	}

	r.key = key
	r.content = data
	r.unsubscribe = unsubscribe
	r.session = search.NewSession(r.indexer, r.opts.SearchDebounce)
	r.controller.Bind(ctx, key)

	if r.stats != nil {
		if err := r.stats.StartSession(ctx); err != nil {
			log.Printf("[READER] start session: %v", err)
		}
	}
	log.Printf("[READER] Opened %s", key)
	return nil
}

// Close releases the open book. Closing with nothing open is a no-op.
func (r *Reader) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked(ctx)
}

// CloseIfOpen closes the session when key is the open book. It satisfies
// library.SessionCloser.
func (r *Reader) CloseIfOpen(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.key != "" && r.key == key {
		r.closeLocked(context.Background())
	}
}

func (r *Reader) closeLocked(ctx context.Context) {
	if r.key == "" {
		return
	}
	key := r.key

	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
	r.flasher.Clear()
	r.controller.Unbind()
	r.tracker.Unbind()
	r.surface.Unload()

	for _, v := range r.views {
		v.release()
	}
	r.views = nil
	r.content = nil
	r.key = ""

	if r.stats != nil {
		if err := r.stats.EndSession(ctx); err != nil {
			log.Printf("[READER] end session: %v", err)
		}
	}
	log.Printf("[READER] Closed %s", key)
}

func (r *Reader) dispatch(ev render.Event) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()

	switch ev.Kind {
	case render.EventLocationChanged:
		if err := r.tracker.OnLocationChanged(context.Background(), ev.Token); err != nil {
			log.Printf("[READER] save location: %v", err)
		}
	case render.EventSelected, render.EventDecorationClicked:
		r.controller.HandleEvent(ev)
	}
}

// Key returns the open book, empty when nothing is open.
func (r *Reader) Key() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.key
}

// State returns a snapshot of the session.
func (r *Reader) State() State {
	key := r.Key()
	if key == "" {
		return State{}
	}
	st := State{
		Open:     true,
		Key:      key,
		Percent:  r.tracker.Display(),
		Position: r.surface.CurrentPosition(),
	}
	if rec, ok := r.stores.Index.Get(key); ok {
		st.Title = rec.Title
	}
	if p, ok := r.controller.Pending(); ok {
		st.Pending = &p
	}
	return st
}

// Controller returns the annotation controller of the session.
func (r *Reader) Controller() *annotations.Controller {
	return r.controller
}

// Tracker returns the progress tracker of the session.
func (r *Reader) Tracker() *progress.Tracker {
	return r.tracker
}

func (r *Reader) requireOpen() error {
	if r.Key() == "" {
		return apperr.Validation("no book is open")
	}
	return nil
}

func (r *Reader) Next() error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	return r.surface.Next()
}

func (r *Reader) Prev() error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	return r.surface.Prev()
}

// GoTo displays token.
func (r *Reader) GoTo(token string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if err := r.surface.Display(token); err != nil {
		return apperr.Validation("cannot display %q: %v", token, err)
	}
	return nil
}

// Settings returns the settings the session renders with.
func (r *Reader) Settings() entities.ReaderSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// UpdateSettings applies rs. When an open book's layout changes the
// surface is relaid out and the reader stays on the same position.
func (r *Reader) UpdateSettings(ctx context.Context, rs entities.ReaderSettings) error {
	r.mu.Lock()
	relayout := r.key != "" && r.settings.LayoutDiffers(rs)
	r.settings = rs
	if relayout {
		r.applyLayoutLocked()
	}
	r.mu.Unlock()

	if !relayout {
		return nil
	}
	return r.tracker.Relayout(ctx)
}

func (r *Reader) applyLayoutLocked() {
	lc, ok := r.surface.(render.LayoutConfigurer)
	if !ok {
		return
	}
	if err := lc.ApplyLayout(LayoutFor(r.settings)); err != nil {
		log.Printf("[READER] apply layout: %v", apperr.Render("apply layout", err))
	}
}

// LayoutFor maps reader settings to a surface layout.
func LayoutFor(rs entities.ReaderSettings) render.Layout {
	columns := 1
	if rs.PageView == entities.PageViewDouble {
		columns = 2
	}
	return render.Layout{
		FontSize:   rs.FontSize,
		FontFamily: rs.FontFamily,
		FontWeight: rs.FontWeight,
		LineHeight: rs.LineHeight,
		Columns:    columns,
	}
}

// Search runs query against the open book immediately.
func (r *Reader) Search(ctx context.Context, query string) ([]search.Result, error) {
	if err := r.requireOpen(); err != nil {
		return nil, err
	}
	return r.indexer.Search(ctx, query)
}

// SearchSession returns the debounced search of the open book.
func (r *Reader) SearchSession() (*search.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil, apperr.Validation("no book is open")
	}
	return r.session, nil
}

// ShowResult navigates to a search result and flashes it.
func (r *Reader) ShowResult(token string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}
	if err := r.flasher.Flash(token); err != nil {
		return apperr.Validation("cannot display %q: %v", token, err)
	}
	return nil
}

// OpenView hands out the open book's bytes until the session closes or the
// view is released.
func (r *Reader) OpenView() (*View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.key == "" {
		return nil, apperr.Validation("no book is open")
	}
	v := &View{owner: r, key: r.key, data: r.content}
	r.views = append(r.views, v)
	return v, nil
}

// View is a borrowed reference to the open book's bytes.
type View struct {
	owner *Reader

	mu   sync.Mutex
	key  string
	data []byte
}

func (v *View) Key() string {
	return v.key
}

// Bytes returns the book, or nil once released.
func (v *View) Bytes() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data
}

// Release drops the reference and detaches the view from the session.
// Safe to call more than once.
func (v *View) Release() {
	v.release()
	if v.owner != nil {
		v.owner.dropView(v)
	}
}

func (r *Reader) dropView(v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, held := range r.views {
		if held == v {
			r.views = append(r.views[:i], r.views[i+1:]...)
			return
		}
	}
}

// Views is the number of views not yet released.
func (r *Reader) Views() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (v *View) release() {
	v.mu.Lock()
	v.data = nil
	v.mu.Unlock()
}

var _ library.SessionCloser = (*Reader)(nil)
