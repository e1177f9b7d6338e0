package annotations

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/render"
)

// Store is the part of the library index the controller writes through.
type Store interface {
	Get(key string) (entities.BookRecord, bool)
	ReplaceAnnotation(ctx context.Context, key, oldID string, a entities.Annotation) error
	RemoveAnnotation(ctx context.Context, key, id string) error
	RemapAnnotations(ctx context.Context, key string, colors map[string]string) error
	Subscribe(fn func(library.Change)) func()
}

// Pending is the transient state between a selection (or a click on an
// existing highlight) and the reader's choice in the menu.
type Pending struct {
	Point        render.Point `json:"point"`
	Range        string       `json:"cfiRange"`
	Text         string       `json:"text"`
	AnnotationID string       `json:"annotationId,omitempty"`
	Editing      bool         `json:"editing"`
}

// Controller turns surface selections into annotations for the bound book
// and reconciles the surface whenever that book's record changes.
type Controller struct {
	store   Store
	surface render.Surface
	rec     *Reconciler

	mu          sync.Mutex
	key         string
	pending     *Pending
	unsubscribe func()

	newID func() string
	now   func() time.Time
}

func NewController(store Store, surface render.Surface) *Controller {
	return &Controller{
		store:   store,
		surface: surface,
		rec:     NewReconciler(surface),
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
		now:     time.Now,
	}
}

// Bind attaches the controller to key, draws its annotations and starts
// following index changes.
func (c *Controller) Bind(ctx context.Context, key string) {
	c.Unbind()

	c.mu.Lock()
	c.key = key
	c.unsubscribe = c.store.Subscribe(func(ch library.Change) {
		if ch.Key == "" || ch.Key == c.boundKey() {
			c.Refresh(context.Background())
		}
	})
	c.mu.Unlock()

	c.Refresh(ctx)
}

// Unbind stops following the index and forgets drawn decorations.
func (c *Controller) Unbind() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.key = ""
	c.pending = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.rec.Reset()
}

func (c *Controller) boundKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Refresh reconciles the surface against the stored annotations of the
// bound book and persists palette remaps.
func (c *Controller) Refresh(ctx context.Context) Result {
	key := c.boundKey()
	if key == "" {
		return Result{}
	}
	rec, ok := c.store.Get(key)
	if !ok {
		// Book deleted while open; drop everything that was drawn.
		return c.rec.Reconcile(nil)
	}
	res := c.rec.Reconcile(rec.Annotations)
	if len(res.Remapped) > 0 {
		if err := c.store.RemapAnnotations(ctx, key, res.Remapped); err != nil {
			log.Printf("[RECONCILE] persist color remap for %s: %v", key, err)
		}
	}
	return res
}

// Reconciler exposes the underlying reconciler.
func (c *Controller) Reconciler() *Reconciler {
	return c.rec
}

// HandleEvent routes selection and click events; other kinds are ignored.
func (c *Controller) HandleEvent(ev render.Event) {
	switch ev.Kind {
	case render.EventSelected:
		c.OnSelected(ev)
	case render.EventDecorationClicked:
		c.OnDecorationClicked(ev)
	}
}

// OnSelected opens a pending selection. An event without text has its
// text resolved from the surface; if that yields nothing the selection is
// ignored.
func (c *Controller) OnSelected(ev render.Event) {
	text := ev.Text
	if text == "" {
		resolved, err := c.surface.ResolveRangeText(ev.Range)
		if err != nil {
			log.Printf("[RECONCILE] resolve selection: %v", apperr.Render("resolve range", err))
		}
		text = resolved
	}
	if text == "" || ev.Range == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key == "" {
		return
	}
	c.pending = &Pending{Point: ev.Point, Range: ev.Range, Text: text}
}

// OnDecorationClicked opens a pending edit of the clicked annotation. The
// text is re-read from the surface, falling back to the stored snapshot.
func (c *Controller) OnDecorationClicked(ev render.Event) {
	key := c.boundKey()
	if key == "" || ev.Data.ID == "" {
		return
	}
	rec, ok := c.store.Get(key)
	if !ok {
		return
	}
	stored, ok := rec.FindAnnotation(ev.Data.ID)
	if !ok {
		return
	}

	rangeToken := ev.Range
	if rangeToken == "" {
		rangeToken = stored.CFIRange
	}
	text, err := c.surface.ResolveRangeText(rangeToken)
	if err != nil || text == "" {
		text = stored.Text
	}

	c.mu.Lock()
	c.pending = &Pending{
		Point:        ev.Point,
		Range:        rangeToken,
		Text:         text,
		AnnotationID: stored.ID,
		Editing:      true,
	}
	c.mu.Unlock()
}

// Pending returns the open selection, if any.
func (c *Controller) Pending() (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Pending{}, false
	}
	return *c.pending, true
}

func (c *Controller) takePending() (string, *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = nil
	return c.key, p
}

// Commit stores the pending selection as an annotation in color. Editing
// an existing annotation replaces it with a new one. If the book was
// deleted meanwhile nothing is stored and no error is returned.
func (c *Controller) Commit(ctx context.Context, color string, kind entities.AnnotationKind) (entities.Annotation, error) {
	if !ValidColor(color) {
		return entities.Annotation{}, apperr.Validation("unknown color %q", color)
	}
	if kind == "" {
		kind = entities.AnnotationKindHighlight
	}
	if !kind.Valid() {
		return entities.Annotation{}, apperr.Validation("unknown annotation type %q", kind)
	}

	key, p := c.takePending()
	if p == nil || key == "" {
		return entities.Annotation{}, apperr.Validation("nothing selected")
	}

	a := entities.Annotation{
		ID:       c.newID(),
		CFIRange: p.Range,
		Text:     p.Text,
		Color:    color,
		Type:     kind,
		Chapter:  c.currentChapter(),
		Created:  c.now().UnixMilli(),
	}

	oldID := ""
	if p.Editing {
		oldID = p.AnnotationID
	}
	if err := c.store.ReplaceAnnotation(ctx, key, oldID, a); err != nil {
		return entities.Annotation{}, err
	}
	if _, ok := c.store.Get(key); !ok {
		log.Printf("[RECONCILE] book %s deleted, dropped annotation %s", key, a.ID)
	}
	return a, nil
}

func (c *Controller) currentChapter() string {
	pos := c.surface.CurrentPosition()
	sections := c.surface.Sections()
	if pos.Section < 0 || pos.Section >= len(sections) {
		return ""
	}
	return sections[pos.Section].Label()
}

// Copy returns the pending text and closes the menu without persisting.
func (c *Controller) Copy() (string, bool) {
	_, p := c.takePending()
	if p == nil {
		return "", false
	}
	return p.Text, true
}

// Delete removes the annotation under edit.
func (c *Controller) Delete(ctx context.Context) error {
	key, p := c.takePending()
	if p == nil || !p.Editing || p.AnnotationID == "" {
		return apperr.Validation("no annotation selected")
	}
	return c.store.RemoveAnnotation(ctx, key, p.AnnotationID)
}

// Dismiss closes the menu.
func (c *Controller) Dismiss() {
	c.takePending()
}
