package annotations

import (
	"log"
	"sort"
	"sync"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/render"
)

// slot is one decoration position on a surface. A surface draws at most
// one decoration per slot, so annotations sharing a range share a slot.
type slot struct {
	rangeToken string
	kind       render.DecorationKind
}

// Result summarizes one reconciliation pass.
type Result struct {
	Added   int
	Removed int
	Failed  int
	// Remapped holds annotations whose stored color is not a palette id,
	// keyed by annotation id, with the color they were drawn in.
	Remapped map[string]string
}

// Reconciler keeps the decorations of one surface equal to a canonical
// annotation list, keyed by annotation id.
type Reconciler struct {
	surface render.Surface

	mu     sync.Mutex
	drawn  map[string]slot
	owners map[slot]string // id whose decoration occupies the slot
}

func NewReconciler(surface render.Surface) *Reconciler {
	return &Reconciler{
		surface: surface,
		drawn:   make(map[string]slot),
		owners:  make(map[slot]string),
	}
}

func slotOf(a entities.Annotation) slot {
	return slot{rangeToken: a.CFIRange, kind: render.DecorationKind(a.Kind())}
}

// Reconcile removes decorations whose id left the canonical list, then
// draws canonical annotations that are not drawn yet. The latest canonical
// annotation on a shared range owns its decoration; the decoration is
// removed only when no canonical annotation uses the range. Surface
// failures are logged and skipped: a failed removal is forgotten, a failed
// add is retried on the next pass.
func (r *Reconciler) Reconcile(canonical []entities.Annotation) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{Remapped: make(map[string]string)}
	wanted := make(map[string]struct{}, len(canonical))
	owner := make(map[slot]entities.Annotation, len(canonical))
	for _, a := range canonical {
		wanted[a.ID] = struct{}{}
		owner[slotOf(a)] = a
	}

	for _, id := range sortedIDs(r.drawn) {
		if _, ok := wanted[id]; ok {
			continue
		}
		sl := r.drawn[id]
		delete(r.drawn, id)
		res.Removed++
		if _, still := owner[sl]; still {
			continue
		}
		if _, onSurface := r.owners[sl]; !onSurface {
			continue
		}
		delete(r.owners, sl)
		if err := r.surface.RemoveDecoration(sl.rangeToken, sl.kind); err != nil {
			log.Printf("[RECONCILE] remove %s: %v", id, apperr.Render("remove decoration", err))
			res.Failed++
			res.Removed--
		}
	}

	for _, a := range canonical {
		sl := slotOf(a)
		if owner[sl].ID != a.ID || r.owners[sl] == a.ID {
			continue
		}
		color, _ := NormalizeColor(a.Color)
		if prev, ok := r.owners[sl]; ok {
			if err := r.surface.RemoveDecoration(sl.rangeToken, sl.kind); err != nil {
				log.Printf("[RECONCILE] replace %s: %v", prev, apperr.Render("remove decoration", err))
			}
			delete(r.owners, sl)
		}
		data := render.DecorationData{ID: a.ID, Type: string(a.Kind())}
		if err := r.surface.AddDecoration(sl.kind, a.CFIRange, data, StyleFor(color)); err != nil {
			log.Printf("[RECONCILE] add %s: %v", a.ID, apperr.Render("add decoration", err))
			res.Failed++
			continue
		}
		r.owners[sl] = a.ID
	}

	for _, a := range canonical {
		sl := slotOf(a)
		if r.owners[sl] != owner[sl].ID {
			delete(r.drawn, a.ID)
			continue
		}
		if _, ok := r.drawn[a.ID]; ok {
			continue
		}
		if color, changed := NormalizeColor(a.Color); changed {
			res.Remapped[a.ID] = color
		}
		r.drawn[a.ID] = sl
		res.Added++
	}

	return res
}

// Reset forgets every tracked decoration without touching the surface.
// Called when the surface is unloaded.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	r.drawn = make(map[string]slot)
	r.owners = make(map[slot]string)
	r.mu.Unlock()
}

// Drawn returns the ids currently tracked as drawn, sorted.
func (r *Reconciler) Drawn() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedIDs(r.drawn)
}

func sortedIDs(m map[string]slot) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
