package annotations

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/render"
)

func staticLoader(texts ...string) render.Loader {
	return func([]byte) ([]render.SectionText, error) {
		out := make([]render.SectionText, len(texts))
		for i, t := range texts {
			out[i] = render.SectionText{Label: "Chapter " + string(rune('A'+i)), Text: t}
		}
		return out, nil
	}
}

func loadedSurface(t *testing.T) *render.TextSurface {
	t.Helper()
	s := render.NewTextSurface(staticLoader(
		"It was the best of times, it was the worst of times.",
		"Call me Ishmael. Some years ago.",
	), 20)
	require.NoError(t, s.Load(nil, ""))
	return s
}

// flakySurface fails AddDecoration for the listed ranges.
type flakySurface struct {
	*render.TextSurface
	failAdd map[string]bool
}

func (f *flakySurface) AddDecoration(kind render.DecorationKind, token string, data render.DecorationData, style render.Style) error {
	if f.failAdd[token] {
		return errors.New("range not rendered")
	}
	return f.TextSurface.AddDecoration(kind, token, data, style)
}

func annotation(id, rangeToken, color string) entities.Annotation {
	return entities.Annotation{ID: id, CFIRange: rangeToken, Text: "x", Color: color, Created: 1}
}

func TestReconcile_AddsAndRemoves(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)

	a := annotation("a", render.RangeToken(0, 0, 6), "yellow")
	b := annotation("b", render.RangeToken(1, 0, 4), "green")
	b.Type = entities.AnnotationKindUnderline

	res := r.Reconcile([]entities.Annotation{a, b})
	assert.Equal(t, 2, res.Added)
	assert.Empty(t, res.Remapped)
	assert.Equal(t, []string{"a", "b"}, r.Drawn())

	drawn := s.Decorations()
	require.Len(t, drawn, 2)
	assert.Equal(t, render.DecorationHighlight, drawn[0].Kind)
	assert.Equal(t, "highlight-yellow", drawn[0].Style.ClassName)
	assert.Equal(t, render.DecorationUnderline, drawn[1].Kind)
	assert.Equal(t, render.DecorationData{ID: "b", Type: "underline"}, drawn[1].Data)

	// Same list again is a no-op.
	res = r.Reconcile([]entities.Annotation{a, b})
	assert.Zero(t, res.Added)
	assert.Zero(t, res.Removed)

	res = r.Reconcile([]entities.Annotation{b})
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{"b"}, r.Drawn())
	assert.Len(t, s.Decorations(), 1)
}

func TestReconcile_ReplacedIDRedraws(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)
	token := render.RangeToken(0, 0, 6)

	r.Reconcile([]entities.Annotation{annotation("old", token, "yellow")})
	r.Reconcile([]entities.Annotation{annotation("new", token, "blue")})

	drawn := s.Decorations()
	require.Len(t, drawn, 1)
	assert.Equal(t, "new", drawn[0].Data.ID)
	assert.Equal(t, "highlight-blue", drawn[0].Style.ClassName)
}

func TestReconcile_RemapsUnknownColors(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)

	res := r.Reconcile([]entities.Annotation{
		annotation("a", render.RangeToken(0, 0, 6), "#4da8cf"),
		annotation("b", render.RangeToken(0, 7, 10), "magenta"),
	})
	assert.Equal(t, map[string]string{"a": "blue", "b": DefaultColor}, res.Remapped)
	assert.Equal(t, "highlight-blue", s.Decorations()[0].Style.ClassName)
}

func TestReconcile_FailedAddIsRetried(t *testing.T) {
	base := loadedSurface(t)
	bad := render.RangeToken(1, 0, 4)
	s := &flakySurface{TextSurface: base, failAdd: map[string]bool{bad: true}}
	r := NewReconciler(s)

	list := []entities.Annotation{
		annotation("ok", render.RangeToken(0, 0, 6), "yellow"),
		annotation("bad", bad, "yellow"),
	}
	res := r.Reconcile(list)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"ok"}, r.Drawn())

	s.failAdd = nil
	res = r.Reconcile(list)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []string{"bad", "ok"}, r.Drawn())
}

func TestReconcile_InvalidRangeDoesNotBlockOthers(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)

	res := r.Reconcile([]entities.Annotation{
		annotation("broken", "epubcfi(/6/4)", "yellow"),
		annotation("fine", render.RangeToken(0, 0, 2), "pink"),
	})
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"fine"}, r.Drawn())
}

func TestReconcile_Reset(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)
	list := []entities.Annotation{annotation("a", render.RangeToken(0, 0, 6), "yellow")}
	r.Reconcile(list)

	s.Unload()
	r.Reset()
	assert.Empty(t, r.Drawn())

	require.NoError(t, s.Load(nil, ""))
	res := r.Reconcile(list)
	assert.Equal(t, 1, res.Added)
	assert.Len(t, s.Decorations(), 1)
	assert.True(t, strings.HasPrefix(s.Decorations()[0].Range, "sec:0:"))
}

func TestReconcile_SharedRange(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)
	token := render.RangeToken(0, 0, 6)
	a1 := annotation("a1", token, "yellow")
	a2 := annotation("a2", token, "green")

	res := r.Reconcile([]entities.Annotation{a1, a2})
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, []string{"a1", "a2"}, r.Drawn())
	drawn := s.Decorations()
	require.Len(t, drawn, 1)
	assert.Equal(t, "a2", drawn[0].Data.ID)
	assert.Equal(t, "highlight-green", drawn[0].Style.ClassName)

	// Dropping the owner redraws the survivor.
	res = r.Reconcile([]entities.Annotation{a1})
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, []string{"a1"}, r.Drawn())
	drawn = s.Decorations()
	require.Len(t, drawn, 1)
	assert.Equal(t, "a1", drawn[0].Data.ID)
	assert.Equal(t, "highlight-yellow", drawn[0].Style.ClassName)

	// Dropping a non-owner keeps the decoration.
	r.Reconcile([]entities.Annotation{a1, a2})
	r.Reconcile([]entities.Annotation{a2})
	drawn = s.Decorations()
	require.Len(t, drawn, 1)
	assert.Equal(t, "a2", drawn[0].Data.ID)

	r.Reconcile(nil)
	assert.Empty(t, r.Drawn())
	assert.Empty(t, s.Decorations())
}

func TestReconcile_SharedRangeDifferentKinds(t *testing.T) {
	s := loadedSurface(t)
	r := NewReconciler(s)
	token := render.RangeToken(0, 0, 6)
	h := annotation("h", token, "yellow")
	u := annotation("u", token, "blue")
	u.Type = entities.AnnotationKindUnderline

	r.Reconcile([]entities.Annotation{h, u})
	assert.Len(t, s.Decorations(), 2)

	r.Reconcile([]entities.Annotation{u})
	drawn := s.Decorations()
	require.Len(t, drawn, 1)
	assert.Equal(t, render.DecorationUnderline, drawn[0].Kind)
}

func TestReconcile_ConvergesOverRandomSequences(t *testing.T) {
	tokens := []string{
		render.RangeToken(0, 0, 6),
		render.RangeToken(0, 7, 10),
		render.RangeToken(1, 0, 4),
		render.RangeToken(1, 5, 10),
	}
	colors := Colors()

	for seed := int64(1); seed <= 25; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			s := loadedSurface(t)
			r := NewReconciler(s)

			var canonical []entities.Annotation
			next := 0
			for step := 0; step < 60; step++ {
				switch op := rng.Intn(3); {
				case op == 0 || len(canonical) == 0:
					a := annotation(fmt.Sprintf("n%03d", next), tokens[rng.Intn(len(tokens))], colors[rng.Intn(len(colors))])
					if rng.Intn(3) == 0 {
						a.Type = entities.AnnotationKindUnderline
					}
					next++
					canonical = append(canonical, a)
				case op == 1:
					i := rng.Intn(len(canonical))
					canonical = append(canonical[:i:i], canonical[i+1:]...)
				default:
					r.Reconcile(canonical)
				}
			}
			r.Reconcile(canonical)

			ids := make([]string, 0, len(canonical))
			owners := make(map[string]string)
			for _, a := range canonical {
				ids = append(ids, a.ID)
				owners[string(a.Kind())+"|"+a.CFIRange] = a.ID
			}
			sort.Strings(ids)
			assert.Equal(t, ids, r.Drawn())

			onSurface := make(map[string]string)
			for _, d := range s.Decorations() {
				onSurface[string(d.Kind)+"|"+d.Range] = d.Data.ID
			}
			assert.Equal(t, owners, onSurface)
		})
	}
}
