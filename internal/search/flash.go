package search

import (
	"log"
	"sync"
	"time"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/render"
)

// FlashClass is the class of the transient decoration over a chosen result.
const FlashClass = "search-result-highlight"

// DefaultFlashDuration is how long a flash stays drawn.
const DefaultFlashDuration = 3 * time.Second

// Decorator is the part of a surface the flasher draws on.
type Decorator interface {
	Display(token string) error
	AddDecoration(kind render.DecorationKind, rangeToken string, data render.DecorationData, style render.Style) error
	RemoveDecoration(rangeToken string, kind render.DecorationKind) error
}

var flashStyle = render.Style{Fill: "#ffeb3b", FillOpacity: 0.5, ClassName: FlashClass}

// Flasher navigates to a search result and marks it briefly. A new flash
// replaces the previous one.
type Flasher struct {
	surface  Decorator
	duration time.Duration

	mu      sync.Mutex
	current string
	timer   *time.Timer
}

func NewFlasher(surface Decorator, duration time.Duration) *Flasher {
	if duration <= 0 {
		duration = DefaultFlashDuration
	}
	return &Flasher{surface: surface, duration: duration}
}

// Flash displays token and draws the flash decoration over it.
func (f *Flasher) Flash(token string) error {
	if err := f.surface.Display(token); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearLocked()
	if err := f.surface.AddDecoration(render.DecorationMark, token, render.DecorationData{Type: FlashClass}, flashStyle); err != nil {
		log.Printf("[SEARCH] flash %s: %v", token, apperr.Render("add decoration", err))
		return nil
	}
	f.current = token
	f.timer = time.AfterFunc(f.duration, func() { f.expire(token) })
	return nil
}

func (f *Flasher) expire(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != token {
		return
	}
	f.clearLocked()
}

// Current returns the flashed token, empty when nothing is drawn.
func (f *Flasher) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Clear removes the flash now.
func (f *Flasher) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearLocked()
}

func (f *Flasher) clearLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.current == "" {
		return
	}
	if err := f.surface.RemoveDecoration(f.current, render.DecorationMark); err != nil {
		log.Printf("[SEARCH] clear flash: %v", apperr.Render("remove decoration", err))
	}
	f.current = ""
}
