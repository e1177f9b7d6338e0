package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotLoaded is returned by commands issued before Load or after Unload.
var ErrNotLoaded = errors.New("render: no book loaded")

// DefaultPageSize is the number of runes on one page at 100% font size in
// single column layout.
const DefaultPageSize = 1500

const excerptRadius = 75

// SectionText is plain text of one section as produced by a Loader.
type SectionText struct {
	Label string
	Text  string
}

// Loader converts book bytes into sections.
type Loader func(content []byte) ([]SectionText, error)

// DrawnDecoration describes a decoration currently on a TextSurface.
type DrawnDecoration struct {
	Kind  DecorationKind
	Range string
	Data  DecorationData
	Style Style
}

type decoKey struct {
	rangeToken string
	kind       DecorationKind
}

// TextSurface is an in-memory Surface over plain-text sections. Pages are
// fixed-size rune windows whose size follows the applied layout.
type TextSurface struct {
	loader   Loader
	basePage int

	mu          sync.Mutex
	sections    []*textSection
	starts      []int // global rune offset of each section
	total       int
	pageSize    int
	section     int
	offset      int
	decorations map[decoKey]DrawnDecoration

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewTextSurface creates a surface that decodes content with loader.
func NewTextSurface(loader Loader, pageSize int) *TextSurface {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &TextSurface{
		loader:   loader,
		basePage: pageSize,
		pageSize: pageSize,
		subs:     make(map[int]func(Event)),
	}
}

type textSection struct {
	index int
	label string
	runes []rune
}

func (s *textSection) Index() int    { return s.index }
func (s *textSection) Label() string { return s.label }

// Find returns every case-sensitive occurrence of query in the section.
func (s *textSection) Find(query string) ([]Match, error) {
	q := []rune(query)
	if len(q) == 0 {
		return nil, nil
	}
	var out []Match
	for i := 0; i+len(q) <= len(s.runes); i++ {
		if !hasRunesAt(s.runes, q, i) {
			continue
		}
		out = append(out, Match{
			Token:   rangeToken(s.index, i, i+len(q)),
			Excerpt: excerpt(s.runes, i, i+len(q)),
		})
		i += len(q) - 1
	}
	return out, nil
}

func hasRunesAt(text, q []rune, at int) bool {
	for j := range q {
		if text[at+j] != q[j] {
			return false
		}
	}
	return true
}

func excerpt(text []rune, start, end int) string {
	from := max(0, start-excerptRadius)
	to := min(len(text), max(end, start+excerptRadius))
	return strings.TrimSpace(strings.ReplaceAll(string(text[from:to]), "\n", " "))
}

// Load replaces the current content and displays resumeAt, or the start of
// the book when resumeAt is empty or does not resolve.
func (s *TextSurface) Load(content []byte, resumeAt string) error {
	texts, err := s.loader(content)
	if err != nil {
		return fmt.Errorf("render: load: %w", err)
	}
	if len(texts) == 0 {
		return errors.New("render: book has no sections")
	}

	s.mu.Lock()
	s.sections = make([]*textSection, len(texts))
	s.starts = make([]int, len(texts))
	s.total = 0
	for i, t := range texts {
		s.sections[i] = &textSection{index: i, label: t.Label, runes: []rune(t.Text)}
		s.starts[i] = s.total
		s.total += len(s.sections[i].runes)
	}
	s.decorations = make(map[decoKey]DrawnDecoration)
	s.section, s.offset = 0, 0
	if sec, off, err := parsePosition(resumeAt); err == nil && s.validPosition(sec, off) {
		s.section, s.offset = sec, off
	}
	s.snapLocked()
	token := positionToken(s.section, s.offset)
	s.mu.Unlock()

	s.emit(Event{Kind: EventLocationChanged, Token: token})
	return nil
}

// Unload drops the content and every decoration.
func (s *TextSurface) Unload() {
	s.mu.Lock()
	s.sections = nil
	s.starts = nil
	s.total = 0
	s.decorations = nil
	s.section, s.offset = 0, 0
	s.mu.Unlock()
}

// Loaded reports whether a book is currently loaded.
func (s *TextSurface) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sections != nil
}

func (s *TextSurface) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *TextSurface) emit(ev Event) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *TextSurface) AddDecoration(kind DecorationKind, token string, data DecorationData, style Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sections == nil {
		return ErrNotLoaded
	}
	if _, err := s.rangeLocked(token); err != nil {
		return err
	}
	s.decorations[decoKey{token, kind}] = DrawnDecoration{Kind: kind, Range: token, Data: data, Style: style}
	return nil
}

// RemoveDecoration removes the decoration of kind on token. Removing a
// decoration that is not drawn succeeds.
func (s *TextSurface) RemoveDecoration(token string, kind DecorationKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sections == nil {
		return ErrNotLoaded
	}
	delete(s.decorations, decoKey{token, kind})
	return nil
}

func (s *TextSurface) ResolveRangeText(token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sections == nil {
		return "", ErrNotLoaded
	}
	return s.rangeLocked(token)
}

func (s *TextSurface) rangeLocked(token string) (string, error) {
	sec, start, end, err := parseRange(token)
	if err != nil {
		return "", err
	}
	if sec < 0 || sec >= len(s.sections) || start < 0 || end > len(s.sections[sec].runes) {
		return "", fmt.Errorf("render: range %q out of bounds", token)
	}
	return string(s.sections[sec].runes[start:end]), nil
}

func (s *TextSurface) CurrentPosition() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sections == nil {
		return Position{}
	}
	return Position{
		Token:    positionToken(s.section, s.offset),
		Fraction: s.fractionLocked(),
		Section:  s.section,
	}
}

func (s *TextSurface) fractionLocked() float64 {
	if s.total == 0 {
		return 0
	}
	last := len(s.sections) - 1
	if s.section == last && s.offset+s.pageSize >= len(s.sections[last].runes) {
		return 1
	}
	return float64(s.starts[s.section]+s.offset) / float64(s.total)
}

func (s *TextSurface) Sections() []Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Section, len(s.sections))
	for i, sec := range s.sections {
		out[i] = sec
	}
	return out
}

// Display moves to the page containing token. A range token displays the
// page holding its start.
func (s *TextSurface) Display(token string) error {
	sec, off, err := parsePosition(token)
	if err != nil {
		var rerr error
		if sec, off, _, rerr = parseRange(token); rerr != nil {
			return err
		}
	}
	return s.move(func() error {
		if !s.validPosition(sec, off) {
			return fmt.Errorf("render: position %q out of bounds", token)
		}
		s.section, s.offset = sec, off
		return nil
	})
}

// Resize re-paginates at the current page size, keeping the page that
// holds the current offset.
func (s *TextSurface) Resize() error {
	return s.move(func() error { return nil })
}

func (s *TextSurface) Next() error {
	return s.move(func() error {
		if s.offset+s.pageSize < len(s.sections[s.section].runes) {
			s.offset += s.pageSize
		} else if s.section+1 < len(s.sections) {
			s.section++
			s.offset = 0
		}
		return nil
	})
}

func (s *TextSurface) Prev() error {
	return s.move(func() error {
		if s.offset > 0 {
			s.offset -= s.pageSize
		} else if s.section > 0 {
			s.section--
			s.offset = lastPageStart(len(s.sections[s.section].runes), s.pageSize)
		}
		return nil
	})
}

func (s *TextSurface) move(step func() error) error {
	s.mu.Lock()
	if s.sections == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if err := step(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.snapLocked()
	token := positionToken(s.section, s.offset)
	s.mu.Unlock()

	s.emit(Event{Kind: EventLocationChanged, Token: token})
	return nil
}

// ApplyLayout derives the page size from font size and column count.
func (s *TextSurface) ApplyLayout(l Layout) error {
	fontSize := l.FontSize
	if fontSize <= 0 {
		fontSize = 100
	}
	columns := l.Columns
	if columns <= 0 {
		columns = 1
	}
	size := s.basePage * 100 / fontSize * columns
	if size < 1 {
		size = 1
	}

	s.mu.Lock()
	s.pageSize = size
	s.mu.Unlock()
	return nil
}

// PageSize returns the current page size in runes.
func (s *TextSurface) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}

func (s *TextSurface) validPosition(sec, off int) bool {
	return sec >= 0 && sec < len(s.sections) && off >= 0 && off <= len(s.sections[sec].runes)
}

func (s *TextSurface) snapLocked() {
	n := len(s.sections[s.section].runes)
	if s.offset >= n {
		s.offset = lastPageStart(n, s.pageSize)
		return
	}
	s.offset -= s.offset % s.pageSize
}

func lastPageStart(n, pageSize int) int {
	if n == 0 {
		return 0
	}
	return (n - 1) / pageSize * pageSize
}

// Select simulates the reader selecting token.
func (s *TextSurface) Select(token string, p Point) error {
	text, err := s.ResolveRangeText(token)
	if err != nil {
		return err
	}
	s.emit(Event{Kind: EventSelected, Range: token, Text: text, Point: p})
	return nil
}

// Click simulates the reader clicking the decoration drawn on token.
func (s *TextSurface) Click(token string, p Point) error {
	s.mu.Lock()
	var found *DrawnDecoration
	for _, kind := range []DecorationKind{DecorationHighlight, DecorationUnderline} {
		if d, ok := s.decorations[decoKey{token, kind}]; ok {
			found = &d
			break
		}
	}
	s.mu.Unlock()

	if found == nil {
		return fmt.Errorf("render: no decoration on %q", token)
	}
	s.emit(Event{Kind: EventDecorationClicked, Range: token, Data: found.Data, Point: p})
	return nil
}

// Decorations lists what is currently drawn, ordered by range.
func (s *TextSurface) Decorations() []DrawnDecoration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DrawnDecoration, 0, len(s.decorations))
	for _, d := range s.decorations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range != out[j].Range {
			return out[i].Range < out[j].Range
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
