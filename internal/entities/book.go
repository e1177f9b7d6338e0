package entities

// AnnotationKind selects how an annotation is drawn on the rendering surface.
type AnnotationKind string

const (
	AnnotationKindHighlight AnnotationKind = "highlight"
	AnnotationKindUnderline AnnotationKind = "underline"
)

// Valid reports whether k is a kind the surface can draw.
func (k AnnotationKind) Valid() bool {
	return k == AnnotationKindHighlight || k == AnnotationKindUnderline
}

// BookRecord is one entry of the library index. The JSON layout is also the
// layout of metadata.json inside a backup archive.
type BookRecord struct {
	Key         string       `json:"key"`
	Title       string       `json:"title"`
	Author      string       `json:"author"`
	AddedAt     int64        `json:"addedAt"`  // unix milliseconds
	Cover       *string      `json:"cover"`    // data URI or null
	Progress    *int         `json:"progress,omitempty"`
	Annotations []Annotation `json:"annotations"`
}

// ProgressValue returns the stored percentage, or 0 when never set.
func (b BookRecord) ProgressValue() int {
	if b.Progress == nil {
		return 0
	}
	return *b.Progress
}

// Clone returns a copy that shares no slices or pointers with b.
func (b BookRecord) Clone() BookRecord {
	out := b
	if b.Cover != nil {
		c := *b.Cover
		out.Cover = &c
	}
	if b.Progress != nil {
		p := *b.Progress
		out.Progress = &p
	}
	out.Annotations = make([]Annotation, len(b.Annotations))
	copy(out.Annotations, b.Annotations)
	return out
}

// FindAnnotation returns the annotation with id, if present.
func (b BookRecord) FindAnnotation(id string) (Annotation, bool) {
	for _, a := range b.Annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// Annotation is a user highlight anchored to an opaque range token.
type Annotation struct {
	ID       string         `json:"id"`
	CFIRange string         `json:"cfiRange"`
	Text     string         `json:"text"`
	Color    string         `json:"color"`
	Type     AnnotationKind `json:"type,omitempty"`
	Chapter  string         `json:"chapter,omitempty"`
	Created  int64          `json:"created"` // unix milliseconds
}

// Kind returns the drawing kind, defaulting to highlight.
func (a Annotation) Kind() AnnotationKind {
	if a.Type == "" {
		return AnnotationKindHighlight
	}
	return a.Type
}

// IntPtr is a helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}

// StringPtr is a helper for optional string fields.
func StringPtr(v string) *string {
	return &v
}
