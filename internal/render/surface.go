// Package render defines the contract between the library engine and the
// component that paginates and draws a book. Position and range tokens
// are opaque to every caller; only the surface interprets them.
package render

// EventKind identifies a surface event.
type EventKind int

const (
	// EventSelected fires when the reader selects a range of text.
	EventSelected EventKind = iota + 1
	// EventDecorationClicked fires when the reader clicks a drawn decoration.
	EventDecorationClicked
	// EventLocationChanged fires after every navigation or relayout.
	EventLocationChanged
)

func (k EventKind) String() string {
	switch k {
	case EventSelected:
		return "selected"
	case EventDecorationClicked:
		return "decoration_clicked"
	case EventLocationChanged:
		return "location_changed"
	default:
		return "unknown"
	}
}

// DecorationKind is how a decoration is drawn.
type DecorationKind string

const (
	DecorationHighlight DecorationKind = "highlight"
	DecorationUnderline DecorationKind = "underline"
	// DecorationMark is for transient marks; annotations never use it.
	DecorationMark DecorationKind = "mark"
)

// Point is a screen position used to place transient menus.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DecorationData is attached to a decoration and echoed back on click.
type DecorationData struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Style describes how a decoration is painted.
type Style struct {
	Fill        string  `json:"fill"`
	FillOpacity float64 `json:"fillOpacity"`
	ClassName   string  `json:"className"`
}

// Event is delivered to surface subscribers.
type Event struct {
	Kind  EventKind
	Range string // Selected, DecorationClicked
	Text  string // Selected
	Data  DecorationData
	Token string // LocationChanged
	Point Point
}

// Position is the surface's current location.
type Position struct {
	Token    string
	Fraction float64 // 0..1 through the whole book
	Section  int
}

// Match is one search hit.
type Match struct {
	Token   string
	Excerpt string
}

// Section is one paginated section of the loaded book.
type Section interface {
	Index() int
	Label() string
	Find(query string) ([]Match, error)
}

// Surface is the rendering collaborator driven by the reading session.
type Surface interface {
	Load(content []byte, resumeAt string) error
	Unload()
	Subscribe(fn func(Event)) (unsubscribe func())

	AddDecoration(kind DecorationKind, rangeToken string, data DecorationData, style Style) error
	RemoveDecoration(rangeToken string, kind DecorationKind) error
	ResolveRangeText(rangeToken string) (string, error)

	CurrentPosition() Position
	Sections() []Section

	Display(token string) error
	Resize() error
	Next() error
	Prev() error
}

// Layout is the subset of reader settings that affects pagination.
type Layout struct {
	FontSize   int
	FontFamily string
	FontWeight int
	LineHeight float64
	Columns    int
}

// LayoutConfigurer is implemented by surfaces that accept layout settings.
type LayoutConfigurer interface {
	ApplyLayout(Layout) error
}
