package entities

// PageView selects one or two columns of text.
type PageView string

const (
	PageViewSingle PageView = "single"
	PageViewDouble PageView = "double"
)

// Themes the reader knows how to render.
var Themes = []string{
	"light", "dark", "sepia", "night-blue", "forest",
	"solarized-light", "solarized-dark", "nord", "paper", "lavender",
}

// Languages with translated UI strings.
var Languages = []string{"en", "es", "de", "zh", "ja"}

// ReaderSettings is the display configuration stored in the settings table
// and carried verbatim in backup archives.
type ReaderSettings struct {
	Theme      string   `json:"theme"`
	FontSize   int      `json:"fontSize"` // percent
	FontFamily string   `json:"fontFamily"`
	FontWeight int      `json:"fontWeight"`
	LineHeight float64  `json:"lineHeight"`
	PageView   PageView `json:"pageView"`
	Language   string   `json:"language"`
}

// DefaultReaderSettings returns the settings of a fresh install.
func DefaultReaderSettings() ReaderSettings {
	return ReaderSettings{
		Theme:      "light",
		FontSize:   100,
		FontFamily: "Helvetica, Arial, sans-serif",
		FontWeight: 400,
		LineHeight: 1.5,
		PageView:   PageViewDouble,
		Language:   "en",
	}
}

// LayoutDiffers reports whether switching from s to other changes text
// layout (and therefore requires a relayout of the open book).
func (s ReaderSettings) LayoutDiffers(other ReaderSettings) bool {
	return s.FontSize != other.FontSize ||
		s.FontFamily != other.FontFamily ||
		s.FontWeight != other.FontWeight ||
		s.LineHeight != other.LineHeight ||
		s.PageView != other.PageView
}
