// Package annotations keeps highlights drawn on a rendering surface in step
// with the library index, and turns reader selections into annotations.
package annotations

import (
	"sort"
	"strings"

	"github.com/mrlokans/bookshelf/internal/render"
)

// DefaultColor is used for new annotations and for stored colors the
// palette does not know.
const DefaultColor = "yellow"

const fillOpacity = 0.3

var palette = map[string]string{
	"yellow": "#cfbd4d",
	"green":  "#4dcf85",
	"blue":   "#4da8cf",
	"pink":   "#cf4d97",
}

// Colors returns the palette ids in display order.
func Colors() []string {
	return []string{"yellow", "green", "blue", "pink"}
}

// Fill returns the hex fill of a palette id.
func Fill(color string) (string, bool) {
	fill, ok := palette[color]
	return fill, ok
}

// ValidColor reports whether color is a palette id.
func ValidColor(color string) bool {
	_, ok := palette[color]
	return ok
}

// NormalizeColor maps a stored color onto the palette. Palette ids are
// returned as is. A raw hex value equal to a palette fill maps to that
// id; anything else maps to DefaultColor.
func NormalizeColor(color string) (normalized string, changed bool) {
	if ValidColor(color) {
		return color, false
	}
	if strings.HasPrefix(color, "#") {
		ids := make([]string, 0, len(palette))
		for id := range palette {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if strings.EqualFold(palette[id], color) {
				return id, true
			}
		}
	}
	return DefaultColor, true
}

// StyleFor returns the decoration style of a palette id.
func StyleFor(color string) render.Style {
	fill, ok := palette[color]
	if !ok {
		color = DefaultColor
		fill = palette[DefaultColor]
	}
	return render.Style{
		Fill:        fill,
		FillOpacity: fillOpacity,
		ClassName:   "highlight-" + color,
	}
}
