package epub

import (
	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/render"
)

// Parser extracts library metadata and resources from EPUB bytes.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse implements library.DocumentParser. The cover locator is the
// archive path of the cover image.
func (p *Parser) Parse(data []byte) (library.DocumentMetadata, error) {
	b, err := Open(data)
	if err != nil {
		return library.DocumentMetadata{}, err
	}
	return library.DocumentMetadata{
		Title:        b.Title,
		Author:       b.Author,
		CoverLocator: b.CoverPath(),
	}, nil
}

// ReadResource returns the bytes and media type of the resource at path.
func (p *Parser) ReadResource(data []byte, path string) ([]byte, string, error) {
	b, err := Open(data)
	if err != nil {
		return nil, "", err
	}
	return b.Resource(path)
}

// SurfaceLoader adapts Sections to render.Loader.
func SurfaceLoader(data []byte) ([]render.SectionText, error) {
	sections, err := Sections(data)
	if err != nil {
		return nil, err
	}
	out := make([]render.SectionText, len(sections))
	for i, s := range sections {
		out[i] = render.SectionText{Label: s.Label, Text: s.Text}
	}
	return out, nil
}
