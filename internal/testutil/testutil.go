// Package testutil provides shared test helpers for building EPUB fixtures
// and opening throwaway databases.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrlokans/bookshelf/internal/database"
)

// Chapter is one spine item of a fixture book. Paragraphs are separated by
// blank lines.
type Chapter struct {
	Title string
	Body  string
}

// EPUB describes a fixture book.
type EPUB struct {
	Title    string
	Author   string
	Cover    []byte // PNG bytes, optional
	Chapters []Chapter
}

// PNG is a minimal valid 1x1 image.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// BuildEPUB assembles e into EPUB bytes.
func BuildEPUB(t testing.TB, e EPUB) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	write("mimetype", "application/epub+zip")
	write("META-INF/container.xml", containerXML)

	var manifest, spine, meta strings.Builder
	for i, ch := range e.Chapters {
		id := fmt.Sprintf("ch%d", i+1)
		fmt.Fprintf(&manifest, `<item id="%s" href="text/%s.xhtml" media-type="application/xhtml+xml"/>`+"\n", id, id)
		fmt.Fprintf(&spine, `<itemref idref="%s"/>`+"\n", id)
		write("OEBPS/text/"+id+".xhtml", chapterXHTML(ch))
	}
	if len(e.Cover) > 0 {
		manifest.WriteString(`<item id="cover-img" href="images/cover.png" media-type="image/png"/>` + "\n")
		meta.WriteString(`<meta name="cover" content="cover-img"/>`)
		w, err := zw.Create("OEBPS/images/cover.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(e.Cover); err != nil {
			t.Fatal(err)
		}
	}

	var dc strings.Builder
	if e.Title != "" {
		fmt.Fprintf(&dc, "<dc:title>%s</dc:title>\n", html.EscapeString(e.Title))
	}
	if e.Author != "" {
		fmt.Fprintf(&dc, "<dc:creator>%s</dc:creator>\n", html.EscapeString(e.Author))
	}

	write("OEBPS/content.opf", fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
%s%s
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`, dc.String(), meta.String(), manifest.String(), spine.String()))

	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func chapterXHTML(ch Chapter) string {
	var body strings.Builder
	if ch.Title != "" {
		fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(ch.Title))
	}
	for _, p := range strings.Split(ch.Body, "\n\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(p))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title><style>p { margin: 0 }</style></head>
<body>
%s</body>
</html>`, html.EscapeString(ch.Title), body.String())
}

// Alice returns a small two chapter fixture.
func Alice(t testing.TB) []byte {
	return BuildEPUB(t, EPUB{
		Title:  "Alice's Adventures in Wonderland",
		Author: "Lewis Carroll",
		Chapters: []Chapter{
			{Title: "Down the Rabbit-Hole", Body: "Alice was beginning to get very tired of sitting by her sister on the bank.\n\nSo she was considering in her own mind whether the pleasure of making a daisy-chain would be worth the trouble."},
			{Title: "The Pool of Tears", Body: "Curiouser and curiouser! cried Alice.\n\nShe was so much surprised that for the moment she quite forgot how to speak good English."},
		},
	})
}

// TestDatabase opens a quiet database under t.TempDir.
func TestDatabase(t testing.TB) *database.Database {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "bookshelf.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
