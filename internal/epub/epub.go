// Package epub reads the parts of an EPUB container the library needs:
// package metadata, the cover image and the spine as plain text.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

var (
	ErrNoContainer = errors.New("epub: META-INF/container.xml missing")
	ErrNoPackage   = errors.New("epub: no package document")
	ErrNoResource  = errors.New("epub: resource not found")
)

const containerPath = "META-INF/container.xml"

type container struct {
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

type packageDoc struct {
	Metadata struct {
		Titles   []string `xml:"title"`
		Creators []string `xml:"creator"`
		Metas    []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"metadata"`
	Manifest []ManifestItem `xml:"manifest>item"`
	Spine    []struct {
		IDRef  string `xml:"idref,attr"`
		Linear string `xml:"linear,attr"`
	} `xml:"spine>itemref"`
}

// ManifestItem is one resource declared by the package document.
type ManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// Book is an opened EPUB container.
type Book struct {
	zr      *zip.Reader
	files   map[string]*zip.File
	opfDir  string
	pkg     packageDoc
	byID    map[string]ManifestItem
	Title   string
	Author  string
	CoverID string
}

// Open parses the container and package document of data.
func Open(data []byte) (*Book, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("epub: open archive: %w", err)
	}

	b := &Book{zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		b.files[f.Name] = f
	}

	raw, err := b.read(containerPath)
	if err != nil {
		return nil, ErrNoContainer
	}
	var c container
	if err := xml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("epub: parse container: %w", err)
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return nil, ErrNoPackage
	}

	opfPath := c.Rootfiles[0].FullPath
	raw, err = b.read(opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPackage, opfPath)
	}
	if err := xml.Unmarshal(raw, &b.pkg); err != nil {
		return nil, fmt.Errorf("epub: parse package: %w", err)
	}

	b.opfDir = path.Dir(opfPath)
	b.byID = make(map[string]ManifestItem, len(b.pkg.Manifest))
	for _, item := range b.pkg.Manifest {
		b.byID[item.ID] = item
	}
	if len(b.pkg.Metadata.Titles) > 0 {
		b.Title = strings.TrimSpace(b.pkg.Metadata.Titles[0])
	}
	if len(b.pkg.Metadata.Creators) > 0 {
		b.Author = strings.TrimSpace(b.pkg.Metadata.Creators[0])
	}
	b.CoverID = b.findCover()

	return b, nil
}

// findCover prefers the EPUB 3 cover-image property and falls back to the
// EPUB 2 <meta name="cover"> convention.
func (b *Book) findCover() string {
	for _, item := range b.pkg.Manifest {
		for _, p := range strings.Fields(item.Properties) {
			if p == "cover-image" {
				return item.ID
			}
		}
	}
	for _, m := range b.pkg.Metadata.Metas {
		if m.Name == "cover" {
			if _, ok := b.byID[m.Content]; ok {
				return m.Content
			}
		}
	}
	return ""
}

// CoverPath returns the archive path of the cover image, or "".
func (b *Book) CoverPath() string {
	item, ok := b.byID[b.CoverID]
	if !ok {
		return ""
	}
	return b.resolve(item.Href)
}

// Resource returns the bytes and media type stored at archive path p.
func (b *Book) Resource(p string) ([]byte, string, error) {
	raw, err := b.read(p)
	if err != nil {
		return nil, "", err
	}
	mediaType := ""
	for _, item := range b.pkg.Manifest {
		if b.resolve(item.Href) == p {
			mediaType = item.MediaType
			break
		}
	}
	if mediaType == "" {
		mediaType = mime.TypeByExtension(path.Ext(p))
	}
	return raw, mediaType, nil
}

// Spine returns the linear reading order as manifest items.
func (b *Book) Spine() []ManifestItem {
	out := make([]ManifestItem, 0, len(b.pkg.Spine))
	for _, ref := range b.pkg.Spine {
		if ref.Linear == "no" {
			continue
		}
		if item, ok := b.byID[ref.IDRef]; ok {
			out = append(out, item)
		}
	}
	return out
}

// SectionSource returns the raw markup of a spine item.
func (b *Book) SectionSource(item ManifestItem) ([]byte, error) {
	return b.read(b.resolve(item.Href))
}

func (b *Book) resolve(href string) string {
	href, _, _ = strings.Cut(href, "#")
	if b.opfDir == "." || b.opfDir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(b.opfDir, href))
}

func (b *Book) read(name string) ([]byte, error) {
	f, ok := b.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoResource, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
