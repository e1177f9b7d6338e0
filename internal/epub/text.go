package epub

import (
	"bytes"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// TextSection is one spine item reduced to plain text.
type TextSection struct {
	Href  string
	Label string
	Text  string
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true, "pre": true,
}

var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true,
}

// Sections returns every linear spine item of data as plain text. Items
// that cannot be read are returned with empty text.
func Sections(data []byte) ([]TextSection, error) {
	b, err := Open(data)
	if err != nil {
		return nil, err
	}
	spine := b.Spine()
	out := make([]TextSection, 0, len(spine))
	for _, item := range spine {
		src, err := b.SectionSource(item)
		if err != nil {
			out = append(out, TextSection{Href: item.Href})
			continue
		}
		label, text := ExtractText(src)
		out = append(out, TextSection{Href: item.Href, Label: label, Text: text})
	}
	return out, nil
}

// ExtractText flattens XHTML to text. The label is the first heading, or
// the document title when there is none. Malformed markup is tokenized
// leniently to the end of the document.
func ExtractText(src []byte) (label, text string) {
	z := html.NewTokenizer(bytes.NewReader(src))

	var (
		sb       strings.Builder
		title    strings.Builder
		heading  strings.Builder
		skip     int
		inTitle  bool
		inHead   int
		gotLabel bool
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			raw, _ := z.TagName()
			name := strings.ToLower(string(raw))
			if blockElements[name] {
				sb.WriteByte('\n')
			}
			if tt == html.SelfClosingTagToken {
				continue
			}
			if name == "title" {
				inTitle = true
			}
			if skippedElements[name] {
				skip++
			}
			if !gotLabel && isLabelHeading(name) {
				inHead++
			}
		case html.EndTagToken:
			raw, _ := z.TagName()
			name := strings.ToLower(string(raw))
			if name == "title" {
				inTitle = false
			}
			if skippedElements[name] && skip > 0 {
				skip--
			}
			if inHead > 0 && isLabelHeading(name) {
				inHead--
				if inHead == 0 && strings.TrimSpace(heading.String()) != "" {
					gotLabel = true
				}
			}
			if blockElements[name] {
				sb.WriteByte('\n')
			}
		case html.TextToken:
			t := z.Text()
			if inTitle {
				title.Write(t)
			}
			if skip > 0 {
				continue
			}
			if inHead > 0 {
				heading.Write(t)
			}
			sb.Write(t)
		}
	}

	label = collapse(heading.String())
	if label == "" {
		label = collapse(title.String())
	}
	return label, normalize(sb.String())
}

func isLabelHeading(name string) bool {
	return name == "h1" || name == "h2" || name == "h3"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalize collapses runs of spaces inside lines and drops blank lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
