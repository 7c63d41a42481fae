// Package markdown converts Markdown content documents to HTML and splits
// off their front matter.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
	),
)

// Convert renders Markdown source as HTML. GitHub Flavored Markdown
// extensions (tables, strikethrough, autolinks, task lists) are enabled and
// headings get generated ids. Raw HTML in the source is passed through.
func Convert(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), nil
}

// Document is a Markdown file split into its front matter and body.
type Document struct {
	Matter map[string]any // Front matter fields; empty when there is none
	Body   []byte         // Markdown source after the front matter
}

// Parse splits data into front matter and body. YAML (---), TOML (+++) and
// JSON front matter are recognized. A file without front matter is all body.
func Parse(data []byte) (Document, error) {
	var matter map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &matter)
	if err != nil {
		return Document{}, fmt.Errorf("markdown: front matter: %w", err)
	}
	if matter == nil {
		matter = make(map[string]any)
	}
	return Document{Matter: matter, Body: body}, nil
}

// Render parses data and converts its body. The returned map holds the front
// matter fields plus the body HTML under key.
func Render(data []byte, key string) (map[string]any, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	html, err := Convert(doc.Body)
	if err != nil {
		return nil, err
	}
	doc.Matter[key] = html
	return doc.Matter, nil
}
