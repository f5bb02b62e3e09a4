// Package markdown renders tree listings to HTML and reads Markdown outlines
// back into trees, using Goldmark with GFM extensions and syntax highlighting.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/CageChen/foldertree/internal/tree"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Item prefixes written by tree.Display, without the list marker.
const (
	folderPrefix = "Folder:"
	filePrefix   = "File:"
)

// Parser handles markdown parsing with goldmark
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a new markdown parser with extensions
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &Parser{md: md}
}

// Render converts markdown source to HTML.
func (p *Parser) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := p.md.Convert(source, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseOutline reads a nested Markdown list of "Folder: <name>" and
// "File: <name>" items, the format tree.Display and Outline write, back
// into a tree. Names are unescaped.
// The outline must contain exactly one top-level item and it must be a
// folder. Other top-level blocks are ignored.
func (p *Parser) ParseOutline(source []byte) (*tree.Folder, error) {
	doc := p.md.Parser().Parse(text.NewReader(source))

	var items []*ast.ListItem
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if list, ok := n.(*ast.List); ok {
			items = append(items, listItems(list)...)
		}
	}
	if len(items) != 1 {
		return nil, fmt.Errorf("outline must have exactly one top-level item, got %d", len(items))
	}

	root, err := p.item(items[0], source)
	if err != nil {
		return nil, err
	}
	folder, ok := root.(*tree.Folder)
	if !ok {
		return nil, fmt.Errorf("top-level item %q: %w", root.Name(), tree.ErrNotFolder)
	}
	return folder, nil
}

func listItems(list *ast.List) []*ast.ListItem {
	var items []*ast.ListItem
	for n := list.FirstChild(); n != nil; n = n.NextSibling() {
		if item, ok := n.(*ast.ListItem); ok {
			items = append(items, item)
		}
	}
	return items
}

// item converts a list item and its nested lists into a Component.
func (p *Parser) item(li *ast.ListItem, source []byte) (tree.Component, error) {
	var label string
	var nested []*ast.ListItem
	for n := li.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *ast.List:
			nested = append(nested, listItems(v)...)
		case *ast.TextBlock, *ast.Paragraph:
			if label == "" {
				label = blockText(v, source)
			}
		}
	}

	switch {
	case strings.HasPrefix(label, folderPrefix):
		folder := tree.NewFolder(labelName(label, folderPrefix))
		for _, child := range nested {
			c, err := p.item(child, source)
			if err != nil {
				return nil, err
			}
			folder.Add(c)
		}
		return folder, nil
	case strings.HasPrefix(label, filePrefix):
		name := labelName(label, filePrefix)
		if len(nested) > 0 {
			return nil, fmt.Errorf("file %q has children: %w", name, tree.ErrNotFolder)
		}
		return tree.NewFile(name), nil
	}
	return nil, fmt.Errorf("item %q: %w", label, tree.ErrUnknownType)
}

// labelName strips prefix and the one space after it, then unescapes.
func labelName(label, prefix string) string {
	rest := strings.TrimPrefix(label, prefix)
	return Unescape(strings.TrimPrefix(rest, " "))
}

// blockText returns the raw source lines of a block without the final
// line break.
func blockText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return strings.TrimRight(buf.String(), "\r\n")
}
