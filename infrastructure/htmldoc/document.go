// Package htmldoc is a DocumentProvider over static HTML. Frames are
// iframe/frame elements whose srcdoc attribute holds the nested document.
// Geometry comes from data-rect="x,y,width,height" attributes.
package htmldoc

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ui_automation/domain/entities"
)

// Document is one parsed frame document and its nested frames
type Document struct {
	root   *html.Node
	hosts  []*html.Node
	frames map[*html.Node]*Document
}

// Parse - parses r and every srcdoc frame below it
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return build(root)
}

// ParseString - parses an in-memory document
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile - parses the document stored at path
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func build(root *html.Node) (*Document, error) {
	doc := &Document{
		root:   root,
		frames: make(map[*html.Node]*Document),
	}
	var walkErr error
	walk(root, func(n *html.Node) bool {
		if !isFrameHost(n) {
			return true
		}
		child, err := Parse(strings.NewReader(attr(n, "srcdoc")))
		if err != nil {
			walkErr = err
			return false
		}
		doc.hosts = append(doc.hosts, n)
		doc.frames[n] = child
		// frame content lives in srcdoc, not in child nodes
		return false
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return doc, nil
}

// Root returns the document node
func (d *Document) Root() *html.Node {
	return d.root
}

func (d *Document) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

func isFrameHost(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Iframe || n.DataAtom == atom.Frame)
}

// walk visits n and its descendants in document order; visit returns
// false to skip a subtree.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// text returns the element's text with whitespace collapsed
func text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// parseRect reads a data-rect attribute: four numbers separated by commas
// or spaces. Elements without one sit at the origin with zero size.
func parseRect(n *html.Node) (entities.Rect, error) {
	raw := attr(n, "data-rect")
	if strings.TrimSpace(raw) == "" {
		return entities.Rect{}, nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 4 {
		return entities.Rect{}, fmt.Errorf("data-rect %q needs four numbers", raw)
	}
	var v [4]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return entities.Rect{}, fmt.Errorf("data-rect %q: %w", raw, err)
		}
		v[i] = x
	}
	return entities.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// hiddenSelf reports whether n itself is removed from rendering
func hiddenSelf(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if hasAttr(n, "hidden") {
		return true
	}
	if n.DataAtom == atom.Input && strings.EqualFold(attr(n, "type"), "hidden") {
		return true
	}
	style := strings.ToLower(strings.ReplaceAll(attr(n, "style"), " ", ""))
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}
