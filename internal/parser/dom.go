package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is the tree query capability the extraction rules need. Find and
// Children return matches in document order.
type Node interface {
	Find(selector string) []Node
	Children(selector string) []Node
	Text() string
	HasClass(class string) bool
	Attr(name string) (string, bool)
}

// Parse reads markup into a queryable document node.
func Parse(markup []byte) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return selection{doc.Selection}, nil
}

func parseFragment(markup string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return selection{doc.Selection}, nil
}

type selection struct {
	sel *goquery.Selection
}

func (s selection) Find(selector string) []Node {
	return wrap(s.sel.Find(selector))
}

func (s selection) Children(selector string) []Node {
	return wrap(s.sel.ChildrenFiltered(selector))
}

func (s selection) Text() string {
	var b strings.Builder
	for _, n := range s.sel.Nodes {
		collectText(&b, n)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (s selection) HasClass(class string) bool {
	return s.sel.HasClass(class)
}

func (s selection) Attr(name string) (string, bool) {
	return s.sel.Attr(name)
}

func wrap(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, item *goquery.Selection) {
		nodes = append(nodes, selection{item})
	})
	return nodes
}

// collectText appends the text of n, separating block-level boundaries and
// line breaks with a space so adjacent cells never run together.
func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	breaks := n.Type == html.ElementNode && isBreaking(n.DataAtom)
	if breaks {
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if breaks {
		b.WriteByte(' ')
	}
}

func isBreaking(a atom.Atom) bool {
	switch a {
	case atom.Br, atom.Div, atom.P, atom.Td, atom.Th, atom.Tr, atom.Li, atom.Table:
		return true
	default:
		return false
	}
}

func first(nodes []Node) Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
