// Package render is the bootstrap's rendering collaborator: a small,
// deterministic HTML renderer with hydration over a mount target.
//
// The production rendering library sits behind the bootstrap.Renderer
// interface; this package is the reference implementation the bootstrap
// and its tests run against. Output is deterministic: equal trees render
// to byte-identical markup.
package render

import (
	"sort"
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <a>, etc.
	KindText                // plain text node
)

// Node is a node in the tree handed to the renderer.
type Node struct {
	Kind     Kind
	Tag      string            // element tag name
	Attrs    map[string]string // element attributes
	Children []*Node
	Text     string // for KindText
}

// Element creates an element node.
func Element(tag string, attrs map[string]string, children ...*Node) *Node {
	return &Node{Kind: KindElement, Tag: tag, Attrs: attrs, Children: children}
}

// Text creates a text node.
func Text(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// voidTags render without a closing tag.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HTML renders the node tree to markup. Attributes are emitted in sorted
// order so equal trees produce identical output.
func (n *Node) HTML() string {
	var b strings.Builder
	n.writeHTML(&b)
	return b.String()
}

func (n *Node) writeHTML(b *strings.Builder) {
	if n == nil {
		return
	}

	if n.Kind == KindText {
		b.WriteString(EscapeText(n.Text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.Tag)

	if len(n.Attrs) > 0 {
		keys := make([]string, 0, len(n.Attrs))
		for k := range n.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte(' ')
			b.WriteString(k)
			b.WriteString(`="`)
			b.WriteString(EscapeAttr(n.Attrs[k]))
			b.WriteByte('"')
		}
	}
	b.WriteByte('>')

	if voidTags[n.Tag] {
		return
	}

	for _, child := range n.Children {
		child.writeHTML(b)
	}

	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
