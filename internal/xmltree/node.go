// Package xmltree is a small ordered XML tree with a hardened decoder and a
// deterministic encoder.
//
// xmltree imports nothing internal. The timeline model keeps unrecognised
// elements as *Node values so that a parse -> edit -> write cycle carries them
// through untouched.
//
// Names are kept as written ("prefix:local"); namespaces are not resolved.
package xmltree

import "strings"

// Attr is one attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Node is an element, or a text node when Name is empty.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// Elem builds an element.
func Elem(name string, attrs ...Attr) *Node {
	return &Node{Name: name, Attrs: attrs}
}

// TextNode builds a text node.
func TextNode(s string) *Node {
	return &Node{Text: s}
}

// A is shorthand for an Attr literal.
func A(name, value string) Attr {
	return Attr{Name: name, Value: value}
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool { return n.Name == "" }

// Attr returns the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr replaces the named attribute in place or appends it.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr deletes the named attribute and reports whether it existed.
func (n *Node) RemoveAttr(name string) bool {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds children.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Elements returns the element children, skipping text.
func (n *Node) Elements() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first element child with the given name.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// InnerText concatenates all descendant text.
func (n *Node) InnerText() string {
	if n.IsText() {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.InnerText())
	}
	return b.String()
}

// Clone deep-copies n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, Text: n.Text}
	if n.Attrs != nil {
		c.Attrs = append([]Attr(nil), n.Attrs...)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return c
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func hasElementChild(n *Node) bool {
	for _, c := range n.Children {
		if !c.IsText() {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
