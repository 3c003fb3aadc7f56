package ir

import "github.com/roach88/spine/internal/xmltree"

// Opaque carries the attributes and child elements the model does not
// interpret, in document order.
type Opaque struct {
	Attrs    []xmltree.Attr
	Children []*xmltree.Node
}

// Attr returns an opaque attribute.
func (o *Opaque) Attr(name string) (string, bool) {
	for _, a := range o.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr replaces or appends an opaque attribute.
func (o *Opaque) SetAttr(name, value string) {
	for i := range o.Attrs {
		if o.Attrs[i].Name == name {
			o.Attrs[i].Value = value
			return
		}
	}
	o.Attrs = append(o.Attrs, xmltree.Attr{Name: name, Value: value})
}

// RemoveAttr deletes an opaque attribute.
func (o *Opaque) RemoveAttr(name string) bool {
	for i := range o.Attrs {
		if o.Attrs[i].Name == name {
			o.Attrs = append(o.Attrs[:i], o.Attrs[i+1:]...)
			return true
		}
	}
	return false
}

// ChildrenNamed returns the opaque children with the given element name.
func (o *Opaque) ChildrenNamed(name string) []*xmltree.Node {
	var out []*xmltree.Node
	for _, c := range o.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Clone deep-copies the bag.
func (o Opaque) Clone() Opaque {
	var c Opaque
	if o.Attrs != nil {
		c.Attrs = append([]xmltree.Attr(nil), o.Attrs...)
	}
	if o.Children != nil {
		c.Children = make([]*xmltree.Node, len(o.Children))
		for i, n := range o.Children {
			c.Children[i] = n.Clone()
		}
	}
	return c
}
