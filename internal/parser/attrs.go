package parser

import (
	"strconv"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// attrReader consumes the attributes a model type interprets and leaves
// the rest, in document order, for the Opaque bag. The first failure sticks.
type attrReader struct {
	node    *xmltree.Node
	subject string
	used    map[string]bool
	err     error
}

func readAttrs(n *xmltree.Node, subject string) *attrReader {
	return &attrReader{node: n, subject: subject, used: make(map[string]bool)}
}

func (r *attrReader) str(name string) string {
	v, _ := r.lookup(name)
	return v
}

func (r *attrReader) lookup(name string) (string, bool) {
	r.used[name] = true
	return r.node.Attr(name)
}

func (r *attrReader) time(name string) rational.TimeValue {
	v, _ := r.timeOK(name)
	return v
}

func (r *attrReader) timeOK(name string) (rational.TimeValue, bool) {
	s, ok := r.lookup(name)
	if !ok || r.err != nil {
		return rational.Zero, false
	}
	t, err := rational.Parse(s)
	if err != nil {
		r.err = &ir.Error{
			Kind:    ir.KindOf(err),
			Message: "invalid " + name + " on <" + r.node.Name + ">: " + err.Error(),
			Subject: r.subject,
			Err:     err,
		}
		return rational.Zero, false
	}
	return t, true
}

func (r *attrReader) int(name string) int {
	s, ok := r.lookup(name)
	if !ok || r.err != nil {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.err = ir.Formatf("invalid %s %q on <%s>", name, s, r.node.Name).WithSubject(r.subject)
		return 0
	}
	return n
}

func (r *attrReader) bool01(name string) bool {
	return r.str(name) == "1"
}

// rest returns the attributes not consumed, in document order.
func (r *attrReader) rest() []xmltree.Attr {
	var out []xmltree.Attr
	for _, a := range r.node.Attrs {
		if !r.used[a.Name] {
			out = append(out, a)
		}
	}
	return out
}

// subjectOf picks a human label for error messages: name, then id, then tag.
func subjectOf(n *xmltree.Node) string {
	if v, ok := n.Attr("name"); ok && v != "" {
		return v
	}
	if v, ok := n.Attr("id"); ok && v != "" {
		return v
	}
	return "<" + n.Name + ">"
}
