package xmltree

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// EncodeOptions controls the document prologue and layout.
type EncodeOptions struct {
	// Doctype, when set, is written as <!DOCTYPE Doctype>.
	Doctype string
	// Indent defaults to four spaces.
	Indent string
	// OmitDeclaration skips the <?xml ...?> line.
	OmitDeclaration bool
}

// Marshal encodes root into a byte slice.
func Marshal(root *Node, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes root as an indented document. Output is a pure function of
// the tree: attribute order and child order are written as stored.
// Elements holding non-blank text are written inline so that text survives
// byte for byte.
func Encode(w io.Writer, root *Node, opts EncodeOptions) error {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	bw := bufio.NewWriter(w)
	if !opts.OmitDeclaration {
		bw.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	}
	if opts.Doctype != "" {
		bw.WriteString("<!DOCTYPE " + opts.Doctype + ">\n")
	}
	e := &encoder{w: bw, indent: opts.Indent}
	e.node(root, 0, true)
	bw.WriteByte('\n')
	return bw.Flush()
}

type encoder struct {
	w      *bufio.Writer
	indent string
}

func (e *encoder) node(n *Node, depth int, pretty bool) {
	if n.IsText() {
		escapeText(e.w, n.Text)
		return
	}
	e.w.WriteByte('<')
	e.w.WriteString(n.Name)
	for _, a := range n.Attrs {
		e.w.WriteByte(' ')
		e.w.WriteString(a.Name)
		e.w.WriteString(`="`)
		escapeAttr(e.w, a.Value)
		e.w.WriteByte('"')
	}
	if len(n.Children) == 0 {
		e.w.WriteString("/>")
		return
	}
	e.w.WriteByte('>')

	if pretty && hasElementChild(n) && !hasText(n) {
		for _, c := range n.Children {
			e.w.WriteByte('\n')
			e.w.WriteString(strings.Repeat(e.indent, depth+1))
			e.node(c, depth+1, true)
		}
		e.w.WriteByte('\n')
		e.w.WriteString(strings.Repeat(e.indent, depth))
	} else {
		for _, c := range n.Children {
			e.node(c, depth+1, false)
		}
	}
	e.w.WriteString("</")
	e.w.WriteString(n.Name)
	e.w.WriteByte('>')
}

func hasText(n *Node) bool {
	for _, c := range n.Children {
		if c.IsText() && !isBlank(c.Text) {
			return true
		}
	}
	return false
}

func escapeAttr(w *bufio.Writer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '>':
			w.WriteString("&gt;")
		case '"':
			w.WriteString("&quot;")
		case '\t':
			w.WriteString("&#9;")
		case '\n':
			w.WriteString("&#10;")
		case '\r':
			w.WriteString("&#13;")
		default:
			w.WriteRune(r)
		}
	}
}

func escapeText(w *bufio.Writer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '>':
			w.WriteString("&gt;")
		case '\r':
			w.WriteString("&#13;")
		default:
			w.WriteRune(r)
		}
	}
}
