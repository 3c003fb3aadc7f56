package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Limits bounds what the decoder will accept from untrusted input.
type Limits struct {
	// MaxBytes is the document size ceiling, checked before tokenizing.
	MaxBytes int64
	// MaxDepth caps element nesting.
	MaxDepth int
	// MaxEntityBytes caps the total bytes produced by internal entity
	// references across the whole document.
	MaxEntityBytes int64
	// ExpansionRatio further caps entity output at ratio x input size.
	// Zero disables the ratio check.
	ExpansionRatio int64
}

// DefaultLimits returns the engine defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:       50 << 20,
		MaxDepth:       256,
		MaxEntityBytes: 64 << 10,
		ExpansionRatio: 4,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxBytes <= 0 {
		l.MaxBytes = def.MaxBytes
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxEntityBytes < 0 {
		l.MaxEntityBytes = 0
	}
	return l
}

func (l Limits) entityLimit(inputSize int) int64 {
	limit := l.MaxEntityBytes
	if l.ExpansionRatio > 0 {
		if r := l.ExpansionRatio * int64(inputSize); r < limit {
			limit = r
		}
	}
	return limit
}

// ParseReader reads at most lim.MaxBytes+1 bytes from r and parses them.
func ParseReader(r io.Reader, lim Limits) (*Node, error) {
	lim = lim.withDefaults()
	data, err := io.ReadAll(io.LimitReader(r, lim.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if int64(len(data)) > lim.MaxBytes {
		return nil, &SizeError{Size: -1, Limit: lim.MaxBytes}
	}
	return Parse(data, lim)
}

// Parse decodes data into a tree.
//
// Defenses, in order: the size ceiling is checked before any tokenizing; a
// DOCTYPE naming an external DTD, declaring parameter, external or unparsed
// entities is a SecurityError; internal entities are sized without expansion
// and every reference in the document is charged against the entity budget
// before the decoder is allowed to expand them; nesting is capped at MaxDepth;
// non-UTF-8 encodings are refused.
func Parse(data []byte, lim Limits) (*Node, error) {
	lim = lim.withDefaults()
	if int64(len(data)) > lim.MaxBytes {
		return nil, &SizeError{Size: int64(len(data)), Limit: lim.MaxBytes}
	}

	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.CharsetReader = func(label string, _ io.Reader) (io.Reader, error) {
		return nil, &SyntaxError{Reason: fmt.Sprintf("unsupported encoding %q", label)}
	}

	var (
		root       *Node
		stack      []*Node
		sawDoctype bool
	)
	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, syntaxError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) >= lim.MaxDepth {
				return nil, &SecurityError{Reason: fmt.Sprintf("elements nested deeper than %d", lim.MaxDepth)}
			}
			n := &Node{Name: qname(t.Name)}
			if len(t.Attr) > 0 {
				n.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					n.Attrs[i] = Attr{Name: qname(a.Name), Value: a.Value}
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &SyntaxError{Reason: "more than one root element"}
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := qname(t.Name)
			if len(stack) == 0 || stack[len(stack)-1].Name != name {
				return nil, &SyntaxError{Reason: fmt.Sprintf("unexpected end element </%s>", name)}
			}
			trimLayout(stack[len(stack)-1])
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if !isBlank(string(t)) {
					return nil, &SyntaxError{Reason: "text outside the root element"}
				}
				continue
			}
			appendText(stack[len(stack)-1], string(t))

		case xml.Directive:
			if root != nil || sawDoctype {
				return nil, &SecurityError{Reason: "unexpected markup declaration"}
			}
			sawDoctype = true
			decls, err := parseDoctype(string(t))
			if err != nil {
				return nil, err
			}
			entities, err := resolveEntities(decls, data[d.InputOffset():], lim.entityLimit(len(data)))
			if err != nil {
				return nil, err
			}
			d.Entity = entities
		}
	}

	if len(stack) > 0 {
		return nil, &SyntaxError{Reason: fmt.Sprintf("element <%s> is not closed", stack[len(stack)-1].Name)}
	}
	if root == nil {
		return nil, &SyntaxError{Reason: "no root element"}
	}
	return root, nil
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func appendText(n *Node, s string) {
	if k := len(n.Children); k > 0 && n.Children[k-1].IsText() {
		n.Children[k-1].Text += s
		return
	}
	n.Children = append(n.Children, TextNode(s))
}

// trimLayout drops indentation-only text between element children.
func trimLayout(n *Node) {
	if !hasElementChild(n) {
		return
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.IsText() && isBlank(c.Text) {
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

func syntaxError(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Line: se.Line, Reason: se.Msg}
	}
	var own *SyntaxError
	if errors.As(err, &own) {
		return own
	}
	return &SyntaxError{Reason: err.Error()}
}
