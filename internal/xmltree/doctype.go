package xmltree

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"quot": `"`,
	"apos": "'",
}

type entityDecl struct {
	name  string
	value string
}

// parseDoctype reads a DOCTYPE directive body (without "<!" and ">") and
// returns its internal general entities. External identifiers, parameter
// entities and unparsed entities are refused outright.
func parseDoctype(dir string) ([]entityDecl, error) {
	sc := &dtdScanner{s: dir}
	if !sc.consume("DOCTYPE") {
		return nil, &SecurityError{Reason: "markup declaration outside DOCTYPE"}
	}
	sc.skipSpace()
	if sc.name() == "" {
		return nil, &SyntaxError{Reason: "DOCTYPE without a root name"}
	}
	sc.skipSpace()
	if sc.peekKeyword("SYSTEM") || sc.peekKeyword("PUBLIC") {
		return nil, &SecurityError{Reason: "external DTD reference"}
	}
	if sc.done() {
		return nil, nil
	}
	if !sc.consume("[") {
		return nil, &SyntaxError{Reason: "unexpected content in DOCTYPE"}
	}

	var decls []entityDecl
	for {
		sc.skipSpace()
		switch {
		case sc.done():
			return nil, &SyntaxError{Reason: "unterminated DOCTYPE internal subset"}
		case sc.consume("]"):
			sc.skipSpace()
			if !sc.done() {
				return nil, &SyntaxError{Reason: "unexpected content after DOCTYPE internal subset"}
			}
			return decls, nil
		case sc.peek("%"):
			return nil, &SecurityError{Reason: "parameter entity reference in DTD"}
		case sc.consume("<!--"):
			if !sc.skipPast("-->") {
				return nil, &SyntaxError{Reason: "unterminated comment in DOCTYPE"}
			}
		case sc.consume("<?"):
			if !sc.skipPast("?>") {
				return nil, &SyntaxError{Reason: "unterminated processing instruction in DOCTYPE"}
			}
		case sc.consume("<!ENTITY"):
			d, err := sc.entity()
			if err != nil {
				return nil, err
			}
			decls = append(decls, d)
		case sc.consume("<!"):
			if !sc.skipDecl() {
				return nil, &SyntaxError{Reason: "unterminated markup declaration"}
			}
		default:
			return nil, &SyntaxError{Reason: "unexpected content in DOCTYPE internal subset"}
		}
	}
}

type dtdScanner struct {
	s string
	i int
}

func (sc *dtdScanner) done() bool { return sc.i >= len(sc.s) }

func (sc *dtdScanner) peek(p string) bool { return strings.HasPrefix(sc.s[sc.i:], p) }

func (sc *dtdScanner) peekKeyword(k string) bool {
	if !sc.peek(k) {
		return false
	}
	rest := sc.s[sc.i+len(k):]
	return rest == "" || isSpace(rest[0]) || rest[0] == '"' || rest[0] == '\''
}

func (sc *dtdScanner) consume(p string) bool {
	if sc.peek(p) {
		sc.i += len(p)
		return true
	}
	return false
}

func (sc *dtdScanner) skipSpace() {
	for sc.i < len(sc.s) && isSpace(sc.s[sc.i]) {
		sc.i++
	}
}

func (sc *dtdScanner) skipPast(term string) bool {
	j := strings.Index(sc.s[sc.i:], term)
	if j < 0 {
		return false
	}
	sc.i += j + len(term)
	return true
}

// skipDecl skips an ELEMENT/ATTLIST/NOTATION declaration, honouring quotes.
func (sc *dtdScanner) skipDecl() bool {
	var quote byte
	for ; sc.i < len(sc.s); sc.i++ {
		c := sc.s[sc.i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			sc.i++
			return true
		}
	}
	return false
}

func (sc *dtdScanner) name() string {
	start := sc.i
	for sc.i < len(sc.s) {
		c := sc.s[sc.i]
		if isSpace(c) || c == '[' || c == '>' || c == '"' || c == '\'' || c == ';' {
			break
		}
		sc.i++
	}
	return sc.s[start:sc.i]
}

func (sc *dtdScanner) quoted() (string, bool) {
	if sc.done() {
		return "", false
	}
	q := sc.s[sc.i]
	if q != '"' && q != '\'' {
		return "", false
	}
	end := strings.IndexByte(sc.s[sc.i+1:], q)
	if end < 0 {
		return "", false
	}
	v := sc.s[sc.i+1 : sc.i+1+end]
	sc.i += end + 2
	return v, true
}

func (sc *dtdScanner) entity() (entityDecl, error) {
	sc.skipSpace()
	if sc.peek("%") {
		return entityDecl{}, &SecurityError{Reason: "parameter entity declaration"}
	}
	name := sc.name()
	if name == "" {
		return entityDecl{}, &SyntaxError{Reason: "entity declaration without a name"}
	}
	sc.skipSpace()
	if sc.peekKeyword("SYSTEM") || sc.peekKeyword("PUBLIC") {
		return entityDecl{}, &SecurityError{Reason: fmt.Sprintf("external entity %q", name)}
	}
	value, ok := sc.quoted()
	if !ok {
		return entityDecl{}, &SyntaxError{Reason: fmt.Sprintf("entity %q has no quoted value", name)}
	}
	sc.skipSpace()
	if sc.peekKeyword("NDATA") {
		return entityDecl{}, &SecurityError{Reason: fmt.Sprintf("unparsed entity %q", name)}
	}
	if !sc.consume(">") {
		return entityDecl{}, &SyntaxError{Reason: fmt.Sprintf("entity %q is not terminated", name)}
	}
	return entityDecl{name: name, value: value}, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// entityTable sizes every declared entity without building its expansion.
// Sizes saturate at limit+1 so a billion-laughs chain costs one pass over the
// declarations, not memory proportional to the expansion.
type entityTable struct {
	decls    map[string]string
	sizes    map[string]int64
	visiting map[string]bool
	expanded map[string]string
	limit    int64
}

func newEntityTable(decls []entityDecl, limit int64) *entityTable {
	t := &entityTable{
		decls:    make(map[string]string, len(decls)),
		sizes:    make(map[string]int64, len(decls)),
		visiting: make(map[string]bool),
		expanded: make(map[string]string),
		limit:    limit,
	}
	for _, d := range decls {
		// First declaration wins, as in XML.
		if _, dup := t.decls[d.name]; !dup {
			t.decls[d.name] = d.value
		}
	}
	return t
}

func (t *entityTable) size(name string) (int64, error) {
	if n, ok := t.sizes[name]; ok {
		return n, nil
	}
	value, ok := t.decls[name]
	if !ok {
		return 0, &SyntaxError{Reason: fmt.Sprintf("undefined entity %q", name)}
	}
	if t.visiting[name] {
		return 0, &SecurityError{Reason: fmt.Sprintf("recursive entity %q", name)}
	}
	t.visiting[name] = true
	defer delete(t.visiting, name)

	var total int64
	err := scanRefs(value, func(literal string) {
		total += int64(len(literal))
	}, func(ref string) error {
		n, err := t.refSize(ref)
		total += n
		return err
	})
	if err != nil {
		return 0, err
	}
	if total > t.limit {
		total = t.limit + 1
	}
	t.sizes[name] = total
	return total, nil
}

func (t *entityTable) refSize(ref string) (int64, error) {
	if strings.HasPrefix(ref, "#") {
		r, err := charRef(ref)
		if err != nil {
			return 0, err
		}
		return int64(utf8.RuneLen(r)), nil
	}
	if _, ok := predefinedEntities[ref]; ok {
		return 1, nil
	}
	return t.size(ref)
}

// expand builds the replacement text of name, reusing earlier expansions.
// Callers charge the materialized size before calling it.
func (t *entityTable) expand(name string) string {
	if v, ok := t.expanded[name]; ok {
		return v
	}
	var b strings.Builder
	_ = scanRefs(t.decls[name], func(literal string) {
		b.WriteString(literal)
	}, func(ref string) error {
		switch {
		case strings.HasPrefix(ref, "#"):
			r, _ := charRef(ref)
			b.WriteRune(r)
		case predefinedEntities[ref] != "":
			b.WriteString(predefinedEntities[ref])
		default:
			b.WriteString(t.expand(ref))
		}
		return nil
	})
	v := b.String()
	t.expanded[name] = v
	return v
}

// reach adds name and every declared entity it references to seen.
func (t *entityTable) reach(name string, seen map[string]bool) {
	if seen[name] {
		return
	}
	seen[name] = true
	_ = scanRefs(t.decls[name], func(string) {}, func(ref string) error {
		if _, ok := t.decls[ref]; ok && !strings.HasPrefix(ref, "#") {
			t.reach(ref, seen)
		}
		return nil
	})
}

// scanRefs splits s into literal runs and &ref; references.
func scanRefs(s string, literal func(string), ref func(string) error) error {
	for s != "" {
		amp := strings.IndexByte(s, '&')
		if amp < 0 {
			literal(s)
			return nil
		}
		if amp > 0 {
			literal(s[:amp])
		}
		semi := strings.IndexByte(s[amp:], ';')
		if semi < 0 {
			return &SyntaxError{Reason: "unterminated entity reference"}
		}
		if err := ref(s[amp+1 : amp+semi]); err != nil {
			return err
		}
		s = s[amp+semi+1:]
	}
	return nil
}

func charRef(ref string) (rune, error) {
	body := ref[1:]
	base := 10
	if strings.HasPrefix(body, "x") {
		body, base = body[1:], 16
	}
	n, err := strconv.ParseUint(body, base, 32)
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, &SyntaxError{Reason: fmt.Sprintf("invalid character reference &%s;", ref)}
	}
	return rune(n), nil
}

// resolveEntities sizes each declared entity, charges every reference found
// in the rest of the document against limit, and only then materialises the
// replacement texts of the entities the document uses. Everything built on
// the way, intermediate expansions included, is charged against the same
// limit, so unused declarations cost nothing.
func resolveEntities(decls []entityDecl, rest []byte, limit int64) (map[string]string, error) {
	if len(decls) == 0 {
		return nil, nil
	}
	table := newEntityTable(decls, limit)
	var (
		total int64
		used  []string
		seen  = make(map[string]bool, len(decls))
	)
	for _, d := range decls {
		name := d.name
		if seen[name] {
			continue
		}
		seen[name] = true
		n, err := table.size(name)
		if err != nil {
			return nil, err
		}
		if n > limit {
			return nil, &SecurityError{Reason: fmt.Sprintf("entity %q expands beyond %d bytes", name, limit)}
		}
		uses := int64(bytes.Count(rest, []byte("&"+name+";")))
		if uses == 0 {
			continue
		}
		if n > 0 && uses > (limit-total)/n {
			return nil, &SecurityError{Reason: fmt.Sprintf("entity expansion exceeds %d bytes", limit)}
		}
		total += uses * n
		used = append(used, name)
	}
	if len(used) == 0 {
		return nil, nil
	}

	reached := make(map[string]bool)
	for _, name := range used {
		table.reach(name, reached)
	}
	var materialized int64
	for name := range reached {
		materialized += table.sizes[name]
		if materialized > limit {
			return nil, &SecurityError{Reason: fmt.Sprintf("entity definitions expand beyond %d bytes", limit)}
		}
	}

	out := make(map[string]string, len(used))
	for _, name := range used {
		out[name] = table.expand(name)
	}
	return out, nil
}
