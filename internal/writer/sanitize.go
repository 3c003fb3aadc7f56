package writer

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TextLimits caps free text written into the document, in characters.
type TextLimits struct {
	Name int
	Note int
	Role int
}

// DefaultTextLimits are the caps used when a field is zero.
var DefaultTextLimits = TextLimits{Name: 1024, Note: 4096, Role: 256}

func (l TextLimits) withDefaults() TextLimits {
	if l.Name <= 0 {
		l.Name = DefaultTextLimits.Name
	}
	if l.Note <= 0 {
		l.Note = DefaultTextLimits.Note
	}
	if l.Role <= 0 {
		l.Role = DefaultTextLimits.Role
	}
	return l
}

// SanitizeName cleans a single-line value: NUL and every control character
// are removed, the result is NFC normalized and cut to max characters.
func SanitizeName(s string, max int) string {
	return sanitize(s, max, false)
}

// SanitizeNote is SanitizeName for multi-line text: tab, newline and
// carriage return survive.
func SanitizeNote(s string, max int) string {
	return sanitize(s, max, true)
}

func sanitize(s string, max int, multiline bool) string {
	s = strings.ToValidUTF8(s, "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			if multiline {
				b.WriteRune(r)
			}
		case r < 0x20 || r == 0x7f:
		case r >= 0x80 && r < 0xa0:
		default:
			b.WriteRune(r)
		}
	}
	out := norm.NFC.String(b.String())
	if max > 0 && utf8.RuneCountInString(out) > max {
		runes := []rune(out)
		out = string(runes[:max])
	}
	return out
}
