package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// MarkerKind is the closed set of marker variants.
type MarkerKind int

const (
	MarkerStandard MarkerKind = iota
	MarkerChapter
	MarkerTodo
	MarkerCompleted
)

// Element names for markers.
const (
	TagMarker        = "marker"
	TagChapterMarker = "chapter-marker"
)

var markerKindNames = [...]string{"standard", "chapter", "todo", "completed"}

func (k MarkerKind) String() string {
	if k < 0 || int(k) >= len(markerKindNames) {
		return fmt.Sprintf("MarkerKind(%d)", int(k))
	}
	return markerKindNames[k]
}

// MarshalText writes the kind's name.
func (k MarkerKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid marker kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// Valid reports whether k is one of the four variants.
func (k MarkerKind) Valid() bool {
	return k >= MarkerStandard && k <= MarkerCompleted
}

// ParseMarkerKind reads a caller-supplied kind name ("chapter", "todo", ...).
// This is for operator input only; document markers go through ClassifyMarker.
func ParseMarkerKind(s string) (MarkerKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "marker":
		return MarkerStandard, nil
	case "chapter", "chapter-marker":
		return MarkerChapter, nil
	case "todo", "to-do":
		return MarkerTodo, nil
	case "completed", "done":
		return MarkerCompleted, nil
	}
	return MarkerStandard, Formatf("unknown marker kind %q", s)
}

// ClassifyMarker is the one classification rule for markers, shared by the
// parser and the writer. Priority:
//  1. the chapter-marker element is always Chapter;
//  2. completed == "0" is Todo, completed == "1" is Completed;
//  3. everything else is Standard.
//
// Matching is exact: " 1", "true" or "01" are Standard.
func ClassifyMarker(tag, completed string, hasCompleted bool) MarkerKind {
	if tag == TagChapterMarker {
		return MarkerChapter
	}
	if hasCompleted {
		switch completed {
		case "0":
			return MarkerTodo
		case "1":
			return MarkerCompleted
		}
	}
	return MarkerStandard
}

// IsMarkerTag reports whether an element name is a marker of any kind.
func IsMarkerTag(tag string) bool {
	return tag == TagMarker || tag == TagChapterMarker
}

// Element is the tag a marker of this kind is written as.
func (k MarkerKind) Element() string {
	if k == MarkerChapter {
		return TagChapterMarker
	}
	return TagMarker
}

// CompletedValue is the completed attribute value the kind carries, if any.
func (k MarkerKind) CompletedValue() (string, bool) {
	switch k {
	case MarkerTodo:
		return "0", true
	case MarkerCompleted:
		return "1", true
	}
	return "", false
}

// AllowsNote reports whether the kind may carry a note. Chapters may not.
func (k MarkerKind) AllowsNote() bool { return k != MarkerChapter }

// Marker is a point of interest on a clip or gap, in the host's local time.
type Marker struct {
	Kind         MarkerKind
	Start        rational.TimeValue
	Duration     rational.TimeValue
	Value        string
	Note         string
	PosterOffset rational.TimeValue
	// PosterSet records whether a chapter marker carries posterOffset.
	PosterSet bool
	Extra     Opaque
}

// markerModelAttrs lists the attributes Marker interprets; the parser keeps
// everything else in Extra.
func markerModelAttrs(kind MarkerKind) []string {
	names := []string{"start", "duration", "value"}
	if _, ok := kind.CompletedValue(); ok {
		names = append(names, "completed")
	}
	if kind == MarkerChapter {
		names = append(names, "posterOffset")
	}
	if kind.AllowsNote() {
		names = append(names, "note")
	}
	return names
}

// IsMarkerModelAttr reports whether the parser should read attr into the
// marker's fields rather than keep it opaque.
func IsMarkerModelAttr(kind MarkerKind, attr string) bool {
	for _, n := range markerModelAttrs(kind) {
		if n == attr {
			return true
		}
	}
	return false
}

// Attrs renders the marker's attributes in canonical order, followed by
// any opaque attributes. Each variant contributes its own fields.
func (m *Marker) Attrs() []xmltree.Attr {
	attrs := []xmltree.Attr{
		{Name: "start", Value: m.Start.String()},
		{Name: "duration", Value: m.Duration.String()},
		{Name: "value", Value: m.Value},
	}
	if v, ok := m.Kind.CompletedValue(); ok {
		attrs = append(attrs, xmltree.Attr{Name: "completed", Value: v})
	}
	if m.Kind == MarkerChapter && m.PosterSet {
		attrs = append(attrs, xmltree.Attr{Name: "posterOffset", Value: m.PosterOffset.String()})
	}
	if m.Kind.AllowsNote() && m.Note != "" {
		attrs = append(attrs, xmltree.Attr{Name: "note", Value: m.Note})
	}
	return append(attrs, m.Extra.Attrs...)
}

// Clone deep-copies m.
func (m *Marker) Clone() *Marker {
	c := *m
	c.Extra = m.Extra.Clone()
	return &c
}

// Keyword is a tagged source range on a clip.
type Keyword struct {
	Value    string
	Start    rational.TimeValue
	Duration rational.TimeValue
	Extra    Opaque
}

// Clone deep-copies k.
func (k *Keyword) Clone() *Keyword {
	c := *k
	c.Extra = k.Extra.Clone()
	return &c
}
