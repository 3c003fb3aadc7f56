package diff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

type clipEntry struct {
	clip *ir.Clip
	span Span
}

type markerEntry struct {
	marker *ir.Marker
	span   Span
}

type transitionEntry struct {
	tr   *ir.Transition
	span Span
}

// layout flattens a timeline into clips, markers and transitions placed at
// absolute timeline time, in document order.
type layout struct {
	clips       []clipEntry
	markers     []markerEntry
	transitions []transitionEntry
}

func flatten(tl *ir.Timeline) layout {
	var out layout
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		_, dur := v.Item.Span()
		span := Span{Offset: at, Duration: dur, Lane: v.Lane}

		if h, ok := v.Item.(ir.Host); ok {
			base := at.Sub(h.LocalStart())
			for _, m := range markersOf(h) {
				out.markers = append(out.markers, markerEntry{m, Span{Offset: base.Add(m.Start), Duration: m.Duration, Lane: v.Lane}})
			}
		}
		switch it := v.Item.(type) {
		case *ir.Clip:
			span.Start = it.Start
			out.clips = append(out.clips, clipEntry{it, span})
		case *ir.Transition:
			out.transitions = append(out.transitions, transitionEntry{it, span})
		}
	})
	return out
}

func markersOf(h ir.Host) []*ir.Marker {
	switch v := h.(type) {
	case *ir.Clip:
		return v.Markers
	case *ir.Gap:
		return v.Markers
	}
	return nil
}

// Compare reports the changes that turn before into after. Both timelines
// are validated first; an invalid one fails with the validation error.
func Compare(before, after *ir.Timeline) (*ChangeSet, error) {
	if err := before.Validate(); err != nil {
		return nil, err
	}
	if err := after.Validate(); err != nil {
		return nil, err
	}
	cs := &ChangeSet{Before: before.Label(), After: after.Label()}
	cs.Changes = append(cs.Changes, compareFormat(before, after)...)

	a, b := flatten(before), flatten(after)
	cs.Changes = append(cs.Changes, compareClips(a.clips, b.clips)...)
	cs.Changes = append(cs.Changes, compareTransitions(a.transitions, b.transitions)...)
	cs.Changes = append(cs.Changes, compareMarkers(a.markers, b.markers)...)
	sortChanges(cs.Changes)
	return cs, nil
}

// CompareProjects validates both documents and compares their timelines at
// index.
func CompareProjects(before, after *ir.Project, index int) (*ChangeSet, error) {
	if err := before.Validate(); err != nil {
		return nil, err
	}
	if err := after.Validate(); err != nil {
		return nil, err
	}
	a, err := before.Timeline(index)
	if err != nil {
		return nil, err
	}
	b, err := after.Timeline(index)
	if err != nil {
		return nil, err
	}
	return Compare(a, b)
}

func clipSubject(c *ir.Clip) string {
	if c.Name != "" {
		return c.Name
	}
	return c.Kind
}

func compareClips(a, b []clipEntry) []Change {
	p := match(a, b,
		func(e clipEntry) string { return e.clip.Ref + "\x00" + e.clip.Name },
		func(e clipEntry) rational.TimeValue { return e.span.Offset })

	var out []Change
	for _, i := range p.onlyA {
		e := a[i]
		out = append(out, Change{Kind: ClipRemoved, Subject: clipSubject(e.clip), Ref: e.clip.Ref, Before: ptr(e.span)})
	}
	for _, j := range p.onlyB {
		e := b[j]
		out = append(out, Change{Kind: ClipAdded, Subject: clipSubject(e.clip), Ref: e.clip.Ref, After: ptr(e.span)})
	}
	for _, pr := range p.pairs {
		x, y := a[pr[0]], b[pr[1]]
		ch := Change{Subject: clipSubject(y.clip), Ref: y.clip.Ref, Before: ptr(x.span), After: ptr(y.span)}
		if !x.span.Offset.Equal(y.span.Offset) || x.span.Lane != y.span.Lane {
			ch.Kind = ClipMoved
			ch.Detail = describe(
				field("offset", x.span.Offset, y.span.Offset),
				laneField(x.span.Lane, y.span.Lane),
			)
			out = append(out, ch)
		}
		if !x.span.Start.Equal(y.span.Start) || !x.span.Duration.Equal(y.span.Duration) {
			ch.Kind = ClipTrimmed
			ch.Detail = describe(
				field("start", x.span.Start, y.span.Start),
				field("duration", x.span.Duration, y.span.Duration),
			)
			out = append(out, ch)
		}
	}
	return out
}

func compareMarkers(a, b []markerEntry) []Change {
	p := match(a, b,
		func(e markerEntry) string { return e.marker.Value },
		func(e markerEntry) rational.TimeValue { return e.span.Offset })

	var out []Change
	for _, i := range p.onlyA {
		e := a[i]
		out = append(out, Change{Kind: MarkerRemoved, Subject: e.marker.Value, Before: ptr(e.span), Detail: e.marker.Kind.String()})
	}
	for _, j := range p.onlyB {
		e := b[j]
		out = append(out, Change{Kind: MarkerAdded, Subject: e.marker.Value, After: ptr(e.span), Detail: e.marker.Kind.String()})
	}
	for _, pr := range p.pairs {
		x, y := a[pr[0]], b[pr[1]]
		var kind string
		if x.marker.Kind != y.marker.Kind {
			kind = fmt.Sprintf("kind %s -> %s", x.marker.Kind, y.marker.Kind)
		}
		var note string
		if x.marker.Note != y.marker.Note {
			note = "note changed"
		}
		detail := describe(
			field("position", x.span.Offset, y.span.Offset),
			field("duration", x.span.Duration, y.span.Duration),
			kind, note,
		)
		if detail != "" {
			out = append(out, Change{Kind: MarkerChanged, Subject: y.marker.Value, Before: ptr(x.span), After: ptr(y.span), Detail: detail})
		}
	}
	return out
}

// compareTransitions matches transitions by position alone: a transition
// swapped for another effect at the same cut is a change, not a removal.
func compareTransitions(a, b []transitionEntry) []Change {
	p := match(a, b,
		func(transitionEntry) string { return "" },
		func(e transitionEntry) rational.TimeValue { return e.span.Offset.Add(e.span.Duration.DivInt(2)) })

	var out []Change
	for _, i := range p.onlyA {
		e := a[i]
		out = append(out, Change{Kind: TransitionRemoved, Subject: e.tr.Name, Before: ptr(e.span)})
	}
	for _, j := range p.onlyB {
		e := b[j]
		out = append(out, Change{Kind: TransitionAdded, Subject: e.tr.Name, After: ptr(e.span)})
	}
	for _, pr := range p.pairs {
		x, y := a[pr[0]], b[pr[1]]
		var name string
		if x.tr.Name != y.tr.Name {
			name = fmt.Sprintf("effect %s -> %s", x.tr.Name, y.tr.Name)
		}
		detail := describe(
			name,
			field("offset", x.span.Offset, y.span.Offset),
			field("duration", x.span.Duration, y.span.Duration),
		)
		if detail != "" {
			out = append(out, Change{Kind: TransitionChanged, Subject: y.tr.Name, Before: ptr(x.span), After: ptr(y.span), Detail: detail})
		}
	}
	return out
}

func compareFormat(before, after *ir.Timeline) []Change {
	fa, fb := before.FormatResource(), after.FormatResource()
	var wa, ha, wb, hb int
	if fa != nil {
		wa, ha = fa.Width, fa.Height
	}
	if fb != nil {
		wb, hb = fb.Width, fb.Height
	}
	var res string
	if wa != wb || ha != hb {
		res = fmt.Sprintf("resolution %dx%d -> %dx%d", wa, ha, wb, hb)
	}
	ra, rb := before.FrameRate(), after.FrameRate()
	var rate string
	if !ra.Equal(rb) {
		rate = fmt.Sprintf("frame duration %s -> %s", ra.FrameDuration().Simplify(), rb.FrameDuration().Simplify())
	}
	detail := describe(res, rate)
	if detail == "" {
		return nil
	}
	return []Change{{Kind: FormatChanged, Subject: after.Label(), Detail: detail}}
}

var categoryRank = map[Kind]int{
	FormatChanged:     0,
	ClipRemoved:       1,
	ClipAdded:         1,
	ClipMoved:         1,
	ClipTrimmed:       1,
	TransitionRemoved: 2,
	TransitionAdded:   2,
	TransitionChanged: 2,
	MarkerRemoved:     3,
	MarkerAdded:       3,
	MarkerChanged:     3,
}

var kindRank = map[Kind]int{
	ClipRemoved: 0, TransitionRemoved: 0, MarkerRemoved: 0,
	ClipAdded: 1, TransitionAdded: 1, MarkerAdded: 1,
	ClipMoved: 2, TransitionChanged: 2, MarkerChanged: 2,
	ClipTrimmed: 3,
}

// sortChanges orders changes by category, then timeline time, then kind and
// subject. The sort is stable, so anything still equal keeps document order.
func sortChanges(cs []Change) {
	slices.SortStableFunc(cs, func(x, y Change) int {
		if d := categoryRank[x.Kind] - categoryRank[y.Kind]; d != 0 {
			return d
		}
		if c := x.at().Cmp(y.at()); c != 0 {
			return c
		}
		if d := kindRank[x.Kind] - kindRank[y.Kind]; d != 0 {
			return d
		}
		return strings.Compare(x.Subject, y.Subject)
	})
}

func field(name string, before, after rational.TimeValue) string {
	if before.Equal(after) {
		return ""
	}
	return fmt.Sprintf("%s %s -> %s", name, before.Simplify(), after.Simplify())
}

func laneField(before, after int) string {
	if before == after {
		return ""
	}
	return fmt.Sprintf("lane %d -> %d", before, after)
}

func describe(parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), ", ")
}

func ptr(s Span) *Span { return &s }
