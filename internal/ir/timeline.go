package ir

import (
	"strconv"

	"github.com/roach88/spine/internal/rational"
)

// Timeline is a sequence with its primary storyline. Project sequences and
// compound media sequences are both Timelines; Compound marks the latter.
type Timeline struct {
	Name     string
	UID      string
	Format   string
	Duration rational.TimeValue
	TCStart  rational.TimeValue
	TCFormat string
	Spine    *Spine
	Compound bool

	// Resources is the document resource table, shared by every timeline.
	Resources *Resources

	// ProjectExtra belongs to the <project> wrapper, SequenceExtra to the
	// <sequence> element.
	ProjectExtra  Opaque
	SequenceExtra Opaque

	index  *Index
	nextID map[byte]int
}

// Spine is the primary storyline.
type Spine struct {
	Items []SpineItem
	Extra Opaque
}

// FormatResource returns the timeline's format, if it resolves.
func (tl *Timeline) FormatResource() *Format {
	if tl.Resources == nil || tl.Format == "" {
		return nil
	}
	f, _ := tl.Resources.Format(tl.Format)
	return f
}

// FrameRate is the timeline's frame rate from its format, or 24 fps when the
// format declares none.
func (tl *Timeline) FrameRate() rational.FrameRate {
	if r, ok := tl.FormatResource().FrameRate(); ok {
		return r
	}
	return rational.Rate24
}

// Origin is the offset of the first occupying spine item, or TCStart for an
// empty spine.
func (tl *Timeline) Origin() rational.TimeValue {
	for _, it := range tl.Spine.Items {
		if Occupies(it) {
			off, _ := it.Span()
			return off
		}
	}
	return tl.TCStart
}

// End is the end of the last occupying spine item.
func (tl *Timeline) End() rational.TimeValue {
	end := tl.Origin()
	for _, it := range tl.Spine.Items {
		if Occupies(it) {
			end = End(it)
		}
	}
	return end
}

// SpineDuration is End - Origin.
func (tl *Timeline) SpineDuration() rational.TimeValue {
	return tl.End().Sub(tl.Origin())
}

// Clips returns the clips on the primary storyline in order.
func (tl *Timeline) Clips() []*Clip {
	var out []*Clip
	for _, it := range tl.Spine.Items {
		if c, ok := it.(*Clip); ok {
			out = append(out, c)
		}
	}
	return out
}

// ItemAt returns the occupying spine item covering t and its index.
func (tl *Timeline) ItemAt(t rational.TimeValue) (SpineItem, int, bool) {
	for i, it := range tl.Spine.Items {
		if !Occupies(it) {
			continue
		}
		off, dur := it.Span()
		if !t.Less(off) && t.Less(off.Add(dur)) {
			return it, i, true
		}
	}
	return nil, -1, false
}

// Label names the timeline for messages.
func (tl *Timeline) Label() string {
	if tl.Name != "" {
		return tl.Name
	}
	return "untitled timeline"
}

// newID hands out the next session id with the given prefix.
func (tl *Timeline) newID(prefix byte) string {
	if tl.nextID == nil {
		tl.nextID = make(map[byte]int)
	}
	tl.nextID[prefix]++
	return string(prefix) + strconv.Itoa(tl.nextID[prefix])
}

func (tl *Timeline) noteID(id string) {
	if len(id) < 2 {
		return
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil {
		return
	}
	if tl.nextID == nil {
		tl.nextID = make(map[byte]int)
	}
	if n > tl.nextID[id[0]] {
		tl.nextID[id[0]] = n
	}
}

// Retime lays out occupying items back to back from origin in slice order,
// then re-centres each transition on the cut that follows it. Transitions
// with no item on either side are removed and returned.
func Retime(items []SpineItem, origin rational.TimeValue) ([]SpineItem, []*Transition) {
	cursor := origin
	for _, it := range items {
		if Occupies(it) {
			it.SetOffset(cursor)
			_, dur := it.Span()
			cursor = cursor.Add(dur)
		}
	}
	var dropped []*Transition
	kept := make([]SpineItem, 0, len(items))
	for i, it := range items {
		tr, ok := it.(*Transition)
		if !ok {
			kept = append(kept, it)
			continue
		}
		prev, next := neighbour(items, i, -1), neighbour(items, i, +1)
		if prev == nil || next == nil {
			dropped = append(dropped, tr)
			continue
		}
		cut, _ := next.Span()
		tr.Offset = cut.Sub(tr.Duration.DivInt(2))
		kept = append(kept, tr)
	}
	return kept, dropped
}

func neighbour(items []SpineItem, i, step int) SpineItem {
	for j := i + step; j >= 0 && j < len(items); j += step {
		if _, isTr := items[j].(*Transition); isTr {
			return nil
		}
		if Occupies(items[j]) {
			return items[j]
		}
	}
	return nil
}
