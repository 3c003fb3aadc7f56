package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// spineClip resolves ref to a clip on the primary storyline and returns its
// position in the spine.
func spineClip(tl *ir.Timeline, ref string) (*ir.Clip, int, error) {
	c, loc, err := tl.Index().LookupClip(ref)
	if err != nil {
		return nil, -1, err
	}
	if !loc.OnSpine() {
		return nil, -1, ir.Structuralf("clip is connected, not on the primary storyline").WithSubject(ref)
	}
	return c, loc.Index, nil
}

// relayout packs the spine back to back from origin and re-centres or drops
// transitions. It returns the number of transitions dropped.
func (e *Editor) relayout(tl *ir.Timeline, origin rational.TimeValue) int {
	items, dropped := ir.Retime(tl.Spine.Items, origin)
	tl.Spine.Items = items
	for _, tr := range dropped {
		e.logger.Warn("transition dropped", "transition", tr.ID, "name", tr.Name)
	}
	return len(dropped)
}

// nextOccupying returns the index of the first occupying item after i.
func nextOccupying(items []ir.SpineItem, i int) int {
	for j := i + 1; j < len(items); j++ {
		if ir.Occupies(items[j]) {
			return j
		}
	}
	return -1
}

// prevOccupying returns the index of the last occupying item before i.
func prevOccupying(items []ir.SpineItem, i int) int {
	for j := i - 1; j >= 0; j-- {
		if ir.Occupies(items[j]) {
			return j
		}
	}
	return -1
}

func newGap(dur rational.TimeValue) *ir.Gap {
	return &ir.Gap{Name: "Gap", Duration: dur}
}

// resizeOut moves the out edge of the spine item at idx so that it lasts
// newDur. With ripple the rest of the spine follows. Without ripple the
// change is absorbed by the next gap: shortening inserts or widens one,
// lengthening consumes one. A clip at the end of the spine may always grow.
func (e *Editor) resizeOut(tl *ir.Timeline, idx int, newDur rational.TimeValue, ripple bool) error {
	origin := tl.Origin()
	items := tl.Spine.Items
	c := items[idx].(*ir.Clip)
	delta := newDur.Sub(c.Duration)
	c.Duration = newDur
	if delta.IsZero() {
		return nil
	}
	if !ripple {
		next := nextOccupying(items, idx)
		switch g, isGap := itemAt[*ir.Gap](items, next); {
		case next < 0:
		case isGap:
			rest := g.Duration.Sub(delta)
			switch rest.Sign() {
			case 1:
				g.Duration = rest
				shiftLocal(g, delta.Neg())
			case 0:
				absorbGap(c, g)
				tl.Spine.Items = slices.Delete(items, next, next+1)
			default:
				return ir.Structuralf("clip would overlap %s; the following gap is only %s", itemLabel(items[next]), g.Duration).WithSubject(c.Label())
			}
		case delta.Sign() < 0:
			tl.Spine.Items = slices.Insert(items, idx+1, ir.SpineItem(newGap(delta.Neg())))
		default:
			return ir.Structuralf("clip would overlap %s; use ripple or make room first", itemLabel(items[next])).WithSubject(c.Label())
		}
	}
	e.relayout(tl, origin)
	return nil
}

// resizeIn moves the in edge of the clip at idx by d: positive d removes
// material from the head, negative d adds it. Start moves with the edge.
// Without ripple the clip keeps its out point and the previous gap absorbs
// the change.
func (e *Editor) resizeIn(tl *ir.Timeline, idx int, d rational.TimeValue, ripple bool) error {
	origin := tl.Origin()
	items := tl.Spine.Items
	c := items[idx].(*ir.Clip)
	if d.IsZero() {
		return nil
	}
	c.Start = c.Start.Add(d)
	c.StartSet = true
	c.Duration = c.Duration.Sub(d)
	if !ripple {
		prev := prevOccupying(items, idx)
		switch g, isGap := itemAt[*ir.Gap](items, prev); {
		case isGap:
			rest := g.Duration.Add(d)
			switch rest.Sign() {
			case 1:
				g.Duration = rest
			case 0:
				absorbGapBefore(c, g)
				tl.Spine.Items = slices.Delete(items, prev, prev+1)
			default:
				return ir.Structuralf("clip would overlap %s; the preceding gap is only %s", itemLabel(items[prev]), g.Duration).WithSubject(c.Label())
			}
		case d.Sign() > 0:
			tl.Spine.Items = slices.Insert(items, idx, ir.SpineItem(newGap(d)))
		case prev < 0:
			return ir.Structuralf("clip is first on the timeline; extending its head needs ripple").WithSubject(c.Label())
		default:
			return ir.Structuralf("clip would overlap %s; use ripple or make room first", itemLabel(items[prev])).WithSubject(c.Label())
		}
	}
	e.relayout(tl, origin)
	return nil
}

func itemAt[T ir.SpineItem](items []ir.SpineItem, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(items) {
		return zero, false
	}
	v, ok := items[i].(T)
	return v, ok
}

// shiftLocal moves everything a host carries by d in its local time.
func shiftLocal(g *ir.Gap, d rational.TimeValue) {
	for _, m := range g.Markers {
		m.Start = m.Start.Add(d)
	}
	for _, a := range g.Anchored {
		shiftAnchor(a, d)
	}
}

func shiftAnchor(a ir.Anchor, d rational.TimeValue) {
	switch v := a.(type) {
	case *ir.Clip:
		v.Offset = v.Offset.Add(d)
	case *ir.Storyline:
		v.Offset = v.Offset.Add(d)
	}
}

// absorbGap moves the markers and connected clips of g, which directly
// follows c, onto c, keeping their timeline positions.
func absorbGap(c *ir.Clip, g *ir.Gap) {
	// Gap local t is at timeline g.Offset-g.Start+t; c has not moved yet.
	d := c.Start.Add(g.Offset.Sub(c.Offset)).Sub(g.Start)
	rehost(c, g, d)
}

// absorbGapBefore is absorbGap for a gap that directly precedes c.
func absorbGapBefore(c *ir.Clip, g *ir.Gap) {
	// c's new head is g's old head.
	d := c.Start.Sub(g.Start)
	rehost(c, g, d)
}

func rehost(c *ir.Clip, g *ir.Gap, d rational.TimeValue) {
	for _, m := range g.Markers {
		m.Start = m.Start.Add(d)
		c.Markers = append(c.Markers, m)
	}
	for _, a := range g.Anchored {
		shiftAnchor(a, d)
		c.Anchored = append(c.Anchored, a)
	}
	g.Markers, g.Anchored = nil, nil
}

func itemLabel(it ir.SpineItem) string {
	switch v := it.(type) {
	case *ir.Clip:
		return "clip " + v.Label()
	case *ir.Gap:
		return "gap " + v.ID
	case *ir.Transition:
		return "transition " + v.ID
	}
	return "item " + it.ItemID()
}
