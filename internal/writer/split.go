package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// SplitResult lists the segments in timeline order. The first keeps the
// original clip's id.
type SplitResult struct {
	Segments []string `json:"segments"`
}

// Split cuts a clip of the primary storyline at the given timeline times.
// Points are snapped to the nearest frame and must then fall strictly inside
// the clip.
// Segments partition the original exactly; markers, keywords and connected
// clips go with the segment their start falls in.
func (e *Editor) Split(ref string, points []rational.TimeValue) (SplitResult, error) {
	if len(points) == 0 {
		return SplitResult{}, ir.Formatf("split needs at least one point")
	}
	var segs []*ir.Clip
	err := e.apply("split", func(tl *ir.Timeline) error {
		c, idx, err := spineClip(tl, ref)
		if err != nil {
			return err
		}
		rate := tl.FrameRate()
		cuts := make([]rational.TimeValue, 0, len(points))
		for _, raw := range points {
			p := rate.AlignNearest(raw).Simplify()
			if !c.Offset.Less(p) || !p.Less(c.End()) {
				if !p.Equal(raw) {
					return ir.Structuralf("split point %s snaps to frame %s, which is not inside the clip (%s to %s)",
						raw, p, c.Offset, c.End()).WithSubject(c.Label())
				}
				return ir.Structuralf("split point %s is not inside the clip (%s to %s)", p, c.Offset, c.End()).WithSubject(c.Label())
			}
			cuts = append(cuts, p)
		}
		slices.SortFunc(cuts, rational.TimeValue.Cmp)
		cuts = slices.CompactFunc(cuts, rational.TimeValue.Equal)

		bounds := append(append([]rational.TimeValue{c.Offset}, cuts...), c.End())
		// local[i] is where segment i starts in the clip's own time.
		local := make([]rational.TimeValue, len(bounds)-1)
		for i := range local {
			local[i] = c.Start.Add(bounds[i].Sub(c.Offset))
		}
		segmentOf := func(t rational.TimeValue) int {
			i := len(local) - 1
			for i > 0 && t.Less(local[i]) {
				i--
			}
			return i
		}

		markers, keywords, anchored := c.Markers, c.Keywords, c.Anchored
		segs = make([]*ir.Clip, len(local))
		for i := range segs {
			s := c
			if i > 0 {
				s = c.Clone()
				s.ID = ""
			}
			s.Markers, s.Keywords, s.Anchored = nil, nil, nil
			s.Offset = bounds[i]
			s.Duration = bounds[i+1].Sub(bounds[i])
			s.Start = local[i]
			s.StartSet = c.StartSet || i > 0
			segs[i] = s
		}
		for _, m := range markers {
			s := segs[segmentOf(m.Start)]
			s.Markers = append(s.Markers, m)
		}
		for _, k := range keywords {
			s := segs[segmentOf(k.Start)]
			s.Keywords = append(s.Keywords, k)
		}
		for _, a := range anchored {
			s := segs[segmentOf(anchorOffset(a))]
			s.Anchored = append(s.Anchored, a)
		}

		rest := make([]ir.SpineItem, 0, len(segs)-1)
		for _, s := range segs[1:] {
			rest = append(rest, s)
		}
		tl.Spine.Items = slices.Insert(tl.Spine.Items, idx+1, rest...)
		return nil
	})
	if err != nil {
		return SplitResult{}, err
	}
	res := SplitResult{Segments: make([]string, len(segs))}
	for i, s := range segs {
		res.Segments[i] = s.ID
	}
	return res, nil
}

func anchorOffset(a ir.Anchor) rational.TimeValue {
	switch v := a.(type) {
	case *ir.Clip:
		return v.Offset
	case *ir.Storyline:
		return v.Offset
	}
	return rational.Zero
}
