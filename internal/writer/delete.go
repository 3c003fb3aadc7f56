package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
)

// DeleteResult reports a delete.
type DeleteResult struct {
	Removed            []string `json:"removed"`
	DroppedTransitions int      `json:"dropped_transitions"`
}

// Delete removes clips. With ripple the following items close up; without
// it a clip on a storyline is replaced by a gap of the same span, which keeps
// the clip's connected clips. Connected clips on a lane are simply removed.
func (e *Editor) Delete(refs []string, ripple bool) (DeleteResult, error) {
	if len(refs) == 0 {
		return DeleteResult{}, ir.Formatf("delete needs at least one clip")
	}
	var res DeleteResult
	err := e.apply("delete", func(tl *ir.Timeline) error {
		res = DeleteResult{}
		origin := tl.Origin()
		ix := tl.Index()
		var onSpine []ir.SpineItem
		for _, ref := range refs {
			c, loc, err := ix.LookupClip(ref)
			if err != nil {
				return err
			}
			if slices.Contains(res.Removed, c.ID) {
				continue
			}
			res.Removed = append(res.Removed, c.ID)
			switch {
			case loc.OnSpine():
				onSpine = append(onSpine, c)
			case loc.Storyline != nil:
				removeFromStoryline(loc.Host, loc.Storyline, c, ripple)
			default:
				detach(loc.Host, c)
			}
		}
		if len(onSpine) == 0 {
			return nil
		}

		items := make([]ir.SpineItem, 0, len(tl.Spine.Items))
		for _, it := range tl.Spine.Items {
			if !slices.Contains(onSpine, it) {
				items = append(items, it)
				continue
			}
			if !ripple {
				items = append(items, gapFor(it.(*ir.Clip)))
			}
		}
		tl.Spine.Items = items
		res.DroppedTransitions = e.relayout(tl, origin)
		return nil
	})
	return res, err
}

// gapFor is the gap that stands in for a lifted clip.
func gapFor(c *ir.Clip) *ir.Gap {
	g := newGap(c.Duration)
	g.Offset = c.Offset
	if len(c.Anchored) > 0 {
		g.Start, g.StartSet = c.Start, true
		g.Anchored = c.Anchored
	}
	return g
}

func removeFromStoryline(host ir.Host, sl *ir.Storyline, c *ir.Clip, ripple bool) {
	i := slices.Index(sl.Items, ir.SpineItem(c))
	if i < 0 {
		return
	}
	if ripple {
		origin := sl.Origin()
		sl.Items = slices.Delete(sl.Items, i, i+1)
		sl.Items, _ = ir.Retime(sl.Items, origin)
	} else {
		sl.Items[i] = gapFor(c)
	}
	for _, it := range sl.Items {
		if _, isClip := it.(*ir.Clip); isClip {
			return
		}
	}
	detach(host, sl)
}

// detach removes a from the host's anchored items.
func detach(host ir.Host, a ir.Anchor) {
	drop := func(list []ir.Anchor) []ir.Anchor {
		return slices.DeleteFunc(list, func(x ir.Anchor) bool { return x == a })
	}
	switch h := host.(type) {
	case *ir.Clip:
		h.Anchored = drop(h.Anchored)
	case *ir.Gap:
		h.Anchored = drop(h.Anchored)
	}
}
