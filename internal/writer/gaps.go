package writer

import (
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Fill modes.
const (
	FillExtendPrevious = "extend_previous"
	FillExtendNext     = "extend_next"
	FillDelete         = "delete"
)

// FilledGap reports one gap that was closed.
type FilledGap struct {
	GapID    string             `json:"gap_id"`
	Offset   rational.TimeValue `json:"offset"`
	Duration rational.TimeValue `json:"duration"`
	Action   string             `json:"action"`
	// Clip is the clip that grew over the gap, if any.
	Clip string `json:"clip"`
}

// FillGaps closes gaps on the primary storyline. extend_previous grows the
// clip before each gap, extend_next pulls the next clip's head back, delete
// ripples the gap away. Gaps longer than maxGap (when positive) are left
// alone, as are gaps whose neighbour has no source media to spare.
// Markers and connected clips on a filled gap move to the clip that covers
// it.
func (e *Editor) FillGaps(mode string, maxGap rational.TimeValue) ([]FilledGap, error) {
	switch mode {
	case "":
		mode = FillExtendPrevious
	case FillExtendPrevious, FillExtendNext, FillDelete:
	default:
		return nil, ir.Formatf("fill mode must be extend_previous, extend_next or delete, got %q", mode)
	}
	var filled []FilledGap
	err := e.apply("fill_gaps", func(tl *ir.Timeline) error {
		filled = nil
		origin := tl.Origin()
		items := tl.Spine.Items
		for i := len(items) - 1; i >= 0; i-- {
			g, ok := items[i].(*ir.Gap)
			if !ok || (maxGap.Sign() > 0 && maxGap.Less(g.Duration)) {
				continue
			}
			rec := FilledGap{GapID: g.ID, Offset: g.Offset, Duration: g.Duration, Action: mode}
			switch mode {
			case FillExtendPrevious:
				c, ok := itemAt[*ir.Clip](items, prevOccupying(items, i))
				if !ok || !canExtendTail(tl, c, g.Duration) {
					continue
				}
				absorbGap(c, g)
				c.Duration = c.Duration.Add(g.Duration)
				rec.Clip = c.ID
			case FillExtendNext:
				c, ok := itemAt[*ir.Clip](items, nextOccupying(items, i))
				if !ok || !canExtendHead(tl, c, g.Duration) {
					continue
				}
				c.Start = c.Start.Sub(g.Duration)
				c.StartSet = true
				c.Duration = c.Duration.Add(g.Duration)
				absorbGapBefore(c, g)
				rec.Clip = c.ID
			}
			items = append(items[:i], items[i+1:]...)
			filled = append(filled, rec)
		}
		tl.Spine.Items = items
		e.relayout(tl, origin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Reported in timeline order.
	for i, j := 0, len(filled)-1; i < j; i, j = i+1, j-1 {
		filled[i], filled[j] = filled[j], filled[i]
	}
	return filled, nil
}

func canExtendTail(tl *ir.Timeline, c *ir.Clip, by rational.TimeValue) bool {
	_, hi, bounded := sourceBounds(tl, c)
	return !bounded || !hi.Less(c.SourceEnd().Add(by))
}

func canExtendHead(tl *ir.Timeline, c *ir.Clip, by rational.TimeValue) bool {
	lo, _, bounded := sourceBounds(tl, c)
	start := c.Start.Sub(by)
	if start.Sign() < 0 {
		return false
	}
	return !bounded || !start.Less(lo)
}
