package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Beat preferences for SnapToBeats.
const (
	SnapNearest = "nearest"
	SnapEarlier = "earlier"
	SnapLater   = "later"
)

// SnapOptions tune SnapToBeats. MaxShift is in frames; zero means 6.
type SnapOptions struct {
	MaxShift int64
	Prefer   string
}

// SnappedCut reports one cut that moved. Clip is the clip after the cut.
type SnappedCut struct {
	Clip   string             `json:"clip"`
	From   rational.TimeValue `json:"from"`
	To     rational.TimeValue `json:"to"`
	Frames int64              `json:"frames"`
}

// SnapResult lists the cuts that moved and counts those that had a beat in
// reach but could not move, because a clip would run out of media or
// vanish, or is retimed.
type SnapResult struct {
	Snapped []SnappedCut `json:"snapped"`
	Blocked int          `json:"blocked"`
}

// SnapToBeats moves each cut between two clips of the primary storyline onto
// the closest marker within MaxShift frames. Markers anywhere on the
// timeline count as beats, music clips on lanes included. Cuts are rolled:
// the clip before the cut gains what the clip after it loses, so nothing
// else on the timeline moves.
func (e *Editor) SnapToBeats(opts SnapOptions) (SnapResult, error) {
	switch opts.Prefer {
	case "":
		opts.Prefer = SnapNearest
	case SnapNearest, SnapEarlier, SnapLater:
	default:
		return SnapResult{}, ir.Formatf("snap preference must be nearest, earlier or later, got %q", opts.Prefer)
	}
	if opts.MaxShift < 0 {
		return SnapResult{}, ir.Formatf("maximum shift cannot be negative")
	}
	if opts.MaxShift == 0 {
		opts.MaxShift = 6
	}

	var res SnapResult
	err := e.apply("snap_to_beats", func(tl *ir.Timeline) error {
		res = SnapResult{}
		rate := tl.FrameRate()
		beats := beatTimes(tl, rate)
		if len(beats) == 0 {
			return ir.Referencef("timeline has no markers to snap cuts to")
		}
		reach := rate.FrameTime(opts.MaxShift)
		origin := tl.Origin()

		items := tl.Spine.Items
		for i, it := range items {
			prev, ok := it.(*ir.Clip)
			if !ok {
				continue
			}
			next, ok := itemAt[*ir.Clip](items, nextOccupying(items, i))
			if !ok {
				continue
			}
			cut := prev.End()
			beat, found := pickBeat(beats, cut, reach, opts.Prefer)
			if !found || beat.Equal(cut) {
				continue
			}
			shift := beat.Sub(cut)
			if !canRoll(tl, prev, next, shift) {
				res.Blocked++
				continue
			}
			prev.Duration = prev.Duration.Add(shift).Simplify()
			next.Start = next.Start.Add(shift).Simplify()
			next.StartSet = true
			next.Duration = next.Duration.Sub(shift).Simplify()
			next.Offset = beat
			frames, _ := rate.FramesExact(shift.Abs())
			res.Snapped = append(res.Snapped, SnappedCut{Clip: next.ID, From: cut, To: beat, Frames: frames})
		}
		e.relayout(tl, origin)
		return nil
	})
	return res, err
}

// beatTimes collects the timeline time of every marker, snapped to frames,
// sorted and without repeats.
func beatTimes(tl *ir.Timeline, rate rational.FrameRate) []rational.TimeValue {
	var out []rational.TimeValue
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		var (
			markers []*ir.Marker
			local   rational.TimeValue
		)
		switch h := v.Item.(type) {
		case *ir.Clip:
			markers, local = h.Markers, h.LocalStart()
		case *ir.Gap:
			markers, local = h.Markers, h.LocalStart()
		}
		for _, m := range markers {
			out = append(out, rate.AlignNearest(at.Add(m.Start.Sub(local))).Simplify())
		}
	})
	slices.SortFunc(out, rational.TimeValue.Cmp)
	return slices.CompactFunc(out, rational.TimeValue.Equal)
}

// pickBeat finds the beat within reach of cut. With nearest, an equidistant
// pair resolves to the earlier beat.
func pickBeat(beats []rational.TimeValue, cut, reach rational.TimeValue, prefer string) (rational.TimeValue, bool) {
	var (
		best     rational.TimeValue
		bestDist rational.TimeValue
		found    bool
	)
	for _, b := range beats {
		d := b.Sub(cut)
		if prefer == SnapEarlier && d.Sign() > 0 || prefer == SnapLater && d.Sign() < 0 {
			continue
		}
		dist := d.Abs()
		if reach.Less(dist) {
			continue
		}
		if !found || dist.Less(bestDist) {
			best, bestDist, found = b, dist, true
		}
	}
	return best, found
}

func canRoll(tl *ir.Timeline, prev, next *ir.Clip, shift rational.TimeValue) bool {
	if prev.TimeMap != nil || next.TimeMap != nil {
		return false
	}
	if prev.Duration.Add(shift).Sign() <= 0 || next.Duration.Sub(shift).Sign() <= 0 {
		return false
	}
	return canExtendTail(tl, prev, shift) && canExtendHead(tl, next, shift.Neg())
}
