package writer

import (
	"fmt"
	"strconv"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// RampSegment plays Source worth of source media at Speed. Speed is a
// ratio: 2 is double speed, 1/2 half speed.
type RampSegment struct {
	Source rational.TimeValue
	Speed  rational.TimeValue
}

// SpeedRequest retimes a clip of the primary storyline. Either Speed is set
// for a constant change or Ramp lists segments in source order. A ramp that
// covers less than the clip's source plays the rest at the last segment's
// speed.
type SpeedRequest struct {
	Clip          string
	Speed         rational.TimeValue
	Ramp          []RampSegment
	Ripple        bool
	PreservePitch bool
}

// SpeedResult reports the retimed clip.
type SpeedResult struct {
	ClipID   string             `json:"clip_id"`
	Duration rational.TimeValue `json:"duration"`
	Points   int                `json:"points"`
}

// ChangeSpeed replaces the clip's time map with one monotonic map that plays
// the clip's current source range at the requested speeds, and resizes the
// clip to match.
func (e *Editor) ChangeSpeed(req SpeedRequest) (SpeedResult, error) {
	ramp := req.Ramp
	if len(ramp) == 0 {
		ramp = []RampSegment{{Speed: req.Speed}}
	}
	for _, seg := range ramp {
		if seg.Speed.Sign() <= 0 {
			return SpeedResult{}, ir.Formatf("speed must be positive, got %s", seg.Speed)
		}
		if seg.Source.Sign() < 0 {
			return SpeedResult{}, ir.Formatf("ramp segment length must not be negative, got %s", seg.Source)
		}
	}

	var res SpeedResult
	err := e.apply("change_speed", func(tl *ir.Timeline) error {
		c, idx, err := spineClip(tl, req.Clip)
		if err != nil {
			return err
		}
		srcStart := mapTime(c.TimeMap, c.Start)
		span := mapTime(c.TimeMap, c.Start.Add(c.Duration)).Sub(srcStart)
		if span.Sign() <= 0 {
			return ir.Structuralf("clip has no source range to retime").WithSubject(c.Label())
		}

		segs := append([]RampSegment(nil), ramp...)
		used := rational.Zero
		for i, seg := range segs {
			if seg.Source.IsZero() && i < len(segs)-1 {
				return ir.Formatf("only the last ramp segment may omit its length")
			}
			used = used.Add(seg.Source)
		}
		if span.Less(used) {
			return ir.Structuralf("ramp covers %s of source but the clip only has %s", used, span).WithSubject(c.Label())
		}
		last := &segs[len(segs)-1]
		last.Source = last.Source.Add(span.Sub(used))

		t, v := c.Start, srcStart
		tm := &ir.TimeMap{Points: []ir.TimePoint{{Time: t, Value: v, Interp: "linear"}}}
		for _, seg := range segs {
			if seg.Source.IsZero() {
				continue
			}
			t = t.Add(seg.Source.Div(seg.Speed))
			v = v.Add(seg.Source)
			tm.Points = append(tm.Points, ir.TimePoint{Time: t, Value: v, Interp: "linear"})
		}
		if !req.PreservePitch {
			tm.Extra.SetAttr("preservesPitch", "0")
		}

		rate := tl.FrameRate()
		dur := rate.AlignFloor(t.Sub(c.Start)).Simplify()
		if dur.Sign() <= 0 {
			return ir.Structuralf("retimed clip would be shorter than one frame").WithSubject(c.Label())
		}
		c.TimeMap = tm
		if len(c.Extra.ChildrenNamed("conform-rate")) == 0 {
			c.Extra.Children = append(c.Extra.Children, xmltree.Elem("conform-rate",
				xmltree.A("scaleEnabled", "1"), xmltree.A("srcFrameRate", frameRateLabel(rate))))
		}
		if err := e.resizeOut(tl, idx, dur, req.Ripple); err != nil {
			return err
		}
		res = SpeedResult{ClipID: c.ID, Duration: c.Duration, Points: len(tm.Points)}
		return nil
	})
	return res, err
}

// mapTime evaluates a time map at local time t by linear interpolation.
// Outside the mapped range, and without a map, time runs at normal speed.
func mapTime(tm *ir.TimeMap, t rational.TimeValue) rational.TimeValue {
	if tm == nil || len(tm.Points) == 0 {
		return t
	}
	pts := tm.Points
	if t.Less(pts[0].Time) {
		return pts[0].Value.Add(t.Sub(pts[0].Time))
	}
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		if b.Time.Less(t) {
			continue
		}
		slope := b.Value.Sub(a.Value).Div(b.Time.Sub(a.Time))
		return a.Value.Add(t.Sub(a.Time).Mul(slope))
	}
	end := pts[len(pts)-1]
	return end.Value.Add(t.Sub(end.Time))
}

// frameRateLabel renders a rate the way conform-rate spells it: "24",
// "29.97", "23.98".
func frameRateLabel(r rational.FrameRate) string {
	tb := r.Timebase()
	if !r.NTSC() {
		return strconv.FormatInt(tb, 10)
	}
	hundredths := (tb*100000 + 500) / 1001
	return fmt.Sprintf("%d.%02d", hundredths/100, hundredths%100)
}
