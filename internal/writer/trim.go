package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Edit moves one edge of a clip. An absolute in edit is the new source
// in-point and an absolute out edit the new source out-point; a relative
// edit is added to the current value.
type Edit struct {
	Value    rational.TimeValue
	Relative bool
}

// TrimRequest trims a clip on the primary storyline.
type TrimRequest struct {
	Clip   string
	In     *Edit
	Out    *Edit
	Ripple bool
}

// TrimResult reports the trimmed clip. Delta is the change in duration;
// Clamped is set when an edit ran past the source media and was pulled back.
type TrimResult struct {
	ClipID   string             `json:"clip_id"`
	Start    rational.TimeValue `json:"start"`
	Duration rational.TimeValue `json:"duration"`
	Delta    rational.TimeValue `json:"delta"`
	Clamped  bool               `json:"clamped"`
}

// Trim moves the in and/or out edge of a clip. Edits never reach outside the
// clip's source media; an edit that would is clamped and reported.
func (e *Editor) Trim(req TrimRequest) (TrimResult, error) {
	if req.In == nil && req.Out == nil {
		return TrimResult{}, ir.Formatf("trim needs an in or an out edit")
	}
	var res TrimResult
	err := e.apply("trim", func(tl *ir.Timeline) error {
		c, idx, err := spineClip(tl, req.Clip)
		if err != nil {
			return err
		}
		lo, hi, bounded := sourceBounds(tl, c)
		oldDur := c.Duration
		clamped := false

		if req.In != nil {
			start := req.In.Value
			if req.In.Relative {
				start = c.Start.Add(req.In.Value)
			}
			if bounded && start.Less(lo) {
				start, clamped = lo, true
			}
			d := start.Sub(c.Start)
			if !d.Less(c.Duration) {
				return ir.Structuralf("in point %s leaves no duration", start).WithSubject(c.Label())
			}
			if err := e.resizeIn(tl, idx, d, req.Ripple); err != nil {
				return err
			}
			idx = slices.Index(tl.Spine.Items, ir.SpineItem(c))
		}

		if req.Out != nil {
			dur := req.Out.Value.Sub(c.Start)
			if req.Out.Relative {
				dur = c.Duration.Add(req.Out.Value)
			}
			if bounded && hi.Less(c.Start.Add(dur)) {
				dur, clamped = hi.Sub(c.Start), true
			}
			if dur.Sign() <= 0 {
				return ir.Structuralf("out point leaves a duration of %s", dur).WithSubject(c.Label())
			}
			if err := e.resizeOut(tl, idx, dur, req.Ripple); err != nil {
				return err
			}
		}

		if clamped {
			e.logger.Warn("trim clamped to source media", "clip", c.ID, "start", c.Start.String(), "duration", c.Duration.String())
		}
		res = TrimResult{
			ClipID:   c.ID,
			Start:    c.Start,
			Duration: c.Duration,
			Delta:    c.Duration.Sub(oldDur),
			Clamped:  clamped,
		}
		return nil
	})
	return res, err
}

// sourceBounds is the source range a clip may show: its asset's media or
// its compound's nested timeline. Retimed clips and clips without a bounded
// source are unbounded.
func sourceBounds(tl *ir.Timeline, c *ir.Clip) (lo, hi rational.TimeValue, ok bool) {
	if c.TimeMap != nil {
		return lo, hi, false
	}
	if c.Nested != nil {
		return c.Nested.Origin(), c.Nested.End(), true
	}
	if a, found := tl.Resources.Asset(c.Ref); found && a.Bounded() {
		return a.Start, a.Start.Add(a.Duration), true
	}
	return lo, hi, false
}
