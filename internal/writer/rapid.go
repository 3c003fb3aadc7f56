package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// RapidTrimRequest caps clip length across the primary storyline.
type RapidTrimRequest struct {
	Max rational.TimeValue
	// Keywords, when set, limits the trim to clips tagged with any of them.
	Keywords []string
	// From is "end" (default), "start" or "center".
	From string
}

// RapidTrim shortens every matching clip longer than Max and ripples the
// spine once at the end.
func (e *Editor) RapidTrim(req RapidTrimRequest) ([]TrimResult, error) {
	if req.Max.Sign() <= 0 {
		return nil, ir.Formatf("maximum clip duration must be positive, got %s", req.Max)
	}
	switch req.From {
	case "":
		req.From = "end"
	case "end", "start", "center":
	default:
		return nil, ir.Formatf("trim side must be start, end or center, got %q", req.From)
	}
	var out []TrimResult
	err := e.apply("rapid_trim", func(tl *ir.Timeline) error {
		out = nil
		origin := tl.Origin()
		rate := tl.FrameRate()
		for _, c := range tl.Clips() {
			if !req.Max.Less(c.Duration) || !hasKeyword(c, req.Keywords) {
				continue
			}
			excess := c.Duration.Sub(req.Max)
			switch req.From {
			case "start":
				c.Start = c.Start.Add(excess)
				c.StartSet = true
			case "center":
				c.Start = c.Start.Add(rate.AlignFloor(excess.DivInt(2))).Simplify()
				c.StartSet = true
			}
			c.Duration = req.Max
			out = append(out, TrimResult{ClipID: c.ID, Start: c.Start, Duration: c.Duration, Delta: excess.Neg()})
		}
		e.relayout(tl, origin)
		return nil
	})
	return out, err
}

func hasKeyword(c *ir.Clip, want []string) bool {
	if len(want) == 0 {
		return true
	}
	return slices.ContainsFunc(c.Keywords, func(k *ir.Keyword) bool {
		return slices.Contains(want, k.Value)
	})
}
