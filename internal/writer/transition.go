package writer

import (
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// TransitionEffects maps the accepted effect keys to effect names.
var TransitionEffects = map[string]string{
	"cross-dissolve":  "Cross Dissolve",
	"fade-to-black":   "Fade to Color",
	"fade-from-black": "Fade from Color",
	"dip-to-color":    "Dip to Color",
	"wipe":            "Wipe",
	"slide":           "Slide",
}

const crossDissolveUID = "FxPlug:4731E73A-8DAC-4113-9A30-AE85B1761265"

// TransitionRequest adds a transition at one or both edges of a clip.
type TransitionRequest struct {
	Clip string
	// Position is "start", "end" (default) or "both".
	Position string
	// Effect is a TransitionEffects key; default cross-dissolve.
	Effect string
	// Duration defaults to one second.
	Duration rational.TimeValue
}

// TransitionResult lists the transitions added.
type TransitionResult struct {
	Transitions []string `json:"transitions"`
	Effect      string   `json:"effect"`
}

// AddTransition centres a transition on the cut before and/or after a clip
// of the primary storyline. Neither neighbour is moved or resized: the
// transition overlaps half its duration into each.
func (e *Editor) AddTransition(req TransitionRequest) (TransitionResult, error) {
	key := strings.ToLower(strings.TrimSpace(req.Effect))
	if key == "" {
		key = "cross-dissolve"
	}
	name, ok := TransitionEffects[key]
	if !ok {
		return TransitionResult{}, ir.Formatf("unknown transition effect %q", req.Effect)
	}
	var atStart, atEnd bool
	switch req.Position {
	case "", "end":
		atEnd = true
	case "start":
		atStart = true
	case "both":
		atStart, atEnd = true, true
	default:
		return TransitionResult{}, ir.Formatf("transition position must be start, end or both, got %q", req.Position)
	}

	var added []*ir.Transition
	err := e.apply("add_transition", func(tl *ir.Timeline) error {
		added = nil
		c, idx, err := spineClip(tl, req.Clip)
		if err != nil {
			return err
		}
		dur := req.Duration
		if dur.IsZero() {
			dur = rational.Seconds(1)
		}
		dur = tl.FrameRate().AlignFloor(dur).Simplify()
		if dur.Sign() <= 0 {
			return ir.Structuralf("transition duration must be at least one frame")
		}
		fx := ensureEffect(tl.Resources, name)

		items := tl.Spine.Items
		if atEnd {
			next := nextOccupying(items, idx)
			if err := checkCut(items, idx, next, dur, c); err != nil {
				return err
			}
			tr := newTransition(name, fx, c.End(), dur)
			items = insertAt(items, next, tr)
			added = append(added, tr)
		}
		if atStart {
			prev := prevOccupying(items, idx)
			if err := checkCut(items, prev, idx, dur, c); err != nil {
				return err
			}
			tr := newTransition(name, fx, c.Offset, dur)
			items = insertAt(items, idx, tr)
			added = append([]*ir.Transition{tr}, added...)
		}
		tl.Spine.Items = items
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	res := TransitionResult{Effect: name}
	for _, tr := range added {
		res.Transitions = append(res.Transitions, tr.ID)
	}
	return res, nil
}

// checkCut verifies that a transition of dur fits on the cut between the
// occupying items at a and b.
func checkCut(items []ir.SpineItem, a, b int, dur rational.TimeValue, c *ir.Clip) error {
	if a < 0 || b < 0 {
		return ir.Structuralf("a transition needs an item on both sides of the cut").WithSubject(c.Label())
	}
	for _, it := range items[a+1 : b] {
		if _, isTr := it.(*ir.Transition); isTr {
			return ir.Structuralf("the cut already has a transition").WithSubject(c.Label())
		}
	}
	half := dur.DivInt(2)
	for _, it := range []ir.SpineItem{items[a], items[b]} {
		if _, d := it.Span(); d.Less(half) {
			return ir.Structuralf("transition of %s is longer than twice %s", dur, itemLabel(it)).WithSubject(c.Label())
		}
	}
	return nil
}

func newTransition(name string, fx *ir.Effect, cut, dur rational.TimeValue) *ir.Transition {
	filter := xmltree.Elem("filter-video", xmltree.A("ref", fx.ID), xmltree.A("name", name))
	return &ir.Transition{
		Name:     name,
		Offset:   cut.Sub(dur.DivInt(2)),
		Duration: dur,
		Extra:    ir.Opaque{Children: []*xmltree.Node{filter}},
	}
}

func insertAt(items []ir.SpineItem, i int, it ir.SpineItem) []ir.SpineItem {
	items = append(items, nil)
	copy(items[i+1:], items[i:])
	items[i] = it
	return items
}

// ensureEffect returns the effect resource called name, adding it when the
// document has none.
func ensureEffect(res *ir.Resources, name string) *ir.Effect {
	if fx, ok := res.FindEffect(name); ok {
		return fx
	}
	fx := &ir.Effect{ID: res.NextID(), Name: name}
	if name == TransitionEffects["cross-dissolve"] {
		fx.UID = crossDissolveUID
	}
	_ = res.Add(fx)
	return fx
}
