package writer

import (
	"slices"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// PositionKind says how a Position is anchored.
type PositionKind int

const (
	PositionStart PositionKind = iota
	PositionEnd
	PositionAfter
	PositionBefore
	PositionAt
)

// Position is an insertion point on the primary storyline.
type Position struct {
	Kind PositionKind
	// Ref is the clip for PositionAfter and PositionBefore.
	Ref string
	// At is the timeline time for PositionAt.
	At rational.TimeValue
}

// ParsePosition reads "start", "end", "after:<clip>", "before:<clip>" or a
// timeline time in any form rational.ParseAt accepts.
func ParsePosition(s string, rate rational.FrameRate) (Position, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "start":
		return Position{Kind: PositionStart}, nil
	case s == "end":
		return Position{Kind: PositionEnd}, nil
	case strings.HasPrefix(s, "after:"):
		return refPosition(PositionAfter, strings.TrimPrefix(s, "after:"))
	case strings.HasPrefix(s, "before:"):
		return refPosition(PositionBefore, strings.TrimPrefix(s, "before:"))
	}
	t, err := rational.ParseAt(s, rate)
	if err != nil {
		return Position{}, ir.Wrap(err, "position")
	}
	if t.Sign() < 0 {
		return Position{}, ir.Formatf("position %q is negative", s)
	}
	return Position{Kind: PositionAt, At: t}, nil
}

func refPosition(kind PositionKind, ref string) (Position, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Position{}, ir.Formatf("position needs a clip after the colon")
	}
	return Position{Kind: kind, Ref: ref}, nil
}

// insertionIndex resolves pos against items, the spine as it will be once
// anything being moved has been taken out.
func insertionIndex(tl *ir.Timeline, items []ir.SpineItem, pos Position) (int, error) {
	switch pos.Kind {
	case PositionStart:
		return 0, nil
	case PositionEnd:
		return len(items), nil
	case PositionAfter, PositionBefore:
		anchor, _, err := spineClip(tl, pos.Ref)
		if err != nil {
			return 0, err
		}
		i := slices.Index(items, ir.SpineItem(anchor))
		if i < 0 {
			return 0, ir.Referencef("cannot position relative to a clip that is being moved").WithSubject(pos.Ref)
		}
		if pos.Kind == PositionAfter {
			i++
		}
		return i, nil
	case PositionAt:
		// Offsets are those items will have once laid out from the origin,
		// not the ones they carry before the moved clips were taken out.
		cursor := tl.Origin()
		for i, it := range items {
			if !ir.Occupies(it) {
				continue
			}
			if !cursor.Less(pos.At) {
				return i, nil
			}
			_, dur := it.Span()
			cursor = cursor.Add(dur)
		}
		return len(items), nil
	}
	return 0, ir.Formatf("unknown position kind %d", int(pos.Kind))
}

// ReorderResult reports a reorder.
type ReorderResult struct {
	Moved              []string `json:"moved"`
	DroppedTransitions int      `json:"dropped_transitions"`
}

// Reorder moves clips of the primary storyline to pos, keeping the order in
// which refs are given. Offsets of the whole spine are recomputed; a
// transition left without an item on both sides is dropped.
func (e *Editor) Reorder(refs []string, pos Position) (ReorderResult, error) {
	if len(refs) == 0 {
		return ReorderResult{}, ir.Formatf("reorder needs at least one clip")
	}
	var res ReorderResult
	err := e.apply("reorder", func(tl *ir.Timeline) error {
		res = ReorderResult{}
		origin := tl.Origin()
		var moved []ir.SpineItem
		for _, ref := range refs {
			c, _, err := spineClip(tl, ref)
			if err != nil {
				return err
			}
			if slices.Contains(moved, ir.SpineItem(c)) {
				continue
			}
			moved = append(moved, c)
			res.Moved = append(res.Moved, c.ID)
		}

		rest := slices.DeleteFunc(slices.Clone(tl.Spine.Items), func(it ir.SpineItem) bool {
			return slices.Contains(moved, it)
		})
		at, err := insertionIndex(tl, rest, pos)
		if err != nil {
			return err
		}
		tl.Spine.Items = slices.Insert(rest, at, moved...)
		res.DroppedTransitions = e.relayout(tl, origin)
		return nil
	})
	return res, err
}
