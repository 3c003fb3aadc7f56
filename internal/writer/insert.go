package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// InsertRequest puts an asset on the primary storyline.
type InsertRequest struct {
	// Asset is a resource id or a unique asset name.
	Asset    string
	Position Position
	// In is the source in-point (default: the asset's start). Out, when
	// set, wins over Duration; with neither the rest of the asset is used.
	In       rational.TimeValue
	Out      *rational.TimeValue
	Duration rational.TimeValue
	Name     string
	// Ripple pushes later items back. Without it the clip must land inside
	// a gap long enough to hold it.
	Ripple bool
}

// InsertResult reports the inserted clip.
type InsertResult struct {
	ClipID   string             `json:"clip_id"`
	Offset   rational.TimeValue `json:"offset"`
	Duration rational.TimeValue `json:"duration"`
}

// InsertClip adds a new asset-clip to the primary storyline.
func (e *Editor) InsertClip(req InsertRequest) (InsertResult, error) {
	var clip *ir.Clip
	err := e.apply("insert_clip", func(tl *ir.Timeline) error {
		a, err := tl.Resources.FindAsset(req.Asset)
		if err != nil {
			return err
		}
		dur := req.Duration
		if req.Out != nil {
			in := req.In
			if in.IsZero() {
				in = a.Start
			}
			dur = req.Out.Sub(in)
			if dur.Sign() <= 0 {
				return ir.Structuralf("out point %s is not after the in point %s", *req.Out, in).WithSubject(a.ID)
			}
		}
		start, dur, err := assetRange(a, req.In, tl.FrameRate().AlignFloor(dur).Simplify())
		if err != nil {
			return err
		}
		name := SanitizeName(req.Name, e.text.Name)
		if name == "" {
			name = a.Name
		}
		clip = &ir.Clip{
			Kind:     ir.TagAssetClip,
			Name:     name,
			Ref:      a.ID,
			Start:    start,
			StartSet: true,
			Duration: dur,
		}
		if a.Format != "" && a.Format != tl.Format {
			clip.Format = a.Format
		}
		if req.Ripple || req.Position.Kind == PositionEnd {
			origin := tl.Origin()
			at, err := insertionIndex(tl, tl.Spine.Items, req.Position)
			if err != nil {
				return err
			}
			tl.Spine.Items = slices.Insert(tl.Spine.Items, at, ir.SpineItem(clip))
			e.relayout(tl, origin)
			return nil
		}
		return overwriteIntoGap(tl, clip, req.Position)
	})
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ClipID: clip.ID, Offset: clip.Offset, Duration: clip.Duration}, nil
}

// overwriteIntoGap places clip at the time pos names, carving it out of the
// gap that covers that time.
func overwriteIntoGap(tl *ir.Timeline, clip *ir.Clip, pos Position) error {
	var at rational.TimeValue
	switch pos.Kind {
	case PositionStart:
		at = tl.Origin()
	case PositionAt:
		at = tl.FrameRate().AlignFloor(pos.At).Simplify()
	case PositionAfter, PositionBefore:
		anchor, _, err := spineClip(tl, pos.Ref)
		if err != nil {
			return err
		}
		at = anchor.Offset
		if pos.Kind == PositionAfter {
			at = anchor.End()
		}
	}
	it, idx, ok := tl.ItemAt(at)
	g, isGap := it.(*ir.Gap)
	if !ok || !isGap {
		return ir.Structuralf("no gap at %s to insert into without ripple", at)
	}
	if len(g.Markers) > 0 || len(g.Anchored) > 0 {
		return ir.Structuralf("gap at %s carries markers or connected clips; insert with ripple instead", at).WithSubject(g.ID)
	}
	if ir.End(g).Less(at.Add(clip.Duration)) {
		return ir.Structuralf("gap at %s is too short for a %s clip", at, clip.Duration).WithSubject(g.ID)
	}

	clip.Offset = at
	pieces := make([]ir.SpineItem, 0, 3)
	if head := at.Sub(g.Offset); head.Sign() > 0 {
		h := newGap(head)
		h.Offset = g.Offset
		pieces = append(pieces, h)
	}
	pieces = append(pieces, clip)
	if tail := ir.End(g).Sub(clip.End()); tail.Sign() > 0 {
		t := newGap(tail)
		t.Offset = clip.End()
		pieces = append(pieces, t)
	}
	tl.Spine.Items = slices.Replace(tl.Spine.Items, idx, idx+1, pieces...)
	return nil
}
