package ir

import (
	"github.com/roach88/spine/internal/rational"
)

// Validate checks the structural invariants of one timeline:
//   - the timeline format and every clip ref resolves
//   - occupying items on every storyline are contiguous: no overlap, no hole
//   - clips and gaps have positive duration and a non-negative start
//   - lane clips and secondary storylines sit on a non-zero lane
//   - transitions have positive duration
//   - retime maps advance in timeline time
//
// It does not resolve compound clips; Project.Validate does that.
func (tl *Timeline) Validate() error {
	if tl.Spine == nil {
		return Structuralf("timeline has no spine").WithSubject(tl.Label())
	}
	if tl.Format != "" {
		if _, ok := tl.Resources.Format(tl.Format); !ok {
			return Referencef("timeline format does not resolve").WithSubject(tl.Format)
		}
	}
	return tl.validateItems(tl.Spine.Items)
}

func (tl *Timeline) validateItems(items []SpineItem) error {
	var (
		cursor  rational.TimeValue
		started bool
		prev    SpineItem
	)
	for _, it := range items {
		if c, ok := it.(*Clip); ok && c.Lane != 0 {
			return Structuralf("clip on a storyline carries lane %d", c.Lane).WithSubject(c.Label())
		}
		if err := tl.validateItem(it); err != nil {
			return err
		}
		if !Occupies(it) {
			continue
		}
		off, dur := it.Span()
		if started {
			switch off.Cmp(cursor) {
			case -1:
				return Structuralf("%s overlaps %s on the storyline at %s", itemLabel(it), itemLabel(prev), off).
					WithSubject(it.ItemID())
			case 1:
				return Structuralf("hole between %s and %s (%s to %s); use an explicit gap",
					itemLabel(prev), itemLabel(it), cursor, off).WithSubject(it.ItemID())
			}
		}
		started = true
		cursor = off.Add(dur)
		prev = it
	}
	return nil
}

func (tl *Timeline) validateItem(item SpineItem) error {
	switch it := item.(type) {
	case *Clip:
		if err := tl.validateClip(it); err != nil {
			return err
		}
		return tl.validateAnchors(it)
	case *Gap:
		if it.Duration.Sign() <= 0 {
			return Structuralf("gap has non-positive duration %s", it.Duration).WithSubject(it.ID)
		}
		if err := validateMarkers(it.Markers, it.ID); err != nil {
			return err
		}
		return tl.validateAnchors(it)
	case *Transition:
		if it.Duration.Sign() <= 0 {
			return Structuralf("transition has non-positive duration %s", it.Duration).WithSubject(it.ID)
		}
	}
	return nil
}

func (tl *Timeline) validateClip(c *Clip) error {
	if c.Duration.Sign() <= 0 {
		return Structuralf("clip has non-positive duration %s", c.Duration).WithSubject(c.Label())
	}
	if c.Start.Sign() < 0 {
		return Structuralf("clip starts before its source (%s)", c.Start).WithSubject(c.Label())
	}
	if c.Ref != "" {
		res, ok := tl.Resources.Get(c.Ref)
		if !ok {
			return Referencef("clip references missing resource %q", c.Ref).WithSubject(c.Label())
		}
		if _, isMedia := res.(*Media); c.IsCompound() && !isMedia {
			return Referencef("compound clip must reference a media resource, %q is not one", c.Ref).
				WithSubject(c.Label())
		}
	}
	if c.Format != "" {
		if _, ok := tl.Resources.Format(c.Format); !ok {
			return Referencef("clip format %q does not resolve", c.Format).WithSubject(c.Label())
		}
	}
	if c.TimeMap != nil {
		pts := c.TimeMap.Points
		for i := 1; i < len(pts); i++ {
			if !pts[i-1].Time.Less(pts[i].Time) {
				return Structuralf("time map is not increasing at point %d", i).WithSubject(c.Label())
			}
		}
	}
	return validateMarkers(c.Markers, c.Label())
}

func validateMarkers(markers []*Marker, subject string) error {
	for _, m := range markers {
		if !m.Kind.Valid() {
			return Structuralf("marker %q has unknown kind", m.Value).WithSubject(subject)
		}
		if m.Duration.Sign() < 0 {
			return Structuralf("marker %q has negative duration", m.Value).WithSubject(subject)
		}
	}
	return nil
}

func (tl *Timeline) validateAnchors(h Host) error {
	for _, a := range h.Anchors() {
		switch v := a.(type) {
		case *Clip:
			if v.Lane == 0 {
				return Structuralf("connected clip has no lane").WithSubject(v.Label())
			}
			if err := tl.validateClip(v); err != nil {
				return err
			}
			if err := tl.validateAnchors(v); err != nil {
				return err
			}
		case *Storyline:
			if v.Lane == 0 {
				return Structuralf("secondary storyline has no lane").WithSubject(v.Name)
			}
			if err := tl.validateItems(v.Items); err != nil {
				return err
			}
		}
	}
	return nil
}

func itemLabel(it SpineItem) string {
	switch v := it.(type) {
	case *Clip:
		return "clip " + v.Label()
	case *Gap:
		return "gap " + v.ID
	case *OpaqueItem:
		return "element " + v.Node.Name
	}
	return it.ItemID()
}
