package writer

import (
	"fmt"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// MarkerSpec describes a marker to build. Start is in the host's local time.
// A zero Duration means one frame.
type MarkerSpec struct {
	Kind     ir.MarkerKind
	Start    rational.TimeValue
	Duration rational.TimeValue
	Value    string
	Note     string
}

// NewMarker is the only way the writer builds markers. It sanitizes the
// text, rejects a note on a chapter marker and gives the marker one frame of
// duration at rate unless the spec sets one.
func NewMarker(spec MarkerSpec, rate rational.FrameRate, limits TextLimits) (*ir.Marker, error) {
	limits = limits.withDefaults()
	if !spec.Kind.Valid() {
		return nil, ir.Formatf("invalid marker kind %d", int(spec.Kind))
	}
	value := SanitizeName(spec.Value, limits.Name)
	if value == "" {
		return nil, ir.Formatf("marker needs a name")
	}
	note := SanitizeNote(spec.Note, limits.Note)
	if note != "" && !spec.Kind.AllowsNote() {
		return nil, ir.Formatf("%s markers cannot carry a note", spec.Kind).WithSubject(value)
	}
	if spec.Start.Sign() < 0 {
		return nil, ir.Structuralf("marker starts before its host").WithSubject(value)
	}
	dur := spec.Duration
	switch {
	case dur.Sign() < 0:
		return nil, ir.Structuralf("negative marker duration").WithSubject(value)
	case dur.IsZero():
		if rate.IsZero() {
			rate = rational.Rate24
		}
		dur = rate.FrameDuration()
	}
	return &ir.Marker{
		Kind:      spec.Kind,
		Start:     spec.Start.Simplify(),
		Duration:  dur,
		Value:     value,
		Note:      note,
		PosterSet: spec.Kind == ir.MarkerChapter,
	}, nil
}

func (e *Editor) newMarker(tl *ir.Timeline, spec MarkerSpec) (*ir.Marker, error) {
	return NewMarker(spec, tl.FrameRate(), e.text)
}

// MarkerRequest places one marker.
//
// With Clip set, At is measured from the clip's first visible frame. With
// Clip empty, At is a timeline time and the marker lands on whatever clip or
// gap of the primary storyline covers it.
type MarkerRequest struct {
	Clip     string
	At       rational.TimeValue
	Kind     ir.MarkerKind
	Value    string
	Note     string
	Duration rational.TimeValue
}

// MarkerResult says where a marker went.
type MarkerResult struct {
	Host  string             `json:"host"`
	Kind  ir.MarkerKind      `json:"kind"`
	Start rational.TimeValue `json:"start"`
}

// AddMarker inserts one marker. At is snapped down to a frame boundary.
func (e *Editor) AddMarker(req MarkerRequest) (MarkerResult, error) {
	var res MarkerResult
	err := e.apply("add_marker", func(tl *ir.Timeline) error {
		rate := tl.FrameRate()
		at := rate.AlignFloor(req.At)
		if at.Sign() < 0 {
			return ir.Structuralf("marker time %s is negative", req.At)
		}

		var (
			hostID string
			local  rational.TimeValue
			attach func(*ir.Marker)
		)
		if req.Clip != "" {
			c, _, err := tl.Index().LookupClip(req.Clip)
			if err != nil {
				return err
			}
			if !at.Less(c.Duration) {
				return ir.Structuralf("marker at %s is past the end of the clip (%s long)", at, c.Duration).WithSubject(c.Label())
			}
			hostID, local = c.ID, c.Start.Add(at)
			attach = func(m *ir.Marker) { c.Markers = append(c.Markers, m) }
		} else {
			it, _, ok := tl.ItemAt(at)
			if !ok {
				return ir.Structuralf("no clip or gap at %s", at)
			}
			switch h := it.(type) {
			case *ir.Clip:
				attach = func(m *ir.Marker) { h.Markers = append(h.Markers, m) }
			case *ir.Gap:
				attach = func(m *ir.Marker) { h.Markers = append(h.Markers, m) }
			default:
				return ir.Structuralf("cannot place a marker on %s", itemLabel(it))
			}
			hostID, local = it.ItemID(), ir.LocalTime(it.(ir.Host), at)
		}

		m, err := e.newMarker(tl, MarkerSpec{
			Kind: req.Kind, Start: local, Duration: req.Duration,
			Value: req.Value, Note: req.Note,
		})
		if err != nil {
			return err
		}
		attach(m)
		res = MarkerResult{Host: hostID, Kind: m.Kind, Start: m.Start}
		return nil
	})
	return res, err
}

// BatchResult lists the markers a batch operation placed.
type BatchResult struct {
	Placed []MarkerResult `json:"placed"`
}

// AddMarkersAtCuts puts a marker on the first frame of every clip on the
// primary storyline, named "<prefix> N" by spine position. Clips sharing a
// name each get their own marker.
func (e *Editor) AddMarkersAtCuts(kind ir.MarkerKind, prefix string) (BatchResult, error) {
	if prefix == "" {
		prefix = "Cut"
	}
	var res BatchResult
	err := e.apply("add_markers_at_cuts", func(tl *ir.Timeline) error {
		res = BatchResult{}
		for i, c := range tl.Clips() {
			m, err := e.newMarker(tl, MarkerSpec{Kind: kind, Start: c.Start, Value: fmt.Sprintf("%s %d", prefix, i+1)})
			if err != nil {
				return err
			}
			c.Markers = append(c.Markers, m)
			res.Placed = append(res.Placed, MarkerResult{Host: c.ID, Kind: kind, Start: m.Start})
		}
		return nil
	})
	return res, err
}

// AddMarkersAtInterval puts a marker every interval from the timeline's
// origin. Positions that fall on a gap are skipped; markers are numbered in
// the order they are placed.
func (e *Editor) AddMarkersAtInterval(interval rational.TimeValue, kind ir.MarkerKind, prefix string) (BatchResult, error) {
	if interval.Sign() <= 0 {
		return BatchResult{}, ir.Formatf("marker interval must be positive, got %s", interval)
	}
	if prefix == "" {
		prefix = "Marker"
	}
	var res BatchResult
	err := e.apply("add_markers_at_interval", func(tl *ir.Timeline) error {
		res = BatchResult{}
		origin, end := tl.Origin(), tl.End()
		for t := origin.Add(interval); t.Less(end); t = t.Add(interval) {
			at := tl.FrameRate().AlignFloor(t)
			it, _, ok := tl.ItemAt(at)
			c, isClip := it.(*ir.Clip)
			if !ok || !isClip {
				continue
			}
			m, err := e.newMarker(tl, MarkerSpec{
				Kind:  kind,
				Start: ir.LocalTime(c, at),
				Value: fmt.Sprintf("%s %d", prefix, len(res.Placed)+1),
			})
			if err != nil {
				return err
			}
			c.Markers = append(c.Markers, m)
			res.Placed = append(res.Placed, MarkerResult{Host: c.ID, Kind: kind, Start: m.Start})
		}
		return nil
	})
	return res, err
}
