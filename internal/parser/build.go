package parser

import (
	"log/slog"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/xmltree"
)

// builder walks one document tree into the model.
type builder struct {
	logger *slog.Logger
	res    *ir.Resources
}

func (b *builder) project(root *xmltree.Node) (*ir.Project, error) {
	r := readAttrs(root, "fcpxml")
	proj := &ir.Project{Version: r.str("version")}
	proj.Extra.Attrs = r.rest()

	// Resources come first so every later ref can be checked against them.
	if n := root.Child("resources"); n != nil {
		res, err := b.resources(n)
		if err != nil {
			return nil, err
		}
		proj.Resources = res
	} else {
		proj.Resources = ir.NewResources()
	}
	b.res = proj.Resources

	seenResources := false
	for _, el := range root.Elements() {
		switch el.Name {
		case "resources":
			if seenResources {
				return nil, ir.Structuralf("document has more than one <resources> element")
			}
			seenResources = true
		case "library":
			if proj.Library != nil {
				return nil, ir.Structuralf("document has more than one <library> element")
			}
			lib, err := b.library(el)
			if err != nil {
				return nil, err
			}
			proj.Library = lib
		case "event":
			ev, err := b.event(el)
			if err != nil {
				return nil, err
			}
			proj.Events = append(proj.Events, ev)
		case "project":
			tl, err := b.projectTimeline(el)
			if err != nil {
				return nil, err
			}
			proj.Timelines = append(proj.Timelines, tl)
		default:
			proj.Extra.Children = append(proj.Extra.Children, el)
		}
	}
	return proj, nil
}

func (b *builder) library(n *xmltree.Node) (*ir.Library, error) {
	lib := &ir.Library{}
	lib.Extra.Attrs = n.Attrs
	for _, el := range n.Elements() {
		if el.Name != "event" {
			lib.Extra.Children = append(lib.Extra.Children, el)
			continue
		}
		ev, err := b.event(el)
		if err != nil {
			return nil, err
		}
		lib.Events = append(lib.Events, ev)
	}
	return lib, nil
}

func (b *builder) event(n *xmltree.Node) (*ir.Event, error) {
	r := readAttrs(n, subjectOf(n))
	ev := &ir.Event{Name: r.str("name"), UID: r.str("uid")}
	ev.Extra.Attrs = r.rest()
	for _, el := range n.Elements() {
		if el.Name != "project" {
			ev.Extra.Children = append(ev.Extra.Children, el)
			continue
		}
		tl, err := b.projectTimeline(el)
		if err != nil {
			return nil, err
		}
		ev.Timelines = append(ev.Timelines, tl)
	}
	return ev, nil
}

// projectTimeline reads a <project> and the <sequence> it wraps.
func (b *builder) projectTimeline(n *xmltree.Node) (*ir.Timeline, error) {
	r := readAttrs(n, subjectOf(n))
	name, uid := r.str("name"), r.str("uid")

	var (
		tl    *ir.Timeline
		extra []*xmltree.Node
	)
	for _, el := range n.Elements() {
		if el.Name == "sequence" && tl == nil {
			seq, err := b.sequence(el, b.res)
			if err != nil {
				return nil, err
			}
			tl = seq
			continue
		}
		extra = append(extra, el)
	}
	if tl == nil {
		return nil, ir.Structuralf("project has no sequence").WithSubject(name)
	}
	tl.Name = name
	tl.UID = uid
	tl.ProjectExtra = ir.Opaque{Attrs: r.rest(), Children: extra}
	return tl, nil
}

func (b *builder) sequence(n *xmltree.Node, res *ir.Resources) (*ir.Timeline, error) {
	r := readAttrs(n, "sequence")
	tl := &ir.Timeline{
		Format:    r.str("format"),
		Duration:  r.time("duration"),
		TCStart:   r.time("tcStart"),
		TCFormat:  r.str("tcFormat"),
		Resources: res,
	}
	if r.err != nil {
		return nil, r.err
	}
	tl.SequenceExtra.Attrs = r.rest()

	for _, el := range n.Elements() {
		if el.Name != ir.TagSpine || tl.Spine != nil {
			tl.SequenceExtra.Children = append(tl.SequenceExtra.Children, el)
			continue
		}
		if _, hasLane := el.Attr("lane"); hasLane {
			return nil, ir.Structuralf("primary spine carries a lane")
		}
		items, err := b.items(el, true)
		if err != nil {
			return nil, err
		}
		tl.Spine = &ir.Spine{Items: items, Extra: ir.Opaque{Attrs: el.Attrs}}
	}
	if tl.Spine == nil {
		tl.Spine = &ir.Spine{}
	}
	return tl, nil
}

// items reads the children of a spine or storyline in one pass.
func (b *builder) items(n *xmltree.Node, primary bool) ([]ir.SpineItem, error) {
	var items []ir.SpineItem
	for _, el := range n.Elements() {
		if _, hasLane := el.Attr("lane"); hasLane && (ir.IsClipTag(el.Name) || el.Name == ir.TagSpine) {
			where := "secondary storyline"
			if primary {
				where = "primary storyline"
			}
			return nil, ir.Structuralf("connected element sits directly on the %s with no host", where).
				WithSubject(subjectOf(el))
		}
		var (
			it  ir.SpineItem
			err error
		)
		switch {
		case ir.IsClipTag(el.Name):
			it, err = b.clip(el)
		case el.Name == ir.TagGap:
			it, err = b.gap(el)
		case el.Name == ir.TagTransit:
			it, err = parseTransition(el)
		default:
			it, err = parseOpaqueItem(el)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (b *builder) clip(n *xmltree.Node) (*ir.Clip, error) {
	r := readAttrs(n, subjectOf(n))
	c := &ir.Clip{
		Kind:      n.Name,
		Name:      r.str("name"),
		Ref:       r.str("ref"),
		Offset:    r.time("offset"),
		Duration:  r.time("duration"),
		Lane:      r.int("lane"),
		Format:    r.str("format"),
		Role:      r.str("role"),
		AudioRole: r.str("audioRole"),
		VideoRole: r.str("videoRole"),
	}
	c.Start, c.StartSet = r.timeOK("start")
	if r.err != nil {
		return nil, r.err
	}
	c.Extra.Attrs = r.rest()

	for _, el := range n.Elements() {
		switch {
		case ir.IsMarkerTag(el.Name):
			m, err := parseMarker(el, c.Label())
			if err != nil {
				return nil, err
			}
			c.Markers = append(c.Markers, m)
		case el.Name == "keyword":
			k, err := parseKeyword(el, c.Label())
			if err != nil {
				return nil, err
			}
			c.Keywords = append(c.Keywords, k)
		case el.Name == "timeMap" && c.TimeMap == nil:
			tm, err := parseTimeMap(el, c.Label())
			if err != nil {
				return nil, err
			}
			c.TimeMap = tm
		default:
			a, ok, err := b.anchor(el)
			if err != nil {
				return nil, err
			}
			if ok {
				c.Anchored = append(c.Anchored, a)
				continue
			}
			c.Extra.Children = append(c.Extra.Children, el)
		}
	}
	return c, nil
}

// anchor reads a lane clip or a secondary storyline. Elements without a
// lane attribute (a sync-clip's own contents, say) are not anchors.
func (b *builder) anchor(n *xmltree.Node) (ir.Anchor, bool, error) {
	if _, hasLane := n.Attr("lane"); !hasLane {
		return nil, false, nil
	}
	switch {
	case ir.IsClipTag(n.Name):
		c, err := b.clip(n)
		if err != nil {
			return nil, false, err
		}
		if c.Lane == 0 {
			return nil, false, ir.Structuralf("connected clip has lane 0").WithSubject(c.Label())
		}
		return c, true, nil
	case n.Name == ir.TagSpine || n.Name == ir.TagStoryline:
		s, err := b.storyline(n)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	}
	return nil, false, nil
}

func (b *builder) storyline(n *xmltree.Node) (*ir.Storyline, error) {
	r := readAttrs(n, subjectOf(n))
	s := &ir.Storyline{
		Lane:   r.int("lane"),
		Offset: r.time("offset"),
		Name:   r.str("name"),
		Format: r.str("format"),
	}
	if r.err != nil {
		return nil, r.err
	}
	if s.Lane == 0 {
		return nil, ir.Structuralf("secondary storyline has lane 0").WithSubject(subjectOf(n))
	}
	s.Extra.Attrs = r.rest()
	items, err := b.items(n, false)
	if err != nil {
		return nil, err
	}
	s.Items = items
	return s, nil
}

func (b *builder) gap(n *xmltree.Node) (*ir.Gap, error) {
	r := readAttrs(n, subjectOf(n))
	g := &ir.Gap{
		Name:     r.str("name"),
		Offset:   r.time("offset"),
		Duration: r.time("duration"),
	}
	g.Start, g.StartSet = r.timeOK("start")
	if r.err != nil {
		return nil, r.err
	}
	g.Extra.Attrs = r.rest()

	for _, el := range n.Elements() {
		if ir.IsMarkerTag(el.Name) {
			m, err := parseMarker(el, "gap")
			if err != nil {
				return nil, err
			}
			g.Markers = append(g.Markers, m)
			continue
		}
		a, ok, err := b.anchor(el)
		if err != nil {
			return nil, err
		}
		if ok {
			g.Anchored = append(g.Anchored, a)
			continue
		}
		g.Extra.Children = append(g.Extra.Children, el)
	}
	return g, nil
}

func parseTransition(n *xmltree.Node) (*ir.Transition, error) {
	r := readAttrs(n, subjectOf(n))
	t := &ir.Transition{
		Name:     r.str("name"),
		Offset:   r.time("offset"),
		Duration: r.time("duration"),
	}
	if r.err != nil {
		return nil, r.err
	}
	t.Extra = ir.Opaque{Attrs: r.rest(), Children: n.Elements()}
	return t, nil
}

// parseOpaqueItem keeps an uninterpreted storyline element whole. Its span
// is read from its own offset and duration, or from its first child's (an
// audition is timed by the clip it shows).
func parseOpaqueItem(n *xmltree.Node) (*ir.OpaqueItem, error) {
	src := n
	if _, ok := n.Attr("duration"); !ok {
		if els := n.Elements(); len(els) > 0 {
			src = els[0]
		}
	}
	r := readAttrs(src, subjectOf(n))
	o := &ir.OpaqueItem{
		Offset:   r.time("offset"),
		Duration: r.time("duration"),
		Node:     n,
	}
	if r.err != nil {
		return nil, r.err
	}
	return o, nil
}

// parseMarker classifies and reads one marker element. The variant decides
// which attributes are modelled; everything else is kept opaque.
func parseMarker(n *xmltree.Node, host string) (*ir.Marker, error) {
	completed, hasCompleted := n.Attr("completed")
	kind := ir.ClassifyMarker(n.Name, completed, hasCompleted)

	r := readAttrs(n, host)
	m := &ir.Marker{
		Kind:     kind,
		Start:    r.time("start"),
		Duration: r.time("duration"),
		Value:    r.str("value"),
	}
	if kind.AllowsNote() {
		m.Note = r.str("note")
	}
	if kind == ir.MarkerChapter {
		m.PosterOffset, m.PosterSet = r.timeOK("posterOffset")
	}
	if _, ok := kind.CompletedValue(); ok {
		r.used["completed"] = true
	}
	if r.err != nil {
		return nil, r.err
	}
	m.Extra = ir.Opaque{Attrs: r.rest(), Children: n.Elements()}
	return m, nil
}

func parseKeyword(n *xmltree.Node, host string) (*ir.Keyword, error) {
	r := readAttrs(n, host)
	k := &ir.Keyword{
		Value:    r.str("value"),
		Start:    r.time("start"),
		Duration: r.time("duration"),
	}
	if r.err != nil {
		return nil, r.err
	}
	k.Extra = ir.Opaque{Attrs: r.rest(), Children: n.Elements()}
	return k, nil
}

func parseTimeMap(n *xmltree.Node, host string) (*ir.TimeMap, error) {
	tm := &ir.TimeMap{}
	tm.Extra.Attrs = n.Attrs
	for _, el := range n.Elements() {
		if el.Name != "timept" {
			tm.Extra.Children = append(tm.Extra.Children, el)
			continue
		}
		r := readAttrs(el, host)
		pt := ir.TimePoint{
			Time:   r.time("time"),
			Value:  r.time("value"),
			Interp: r.str("interp"),
		}
		if r.err != nil {
			return nil, r.err
		}
		pt.Extra = ir.Opaque{Attrs: r.rest(), Children: el.Elements()}
		tm.Points = append(tm.Points, pt)
	}
	return tm, nil
}
