package export

import (
	"log/slog"
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// DefaultVersion is the document version Simplify declares.
const DefaultVersion = "1.9"

// DefaultStripAttrs are removed when SimplifyOptions.StripAttrs is nil.
var DefaultStripAttrs = []string{"mcClipAngle", "modDate", "colorProcessing"}

// SimplifyOptions configures Simplify.
type SimplifyOptions struct {
	// Version defaults to DefaultVersion.
	Version string
	// StripAttrs names attributes removed wherever the model keeps them
	// opaquely. Nil means DefaultStripAttrs; an empty slice strips nothing.
	StripAttrs []string
	// KeepCompounds leaves ref-clips and their media in place.
	KeepCompounds bool
	Logger        *slog.Logger
}

func (o SimplifyOptions) withDefaults() SimplifyOptions {
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.StripAttrs == nil {
		o.StripAttrs = DefaultStripAttrs
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Simplify returns a copy of p that narrower importers accept. Compound
// clips are replaced by the window of their nested sequence they show,
// recursively; whatever was connected to a compound is re-hosted on the
// piece that covers it. Media no clip references any more is dropped. p is
// not modified.
func Simplify(p *ir.Project, opts SimplifyOptions) (*ir.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	out := p.Clone()

	if !opts.KeepCompounds {
		f := &flattener{logger: opts.Logger}
		for _, tl := range out.AllTimelines() {
			tl.Spine.Items = f.items(tl.Spine.Items)
		}
		dropUnusedMedia(out)
	}
	stripProject(out, opts.StripAttrs)
	out.Version = opts.Version

	if err := out.Validate(); err != nil {
		return nil, ir.Wrap(err, "simplified project")
	}
	for _, tl := range out.AllTimelines() {
		tl.Reindex()
	}
	return out, nil
}

type flattener struct {
	logger *slog.Logger
}

func (f *flattener) flattenable(c *ir.Clip) bool {
	if !c.IsCompound() || c.Nested == nil {
		return false
	}
	if c.TimeMap != nil {
		f.logger.Warn("retimed compound clip kept as is", "clip", c.Label())
		return false
	}
	return true
}

// items replaces every compound clip of a storyline by its pieces. Offsets
// of the other items do not change.
func (f *flattener) items(items []ir.SpineItem) []ir.SpineItem {
	out := make([]ir.SpineItem, 0, len(items))
	for _, it := range items {
		if c, ok := it.(*ir.Clip); ok && f.flattenable(c) {
			out = append(out, f.expand(c)...)
			continue
		}
		if h, ok := it.(ir.Host); ok {
			f.anchors(h)
		}
		out = append(out, it)
	}
	return out
}

func (f *flattener) anchors(h ir.Host) {
	list := h.Anchors()
	for i, a := range list {
		switch v := a.(type) {
		case *ir.Clip:
			if f.flattenable(v) {
				list[i] = &ir.Storyline{Lane: v.Lane, Offset: v.Offset, Name: v.Name, Items: f.expand(v)}
				continue
			}
			f.anchors(v)
		case *ir.Storyline:
			v.Items = f.items(v.Items)
		}
	}
}

// expand cuts the window [Start, Start+Duration) out of the compound's
// nested spine and places it at the compound's offset. Holes at either end
// of the window become gaps so the pieces always cover the full duration.
func (f *flattener) expand(c *ir.Clip) []ir.SpineItem {
	f.anchors(c)
	nested := f.items(ir.CloneItems(c.Nested.Spine.Items))
	from, to := c.Start, c.Start.Add(c.Duration)
	shift := c.Offset.Sub(from)

	var pieces []ir.SpineItem
	cursor := from
	place := func(item ir.SpineItem, at rational.TimeValue) {
		item.SetOffset(at.Add(shift).Simplify())
		pieces = append(pieces, item)
	}
	for _, it := range nested {
		off, dur := it.Span()
		end := off.Add(dur)
		if _, ok := it.(*ir.Transition); ok || !ir.Occupies(it) {
			if !off.Less(from) && !to.Less(end) {
				clearIDs(it)
				place(it, off)
			}
			continue
		}
		lo, hi := rational.Max(off, from), rational.Min(end, to)
		if !lo.Less(hi) {
			continue
		}
		if cursor.Less(lo) {
			place(&ir.Gap{Name: "Gap", Duration: lo.Sub(cursor).Simplify()}, cursor)
		}
		piece := window(it, lo.Sub(off), hi.Sub(lo))
		clearIDs(piece)
		place(piece, lo)
		cursor = hi
	}
	if cursor.Less(to) {
		place(&ir.Gap{Name: "Gap", Duration: to.Sub(cursor).Simplify()}, cursor)
	}

	f.rehost(c, pieces, shift)
	f.logger.Debug("flattened compound clip", "clip", c.Label(), "pieces", len(pieces))
	return pieces
}

// window trims an occupying item to dur starting head into it.
func window(item ir.SpineItem, head, dur rational.TimeValue) ir.SpineItem {
	_, full := item.Span()
	if head.IsZero() && dur.Equal(full) {
		return item
	}
	switch v := item.(type) {
	case *ir.Clip:
		v.Start = v.Start.Add(head).Simplify()
		v.Duration = dur.Simplify()
		v.Markers = markersWithin(v.Markers, v.Start, v.SourceEnd())
		return v
	case *ir.Gap:
		v.Start = v.Start.Add(head).Simplify()
		v.Duration = dur.Simplify()
		v.Markers = markersWithin(v.Markers, v.Start, v.Start.Add(v.Duration))
		return v
	}
	// Opaque content cannot be cut; what is left of it shows nothing.
	return &ir.Gap{Name: "Gap", Duration: dur.Simplify()}
}

func markersWithin(ms []*ir.Marker, from, to rational.TimeValue) []*ir.Marker {
	return slices.DeleteFunc(ms, func(m *ir.Marker) bool {
		return m.Start.Less(from) || !m.Start.Less(to)
	})
}

// rehost moves the compound's markers and connected items onto the piece
// covering their time, converted to that piece's local time.
func (f *flattener) rehost(c *ir.Clip, pieces []ir.SpineItem, shift rational.TimeValue) {
	var hosts []ir.Host
	for _, p := range pieces {
		if h, ok := p.(ir.Host); ok {
			hosts = append(hosts, h)
		}
	}
	if len(hosts) == 0 {
		if len(c.Markers) > 0 || len(c.Anchored) > 0 {
			f.logger.Warn("compound clip has nothing to carry its markers", "clip", c.Label())
		}
		return
	}
	for _, m := range c.Markers {
		at := m.Start.Add(shift)
		h := covering(hosts, at)
		m.Start = ir.LocalTime(h, at).Simplify()
		setMarkers(h, append(markersOn(h), m))
	}
	for _, a := range c.Anchored {
		switch v := a.(type) {
		case *ir.Clip:
			at := v.Offset.Add(shift)
			h := covering(hosts, at)
			v.Offset = ir.LocalTime(h, at).Simplify()
			setAnchors(h, append(h.Anchors(), v))
		case *ir.Storyline:
			at := v.Offset.Add(shift)
			h := covering(hosts, at)
			v.Offset = ir.LocalTime(h, at).Simplify()
			setAnchors(h, append(h.Anchors(), v))
		}
	}
	if len(c.Keywords) > 0 {
		f.logger.Debug("keywords of flattened compound dropped", "clip", c.Label(), "count", len(c.Keywords))
	}
}

// covering is the host whose span holds t, the first host for times before
// all of them and the last for times after.
func covering(hosts []ir.Host, t rational.TimeValue) ir.Host {
	for _, h := range hosts {
		off, dur := h.Span()
		if !t.Less(off) && t.Less(off.Add(dur)) {
			return h
		}
	}
	if off, _ := hosts[0].Span(); t.Less(off) {
		return hosts[0]
	}
	return hosts[len(hosts)-1]
}

func markersOn(h ir.Host) []*ir.Marker {
	switch v := h.(type) {
	case *ir.Clip:
		return v.Markers
	case *ir.Gap:
		return v.Markers
	}
	return nil
}

func setMarkers(h ir.Host, ms []*ir.Marker) {
	switch v := h.(type) {
	case *ir.Clip:
		v.Markers = ms
	case *ir.Gap:
		v.Markers = ms
	}
}

func setAnchors(h ir.Host, as []ir.Anchor) {
	switch v := h.(type) {
	case *ir.Clip:
		v.Anchored = as
	case *ir.Gap:
		v.Anchored = as
	}
}

// clearIDs forgets session ids copied from a nested sequence so the target
// timeline hands out its own.
func clearIDs(item ir.SpineItem) {
	switch v := item.(type) {
	case *ir.Clip:
		v.ID = ""
	case *ir.Gap:
		v.ID = ""
	case *ir.Transition:
		v.ID = ""
	case *ir.OpaqueItem:
		v.ID = ""
	}
	h, ok := item.(ir.Host)
	if !ok {
		return
	}
	for _, a := range h.Anchors() {
		switch v := a.(type) {
		case *ir.Clip:
			clearIDs(v)
		case *ir.Storyline:
			for _, it := range v.Items {
				clearIDs(it)
			}
		}
	}
}

// dropUnusedMedia removes media resources no clip reaches any more.
// Multicam media is referenced by mc-clips and so survives.
func dropUnusedMedia(p *ir.Project) {
	used := make(map[string]bool)
	var visit func(tl *ir.Timeline)
	visit = func(tl *ir.Timeline) {
		tl.WalkClips(func(c *ir.Clip, _ ir.Visit) {
			if c.Ref == "" || used[c.Ref] {
				return
			}
			used[c.Ref] = true
			if m, ok := p.Resources.Media(c.Ref); ok && m.Sequence != nil {
				visit(m.Sequence)
			}
		})
	}
	for _, tl := range p.AllTimelines() {
		visit(tl)
	}
	for _, res := range slices.Clone(p.Resources.Items()) {
		if m, ok := res.(*ir.Media); ok && !used[m.ID] {
			p.Resources.Remove(m.ID)
		}
	}
}

type stripper map[string]bool

func stripProject(p *ir.Project, names []string) {
	if len(names) == 0 {
		return
	}
	s := make(stripper, len(names))
	for _, n := range names {
		s[n] = true
	}
	s.bag(&p.Extra)
	if p.Library != nil {
		s.bag(&p.Library.Extra)
	}
	for _, ev := range p.AllEvents() {
		s.bag(&ev.Extra)
	}
	s.bag(&p.Resources.Extra)
	for _, res := range p.Resources.Items() {
		switch v := res.(type) {
		case *ir.Format:
			s.bag(&v.Extra)
		case *ir.Asset:
			s.bag(&v.Extra)
		case *ir.Effect:
			s.bag(&v.Extra)
		case *ir.Media:
			s.bag(&v.Extra)
		case *ir.OpaqueResource:
			s.node(v.Node)
		}
	}
	for _, tl := range append(p.AllTimelines(), p.CompoundTimelines()...) {
		s.timeline(tl)
	}
}

func (s stripper) timeline(tl *ir.Timeline) {
	s.bag(&tl.ProjectExtra)
	s.bag(&tl.SequenceExtra)
	s.bag(&tl.Spine.Extra)
	tl.Walk(func(v ir.Visit) {
		if v.Storyline != nil {
			s.bag(&v.Storyline.Extra)
		}
		switch it := v.Item.(type) {
		case *ir.Clip:
			s.bag(&it.Extra)
			s.markers(it.Markers)
			for _, k := range it.Keywords {
				s.bag(&k.Extra)
			}
			if it.TimeMap != nil {
				s.bag(&it.TimeMap.Extra)
				for i := range it.TimeMap.Points {
					s.bag(&it.TimeMap.Points[i].Extra)
				}
			}
		case *ir.Gap:
			s.bag(&it.Extra)
			s.markers(it.Markers)
		case *ir.Transition:
			s.bag(&it.Extra)
		case *ir.OpaqueItem:
			s.node(it.Node)
		}
	})
}

func (s stripper) markers(ms []*ir.Marker) {
	for _, m := range ms {
		s.bag(&m.Extra)
	}
}

func (s stripper) bag(o *ir.Opaque) {
	o.Attrs = slices.DeleteFunc(o.Attrs, func(a xmltree.Attr) bool { return s[a.Name] })
	for _, c := range o.Children {
		s.node(c)
	}
}

func (s stripper) node(n *xmltree.Node) {
	if n == nil {
		return
	}
	n.Walk(func(el *xmltree.Node) bool {
		el.Attrs = slices.DeleteFunc(el.Attrs, func(a xmltree.Attr) bool { return s[a.Name] })
		return true
	})
}
