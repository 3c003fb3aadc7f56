package ir

// Clone deep-copies the project. Session ids are kept so a reference that
// resolved before the copy resolves to the same item after it. Compound
// links are rebuilt against the copied resources.
func (p *Project) Clone() *Project {
	c := &Project{
		Version:   p.Version,
		Resources: p.Resources.clone(),
		Extra:     p.Extra.Clone(),
	}
	if p.Library != nil {
		c.Library = &Library{Extra: p.Library.Extra.Clone()}
		for _, ev := range p.Library.Events {
			c.Library.Events = append(c.Library.Events, ev.clone(c.Resources))
		}
	}
	for _, ev := range p.Events {
		c.Events = append(c.Events, ev.clone(c.Resources))
	}
	for _, tl := range p.Timelines {
		c.Timelines = append(c.Timelines, tl.clone(c.Resources))
	}
	// The source was resolved already, so relinking cannot fail here.
	_ = c.ResolveCompounds()
	return c
}

func (ev *Event) clone(res *Resources) *Event {
	c := &Event{Name: ev.Name, UID: ev.UID, Extra: ev.Extra.Clone()}
	for _, tl := range ev.Timelines {
		c.Timelines = append(c.Timelines, tl.clone(res))
	}
	return c
}

func (r *Resources) clone() *Resources {
	c := NewResources()
	c.Extra = r.Extra.Clone()
	for _, res := range r.items {
		var cp Resource
		switch v := res.(type) {
		case *Format:
			f := *v
			f.Extra = v.Extra.Clone()
			cp = &f
		case *Asset:
			a := *v
			a.Extra = v.Extra.Clone()
			cp = &a
		case *Effect:
			e := *v
			e.Extra = v.Extra.Clone()
			cp = &e
		case *Media:
			m := *v
			m.Extra = v.Extra.Clone()
			if v.Sequence != nil {
				m.Sequence = v.Sequence.clone(c)
			}
			cp = &m
		case *OpaqueResource:
			cp = &OpaqueResource{ID: v.ID, Node: v.Node.Clone()}
		}
		_ = c.Add(cp)
	}
	return c
}

// Clone copies the timeline within the same resource table.
func (tl *Timeline) Clone() *Timeline {
	return tl.clone(tl.Resources)
}

func (tl *Timeline) clone(res *Resources) *Timeline {
	c := *tl
	c.Resources = res
	c.ProjectExtra = tl.ProjectExtra.Clone()
	c.SequenceExtra = tl.SequenceExtra.Clone()
	c.index = nil
	c.nextID = nil
	if tl.nextID != nil {
		c.nextID = make(map[byte]int, len(tl.nextID))
		for k, v := range tl.nextID {
			c.nextID[k] = v
		}
	}
	if tl.Spine != nil {
		c.Spine = &Spine{Items: CloneItems(tl.Spine.Items), Extra: tl.Spine.Extra.Clone()}
	}
	return &c
}

// CloneItems deep-copies storyline items.
func CloneItems(items []SpineItem) []SpineItem {
	if items == nil {
		return nil
	}
	out := make([]SpineItem, len(items))
	for i, it := range items {
		out[i] = CloneItem(it)
	}
	return out
}

// CloneItem deep-copies one storyline item with its markers and anchors.
func CloneItem(item SpineItem) SpineItem {
	switch v := item.(type) {
	case *Clip:
		return v.Clone()
	case *Gap:
		g := *v
		g.Markers = cloneMarkers(v.Markers)
		g.Anchored = cloneAnchors(v.Anchored)
		g.Extra = v.Extra.Clone()
		return &g
	case *Transition:
		t := *v
		t.Extra = v.Extra.Clone()
		return &t
	case *OpaqueItem:
		o := *v
		o.Node = v.Node.Clone()
		return &o
	}
	return item
}

// Clone deep-copies the clip, its markers and everything attached to it.
// The compound link is shared; it points into the resource table.
func (c *Clip) Clone() *Clip {
	cp := *c
	cp.Markers = cloneMarkers(c.Markers)
	if c.Keywords != nil {
		cp.Keywords = make([]*Keyword, len(c.Keywords))
		for i, k := range c.Keywords {
			cp.Keywords[i] = k.Clone()
		}
	}
	if c.TimeMap != nil {
		tm := &TimeMap{Extra: c.TimeMap.Extra.Clone()}
		for _, pt := range c.TimeMap.Points {
			pt.Extra = pt.Extra.Clone()
			tm.Points = append(tm.Points, pt)
		}
		cp.TimeMap = tm
	}
	cp.Anchored = cloneAnchors(c.Anchored)
	cp.Extra = c.Extra.Clone()
	return &cp
}

func cloneMarkers(ms []*Marker) []*Marker {
	if ms == nil {
		return nil
	}
	out := make([]*Marker, len(ms))
	for i, m := range ms {
		out[i] = m.Clone()
	}
	return out
}

func cloneAnchors(as []Anchor) []Anchor {
	if as == nil {
		return nil
	}
	out := make([]Anchor, len(as))
	for i, a := range as {
		switch v := a.(type) {
		case *Clip:
			out[i] = v.Clone()
		case *Storyline:
			s := *v
			s.Items = CloneItems(v.Items)
			s.Extra = v.Extra.Clone()
			out[i] = &s
		}
	}
	return out
}
