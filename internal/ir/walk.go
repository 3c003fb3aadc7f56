package ir

import "github.com/roach88/spine/internal/rational"

// Visit describes one spine item reached by Walk.
type Visit struct {
	Item SpineItem
	// Host is nil for items on the primary storyline.
	Host      Host
	Storyline *Storyline
	// Index is the position within the containing list (spine or storyline
	// items, or the host's anchored list for lane clips).
	Index int
	Lane  int
}

// OnSpine reports whether the item sits on the primary storyline.
func (v Visit) OnSpine() bool { return v.Host == nil }

// Walk visits every item of the timeline depth first in document order:
// each host is followed by its lane clips and storyline contents.
func (tl *Timeline) Walk(fn func(Visit)) {
	if tl.Spine == nil {
		return
	}
	walkItems(tl.Spine.Items, nil, nil, 0, fn)
}

func walkItems(items []SpineItem, host Host, sl *Storyline, lane int, fn func(Visit)) {
	for i, it := range items {
		fn(Visit{Item: it, Host: host, Storyline: sl, Index: i, Lane: lane})
		if h, ok := it.(Host); ok {
			walkAnchors(h, fn)
		}
	}
}

func walkAnchors(h Host, fn func(Visit)) {
	for i, a := range h.Anchors() {
		switch v := a.(type) {
		case *Clip:
			fn(Visit{Item: v, Host: h, Index: i, Lane: v.Lane})
			walkAnchors(v, fn)
		case *Storyline:
			walkItems(v.Items, h, v, v.Lane, fn)
		}
	}
}

// WalkClips visits every clip, on any storyline or lane, in document order.
func (tl *Timeline) WalkClips(fn func(*Clip, Visit)) {
	tl.Walk(func(v Visit) {
		if c, ok := v.Item.(*Clip); ok {
			fn(c, v)
		}
	})
}

// WalkPlaced is Walk with each item's position on the timeline itself:
// lane clips and storyline items are placed through their host's local time.
func (tl *Timeline) WalkPlaced(fn func(v Visit, at rational.TimeValue)) {
	abs := make(map[Host]rational.TimeValue)
	tl.Walk(func(v Visit) {
		at, _ := v.Item.Span()
		if !v.OnSpine() {
			base := abs[v.Host].Sub(v.Host.LocalStart())
			if v.Storyline != nil {
				at = base.Add(v.Storyline.Offset).Add(at.Sub(v.Storyline.Origin()))
			} else {
				at = base.Add(at)
			}
		}
		if h, ok := v.Item.(Host); ok {
			abs[h] = at
		}
		fn(v, at)
	})
}
