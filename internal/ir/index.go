package ir

import (
	"strings"
)

// Location is where an indexed item lives.
type Location struct {
	Visit
}

// Clip returns the located clip, or nil for gaps and transitions.
func (l Location) Clip() *Clip {
	c, _ := l.Item.(*Clip)
	return c
}

// Index gives O(1) access to every item of a timeline by session id and to
// clips by name. Names are not unique, so name lookups return every match.
type Index struct {
	byID   map[string]Location
	byName map[string][]string
	order  []string
}

// Reindex assigns ids to new items and rebuilds the index. Every mutation
// of the spine must be followed by Reindex before the index is used again.
func (tl *Timeline) Reindex() *Index {
	tl.Walk(func(v Visit) { tl.noteID(v.Item.ItemID()) })

	ix := &Index{
		byID:   make(map[string]Location),
		byName: make(map[string][]string),
	}
	tl.Walk(func(v Visit) {
		id := v.Item.ItemID()
		if id == "" {
			id = tl.assignID(v.Item)
		}
		ix.byID[id] = Location{Visit: v}
		ix.order = append(ix.order, id)
		if c, ok := v.Item.(*Clip); ok && c.Name != "" {
			ix.byName[c.Name] = append(ix.byName[c.Name], id)
		}
	})
	tl.index = ix
	return ix
}

func (tl *Timeline) assignID(item SpineItem) string {
	switch it := item.(type) {
	case *Clip:
		it.ID = tl.newID('c')
		return it.ID
	case *Gap:
		it.ID = tl.newID('g')
		return it.ID
	case *Transition:
		it.ID = tl.newID('t')
		return it.ID
	case *OpaqueItem:
		it.ID = tl.newID('x')
		return it.ID
	}
	return ""
}

// Index returns the current index, building it on first use.
func (tl *Timeline) Index() *Index {
	if tl.index == nil {
		return tl.Reindex()
	}
	return tl.index
}

// Get returns the item with the given session id.
func (ix *Index) Get(id string) (Location, bool) {
	loc, ok := ix.byID[id]
	return loc, ok
}

// ByName returns every clip with the given name, in document order.
func (ix *Index) ByName(name string) []Location {
	ids := ix.byName[name]
	out := make([]Location, 0, len(ids))
	for _, id := range ids {
		out = append(out, ix.byID[id])
	}
	return out
}

// Lookup resolves ref as a session id first, then as a clip name. A name
// shared by several clips is an error listing their ids.
func (ix *Index) Lookup(ref string) (Location, error) {
	if loc, ok := ix.byID[ref]; ok {
		return loc, nil
	}
	ids := ix.byName[ref]
	switch len(ids) {
	case 0:
		return Location{}, Referencef("no clip with this id or name").WithSubject(ref)
	case 1:
		return ix.byID[ids[0]], nil
	}
	return Location{}, Referencef("clip name matches %d clips (%s); use a clip id",
		len(ids), strings.Join(ids, ", ")).WithSubject(ref)
}

// LookupClip is Lookup restricted to clips.
func (ix *Index) LookupClip(ref string) (*Clip, Location, error) {
	loc, err := ix.Lookup(ref)
	if err != nil {
		return nil, Location{}, err
	}
	c := loc.Clip()
	if c == nil {
		return nil, Location{}, Referencef("item is not a clip").WithSubject(ref)
	}
	return c, loc, nil
}

// Locations returns every indexed item in document order.
func (ix *Index) Locations() []Location {
	out := make([]Location, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.byID[id])
	}
	return out
}

// Len is the number of indexed items.
func (ix *Index) Len() int { return len(ix.order) }
