package ir

import (
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// Clip element names the model recognises.
const (
	TagAssetClip = "asset-clip"
	TagClip      = "clip"
	TagRefClip   = "ref-clip"
	TagMCClip    = "mc-clip"
	TagSyncClip  = "sync-clip"
	TagVideo     = "video"
	TagAudio     = "audio"
	TagTitle     = "title"
	TagGap       = "gap"
	TagTransit   = "transition"
	TagSpine     = "spine"
	TagStoryline = "storyline"
)

var clipTags = map[string]bool{
	TagAssetClip: true,
	TagClip:      true,
	TagRefClip:   true,
	TagMCClip:    true,
	TagSyncClip:  true,
	TagVideo:     true,
	TagAudio:     true,
	TagTitle:     true,
}

// IsClipTag reports whether tag is a clip element.
func IsClipTag(tag string) bool { return clipTags[tag] }

// SpineItem is one child of a spine or storyline. The set is closed:
// *Clip, *Gap, *Transition and *OpaqueItem.
type SpineItem interface {
	ItemID() string
	Span() (offset, duration rational.TimeValue)
	SetOffset(rational.TimeValue)
	spineItem()
}

// Occupies reports whether item covers storyline time. Transitions overlap
// their neighbours and opaque items without a duration take no time.
func Occupies(item SpineItem) bool {
	switch it := item.(type) {
	case *Clip, *Gap:
		return true
	case *OpaqueItem:
		return it.Duration.Sign() > 0
	}
	return false
}

// End returns offset+duration of item.
func End(item SpineItem) rational.TimeValue {
	off, dur := item.Span()
	return off.Add(dur)
}

// Host is a spine item that can carry connected clips and markers.
type Host interface {
	SpineItem
	LocalStart() rational.TimeValue
	Anchors() []Anchor
}

// Anchor is something attached to a host on a lane: a *Clip or a *Storyline.
type Anchor interface {
	AnchorLane() int
	anchor()
}

// Clip is any clip element: asset-clip, clip, ref-clip, mc-clip, sync-clip,
// video, audio or title.
//
// Offset is the position on the parent storyline (for lane clips, in the
// host's local time); Start is the in-point within the source. Lane is zero
// for clips on a storyline.
type Clip struct {
	ID        string
	Kind      string
	Name      string
	Ref       string
	Offset    rational.TimeValue
	Duration  rational.TimeValue
	Start     rational.TimeValue
	StartSet  bool
	Lane      int
	Format    string
	// Role is the role attribute of title, video and audio elements;
	// asset-clips use AudioRole and VideoRole.
	Role      string
	AudioRole string
	VideoRole string
	TimeMap   *TimeMap
	Markers   []*Marker
	Keywords  []*Keyword
	Anchored  []Anchor
	Extra     Opaque

	// Nested is the compound timeline a ref-clip resolves to. Set by
	// Project.ResolveCompounds; never serialized.
	Nested *Timeline
}

func (c *Clip) ItemID() string { return c.ID }
func (c *Clip) Span() (rational.TimeValue, rational.TimeValue) {
	return c.Offset, c.Duration
}
func (c *Clip) SetOffset(t rational.TimeValue) { c.Offset = t }
func (c *Clip) LocalStart() rational.TimeValue   { return c.Start }
func (c *Clip) Anchors() []Anchor                { return c.Anchored }
func (c *Clip) AnchorLane() int                  { return c.Lane }
func (*Clip) spineItem()                         {}
func (*Clip) anchor()                            {}

// IsCompound reports whether c is a ref-clip.
func (c *Clip) IsCompound() bool { return c.Kind == TagRefClip }

// End returns Offset+Duration.
func (c *Clip) End() rational.TimeValue { return c.Offset.Add(c.Duration) }

// SourceEnd returns Start+Duration, the out-point in source time.
func (c *Clip) SourceEnd() rational.TimeValue { return c.Start.Add(c.Duration) }

// Label is the clip's name, or its ID when unnamed.
func (c *Clip) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Gap is an explicit empty region on a storyline.
type Gap struct {
	ID       string
	Name     string
	Offset   rational.TimeValue
	Duration rational.TimeValue
	Start    rational.TimeValue
	StartSet bool
	Markers  []*Marker
	Anchored []Anchor
	Extra    Opaque
}

func (g *Gap) ItemID() string { return g.ID }
func (g *Gap) Span() (rational.TimeValue, rational.TimeValue) {
	return g.Offset, g.Duration
}
func (g *Gap) SetOffset(t rational.TimeValue) { g.Offset = t }
func (g *Gap) LocalStart() rational.TimeValue   { return g.Start }
func (g *Gap) Anchors() []Anchor                { return g.Anchored }
func (*Gap) spineItem()                         {}

// Transition sits over a cut. It overlaps both neighbours and takes no
// storyline time of its own.
type Transition struct {
	ID       string
	Name     string
	Offset   rational.TimeValue
	Duration rational.TimeValue
	Extra    Opaque
}

func (t *Transition) ItemID() string { return t.ID }
func (t *Transition) Span() (rational.TimeValue, rational.TimeValue) {
	return t.Offset, t.Duration
}
func (t *Transition) SetOffset(v rational.TimeValue) { t.Offset = v }
func (*Transition) spineItem()                       {}

// Cut returns the edit point the transition is centred on.
func (t *Transition) Cut() rational.TimeValue {
	return t.Offset.Add(t.Duration.DivInt(2))
}

// OpaqueItem is a storyline child the model does not interpret (an
// audition, for example). Offset and Duration come from the element or,
// failing that, its first child, so ripple edits can move it.
type OpaqueItem struct {
	ID       string
	Offset   rational.TimeValue
	Duration rational.TimeValue
	Node     *xmltree.Node
}

func (o *OpaqueItem) ItemID() string { return o.ID }
func (o *OpaqueItem) Span() (rational.TimeValue, rational.TimeValue) {
	return o.Offset, o.Duration
}

// SetOffset moves the item and rewrites the offset attribute it came from.
func (o *OpaqueItem) SetOffset(t rational.TimeValue) {
	o.Offset = t
	if _, ok := o.Node.Attr("offset"); ok {
		o.Node.SetAttr("offset", t.String())
		return
	}
	if els := o.Node.Elements(); len(els) > 0 {
		if _, ok := els[0].Attr("offset"); ok {
			els[0].SetAttr("offset", t.String())
		}
	}
}
func (*OpaqueItem) spineItem() {}

// Storyline is a secondary storyline attached to a host on a lane.
// Its items are laid out like a spine; Offset is in host local time.
type Storyline struct {
	Lane   int
	Offset rational.TimeValue
	Name   string
	Format string
	Items  []SpineItem
	Extra  Opaque
}

func (s *Storyline) AnchorLane() int { return s.Lane }
func (*Storyline) anchor()           {}

// Origin is the storyline-local time of its first occupying item.
func (s *Storyline) Origin() rational.TimeValue {
	for _, it := range s.Items {
		if Occupies(it) {
			off, _ := it.Span()
			return off
		}
	}
	return rational.Zero
}

// TimeMap maps timeline (clip-local) time to source time for retimed clips.
type TimeMap struct {
	Points []TimePoint
	Extra  Opaque
}

// TimePoint is one mapping point: at Time the source is at Value.
type TimePoint struct {
	Time   rational.TimeValue
	Value  rational.TimeValue
	Interp string
	Extra  Opaque
}

// ConnectedClip is the unified view of a clip attached to a host, whether it
// hangs directly on a lane or sits inside a secondary storyline.
type ConnectedClip struct {
	*Clip
	Host Host
	// Lane is the clip's own lane, or its storyline's lane.
	Lane      int
	Storyline *Storyline
}

// Connected collects every connected clip of host in document order.
func Connected(host Host) []ConnectedClip {
	var out []ConnectedClip
	for _, a := range host.Anchors() {
		switch v := a.(type) {
		case *Clip:
			out = append(out, ConnectedClip{Clip: v, Host: host, Lane: v.Lane})
		case *Storyline:
			for _, it := range v.Items {
				if c, ok := it.(*Clip); ok {
					out = append(out, ConnectedClip{Clip: c, Host: host, Lane: v.Lane, Storyline: v})
				}
			}
		}
	}
	return out
}

// TimelineOffset places the connected clip on its host's parent timeline.
func (cc ConnectedClip) TimelineOffset() rational.TimeValue {
	hostOff, _ := cc.Host.Span()
	base := hostOff.Sub(cc.Host.LocalStart())
	if cc.Storyline == nil {
		return base.Add(cc.Offset)
	}
	return base.Add(cc.Storyline.Offset).Add(cc.Offset.Sub(cc.Storyline.Origin()))
}

// LocalTime converts a parent-timeline time to host local time.
func LocalTime(host Host, t rational.TimeValue) rational.TimeValue {
	off, _ := host.Span()
	return host.LocalStart().Add(t.Sub(off))
}
