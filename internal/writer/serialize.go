package writer

import (
	"io"
	"strconv"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// Marshal renders p as an FCPXML document.
//
// Output is deterministic. Modelled attributes come first in a fixed order
// (ref, lane, offset, name, start, duration, format, roles) followed by
// preserved attributes in their original order. Children follow the order
// the FCPXML DTD expects; preserved children keep their relative order.
func Marshal(p *ir.Project) ([]byte, error) {
	return xmltree.Marshal(Tree(p), encodeOptions)
}

// Encode writes p to w.
func Encode(w io.Writer, p *ir.Project) error {
	return xmltree.Encode(w, Tree(p), encodeOptions)
}

var encodeOptions = xmltree.EncodeOptions{Doctype: "fcpxml"}

// Tree builds the document tree for p without encoding it. Preserved
// elements are shared with p, not copied.
func Tree(p *ir.Project) *xmltree.Node {
	root := xmltree.Elem("fcpxml", attrs(nil, "version", p.Version)...)
	root.Attrs = append(root.Attrs, p.Extra.Attrs...)

	var rest []*xmltree.Node
	for _, c := range p.Extra.Children {
		if c.Name == "import-options" {
			root.Append(c)
			continue
		}
		rest = append(rest, c)
	}
	if p.Resources != nil {
		root.Append(resourcesNode(p.Resources))
	}
	if p.Library != nil {
		lib := xmltree.Elem("library", p.Library.Extra.Attrs...)
		for _, ev := range p.Library.Events {
			lib.Append(eventNode(ev))
		}
		lib.Append(p.Library.Extra.Children...)
		root.Append(lib)
	}
	for _, ev := range p.Events {
		root.Append(eventNode(ev))
	}
	for _, tl := range p.Timelines {
		root.Append(projectNode(tl))
	}
	root.Append(rest...)
	return root
}

// attrs appends name/value pairs, skipping empty values.
func attrs(dst []xmltree.Attr, pairs ...string) []xmltree.Attr {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			dst = append(dst, xmltree.A(pairs[i], pairs[i+1]))
		}
	}
	return dst
}

func timeIf(t rational.TimeValue, set bool) string {
	if !set {
		return ""
	}
	return t.String()
}

func intIf(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return ""
}

func resourcesNode(res *ir.Resources) *xmltree.Node {
	n := xmltree.Elem("resources", res.Extra.Attrs...)
	for _, r := range res.Items() {
		n.Append(resourceNode(r))
	}
	return n.Append(res.Extra.Children...)
}

func resourceNode(r ir.Resource) *xmltree.Node {
	switch v := r.(type) {
	case *ir.Format:
		n := xmltree.Elem("format", attrs(nil,
			"id", v.ID,
			"name", v.Name,
			"frameDuration", timeIf(v.FrameDuration, v.FrameDuration.Sign() > 0),
			"width", intIf(v.Width),
			"height", intIf(v.Height),
		)...)
		n.Attrs = append(n.Attrs, v.Extra.Attrs...)
		return n.Append(v.Extra.Children...)
	case *ir.Asset:
		n := xmltree.Elem("asset", attrs(nil,
			"id", v.ID,
			"name", v.Name,
			"uid", v.UID,
			"src", v.Src,
			"start", v.Start.String(),
			"duration", timeIf(v.Duration, !v.Duration.IsZero()),
			"hasVideo", flag(v.HasVideo),
			"hasAudio", flag(v.HasAudio),
			"format", v.Format,
		)...)
		n.Attrs = append(n.Attrs, v.Extra.Attrs...)
		return n.Append(v.Extra.Children...)
	case *ir.Effect:
		n := xmltree.Elem("effect", attrs(nil, "id", v.ID, "name", v.Name, "uid", v.UID)...)
		n.Attrs = append(n.Attrs, v.Extra.Attrs...)
		return n.Append(v.Extra.Children...)
	case *ir.Media:
		n := xmltree.Elem("media", attrs(nil, "id", v.ID, "name", v.Name, "uid", v.UID)...)
		n.Attrs = append(n.Attrs, v.Extra.Attrs...)
		if v.Sequence != nil {
			n.Append(sequenceNode(v.Sequence))
		}
		return n.Append(v.Extra.Children...)
	case *ir.OpaqueResource:
		return v.Node
	}
	return nil
}

func eventNode(ev *ir.Event) *xmltree.Node {
	n := xmltree.Elem("event", attrs(nil, "name", ev.Name, "uid", ev.UID)...)
	n.Attrs = append(n.Attrs, ev.Extra.Attrs...)
	n.Append(ev.Extra.Children...)
	for _, tl := range ev.Timelines {
		n.Append(projectNode(tl))
	}
	return n
}

func projectNode(tl *ir.Timeline) *xmltree.Node {
	n := xmltree.Elem("project", attrs(nil, "name", tl.Name, "uid", tl.UID)...)
	n.Attrs = append(n.Attrs, tl.ProjectExtra.Attrs...)
	n.Append(sequenceNode(tl))
	return n.Append(tl.ProjectExtra.Children...)
}

func sequenceNode(tl *ir.Timeline) *xmltree.Node {
	n := xmltree.Elem("sequence", attrs(nil,
		"format", tl.Format,
		"duration", timeIf(tl.Duration, !tl.Duration.IsZero()),
		"tcStart", tl.TCStart.String(),
		"tcFormat", tl.TCFormat,
	)...)
	n.Attrs = append(n.Attrs, tl.SequenceExtra.Attrs...)
	spine := xmltree.Elem(ir.TagSpine, tl.Spine.Extra.Attrs...)
	spine.Append(itemNodes(tl.Spine.Items)...)
	spine.Append(tl.Spine.Extra.Children...)
	n.Append(spine)
	return n.Append(tl.SequenceExtra.Children...)
}

func itemNodes(items []ir.SpineItem) []*xmltree.Node {
	out := make([]*xmltree.Node, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case *ir.Clip:
			out = append(out, clipNode(v))
		case *ir.Gap:
			out = append(out, gapNode(v))
		case *ir.Transition:
			out = append(out, transitionNode(v))
		case *ir.OpaqueItem:
			out = append(out, v.Node)
		}
	}
	return out
}

// Child groups, in the order the DTD lists them.
const (
	rankIntrinsic = iota // param, text, text-style-def
	rankNote             // note, conform-rate
	rankTimeMap
	rankAdjust // adjust-*, channel and role sources, nested content
	rankAnchor
	rankMarker
	rankRating // rating, analysis-marker: after keywords
	rankTail
)

func childRank(name string) int {
	switch {
	case name == "param" || name == "text" || name == "text-style-def":
		return rankIntrinsic
	case name == "note" || name == "conform-rate":
		return rankNote
	case name == "timeMap":
		return rankTimeMap
	case strings.HasPrefix(name, "adjust-"),
		name == "audio-channel-source", name == "audio-role-source",
		name == "video-role-source", name == "mc-source",
		ir.IsClipTag(name), name == ir.TagSpine, name == ir.TagGap, name == ir.TagTransit:
		return rankAdjust
	case name == "rating" || name == "analysis-marker":
		return rankRating
	}
	return rankTail
}

// extraByRank splits preserved children into their DTD groups.
func extraByRank(children []*xmltree.Node) [rankTail + 1][]*xmltree.Node {
	var out [rankTail + 1][]*xmltree.Node
	for _, c := range children {
		r := childRank(c.Name)
		out[r] = append(out[r], c)
	}
	return out
}

func clipNode(c *ir.Clip) *xmltree.Node {
	n := xmltree.Elem(c.Kind, attrs(nil,
		"ref", c.Ref,
		"lane", intIf(c.Lane),
		"offset", c.Offset.String(),
		"name", c.Name,
		"start", timeIf(c.Start, c.StartSet),
		"duration", c.Duration.String(),
		"format", c.Format,
		"role", c.Role,
		"audioRole", c.AudioRole,
		"videoRole", c.VideoRole,
	)...)
	n.Attrs = append(n.Attrs, c.Extra.Attrs...)

	extra := extraByRank(c.Extra.Children)
	n.Append(extra[rankIntrinsic]...)
	n.Append(extra[rankNote]...)
	if c.TimeMap != nil {
		n.Append(timeMapNode(c.TimeMap))
	}
	n.Append(extra[rankTimeMap]...)
	n.Append(extra[rankAdjust]...)
	n.Append(anchorNodes(c.Anchored)...)
	n.Append(markerNodes(c.Markers)...)
	for _, k := range c.Keywords {
		kn := xmltree.Elem("keyword", attrs(nil,
			"start", k.Start.String(),
			"duration", k.Duration.String(),
			"value", k.Value,
		)...)
		kn.Attrs = append(kn.Attrs, k.Extra.Attrs...)
		n.Append(kn.Append(k.Extra.Children...))
	}
	n.Append(extra[rankRating]...)
	return n.Append(extra[rankTail]...)
}

func gapNode(g *ir.Gap) *xmltree.Node {
	n := xmltree.Elem(ir.TagGap, attrs(nil,
		"name", g.Name,
		"offset", g.Offset.String(),
		"start", timeIf(g.Start, g.StartSet),
		"duration", g.Duration.String(),
	)...)
	n.Attrs = append(n.Attrs, g.Extra.Attrs...)
	extra := extraByRank(g.Extra.Children)
	n.Append(extra[rankIntrinsic]...)
	n.Append(extra[rankNote]...)
	n.Append(anchorNodes(g.Anchored)...)
	n.Append(markerNodes(g.Markers)...)
	for _, r := range []int{rankTimeMap, rankAdjust, rankRating, rankTail} {
		n.Append(extra[r]...)
	}
	return n
}

func transitionNode(t *ir.Transition) *xmltree.Node {
	n := xmltree.Elem(ir.TagTransit, attrs(nil,
		"name", t.Name,
		"offset", t.Offset.String(),
		"duration", t.Duration.String(),
	)...)
	n.Attrs = append(n.Attrs, t.Extra.Attrs...)
	return n.Append(t.Extra.Children...)
}

func anchorNodes(anchors []ir.Anchor) []*xmltree.Node {
	out := make([]*xmltree.Node, 0, len(anchors))
	for _, a := range anchors {
		switch v := a.(type) {
		case *ir.Clip:
			out = append(out, clipNode(v))
		case *ir.Storyline:
			n := xmltree.Elem(ir.TagSpine, attrs(nil,
				"lane", intIf(v.Lane),
				"offset", v.Offset.String(),
				"name", v.Name,
				"format", v.Format,
			)...)
			n.Attrs = append(n.Attrs, v.Extra.Attrs...)
			n.Append(itemNodes(v.Items)...)
			out = append(out, n.Append(v.Extra.Children...))
		}
	}
	return out
}

func markerNodes(markers []*ir.Marker) []*xmltree.Node {
	out := make([]*xmltree.Node, 0, len(markers))
	for _, m := range markers {
		n := xmltree.Elem(m.Kind.Element(), m.Attrs()...)
		out = append(out, n.Append(m.Extra.Children...))
	}
	return out
}

func timeMapNode(tm *ir.TimeMap) *xmltree.Node {
	n := xmltree.Elem("timeMap", tm.Extra.Attrs...)
	for _, pt := range tm.Points {
		p := xmltree.Elem("timept", attrs(nil,
			"time", pt.Time.String(),
			"value", pt.Value.String(),
			"interp", pt.Interp,
		)...)
		p.Attrs = append(p.Attrs, pt.Extra.Attrs...)
		n.Append(p.Append(pt.Extra.Children...))
	}
	return n.Append(tm.Extra.Children...)
}
