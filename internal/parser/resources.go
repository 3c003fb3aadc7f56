package parser

import (
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/xmltree"
)

// resources reads the resource table. Media sequences are parsed after every
// resource is known so a compound may reference resources declared after it.
func (b *builder) resources(n *xmltree.Node) (*ir.Resources, error) {
	res := ir.NewResources()
	type pending struct {
		media *ir.Media
		node  *xmltree.Node
	}
	var sequences []pending

	for _, el := range n.Elements() {
		var (
			r   ir.Resource
			err error
		)
		switch el.Name {
		case "format":
			r, err = parseFormat(el)
		case "asset":
			r, err = parseAsset(el)
		case "effect":
			r = parseEffect(el)
		case "media":
			m, seq := parseMedia(el)
			if seq != nil {
				sequences = append(sequences, pending{media: m, node: seq})
			}
			r = m
		default:
			r = &ir.OpaqueResource{ID: el.AttrOr("id", ""), Node: el}
		}
		if err != nil {
			return nil, err
		}
		if err := res.Add(r); err != nil {
			return nil, err
		}
	}
	res.Extra.Attrs = n.Attrs

	for _, p := range sequences {
		tl, err := b.sequence(p.node, res)
		if err != nil {
			return nil, err
		}
		tl.Compound = true
		tl.Name = p.media.Name
		tl.UID = p.media.UID
		p.media.Sequence = tl
	}
	return res, nil
}

func parseFormat(n *xmltree.Node) (*ir.Format, error) {
	r := readAttrs(n, subjectOf(n))
	f := &ir.Format{
		ID:            r.str("id"),
		Name:          r.str("name"),
		FrameDuration: r.time("frameDuration"),
		Width:         r.int("width"),
		Height:        r.int("height"),
	}
	if r.err != nil {
		return nil, r.err
	}
	f.Extra = ir.Opaque{Attrs: r.rest(), Children: n.Elements()}
	return f, nil
}

func parseAsset(n *xmltree.Node) (*ir.Asset, error) {
	r := readAttrs(n, subjectOf(n))
	a := &ir.Asset{
		ID:       r.str("id"),
		Name:     r.str("name"),
		UID:      r.str("uid"),
		Src:      r.str("src"),
		Start:    r.time("start"),
		Duration: r.time("duration"),
		HasVideo: r.bool01("hasVideo"),
		HasAudio: r.bool01("hasAudio"),
		Format:   r.str("format"),
	}
	if r.err != nil {
		return nil, r.err
	}
	// Keep the "0" spellings too; only the "1" form is modelled.
	for _, name := range []string{"hasVideo", "hasAudio"} {
		if v, ok := n.Attr(name); ok && v != "1" {
			r.used[name] = false
		}
	}
	a.Extra = ir.Opaque{Attrs: r.rest(), Children: n.Elements()}
	return a, nil
}

func parseEffect(n *xmltree.Node) *ir.Effect {
	r := readAttrs(n, subjectOf(n))
	e := &ir.Effect{ID: r.str("id"), Name: r.str("name"), UID: r.str("uid")}
	e.Extra = ir.Opaque{Attrs: r.rest(), Children: n.Elements()}
	return e
}

// parseMedia returns the media resource and its sequence element, if any.
// Multicam media stays opaque in Extra.
func parseMedia(n *xmltree.Node) (*ir.Media, *xmltree.Node) {
	r := readAttrs(n, subjectOf(n))
	m := &ir.Media{ID: r.str("id"), Name: r.str("name"), UID: r.str("uid")}
	m.Extra.Attrs = r.rest()
	var seq *xmltree.Node
	for _, el := range n.Elements() {
		if el.Name == "sequence" && seq == nil {
			seq = el
			continue
		}
		m.Extra.Children = append(m.Extra.Children, el)
	}
	return m, seq
}
