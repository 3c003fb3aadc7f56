package export

import (
	"io"
	"strconv"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/xmltree"
)

// XMEMLVersion is the interchange version MarshalXMEML writes.
const XMEMLVersion = "5"

// MarshalXMEML renders seq as an XMEML document. Video tracks are written
// bottom up in track order; audio tracks start with the primary storyline
// and continue with the lanes below it, then the lanes above it.
func MarshalXMEML(seq *TrackSequence) ([]byte, error) {
	root, err := xmemlTree(seq)
	if err != nil {
		return nil, err
	}
	return xmltree.Marshal(root, xmltree.EncodeOptions{Doctype: "xmeml"})
}

// EncodeXMEML is MarshalXMEML writing to w.
func EncodeXMEML(w io.Writer, seq *TrackSequence) error {
	root, err := xmemlTree(seq)
	if err != nil {
		return err
	}
	return xmltree.Encode(w, root, xmltree.EncodeOptions{Doctype: "xmeml"})
}

type xmemlWriter struct {
	seq   *TrackSequence
	clips int
	files map[string]bool
}

func xmemlTree(seq *TrackSequence) (*xmltree.Node, error) {
	if seq.Rate.IsZero() {
		return nil, ir.Formatf("sequence has no frame rate").WithSubject(seq.Name)
	}
	w := &xmemlWriter{seq: seq, files: make(map[string]bool)}

	duration, err := w.frames(seq.Duration, seq.Name)
	if err != nil {
		return nil, err
	}
	tcFrame, err := w.frames(seq.TCStart, seq.Name)
	if err != nil {
		return nil, err
	}
	tc, err := rational.TimecodeOf(seq.TCStart, seq.Rate, seq.DropFrame)
	if err != nil {
		return nil, ir.Wrap(err, seq.Name)
	}
	display := "NDF"
	if seq.DropFrame {
		display = "DF"
	}

	video := xmltree.Elem("video").Append(
		xmltree.Elem("format").Append(
			xmltree.Elem("samplecharacteristics").Append(
				w.rate(),
				text("width", strconv.Itoa(seq.Width)),
				text("height", strconv.Itoa(seq.Height)),
			),
		),
	)
	for _, t := range seq.Tracks {
		track, n, err := w.track(t, func(it TrackItem) bool { return it.HasVideo })
		if err != nil {
			return nil, err
		}
		if n > 0 || t.Number == 0 {
			video.Append(track)
		}
	}

	audio := xmltree.Elem("audio")
	for _, t := range audioOrder(seq.Tracks) {
		track, n, err := w.track(t, func(it TrackItem) bool { return it.HasAudio })
		if err != nil {
			return nil, err
		}
		if n > 0 {
			audio.Append(track)
		}
	}

	sequence := xmltree.Elem("sequence").Append(
		text("name", seq.Name),
		text("duration", itoa(duration)),
		w.rate(),
		xmltree.Elem("timecode").Append(
			w.rate(),
			text("string", tc.String()),
			text("frame", itoa(tcFrame)),
			text("displayformat", display),
		),
		xmltree.Elem("media").Append(video, audio),
	)
	return xmltree.Elem("xmeml", xmltree.A("version", XMEMLVersion)).Append(sequence), nil
}

// audioOrder is track 0, then the tracks below it closest first, then the
// tracks above it.
func audioOrder(tracks []Track) []Track {
	var primary, below, above []Track
	for _, t := range tracks {
		switch {
		case t.Number == 0:
			primary = append(primary, t)
		case t.Number < 0:
			below = append([]Track{t}, below...)
		default:
			above = append(above, t)
		}
	}
	return append(append(primary, below...), above...)
}

func (w *xmemlWriter) track(t Track, keep func(TrackItem) bool) (*xmltree.Node, int, error) {
	track := xmltree.Elem("track")
	n := 0
	for _, it := range t.Items {
		if !keep(it) {
			continue
		}
		ci, err := w.clipitem(it)
		if err != nil {
			return nil, 0, err
		}
		track.Append(ci)
		n++
	}
	return track, n, nil
}

func (w *xmemlWriter) clipitem(it TrackItem) (*xmltree.Node, error) {
	start, err := w.frames(it.Offset, it.Name)
	if err != nil {
		return nil, err
	}
	dur, err := w.frames(it.Duration, it.Name)
	if err != nil {
		return nil, err
	}
	in, err := w.frames(it.In, it.Name)
	if err != nil {
		return nil, err
	}
	w.clips++
	ci := xmltree.Elem("clipitem", xmltree.A("id", "clipitem-"+strconv.Itoa(w.clips))).Append(
		text("name", it.Name),
		text("duration", itoa(dur)),
		w.rate(),
		text("start", itoa(start)),
		text("end", itoa(start+dur)),
		text("in", itoa(in)),
		text("out", itoa(in+dur)),
	)
	if it.Ref != "" && it.Src != "" {
		id := "file-" + it.Ref
		file := xmltree.Elem("file", xmltree.A("id", id))
		if !w.files[id] {
			w.files[id] = true
			file.Append(text("name", it.Name), text("pathurl", it.Src), w.rate())
		}
		ci.Append(file)
	}
	return ci, nil
}

func (w *xmemlWriter) rate() *xmltree.Node {
	ntsc := "FALSE"
	if w.seq.Rate.NTSC() {
		ntsc = "TRUE"
	}
	return xmltree.Elem("rate").Append(
		text("timebase", itoa(w.seq.Rate.Timebase())),
		text("ntsc", ntsc),
	)
}

// frames converts t to a frame count, refusing times between frames.
func (w *xmemlWriter) frames(t rational.TimeValue, subject string) (int64, error) {
	n, ok := w.seq.Rate.FramesExact(t)
	if !ok {
		return 0, ir.Formatf("%s is not on a frame boundary at %s fps", t, w.seq.Rate).WithSubject(subject)
	}
	return n, nil
}

func text(name, value string) *xmltree.Node {
	return xmltree.Elem(name).Append(xmltree.TextNode(value))
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
