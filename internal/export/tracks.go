package export

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// TrackSequence is a timeline re-projected onto numbered tracks.
type TrackSequence struct {
	Name   string
	Rate   rational.FrameRate
	Width  int
	Height int
	// Duration is the length of the primary storyline.
	Duration rational.TimeValue
	// TCStart labels the first frame; DropFrame selects SMPTE drop-frame
	// labelling.
	TCStart   rational.TimeValue
	DropFrame bool
	// Tracks are ordered by Number: lanes below the primary storyline first.
	Tracks []Track
}

// Track holds the clips of one lane. Number 0 is the primary storyline;
// positive numbers rank the lanes above it and negative numbers the lanes
// below it, closest first.
type Track struct {
	Number int
	Lane   int
	Items  []TrackItem
}

// TrackItem is one clip placed on a track.
type TrackItem struct {
	Name string
	Ref  string
	Kind string
	// Offset is relative to the start of the sequence.
	Offset   rational.TimeValue
	Duration rational.TimeValue
	// In is the in-point measured from the start of the source media.
	In       rational.TimeValue
	HasVideo bool
	HasAudio bool
	Src      string
}

// End is Offset+Duration.
func (it TrackItem) End() rational.TimeValue { return it.Offset.Add(it.Duration) }

// Track returns the track with the given number.
func (s *TrackSequence) Track(number int) (Track, bool) {
	for _, t := range s.Tracks {
		if t.Number == number {
			return t, true
		}
	}
	return Track{}, false
}

// Tracks re-projects tl. Connected clips land on the track of their lane,
// counted from the primary storyline through every host they hang on.
// Gaps and transitions take no place on a track.
func Tracks(tl *ir.Timeline) (*TrackSequence, error) {
	if err := tl.Validate(); err != nil {
		return nil, err
	}
	seq := &TrackSequence{
		Name:      tl.Label(),
		Rate:      tl.FrameRate(),
		Duration:  tl.SpineDuration(),
		TCStart:   tl.TCStart,
		DropFrame: tl.TCFormat == "DF",
	}
	if f := tl.FormatResource(); f != nil {
		seq.Width, seq.Height = f.Width, f.Height
	}

	origin := tl.Origin()
	byLane := map[int][]TrackItem{0: nil}
	laneOf := make(map[ir.Host]int)
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		lane := v.Lane
		if !v.OnSpine() {
			lane += laneOf[v.Host]
		}
		if h, ok := v.Item.(ir.Host); ok {
			laneOf[h] = lane
		}
		c, ok := v.Item.(*ir.Clip)
		if !ok {
			return
		}
		byLane[lane] = append(byLane[lane], trackItem(tl, c, at.Sub(origin)))
	})

	lanes := make([]int, 0, len(byLane))
	for l := range byLane {
		lanes = append(lanes, l)
	}
	slices.Sort(lanes)
	below := 0
	for _, l := range lanes {
		if l < 0 {
			below++
		}
	}
	for i, l := range lanes {
		items := byLane[l]
		slices.SortStableFunc(items, func(a, b TrackItem) int { return a.Offset.Cmp(b.Offset) })
		seq.Tracks = append(seq.Tracks, Track{Number: i - below, Lane: l, Items: items})
	}
	return seq, nil
}

func trackItem(tl *ir.Timeline, c *ir.Clip, at rational.TimeValue) TrackItem {
	it := TrackItem{
		Name:     c.Label(),
		Ref:      c.Ref,
		Kind:     c.Kind,
		Offset:   at.Simplify(),
		Duration: c.Duration,
		In:       c.Start,
	}
	asset, hasAsset := tl.Resources.Asset(c.Ref)
	if hasAsset {
		it.In = c.Start.Sub(asset.Start).Simplify()
		it.Src = asset.MediaSrc()
	}
	switch {
	case c.Kind == ir.TagTitle || c.Kind == ir.TagVideo:
		it.HasVideo = true
	case c.Kind == ir.TagAudio:
		it.HasAudio = true
	case hasAsset:
		it.HasVideo, it.HasAudio = asset.HasVideo, asset.HasAudio
	default:
		it.HasVideo, it.HasAudio = true, true
	}
	return it
}
