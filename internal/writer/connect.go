package writer

import (
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// ConnectRequest attaches an asset to a clip of the primary storyline.
type ConnectRequest struct {
	Host  string
	Asset string
	// Offset is measured from the host's first visible frame.
	Offset rational.TimeValue
	// Start is the source in-point; zero means the asset's start.
	Start rational.TimeValue
	// Duration defaults to the rest of the asset from Start.
	Duration rational.TimeValue
	// Lane defaults to 1 for assets with video and -1 for audio-only ones.
	Lane int
	Name string
}

// ConnectResult reports the new connected clip.
type ConnectResult struct {
	ClipID string             `json:"clip_id"`
	Lane   int                `json:"lane"`
	At     rational.TimeValue `json:"at"`
}

// AddConnectedClip places an asset on a lane above or below a host clip.
// Audio-only media goes below the storyline, anything with video above.
func (e *Editor) AddConnectedClip(req ConnectRequest) (ConnectResult, error) {
	var (
		res  ConnectResult
		clip *ir.Clip
	)
	err := e.apply("add_connected_clip", func(tl *ir.Timeline) error {
		host, _, err := spineClip(tl, req.Host)
		if err != nil {
			return err
		}
		a, err := tl.Resources.FindAsset(req.Asset)
		if err != nil {
			return err
		}
		lane, err := laneFor(a, req.Lane)
		if err != nil {
			return err
		}
		if req.Offset.Sign() < 0 || !req.Offset.Less(host.Duration) {
			return ir.Structuralf("offset %s is outside the host clip (%s long)", req.Offset, host.Duration).WithSubject(host.Label())
		}
		start, dur, err := assetRange(a, req.Start, req.Duration)
		if err != nil {
			return err
		}
		name := SanitizeName(req.Name, e.text.Name)
		if name == "" {
			name = a.Name
		}
		rate := tl.FrameRate()
		clip = &ir.Clip{
			Kind:     ir.TagAssetClip,
			Name:     name,
			Ref:      a.ID,
			Lane:     lane,
			Offset:   host.LocalStart().Add(rate.AlignFloor(req.Offset)).Simplify(),
			Start:    start,
			StartSet: true,
			Duration: dur,
		}
		host.Anchored = append(host.Anchored, clip)
		res = ConnectResult{Lane: lane, At: ir.ConnectedClip{Clip: clip, Host: host, Lane: lane}.TimelineOffset()}
		return nil
	})
	if err != nil {
		return ConnectResult{}, err
	}
	res.ClipID = clip.ID
	return res, nil
}

func laneFor(a *ir.Asset, lane int) (int, error) {
	audioOnly := a.HasAudio && !a.HasVideo
	switch {
	case lane == 0 && audioOnly:
		return -1, nil
	case lane == 0:
		return 1, nil
	case audioOnly && lane > 0:
		return 0, ir.Structuralf("audio-only media goes on a negative lane, got %d", lane).WithSubject(a.ID)
	case !audioOnly && lane < 0:
		return 0, ir.Structuralf("media with video goes on a positive lane, got %d", lane).WithSubject(a.ID)
	}
	return lane, nil
}

// assetRange resolves a source in-point and duration against an asset.
// A zero start is the asset's start; a zero duration runs to the asset's
// end.
func assetRange(a *ir.Asset, start, dur rational.TimeValue) (rational.TimeValue, rational.TimeValue, error) {
	if start.IsZero() {
		start = a.Start
	}
	if start.Less(a.Start) {
		return start, dur, ir.Structuralf("in point %s is before the start of the media", start).WithSubject(a.ID)
	}
	end := a.Start.Add(a.Duration)
	if dur.IsZero() {
		if !a.Bounded() {
			return start, dur, ir.Formatf("asset has no duration; give one explicitly").WithSubject(a.ID)
		}
		dur = end.Sub(start)
	}
	if dur.Sign() <= 0 {
		return start, dur, ir.Structuralf("clip duration must be positive, got %s", dur).WithSubject(a.ID)
	}
	if a.Bounded() && end.Less(start.Add(dur)) {
		return start, dur, ir.Structuralf("range %s+%s runs past the end of the media", start, dur).WithSubject(a.ID)
	}
	return start, dur, nil
}
