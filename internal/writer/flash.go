package writer

import (
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// Flash frame repair modes.
const (
	FlashAuto           = "auto"
	FlashExtendPrevious = "extend_previous"
	FlashExtendNext     = "extend_next"
	FlashDelete         = "delete"
)

// FlashOptions sets the thresholds in frames. Zero values mean 6 and 2.
type FlashOptions struct {
	Threshold int64
	Critical  int64
}

func (o FlashOptions) withDefaults() FlashOptions {
	if o.Threshold <= 0 {
		o.Threshold = 6
	}
	if o.Critical <= 0 {
		o.Critical = 2
	}
	return o
}

// FlashFrame is a visual clip shorter than the threshold.
type FlashFrame struct {
	ClipID   string             `json:"clip_id"`
	Name     string             `json:"name"`
	Offset   rational.TimeValue `json:"offset"`
	Duration rational.TimeValue `json:"duration"`
	Frames   int64              `json:"frames"`
	Critical bool               `json:"critical"`
}

// FlashFix reports what happened to one flash frame.
type FlashFix struct {
	FlashFrame
	Action string `json:"action"`
	// Extended is the neighbour that now covers the flash frame, if any.
	Extended string `json:"extended"`
}

var visualKinds = map[string]bool{
	ir.TagAssetClip: true,
	ir.TagClip:      true,
	ir.TagVideo:     true,
	ir.TagRefClip:   true,
	ir.TagMCClip:    true,
	ir.TagSyncClip:  true,
}

// DetectFlashFrames lists visual clips of the primary storyline shorter
// than Threshold frames. Those under Critical frames are marked critical.
func (e *Editor) DetectFlashFrames(opts FlashOptions) []FlashFrame {
	return detectFlash(e.Timeline(), opts.withDefaults())
}

func detectFlash(tl *ir.Timeline, opts FlashOptions) []FlashFrame {
	rate := tl.FrameRate()
	var out []FlashFrame
	for _, c := range tl.Clips() {
		if !visualKinds[c.Kind] {
			continue
		}
		frames := rate.FramesFloor(c.Duration)
		if frames >= opts.Threshold {
			continue
		}
		out = append(out, FlashFrame{
			ClipID: c.ID, Name: c.Name, Offset: c.Offset, Duration: c.Duration,
			Frames: frames, Critical: frames < opts.Critical,
		})
	}
	return out
}

// FixFlashFrames removes flash frames, optionally letting a neighbour grow
// over the hole. In auto mode critical frames extend the previous clip and
// the rest are deleted. When a neighbour cannot grow (no clip there, or no
// source media to spare) the flash frame is deleted instead.
func (e *Editor) FixFlashFrames(opts FlashOptions, mode string) ([]FlashFix, error) {
	switch mode {
	case "":
		mode = FlashAuto
	case FlashAuto, FlashExtendPrevious, FlashExtendNext, FlashDelete:
	default:
		return nil, ir.Formatf("flash frame mode must be auto, extend_previous, extend_next or delete, got %q", mode)
	}
	opts = opts.withDefaults()
	var fixes []FlashFix
	err := e.apply("fix_flash_frames", func(tl *ir.Timeline) error {
		fixes = nil
		origin := tl.Origin()
		found := detectFlash(tl, opts)
		for i := len(found) - 1; i >= 0; i-- {
			ff := found[i]
			action := mode
			if mode == FlashAuto {
				action = FlashDelete
				if ff.Critical {
					action = FlashExtendPrevious
				}
			}
			items := tl.Spine.Items
			idx := slices.IndexFunc(items, func(it ir.SpineItem) bool { return it.ItemID() == ff.ClipID })
			fix := FlashFix{FlashFrame: ff, Action: action}
			switch action {
			case FlashExtendPrevious:
				if c, ok := itemAt[*ir.Clip](items, prevOccupying(items, idx)); ok && canExtendTail(tl, c, ff.Duration) {
					c.Duration = c.Duration.Add(ff.Duration)
					fix.Extended = c.ID
				}
			case FlashExtendNext:
				if c, ok := itemAt[*ir.Clip](items, nextOccupying(items, idx)); ok && canExtendHead(tl, c, ff.Duration) {
					c.Start = c.Start.Sub(ff.Duration)
					c.StartSet = true
					c.Duration = c.Duration.Add(ff.Duration)
					fix.Extended = c.ID
				}
			}
			if fix.Extended == "" {
				fix.Action = FlashDelete
			}
			tl.Spine.Items = slices.Delete(items, idx, idx+1)
			fixes = append(fixes, fix)
		}
		e.relayout(tl, origin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(fixes)
	return fixes, nil
}
