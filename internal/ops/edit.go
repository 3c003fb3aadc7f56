package ops

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/spine/internal/cues"
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/writer"
)

type editOp struct {
	info  Info
	apply func(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error)
}

func (o *editOp) Info() Info { return o.info }

func (o *editOp) Apply(ed *writer.Editor, args Args) (Result, error) {
	return o.apply(ed, ed.Timeline().FrameRate(), args)
}

// Parameters every edit takes; the Runner reads them.
var (
	outputParam = Param{Name: "output", Type: TypePath,
		Description: "Where to write the edited document; defaults to the source name with a suffix"}
	dryRunParam = Param{Name: "dry_run", Type: TypeBool,
		Description: "Apply the edit and report the result without writing a file"}
)

func edit(name, description string, params []Param, apply func(*writer.Editor, rational.FrameRate, Args) (Result, error)) *editOp {
	all := append([]Param{timelineParam}, params...)
	all = append(all, outputParam, dryRunParam)
	return &editOp{
		info:  Info{Name: name, Category: CategoryEdit, Description: description, Params: all},
		apply: apply,
	}
}

var (
	clipParam   = Param{Name: "clip", Type: TypeString, Required: true, Description: "Clip id or unique clip name"}
	kindParam   = Param{Name: "kind", Type: TypeString, Enum: markerKinds, Default: "standard", Description: "Marker kind"}
	prefixParam = Param{Name: "prefix", Type: TypeString, Description: "Text placed before each generated marker name"}
	rippleParam = Param{Name: "ripple", Type: TypeBool, Description: "Move later items to close or open space"}
)

func editOperations(r *Registry) []Operation {
	return []Operation{
		edit("add_marker", "Add a marker to a clip, or to whatever covers a timeline time",
			[]Param{{Name: "clip", Type: TypeString, Description: "Clip id or unique clip name to attach the marker to"},
				{Name: "at", Type: TypeTime, Required: true,
					Description: "Time from the clip's first frame when clip is given, otherwise timeline time"},
				{Name: "value", Type: TypeString, Required: true, Description: "Marker name"},
				kindParam,
				{Name: "note", Type: TypeString, Description: "Marker note; chapter markers take none"},
				{Name: "duration", Type: TypeTime, Description: "Marker duration, one frame by default"}},
			addMarker),
		edit("add_markers_at_cuts", "Add a marker at the start of every clip on the primary storyline",
			[]Param{kindParam, prefixParam}, addMarkersAtCuts),
		edit("add_markers_at_interval", "Add a marker at a fixed interval across the timeline",
			[]Param{{Name: "interval", Type: TypeTime, Required: true, Description: "Time between markers"},
				kindParam, prefixParam},
			addMarkersAtInterval),
		edit("trim_clip", "Move a clip's in-point or out-point",
			[]Param{clipParam,
				{Name: "in", Type: TypeTime, Description: "New in-point, or the change when relative"},
				{Name: "out", Type: TypeTime, Description: "New out-point, or the change when relative"},
				{Name: "relative", Type: TypeBool, Description: "Read in and out as deltas"},
				rippleParam},
			trimClip),
		edit("reorder_clips", "Move clips to another position on the primary storyline",
			[]Param{{Name: "clips", Type: TypeStrings, Required: true, Description: "Clips to move, in their new order"},
				{Name: "position", Type: TypeString, Required: true,
					Description: "start, end, after:<clip>, before:<clip> or a timeline time"}},
			reorderClips),
		edit("delete_clips", "Delete clips, leaving gaps or rippling later items back",
			[]Param{{Name: "clips", Type: TypeStrings, Required: true, Description: "Clips to delete"}, rippleParam},
			deleteClips),
		edit("split_clip", "Split a clip at one or more timeline times",
			[]Param{clipParam,
				{Name: "at", Type: TypeTimes, Required: true, Description: "Timeline times to cut at"}},
			splitClip),
		edit("add_transition", "Add a transition at one or both edges of a clip",
			[]Param{clipParam,
				{Name: "position", Type: TypeString, Enum: []string{"start", "end", "both"}, Default: "end", Description: "Which edge"},
				{Name: "effect", Type: TypeString, Enum: slices.Sorted(maps.Keys(writer.TransitionEffects)),
					Default: "cross-dissolve", Description: "Transition effect"},
				{Name: "duration", Type: TypeTime, Default: "1s", Description: "Transition duration"}},
			addTransition),
		edit("change_speed", "Retime a clip at a constant speed or along a speed ramp",
			[]Param{clipParam,
				{Name: "speed", Type: TypeTime, Description: "Speed factor, 0.5 for half speed"},
				{Name: "ramp", Type: TypeStrings, Description: "Ramp segments as <source time>=<speed>"},
				{Name: "preserve_pitch", Type: TypeBool, Description: "Keep the audio pitch"},
				rippleParam},
			changeSpeed),
		edit("mark_silence", "Add a to-do marker on every silence candidate", silenceParams, markSilence),
		edit("remove_silence", "Delete every silence candidate, rippling the timeline", silenceParams, removeSilence),
		edit("add_connected_clip", "Connect an asset to a clip on a lane above or below it",
			[]Param{{Name: "host", Type: TypeString, Required: true, Description: "Clip to connect to"},
				{Name: "asset", Type: TypeString, Required: true, Description: "Asset id or unique asset name"},
				{Name: "offset", Type: TypeTime, Description: "Distance from the host's first visible frame"},
				{Name: "start", Type: TypeTime, Description: "Source in-point"},
				{Name: "duration", Type: TypeTime, Description: "Clip duration, the rest of the asset by default"},
				{Name: "lane", Type: TypeInt, Description: "Lane; 1 for video, -1 for audio-only assets by default"},
				{Name: "name", Type: TypeString, Description: "Clip name"}},
			addConnectedClip),
		edit("insert_clip", "Insert an asset on the primary storyline",
			[]Param{{Name: "asset", Type: TypeString, Required: true, Description: "Asset id or unique asset name"},
				{Name: "position", Type: TypeString, Required: true,
					Description: "start, end, after:<clip>, before:<clip> or a timeline time"},
				{Name: "in", Type: TypeTime, Description: "Source in-point"},
				{Name: "out", Type: TypeTime, Description: "Source out-point"},
				{Name: "duration", Type: TypeTime, Description: "Clip duration when out is not given"},
				{Name: "name", Type: TypeString, Description: "Clip name"},
				rippleParam},
			insertClip),
		edit("assign_role", "Set the audio and video roles of a clip",
			[]Param{clipParam,
				{Name: "audio_role", Type: TypeString, Description: "Audio role, such as dialogue"},
				{Name: "video_role", Type: TypeString, Description: "Video role, such as titles"}},
			assignRole),
		edit("fill_gaps", "Close gaps on the primary storyline",
			[]Param{{Name: "mode", Type: TypeString, Enum: []string{writer.FillExtendPrevious, writer.FillExtendNext, writer.FillDelete},
				Default: writer.FillExtendPrevious, Description: "How each gap is closed"},
				{Name: "max_gap", Type: TypeTime, Description: "Leave gaps longer than this alone"}},
			fillGaps),
		edit("fix_flash_frames", "Remove flash frames, letting a neighbour cover them",
			append([]Param{{Name: "mode", Type: TypeString,
				Enum:    []string{writer.FlashAuto, writer.FlashExtendPrevious, writer.FlashExtendNext, writer.FlashDelete},
				Default: writer.FlashAuto, Description: "How each flash frame is removed"}}, flashParams...),
			fixFlashFrames),
		edit("rapid_trim", "Trim every clip on the primary storyline to a maximum length",
			[]Param{{Name: "max", Type: TypeTime, Required: true, Description: "Longest a clip may be"},
				{Name: "keywords", Type: TypeStrings, Description: "Only trim clips tagged with one of these keywords"},
				{Name: "from", Type: TypeString, Enum: []string{"end", "start", "center"}, Default: "end",
					Description: "Which part of the clip is cut away"}},
			rapidTrim),
		edit("reformat", "Change the timeline's frame size, keeping its frame rate",
			[]Param{{Name: "preset", Type: TypeString, Enum: slices.Sorted(maps.Keys(writer.SocialPresets)),
				Description: "Aspect ratio preset"},
				{Name: "width", Type: TypeInt, Description: "Frame width when no preset is given"},
				{Name: "height", Type: TypeInt, Description: "Frame height when no preset is given"}},
			reformat),
		edit("snap_to_beats", "Roll cuts between clips onto the nearest marker, such as imported beats",
			[]Param{{Name: "max_shift", Type: TypeInt, Default: "6", Description: "Furthest a cut may move, in frames"},
				{Name: "prefer", Type: TypeString, Enum: []string{writer.SnapNearest, writer.SnapEarlier, writer.SnapLater},
					Default: writer.SnapNearest, Description: "Which side of the cut a beat may be on"}},
			snapToBeats),
		edit("import_cues", "Add markers from subtitles, a chapter list or beat analysis",
			[]Param{{Name: "cues", Type: TypeString, Description: "Cue text, read in the given format"},
				{Name: "format", Type: TypeString, Enum: cueFormats, Description: "Format of cues, or of cues_path when it has an unusual extension"},
				{Name: "cues_path", Type: TypePath, Description: "Cue file: .srt, .vtt, .txt, .md or .json"},
				{Name: "beats", Type: TypeString, Enum: []string{"all", "downbeat", "measure"}, Default: "all",
					Description: "Which beats of a beat file become markers"},
				kindParam},
			r.importCues),
	}
}

func markerKind(args Args) (ir.MarkerKind, error) {
	s, err := args.String("kind")
	if err != nil {
		return ir.MarkerStandard, err
	}
	return ir.ParseMarkerKind(s)
}

func addMarker(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	kind, err := markerKind(args)
	if err != nil {
		return Result{}, err
	}
	req := writer.MarkerRequest{Kind: kind}
	if req.Clip, err = args.String("clip"); err != nil {
		return Result{}, err
	}
	if req.At, _, err = args.Time("at", rate); err != nil {
		return Result{}, err
	}
	if req.Value, err = args.String("value"); err != nil {
		return Result{}, err
	}
	if req.Note, err = args.String("note"); err != nil {
		return Result{}, err
	}
	if req.Duration, _, err = args.Time("duration", rate); err != nil {
		return Result{}, err
	}
	res, err := ed.AddMarker(req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("added %s marker on %s at %s", res.Kind, res.Host, res.Start),
		Data:    map[string]any{"marker": res},
	}, nil
}

func batchResult(res writer.BatchResult) Result {
	return Result{
		Summary: fmt.Sprintf("added %d markers", len(res.Placed)),
		Data:    map[string]any{"placed": res.Placed},
	}
}

func addMarkersAtCuts(ed *writer.Editor, _ rational.FrameRate, args Args) (Result, error) {
	kind, err := markerKind(args)
	if err != nil {
		return Result{}, err
	}
	prefix, err := args.String("prefix")
	if err != nil {
		return Result{}, err
	}
	res, err := ed.AddMarkersAtCuts(kind, prefix)
	if err != nil {
		return Result{}, err
	}
	return batchResult(res), nil
}

func addMarkersAtInterval(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	kind, err := markerKind(args)
	if err != nil {
		return Result{}, err
	}
	prefix, err := args.String("prefix")
	if err != nil {
		return Result{}, err
	}
	interval, _, err := args.Time("interval", rate)
	if err != nil {
		return Result{}, err
	}
	res, err := ed.AddMarkersAtInterval(interval, kind, prefix)
	if err != nil {
		return Result{}, err
	}
	return batchResult(res), nil
}

func trimClip(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	var req writer.TrimRequest
	var err error
	if req.Clip, err = args.String("clip"); err != nil {
		return Result{}, err
	}
	relative, err := args.Bool("relative")
	if err != nil {
		return Result{}, err
	}
	if req.Ripple, err = args.Bool("ripple"); err != nil {
		return Result{}, err
	}
	for name, dst := range map[string]**writer.Edit{"in": &req.In, "out": &req.Out} {
		t, ok, err := args.Time(name, rate)
		if err != nil {
			return Result{}, err
		}
		if ok {
			*dst = &writer.Edit{Value: t, Relative: relative}
		}
	}
	if req.In == nil && req.Out == nil {
		return Result{}, &Error{Code: ErrCodeMissingArgument, Param: "in", Message: "give in, out or both"}
	}
	res, err := ed.Trim(req)
	if err != nil {
		return Result{}, err
	}
	summary := fmt.Sprintf("trimmed %s to %s", res.ClipID, res.Duration)
	if res.Clamped {
		summary += " (clamped to the available media)"
	}
	return Result{Summary: summary, Data: map[string]any{"trim": res}}, nil
}

func reorderClips(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	refs, err := args.Strings("clips")
	if err != nil {
		return Result{}, err
	}
	s, err := args.String("position")
	if err != nil {
		return Result{}, err
	}
	pos, err := writer.ParsePosition(s, rate)
	if err != nil {
		return Result{}, err
	}
	res, err := ed.Reorder(refs, pos)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("moved %d clips to %s", len(res.Moved), s),
		Data:    map[string]any{"moved": res.Moved, "dropped_transitions": res.DroppedTransitions},
	}, nil
}

func deleteClips(ed *writer.Editor, _ rational.FrameRate, args Args) (Result, error) {
	refs, err := args.Strings("clips")
	if err != nil {
		return Result{}, err
	}
	ripple, err := args.Bool("ripple")
	if err != nil {
		return Result{}, err
	}
	res, err := ed.Delete(refs, ripple)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("deleted %d clips", len(res.Removed)),
		Data:    map[string]any{"removed": res.Removed, "dropped_transitions": res.DroppedTransitions},
	}, nil
}

func splitClip(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	ref, err := args.String("clip")
	if err != nil {
		return Result{}, err
	}
	points, err := args.Times("at", rate)
	if err != nil {
		return Result{}, err
	}
	res, err := ed.Split(ref, points)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("split %s into %d segments", ref, len(res.Segments)),
		Data:    map[string]any{"segments": res.Segments},
	}, nil
}

func addTransition(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	var req writer.TransitionRequest
	var err error
	if req.Clip, err = args.String("clip"); err != nil {
		return Result{}, err
	}
	if req.Position, err = args.String("position"); err != nil {
		return Result{}, err
	}
	if req.Effect, err = args.String("effect"); err != nil {
		return Result{}, err
	}
	if req.Duration, _, err = args.Time("duration", rate); err != nil {
		return Result{}, err
	}
	res, err := ed.AddTransition(req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("added %d %s transitions", len(res.Transitions), res.Effect),
		Data:    map[string]any{"transitions": res.Transitions, "effect": res.Effect},
	}, nil
}

// rampSegments reads "<source time>=<speed>" entries.
func rampSegments(entries []string, rate rational.FrameRate) ([]writer.RampSegment, error) {
	var out []writer.RampSegment
	for _, e := range entries {
		src, speed, ok := strings.Cut(e, "=")
		if !ok {
			return nil, invalidArg("ramp", nil, "segment %q is not <source time>=<speed>", e)
		}
		at, err := rational.ParseAt(src, rate)
		if err != nil {
			return nil, invalidArg("ramp", err, "segment %q has a malformed source time", e)
		}
		factor, err := rational.ParseNumber(strings.TrimSpace(speed))
		if err != nil {
			return nil, invalidArg("ramp", err, "segment %q has a malformed speed", e)
		}
		out = append(out, writer.RampSegment{Source: at, Speed: factor})
	}
	return out, nil
}

func changeSpeed(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	var req writer.SpeedRequest
	var err error
	if req.Clip, err = args.String("clip"); err != nil {
		return Result{}, err
	}
	if req.Speed, _, err = args.Time("speed", rational.FrameRate{}); err != nil {
		return Result{}, err
	}
	ramp, err := args.Strings("ramp")
	if err != nil {
		return Result{}, err
	}
	if req.Ramp, err = rampSegments(ramp, rate); err != nil {
		return Result{}, err
	}
	if req.Speed.IsZero() && len(req.Ramp) == 0 {
		return Result{}, &Error{Code: ErrCodeMissingArgument, Param: "speed", Message: "give speed or ramp"}
	}
	if req.Ripple, err = args.Bool("ripple"); err != nil {
		return Result{}, err
	}
	if req.PreservePitch, err = args.Bool("preserve_pitch"); err != nil {
		return Result{}, err
	}
	res, err := ed.ChangeSpeed(req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("retimed %s to %s", res.ClipID, res.Duration),
		Data:    map[string]any{"speed": res},
	}, nil
}

func markSilence(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	opts, err := silenceOptions(args, rate)
	if err != nil {
		return Result{}, err
	}
	res, err := ed.MarkSilence(opts)
	if err != nil {
		return Result{}, err
	}
	return batchResult(res), nil
}

func removeSilence(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	opts, err := silenceOptions(args, rate)
	if err != nil {
		return Result{}, err
	}
	res, err := ed.RemoveSilence(opts)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("removed %d silent items", len(res.Removed)),
		Data:    map[string]any{"removed": res.Removed, "dropped_transitions": res.DroppedTransitions},
	}, nil
}

func addConnectedClip(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	var req writer.ConnectRequest
	var err error
	if req.Host, err = args.String("host"); err != nil {
		return Result{}, err
	}
	if req.Asset, err = args.String("asset"); err != nil {
		return Result{}, err
	}
	if req.Name, err = args.String("name"); err != nil {
		return Result{}, err
	}
	if req.Lane, err = args.Int("lane"); err != nil {
		return Result{}, err
	}
	for name, dst := range map[string]*rational.TimeValue{"offset": &req.Offset, "start": &req.Start, "duration": &req.Duration} {
		if *dst, _, err = args.Time(name, rate); err != nil {
			return Result{}, err
		}
	}
	res, err := ed.AddConnectedClip(req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("connected %s on lane %d at %s", res.ClipID, res.Lane, res.At),
		Data:    map[string]any{"clip": res},
	}, nil
}

func insertClip(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	var req writer.InsertRequest
	var err error
	if req.Asset, err = args.String("asset"); err != nil {
		return Result{}, err
	}
	if req.Name, err = args.String("name"); err != nil {
		return Result{}, err
	}
	if req.Ripple, err = args.Bool("ripple"); err != nil {
		return Result{}, err
	}
	s, err := args.String("position")
	if err != nil {
		return Result{}, err
	}
	if req.Position, err = writer.ParsePosition(s, rate); err != nil {
		return Result{}, err
	}
	if req.In, _, err = args.Time("in", rate); err != nil {
		return Result{}, err
	}
	if req.Duration, _, err = args.Time("duration", rate); err != nil {
		return Result{}, err
	}
	out, ok, err := args.Time("out", rate)
	if err != nil {
		return Result{}, err
	}
	if ok {
		req.Out = &out
	}
	res, err := ed.InsertClip(req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("inserted %s at %s", res.ClipID, res.Offset),
		Data:    map[string]any{"clip": res},
	}, nil
}

func assignRole(ed *writer.Editor, _ rational.FrameRate, args Args) (Result, error) {
	ref, err := args.String("clip")
	if err != nil {
		return Result{}, err
	}
	audio, err := args.String("audio_role")
	if err != nil {
		return Result{}, err
	}
	video, err := args.String("video_role")
	if err != nil {
		return Result{}, err
	}
	res, err := ed.AssignRole(ref, audio, video)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("assigned roles to %s", res.ClipID),
		Data:    map[string]any{"roles": res},
	}, nil
}

func fillGaps(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	mode, err := args.String("mode")
	if err != nil {
		return Result{}, err
	}
	maxGap, _, err := args.Time("max_gap", rate)
	if err != nil {
		return Result{}, err
	}
	filled, err := ed.FillGaps(mode, maxGap)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("filled %d gaps", len(filled)),
		Data:    map[string]any{"filled": filled},
	}, nil
}

func fixFlashFrames(ed *writer.Editor, _ rational.FrameRate, args Args) (Result, error) {
	mode, err := args.String("mode")
	if err != nil {
		return Result{}, err
	}
	opts, err := flashOptions(args)
	if err != nil {
		return Result{}, err
	}
	fixes, err := ed.FixFlashFrames(opts, mode)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("fixed %d flash frames", len(fixes)),
		Data:    map[string]any{"fixes": fixes},
	}, nil
}

func rapidTrim(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	var req writer.RapidTrimRequest
	var err error
	if req.Max, _, err = args.Time("max", rate); err != nil {
		return Result{}, err
	}
	if req.Keywords, err = args.Strings("keywords"); err != nil {
		return Result{}, err
	}
	if req.From, err = args.String("from"); err != nil {
		return Result{}, err
	}
	trims, err := ed.RapidTrim(req)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("trimmed %d clips to at most %s", len(trims), req.Max),
		Data:    map[string]any{"trims": trims},
	}, nil
}

func reformat(ed *writer.Editor, _ rational.FrameRate, args Args) (Result, error) {
	preset, err := args.String("preset")
	if err != nil {
		return Result{}, err
	}
	var size writer.Resolution
	if size.Width, err = args.Int("width"); err != nil {
		return Result{}, err
	}
	if size.Height, err = args.Int("height"); err != nil {
		return Result{}, err
	}
	res, err := ed.Reformat(preset, size)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("timeline now uses %s (%dx%d)", res.Name, res.Width, res.Height),
		Data:    map[string]any{"format": res},
	}, nil
}

var cueFormats = []string{string(cues.FormatSRT), string(cues.FormatVTT), string(cues.FormatTranscript), string(cues.FormatBeats)}

func (r *Registry) importCues(ed *writer.Editor, rate rational.FrameRate, args Args) (Result, error) {
	kind, err := markerKind(args)
	if err != nil {
		return Result{}, err
	}
	text, err := args.String("cues")
	if err != nil {
		return Result{}, err
	}
	path, err := args.String("cues_path")
	if err != nil {
		return Result{}, err
	}
	format, err := args.String("format")
	if err != nil {
		return Result{}, err
	}
	beats, err := args.String("beats")
	if err != nil {
		return Result{}, err
	}
	filter, err := cues.ParseBeatFilter(beats)
	if err != nil {
		return Result{}, err
	}
	opts := cues.Options{Rate: rate, Beats: filter}

	var list []cues.Cue
	switch {
	case text != "" && path != "":
		return Result{}, invalidArg("cues_path", nil, "give cues or cues_path, not both")
	case path != "":
		if err := r.CheckPath(path); err != nil {
			return Result{}, err
		}
		if format != "" {
			list, err = cues.ReadFileAs(path, cues.Format(format), r.opts.MaxCueBytes, opts)
		} else {
			list, err = cues.ReadFile(path, r.opts.MaxCueBytes, opts)
		}
	case text != "":
		if format == "" {
			return Result{}, missingArg("format")
		}
		if int64(len(text)) > r.opts.MaxCueBytes {
			return Result{}, ir.SizeLimitf("cue text is above the cue size limit")
		}
		list, err = cues.Parse(cues.Format(format), []byte(text), opts)
	default:
		return Result{}, &Error{Code: ErrCodeMissingArgument, Param: "cues", Message: "give cues or cues_path"}
	}
	if err != nil {
		return Result{}, err
	}

	in := make([]writer.Cue, len(list))
	for i, c := range list {
		in[i] = writer.Cue{At: c.At, Label: c.Label, Note: c.Note}
	}
	res, err := ed.ImportCues(in, kind)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Summary: fmt.Sprintf("added %d markers, skipped %d cues outside the timeline", len(res.Placed), res.Skipped),
		Data:    map[string]any{"placed": res.Placed, "skipped": res.Skipped},
	}, nil
}

func snapToBeats(ed *writer.Editor, _ rational.FrameRate, args Args) (Result, error) {
	var opts writer.SnapOptions
	if args.Has("max_shift") {
		n, err := args.Int("max_shift")
		if err != nil {
			return Result{}, err
		}
		if n < 1 {
			return Result{}, invalidArg("max_shift", nil, "must be at least 1")
		}
		opts.MaxShift = int64(n)
	}
	var err error
	if opts.Prefer, err = args.String("prefer"); err != nil {
		return Result{}, err
	}
	res, err := ed.SnapToBeats(opts)
	if err != nil {
		return Result{}, err
	}
	summary := fmt.Sprintf("snapped %d cuts to beats", len(res.Snapped))
	if res.Blocked > 0 {
		summary += fmt.Sprintf(", %d could not move", res.Blocked)
	}
	return Result{
		Summary: summary,
		Data:    map[string]any{"snapped": res.Snapped, "blocked": res.Blocked},
	}, nil
}
