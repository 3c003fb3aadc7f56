package ops

import (
	"fmt"
	"slices"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/writer"
)

var timelineParam = Param{
	Name: "timeline", Type: TypeInt, Default: "0",
	Description: "Timeline to work on, counting projects in document order and then compound clips",
}

type readOp struct {
	info Info
	run  func(p *ir.Project, tl *ir.Timeline, index int, args Args) (Result, error)
}

func (o *readOp) Info() Info { return o.info }

func (o *readOp) Run(p *ir.Project, args Args) (Result, error) {
	index, err := args.Int(timelineParam.Name)
	if err != nil {
		return Result{}, err
	}
	tl, err := p.Timeline(index)
	if err != nil {
		return Result{}, err
	}
	return o.run(p, tl, index, args)
}

func readOperations() []Operation {
	return []Operation{
		&readOp{
			info: Info{
				Name: "inspect_timeline", Category: CategoryRead,
				Description: "Summarize a timeline: format, duration, clip and marker counts, roles and compounds",
				Params:      []Param{timelineParam},
			},
			run: inspectTimeline,
		},
		&readOp{
			info: Info{
				Name: "list_clips", Category: CategoryRead,
				Description: "List every clip with its timeline position, source range and lane",
				Params:      []Param{timelineParam},
			},
			run: listClips,
		},
		&readOp{
			info: Info{
				Name: "list_markers", Category: CategoryRead,
				Description: "List every marker with its timeline position",
				Params: []Param{timelineParam,
					{Name: "kind", Type: TypeString, Enum: markerKinds, Description: "Only list markers of this kind"}},
			},
			run: listMarkers,
		},
		&readOp{
			info: Info{
				Name: "validate_timeline", Category: CategoryRead,
				Description: "Check every timeline of the document against the model invariants",
				Params:      []Param{timelineParam},
			},
			run: validateTimeline,
		},
		&readOp{
			info: Info{
				Name: "detect_silence", Category: CategoryRead,
				Description: "Find gaps and clips that look silent on the primary storyline",
				Params:      append([]Param{timelineParam}, silenceParams...),
			},
			run: detectSilence,
		},
		&readOp{
			info: Info{
				Name: "detect_flash_frames", Category: CategoryRead,
				Description: "Find visual clips shorter than a few frames on the primary storyline",
				Params:      append([]Param{timelineParam}, flashParams...),
			},
			run: detectFlashFrames,
		},
	}
}

var markerKinds = []string{"standard", "chapter", "todo", "completed"}

type clipView struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Kind      string             `json:"kind"`
	Ref       string             `json:"ref,omitempty"`
	Offset    rational.TimeValue `json:"offset"`
	Duration  rational.TimeValue `json:"duration"`
	Start     rational.TimeValue `json:"start"`
	Lane      int                `json:"lane"`
	AudioRole string             `json:"audio_role,omitempty"`
	VideoRole string             `json:"video_role,omitempty"`
	Markers   int                `json:"markers,omitempty"`
	Retimed   bool               `json:"retimed,omitempty"`
}

type markerView struct {
	Host     string             `json:"host"`
	Kind     string             `json:"kind"`
	At       rational.TimeValue `json:"at"`
	Duration rational.TimeValue `json:"duration"`
	Value    string             `json:"value"`
	Note     string             `json:"note,omitempty"`
}

func roles(c *ir.Clip) (audio, video string) {
	audio, video = c.AudioRole, c.VideoRole
	if c.Role != "" {
		if c.Kind == "audio" {
			audio = c.Role
		} else {
			video = c.Role
		}
	}
	return audio, video
}

func markersOf(it ir.SpineItem) []*ir.Marker {
	switch v := it.(type) {
	case *ir.Clip:
		return v.Markers
	case *ir.Gap:
		return v.Markers
	}
	return nil
}

// markerTime places a marker on the timeline from its host's placement.
func markerTime(host ir.SpineItem, at rational.TimeValue, m *ir.Marker) rational.TimeValue {
	var local rational.TimeValue
	if h, ok := host.(ir.Host); ok {
		local = h.LocalStart()
	}
	return at.Add(m.Start.Sub(local))
}

func listClips(_ *ir.Project, tl *ir.Timeline, _ int, _ Args) (Result, error) {
	var clips []clipView
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		c, ok := v.Item.(*ir.Clip)
		if !ok {
			return
		}
		audio, video := roles(c)
		clips = append(clips, clipView{
			ID: c.ID, Name: c.Name, Kind: c.Kind, Ref: c.Ref,
			Offset: at.Sub(tl.Origin()), Duration: c.Duration, Start: c.Start, Lane: v.Lane,
			AudioRole: audio, VideoRole: video, Markers: len(c.Markers), Retimed: c.TimeMap != nil,
		})
	})
	return Result{
		Summary: fmt.Sprintf("%d clips in %s", len(clips), tl.Label()),
		Data:    map[string]any{"timeline": tl.Label(), "clips": clips},
	}, nil
}

func listMarkers(_ *ir.Project, tl *ir.Timeline, _ int, args Args) (Result, error) {
	filter, err := args.String("kind")
	if err != nil {
		return Result{}, err
	}
	var want ir.MarkerKind
	if filter != "" {
		if want, err = ir.ParseMarkerKind(filter); err != nil {
			return Result{}, err
		}
	}
	markers := []markerView{}
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		host := v.Item.ItemID()
		if c, ok := v.Item.(*ir.Clip); ok && c.Name != "" {
			host = c.Name
		}
		for _, m := range markersOf(v.Item) {
			if filter != "" && m.Kind != want {
				continue
			}
			markers = append(markers, markerView{
				Host: host, Kind: m.Kind.String(), At: markerTime(v.Item, at, m).Sub(tl.Origin()),
				Duration: m.Duration, Value: m.Value, Note: m.Note,
			})
		}
	})
	slices.SortStableFunc(markers, func(a, b markerView) int { return a.At.Cmp(b.At) })
	return Result{
		Summary: fmt.Sprintf("%d markers in %s", len(markers), tl.Label()),
		Data:    map[string]any{"timeline": tl.Label(), "markers": markers},
	}, nil
}

func inspectTimeline(p *ir.Project, tl *ir.Timeline, _ int, _ Args) (Result, error) {
	var (
		spineClips, connected, compounds, retimed int
		gaps, transitions                         int
		audioRoles, videoRoles                    []string
		markerCounts                              = map[string]int{}
	)
	addRole := func(list *[]string, r string) {
		if r != "" && !slices.Contains(*list, r) {
			*list = append(*list, r)
		}
	}
	tl.Walk(func(v ir.Visit) {
		for _, m := range markersOf(v.Item) {
			markerCounts[m.Kind.String()]++
		}
		switch it := v.Item.(type) {
		case *ir.Clip:
			if v.OnSpine() {
				spineClips++
			} else {
				connected++
			}
			if it.IsCompound() {
				compounds++
			}
			if it.TimeMap != nil {
				retimed++
			}
			audio, video := roles(it)
			addRole(&audioRoles, audio)
			addRole(&videoRoles, video)
		case *ir.Gap:
			gaps++
		case *ir.Transition:
			transitions++
		}
	})
	slices.Sort(audioRoles)
	slices.Sort(videoRoles)

	data := map[string]any{
		"version":         p.Version,
		"timeline":        tl.Label(),
		"timelines":       len(p.AllTimelines()),
		"duration":        tl.Duration,
		"spine_clips":     spineClips,
		"connected_clips": connected,
		"compound_clips":  compounds,
		"retimed_clips":   retimed,
		"gaps":            gaps,
		"transitions":     transitions,
		"markers":         markerCounts,
		"audio_roles":     audioRoles,
		"video_roles":     videoRoles,
	}
	if f := tl.FormatResource(); f != nil {
		data["format"] = map[string]any{"id": f.ID, "name": f.Name, "width": f.Width, "height": f.Height}
	}
	rate := tl.FrameRate()
	if !rate.IsZero() {
		data["frame_rate"] = rate.String()
		if tc, err := rational.TimecodeOf(tl.Duration, rate, false); err == nil {
			data["duration_timecode"] = tc.String()
		}
	}
	return Result{
		Summary: fmt.Sprintf("%s: %d clips on the spine, %d connected, %s long",
			tl.Label(), spineClips, connected, tl.Duration.Simplify()),
		Data: data,
	}, nil
}

func validateTimeline(p *ir.Project, _ *ir.Timeline, _ int, _ Args) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	items := 0
	for _, tl := range p.AllTimelines() {
		items += tl.Index().Len()
	}
	return Result{
		Summary: fmt.Sprintf("valid: %d timelines, %d items", len(p.AllTimelines()), items),
		Data:    map[string]any{"valid": true, "timelines": len(p.AllTimelines()), "items": items},
	}, nil
}

var silenceParams = []Param{
	{Name: "min_gap", Type: TypeTime, Default: "0.5", Description: "Shortest gap that counts as silence"},
	{Name: "patterns", Type: TypeStrings, Description: "Clip name fragments that suggest silence"},
	{Name: "min_confidence", Type: TypeInt, Default: "70", Description: "Confidence percentage a candidate needs"},
}

func silenceOptions(args Args, rate rational.FrameRate) (writer.SilenceOptions, error) {
	var opts writer.SilenceOptions
	var err error
	if opts.MinGap, _, err = args.Time("min_gap", rate); err != nil {
		return opts, err
	}
	if opts.Patterns, err = args.Strings("patterns"); err != nil {
		return opts, err
	}
	opts.MinConfidence, err = args.Int("min_confidence")
	return opts, err
}

func detectSilence(p *ir.Project, tl *ir.Timeline, index int, args Args) (Result, error) {
	opts, err := silenceOptions(args, tl.FrameRate())
	if err != nil {
		return Result{}, err
	}
	ed, err := writer.NewEditor(p, writer.Options{Timeline: index})
	if err != nil {
		return Result{}, err
	}
	found := ed.DetectSilence(opts)
	return Result{
		Summary: fmt.Sprintf("%d silence candidates", len(found)),
		Data:    map[string]any{"candidates": found},
	}, nil
}

var flashParams = []Param{
	{Name: "threshold", Type: TypeInt, Default: "6", Description: "Clips shorter than this many frames are flash frames"},
	{Name: "critical", Type: TypeInt, Default: "2", Description: "Flash frames shorter than this many frames are critical"},
}

func flashOptions(args Args) (writer.FlashOptions, error) {
	threshold, err := args.Int("threshold")
	if err != nil {
		return writer.FlashOptions{}, err
	}
	critical, err := args.Int("critical")
	return writer.FlashOptions{Threshold: int64(threshold), Critical: int64(critical)}, err
}

func detectFlashFrames(p *ir.Project, _ *ir.Timeline, index int, args Args) (Result, error) {
	opts, err := flashOptions(args)
	if err != nil {
		return Result{}, err
	}
	ed, err := writer.NewEditor(p, writer.Options{Timeline: index})
	if err != nil {
		return Result{}, err
	}
	found := ed.DetectFlashFrames(opts)
	critical := 0
	for _, f := range found {
		if f.Critical {
			critical++
		}
	}
	return Result{
		Summary: fmt.Sprintf("%d flash frames, %d critical", len(found), critical),
		Data:    map[string]any{"flash_frames": found},
	}, nil
}
