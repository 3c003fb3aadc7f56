package ops

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

func analysisOperations() []Operation {
	return []Operation{
		&readOp{
			info: Info{
				Name: "find_short_cuts", Category: CategoryRead,
				Description: "List clips on the primary storyline shorter than a threshold",
				Params: []Param{timelineParam,
					{Name: "threshold", Type: TypeTime, Default: "0.5", Description: "Clips shorter than this are listed"}},
			},
			run: func(_ *ir.Project, tl *ir.Timeline, _ int, args Args) (Result, error) {
				return clipsByLength(tl, args, rational.MustNew(1, 2), true)
			},
		},
		&readOp{
			info: Info{
				Name: "find_long_clips", Category: CategoryRead,
				Description: "List clips on the primary storyline longer than a threshold",
				Params: []Param{timelineParam,
					{Name: "threshold", Type: TypeTime, Default: "10", Description: "Clips longer than this are listed"}},
			},
			run: func(_ *ir.Project, tl *ir.Timeline, _ int, args Args) (Result, error) {
				return clipsByLength(tl, args, rational.Seconds(10), false)
			},
		},
		&readOp{
			info: Info{
				Name: "list_keywords", Category: CategoryRead,
				Description: "List every keyword with the clips tagged with it",
				Params:      []Param{timelineParam},
			},
			run: listKeywords,
		},
		&readOp{
			info: Info{
				Name: "filter_by_role", Category: CategoryRead,
				Description: "List clips whose audio or video role matches; a main role also matches its subroles",
				Params: []Param{timelineParam,
					{Name: "role", Type: TypeString, Required: true, Description: "Role to look for, such as dialogue"},
					{Name: "role_type", Type: TypeString, Enum: []string{"any", "audio", "video"}, Default: "any",
						Description: "Which role of each clip to compare"}},
			},
			run: filterByRole,
		},
		&readOp{
			info: Info{
				Name: "detect_gaps", Category: CategoryRead,
				Description: "List gaps on the primary storyline with the clips on either side",
				Params: []Param{timelineParam,
					{Name: "min_frames", Type: TypeInt, Default: "1", Description: "Shortest gap reported, in frames"}},
			},
			run: detectGaps,
		},
		&readOp{
			info: Info{
				Name: "detect_duplicates", Category: CategoryRead,
				Description: "Group clips that use the same source media",
				Params: []Param{timelineParam,
					{Name: "mode", Type: TypeString, Enum: []string{dupSameSource, dupOverlapping, dupIdentical}, Default: dupSameSource,
						Description: "same_source groups every reuse, overlapping_ranges only reuse of the same footage, identical only the same range twice"}},
			},
			run: detectDuplicates,
		},
	}
}

func spineClipView(tl *ir.Timeline, c *ir.Clip) clipView {
	audio, video := roles(c)
	return clipView{
		ID: c.ID, Name: c.Name, Kind: c.Kind, Ref: c.Ref,
		Offset: c.Offset.Sub(tl.Origin()), Duration: c.Duration, Start: c.Start,
		AudioRole: audio, VideoRole: video, Markers: len(c.Markers), Retimed: c.TimeMap != nil,
	}
}

func clipsByLength(tl *ir.Timeline, args Args, def rational.TimeValue, shorter bool) (Result, error) {
	threshold, given, err := args.Time("threshold", tl.FrameRate())
	if err != nil {
		return Result{}, err
	}
	if !given {
		threshold = def
	}
	if threshold.Sign() <= 0 {
		return Result{}, invalidArg("threshold", nil, "must be positive")
	}
	clips := []clipView{}
	for _, c := range tl.Clips() {
		if shorter && c.Duration.Less(threshold) || !shorter && threshold.Less(c.Duration) {
			clips = append(clips, spineClipView(tl, c))
		}
	}
	word := "longer"
	if shorter {
		word = "shorter"
	}
	return Result{
		Summary: fmt.Sprintf("%d clips %s than %s", len(clips), word, threshold.Simplify()),
		Data:    map[string]any{"threshold": threshold, "clips": clips},
	}, nil
}

type keywordView struct {
	Value string   `json:"value"`
	Clips []string `json:"clips"`
}

func listKeywords(_ *ir.Project, tl *ir.Timeline, _ int, _ Args) (Result, error) {
	byValue := map[string]*keywordView{}
	tl.WalkClips(func(c *ir.Clip, _ ir.Visit) {
		for _, k := range c.Keywords {
			// One keyword element may carry a comma-separated list.
			for _, v := range strings.Split(k.Value, ",") {
				if v = strings.TrimSpace(v); v == "" {
					continue
				}
				kv, ok := byValue[v]
				if !ok {
					kv = &keywordView{Value: v}
					byValue[v] = kv
				}
				if !slices.Contains(kv.Clips, c.ID) {
					kv.Clips = append(kv.Clips, c.ID)
				}
			}
		}
	})
	keywords := make([]keywordView, 0, len(byValue))
	for _, kv := range byValue {
		keywords = append(keywords, *kv)
	}
	slices.SortFunc(keywords, func(a, b keywordView) int { return strings.Compare(a.Value, b.Value) })
	return Result{
		Summary: fmt.Sprintf("%d keywords in %s", len(keywords), tl.Label()),
		Data:    map[string]any{"keywords": keywords},
	}, nil
}

// roleMatches compares roles case-insensitively; "dialogue" matches
// "dialogue.dialogue-1".
func roleMatches(have, want string) bool {
	have, want = strings.ToLower(have), strings.ToLower(want)
	if have == "" {
		return false
	}
	return have == want || strings.HasPrefix(have, want+".")
}

type roleMatch struct {
	clipView
	Matched string `json:"matched"`
}

func filterByRole(_ *ir.Project, tl *ir.Timeline, _ int, args Args) (Result, error) {
	role, err := args.String("role")
	if err != nil {
		return Result{}, err
	}
	if role = strings.TrimSpace(role); role == "" {
		return Result{}, invalidArg("role", nil, "must not be empty")
	}
	kind, err := args.String("role_type")
	if err != nil {
		return Result{}, err
	}
	if kind == "" {
		kind = "any"
	}
	matches := []roleMatch{}
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		c, ok := v.Item.(*ir.Clip)
		if !ok {
			return
		}
		audio, video := roles(c)
		var matched []string
		if kind != "video" && roleMatches(audio, role) {
			matched = append(matched, "audio")
		}
		if kind != "audio" && roleMatches(video, role) {
			matched = append(matched, "video")
		}
		if len(matched) == 0 {
			return
		}
		view := clipView{
			ID: c.ID, Name: c.Name, Kind: c.Kind, Ref: c.Ref,
			Offset: at.Sub(tl.Origin()), Duration: c.Duration, Start: c.Start, Lane: v.Lane,
			AudioRole: audio, VideoRole: video, Markers: len(c.Markers), Retimed: c.TimeMap != nil,
		}
		matches = append(matches, roleMatch{clipView: view, Matched: strings.Join(matched, ",")})
	})
	return Result{
		Summary: fmt.Sprintf("%d clips with role %s", len(matches), role),
		Data:    map[string]any{"role": role, "role_type": kind, "clips": matches},
	}, nil
}

type gapView struct {
	ID       string             `json:"id"`
	Offset   rational.TimeValue `json:"offset"`
	Duration rational.TimeValue `json:"duration"`
	Frames   int64              `json:"frames"`
	Previous string             `json:"previous,omitempty"`
	Next     string             `json:"next,omitempty"`
}

func detectGaps(_ *ir.Project, tl *ir.Timeline, _ int, args Args) (Result, error) {
	minFrames := 1
	if args.Has("min_frames") {
		var err error
		if minFrames, err = args.Int("min_frames"); err != nil {
			return Result{}, err
		}
		if minFrames < 1 {
			return Result{}, invalidArg("min_frames", nil, "must be at least 1")
		}
	}
	rate := tl.FrameRate()
	items := tl.Spine.Items
	gaps := []gapView{}
	total := rational.Zero
	for i, it := range items {
		g, ok := it.(*ir.Gap)
		if !ok {
			continue
		}
		frames := rate.FramesFloor(g.Duration)
		if frames < int64(minFrames) {
			continue
		}
		view := gapView{ID: g.ID, Offset: g.Offset.Sub(tl.Origin()), Duration: g.Duration, Frames: frames}
		if j := neighbourClip(items, i, -1); j >= 0 {
			view.Previous = items[j].(*ir.Clip).Label()
		}
		if j := neighbourClip(items, i, +1); j >= 0 {
			view.Next = items[j].(*ir.Clip).Label()
		}
		gaps = append(gaps, view)
		total = total.Add(g.Duration)
	}
	return Result{
		Summary: fmt.Sprintf("%d gaps totalling %s", len(gaps), total.Simplify()),
		Data:    map[string]any{"gaps": gaps, "total": total.Simplify()},
	}, nil
}

// neighbourClip is the index of the first clip from i in direction step
// before another gap, or -1.
func neighbourClip(items []ir.SpineItem, i, step int) int {
	for j := i + step; j >= 0 && j < len(items); j += step {
		switch items[j].(type) {
		case *ir.Clip:
			return j
		case *ir.Gap:
			return -1
		}
	}
	return -1
}

// Duplicate detection modes.
const (
	dupSameSource  = "same_source"
	dupOverlapping = "overlapping_ranges"
	dupIdentical   = "identical"
)

type duplicateGroup struct {
	Source string     `json:"source"`
	Name   string     `json:"name"`
	Clips  []clipView `json:"clips"`
}

func detectDuplicates(_ *ir.Project, tl *ir.Timeline, _ int, args Args) (Result, error) {
	mode, err := args.String("mode")
	if err != nil {
		return Result{}, err
	}
	if mode == "" {
		mode = dupSameSource
	}

	var (
		order  []string
		bySrc  = map[string][]clipView{}
		origin = tl.Origin()
	)
	tl.WalkPlaced(func(v ir.Visit, at rational.TimeValue) {
		c, ok := v.Item.(*ir.Clip)
		if !ok || c.Ref == "" {
			return
		}
		if _, seen := bySrc[c.Ref]; !seen {
			order = append(order, c.Ref)
		}
		bySrc[c.Ref] = append(bySrc[c.Ref], clipView{
			ID: c.ID, Name: c.Name, Kind: c.Kind, Ref: c.Ref,
			Offset: at.Sub(origin), Duration: c.Duration, Start: c.Start, Lane: v.Lane,
		})
	})

	groups := []duplicateGroup{}
	clips := 0
	for _, ref := range order {
		members := bySrc[ref]
		if len(members) < 2 {
			continue
		}
		name := ref
		if res, ok := tl.Resources.Get(ref); ok {
			switch r := res.(type) {
			case *ir.Asset:
				name = r.Name
			case *ir.Media:
				name = r.Name
			}
		}
		var sets [][]clipView
		switch mode {
		case dupSameSource:
			sets = [][]clipView{members}
		case dupOverlapping:
			if overlapping(members) {
				sets = [][]clipView{members}
			}
		case dupIdentical:
			sets = identicalRanges(members)
		}
		for _, s := range sets {
			groups = append(groups, duplicateGroup{Source: ref, Name: name, Clips: s})
			clips += len(s)
		}
	}
	return Result{
		Summary: fmt.Sprintf("%d duplicate groups covering %d clips (%s)", len(groups), clips, mode),
		Data:    map[string]any{"mode": mode, "groups": groups},
	}, nil
}

// overlapping reports whether any two clips use some of the same source
// time.
func overlapping(clips []clipView) bool {
	for i := range clips {
		for j := i + 1; j < len(clips); j++ {
			a, b := clips[i], clips[j]
			if a.Start.Less(b.Start.Add(b.Duration)) && b.Start.Less(a.Start.Add(a.Duration)) {
				return true
			}
		}
	}
	return false
}

// identicalRanges groups clips with the same source start and duration,
// keeping groups of two or more in first-use order.
func identicalRanges(clips []clipView) [][]clipView {
	var out [][]clipView
	used := make([]bool, len(clips))
	for i := range clips {
		if used[i] {
			continue
		}
		set := []clipView{clips[i]}
		for j := i + 1; j < len(clips); j++ {
			if !used[j] && clips[j].Start.Equal(clips[i].Start) && clips[j].Duration.Equal(clips[i].Duration) {
				set = append(set, clips[j])
				used[j] = true
			}
		}
		if len(set) > 1 {
			out = append(out, set)
		}
	}
	return out
}
