package ir

import (
	"github.com/roach88/spine/internal/rational"
)

func sec(n int64) rational.TimeValue { return rational.Seconds(n) }

// newTestTimeline builds a 24 fps timeline whose spine holds the given clips
// back to back from zero. Each entry is a name and a length in seconds.
func newTestTimeline(clips ...any) *Timeline {
	res := NewResources()
	_ = res.Add(&Format{ID: "r1", Name: "FFVideoFormat1080p24", FrameDuration: rational.MustNew(100, 2400)})
	_ = res.Add(&Asset{ID: "r2", Name: "source", Duration: sec(600), HasVideo: true, HasAudio: true})
	tl := &Timeline{Name: "Edit", Format: "r1", Resources: res, Spine: &Spine{}}
	cursor := rational.Zero
	for i := 0; i+1 < len(clips); i += 2 {
		name := clips[i].(string)
		dur := sec(int64(clips[i+1].(int)))
		tl.Spine.Items = append(tl.Spine.Items, &Clip{
			Kind: TagAssetClip, Name: name, Ref: "r2",
			Offset: cursor, Duration: dur,
		})
		cursor = cursor.Add(dur)
	}
	tl.Duration = cursor
	tl.Reindex()
	return tl
}

func newTestProject(tl *Timeline) *Project {
	return &Project{
		Version:   "1.11",
		Resources: tl.Resources,
		Events:    []*Event{{Name: "Event", Timelines: []*Timeline{tl}}},
	}
}
