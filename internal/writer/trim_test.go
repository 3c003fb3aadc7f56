package writer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/testutil"
	"github.com/roach88/spine/internal/writer"
)

func gapDoc() string {
	return testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "10s", "0s"),
		testutil.Gap("10s", "10s"),
		testutil.AssetClip(testutil.InterviewID, "B", "20s", "10s", "100s"),
	)
}

func TestTrimOut(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		clip   string
		edit   writer.Edit
		ripple bool
		want   []string
	}{
		{
			name: "ripple shortens and pulls the rest back",
			doc:  testutil.ThreeClips(), clip: "A",
			edit: writer.Edit{Value: sec(-10), Relative: true}, ripple: true,
			want: []string{"A@0s+20s", "B@20s+30s", "C@50s+30s"},
		},
		{
			name: "ripple lengthens and pushes the rest",
			doc:  testutil.ThreeClips(), clip: "B",
			edit: writer.Edit{Value: sec(140)}, ripple: true,
			want: []string{"A@0s+30s", "B@30s+40s", "C@70s+30s"},
		},
		{
			name: "without ripple shortening leaves a gap",
			doc:  testutil.ThreeClips(), clip: "A",
			edit: writer.Edit{Value: sec(-10), Relative: true},
			want: []string{"A@0s+20s", "gap@20s+10s", "B@30s+30s", "C@60s+30s"},
		},
		{
			name: "without ripple lengthening eats into the gap",
			doc:  gapDoc(), clip: "A",
			edit: writer.Edit{Value: sec(4), Relative: true},
			want: []string{"A@0s+14s", "gap@14s+6s", "B@20s+10s"},
		},
		{
			name: "without ripple lengthening can consume the gap",
			doc:  gapDoc(), clip: "A",
			edit: writer.Edit{Value: sec(10), Relative: true},
			want: []string{"A@0s+20s", "B@20s+10s"},
		},
		{
			name: "without ripple shortening widens the gap",
			doc:  gapDoc(), clip: "A",
			edit: writer.Edit{Value: sec(-5), Relative: true},
			want: []string{"A@0s+5s", "gap@5s+15s", "B@20s+10s"},
		},
		{
			name: "last clip may grow without ripple",
			doc:  testutil.ThreeClips(), clip: "C",
			edit: writer.Edit{Value: sec(5), Relative: true},
			want: []string{"A@0s+30s", "B@30s+30s", "C@60s+35s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, tt.doc)
			edit := tt.edit
			_, err := ed.Trim(writer.TrimRequest{Clip: tt.clip, Out: &edit, Ripple: tt.ripple})
			require.NoError(t, err)
			assert.Equal(t, tt.want, layout(ed.Timeline()))
		})
	}
}

func TestTrimIn(t *testing.T) {
	ed := newEditor(t, testutil.ThreeClips())
	res, err := ed.Trim(writer.TrimRequest{Clip: "B", In: &writer.Edit{Value: sec(110)}, Ripple: true})
	require.NoError(t, err)
	assertTime(t, sec(110), res.Start)
	assertTime(t, sec(20), res.Duration)
	assertTime(t, sec(-10), res.Delta)
	assert.Equal(t, []string{"A@0s+30s", "B@30s+20s", "C@50s+30s"}, layout(ed.Timeline()))

	ed = newEditor(t, testutil.ThreeClips())
	_, err = ed.Trim(writer.TrimRequest{Clip: "B", In: &writer.Edit{Value: sec(10), Relative: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A@0s+30s", "gap@30s+10s", "B@40s+20s", "C@60s+30s"}, layout(ed.Timeline()))
	assertTime(t, sec(110), clip(t, ed, "B").Start)

	// Extending the head back over a preceding gap.
	ed = newEditor(t, gapDoc())
	_, err = ed.Trim(writer.TrimRequest{Clip: "B", In: &writer.Edit{Value: sec(-4), Relative: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A@0s+10s", "gap@10s+6s", "B@16s+14s"}, layout(ed.Timeline()))
}

func TestTrimBothEdges(t *testing.T) {
	ed := newEditor(t, testutil.ThreeClips())
	res, err := ed.Trim(writer.TrimRequest{
		Clip:   "B",
		In:     &writer.Edit{Value: sec(5), Relative: true},
		Out:    &writer.Edit{Value: sec(120)},
		Ripple: true,
	})
	require.NoError(t, err)
	assertTime(t, sec(105), res.Start)
	assertTime(t, sec(15), res.Duration)
	assert.Equal(t, []string{"A@0s+30s", "B@30s+15s", "C@45s+30s"}, layout(ed.Timeline()))
}

func TestTrimClampsToSource(t *testing.T) {
	ed := newEditor(t, testutil.ThreeClips())
	res, err := ed.Trim(writer.TrimRequest{Clip: "C", Out: &writer.Edit{Value: sec(4000)}, Ripple: true})
	require.NoError(t, err)
	assert.True(t, res.Clamped)
	assertTime(t, sec(3400), res.Duration)

	res, err = ed.Trim(writer.TrimRequest{Clip: "A", In: &writer.Edit{Value: sec(-5)}, Ripple: true})
	require.NoError(t, err)
	assert.True(t, res.Clamped)
	assertTime(t, sec(0), res.Start)
	assertTime(t, sec(0), res.Delta)
}

func TestTrimRejects(t *testing.T) {
	tests := []struct {
		name string
		req  writer.TrimRequest
		kind ir.ErrorKind
	}{
		{"no edit", writer.TrimRequest{Clip: "A"}, ir.KindFormat},
		{"zero duration", writer.TrimRequest{Clip: "A", Out: &writer.Edit{Value: sec(-30), Relative: true}, Ripple: true}, ir.KindStructural},
		{"in past out", writer.TrimRequest{Clip: "A", In: &writer.Edit{Value: sec(31)}, Ripple: true}, ir.KindStructural},
		{"overlap without ripple", writer.TrimRequest{Clip: "A", Out: &writer.Edit{Value: sec(1), Relative: true}}, ir.KindStructural},
		{"head into neighbour without ripple", writer.TrimRequest{Clip: "B", In: &writer.Edit{Value: sec(-1), Relative: true}}, ir.KindStructural},
		{"unknown clip", writer.TrimRequest{Clip: "Z", Out: &writer.Edit{Value: sec(1), Relative: true}}, ir.KindReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t, testutil.ThreeClips())
			_, err := ed.Trim(tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, ir.KindOf(err))
		})
	}
}

func TestTrimKeepsConnectedClipsOnHost(t *testing.T) {
	ed := newEditor(t, testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s",
			testutil.LaneClip(testutil.BRollID, "Broll", 1, "110s", "5s", "0s")),
	))
	_, err := ed.Trim(writer.TrimRequest{Clip: "A", Out: &writer.Edit{Value: sec(-10), Relative: true}, Ripple: true})
	require.NoError(t, err)

	b := clip(t, ed, "B")
	conn := ir.Connected(b)
	require.Len(t, conn, 1)
	assertTime(t, sec(30), conn[0].TimelineOffset())
}

func TestRippleTrimThenReverseRestoresOffsets(t *testing.T) {
	doc := testutil.DocumentWith(testutil.DocOptions{FrameDuration: "1001/30000s"},
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "3003/1000s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "B", "3003/1000s", "10010/1000s", "1001/100s"),
		testutil.Gap("13013/1000s", "1001/1000s"),
		testutil.AssetClip(testutil.InterviewID, "C", "14014/1000s", "2002/1000s", "2002/100s"),
	)
	seven := rational.Rate2997.FrameTime(7)

	for _, edge := range []string{"out", "in"} {
		t.Run(edge, func(t *testing.T) {
			ed := newEditor(t, doc)
			before := make([]rational.TimeValue, 0, 4)
			for _, it := range ed.Timeline().Spine.Items {
				off, _ := it.Span()
				before = append(before, off)
			}

			trim := func(delta rational.TimeValue) {
				t.Helper()
				req := writer.TrimRequest{Clip: "B", Ripple: true}
				if edge == "out" {
					req.Out = &writer.Edit{Value: delta, Relative: true}
				} else {
					req.In = &writer.Edit{Value: delta, Relative: true}
				}
				_, err := ed.Trim(req)
				require.NoError(t, err)
			}
			trim(seven.Neg())
			// Pulling the tail in shortens B; pulling the head back lengthens it.
			want := before[2].Sub(seven)
			if edge == "in" {
				want = before[2].Add(seven)
			}
			shifted, _ := ed.Timeline().Spine.Items[2].Span()
			assert.True(t, want.Equal(shifted), "gap moved to %s, want %s", shifted, want)

			trim(seven)
			items := ed.Timeline().Spine.Items
			require.Len(t, items, len(before))
			for i, it := range items {
				off, _ := it.Span()
				assert.True(t, before[i].Equal(off), "item %d at %s, want %s", i, off, before[i])
			}
			assertTime(t, frac(1001, 100), clip(t, ed, "B").Start)
			assertTime(t, frac(10010, 1000), clip(t, ed, "B").Duration)
		})
	}
}
