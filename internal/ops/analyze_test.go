package ops_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/testutil"
)

// analysisDoc lays out, on the primary storyline:
//
//	A  0s      30s   Interview 0s, dialogue, keywords "interview, wide"
//	   gap     2s
//	B  32s     1/4s  Interview 100s, titles
//	C  129/4s  15s   Interview 5s
//	D  189/4s  5s    B-Roll 0s, keyword "wide"
//	E  209/4s  5s    B-Roll 0s
//
// with a music clip connected below A.
func analysisDoc() string {
	return testutil.Document(
		`<asset-clip ref="r2" offset="0s" name="A" start="0s" duration="30s" audioRole="dialogue.dialogue-1">`+
			`<keyword start="0s" duration="30s" value="interview, wide"/>`+
			`<asset-clip ref="r4" lane="-1" offset="0s" name="Music" start="0s" duration="30s" audioRole="music"/>`+
			`</asset-clip>`,
		testutil.Gap("30s", "2s"),
		`<asset-clip ref="r2" offset="32s" name="B" start="100s" duration="1/4s" videoRole="titles"/>`,
		testutil.AssetClip(testutil.InterviewID, "C", "129/4s", "15s", "5s"),
		testutil.AssetClip(testutil.BRollID, "D", "189/4s", "5s", "0s",
			`<keyword start="0s" duration="5s" value="wide"/>`),
		testutil.AssetClip(testutil.BRollID, "E", "209/4s", "5s", "0s"),
	)
}

func names(r gjson.Result) []string {
	var out []string
	for _, c := range r.Array() {
		out = append(out, c.Get("name").String())
	}
	return out
}

func TestFindShortCutsAndLongClips(t *testing.T) {
	src := testutil.WriteDocument(t, "cut.fcpxml", analysisDoc())
	r := newRunner(t, nil)

	short := run(t, r, "find_short_cuts", src, nil)
	assert.Equal(t, []string{"B"}, names(short.Get("data.clips")))
	assert.Equal(t, "1/2s", short.Get("data.threshold").String())

	short = run(t, r, "find_short_cuts", src, ops.Args{"threshold": "1/4s"})
	assert.Empty(t, names(short.Get("data.clips")))

	long := run(t, r, "find_long_clips", src, nil)
	assert.Equal(t, []string{"A", "C"}, names(long.Get("data.clips")))

	long = run(t, r, "find_long_clips", src, ops.Args{"threshold": "20s"})
	assert.Equal(t, []string{"A"}, names(long.Get("data.clips")))
	assert.Equal(t, "0s", long.Get("data.clips.0.offset").String())

	_, err := r.Run(context.Background(), "find_long_clips", src, ops.Args{"threshold": "0s"})
	assert.True(t, ops.IsArgumentError(err))
}

func TestListKeywords(t *testing.T) {
	src := testutil.WriteDocument(t, "cut.fcpxml", analysisDoc())
	r := newRunner(t, nil)

	ids := map[string]string{}
	for _, c := range run(t, r, "list_clips", src, nil).Get("data.clips").Array() {
		ids[c.Get("id").String()] = c.Get("name").String()
	}

	kw := run(t, r, "list_keywords", src, nil)
	require.Equal(t, int64(2), kw.Get("data.keywords.#").Int())
	assert.Equal(t, "interview", kw.Get("data.keywords.0.value").String())
	assert.Equal(t, "wide", kw.Get("data.keywords.1.value").String())

	var wide []string
	for _, id := range kw.Get("data.keywords.1.clips").Array() {
		wide = append(wide, ids[id.String()])
	}
	assert.ElementsMatch(t, []string{"A", "D"}, wide)
}

func TestFilterByRole(t *testing.T) {
	src := testutil.WriteDocument(t, "cut.fcpxml", analysisDoc())
	r := newRunner(t, nil)

	tests := []struct {
		role, kind string
		want       []string
	}{
		{role: "dialogue", want: []string{"A"}},
		{role: "Dialogue.Dialogue-1", kind: "audio", want: []string{"A"}},
		{role: "dialog", want: nil},
		{role: "music", kind: "audio", want: []string{"Music"}},
		{role: "TITLES", want: []string{"B"}},
		{role: "titles", kind: "audio", want: nil},
	}
	for _, tt := range tests {
		args := ops.Args{"role": tt.role}
		if tt.kind != "" {
			args["role_type"] = tt.kind
		}
		res := run(t, r, "filter_by_role", src, args)
		assert.Equal(t, tt.want, names(res.Get("data.clips")), "%s/%s", tt.role, tt.kind)
	}

	music := run(t, r, "filter_by_role", src, ops.Args{"role": "music"})
	assert.Equal(t, "audio", music.Get("data.clips.0.matched").String())
	assert.Equal(t, int64(-1), music.Get("data.clips.0.lane").Int())

	_, err := r.Run(context.Background(), "filter_by_role", src, ops.Args{"role": " "})
	assert.True(t, ops.IsArgumentError(err))
}

func TestDetectGaps(t *testing.T) {
	src := testutil.WriteDocument(t, "cut.fcpxml", analysisDoc())
	r := newRunner(t, nil)

	gaps := run(t, r, "detect_gaps", src, nil)
	require.Equal(t, int64(1), gaps.Get("data.gaps.#").Int())
	g := gaps.Get("data.gaps.0")
	assert.Equal(t, "30s", g.Get("offset").String())
	assert.Equal(t, "2s", g.Get("duration").String())
	assert.Equal(t, int64(48), g.Get("frames").Int())
	assert.Equal(t, "A", g.Get("previous").String())
	assert.Equal(t, "B", g.Get("next").String())
	assert.Equal(t, "2s", gaps.Get("data.total").String())

	gaps = run(t, r, "detect_gaps", src, ops.Args{"min_frames": 49})
	assert.Zero(t, gaps.Get("data.gaps.#").Int())

	_, err := r.Run(context.Background(), "detect_gaps", src, ops.Args{"min_frames": 0})
	assert.True(t, ops.IsArgumentError(err))
}

func TestDetectDuplicates(t *testing.T) {
	src := testutil.WriteDocument(t, "cut.fcpxml", analysisDoc())
	r := newRunner(t, nil)

	same := run(t, r, "detect_duplicates", src, nil)
	require.Equal(t, int64(2), same.Get("data.groups.#").Int())
	assert.Equal(t, "Interview", same.Get("data.groups.0.name").String())
	assert.Equal(t, []string{"A", "B", "C"}, names(same.Get("data.groups.0.clips")))
	assert.Equal(t, "B-Roll", same.Get("data.groups.1.name").String())
	assert.Equal(t, []string{"D", "E"}, names(same.Get("data.groups.1.clips")))

	// C reuses footage A already shows; D and E are the same shot twice.
	overlap := run(t, r, "detect_duplicates", src, ops.Args{"mode": "overlapping_ranges"})
	assert.Equal(t, int64(2), overlap.Get("data.groups.#").Int())

	identical := run(t, r, "detect_duplicates", src, ops.Args{"mode": "identical"})
	require.Equal(t, int64(1), identical.Get("data.groups.#").Int())
	assert.Equal(t, testutil.BRollID, identical.Get("data.groups.0.source").String())
	assert.Equal(t, []string{"D", "E"}, names(identical.Get("data.groups.0.clips")))

	unique := testutil.WriteDocument(t, "unique.fcpxml", testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s"),
	))
	none := run(t, r, "detect_duplicates", unique, ops.Args{"mode": "overlapping_ranges"})
	assert.Zero(t, none.Get("data.groups.#").Int())
}

func TestRunnerSnapToBeats(t *testing.T) {
	src := testutil.WriteDocument(t, "cut.fcpxml", testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s",
			testutil.Marker("2402/24s", "beat", ""),
		),
	))
	r := newRunner(t, nil)

	res := run(t, r, "snap_to_beats", src, nil)
	require.Equal(t, int64(1), res.Get("data.snapped.#").Int())
	assert.Equal(t, int64(2), res.Get("data.snapped.0.frames").Int())
	assert.Equal(t, "30s", res.Get("data.snapped.0.from").String())
	assert.Contains(t, res.Get("summary").String(), "snapped 1 cuts")

	clips := run(t, r, "list_clips", res.Get("output").String(), nil)
	off, err := rational.Parse(clips.Get("data.clips.1.offset").String())
	require.NoError(t, err)
	assert.True(t, off.Equal(rational.MustNew(722, 24)), "offset %s", off)

	_, err = r.Run(context.Background(), "snap_to_beats", src, ops.Args{"max_shift": 0})
	assert.True(t, ops.IsArgumentError(err))

	bare := testutil.WriteDocument(t, "bare.fcpxml", testutil.ThreeClips())
	_, err = r.Run(context.Background(), "snap_to_beats", bare, nil)
	require.Error(t, err)
	assert.Equal(t, ir.KindReference, ir.KindOf(err))
}
