package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/diff"
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/parser"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/testutil"
)

const r2 = testutil.InterviewID

func timeline(t *testing.T, doc string) *ir.Timeline {
	t.Helper()
	p, err := parser.ParseBytes([]byte(doc))
	require.NoError(t, err)
	tl, err := p.Timeline(0)
	require.NoError(t, err)
	return tl
}

func compare(t *testing.T, before, after string) *diff.ChangeSet {
	t.Helper()
	cs, err := diff.Compare(timeline(t, before), timeline(t, after))
	require.NoError(t, err)
	return cs
}

func summary(cs *diff.ChangeSet) []string {
	out := make([]string, len(cs.Changes))
	for i, c := range cs.Changes {
		out[i] = c.String()
	}
	return out
}

func TestCompareIdentical(t *testing.T) {
	cs := compare(t, testutil.ThreeClips(), testutil.ThreeClips())
	assert.True(t, cs.Empty())
	assert.Equal(t, "Edit", cs.Before)

	fp, err := cs.Fingerprint()
	require.NoError(t, err)
	assert.Len(t, fp, 64)
}

func TestCompareSingleMove(t *testing.T) {
	before := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
		testutil.Gap("30s", "10s"),
		testutil.AssetClip(r2, "B", "40s", "30s", "100s"),
	)
	after := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
		testutil.AssetClip(r2, "B", "30s", "30s", "100s"),
		testutil.Gap("60s", "10s"),
	)
	cs := compare(t, before, after)
	require.Len(t, cs.Changes, 1)
	c := cs.Changes[0]
	assert.Equal(t, diff.ClipMoved, c.Kind)
	assert.Equal(t, "B", c.Subject)
	assert.Equal(t, r2, c.Ref)
	assert.Equal(t, "offset 40s -> 30s", c.Detail)
	assert.True(t, c.Before.Offset.Equal(rational.Seconds(40)))
	assert.True(t, c.After.Offset.Equal(rational.Seconds(30)))
}

func TestCompareRippleDelete(t *testing.T) {
	after := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
		testutil.AssetClip(r2, "C", "30s", "30s", "200s"),
	)
	cs := compare(t, testutil.ThreeClips(), after)
	assert.Equal(t, []string{
		"clip_removed B",
		"clip_moved C: offset 60s -> 30s",
	}, summary(cs))
	assert.Nil(t, cs.Changes[0].After)
}

func TestCompareTrim(t *testing.T) {
	after := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "20s", "5s"),
		testutil.Gap("20s", "10s"),
		testutil.AssetClip(r2, "B", "30s", "30s", "100s"),
		testutil.AssetClip(r2, "C", "60s", "30s", "200s"),
	)
	cs := compare(t, testutil.ThreeClips(), after)
	assert.Equal(t, []string{"clip_trimmed A: start 0s -> 5s, duration 30s -> 20s"}, summary(cs))
}

func TestCompareMovedAndTrimmed(t *testing.T) {
	after := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "20s", "0s"),
		testutil.AssetClip(r2, "B", "20s", "30s", "100s"),
		testutil.AssetClip(r2, "C", "50s", "30s", "200s"),
	)
	cs := compare(t, testutil.ThreeClips(), after)
	assert.Equal(t, map[diff.Kind]int{diff.ClipTrimmed: 1, diff.ClipMoved: 2}, cs.Count())
}

func TestCompareDuplicateNamesMatchByProximity(t *testing.T) {
	before := testutil.Document(
		testutil.AssetClip(r2, "X", "0s", "10s", "0s"),
		testutil.Gap("10s", "40s"),
		testutil.AssetClip(r2, "X", "50s", "10s", "0s"),
	)
	after := testutil.Document(
		testutil.AssetClip(r2, "X", "0s", "10s", "0s"),
		testutil.Gap("10s", "35s"),
		testutil.AssetClip(r2, "X", "45s", "10s", "0s"),
	)
	cs := compare(t, before, after)
	assert.Equal(t, []string{"clip_moved X: offset 50s -> 45s"}, summary(cs))
}

func TestCompareDuplicateNamesRemoval(t *testing.T) {
	before := testutil.Document(
		testutil.AssetClip(r2, "X", "0s", "10s", "0s"),
		testutil.AssetClip(r2, "X", "10s", "10s", "0s"),
		testutil.AssetClip(r2, "X", "20s", "10s", "0s"),
	)
	after := testutil.Document(
		testutil.AssetClip(r2, "X", "0s", "10s", "0s"),
		testutil.AssetClip(r2, "X", "10s", "10s", "0s"),
	)
	cs := compare(t, before, after)
	require.Len(t, cs.Changes, 1)
	assert.Equal(t, diff.ClipRemoved, cs.Changes[0].Kind)
	assert.True(t, cs.Changes[0].Before.Offset.Equal(rational.Seconds(20)))
}

func TestCompareIsDeterministic(t *testing.T) {
	before := testutil.Document(
		testutil.AssetClip(r2, "X", "0s", "10s", "0s"),
		testutil.AssetClip(r2, "X", "10s", "10s", "0s"),
	)
	after := testutil.Document(
		testutil.AssetClip(r2, "X", "0s", "10s", "0s"),
		testutil.Gap("10s", "5s"),
		testutil.AssetClip(r2, "X", "15s", "10s", "0s"),
		testutil.AssetClip(r2, "X", "25s", "10s", "0s"),
	)
	first := compare(t, before, after)
	second := compare(t, before, after)
	assert.Equal(t, summary(first), summary(second))

	fa, err := first.Fingerprint()
	require.NoError(t, err)
	fb, err := second.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fa, fb)

	// X@10 is closer to X@15 than to X@25, so the clip at 25 is the new one.
	assert.Equal(t, []string{
		"clip_moved X: offset 10s -> 15s",
		"clip_added X",
	}, summary(first))
}

func TestCompareMarkers(t *testing.T) {
	before := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "30s", "0s", testutil.Marker("5s", "keep", "")),
		testutil.AssetClip(r2, "B", "30s", "30s", "100s",
			testutil.Marker("105s", "move me", ""),
			testutil.Marker("110s", "gone", "")),
	)
	after := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "30s", "0s", testutil.Marker("5s", "keep", "")),
		testutil.AssetClip(r2, "B", "30s", "30s", "100s",
			testutil.Marker("110s", "move me", "0"),
			testutil.ChapterMarker("120s", "new")),
	)
	cs := compare(t, before, after)
	assert.Equal(t, []string{
		"marker_removed gone: standard",
		"marker_changed move me: position 35s -> 40s, kind standard -> todo",
		"marker_added new: chapter",
	}, summary(cs))
}

func TestCompareTransitions(t *testing.T) {
	withTr := func(offset, dur string) string {
		return testutil.Document(
			testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
			testutil.Transition(offset, dur),
			testutil.AssetClip(r2, "B", "30s", "30s", "100s"),
		)
	}
	plain := testutil.Document(
		testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
		testutil.AssetClip(r2, "B", "30s", "30s", "100s"),
	)

	assert.Equal(t, []string{"transition_added Cross Dissolve"}, summary(compare(t, plain, withTr("59/2s", "1s"))))
	assert.Equal(t, []string{"transition_removed Cross Dissolve"}, summary(compare(t, withTr("59/2s", "1s"), plain)))
	assert.Equal(t, []string{"transition_changed Cross Dissolve: offset 59/2s -> 29s, duration 1s -> 2s"},
		summary(compare(t, withTr("59/2s", "1s"), withTr("29s", "2s"))))
}

func TestCompareFormat(t *testing.T) {
	after := testutil.DocumentWith(testutil.DocOptions{FrameDuration: "1/25s"},
		testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
		testutil.AssetClip(r2, "B", "30s", "30s", "100s"),
		testutil.AssetClip(r2, "C", "60s", "30s", "200s"),
	)
	cs := compare(t, testutil.ThreeClips(), after)
	assert.Equal(t, []string{"format_changed Edit: frame duration 1/24s -> 1/25s"}, summary(cs))
}

func TestCompareConnectedClips(t *testing.T) {
	doc := func(offset string) string {
		return testutil.Document(
			testutil.AssetClip(r2, "A", "0s", "30s", "0s"),
			testutil.AssetClip(r2, "B", "30s", "30s", "100s",
				testutil.LaneClip(testutil.BRollID, "Broll", 1, offset, "3s", "0s")),
		)
	}
	cs := compare(t, doc("105s"), doc("110s"))
	assert.Equal(t, []string{"clip_moved Broll: offset 35s -> 40s"}, summary(cs))
	assert.Equal(t, 1, cs.Changes[0].After.Lane)
}

func TestCompareRejectsInvalidTimeline(t *testing.T) {
	good := timeline(t, testutil.ThreeClips())
	bad := timeline(t, testutil.ThreeClips())
	bad.Spine.Items[1].SetOffset(rational.Seconds(25))

	_, err := diff.Compare(good, bad)
	require.Error(t, err)
	assert.Equal(t, ir.KindStructural, ir.KindOf(err))
}

func TestCompareProjectsBadIndex(t *testing.T) {
	p, err := parser.ParseBytes([]byte(testutil.ThreeClips()))
	require.NoError(t, err)
	_, err = diff.CompareProjects(p, p, 2)
	require.Error(t, err)
	assert.Equal(t, ir.KindReference, ir.KindOf(err))
}
