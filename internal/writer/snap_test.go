package writer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/testutil"
	"github.com/roach88/spine/internal/writer"
)

// beatDoc has a beat two frames after the A|B cut and one three frames
// before the B|C cut, both marked on B.
func beatDoc() string {
	return testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s",
			testutil.Marker("2402/24s", "beat", ""),
			testutil.Marker("3117/24s", "beat", ""),
		),
		testutil.AssetClip(testutil.InterviewID, "C", "60s", "30s", "200s"),
	)
}

func TestSnapToBeatsRollsCuts(t *testing.T) {
	ed := newEditor(t, beatDoc())

	res, err := ed.SnapToBeats(writer.SnapOptions{})
	require.NoError(t, err)
	require.Len(t, res.Snapped, 2)
	assert.Zero(t, res.Blocked)

	b, c := clip(t, ed, "B"), clip(t, ed, "C")
	assert.Equal(t, b.ID, res.Snapped[0].Clip)
	assertTime(t, sec(30), res.Snapped[0].From)
	assertTime(t, frac(722, 24), res.Snapped[0].To)
	assert.Equal(t, int64(2), res.Snapped[0].Frames)
	assert.Equal(t, c.ID, res.Snapped[1].Clip)
	assert.Equal(t, int64(3), res.Snapped[1].Frames)

	a := clip(t, ed, "A")
	assertTime(t, frac(722, 24), a.Duration)
	assertTime(t, frac(722, 24), b.Offset)
	assertTime(t, frac(2402, 24), b.Start)
	assertTime(t, frac(715, 24), b.Duration)
	assertTime(t, frac(1437, 24), c.Offset)
	assertTime(t, frac(4797, 24), c.Start)
	assertTime(t, frac(723, 24), c.Duration)
	assertTime(t, sec(90), c.End())
}

func TestSnapToBeatsPreference(t *testing.T) {
	tests := []struct {
		prefer string
		want   []int64 // frames moved, in cut order
		aDur   int64   // A duration in frames
	}{
		{prefer: writer.SnapEarlier, want: []int64{3}, aDur: 720},
		{prefer: writer.SnapLater, want: []int64{2}, aDur: 722},
	}
	for _, tt := range tests {
		t.Run(tt.prefer, func(t *testing.T) {
			ed := newEditor(t, beatDoc())
			res, err := ed.SnapToBeats(writer.SnapOptions{Prefer: tt.prefer})
			require.NoError(t, err)
			var got []int64
			for _, s := range res.Snapped {
				got = append(got, s.Frames)
			}
			assert.Equal(t, tt.want, got)
			assertTime(t, frac(tt.aDur, 24), clip(t, ed, "A").Duration)
			assertTime(t, sec(90), clip(t, ed, "C").End())
		})
	}
}

func TestSnapToBeatsNearestTieGoesEarlier(t *testing.T) {
	ed := newEditor(t, testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s",
			testutil.Marker("718/24s", "early", ""),
		),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s",
			testutil.Marker("2402/24s", "late", ""),
		),
	))
	res, err := ed.SnapToBeats(writer.SnapOptions{})
	require.NoError(t, err)
	require.Len(t, res.Snapped, 1)
	assertTime(t, frac(718, 24), res.Snapped[0].To)
}

func TestSnapToBeatsOutOfReach(t *testing.T) {
	ed := newEditor(t, beatDoc())
	res, err := ed.SnapToBeats(writer.SnapOptions{MaxShift: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Snapped)
	assert.Zero(t, res.Blocked)
	assert.Equal(t, []string{"A@0s+30s", "B@30s+30s", "C@60s+30s"}, layout(ed.Timeline()))
}

func TestSnapToBeatsBlockedBySourceMedia(t *testing.T) {
	// A already plays the last 30 seconds of the interview.
	ed := newEditor(t, testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "3570s"),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s",
			testutil.Marker("2402/24s", "beat", ""),
		),
	))
	res, err := ed.SnapToBeats(writer.SnapOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Snapped)
	assert.Equal(t, 1, res.Blocked)
	assert.Equal(t, []string{"A@0s+30s", "B@30s+30s"}, layout(ed.Timeline()))
}

func TestSnapToBeatsErrors(t *testing.T) {
	_, err := newEditor(t, testutil.ThreeClips()).SnapToBeats(writer.SnapOptions{})
	require.Error(t, err)
	assert.Equal(t, ir.KindReference, ir.KindOf(err))

	_, err = newEditor(t, beatDoc()).SnapToBeats(writer.SnapOptions{Prefer: "sideways"})
	require.Error(t, err)
	assert.Equal(t, ir.KindFormat, ir.KindOf(err))

	_, err = newEditor(t, beatDoc()).SnapToBeats(writer.SnapOptions{MaxShift: -1})
	require.Error(t, err)
	assert.Equal(t, ir.KindFormat, ir.KindOf(err))
}
