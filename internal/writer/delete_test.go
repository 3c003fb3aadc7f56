package writer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/testutil"
)

func TestDelete(t *testing.T) {
	ed := newEditor(t, testutil.ThreeClips())
	res, err := ed.Delete([]string{"B"}, true)
	require.NoError(t, err)
	assert.Len(t, res.Removed, 1)
	assert.Equal(t, []string{"A@0s+30s", "C@30s+30s"}, layout(ed.Timeline()))

	ed = newEditor(t, testutil.ThreeClips())
	_, err = ed.Delete([]string{"B"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A@0s+30s", "gap@30s+30s", "C@60s+30s"}, layout(ed.Timeline()))

	ed = newEditor(t, testutil.ThreeClips())
	_, err = ed.Delete([]string{"nope"}, true)
	require.Error(t, err)
	assert.Equal(t, ir.KindReference, ir.KindOf(err))
}

func connectedDoc() string {
	return testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s",
			testutil.LaneClip(testutil.BRollID, "Broll", 1, "105s", "3s", "0s")),
		testutil.AssetClip(testutil.InterviewID, "C", "60s", "30s", "200s"),
	)
}

func TestDeleteConnectedClip(t *testing.T) {
	ed := newEditor(t, connectedDoc())
	id := clip(t, ed, "Broll").ID
	res, err := ed.Delete([]string{"Broll"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, res.Removed)
	assert.Empty(t, clip(t, ed, "B").Anchored)
	assert.Equal(t, []string{"A@0s+30s", "B@30s+30s", "C@60s+30s"}, layout(ed.Timeline()))
}

func TestDeleteWithoutRippleKeepsConnectedClips(t *testing.T) {
	ed := newEditor(t, connectedDoc())
	_, err := ed.Delete([]string{"B"}, false)
	require.NoError(t, err)

	g, ok := ed.Timeline().Spine.Items[1].(*ir.Gap)
	require.True(t, ok)
	require.Len(t, g.Anchored, 1)
	assert.True(t, g.StartSet)
	assertTime(t, sec(100), g.Start)

	conn := ir.Connected(g)
	require.Len(t, conn, 1)
	assertTime(t, sec(35), conn[0].TimelineOffset())
	assert.Contains(t, marshal(t, ed.Project()), `<gap name="Gap" offset="30s" start="100s" duration="30s">`)
}
