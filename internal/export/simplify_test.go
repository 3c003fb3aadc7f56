package export_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/export"
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/parser"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/testutil"
	"github.com/roach88/spine/internal/writer"
)

func sec(n int64) rational.TimeValue { return rational.Seconds(n) }

func parse(t *testing.T, doc string) *ir.Project {
	t.Helper()
	p, err := parser.ParseBytes([]byte(doc))
	require.NoError(t, err)
	return p
}

func primary(t *testing.T, p *ir.Project) *ir.Timeline {
	t.Helper()
	tl, err := p.Timeline(0)
	require.NoError(t, err)
	return tl
}

// layout renders a storyline as "name@offset+duration/start".
func layout(items []ir.SpineItem) []string {
	var out []string
	for _, it := range items {
		off, dur := it.Span()
		switch v := it.(type) {
		case *ir.Clip:
			out = append(out, fmt.Sprintf("%s@%s+%s/%s", v.Name, off.Simplify(), dur.Simplify(), v.Start.Simplify()))
		case *ir.Gap:
			out = append(out, fmt.Sprintf("gap@%s+%s", off.Simplify(), dur.Simplify()))
		case *ir.Transition:
			out = append(out, fmt.Sprintf("tr@%s+%s", off.Simplify(), dur.Simplify()))
		}
	}
	return out
}

func media(id, name string, items ...string) string {
	return fmt.Sprintf(`<media id=%q name=%q><sequence format="r1"><spine>%s</spine></sequence></media>`,
		id, name, strings.Join(items, ""))
}

func refClip(ref, name, offset, duration, start string, children ...string) string {
	return fmt.Sprintf(`<ref-clip ref=%q offset=%q name=%q start=%q duration=%q>%s</ref-clip>`,
		ref, offset, name, start, duration, strings.Join(children, ""))
}

// compoundDoc nests N1 (Interview, 10s) and N2 (B-Roll, 10s from 50s) and
// shows 5s to 15s of them between A and C.
func compoundDoc() string {
	return testutil.DocumentWith(testutil.DocOptions{
		Resources: []string{media("r5", "Nest",
			testutil.AssetClip(testutil.InterviewID, "N1", "0s", "10s", "0s"),
			testutil.AssetClip(testutil.BRollID, "N2", "10s", "10s", "50s"),
		)},
	},
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		refClip("r5", "Nest", "30s", "10s", "5s",
			testutil.Marker("12s", "inside", ""),
			testutil.LaneClip(testutil.MusicID, "Music", -1, "8s", "4s", "0s"),
		),
		testutil.AssetClip(testutil.InterviewID, "C", "40s", "30s", "200s"),
	)
}

func TestSimplifyFlattensCompound(t *testing.T) {
	src := parse(t, compoundDoc())
	out, err := export.Simplify(src, export.SimplifyOptions{})
	require.NoError(t, err)

	tl := primary(t, out)
	assert.Equal(t, []string{
		"A@0s+30s/0s",
		"N1@30s+5s/5s",
		"N2@35s+5s/50s",
		"C@40s+30s/200s",
	}, layout(tl.Spine.Items))
	assert.Equal(t, "1.9", out.Version)

	_, hasMedia := out.Resources.Media("r5")
	assert.False(t, hasMedia, "unreferenced media is dropped")

	n1, n2 := tl.Spine.Items[1].(*ir.Clip), tl.Spine.Items[2].(*ir.Clip)
	require.Len(t, n2.Markers, 1)
	assert.Equal(t, "inside", n2.Markers[0].Value)
	assert.True(t, sec(52).Equal(n2.Markers[0].Start), "marker at %s", n2.Markers[0].Start)

	require.Len(t, n1.Anchored, 1)
	music := n1.Anchored[0].(*ir.Clip)
	assert.Equal(t, "Music", music.Name)
	assert.True(t, sec(8).Equal(music.Offset), "music at %s", music.Offset)

	// The source project is untouched.
	_, stillThere := src.Resources.Media("r5")
	assert.True(t, stillThere)
	assert.True(t, primary(t, src).Spine.Items[1].(*ir.Clip).IsCompound())
}

func TestSimplifyGivesPiecesFreshIDs(t *testing.T) {
	out, err := export.Simplify(parse(t, compoundDoc()), export.SimplifyOptions{})
	require.NoError(t, err)

	seen := map[string]bool{}
	primary(t, out).Walk(func(v ir.Visit) {
		id := v.Item.ItemID()
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	})
}

func TestSimplifyFillsWindowPastNestedContent(t *testing.T) {
	doc := testutil.DocumentWith(testutil.DocOptions{
		Resources: []string{media("r5", "Short",
			testutil.AssetClip(testutil.InterviewID, "N1", "0s", "10s", "0s"),
		)},
	},
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		refClip("r5", "Short", "30s", "10s", "5s"),
	)
	out, err := export.Simplify(parse(t, doc), export.SimplifyOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A@0s+30s/0s", "N1@30s+5s/5s", "gap@35s+5s"}, layout(primary(t, out).Spine.Items))
}

func TestSimplifyFlattensNestedCompounds(t *testing.T) {
	doc := testutil.DocumentWith(testutil.DocOptions{
		Resources: []string{
			media("r5", "Outer",
				testutil.AssetClip(testutil.InterviewID, "N1", "0s", "4s", "0s"),
				refClip("r6", "Inner", "4s", "6s", "2s"),
			),
			media("r6", "Inner",
				testutil.AssetClip(testutil.BRollID, "X", "0s", "10s", "0s"),
			),
		},
	},
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		refClip("r5", "Outer", "30s", "10s", "0s"),
	)
	out, err := export.Simplify(parse(t, doc), export.SimplifyOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"A@0s+30s/0s", "N1@30s+4s/0s", "X@34s+6s/2s"}, layout(primary(t, out).Spine.Items))
	for _, id := range []string{"r5", "r6"} {
		_, ok := out.Resources.Media(id)
		assert.False(t, ok, "media %s should be dropped", id)
	}
}

func TestSimplifyTurnsConnectedCompoundIntoStoryline(t *testing.T) {
	doc := testutil.DocumentWith(testutil.DocOptions{
		Resources: []string{media("r5", "Nest",
			testutil.AssetClip(testutil.BRollID, "N1", "0s", "10s", "0s"),
		)},
	},
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s",
			`<ref-clip ref="r5" lane="1" offset="2s" name="Nest" start="0s" duration="10s"/>`,
		),
	)
	out, err := export.Simplify(parse(t, doc), export.SimplifyOptions{})
	require.NoError(t, err)

	a := primary(t, out).Spine.Items[0].(*ir.Clip)
	require.Len(t, a.Anchored, 1)
	sl, ok := a.Anchored[0].(*ir.Storyline)
	require.True(t, ok, "connected compound becomes a storyline")
	assert.Equal(t, 1, sl.Lane)
	assert.True(t, sec(2).Equal(sl.Offset))
	assert.Equal(t, []string{"N1@2s+10s/0s"}, layout(sl.Items))

	xml, err := writer.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(xml), `<spine lane="1" offset="2s" name="Nest">`)
	assert.NotContains(t, string(xml), "<media")
}

func TestSimplifyStripsAttributes(t *testing.T) {
	doc := testutil.DocumentWith(testutil.DocOptions{
		Resources: []string{
			`<asset id="r6" name="Stamped" uid="A9" start="0s" duration="10s" hasVideo="1" modDate="2024-05-01 10:00:00 +0000"><metadata><md key="x" colorProcessing="wide"/></metadata></asset>`,
		},
	},
		testutil.AssetClip("r6", "S", "0s", "10s", "0s"),
	)
	src := parse(t, doc)

	out, err := export.Simplify(src, export.SimplifyOptions{})
	require.NoError(t, err)
	xml, err := writer.Marshal(out)
	require.NoError(t, err)
	assert.NotContains(t, string(xml), "modDate")
	assert.NotContains(t, string(xml), "colorProcessing")
	assert.Contains(t, string(xml), `<fcpxml version="1.9">`)
	assert.Contains(t, string(xml), `<md key="x"/>`)

	kept, err := export.Simplify(src, export.SimplifyOptions{StripAttrs: []string{}, Version: "1.10"})
	require.NoError(t, err)
	xml, err = writer.Marshal(kept)
	require.NoError(t, err)
	assert.Contains(t, string(xml), "modDate")
	assert.Contains(t, string(xml), `<fcpxml version="1.10">`)
}

func TestSimplifyCanKeepCompounds(t *testing.T) {
	out, err := export.Simplify(parse(t, compoundDoc()), export.SimplifyOptions{KeepCompounds: true})
	require.NoError(t, err)

	_, ok := out.Resources.Media("r5")
	assert.True(t, ok)
	assert.True(t, primary(t, out).Spine.Items[1].(*ir.Clip).IsCompound())
}

func TestSimplifyRejectsInvalidProject(t *testing.T) {
	p := parse(t, testutil.ThreeClips())
	primary(t, p).Spine.Items[1].(*ir.Clip).Duration = rational.Zero

	_, err := export.Simplify(p, export.SimplifyOptions{})
	require.Error(t, err)
	assert.Equal(t, ir.KindStructural, ir.KindOf(err))
}
