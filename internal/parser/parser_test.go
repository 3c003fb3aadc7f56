package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/testutil"
	"github.com/roach88/spine/internal/xmltree"
)

func mustParse(t *testing.T, doc string) *ir.Project {
	t.Helper()
	p, err := ParseBytes([]byte(doc))
	require.NoError(t, err)
	return p
}

func firstTimeline(t *testing.T, p *ir.Project) *ir.Timeline {
	t.Helper()
	tl, err := p.Timeline(0)
	require.NoError(t, err)
	return tl
}

func TestParseThreeClips(t *testing.T) {
	p := mustParse(t, testutil.ThreeClips())
	assert.Equal(t, "1.11", p.Version)
	assert.Equal(t, 4, p.Resources.Len())
	require.NotNil(t, p.Library)
	require.Len(t, p.Library.Events, 1)

	tl := firstTimeline(t, p)
	assert.Equal(t, "Edit", tl.Name)
	assert.Equal(t, int64(24), tl.FrameRate().Timebase())

	clips := tl.Clips()
	require.Len(t, clips, 3)
	for i, want := range []struct{ id, name, off, start string }{
		{"c1", "A", "0s", "0s"},
		{"c2", "B", "30s", "100s"},
		{"c3", "C", "60s", "200s"},
	} {
		assert.Equal(t, want.id, clips[i].ID)
		assert.Equal(t, want.name, clips[i].Name)
		assert.Equal(t, want.off, clips[i].Offset.String())
		assert.Equal(t, want.start, clips[i].Start.String())
		assert.True(t, clips[i].StartSet)
	}
	assert.Equal(t, "90s", tl.End().String())
}

func TestParseMarkersSinglePassClassification(t *testing.T) {
	doc := testutil.Document(testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s",
		testutil.Marker("1s", "plain", ""),
		testutil.Marker("2s", "todo", "0"),
		testutil.ChapterMarker("3s", "Intro"),
		testutil.Marker("4s", "done", "1"),
		testutil.Marker("5s", "odd", "true"),
		`<keyword start="0s" duration="10s" value="interview"/>`,
	))
	tl := firstTimeline(t, mustParse(t, doc))
	c := tl.Clips()[0]

	require.Len(t, c.Markers, 5)
	kinds := make([]ir.MarkerKind, len(c.Markers))
	for i, m := range c.Markers {
		kinds[i] = m.Kind
	}
	assert.Equal(t, []ir.MarkerKind{
		ir.MarkerStandard, ir.MarkerTodo, ir.MarkerChapter, ir.MarkerCompleted, ir.MarkerStandard,
	}, kinds)

	assert.True(t, c.Markers[2].PosterSet)
	odd, ok := c.Markers[4].Extra.Attr("completed")
	assert.True(t, ok, "unrecognised completed value is kept opaque")
	assert.Equal(t, "true", odd)

	require.Len(t, c.Keywords, 1)
	assert.Equal(t, "interview", c.Keywords[0].Value)
}

func TestParseConnectedClipsUnified(t *testing.T) {
	story := `<spine lane="-1" offset="5s">` +
		testutil.AssetClip(testutil.MusicID, "vo1", "0s", "2s", "0s") +
		testutil.AssetClip(testutil.MusicID, "vo2", "2s", "2s", "2s") +
		`</spine>`
	doc := testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s",
			testutil.LaneClip(testutil.BRollID, "cut-away", 1, "10s", "3s", "0s"),
			story,
		),
		testutil.Gap("30s", "5s", testutil.LaneClip(testutil.BRollID, "over-gap", 2, "1s", "2s", "0s")),
	)
	tl := firstTimeline(t, mustParse(t, doc))

	host := tl.Clips()[0]
	cc := ir.Connected(host)
	require.Len(t, cc, 3)
	assert.Equal(t, "cut-away", cc[0].Name)
	assert.Equal(t, "10s", cc[0].TimelineOffset().String())
	assert.Equal(t, -1, cc[1].Lane)
	assert.Equal(t, "5s", cc[1].TimelineOffset().String())
	assert.Equal(t, "7s", cc[2].TimelineOffset().String())

	gap := tl.Spine.Items[1].(*ir.Gap)
	gc := ir.Connected(gap)
	require.Len(t, gc, 1)
	assert.Equal(t, "31s", gc[0].TimelineOffset().String())

	loc, err := tl.Index().Lookup("over-gap")
	require.NoError(t, err)
	assert.Equal(t, gap, loc.Host)
}

func TestParseCompoundClip(t *testing.T) {
	media := `<media id="r5" name="Nest"><sequence format="r1" duration="10s"><spine>` +
		testutil.AssetClip(testutil.InterviewID, "inner", "0s", "10s", "50s") +
		`</spine></sequence></media>`
	doc := testutil.DocumentWith(testutil.DocOptions{Resources: []string{media}},
		`<ref-clip ref="r5" offset="0s" name="Nest" duration="10s"/>`,
	)
	p := mustParse(t, doc)
	tl := firstTimeline(t, p)

	ref := tl.Clips()[0]
	require.True(t, ref.IsCompound())
	require.NotNil(t, ref.Nested)
	assert.True(t, ref.Nested.Compound)
	assert.Equal(t, "inner", ref.Nested.Clips()[0].Name)
	assert.Len(t, p.CompoundTimelines(), 1)
}

func TestParseCompoundCycle(t *testing.T) {
	a := `<media id="r5" name="A"><sequence format="r1"><spine><ref-clip ref="r6" offset="0s" duration="1s"/></spine></sequence></media>`
	b := `<media id="r6" name="B"><sequence format="r1"><spine><ref-clip ref="r5" offset="0s" duration="1s"/></spine></sequence></media>`
	doc := testutil.DocumentWith(testutil.DocOptions{Resources: []string{a, b}},
		`<ref-clip ref="r5" offset="0s" name="A" duration="1s"/>`,
	)
	_, err := ParseBytes([]byte(doc))
	require.Error(t, err)
	assert.True(t, ir.IsKind(err, ir.KindReference), "got %v", err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind ir.ErrorKind
	}{
		{"wrong root", `<xmeml version="5"/>`, ir.KindFormat},
		{"malformed", `<fcpxml><resources>`, ir.KindFormat},
		{"bad time", testutil.Document(testutil.AssetClip(testutil.InterviewID, "A", "0s", "30", "0s")), ir.KindFormat},
		{"dangling ref", testutil.Document(testutil.AssetClip("r99", "A", "0s", "30s", "0s")), ir.KindReference},
		{"overlap", testutil.Document(
			testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
			testutil.AssetClip(testutil.InterviewID, "B", "20s", "30s", "0s"),
		), ir.KindStructural},
		{"zero duration", testutil.Document(testutil.AssetClip(testutil.InterviewID, "A", "0s", "0s", "0s")), ir.KindStructural},
		{"lane clip without host", testutil.Document(
			testutil.LaneClip(testutil.BRollID, "floating", 1, "0s", "3s", "0s"),
		), ir.KindStructural},
		{"duplicate resource", testutil.DocumentWith(testutil.DocOptions{
			Resources: []string{`<asset id="r2" name="again" duration="1s"/>`},
		}), ir.KindStructural},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.kind, ir.KindOf(err), "got %v", err)
		})
	}
}

func TestParseSecurity(t *testing.T) {
	xxe := `<?xml version="1.0"?><!DOCTYPE fcpxml [<!ENTITY x SYSTEM "file:///etc/passwd">]><fcpxml version="1.11">&x;</fcpxml>`
	_, err := ParseBytes([]byte(xxe))
	assert.True(t, ir.IsKind(err, ir.KindSecurity), "got %v", err)

	laughs := `<!DOCTYPE fcpxml [<!ENTITY a "aaaaaaaaaa">` +
		`<!ENTITY b "&a;&a;&a;&a;&a;&a;&a;&a;&a;&a;">` +
		`<!ENTITY c "&b;&b;&b;&b;&b;&b;&b;&b;&b;&b;">` +
		`<!ENTITY d "&c;&c;&c;&c;&c;&c;&c;&c;&c;&c;">` +
		`<!ENTITY e "&d;&d;&d;&d;&d;&d;&d;&d;&d;&d;">]>` +
		`<fcpxml version="1.11"><resources/><library><event name="&e;"/></library></fcpxml>`
	_, err = ParseBytes([]byte(laughs))
	assert.True(t, ir.IsKind(err, ir.KindSecurity), "got %v", err)
}

func TestParseSizeCeiling(t *testing.T) {
	doc := testutil.ThreeClips()
	p := New(Options{Limits: xmltree.Limits{MaxBytes: 256}})

	_, err := p.ParseBytes([]byte(doc))
	assert.True(t, ir.IsKind(err, ir.KindSizeLimit), "got %v", err)

	_, err = p.ParseReader(strings.NewReader(doc))
	assert.True(t, ir.IsKind(err, ir.KindSizeLimit), "got %v", err)

	dir := t.TempDir()
	path := filepath.Join(dir, "secret-project.fcpxml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	_, err = p.ParseFile(path)
	require.Error(t, err)
	assert.True(t, ir.IsKind(err, ir.KindSizeLimit))
	assert.NotContains(t, err.Error(), "secret-project")
	assert.NotContains(t, err.Error(), dir)
}

func TestParseFileAndBundle(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "edit.fcpxml")
	require.NoError(t, os.WriteFile(plain, []byte(testutil.ThreeClips()), 0o600))

	p, err := ParseFile(plain)
	require.NoError(t, err)
	assert.Len(t, firstTimeline(t, p).Clips(), 3)

	bundle := filepath.Join(dir, "edit.fcpxmld")
	require.NoError(t, os.Mkdir(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, BundleInfo), []byte(testutil.ThreeClips()), 0o600))
	p, err = ParseFile(bundle)
	require.NoError(t, err)
	assert.Len(t, firstTimeline(t, p).Clips(), 3)

	_, err = ParseFile(filepath.Join(dir, "missing.fcpxml"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), dir)
}

func TestParseKeepsUnknownContent(t *testing.T) {
	clip := `<asset-clip ref="r2" offset="0s" name="A" start="0s" duration="30s" enabled="0" tcFormat="NDF">` +
		`<conform-rate srcFrameRate="25"/><adjust-volume amount="-6dB"/><filter-video ref="r9" name="Glow"/>` +
		`</asset-clip>`
	doc := testutil.Document(clip, `<audition><asset-clip ref="r3" offset="30s" name="alt" duration="5s"/></audition>`)
	tl := firstTimeline(t, mustParse(t, doc))

	c := tl.Clips()[0]
	assert.Equal(t, []xmltree.Attr{{Name: "enabled", Value: "0"}, {Name: "tcFormat", Value: "NDF"}}, c.Extra.Attrs)
	require.Len(t, c.Extra.Children, 3)
	assert.Equal(t, "filter-video", c.Extra.Children[2].Name)

	op, ok := tl.Spine.Items[1].(*ir.OpaqueItem)
	require.True(t, ok)
	assert.Equal(t, "audition", op.Node.Name)
	assert.Equal(t, "30s", op.Offset.String())
	assert.Equal(t, "5s", op.Duration.String())
	assert.Equal(t, "35s", tl.End().String())
}
