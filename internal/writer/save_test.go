package writer_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/testutil"
	"github.com/roach88/spine/internal/writer"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src, suffix, want string
	}{
		{"/work/cut.fcpxml", "", "/work/cut_modified.fcpxml"},
		{"/work/cut.fcpxml", "_v2", "/work/cut_v2.fcpxml"},
		{"/work/Cut.fcpxmld", "", "/work/Cut_modified.fcpxml"},
		{"/work/Cut.fcpxmld/", "", "/work/Cut_modified.fcpxml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, writer.OutputPath(tt.src, tt.suffix), tt.src)
	}
}

func TestSaveWritesDocument(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cut.fcpxml")
	require.NoError(t, os.WriteFile(src, []byte(testutil.ThreeClips()), 0o644))

	ed := newEditor(t, testutil.ThreeClips())
	_, err := ed.Delete([]string{"B"}, true)
	require.NoError(t, err)

	dst := writer.OutputPath(src, "")
	require.NoError(t, writer.Save(ed.Project(), src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, marshal(t, ed.Project()), string(data))

	orig, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, testutil.ThreeClips(), string(orig))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary file is left behind")
}

func TestSaveRefusesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cut.fcpxml")
	require.NoError(t, os.WriteFile(src, []byte(testutil.ThreeClips()), 0o644))
	link := filepath.Join(dir, "link.fcpxml")
	require.NoError(t, os.Symlink(src, link))

	bundle := filepath.Join(dir, "Cut.fcpxmld")
	require.NoError(t, os.Mkdir(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "Info.fcpxml"), []byte(testutil.ThreeClips()), 0o644))

	p := parse(t, testutil.ThreeClips())
	for _, tc := range []struct{ src, dst string }{
		{src, src},
		{src, link},
		{src, filepath.Join(dir, ".", "cut.fcpxml")},
		{bundle, filepath.Join(bundle, "Info.fcpxml")},
	} {
		err := writer.Save(p, tc.src, tc.dst)
		require.Error(t, err, tc.dst)
		assert.Equal(t, ir.KindStructural, ir.KindOf(err))
		assert.Contains(t, err.Error(), "refusing to overwrite")
	}

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, testutil.ThreeClips(), string(data))
}

func TestSaveReportsIOFailure(t *testing.T) {
	p := parse(t, testutil.ThreeClips())
	err := writer.Save(p, "", filepath.Join(t.TempDir(), "missing", "out.fcpxml"))
	require.Error(t, err)
	assert.Equal(t, ir.KindInternal, ir.KindOf(err))
}

func TestSerializeOrdersClipChildren(t *testing.T) {
	doc := testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s",
			`<keyword start="0s" duration="5s" value="kw"/>`,
			testutil.Marker("1s", "m", ""),
			testutil.LaneClip(testutil.BRollID, "Broll", 1, "2s", "3s", "0s"),
			`<adjust-volume amount="-6dB"/>`,
			`<conform-rate scaleEnabled="0"/>`,
		),
	)
	out := marshal(t, parse(t, doc))

	order := []string{"<conform-rate", "<adjust-volume", `name="Broll"`, "<marker", "<keyword"}
	last := -1
	for _, tag := range order {
		i := strings.Index(out, tag)
		require.GreaterOrEqual(t, i, 0, tag)
		assert.Greater(t, i, last, "%s is out of order", tag)
		last = i
	}
}
