package mcpserver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/mcpserver"
	"github.com/roach88/spine/internal/testutil"
)

func TestValidatePath(t *testing.T) {
	doc := testutil.WriteDocument(t, "edit.fcpxml", testutil.ThreeClips())
	dir := filepath.Dir(doc)

	require.NoError(t, mcpserver.ValidatePath(doc))
	require.NoError(t, mcpserver.ValidatePath(filepath.Join(dir, "later.fcpxml")), "missing files are reported when opened")
	require.NoError(t, mcpserver.ValidatePath(filepath.Join(dir, "subs.SRT")))

	tests := map[string]string{
		"empty":         "",
		"traversal":     dir + "/../edit.fcpxml",
		"relative up":   "../edit.fcpxml",
		"bad extension": filepath.Join(dir, "edit.mov"),
		"no extension":  filepath.Join(dir, "edit"),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			err := mcpserver.ValidatePath(path)
			require.Error(t, err)
			assert.Equal(t, ir.KindSecurity, ir.KindOf(err))
			if path != "" {
				assert.NotContains(t, err.Error(), dir)
			}
		})
	}
}

func TestValidatePathRejectsSymlinks(t *testing.T) {
	doc := testutil.WriteDocument(t, "edit.fcpxml", testutil.ThreeClips())
	link := filepath.Join(t.TempDir(), "link.fcpxml")
	if err := os.Symlink(doc, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err := mcpserver.ValidatePath(link)
	require.Error(t, err)
	assert.Equal(t, ir.KindSecurity, ir.KindOf(err))

	err = mcpserver.PathPolicy{}.CheckOutput(link)
	require.Error(t, err)
	assert.Equal(t, ir.KindSecurity, ir.KindOf(err))
}

func TestPathPolicySizeCeiling(t *testing.T) {
	doc := testutil.WriteDocument(t, "edit.fcpxml", testutil.ThreeClips())

	err := mcpserver.PathPolicy{MaxBytes: 64}.CheckInput(doc)
	require.Error(t, err)
	assert.Equal(t, ir.KindSizeLimit, ir.KindOf(err))
	assert.NoError(t, mcpserver.PathPolicy{MaxBytes: 1 << 20}.CheckInput(doc))
}

func TestPathPolicyBundle(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Edit.fcpxmld")
	require.NoError(t, os.Mkdir(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "Info.fcpxml"), []byte(testutil.ThreeClips()), 0o644))

	assert.NoError(t, mcpserver.ValidatePath(bundle))
	err := mcpserver.PathPolicy{MaxBytes: 64}.CheckInput(bundle)
	assert.Equal(t, ir.KindSizeLimit, ir.KindOf(err))

	plain := filepath.Join(t.TempDir(), "folder.xml")
	require.NoError(t, os.Mkdir(plain, 0o755))
	err = mcpserver.ValidatePath(plain)
	assert.Equal(t, ir.KindSecurity, ir.KindOf(err))
}

func TestPathPolicyRoots(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "project", "edit.fcpxml")
	outside := filepath.Join(t.TempDir(), "edit.fcpxml")
	policy := mcpserver.PathPolicy{Roots: []string{root}}

	assert.NoError(t, policy.CheckInput(inside))
	assert.NoError(t, policy.CheckOutput(filepath.Join(root, "out.xml")))

	err := policy.CheckInput(outside)
	require.Error(t, err)
	assert.Equal(t, ir.KindSecurity, ir.KindOf(err))
}

func TestCheckOutputExtensions(t *testing.T) {
	dir := t.TempDir()
	policy := mcpserver.PathPolicy{}
	assert.NoError(t, policy.CheckOutput(filepath.Join(dir, "out.fcpxml")))
	assert.NoError(t, policy.CheckOutput(filepath.Join(dir, "out.xml")))

	err := policy.CheckOutput(filepath.Join(dir, "out.srt"))
	assert.Equal(t, ir.KindSecurity, ir.KindOf(err))
}
