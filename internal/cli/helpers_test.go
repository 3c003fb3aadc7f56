package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/testutil"
)

// workspace is a temporary directory with a config file pointing the
// journal into it and one three-clip document.
type workspace struct {
	dir     string
	doc     string
	journal string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	ws := &workspace{
		dir:     dir,
		doc:     filepath.Join(dir, "edit.fcpxml"),
		journal: filepath.Join(dir, "state", "journal.db"),
	}
	cfg := fmt.Sprintf("[journal]\nenabled = true\npath = %q\n\n[log]\nlevel = \"error\"\n", ws.journal)
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(ws.doc, []byte(testutil.ThreeClips()), 0o644))
	t.Setenv("SPINE_CONFIG", cfgPath)
	return ws
}

// execute runs the root command and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
