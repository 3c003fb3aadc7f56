package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/roach88/spine/internal/logging"
	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/testutil"
)

func TestOperationCommandsCoverRegistry(t *testing.T) {
	root := NewRootCommand()
	reg := ops.NewRegistry(ops.Options{Logger: logging.Discard()})

	for _, op := range reg.All() {
		info := op.Info()
		t.Run(info.Name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{info.Name})
			require.NoError(t, err)
			assert.Equal(t, info.Description, cmd.Short)
			for _, p := range info.Params {
				f := cmd.Flags().Lookup(flagName(p.Name))
				require.NotNil(t, f, "flag for %s", p.Name)
				if p.Required {
					assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag])
				}
			}
		})
	}
}

func TestOperationGroups(t *testing.T) {
	root := NewRootCommand()
	for name, group := range map[string]string{
		"list_clips":      groupRead,
		"delete_clips":    groupEdit,
		"diff_timelines":  groupOther,
		"export_timeline": groupOther,
		"history":         groupOther,
	} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, group, cmd.GroupID, name)
	}
}

func TestReadOperation(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "list_clips", ws.doc)
	require.NoError(t, err)
	assert.Contains(t, out, "3 clips in")
	assert.NoFileExists(t, ws.journal, "reads do not open the journal")
}

func TestEditOperationWritesNewDocument(t *testing.T) {
	ws := newWorkspace(t)
	before, err := os.ReadFile(ws.doc)
	require.NoError(t, err)

	out, err := execute(t, "delete_clips", ws.doc, "--clips", "A", "--ripple")
	require.NoError(t, err)

	written := filepath.Join(ws.dir, "edit_modified.fcpxml")
	assert.Contains(t, out, "deleted 1 clips")
	assert.Contains(t, out, "written: "+written)
	assert.FileExists(t, written)
	assert.FileExists(t, ws.journal)

	after, err := os.ReadFile(ws.doc)
	require.NoError(t, err)
	assert.Equal(t, before, after, "the source is never modified")

	out, err = execute(t, "list_clips", written)
	require.NoError(t, err)
	assert.Contains(t, out, "2 clips in")
}

func TestEditOperationJSONDryRun(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "--format", "json", "reorder_clips", ws.doc,
		"--clips", "C", "--position", "start", "--dry-run")
	require.NoError(t, err)

	res := gjson.Parse(out)
	assert.Equal(t, "ok", res.Get("status").String())
	assert.Equal(t, "reorder_clips", res.Get("data.operation").String())
	assert.Equal(t, "edit", res.Get("data.category").String())
	assert.Equal(t, "moved 1 clips to start", res.Get("data.summary").String())
	assert.False(t, res.Get("data.output").Exists())
	assert.NotEmpty(t, res.Get("data.operation_id").String())
	assert.NoFileExists(t, filepath.Join(ws.dir, "edit_modified.fcpxml"))
}

func TestEditOperationMultipleValues(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "--format", "json", "split_clip", ws.doc, "--clip", "B", "--at", "35s,40s", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "ok", gjson.Get(out, "status").String(), out)
	assert.Equal(t, "split_clip", gjson.Get(out, "data.operation").String())
}

func TestOperationFailureIsReported(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "trim_clip", ws.doc, "--clip", "Missing", "--out", "10s")
	require.Error(t, err)
	assert.Contains(t, out, "Error [REFERENCE_ERROR]")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.True(t, exitErr.Reported)
}

func TestOperationArgumentErrorIsUsageError(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "--format", "json", "add_marker", ws.doc, "--at", "5s", "--value", "x", "--kind", "bogus")
	require.Error(t, err)
	assert.Equal(t, "INVALID_ARGUMENT", gjson.Get(out, "error.code").String())
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestOperationRequiresFlags(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "add_marker", ws.doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestCompareOperation(t *testing.T) {
	ws := newWorkspace(t)
	other := testutil.WriteDocument(t, "other.fcpxml", testutil.Document(
		testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
		testutil.AssetClip(testutil.InterviewID, "C", "30s", "30s", "200s"),
	))

	out, err := execute(t, "--format", "json", "diff_timelines", ws.doc, "--other", other)
	require.NoError(t, err)
	assert.Equal(t, "compare", gjson.Get(out, "data.category").String())
	assert.NotEmpty(t, gjson.Get(out, "data.summary").String())
}

func TestExportOperation(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "--format", "json", "export_timeline", ws.doc, "--to", "xmeml")
	require.NoError(t, err)
	assert.Equal(t, "xmeml", gjson.Get(out, "data.data.format").String(), out)
	assert.Equal(t, filepath.Join(ws.dir, "edit_modified.xml"), gjson.Get(out, "data.output").String())
	assert.FileExists(t, filepath.Join(ws.dir, "edit_modified.xml"))
}

func TestOpsCommand(t *testing.T) {
	newWorkspace(t)

	out, err := execute(t, "ops", "edit")
	require.NoError(t, err)
	assert.Contains(t, out, "add_marker")
	assert.NotContains(t, out, "list_clips")

	out, err = execute(t, "--format", "json", "ops")
	require.NoError(t, err)
	ops := gjson.Get(out, "data").Array()
	require.NotEmpty(t, ops)
	assert.Equal(t, "inspect_timeline", ops[0].Get("name").String())
	assert.True(t, gjson.Get(out, `data.#(name=="add_marker").params.#(name=="value").required`).Bool())

	_, err = execute(t, "ops", "bogus")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
