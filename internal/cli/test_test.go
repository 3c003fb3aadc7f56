package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	scenarioDir = "../harness/testdata/scenarios"
	goldenDir   = "../harness/testdata/golden"
)

const passingScenario = `name: trim_only
description: Trim the first clip.
fixture: three_clips
steps:
  - op: trim_clip
    args: { clip: A, out: 20s }
assertions:
  - type: journal_count
    count: 1
`

const failingScenario = `name: wrong_order
description: Expects an order the edit does not produce.
fixture: three_clips
steps:
  - op: delete_clips
    args: { clips: B }
assertions:
  - type: clip_order
    clips: [B, A, C]
`

func writeScenario(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestTestCommandRunsScenarioFiles(t *testing.T) {
	newWorkspace(t)

	out, err := execute(t, "--format", "json", "test", scenarioDir, "--golden-dir", goldenDir)
	require.NoError(t, err, out)
	assert.Equal(t, int64(2), gjson.Get(out, "data.passed").Int())
	assert.Equal(t, "match", gjson.Get(out, `data.scenarios.#(name=="marker_ripple_delete").golden`).String())
	assert.Equal(t, "match", gjson.Get(out, `data.scenarios.#(name=="reorder_chapter_export").golden`).String())
}

func TestTestCommandFilter(t *testing.T) {
	newWorkspace(t)

	out, err := execute(t, "test", scenarioDir, "--golden-dir", goldenDir, "--filter", "reorder_*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ reorder_chapter_export")
	assert.NotContains(t, out, "marker_ripple_delete")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = execute(t, "test", scenarioDir, "--filter", "nothing-*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	_, err = execute(t, "test", scenarioDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdatesGoldens(t *testing.T) {
	ws := newWorkspace(t)
	writeScenario(t, ws.dir, "trim_only", passingScenario)

	out, err := execute(t, "test", ws.dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ trim_only")

	out, err = execute(t, "test", ws.dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")
	golden := filepath.Join(ws.dir, "golden", "trim_only.golden")
	require.FileExists(t, golden)

	out, err = execute(t, "--format", "json", "test", ws.dir)
	require.NoError(t, err)
	assert.Equal(t, "match", gjson.Get(out, "data.scenarios.0.golden").String())

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"trim_only"}`), 0o644))
	out, err = execute(t, "test", ws.dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestTestCommandReportsFailures(t *testing.T) {
	ws := newWorkspace(t)
	writeScenario(t, ws.dir, "wrong_order", failingScenario)
	writeScenario(t, ws.dir, "broken", "name: broken\nsteps: [\n")

	out, err := execute(t, "--format", "json", "test", ws.dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "E_TEST_FAILED", gjson.Get(out, "error.code").String())
	assert.Equal(t, int64(2), gjson.Get(out, "error.details.failed").Int())
	assert.Contains(t, gjson.Get(out, `error.details.scenarios.#(name=="broken.yaml").errors.0`).String(), "failed to load scenario")
	assert.NotEmpty(t, gjson.Get(out, `error.details.scenarios.#(name=="wrong_order").errors`).Array())
}

func TestTestCommandMissingPath(t *testing.T) {
	newWorkspace(t)

	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
