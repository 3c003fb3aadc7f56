package harness

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EditChain(t *testing.T) {
	scenario := &Scenario{
		Name:        "edit_chain",
		Description: "Each edit reads the previous output",
		Fixture:     "three_clips",
		Steps: []Step{
			{Op: "delete_clips", Args: map[string]any{"clips": "B", "ripple": true}},
			{Op: "add_marker", Args: map[string]any{"clip": "C", "at": "1s", "value": "End"},
				Expect: &Expect{Summary: "added standard marker on c2 at 201s", Data: map[string]any{"marker.host": "c2"}}},
		},
		Assertions: []Assertion{
			{Type: AssertClipOrder, Clips: []string{"A", "C"}},
			{Type: AssertDuration, Value: "60s"},
			{Type: AssertJournalCount, Count: 2},
		},
	}

	dir := t.TempDir()
	result, err := RunWith(context.Background(), scenario, Options{Dir: dir})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, "step01.fcpxml", result.Trace[0].Output)
	assert.Equal(t, "step02.fcpxml", result.Trace[1].Output)
	assert.NotEmpty(t, result.Trace[0].OperationID)
	assert.FileExists(t, filepath.Join(dir, SourceName))
	assert.FileExists(t, filepath.Join(dir, "step02.fcpxml"))

	require.Len(t, result.Final.Markers, 1)
	assert.Equal(t, MarkerState{Host: "C", Kind: "standard", At: "31s", Value: "End"}, result.Final.Markers[0])
	assert.Equal(t, []JournalEntry{
		{Operation: "delete_clips", Summary: "deleted 1 clips", Changes: result.Journal[0].Changes},
		{Operation: "add_marker", Summary: "added standard marker on c2 at 201s", Changes: result.Journal[1].Changes},
	}, result.Journal)
}

func TestRun_ReadStepsDoNotAdvance(t *testing.T) {
	scenario := &Scenario{
		Name:        "reads",
		Description: "Read steps leave the document alone",
		Fixture:     "lanes",
		Steps: []Step{
			{Op: "list_clips", Expect: &Expect{Data: map[string]any{"clips.#": 4}}},
			{Op: "inspect_timeline", Expect: &Expect{Data: map[string]any{"connected_clips": 2, "spine_clips": 2}}},
		},
		Assertions: []Assertion{
			{Type: AssertValid},
			{Type: AssertJournalCount, Count: 0},
		},
	}
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Trace[0].Output)
	assert.Len(t, result.Final.Clips, 4)
}

func TestRun_ReportsFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "failures",
		Description: "Mismatches are collected, not returned",
		Fixture:     "three_clips",
		Steps: []Step{
			{Op: "delete_clips", Args: map[string]any{"clips": "A"}, Expect: &Expect{Summary: "deleted 2 clips"}},
			{Op: "trim_clip", Args: map[string]any{"clip": "Nope", "out": "1s"}},
			{Op: "trim_clip", Args: map[string]any{"clip": "B"}, Expect: &Expect{Error: "REFERENCE_ERROR"}},
			{Op: "list_clips", Expect: &Expect{Error: "FORMAT_ERROR", Data: map[string]any{"missing": 1}}},
			{Op: "bogus_op"},
		},
		Assertions: []Assertion{
			{Type: AssertClipOrder, Clips: []string{"A", "B", "C"}},
		},
	}
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	all := strings.Join(result.Errors, "\n")
	assert.Contains(t, all, `step 1 (delete_clips): summary "deleted 1 clips", expected "deleted 2 clips"`)
	assert.Contains(t, all, "step 2 (trim_clip) failed")
	assert.Contains(t, all, "step 3 (trim_clip): expected error REFERENCE_ERROR, got MISSING_ARGUMENT")
	assert.Contains(t, all, "step 4 (list_clips): expected error FORMAT_ERROR, step succeeded")
	assert.Contains(t, all, "step 4 (list_clips): data missing is missing")
	assert.Contains(t, all, "step 5 (bogus_op) failed")
	assert.Contains(t, all, "Assertion failed: clip_order")

	assert.Equal(t, "REFERENCE_ERROR", result.Trace[1].Error)
	assert.Equal(t, "UNKNOWN_OPERATION", result.Trace[4].Error)
}

func TestRun_RelativeOutputsResolveInWorkDir(t *testing.T) {
	scenario := &Scenario{
		Name:        "compare",
		Description: "Diff an edit against the source",
		Fixture:     "three_clips",
		Steps: []Step{
			{Op: "delete_clips", Args: map[string]any{"clips": "C", "output": "cut.fcpxml"}},
			{Op: "diff_timelines", Args: map[string]any{"other": SourceName}},
		},
	}
	dir := t.TempDir()
	result, err := RunWith(context.Background(), scenario, Options{Dir: dir})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "cut.fcpxml", result.Trace[0].Output)
	_, err = os.Stat(filepath.Join(dir, "cut.fcpxml"))
	assert.NoError(t, err)
}

func TestRun_RejectsInvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRun_ScenarioFiles(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
