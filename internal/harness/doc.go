// Package harness runs edit scenarios: a document, a sequence of registry
// operations applied one after another, and assertions about the result.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	fixture: three_clips          # or document: path/to/cut.fcpxml
//	steps:
//	  - op: add_marker
//	    args: { clip: B, at: 2s, value: Review }
//	    expect:
//	      summary: "added standard marker on c2 at 102s"
//	      data: { "marker.start": "102s" }
//	  - op: trim_clip
//	    args: { clip: Missing, out: 10s }
//	    expect:
//	      error: REFERENCE_ERROR
//	assertions:
//	  - type: clip_order
//	    clips: [A, B, C]
//	  - type: journal_count
//	    count: 1
//
// Each successful edit writes stepNN.fcpxml in the work directory and the
// next step reads it. Read, compare and export steps leave the current
// document alone. A failed step is an error unless expect.error names its
// kind.
//
// # Assertion Types
//
//   - clip_order: primary storyline clip names, in order
//   - marker_count: number of markers, optionally of one kind
//   - duration: timeline duration
//   - valid: the final document passes validation
//   - journal_count: number of recorded edits
//   - journal_order: recorded operations, in order
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory journal with sequential session ids and
// testutil.DeterministicClock, so traces are identical across runs and can
// be compared against golden snapshots in testdata/golden.
package harness
