package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/spine/internal/ir"
)

// Snapshot is the golden view of a scenario run: every step's outcome and
// the final document. Fingerprints and operation ids are left out so a
// serializer change does not churn every golden file.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Final        FinalState
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. This is required because ir.MarshalCanonical only handles
// maps, lists and primitives.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"step": ev.Step,
			"op":   ev.Op,
			"args": ev.Args,
		}
		if ev.Args == nil {
			m["args"] = map[string]any{}
		}
		if ev.Summary != "" {
			m["summary"] = ev.Summary
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		if ev.Output != "" {
			m["output"] = ev.Output
		}
		trace[i] = m
	}

	clips := make([]any, len(s.Final.Clips))
	for i, c := range s.Final.Clips {
		clips[i] = map[string]any{"name": c.Name, "offset": c.Offset, "duration": c.Duration, "lane": c.Lane}
	}
	markers := make([]any, len(s.Final.Markers))
	for i, m := range s.Final.Markers {
		markers[i] = map[string]any{"host": m.Host, "kind": m.Kind, "at": m.At, "value": m.Value}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final": map[string]any{
			"clips":    clips,
			"markers":  markers,
			"duration": s.Final.Duration,
			"valid":    s.Final.Valid,
		},
	}
}

// MarshalSnapshot renders the snapshot of result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: name, Trace: result.Trace, Final: result.Final}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass and Errors too.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
