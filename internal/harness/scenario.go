package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/spine/internal/testutil"
)

// Scenario defines one edit session to replay.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the FCPXML file to start from. Relative paths are
	// resolved against the scenario file.
	Document string `yaml:"document,omitempty"`

	// Fixture names a built-in document instead of Document.
	Fixture string `yaml:"fixture,omitempty"`

	// Timeline selects the project timeline, default 0.
	Timeline int `yaml:"timeline,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final document and journal.
	Assertions []Assertion `yaml:"assertions"`
}

// Step runs one registry operation.
type Step struct {
	// Op is the registry operation name (e.g. "add_marker").
	Op string `yaml:"op"`

	// Args are passed to the operation. The timeline argument defaults to
	// the scenario's timeline.
	Args map[string]any `yaml:"args"`

	// Expect checks the outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected ir error kind (e.g. "REFERENCE_ERROR") or, for
	// argument problems, the ops error code (e.g. "MISSING_ARGUMENT").
	Error string `yaml:"error,omitempty"`

	// Summary must equal the outcome summary when set.
	Summary string `yaml:"summary,omitempty"`

	// Data maps gjson paths into the outcome's data to expected values.
	Data map[string]any `yaml:"data,omitempty"`

	// Changes are expected diff counts by change kind (subset match).
	Changes map[string]int `yaml:"changes,omitempty"`
}

// Assertion validates the final document or the journal.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Clips is the expected primary storyline order (clip_order).
	Clips []string `yaml:"clips,omitempty"`

	// Count is the expected number (marker_count, journal_count).
	Count int `yaml:"count,omitempty"`

	// Kind filters markers (marker_count).
	Kind string `yaml:"kind,omitempty"`

	// Value is the expected duration (duration).
	Value string `yaml:"value,omitempty"`

	// Ops is the expected journal order (journal_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertClipOrder    = "clip_order"
	AssertMarkerCount  = "marker_count"
	AssertDuration     = "duration"
	AssertValid        = "valid"
	AssertJournalCount = "journal_count"
	AssertJournalOrder = "journal_order"
)

// Fixtures are the built-in documents a scenario can name.
var Fixtures = map[string]func() string{
	"three_clips": testutil.ThreeClips,
	"lanes": func() string {
		return testutil.Document(
			testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s",
				testutil.LaneClip(testutil.BRollID, "Broll", 1, "5s", "10s", "0s"),
				testutil.LaneClip(testutil.MusicID, "Music", -1, "0s", "30s", "0s"),
			),
			testutil.AssetClip(testutil.InterviewID, "B", "30s", "30s", "100s"),
		)
	},
	"short_clip": func() string {
		return testutil.Document(
			testutil.AssetClip(testutil.InterviewID, "A", "0s", "30s", "0s"),
			testutil.AssetClip(testutil.InterviewID, "Blip", "30s", "1/24s", "50s"),
			testutil.AssetClip(testutil.InterviewID, "C", "721/24s", "30s", "200s"),
		)
	},
}

// FixtureNames lists Fixtures in order.
func FixtureNames() []string {
	names := make([]string, 0, len(Fixtures))
	for name := range Fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without resolving the document path.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Document != "" && s.Fixture != "":
		return fmt.Errorf("give document or fixture, not both")
	case s.Fixture != "":
		if _, ok := Fixtures[s.Fixture]; !ok {
			return fmt.Errorf("unknown fixture %q (have %v)", s.Fixture, FixtureNames())
		}
	case s.Document != "":
		if _, err := os.Stat(s.Document); os.IsNotExist(err) {
			return fmt.Errorf("document not found: %s", filepath.Base(s.Document))
		}
	default:
		return fmt.Errorf("document or fixture is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertClipOrder:
		if a.Clips == nil {
			return fmt.Errorf("assertions[%d]: clips list is required for clip_order", index)
		}
	case AssertMarkerCount, AssertJournalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertDuration:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for duration", index)
		}
	case AssertJournalOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for journal_order", index)
		}
	case AssertValid:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
