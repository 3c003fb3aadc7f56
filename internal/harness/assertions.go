package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		status := ev.Summary
		if ev.Error != "" {
			status = ev.Error
		}
		fmt.Fprintf(&buf, "  [%d] %s %v: %s\n", ev.Step, ev.Op, ev.Args, status)
	}
	return buf.String()
}

// assertClipOrder compares the primary storyline clip names.
func assertClipOrder(result *Result, a Assertion) error {
	var got []string
	for _, c := range result.Final.Clips {
		if c.Lane == 0 {
			got = append(got, c.Name)
		}
	}
	if got == nil {
		got = []string{}
	}
	if !reflect.DeepEqual(got, a.Clips) {
		return &AssertionError{
			Type:     AssertClipOrder,
			Expected: fmt.Sprintf("%v", a.Clips),
			Actual:   fmt.Sprintf("%v", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertMarkerCount counts markers, of one kind when the assertion names it.
func assertMarkerCount(result *Result, a Assertion) error {
	kind := ""
	if a.Kind != "" {
		k, err := ir.ParseMarkerKind(a.Kind)
		if err != nil {
			return fmt.Errorf("marker_count: %w", err)
		}
		kind = k.String()
	}
	count := 0
	for _, m := range result.Final.Markers {
		if kind == "" || m.Kind == kind {
			count++
		}
	}
	if count != a.Count {
		what := "markers"
		if kind != "" {
			what = kind + " markers"
		}
		return &AssertionError{
			Type:     AssertMarkerCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertDuration compares durations as exact times, so "60s" matches
// "1440/24s".
func assertDuration(result *Result, a Assertion) error {
	want, err := rational.Parse(a.Value)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	got, err := rational.Parse(result.Final.Duration)
	if err != nil || !got.Equal(want) {
		return &AssertionError{
			Type:     AssertDuration,
			Expected: want.String(),
			Actual:   result.Final.Duration,
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertValid(result *Result, _ Assertion) error {
	if !result.Final.Valid {
		return &AssertionError{
			Type:     AssertValid,
			Expected: "a valid document",
			Actual:   "validation failed",
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertJournalCount checks the number of recorded edits.
func assertJournalCount(result *Result, a Assertion) error {
	if len(result.Journal) != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d recorded edits", a.Count),
			Actual:   fmt.Sprintf("%d recorded edits", len(result.Journal)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertJournalOrder checks that ops were recorded in order.
// Operations don't need to be consecutive (intervening edits are allowed).
func assertJournalOrder(result *Result, a Assertion) error {
	next := 0
	for _, e := range result.Journal {
		if next < len(a.Ops) && e.Operation == a.Ops[next] {
			next++
		}
	}
	if next < len(a.Ops) {
		var got []string
		for _, e := range result.Journal {
			got = append(got, e.Operation)
		}
		return &AssertionError{
			Type:     AssertJournalOrder,
			Expected: fmt.Sprintf("edits in order: %v", a.Ops),
			Actual:   fmt.Sprintf("%v (missing %s)", got, a.Ops[next]),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertClipOrder:
			err = assertClipOrder(result, a)
		case AssertMarkerCount:
			err = assertMarkerCount(result, a)
		case AssertDuration:
			err = assertDuration(result, a)
		case AssertValid:
			err = assertValid(result, a)
		case AssertJournalCount:
			err = assertJournalCount(result, a)
		case AssertJournalOrder:
			err = assertJournalOrder(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// matchValue compares a gjson value with a YAML-decoded expectation.
// Numbers compare by value, so 2 matches 2.0; strings that read as times
// compare as exact times, so "2s" matches "48/24s".
func matchValue(got gjson.Result, want any) bool {
	switch w := want.(type) {
	case nil:
		return got.Type == gjson.Null
	case string:
		if got.Type != gjson.String {
			return false
		}
		if got.Str == w {
			return true
		}
		a, errA := rational.Parse(got.Str)
		b, errB := rational.Parse(w)
		return errA == nil && errB == nil && a.Equal(b)
	case bool:
		return (got.Type == gjson.True || got.Type == gjson.False) && got.Bool() == w
	case int:
		return got.Type == gjson.Number && got.Raw == strconv.Itoa(w)
	case int64:
		return got.Type == gjson.Number && got.Raw == strconv.FormatInt(w, 10)
	case float64:
		return got.Type == gjson.Number && got.Float() == w
	case []any:
		if !got.IsArray() {
			return false
		}
		items := got.Array()
		if len(items) != len(w) {
			return false
		}
		for i := range w {
			if !matchValue(items[i], w[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		// Subset match: extra keys in got are ignored.
		if !got.IsObject() {
			return false
		}
		for k, v := range w {
			if !matchValue(got.Get(gjson.Escape(k)), v) {
				return false
			}
		}
		return true
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
