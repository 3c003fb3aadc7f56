package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/logging"
	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/store"
	"github.com/roach88/spine/internal/testutil"
)

// SourceName is the name the starting document is copied to.
const SourceName = "source.fcpxml"

// Options tune RunWith.
type Options struct {
	// Dir is the work directory. Empty means a temporary directory that
	// is removed afterwards.
	Dir string
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and session ids.
type Harness struct {
	scenario *Scenario
	dir      string
	store    *store.Store
	journal  *store.SessionJournal
	runner   *ops.Runner
	logger   *slog.Logger
}

// Run executes a scenario in a temporary directory.
func Run(scenario *Scenario) (*Result, error) {
	return RunWith(context.Background(), scenario, Options{})
}

// RunWith executes a scenario and returns the result.
//
// Execution flow:
// 1. Copy the starting document into the work directory
// 2. Open a fresh in-memory journal
// 3. Execute steps, each edit reading the previous edit's output
// 4. Read back the final document and the journal
// 5. Evaluate assertions
//
// The returned error is for failures of the harness itself; failed
// expectations and assertions are reported in Result.Errors.
func RunWith(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	dir := opts.Dir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "spine-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create work directory: %w", err)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	source, err := scenario.documentBytes()
	if err != nil {
		return nil, err
	}
	src := filepath.Join(dir, SourceName)
	if err := os.WriteFile(src, source, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write source document: %w", err)
	}

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.Options{
		IDs:   testutil.NewSequentialIDs("session"),
		Clock: clock.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	journal, err := st.Journal(ctx, scenario.Name)
	if err != nil {
		return nil, err
	}

	reg := ops.NewRegistry(ops.Options{Logger: logger})
	h := &Harness{
		scenario: scenario,
		dir:      dir,
		store:    st,
		journal:  journal,
		runner: ops.NewRunner(reg, ops.RunnerOptions{
			Journal: journal,
			Logger:  logger,
			Clock:   clock.Now,
		}),
		logger: logging.WithComponent(logger, "harness"),
	}

	result := NewResult()
	current, err := h.executeSteps(ctx, src, result)
	if err != nil {
		return nil, err
	}
	if err := h.readFinal(ctx, current, result); err != nil {
		return nil, err
	}
	if err := h.readJournal(ctx, result); err != nil {
		return nil, err
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (s *Scenario) documentBytes() ([]byte, error) {
	if s.Fixture != "" {
		return []byte(Fixtures[s.Fixture]()), nil
	}
	data, err := os.ReadFile(s.Document)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// executeSteps runs every step and returns the path of the last edited
// document.
func (h *Harness) executeSteps(ctx context.Context, current string, result *Result) (string, error) {
	for i, step := range h.scenario.Steps {
		args := h.stepArgs(i, step)
		ev := TraceEvent{Step: i + 1, Op: step.Op, Args: ops.Args(step.Args).Canonical()}

		outcome, err := h.runner.Run(ctx, step.Op, current, args)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			ev.Error = errorCode(err)
			result.Trace = append(result.Trace, ev)
			if step.Expect == nil || step.Expect.Error == "" {
				result.AddError(fmt.Sprintf("step %d (%s) failed: %v", ev.Step, step.Op, err))
			} else if step.Expect.Error != ev.Error {
				result.AddError(fmt.Sprintf("step %d (%s): expected error %s, got %s", ev.Step, step.Op, step.Expect.Error, ev.Error))
			}
			h.logger.Info("step failed", "step", ev.Step, "op", step.Op, "error", ev.Error)
			continue
		}

		ev.Summary = outcome.Summary
		ev.OperationID = outcome.OperationID
		ev.Changes = outcome.Changes
		if outcome.Output != "" {
			ev.Output = filepath.Base(outcome.Output)
		}
		result.Trace = append(result.Trace, ev)
		if step.Expect != nil {
			for _, msg := range checkExpect(ev, outcome, step.Expect) {
				result.AddError(fmt.Sprintf("step %d (%s): %s", ev.Step, step.Op, msg))
			}
		}
		if outcome.Category == ops.CategoryEdit && outcome.Output != "" {
			current = outcome.Output
		}
		h.logger.Info("step completed", "step", ev.Step, "op", step.Op, "summary", ev.Summary)
	}
	return current, nil
}

// stepArgs copies the step's args, defaults the timeline, names edit
// outputs stepNN.fcpxml and resolves relative paths against the work
// directory.
func (h *Harness) stepArgs(i int, step Step) ops.Args {
	args := ops.Args{}
	for k, v := range step.Args {
		args[k] = v
	}
	if !args.Has("timeline") && h.scenario.Timeline != 0 {
		args["timeline"] = h.scenario.Timeline
	}
	op, err := h.runner.Registry().Get(step.Op)
	if err != nil {
		return args
	}
	if op.Info().Category == ops.CategoryEdit && !args.Has("output") {
		args["output"] = filepath.Join(h.dir, fmt.Sprintf("step%02d.fcpxml", i+1))
	}
	for _, name := range []string{"output", ops.OtherParam, "cues_path"} {
		if p, ok := args[name].(string); ok && p != "" && !filepath.IsAbs(p) {
			args[name] = filepath.Join(h.dir, p)
		}
	}
	return args
}

// errorCode names a failure by its ops code or ir kind.
func errorCode(err error) string {
	var opErr *ops.Error
	if errors.As(err, &opErr) {
		return string(opErr.Code)
	}
	return string(ir.KindOf(err))
}

func checkExpect(ev TraceEvent, outcome *ops.Outcome, want *Expect) []string {
	var msgs []string
	if want.Error != "" {
		msgs = append(msgs, fmt.Sprintf("expected error %s, step succeeded", want.Error))
	}
	if want.Summary != "" && want.Summary != ev.Summary {
		msgs = append(msgs, fmt.Sprintf("summary %q, expected %q", ev.Summary, want.Summary))
	}
	if len(want.Data) > 0 {
		data, err := json.Marshal(outcome.Data)
		if err != nil {
			return append(msgs, fmt.Sprintf("cannot render data: %v", err))
		}
		for _, path := range sortedKeys(want.Data) {
			got := gjson.GetBytes(data, path)
			if !got.Exists() {
				msgs = append(msgs, fmt.Sprintf("data %s is missing", path))
				continue
			}
			if !matchValue(got, want.Data[path]) {
				msgs = append(msgs, fmt.Sprintf("data %s = %s, expected %v", path, got.Raw, want.Data[path]))
			}
		}
	}
	for _, kind := range sortedKeys(want.Changes) {
		if got := ev.Changes[kind]; got != want.Changes[kind] {
			msgs = append(msgs, fmt.Sprintf("%d %s changes, expected %d", got, kind, want.Changes[kind]))
		}
	}
	return msgs
}

// readFinal describes the last document through the read operations.
func (h *Harness) readFinal(ctx context.Context, doc string, result *Result) error {
	args := ops.Args{"timeline": h.scenario.Timeline}
	read := func(name string) (gjson.Result, error) {
		out, err := h.runner.Run(ctx, name, doc, args)
		if err != nil {
			return gjson.Result{}, err
		}
		data, err := json.Marshal(out.Data)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("render %s: %w", name, err)
		}
		return gjson.ParseBytes(data), nil
	}

	final := FinalState{Clips: []ClipState{}, Markers: []MarkerState{}}
	clips, err := read("list_clips")
	if err != nil {
		return fmt.Errorf("failed to read final document: %w", err)
	}
	clips.Get("clips").ForEach(func(_, c gjson.Result) bool {
		final.Clips = append(final.Clips, ClipState{
			Name:     c.Get("name").String(),
			Offset:   c.Get("offset").String(),
			Duration: c.Get("duration").String(),
			Lane:     int(c.Get("lane").Int()),
		})
		return true
	})
	markers, err := read("list_markers")
	if err != nil {
		return fmt.Errorf("failed to read final markers: %w", err)
	}
	markers.Get("markers").ForEach(func(_, m gjson.Result) bool {
		final.Markers = append(final.Markers, MarkerState{
			Host:  m.Get("host").String(),
			Kind:  m.Get("kind").String(),
			At:    m.Get("at").String(),
			Value: m.Get("value").String(),
		})
		return true
	})
	inspect, err := read("inspect_timeline")
	if err != nil {
		return fmt.Errorf("failed to inspect final document: %w", err)
	}
	final.Duration = inspect.Get("duration").String()
	if valid, err := read("validate_timeline"); err == nil {
		final.Valid = valid.Get("valid").Bool()
	}
	result.Final = final
	return nil
}

func (h *Harness) readJournal(ctx context.Context, result *Result) error {
	edits, err := h.store.History(ctx, store.Filter{Session: h.journal.Session()})
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	for _, e := range edits {
		result.Journal = append(result.Journal, JournalEntry{
			Operation: e.Operation,
			Summary:   e.Summary,
			Changes:   e.Changes,
		})
	}
	return nil
}
