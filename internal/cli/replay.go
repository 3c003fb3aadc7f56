package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/store"
)

// Replay statuses.
const (
	replayMatch         = "match"
	replayMismatch      = "mismatch"
	replaySourceChanged = "source_changed"
	replayFailed        = "failed"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Session string
}

// ReplayEdit is the replay outcome of one journaled edit.
type ReplayEdit struct {
	Seq       int64  `json:"seq"`
	Operation string `json:"operation"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	Want      string `json:"want,omitempty"`
	Got       string `json:"got,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Session          string       `json:"session"`
	Edits            []ReplayEdit `json:"edits"`
	Skipped          int          `json:"skipped"`
	AllDeterministic bool         `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "replay <session>",
		Short:   "Re-run a journaled session and verify determinism",
		GroupID: groupOther,
		Long: `Re-run every edit of a journaled session as a dry run and check that it
produces the same document it produced the first time.

Each edit is run again on its recorded source with its recorded arguments.
Edits whose source no longer matches the recorded fingerprint are reported
as source_changed and do not fail the replay.

Exit codes:
  0 - Every replayable edit produced the recorded document
  1 - An edit failed or produced a different document
  2 - Command error (journal not found, unknown session)

Examples:
  spine replay 1b4e28ba-2fa1-11d2-883f-0016d3cca427
  spine replay 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Session = args[0]
			return runReplay(opts, cmd)
		},
	}
	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	st, err := opts.openExistingStore()
	if err != nil {
		return err
	}
	defer st.Close()

	edits, err := st.History(ctx, store.Filter{Session: opts.Session})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if len(edits) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("session %s has no edits", opts.Session))
	}

	result := replaySession(ctx, opts.RootOptions, edits)
	result.Session = opts.Session
	for _, e := range result.Edits {
		formatter.VerboseLog("%d %s: %s", e.Seq, e.Operation, e.Status)
	}

	if !result.AllDeterministic {
		if opts.Format == "json" {
			if err := formatter.Error("E_DETERMINISM", "determinism verification failed", result); err != nil {
				return err
			}
		} else if err := formatter.Success(result); err != nil {
			return err
		}
		return &ExitError{Code: ExitFailure, Message: "determinism verification failed", Reported: true}
	}
	return formatter.Success(result)
}

// replayRecorder keeps the one entry a replayed edit records.
type replayRecorder struct {
	entry *ops.Entry
}

func (r *replayRecorder) Record(_ context.Context, e ops.Entry) error {
	r.entry = &e
	return nil
}

// replaySession runs each edit again as a dry run. The source fingerprint
// is checked before the comparison, so an edit applied to a file that has
// since changed is not mistaken for nondeterminism.
func replaySession(ctx context.Context, rootOpts *RootOptions, edits []store.Edit) ReplayResult {
	result := ReplayResult{Edits: make([]ReplayEdit, 0, len(edits)), AllDeterministic: true}
	policy := rootOpts.pathPolicy()
	cfg := rootOpts.config()
	reg := ops.NewRegistry(ops.Options{
		CheckPath:   policy.CheckInput,
		MaxCueBytes: int64(cfg.Limits.MaxCueBytes),
		Logger:      rootOpts.logger(),
	})

	for _, e := range edits {
		re := ReplayEdit{Seq: e.Seq, Operation: e.Operation, Source: e.Source, Want: e.After}
		rec := &replayRecorder{}
		runner := ops.NewRunner(reg, ops.RunnerOptions{
			Parser:  rootOpts.newParser(),
			Text:    cfg.TextLimits(),
			Suffix:  cfg.Output.Suffix,
			Journal: rec,
			Logger:  rootOpts.logger(),
		})

		args := ops.Args{}
		for k, v := range e.Args {
			args[k] = v
		}
		args["dry_run"] = true

		_, err := runner.Run(ctx, e.Operation, e.Source, args)
		switch {
		case err != nil:
			re.Status, re.Error = replayFailed, err.Error()
		case rec.entry == nil:
			re.Status, re.Error = replayFailed, "edit did not record a result"
		case rec.entry.Before != e.Before:
			re.Status = replaySourceChanged
			result.Skipped++
		case rec.entry.After != e.After:
			re.Status, re.Got = replayMismatch, rec.entry.After
		default:
			re.Status = replayMatch
		}
		if re.Status == replayFailed || re.Status == replayMismatch {
			result.AllDeterministic = false
		}
		result.Edits = append(result.Edits, re)
	}
	return result
}

func (r ReplayResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Replay of session %s: %d edit(s)\n\n", r.Session, len(r.Edits))
	for _, e := range r.Edits {
		mark := "✓"
		switch e.Status {
		case replayMismatch, replayFailed:
			mark = "✗"
		case replaySourceChanged:
			mark = "-"
		}
		fmt.Fprintf(&b, "%s %d %s on %s: %s\n", mark, e.Seq, e.Operation, e.Source, e.Status)
		if e.Error != "" {
			fmt.Fprintf(&b, "  %s\n", e.Error)
		}
		if e.Status == replayMismatch {
			fmt.Fprintf(&b, "  want %s\n  got  %s\n", e.Want, e.Got)
		}
	}
	b.WriteString("\n")
	switch {
	case !r.AllDeterministic:
		b.WriteString("✗ Determinism verification failed\n")
	case r.Skipped > 0:
		fmt.Fprintf(&b, "✓ Replayable edits verified deterministic (%d skipped, source changed)\n", r.Skipped)
	default:
		b.WriteString("✓ All edits verified deterministic\n")
	}
	return b.String()
}
