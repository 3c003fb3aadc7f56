package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Source  string
	Session string
	Limit   int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show journaled edits",
		GroupID: groupOther,
		Long: `Show the edits recorded in the journal, oldest first.

Examples:
  spine history
  spine history --source cut.fcpxml --limit 5
  spine history --session 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Source, "source", "", "only edits of this source document")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only edits of this session")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the newest N edits")
	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	st, err := opts.openExistingStore()
	if err != nil {
		return err
	}
	defer st.Close()

	edits, err := st.History(cmd.Context(), store.Filter{Source: opts.Source, Session: opts.Session, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read history", err)
	}
	return formatter.Success(editList(edits))
}

// editList renders journal rows one per line.
type editList []store.Edit

func (l editList) Text() string {
	if len(l) == 0 {
		return "no edits recorded\n"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, e := range l {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Seq, humanize.Time(e.At), e.Operation, e.Source, e.Summary)
	}
	tw.Flush()
	return b.String()
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "lineage <document>",
		Short:   "Show the chain of edits that produced a document",
		GroupID: groupOther,
		Long: `Fingerprint a document and walk the journal back from it: the edit that
wrote it, the edit that wrote that edit's input, and so on.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
			if err := rootOpts.pathPolicy().CheckInput(args[0]); err != nil {
				return formatter.Fail(err)
			}
			p, err := rootOpts.newParser().ParseFile(args[0])
			if err != nil {
				return formatter.Fail(err)
			}
			hash, err := ops.Fingerprint(p)
			if err != nil {
				return formatter.Fail(err)
			}

			st, err := rootOpts.openExistingStore()
			if err != nil {
				return err
			}
			defer st.Close()
			chain, err := st.Lineage(cmd.Context(), hash)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read lineage", err)
			}
			return formatter.Success(lineage{Fingerprint: hash, Edits: chain})
		},
	}
}

type lineage struct {
	Fingerprint string       `json:"fingerprint"`
	Edits       []store.Edit `json:"edits"`
}

func (l lineage) Text() string {
	if len(l.Edits) == 0 {
		return "no journaled edit produced this document\n"
	}
	var b strings.Builder
	for i, e := range l.Edits {
		fmt.Fprintf(&b, "%d. %s on %s: %s\n", i+1, e.Operation, e.Source, e.Summary)
	}
	return b.String()
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sessions",
		Short:         "List journal sessions",
		GroupID:       groupOther,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			st, err := rootOpts.openExistingStore()
			if err != nil {
				return err
			}
			defer st.Close()
			sessions, err := st.Sessions(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read sessions", err)
			}
			return formatter.Success(sessionList(sessions))
		},
	}
}

type sessionList []store.Session

func (l sessionList) Text() string {
	if len(l) == 0 {
		return "no sessions recorded\n"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, s := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.StartedAt, s.Label)
	}
	tw.Flush()
	return b.String()
}
