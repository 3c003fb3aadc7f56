package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/spine/internal/logging"
	"github.com/roach88/spine/internal/ops"
)

// Command groups.
const (
	groupRead  = "read"
	groupEdit  = "edit"
	groupOther = "other"
)

// NewOperationCommands creates one command per registry operation. Each
// parameter becomes a flag; underscores in parameter names are written as
// dashes on the command line, and the export format is --to.
func NewOperationCommands(rootOpts *RootOptions) []*cobra.Command {
	reg := ops.NewRegistry(ops.Options{Logger: logging.Discard()})
	var cmds []*cobra.Command
	for _, op := range reg.All() {
		cmds = append(cmds, newOperationCommand(rootOpts, op.Info()))
	}
	return cmds
}

// renamedFlags holds parameters whose names are taken by global flags.
var renamedFlags = map[string]string{"format": "to"}

func flagName(param string) string {
	if name, ok := renamedFlags[param]; ok {
		return name
	}
	return strings.ReplaceAll(param, "_", "-")
}

func newOperationCommand(rootOpts *RootOptions, info ops.Info) *cobra.Command {
	cmd := &cobra.Command{
		Use:           info.Name + " <document>",
		Short:         info.Description,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opArgs, err := collectArgs(cmd, info)
			if err != nil {
				return err
			}
			return runOperation(rootOpts, cmd, info.Name, args[0], opArgs)
		},
	}
	switch info.Category {
	case ops.CategoryRead:
		cmd.GroupID = groupRead
	case ops.CategoryEdit:
		cmd.GroupID = groupEdit
	default:
		cmd.GroupID = groupOther
	}

	for _, p := range info.Params {
		name, usage := flagName(p.Name), p.Description
		if len(p.Enum) > 0 {
			usage += " (" + strings.Join(p.Enum, "|") + ")"
		}
		if p.Default != "" {
			usage += " [default " + p.Default + "]"
		}
		switch p.Type {
		case ops.TypeBool:
			cmd.Flags().Bool(name, false, usage)
		case ops.TypeInt:
			cmd.Flags().Int(name, 0, usage)
		case ops.TypeStrings, ops.TypeTimes:
			cmd.Flags().StringSlice(name, nil, usage)
		default:
			cmd.Flags().String(name, "", usage)
		}
		if p.Required {
			_ = cmd.MarkFlagRequired(name)
		}
	}
	return cmd
}

// collectArgs reads the flags the user set. Unset flags are left out so
// operations apply their own defaults.
func collectArgs(cmd *cobra.Command, info ops.Info) (ops.Args, error) {
	args := ops.Args{}
	for _, p := range info.Params {
		name := flagName(p.Name)
		if !cmd.Flags().Changed(name) {
			continue
		}
		var (
			v   any
			err error
		)
		switch p.Type {
		case ops.TypeBool:
			v, err = cmd.Flags().GetBool(name)
		case ops.TypeInt:
			v, err = cmd.Flags().GetInt(name)
		case ops.TypeStrings, ops.TypeTimes:
			v, err = cmd.Flags().GetStringSlice(name)
		default:
			v, err = cmd.Flags().GetString(name)
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid flag --"+name, err)
		}
		args[p.Name] = v
	}
	return args, nil
}

// operationResult renders an outcome for the terminal.
type operationResult struct {
	*ops.Outcome
	verbose bool
}

func (r operationResult) Text() string {
	var b strings.Builder
	b.WriteString(r.Summary + "\n")
	if r.Output != "" {
		fmt.Fprintf(&b, "written: %s\n", r.Output)
	}
	if len(r.Changes) > 0 {
		for _, k := range slices.Sorted(maps.Keys(r.Changes)) {
			fmt.Fprintf(&b, "  %s: %d\n", k, r.Changes[k])
		}
	}
	if r.verbose && len(r.Data) > 0 {
		data, err := json.MarshalIndent(r.Data, "", "  ")
		if err == nil {
			b.Write(data)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r operationResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Outcome)
}

func runOperation(rootOpts *RootOptions, cmd *cobra.Command, name, doc string, args ops.Args) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}
	ctx := cmd.Context()

	rt, err := rootOpts.newRuntime(ctx, name+" "+filepath.Base(doc))
	if err != nil {
		return err
	}
	defer rt.Close()

	outcome, err := rt.runner.Run(ctx, name, doc, args)
	if err != nil {
		return formatter.Fail(err)
	}
	if rt.journal != nil && outcome.OperationID != "" {
		formatter.VerboseLog("journal session %s, operation %s", rt.journal.Session(), outcome.OperationID)
	}
	return formatter.Success(operationResult{Outcome: outcome, verbose: rootOpts.Verbose})
}

// NewOpsCommand lists the registry.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops [category]",
		Short: "List operations and their parameters",
		Long: `List every operation the engine offers, optionally only one category
(read, edit, compare or export). JSON output includes the parameters.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := ops.NewRegistry(ops.Options{Logger: rootOpts.logger()})
			list := reg.All()
			if len(args) == 1 {
				c := ops.Category(args[0])
				switch c {
				case ops.CategoryRead, ops.CategoryEdit, ops.CategoryCompare, ops.CategoryExport:
				default:
					return NewExitError(ExitCommandError, fmt.Sprintf("unknown category %q", args[0]))
				}
				list = reg.ByCategory(c)
			}
			infos := make(operationList, 0, len(list))
			for _, op := range list {
				infos = append(infos, op.Info())
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(infos)
		},
	}
}

type operationList []ops.Info

func (l operationList) Text() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, info := range l {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.Category, info.Description)
	}
	tw.Flush()
	return b.String()
}
