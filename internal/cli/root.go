package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/spine/internal/config"
	"github.com/roach88/spine/internal/logging"
)

// RootOptions holds global flags for all commands, and the configuration
// and logger resolved from them before any command runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string
	LogLevel   string

	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the spine CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "spine",
		Short: "spine - FCPXML timeline engine",
		Long: `Read, edit, compare and re-export Final Cut Pro XML timelines.

Every edit writes a new document next to the source and never touches the
original. Applied edits are recorded in a journal that history, lineage and
replay read back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $SPINE_CONFIG or ~/.config/spine/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file with SPINE_* settings")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddGroup(
		&cobra.Group{ID: groupRead, Title: "Read operations:"},
		&cobra.Group{ID: groupEdit, Title: "Edit operations:"},
		&cobra.Group{ID: groupOther, Title: "Compare, export and journal:"},
	)
	for _, sub := range NewOperationCommands(opts) {
		cmd.AddCommand(sub)
	}
	cmd.AddCommand(NewOpsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewLineageCommand(opts))
	cmd.AddCommand(NewSessionsCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// setup validates the global flags, loads the configuration and builds
// the logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	cfg, err := config.Load(config.LoadOptions{Path: o.ConfigPath, EnvFile: o.EnvFile})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	level := cfg.Log.Level
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	if o.Verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log settings", err)
	}
	o.Config = cfg
	o.Logger = logger
	return nil
}

// config returns the loaded configuration, or the defaults when the
// command runs without the root (as in tests).
func (o *RootOptions) config() *config.Config {
	if o.Config == nil {
		cfg := config.Default()
		cfg.Journal.Enabled = false
		o.Config = &cfg
	}
	return o.Config
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
