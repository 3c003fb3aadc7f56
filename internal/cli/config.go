package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/spine/internal/config"
)

// ConfigCheckResult reports whether a configuration loads.
type ConfigCheckResult struct {
	Valid  bool   `json:"valid"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r ConfigCheckResult) Text() string {
	src := r.Source
	if src == "" {
		src = "defaults and environment"
	}
	if r.Valid {
		return fmt.Sprintf("✓ configuration is valid (%s)\n", src)
	}
	return fmt.Sprintf("✗ configuration is invalid (%s)\n  %s\n", src, r.Error)
}

// configView renders a configuration as TOML for text output.
type configView struct {
	*config.Config
}

func (v configView) Text() string {
	data, err := toml.Marshal(v.Config)
	if err != nil {
		return fmt.Sprintf("cannot render configuration: %v\n", err)
	}
	if v.Source != "" {
		return "# " + v.Source + "\n" + string(data)
	}
	return string(data)
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or check the configuration",
		// Replaces the root hook: an invalid configuration must reach
		// "config check" instead of failing before it runs.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(rootOpts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", rootOpts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts), newConfigCheckCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the resolved configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{Path: rootOpts.ConfigPath, EnvFile: rootOpts.EnvFile})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load configuration", err)
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(configView{cfg})
		},
	}
}

func newConfigCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a configuration file",
		Long: `Load a configuration file the way every command does and report whether
it is valid. Without a file, the --config flag, $SPINE_CONFIG and the
default location are tried in that order.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			cfg, err := config.Load(config.LoadOptions{Path: path, EnvFile: rootOpts.EnvFile})
			if err != nil {
				result := ConfigCheckResult{Source: path, Error: err.Error()}
				if rootOpts.Format == "json" {
					if ferr := formatter.Error("INVALID_CONFIG", err.Error(), result); ferr != nil {
						return ferr
					}
				} else if ferr := formatter.Success(result); ferr != nil {
					return ferr
				}
				return &ExitError{Code: ExitFailure, Message: "invalid configuration", Err: err, Reported: true}
			}
			return formatter.Success(ConfigCheckResult{Valid: true, Source: cfg.Source})
		},
	}
}
