package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/spine/internal/mcpserver"
	"github.com/roach88/spine/internal/ops"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	HTTP bool
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the operations as MCP tools",
		Long: `Serve every operation as an MCP tool, over stdin and stdout by default
or over streamable HTTP with --http.

Tool calls are confined to the configured server roots. Edits are
journaled in one session per server run.

Examples:
  spine serve
  spine serve --http
  spine serve --http --addr 127.0.0.1:9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.HTTP, "http", false, "serve streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg := opts.config()
	label := "serve stdio"
	if opts.HTTP {
		label = "serve http"
	}

	var journal ops.Journal
	if cfg.Journal.Enabled {
		st, err := opts.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		sj, err := st.Journal(ctx, label)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start journal session", err)
		}
		opts.logger().Info("journal session started", "session", sj.Session())
		journal = sj
	}

	srv := mcpserver.New(mcpserver.Options{
		Policy:      opts.pathPolicy(),
		Parser:      opts.newParser(),
		Text:        cfg.TextLimits(),
		Suffix:      cfg.Output.Suffix,
		MaxCueBytes: int64(cfg.Limits.MaxCueBytes),
		Journal:     journal,
		Logger:      opts.logger(),
	})

	var err error
	if opts.HTTP {
		addr := opts.Addr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		err = srv.ListenAndServe(ctx, addr)
	} else {
		err = srv.ServeStdio(ctx)
	}
	if err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "server stopped", err)
	}
	return nil
}
