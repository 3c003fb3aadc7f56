package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/roach88/spine/internal/mcpserver"
	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/parser"
	"github.com/roach88/spine/internal/store"
	"github.com/roach88/spine/internal/xmltree"
)

// runtime is what an operation command runs with: a runner wired to the
// configuration and, when the journal is on, an open journal session.
type runtime struct {
	runner  *ops.Runner
	store   *store.Store
	journal *store.SessionJournal
}

// Close releases the journal.
func (r *runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

func (o *RootOptions) pathPolicy() mcpserver.PathPolicy {
	cfg := o.config()
	return mcpserver.PathPolicy{Roots: cfg.Server.Roots, MaxBytes: int64(cfg.Limits.MaxPathBytes)}
}

func (o *RootOptions) newParser() *parser.Parser {
	return parser.New(parser.Options{
		Limits: xmltree.Limits{MaxBytes: int64(o.config().Limits.MaxDocumentBytes)},
		Logger: o.logger(),
	})
}

// newRuntime builds a runner. When the journal is enabled, edits are
// recorded in a new session named label.
func (o *RootOptions) newRuntime(ctx context.Context, label string) (*runtime, error) {
	cfg := o.config()
	policy := o.pathPolicy()
	rt := &runtime{}

	var journal ops.Journal
	if cfg.Journal.Enabled {
		st, err := o.openStore()
		if err != nil {
			return nil, err
		}
		sj, err := st.Journal(ctx, label)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to start journal session", err)
		}
		rt.store, rt.journal, journal = st, sj, sj
	}

	reg := ops.NewRegistry(ops.Options{
		CheckPath:   policy.CheckInput,
		MaxCueBytes: int64(cfg.Limits.MaxCueBytes),
		Logger:      o.logger(),
	})
	rt.runner = ops.NewRunner(reg, ops.RunnerOptions{
		Parser:      o.newParser(),
		Text:        cfg.TextLimits(),
		Suffix:      cfg.Output.Suffix,
		CheckOutput: policy.CheckOutput,
		Journal:     journal,
		Logger:      o.logger(),
	})
	return rt, nil
}

// openStore opens the journal database, creating its directory.
func (o *RootOptions) openStore() (*store.Store, error) {
	path := o.config().Journal.Path
	if path == "" {
		return nil, NewExitError(ExitCommandError, "journal path is not configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create journal directory", err)
	}
	st, err := store.Open(path, store.Options{})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

// openExistingStore opens the journal for reading. A journal that was
// never written is an error rather than an empty history.
func (o *RootOptions) openExistingStore() (*store.Store, error) {
	path := o.config().Journal.Path
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, NewExitError(ExitCommandError, "journal not found: "+filepath.Base(path))
	}
	return o.openStore()
}
