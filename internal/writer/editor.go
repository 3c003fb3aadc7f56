package writer

import (
	"log/slog"

	"github.com/roach88/spine/internal/ir"
)

// Options configures an Editor.
type Options struct {
	// Timeline selects the project timeline to edit, in ir.Project.AllTimelines
	// order.
	Timeline int
	Text     TextLimits
	Logger   *slog.Logger
}

// Editor holds one project for an editing session. It is not safe for
// concurrent use.
type Editor struct {
	project *ir.Project
	index   int
	text    TextLimits
	logger  *slog.Logger
}

// NewEditor starts a session on p. The project is validated first; p itself
// is never mutated.
func NewEditor(p *ir.Project, opts Options) (*Editor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, err := p.Timeline(opts.Timeline); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		project: p.Clone(),
		index:   opts.Timeline,
		text:    opts.Text.withDefaults(),
		logger:  logger,
	}, nil
}

// Project returns the current committed project.
func (e *Editor) Project() *ir.Project { return e.project }

// Timeline returns the timeline being edited.
func (e *Editor) Timeline() *ir.Timeline {
	return e.project.AllTimelines()[e.index]
}

// apply runs fn against a copy of the project and commits the copy only when
// fn succeeds and the result validates.
func (e *Editor) apply(op string, fn func(tl *ir.Timeline) error) error {
	draft := e.project.Clone()
	tl := draft.AllTimelines()[e.index]

	if err := fn(tl); err != nil {
		e.logger.Debug("edit rejected", "op", op, "error", err)
		return err
	}
	tl.Duration = tl.SpineDuration()
	if err := draft.Validate(); err != nil {
		e.logger.Debug("edit failed validation", "op", op, "error", err)
		return err
	}

	for _, t := range draft.CompoundTimelines() {
		t.Reindex()
	}
	ix := tl.Reindex()
	e.project = draft
	e.logger.Debug("edit committed", "op", op, "items", ix.Len(), "duration", tl.Duration.String())
	return nil
}
