package ops

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/spine/internal/diff"
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/parser"
	"github.com/roach88/spine/internal/writer"
)

// Entry is one applied edit as recorded in a Journal.
type Entry struct {
	Operation string
	Source    string
	// Output is empty for dry runs.
	Output string
	// Args are the canonical arguments the operation ran with.
	Args map[string]any
	// Before and After fingerprint the serialized documents.
	Before      string
	After       string
	OperationID string
	Summary     string
	Changes     int
	At          time.Time
}

// Journal records applied edits.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// RunnerOptions configures a Runner. Zero values select a default parser,
// writer.DefaultSuffix, no journal and slog.Default().
type RunnerOptions struct {
	Parser *parser.Parser
	Text   writer.TextLimits
	Suffix string
	// CheckOutput vets output paths. Nil allows any path.
	CheckOutput func(path string) error
	Journal     Journal
	Logger      *slog.Logger
	Clock       func() time.Time
}

// Runner executes registry operations against files: it parses the source,
// runs the operation and, for edits and exports, writes a new file next to
// the source. The source is never modified.
type Runner struct {
	registry *Registry
	opts     RunnerOptions
}

// NewRunner returns a runner over reg.
func NewRunner(reg *Registry, opts RunnerOptions) *Runner {
	if opts.Parser == nil {
		opts.Parser = parser.New(parser.Options{Logger: opts.Logger})
	}
	if opts.Suffix == "" {
		opts.Suffix = writer.DefaultSuffix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{registry: reg, opts: opts}
}

// Registry returns the runner's registry.
func (r *Runner) Registry() *Registry { return r.registry }

// Outcome is the result of one Run.
type Outcome struct {
	Operation string   `json:"operation"`
	Category  Category `json:"category"`
	Result
	// Output is the written file, empty for reads and dry runs.
	Output      string         `json:"output,omitempty"`
	OperationID string         `json:"operation_id,omitempty"`
	Changes     map[string]int `json:"changes,omitempty"`
}

// Run executes the named operation on the document at src.
func (r *Runner) Run(ctx context.Context, name, src string, args Args) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	op, err := r.registry.Get(name)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = Args{}
	}
	if err := op.Info().Check(args); err != nil {
		return nil, err
	}
	p, err := r.load(src)
	if err != nil {
		return nil, err
	}
	logger := r.opts.Logger.With("op", name)

	out := &Outcome{Operation: name, Category: op.Info().Category}
	switch op := op.(type) {
	case ReadOperation:
		out.Result, err = op.Run(p, args)
	case EditOperation:
		err = r.edit(ctx, op, p, src, args, out)
	case CompareOperation:
		err = r.compare(op, p, args, out)
	case ExportOperation:
		err = r.export(op, p, src, args, out)
	default:
		err = &ir.Error{Kind: ir.KindInternal, Message: fmt.Sprintf("operation %s has no runnable category", name)}
	}
	if err != nil {
		logger.Debug("operation failed", "error", err)
		return nil, err
	}
	logger.Debug("operation done", "summary", out.Summary, "output", out.Output)
	return out, nil
}

func (r *Runner) load(path string) (*ir.Project, error) {
	if err := r.registry.CheckPath(path); err != nil {
		return nil, err
	}
	return r.opts.Parser.ParseFile(path)
}

func (r *Runner) edit(ctx context.Context, op EditOperation, p *ir.Project, src string, args Args, out *Outcome) error {
	index, err := args.Int(timelineParam.Name)
	if err != nil {
		return err
	}
	dryRun, err := args.Bool(dryRunParam.Name)
	if err != nil {
		return err
	}
	dst, err := r.outputPath(src, args, "")
	if err != nil {
		return err
	}

	ed, err := writer.NewEditor(p, writer.Options{Timeline: index, Text: r.opts.Text, Logger: r.opts.Logger})
	if err != nil {
		return err
	}
	if out.Result, err = op.Apply(ed, args); err != nil {
		return err
	}
	edited := ed.Project()

	cs, err := diff.CompareProjects(p, edited, index)
	if err != nil {
		return err
	}
	out.Changes = map[string]int{}
	for k, n := range cs.Count() {
		out.Changes[string(k)] = n
	}

	before, err := Fingerprint(p)
	if err != nil {
		return err
	}
	after, err := Fingerprint(edited)
	if err != nil {
		return err
	}
	canonical := args.Canonical()
	delete(canonical, outputParam.Name)
	delete(canonical, dryRunParam.Name)
	if out.OperationID, err = ir.OperationID(out.Operation, canonical, before); err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot identify operation", Err: err}
	}

	if !dryRun {
		if err := writer.Save(edited, src, dst); err != nil {
			return err
		}
		out.Output = dst
	}
	if r.opts.Journal == nil {
		return nil
	}
	return r.opts.Journal.Record(ctx, Entry{
		Operation:   out.Operation,
		Source:      src,
		Output:      out.Output,
		Args:        canonical,
		Before:      before,
		After:       after,
		OperationID: out.OperationID,
		Summary:     out.Summary,
		Changes:     len(cs.Changes),
		At:          r.opts.Clock().UTC(),
	})
}

func (r *Runner) compare(op CompareOperation, p *ir.Project, args Args, out *Outcome) error {
	other, err := args.String(OtherParam)
	if err != nil {
		return err
	}
	q, err := r.load(other)
	if err != nil {
		return err
	}
	out.Result, err = op.Compare(p, q, args)
	return err
}

func (r *Runner) export(op ExportOperation, p *ir.Project, src string, args Args, out *Outcome) error {
	rendered, err := op.Export(p, args)
	if err != nil {
		return err
	}
	dst, err := r.outputPath(src, args, rendered.Ext)
	if err != nil {
		return err
	}
	if err := writer.WriteFile(rendered.Data, src, dst); err != nil {
		return err
	}
	out.Result = rendered.Result
	out.Output = dst
	return nil
}

// outputPath picks the output argument or derives one from src, with ext
// replacing the source extension when given.
func (r *Runner) outputPath(src string, args Args, ext string) (string, error) {
	dst, err := args.String(outputParam.Name)
	if err != nil {
		return "", err
	}
	if dst == "" {
		dst = writer.OutputPath(src, r.opts.Suffix)
		if ext != "" {
			dst = strings.TrimSuffix(dst, filepath.Ext(dst)) + ext
		}
	}
	if r.opts.CheckOutput != nil {
		if err := r.opts.CheckOutput(dst); err != nil {
			return "", err
		}
	}
	return dst, nil
}

// Fingerprint hashes the serialized form of p. Journal entries name
// documents by it.
func Fingerprint(p *ir.Project) (string, error) {
	data, err := writer.Marshal(p)
	if err != nil {
		return "", &ir.Error{Kind: ir.KindInternal, Message: "cannot serialize document", Err: err}
	}
	return ir.Fingerprint(ir.DomainDocument, data), nil
}
