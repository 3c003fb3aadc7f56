package ops

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/rational"
	"github.com/roach88/spine/internal/writer"
)

// Category groups operations by what they do to documents.
type Category string

const (
	CategoryRead    Category = "read"
	CategoryEdit    Category = "edit"
	CategoryCompare Category = "compare"
	CategoryExport  Category = "export"
)

// ParamType is the value type a parameter takes.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeBool    ParamType = "bool"
	TypeInt     ParamType = "int"
	TypeTime    ParamType = "time"
	TypeTimes   ParamType = "times"
	TypeStrings ParamType = "strings"
	TypePath    ParamType = "path"
)

// Param describes one operation parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Description string    `json:"description"`
	Enum        []string  `json:"enum,omitempty"`
	Default     string    `json:"default,omitempty"`
}

// Info describes an operation.
type Info struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Params      []Param  `json:"params"`
}

// Param looks up a parameter by name.
func (i Info) Param(name string) (Param, bool) {
	for _, p := range i.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Check validates args against the parameter list: every required
// parameter is present, no unknown parameter is given, and each value has
// the declared type and is one of the enum values when there are any.
func (i Info) Check(args Args) error {
	for _, p := range i.Params {
		if p.Required && !args.Has(p.Name) {
			return withOperation(missingArg(p.Name), i.Name)
		}
	}
	for _, name := range args.Names() {
		p, ok := i.Param(name)
		if !ok {
			return withOperation(invalidArg(name, nil, "unknown parameter"), i.Name)
		}
		if err := p.check(args); err != nil {
			return withOperation(err, i.Name)
		}
	}
	return nil
}

func (p Param) check(args Args) error {
	if !args.Has(p.Name) {
		return nil
	}
	var err error
	switch p.Type {
	case TypeString, TypePath:
		var s string
		if s, err = args.String(p.Name); err == nil && len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			err = invalidArg(p.Name, nil, "%q is not one of %v", s, p.Enum)
		}
	case TypeBool:
		_, err = args.Bool(p.Name)
	case TypeInt:
		_, err = args.Int(p.Name)
	case TypeTime, TypeTimes:
		if s, ok := args[p.Name].(string); ok && strings.ContainsAny(s, ":;") {
			// Timecodes need the document rate and are read by the operation.
			return nil
		}
		if p.Type == TypeTime {
			_, _, err = args.Time(p.Name, rational.Rate24)
		} else {
			_, err = args.Times(p.Name, rational.Rate24)
		}
	case TypeStrings:
		_, err = args.Strings(p.Name)
	}
	return err
}

func withOperation(err error, name string) error {
	if e, ok := err.(*Error); ok && e.Operation == "" {
		e.Operation = name
	}
	return err
}

// Result is what an operation reports. Data holds JSON-ready values;
// rational times marshal as their document form.
type Result struct {
	Summary string         `json:"summary"`
	Data    map[string]any `json:"data,omitempty"`
}

// Output is a rendered export.
type Output struct {
	Result
	// Ext is the file extension the data should be saved under.
	Ext  string
	Data []byte
}

// Operation is anything the registry can dispatch.
type Operation interface {
	Info() Info
}

// ReadOperation inspects a document.
type ReadOperation interface {
	Operation
	Run(p *ir.Project, args Args) (Result, error)
}

// EditOperation applies one edit through an editing session.
type EditOperation interface {
	Operation
	Apply(ed *writer.Editor, args Args) (Result, error)
}

// CompareOperation relates two documents.
type CompareOperation interface {
	Operation
	Compare(before, after *ir.Project, args Args) (Result, error)
}

// ExportOperation renders a document in another format.
type ExportOperation interface {
	Operation
	Export(p *ir.Project, args Args) (Output, error)
}

// Options configures a Registry.
type Options struct {
	// CheckPath vets every file an operation opens on its own, such as a cue
	// file. Nil allows any path.
	CheckPath func(path string) error
	// MaxCueBytes caps cue files; zero means 10 MiB.
	MaxCueBytes int64
	Logger      *slog.Logger
}

const defaultMaxCueBytes = 10 << 20

// Registry holds every operation by name. It is built once and read-only
// afterwards, so it may be shared between goroutines.
type Registry struct {
	ops   map[string]Operation
	order []string
	opts  Options
}

// NewRegistry builds the registry of all operations.
func NewRegistry(opts Options) *Registry {
	if opts.MaxCueBytes <= 0 {
		opts.MaxCueBytes = defaultMaxCueBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Registry{ops: map[string]Operation{}, opts: opts}
	for _, op := range readOperations() {
		r.register(op)
	}
	for _, op := range analysisOperations() {
		r.register(op)
	}
	for _, op := range editOperations(r) {
		r.register(op)
	}
	r.register(diffOperation())
	r.register(exportOperation(opts.Logger))
	return r
}

func (r *Registry) register(op Operation) {
	name := op.Info().Name
	if _, dup := r.ops[name]; dup {
		panic(fmt.Sprintf("ops: operation %q registered twice", name))
	}
	r.ops[name] = op
	r.order = append(r.order, name)
}

// Get returns the operation called name.
func (r *Registry) Get(name string) (Operation, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, unknownOperation(name)
	}
	return op, nil
}

// All returns every operation in registration order.
func (r *Registry) All() []Operation {
	out := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name])
	}
	return out
}

// ByCategory returns the operations of one category in registration order.
func (r *Registry) ByCategory(c Category) []Operation {
	var out []Operation
	for _, op := range r.All() {
		if op.Info().Category == c {
			out = append(out, op)
		}
	}
	return out
}

// CheckPath applies the registry's path policy.
func (r *Registry) CheckPath(path string) error {
	if r.opts.CheckPath == nil {
		return nil
	}
	return r.opts.CheckPath(path)
}
