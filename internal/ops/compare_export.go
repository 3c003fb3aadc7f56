package ops

import (
	"fmt"
	"log/slog"

	"github.com/roach88/spine/internal/diff"
	"github.com/roach88/spine/internal/export"
	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/writer"
)

// OtherParam names the second document of a compare operation. The Runner
// opens it.
const OtherParam = "other"

type compareOp struct{ info Info }

func diffOperation() Operation {
	return &compareOp{info: Info{
		Name: "diff_timelines", Category: CategoryCompare,
		Description: "List the clip, marker, transition and format changes between two documents",
		Params: []Param{
			{Name: OtherParam, Type: TypePath, Required: true, Description: "The document to compare against"},
			timelineParam,
		},
	}}
}

func (o *compareOp) Info() Info { return o.info }

func (o *compareOp) Compare(before, after *ir.Project, args Args) (Result, error) {
	index, err := args.Int(timelineParam.Name)
	if err != nil {
		return Result{}, err
	}
	cs, err := diff.CompareProjects(before, after, index)
	if err != nil {
		return Result{}, err
	}
	fp, err := cs.Fingerprint()
	if err != nil {
		return Result{}, &ir.Error{Kind: ir.KindInternal, Message: "cannot fingerprint change set", Err: err}
	}
	counts := map[string]int{}
	for k, n := range cs.Count() {
		counts[string(k)] = n
	}
	summary := "no changes"
	if !cs.Empty() {
		summary = fmt.Sprintf("%d changes", len(cs.Changes))
	}
	return Result{
		Summary: summary,
		Data: map[string]any{
			"before":      cs.Before,
			"after":       cs.After,
			"changes":     cs.Changes,
			"counts":      counts,
			"fingerprint": fp,
		},
	}, nil
}

// Export formats.
const (
	FormatFCPXML = "fcpxml"
	FormatXMEML  = "xmeml"
)

type exportOp struct {
	info   Info
	logger *slog.Logger
}

func exportOperation(logger *slog.Logger) Operation {
	return &exportOp{logger: logger, info: Info{
		Name: "export_timeline", Category: CategoryExport,
		Description: "Write a simplified FCPXML 1.9 document or an XMEML v5 sequence for other editors",
		Params: []Param{
			{Name: "format", Type: TypeString, Enum: []string{FormatFCPXML, FormatXMEML}, Default: FormatFCPXML,
				Description: "Target format"},
			{Name: "version", Type: TypeString, Default: export.DefaultVersion, Description: "FCPXML version to declare"},
			{Name: "strip_attrs", Type: TypeStrings, Description: "Attributes to remove; defaults to those older versions reject"},
			{Name: "keep_compounds", Type: TypeBool, Description: "Keep compound clips instead of flattening them"},
			timelineParam,
			outputParam,
		},
	}}
}

func (o *exportOp) Info() Info { return o.info }

func (o *exportOp) Export(p *ir.Project, args Args) (Output, error) {
	format, err := args.String("format")
	if err != nil {
		return Output{}, err
	}
	opts := export.SimplifyOptions{Logger: o.logger}
	if opts.Version, err = args.String("version"); err != nil {
		return Output{}, err
	}
	if args.Has("strip_attrs") {
		if opts.StripAttrs, err = args.Strings("strip_attrs"); err != nil {
			return Output{}, err
		}
		if opts.StripAttrs == nil {
			opts.StripAttrs = []string{}
		}
	}
	if opts.KeepCompounds, err = args.Bool("keep_compounds"); err != nil {
		return Output{}, err
	}
	index, err := args.Int(timelineParam.Name)
	if err != nil {
		return Output{}, err
	}

	simple, err := export.Simplify(p, opts)
	if err != nil {
		return Output{}, err
	}
	switch format {
	case "", FormatFCPXML:
		data, err := writer.Marshal(simple)
		if err != nil {
			return Output{}, &ir.Error{Kind: ir.KindInternal, Message: "cannot serialize document", Err: err}
		}
		return Output{
			Result: Result{
				Summary: fmt.Sprintf("simplified FCPXML %s", simple.Version),
				Data:    map[string]any{"format": FormatFCPXML, "version": simple.Version},
			},
			Ext:  ".fcpxml",
			Data: data,
		}, nil
	case FormatXMEML:
		tl, err := simple.Timeline(index)
		if err != nil {
			return Output{}, err
		}
		seq, err := export.Tracks(tl)
		if err != nil {
			return Output{}, err
		}
		data, err := export.MarshalXMEML(seq)
		if err != nil {
			return Output{}, err
		}
		return Output{
			Result: Result{
				Summary: fmt.Sprintf("XMEML v%s sequence %s with %d tracks", export.XMEMLVersion, seq.Name, len(seq.Tracks)),
				Data:    map[string]any{"format": FormatXMEML, "sequence": seq.Name, "tracks": len(seq.Tracks)},
			},
			Ext:  ".xml",
			Data: data,
		}, nil
	}
	return Output{}, invalidArg("format", nil, "unknown export format %q", format)
}
