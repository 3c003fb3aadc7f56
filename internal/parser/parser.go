package parser

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roach88/spine/internal/ir"
	"github.com/roach88/spine/internal/xmltree"
)

// BundleInfo is the document inside an .fcpxmld bundle directory.
const BundleInfo = "Info.fcpxml"

// Options configures a Parser. Zero values select xmltree.DefaultLimits and
// slog.Default().
type Options struct {
	Limits xmltree.Limits
	Logger *slog.Logger
}

// Parser reads FCPXML documents. It holds no per-document state and may be
// shared between goroutines.
type Parser struct {
	limits xmltree.Limits
	logger *slog.Logger
}

// New returns a parser.
func New(opts Options) *Parser {
	lim := opts.Limits
	def := xmltree.DefaultLimits()
	if lim.MaxBytes <= 0 {
		lim.MaxBytes = def.MaxBytes
	}
	if lim.MaxDepth <= 0 {
		lim.MaxDepth = def.MaxDepth
	}
	if lim.MaxEntityBytes <= 0 {
		lim.MaxEntityBytes = def.MaxEntityBytes
	}
	if lim.ExpansionRatio <= 0 {
		lim.ExpansionRatio = def.ExpansionRatio
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{limits: lim, logger: logger}
}

// Limits returns the effective limits.
func (p *Parser) Limits() xmltree.Limits { return p.limits }

// ParseBytes parses an in-memory document.
func (p *Parser) ParseBytes(data []byte) (*ir.Project, error) {
	root, err := xmltree.Parse(data, p.limits)
	if err != nil {
		return nil, ir.Wrap(err, "")
	}
	return p.build(root)
}

// ParseReader parses a document from r, reading at most the size ceiling
// plus one byte.
func (p *Parser) ParseReader(r io.Reader) (*ir.Project, error) {
	root, err := xmltree.ParseReader(r, p.limits)
	if err != nil {
		return nil, ir.Wrap(err, "")
	}
	return p.build(root)
}

// ParseFile parses the document at path. An .fcpxmld bundle directory is
// read through its Info.fcpxml. The file size is checked before it is
// opened. Errors never include the path.
func (p *Parser) ParseFile(path string) (*ir.Project, error) {
	path = DocumentPath(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ir.Error{Kind: ir.KindInternal, Message: "cannot read document", Err: err}
	}
	if info.IsDir() {
		return nil, ir.Formatf("document is a directory, not an FCPXML file")
	}
	if info.Size() > p.limits.MaxBytes {
		return nil, ir.SizeLimitf("document is %s, above the %s limit",
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(p.limits.MaxBytes)))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ir.Error{Kind: ir.KindInternal, Message: "cannot open document", Err: err}
	}
	defer f.Close()

	return p.ParseReader(f)
}

// DocumentPath resolves an .fcpxmld bundle to its Info.fcpxml.
func DocumentPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".fcpxmld") {
		return filepath.Join(path, BundleInfo)
	}
	return path
}

// ParseBytes parses data with default options.
func ParseBytes(data []byte) (*ir.Project, error) {
	return New(Options{}).ParseBytes(data)
}

// ParseFile parses the file at path with default options.
func ParseFile(path string) (*ir.Project, error) {
	return New(Options{}).ParseFile(path)
}

func (p *Parser) build(root *xmltree.Node) (*ir.Project, error) {
	if root.Name != "fcpxml" {
		return nil, ir.Formatf("root element is <%s>, expected <fcpxml>", root.Name)
	}

	b := &builder{logger: p.logger}
	proj, err := b.project(root)
	if err != nil {
		return nil, err
	}

	if err := proj.Validate(); err != nil {
		return nil, err
	}
	clips := 0
	for _, tl := range append(proj.CompoundTimelines(), proj.AllTimelines()...) {
		clips += tl.Reindex().Len()
	}

	p.logger.Debug("parsed document",
		"version", proj.Version,
		"resources", proj.Resources.Len(),
		"timelines", len(proj.AllTimelines()),
		"items", clips)
	return proj, nil
}
