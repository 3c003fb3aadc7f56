package mcpserver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/roach88/spine/internal/ir"
)

// DefaultMaxFileBytes caps every file a tool call opens.
const DefaultMaxFileBytes int64 = 100 << 20

// Extension whitelists.
var (
	DocumentExtensions = []string{".fcpxml", ".fcpxmld", ".xml"}
	CueExtensions      = []string{".srt", ".vtt", ".txt", ".md", ".json"}
)

// PathPolicy decides which paths tool calls may touch.
type PathPolicy struct {
	// Roots limits paths to these directories. Empty allows any directory.
	Roots []string
	// MaxBytes caps input files; zero means DefaultMaxFileBytes.
	MaxBytes int64
}

// ValidatePath checks a path under the default policy: a document or cue
// extension, no ".." element, not a symlink and at most 100 MiB. Missing
// files pass; the caller reports those when it opens them.
func ValidatePath(path string) error {
	return PathPolicy{}.CheckInput(path)
}

// CheckInput vets a file that will be read.
func (p PathPolicy) CheckInput(path string) error {
	abs, err := p.check(path, append(slices.Clone(DocumentExtensions), CueExtensions...))
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot stat input", Err: err}
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return ir.Securityf("symlinks are not accepted").WithSubject(filepath.Base(abs))
	}
	if info.IsDir() {
		// A bundle is checked through its document.
		if !strings.EqualFold(filepath.Ext(abs), ".fcpxmld") {
			return ir.Securityf("directories are not accepted").WithSubject(filepath.Base(abs))
		}
		return p.checkSize(filepath.Join(abs, "Info.fcpxml"))
	}
	return p.checkSize(abs)
}

// CheckOutput vets a file that will be written. The file may not exist
// yet; when it does it must not be a symlink.
func (p PathPolicy) CheckOutput(path string) error {
	abs, err := p.check(path, []string{".fcpxml", ".xml"})
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err == nil && info.Mode()&fs.ModeSymlink != 0 {
		return ir.Securityf("refusing to write through a symlink").WithSubject(filepath.Base(abs))
	}
	return nil
}

func (p PathPolicy) check(path string, exts []string) (string, error) {
	if path == "" {
		return "", ir.Securityf("empty path")
	}
	if strings.ContainsRune(path, 0) {
		return "", ir.Securityf("path contains a NUL byte")
	}
	for _, elem := range strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' }) {
		if elem == ".." {
			return "", ir.Securityf("path traversal is not accepted").WithSubject(filepath.Base(path))
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(exts, ext) {
		return "", ir.Securityf("extension %q is not accepted", ext).WithSubject(filepath.Base(path))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ir.Error{Kind: ir.KindInternal, Message: "cannot resolve path", Err: err}
	}
	if len(p.Roots) > 0 && !p.inRoots(abs) {
		return "", ir.Securityf("path is outside the allowed roots").WithSubject(filepath.Base(abs))
	}
	return abs, nil
}

func (p PathPolicy) inRoots(abs string) bool {
	dir := resolveExisting(filepath.Dir(abs))
	for _, root := range p.Roots {
		r, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(resolveExisting(r), dir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// resolveExisting resolves symlinks in the longest existing prefix of dir.
func resolveExisting(dir string) string {
	rest := ""
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Join(dir, rest)
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}

func (p PathPolicy) checkSize(path string) error {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxFileBytes
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if info.Size() > limit {
		return ir.SizeLimitf("file is %s, above the %s limit",
			humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(limit)))
	}
	return nil
}
