package writer

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/spine/internal/ir"
)

// DefaultSuffix is appended to the source stem by OutputPath.
const DefaultSuffix = "_modified"

// OutputPath derives the default output next to src: "<stem><suffix><ext>".
// A bundle (.fcpxmld) is written out as a plain .fcpxml file.
func OutputPath(src, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	src = strings.TrimRight(src, string(filepath.Separator))
	ext := filepath.Ext(src)
	stem := strings.TrimSuffix(src, ext)
	if strings.EqualFold(ext, ".fcpxmld") {
		ext = ".fcpxml"
	}
	return stem + suffix + ext
}

// Save writes p to dst atomically: the document goes to a temporary file in
// the same directory which is then renamed over dst. It refuses to write
// over src, including through a symlink or a bundle's Info.fcpxml.
func Save(p *ir.Project, src, dst string) error {
	return writeAtomic(src, dst, func(w io.Writer) error { return Encode(w, p) })
}

// WriteFile is Save for already rendered bytes, such as an export.
func WriteFile(data []byte, src, dst string) error {
	return writeAtomic(src, dst, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeAtomic(src, dst string, write func(io.Writer) error) error {
	same, err := samePath(src, dst)
	if err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot resolve output path", Err: err}
	}
	if same {
		return ir.Structuralf("refusing to overwrite the source document; choose another output")
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".spine-*.tmp")
	if err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot create output file", Err: err}
	}
	name := tmp.Name()
	defer os.Remove(name)
	defer tmp.Close()

	if err := write(tmp); err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot write output", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot write output", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot write output", Err: err}
	}
	if err := os.Rename(name, dst); err != nil {
		return &ir.Error{Kind: ir.KindInternal, Message: "cannot move output into place", Err: err}
	}
	return nil
}

// samePath reports whether dst would replace src.
func samePath(src, dst string) (bool, error) {
	if src == "" {
		return false, nil
	}
	srcs := []string{src}
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		srcs = append(srcs, filepath.Join(src, "Info.fcpxml"))
	}
	d, err := resolve(dst)
	if err != nil {
		return false, err
	}
	for _, s := range srcs {
		r, err := resolve(s)
		if err != nil {
			return false, err
		}
		if r == d {
			return true, nil
		}
	}
	return false, nil
}

// resolve makes path absolute and follows symlinks as far as the path
// exists.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	r, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	dir, err := resolve(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}
