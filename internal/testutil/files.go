package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteDocument writes doc as name in a fresh temporary directory and
// returns its path.
func WriteDocument(t testing.TB, name, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
