package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/spine/internal/ops"
	"github.com/roach88/spine/internal/testutil"
)

// createTestStore opens a store in a temp dir with predictable session ids
// and a stepping clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path, Options{
		IDs:   testutil.NewSequentialIDs("s"),
		Clock: testutil.NewDeterministicClock().Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry creates an edit turning document before into after.
func createTestEntry(opID, source, before, after string) ops.Entry {
	return ops.Entry{
		Operation:   "add_marker",
		Source:      source,
		Output:      source + ".out",
		Args:        map[string]any{"at": "32s", "value": "Note"},
		Before:      before,
		After:       after,
		OperationID: opID,
		Summary:     "marker at 32s",
		Changes:     1,
		At:          testutil.Epoch.Add(time.Minute),
	}
}
