package storetest

import (
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/squareup/colload/store"
	"github.com/stretchr/testify/require"
)

// Test utils
// These live in their own package so tests of other packages can open a store too.

// OpenMemStore opens a store on an in-memory filesystem and closes it when the test ends.
func OpenMemStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenWithFS("colload", vfs.NewMem(), false)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

// MustExec executes each statement, failing the test on error.
func MustExec(t *testing.T, s *store.Store, statements ...string) {
	t.Helper()
	for _, sql := range statements {
		require.NoError(t, s.Exec(sql), sql)
	}
}

// RequireRows checks the full contents of a table.
func RequireRows(t *testing.T, s *store.Store, tableName string, expected [][]interface{}) {
	t.Helper()
	rows, err := s.Scan("", tableName, -1)
	require.NoError(t, err)
	if len(expected) == 0 {
		require.Empty(t, rows)
		return
	}
	require.Equal(t, expected, rows)
}
