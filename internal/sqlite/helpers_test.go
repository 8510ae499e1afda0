package sqlite

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSession returns a session on a fresh, empty file.
func newSession(t *testing.T, opts ...Option) *Database {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	db := New(filepath.Join(t.TempDir(), "test.gpkg"), opts...)
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() types.DatasetConfig {
	return types.DatasetConfig{
		SRID:              4326,
		DatasetIdentifier: "Test",
		DataSetType:       types.DataSetSnapshot,
	}
}

// newDataset returns a session on a freshly created OpenTNF file.
func newDataset(t *testing.T, cfg types.DatasetConfig, opts ...Option) *Database {
	t.Helper()
	db := newSession(t, opts...)
	require.NoError(t, db.Create(cfg))
	return db
}

// reopen closes db and opens a new session on the same file.
func reopen(t *testing.T, db *Database, opts ...Option) *Database {
	t.Helper()
	require.NoError(t, db.Close())
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	again := New(db.Path(), opts...)
	t.Cleanup(func() { again.Close() })
	require.NoError(t, again.Open(nil))
	return again
}

func ptr[T any](v T) *T { return &v }
