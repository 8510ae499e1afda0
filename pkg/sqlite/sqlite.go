// Package sqlite is the public entry point to the OpenTNF GeoPackage
// engine. It re-exports the session type and its options while keeping the
// implementation internal.
//
// Example:
//
//	db := sqlite.New("roads.gpkg")
//	defer db.Close()
//	err := db.Create(types.DatasetConfig{
//	    SRID:              4326,
//	    DatasetIdentifier: "Test",
//	    DataSetType:       types.DataSetSnapshot,
//	})
package sqlite

import (
	"github.com/opentnf/tnfpkg/internal/sqlite"
	"github.com/opentnf/tnfpkg/pkg/types"
)

type (
	// Database is a session over one GeoPackage file.
	Database = sqlite.Database
	// Option configures a Database.
	Option = sqlite.Option
	// TableManager owns the DDL and prepared statements of one table.
	TableManager = sqlite.TableManager
	// TableSpec declares a table.
	TableSpec = sqlite.TableSpec
	// Record is one row handed to a RowReader.
	Record = sqlite.Record
	// RowReader receives rows from the read operations.
	RowReader = sqlite.RowReader
)

// New returns a session for the file at path. Nothing is opened until the
// first operation that needs the connection.
func New(path string, opts ...Option) *Database {
	return sqlite.New(path, opts...)
}

// NewTable declares a custom table on db and creates it when missing.
func NewTable(db *Database, spec TableSpec) (*TableManager, error) {
	return sqlite.NewTable(db, spec)
}

var (
	WithLogger        = sqlite.WithLogger
	WithTemplate      = sqlite.WithTemplate
	WithTopologyLevel = sqlite.WithTopologyLevel
)

// ValidateFile checks that path looks like a GeoPackage container.
func ValidateFile(path string) (types.ValidationResult, error) {
	return sqlite.ValidateFile(path)
}
