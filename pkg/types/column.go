package types

import (
	"fmt"
	"strings"
)

// FieldKind is the semantic type of an entity field.
type FieldKind int

// Field kinds understood by the engine. The zero value is deliberately
// unmapped so an undeclared kind fails table construction.
const (
	KindUnknown FieldKind = iota
	KindString
	KindInt16
	KindInt32
	KindInt64
	KindFloat64
	KindDecimal
	KindTime
	KindBool
	KindBytes
)

var kindNames = map[FieldKind]string{
	KindUnknown: "unknown",
	KindString:  "string",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindFloat64: "float64",
	KindDecimal: "decimal",
	KindTime:    "time",
	KindBool:    "bool",
	KindBytes:   "bytes",
}

func (k FieldKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

// StorageType is the column type written into the DDL.
type StorageType string

// Scalar storage types.
const (
	StorageText     StorageType = "TEXT"
	StorageInteger  StorageType = "INTEGER"
	StorageReal     StorageType = "DOUBLE"
	StorageDateTime StorageType = "DATETIME"
	StorageBlob     StorageType = "BLOB"
)

// Two-dimensional geometry storage types. Columns of these types hold
// GeoPackage geometry blobs and are registered in gpkg_geometry_columns.
const (
	StorageGeometry        StorageType = "GEOMETRY"
	StoragePoint           StorageType = "POINT"
	StorageLineString      StorageType = "LINESTRING"
	StoragePolygon         StorageType = "POLYGON"
	StorageMultiPoint      StorageType = "MULTIPOINT"
	StorageMultiLineString StorageType = "MULTILINESTRING"
	StorageMultiPolygon    StorageType = "MULTIPOLYGON"
)

var geometryTypes = map[StorageType]bool{
	StorageGeometry:        true,
	StoragePoint:           true,
	StorageLineString:      true,
	StoragePolygon:         true,
	StorageMultiPoint:      true,
	StorageMultiLineString: true,
	StorageMultiPolygon:    true,
}

// IsGeometry reports whether s denotes a 2-D geometry column.
func (s StorageType) IsGeometry() bool {
	return geometryTypes[StorageType(strings.ToUpper(string(s)))]
}

// StorageFor returns the storage type a field kind maps to. Int16, Int32,
// Int64 and Bool share INTEGER; Float64 and Decimal share DOUBLE.
func StorageFor(k FieldKind) (StorageType, error) {
	switch k {
	case KindString:
		return StorageText, nil
	case KindInt16, KindInt32, KindInt64, KindBool:
		return StorageInteger, nil
	case KindFloat64, KindDecimal:
		return StorageReal, nil
	case KindTime:
		return StorageDateTime, nil
	case KindBytes:
		return StorageBlob, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnmappedKind, k)
}

// ColumnDescriptor declares one column of a table.
type ColumnDescriptor struct {
	Name string
	Kind FieldKind

	// Storage overrides the type derived from Kind. Geometry columns set
	// it to one of the geometry storage types.
	Storage StorageType

	// Constraint is appended after the storage type, e.g. "NOT NULL".
	Constraint string

	// ToleratesAbsence marks a column that may be missing from files
	// written by older producers. Reads fall back to the zero value and
	// writes to the table are refused.
	ToleratesAbsence bool
}

// StorageType resolves the column's storage type.
func (c ColumnDescriptor) StorageType() (StorageType, error) {
	if c.Storage != "" {
		return c.Storage, nil
	}
	st, err := StorageFor(c.Kind)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", c.Name, err)
	}
	return st, nil
}

// Col is shorthand for a column without constraints.
func Col(name string, kind FieldKind) ColumnDescriptor {
	return ColumnDescriptor{Name: name, Kind: kind}
}

// NotNull is shorthand for a NOT NULL column.
func NotNull(name string, kind FieldKind) ColumnDescriptor {
	return ColumnDescriptor{Name: name, Kind: kind, Constraint: "NOT NULL"}
}

// Geometry is shorthand for a geometry column of the given storage type.
func Geometry(name string, st StorageType) ColumnDescriptor {
	return ColumnDescriptor{Name: name, Kind: KindBytes, Storage: st}
}

// Tolerant returns c marked as tolerating absence.
func (c ColumnDescriptor) Tolerant() ColumnDescriptor {
	c.ToleratesAbsence = true
	return c
}
