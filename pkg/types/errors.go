package types

import (
	"errors"
	"fmt"
)

// Error categories. Every error the engine produces for a declaration
// problem wraps ErrConfiguration; every error caused by the contents of
// the file not matching what the code expects wraps ErrIntegrity.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrIntegrity     = errors.New("integrity error")
)

// Table declaration errors.
var (
	ErrUnmappedKind     = fmt.Errorf("%w: field kind has no storage type", ErrConfiguration)
	ErrInvalidKeySpec   = fmt.Errorf("%w: invalid primary key", ErrConfiguration)
	ErrNoPrimaryKey     = fmt.Errorf("%w: table has no primary key", ErrConfiguration)
	ErrNothingToUpdate  = fmt.Errorf("%w: table has no non-key columns", ErrConfiguration)
	ErrArity            = fmt.Errorf("%w: wrong number of values", ErrConfiguration)
	ErrInvalidTableSpec = fmt.Errorf("%w: invalid table declaration", ErrConfiguration)
)

// Table content errors.
var (
	ErrMissingColumns = fmt.Errorf("%w: table is missing columns", ErrIntegrity)
	ErrSRIDMissing    = fmt.Errorf("%w: SRID missing", ErrIntegrity)
	ErrMultipleSRIDs  = fmt.Errorf("%w: more than one SRID", ErrIntegrity)
)

// ErrNotFound is returned by keyed lookups that match no row.
var ErrNotFound = errors.New("entity not found")
