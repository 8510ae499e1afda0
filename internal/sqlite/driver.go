// This file registers the GeoPackage SQL functions with the driver. The
// registration is process-wide and happens once, before the first
// connection is opened.
package sqlite

import (
	"database/sql/driver"
	"fmt"
	"sync"

	sqlitedrv "modernc.org/sqlite"

	"github.com/opentnf/tnfpkg/internal/geom"
)

const driverName = "sqlite"

var (
	driverOnce sync.Once
	driverErr  error
)

// envelopeFunc builds an ST_* accessor returning one envelope bound.
// NULL, empty and unreadable geometries yield NULL.
func envelopeFunc(pick func(geom.Envelope) float64) func(*sqlitedrv.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
		b, ok := args[0].([]byte)
		if !ok {
			return nil, nil
		}
		env, empty, err := geom.EnvelopeOf(b)
		if err != nil || empty {
			return nil, nil
		}
		return pick(env), nil
	}
}

func stIsEmpty(_ *sqlitedrv.FunctionContext, args []driver.Value) (driver.Value, error) {
	b, ok := args[0].([]byte)
	if !ok {
		return nil, nil
	}
	_, empty, err := geom.EnvelopeOf(b)
	if err != nil {
		return nil, nil
	}
	return boolInt(empty), nil
}

// setupDriver registers the geometry functions exactly once per process.
// Later calls return the outcome of the first.
func setupDriver() error {
	driverOnce.Do(func() {
		fns := []struct {
			name string
			fn   func(*sqlitedrv.FunctionContext, []driver.Value) (driver.Value, error)
		}{
			{"ST_MinX", envelopeFunc(func(e geom.Envelope) float64 { return e.MinX })},
			{"ST_MaxX", envelopeFunc(func(e geom.Envelope) float64 { return e.MaxX })},
			{"ST_MinY", envelopeFunc(func(e geom.Envelope) float64 { return e.MinY })},
			{"ST_MaxY", envelopeFunc(func(e geom.Envelope) float64 { return e.MaxY })},
			{"ST_IsEmpty", stIsEmpty},
		}
		for _, f := range fns {
			if err := sqlitedrv.RegisterDeterministicScalarFunction(f.name, 1, f.fn); err != nil {
				driverErr = fmt.Errorf("registering %s: %w", f.name, err)
				return
			}
		}
	})
	return driverErr
}
