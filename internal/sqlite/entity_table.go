package sqlite

import (
	"fmt"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// EntityTable maps a TableManager onto the entity struct T. values flattens
// an entity into column order; read builds one from a row.
type EntityTable[T any] struct {
	*TableManager
	values func(*T) []any
	read   func(*Record) *T
}

func newEntityTable[T any](d *Database, spec TableSpec, values func(*T) []any, read func(*Record) *T) (*EntityTable[T], error) {
	tm, err := newTableManager(d, spec)
	if err != nil {
		return nil, err
	}
	return &EntityTable[T]{TableManager: tm, values: values, read: read}, nil
}

// Add inserts e.
func (t *EntityTable[T]) Add(e *T) error {
	return t.TableManager.Add(t.values(e)...)
}

// Update rewrites the row whose key matches e and returns the number of
// rows changed.
func (t *EntityTable[T]) Update(e *T) (int64, error) {
	return t.TableManager.Update(t.values(e)...)
}

// Get returns the row matching key, given in key column order.
func (t *EntityTable[T]) Get(key ...any) (*T, error) {
	var out *T
	found, err := t.TableManager.Get(func(rec *Record) error {
		out = t.read(rec)
		return nil
	}, key...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s %v: %w", t.TableName(), key, types.ErrNotFound)
	}
	return out, nil
}

// GetBounded returns at most limit rows; a negative limit returns all.
func (t *EntityTable[T]) GetBounded(limit int) ([]*T, error) {
	var out []*T
	err := t.TableManager.GetBounded(limit, t.collect(&out))
	return out, err
}

// GetPage returns limit rows starting at offset in insertion order.
func (t *EntityTable[T]) GetPage(offset, limit int) ([]*T, error) {
	var out []*T
	err := t.TableManager.GetPage(offset, limit, t.collect(&out))
	return out, err
}

// All returns every row.
func (t *EntityTable[T]) All() ([]*T, error) {
	return t.GetBounded(-1)
}

// selectWhere returns the rows matching the SQL tail (a WHERE clause with
// an optional ORDER BY).
func (t *EntityTable[T]) selectWhere(tail string, args ...any) ([]*T, error) {
	var out []*T
	q := "SELECT " + t.resolved.selectList() + " FROM " + quoteIdent(t.TableName()) + " " + tail
	if err := t.db.Query(q, t.collect(&out), args...); err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.TableName(), err)
	}
	return out, nil
}

// deleteWhere removes the rows matching cond.
func (t *EntityTable[T]) deleteWhere(cond string, args ...any) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	res, err := t.db.Exec("DELETE FROM "+quoteIdent(t.TableName())+" WHERE "+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", t.TableName(), err)
	}
	return res.RowsAffected()
}

// nextOID returns one past the largest numeric oid in a catalogue.
func (t *EntityTable[T]) nextOID(catalogueOID string) (int64, error) {
	v, err := t.db.QueryScalar("SELECT COALESCE(MAX(CAST(oid AS INTEGER)), 0) + 1 FROM "+
		quoteIdent(t.TableName())+" WHERE catalogue_oid = ?", catalogueOID)
	if err != nil {
		return 0, fmt.Errorf("reading next oid of %s: %w", t.TableName(), err)
	}
	n, _ := v.(int64)
	return n, nil
}

func (t *EntityTable[T]) collect(out *[]*T) RowReader {
	return func(rec *Record) error {
		*out = append(*out, t.read(rec))
		return nil
	}
}

// text stores an empty string as NULL for nullable text columns.
func text(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// blob stores an empty slice as NULL.
func blob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
