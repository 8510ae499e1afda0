// This file implements Record, the row view handed to entity readers.
package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RowReader receives one result row. Readers pull fields by column name;
// conversion failures are collected on the record and reported by the
// engine once the reader returns.
type RowReader func(rec *Record) error

// Record is one result row addressed by case-insensitive column name. A
// column that is absent from the result reads as the zero value, which
// lets readers decode rows of tables whose tolerant columns are missing.
type Record struct {
	index  map[string]int
	values []any
	err    error
}

// timeLayouts are tried in order when a DATETIME column comes back as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02",
}

func newRecord(columns []string) *Record {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[strings.ToLower(c)] = i
	}
	return &Record{index: idx, values: make([]any, len(columns))}
}

// scan loads the current row of rows into the record.
func (r *Record) scan(rows *sql.Rows) error {
	dest := make([]any, len(r.values))
	for i := range r.values {
		r.values[i] = nil
		dest[i] = &r.values[i]
	}
	r.err = nil
	return rows.Scan(dest...)
}

// Err returns the first conversion error seen since the row was loaded.
func (r *Record) Err() error {
	return r.err
}

func (r *Record) fail(name string, v any, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("column %s: cannot read %T as %s", name, v, want)
	}
}

// Has reports whether the row carries the named column.
func (r *Record) Has(name string) bool {
	_, ok := r.index[strings.ToLower(name)]
	return ok
}

// Value returns the raw driver value, or nil for NULL and absent columns.
func (r *Record) Value(name string) any {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return r.values[i]
}

// IsNull reports whether the column is NULL or absent.
func (r *Record) IsNull(name string) bool {
	return r.Value(name) == nil
}

func (r *Record) String(name string) string {
	switch v := r.Value(name).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case bool:
		return strconv.FormatBool(v)
	default:
		r.fail(name, v, "string")
		return ""
	}
}

func (r *Record) Int64Ptr(name string) *int64 {
	switch v := r.Value(name).(type) {
	case nil:
		return nil
	case int64:
		return &v
	case float64:
		// Only whole values inside the int64 range convert.
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			r.fail(name, v, "integer")
			return nil
		}
		n := int64(v)
		return &n
	case bool:
		var n int64
		if v {
			n = 1
		}
		return &n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			r.fail(name, v, "integer")
			return nil
		}
		return &n
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			r.fail(name, v, "integer")
			return nil
		}
		return &n
	default:
		r.fail(name, v, "integer")
		return nil
	}
}

func (r *Record) Int64(name string) int64 {
	if p := r.Int64Ptr(name); p != nil {
		return *p
	}
	return 0
}

func (r *Record) Int32Ptr(name string) *int32 {
	p := r.Int64Ptr(name)
	if p == nil {
		return nil
	}
	if *p < math.MinInt32 || *p > math.MaxInt32 {
		r.fail(name, *p, "int32")
		return nil
	}
	n := int32(*p)
	return &n
}

func (r *Record) Int32(name string) int32 {
	if p := r.Int32Ptr(name); p != nil {
		return *p
	}
	return 0
}

func (r *Record) Float64Ptr(name string) *float64 {
	switch v := r.Value(name).(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			r.fail(name, v, "real")
			return nil
		}
		return &f
	default:
		r.fail(name, v, "real")
		return nil
	}
}

func (r *Record) Float64(name string) float64 {
	if p := r.Float64Ptr(name); p != nil {
		return *p
	}
	return 0
}

func (r *Record) BoolPtr(name string) *bool {
	if b, ok := r.Value(name).(bool); ok {
		return &b
	}
	p := r.Int64Ptr(name)
	if p == nil {
		return nil
	}
	b := *p != 0
	return &b
}

func (r *Record) Bool(name string) bool {
	p := r.BoolPtr(name)
	return p != nil && *p
}

// TimePtr decodes a DATETIME column. Values are returned in UTC.
func (r *Record) TimePtr(name string) *time.Time {
	var s string
	switch v := r.Value(name).(type) {
	case nil:
		return nil
	case time.Time:
		t := v.UTC()
		return &t
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		r.fail(name, v, "datetime")
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	r.fail(name, s, "datetime")
	return nil
}

func (r *Record) Time(name string) time.Time {
	if p := r.TimePtr(name); p != nil {
		return *p
	}
	return time.Time{}
}

func (r *Record) Bytes(name string) []byte {
	switch v := r.Value(name).(type) {
	case nil:
		return nil
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		r.fail(name, v, "blob")
		return nil
	}
}
