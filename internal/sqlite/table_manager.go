// This file implements TableManager, the engine every entity table
// delegates to: DDL emission on first use, schema resolution against the
// file, and one lazily prepared statement per verb.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// verb indexes the prepared statement slots of a TableManager.
type verb int

const (
	verbInsert verb = iota
	verbGet
	verbGetBounded
	verbGetPage
	verbUpdate
	verbDelete
	verbCount
	verbCountByKey
	numVerbs
)

var verbNames = [numVerbs]string{"insert", "get", "get-bounded", "get-page", "update", "delete", "count", "count-by-key"}

func (v verb) String() string { return verbNames[v] }

// TableManager owns one table of the file.
type TableManager struct {
	db       *Database
	spec     TableSpec
	declared tableSchema
	resolved tableSchema
	missing  []string
	stmts    [numVerbs]*sql.Stmt
}

// newTableManager validates spec, creates the table when the file lacks
// it, and otherwise resolves the declaration against the columns present.
func newTableManager(db *Database, spec TableSpec) (*TableManager, error) {
	declared, err := declareSchema(spec)
	if err != nil {
		return nil, err
	}
	tm := &TableManager{db: db, spec: spec, declared: declared, resolved: declared}

	exists, err := db.TableExists(spec.Name)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := tm.create(); err != nil {
			return nil, err
		}
		return tm, nil
	}

	cols, err := db.TableColumns(spec.Name)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(cols))
	for _, c := range cols {
		present[strings.ToLower(c)] = true
	}
	resolved, missing, err := declared.resolve(present)
	if err != nil {
		return nil, err
	}
	tm.resolved, tm.missing = resolved, missing
	if len(missing) > 0 {
		db.logger.Warn("table is missing tolerated columns; writes disabled",
			"table", spec.Name, "missing", missing)
	}
	return tm, nil
}

// NewTable declares an ad-hoc table on d. It is not part of the registry:
// the caller owns the manager and closes it.
func NewTable(d *Database, spec TableSpec) (*TableManager, error) {
	if d.closed {
		return nil, types.ErrClosed
	}
	return newTableManager(d, spec)
}

// create emits the DDL for the declared schema and registers geometry
// columns with the GeoPackage catalog. Everything runs under one savepoint:
// a table whose catalog rows could not be written is rolled back, so the
// next construction retries creation instead of adopting it.
func (tm *TableManager) create() error {
	reg, err := tm.geometryRegistrar()
	if err != nil {
		return err
	}
	if _, err := tm.db.Exec("SAVEPOINT " + createSavepoint); err != nil {
		return fmt.Errorf("creating table %s: %w", tm.spec.Name, err)
	}
	if err := tm.emit(reg); err != nil {
		if _, rbErr := tm.db.Exec("ROLLBACK TO " + createSavepoint); rbErr != nil {
			tm.db.logger.Warn("rolling back table creation", "table", tm.spec.Name, "error", rbErr)
		}
		if _, relErr := tm.db.Exec("RELEASE " + createSavepoint); relErr != nil {
			tm.db.logger.Warn("releasing savepoint", "table", tm.spec.Name, "error", relErr)
		}
		return err
	}
	if _, err := tm.db.Exec("RELEASE " + createSavepoint); err != nil {
		return fmt.Errorf("creating table %s: %w", tm.spec.Name, err)
	}
	tm.db.logger.Info("created table", "table", tm.spec.Name)
	return nil
}

const createSavepoint = "create_table"

func (tm *TableManager) emit(reg *geometryRegistrar) error {
	ddl := tm.declared.createTableSQL(tm.spec.Constraints)
	tm.db.logger.Debug("creating table", "table", tm.spec.Name, "ddl", ddl)
	if _, err := tm.db.Exec(ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", tm.spec.Name, err)
	}
	for _, trg := range tm.spec.Triggers {
		if _, err := tm.db.Exec(trg); err != nil {
			return fmt.Errorf("creating trigger on %s: %w", tm.spec.Name, err)
		}
	}
	if err := tm.CreateIndices(); err != nil {
		return err
	}
	if reg == nil {
		return nil
	}
	return reg.register(tm.spec.Name, tm.declared.geometryColumns())
}

// geometryRegistrar holds what registering geometry columns needs. It is
// resolved before any DDL runs so a missing SRID leaves the file untouched.
type geometryRegistrar struct {
	srsID    int32
	contents *ContentsTable
	columns  *GeometryColumnsTable
}

func (tm *TableManager) geometryRegistrar() (*geometryRegistrar, error) {
	if len(tm.declared.geometryColumns()) == 0 {
		return nil, nil
	}
	srid, err := tm.db.SRID()
	if err != nil {
		return nil, fmt.Errorf("registering geometry of %s: %w", tm.spec.Name, err)
	}
	contents, err := tm.db.Contents()
	if err != nil {
		return nil, err
	}
	gc, err := tm.db.GeometryColumns()
	if err != nil {
		return nil, err
	}
	return &geometryRegistrar{srsID: int32(srid), contents: contents, columns: gc}, nil
}

func (g *geometryRegistrar) register(table string, geoms []column) error {
	srsID := g.srsID
	if err := g.contents.Add(&types.Contents{
		TableName:   table,
		DataType:    types.DataTypeFeatures,
		Identifier:  table,
		Description: table,
		LastChange:  time.Now().UTC(),
		SRSID:       &srsID,
	}); err != nil {
		return fmt.Errorf("registering %s in %s: %w", table, types.ContentsTable, err)
	}
	for _, c := range geoms {
		if err := g.columns.Add(&types.GeometryColumn{
			TableName:        table,
			ColumnName:       c.Name,
			GeometryTypeName: strings.ToUpper(string(c.storage)),
			SRSID:            srsID,
			Z:                2,
			M:                2,
		}); err != nil {
			return fmt.Errorf("registering geometry column %s.%s: %w", table, c.Name, err)
		}
	}
	return nil
}

// CreateIndices creates the declared indices that do not exist yet.
func (tm *TableManager) CreateIndices() error {
	for _, idx := range tm.spec.Indices {
		if _, err := tm.db.Exec(idx); err != nil {
			return fmt.Errorf("creating index on %s: %w", tm.spec.Name, err)
		}
	}
	return nil
}

func (tm *TableManager) base() *TableManager { return tm }

// TableName returns the name of the managed table.
func (tm *TableManager) TableName() string { return tm.spec.Name }

// Columns returns the resolved column names in declaration order.
func (tm *TableManager) Columns() []string { return tm.resolved.columnNames() }

// PrimaryKey returns the resolved key column names.
func (tm *TableManager) PrimaryKey() []string { return append([]string(nil), tm.resolved.key...) }

// MissingColumns returns the tolerated columns absent from the file.
func (tm *TableManager) MissingColumns() []string { return append([]string(nil), tm.missing...) }

func (tm *TableManager) sqlFor(v verb) string {
	switch v {
	case verbInsert:
		return tm.resolved.insertSQL()
	case verbGet:
		return tm.resolved.getSQL()
	case verbGetBounded:
		return tm.resolved.boundedSQL()
	case verbGetPage:
		return tm.resolved.pageSQL()
	case verbUpdate:
		return tm.resolved.updateSQL()
	case verbDelete:
		return tm.resolved.deleteSQL()
	case verbCount:
		return tm.resolved.countSQL()
	default:
		return tm.resolved.countByKeySQL()
	}
}

// stmt returns the prepared statement for v, preparing it on first use.
func (tm *TableManager) stmt(v verb) (*sql.Stmt, error) {
	if s := tm.stmts[v]; s != nil {
		return s, nil
	}
	conn, err := tm.db.connection()
	if err != nil {
		return nil, err
	}
	q := tm.sqlFor(v)
	s, err := conn.PrepareContext(context.Background(), q)
	if err != nil {
		return nil, fmt.Errorf("preparing %s on %s: %w", v, tm.spec.Name, err)
	}
	tm.db.logger.Debug("prepared statement", "table", tm.spec.Name, "verb", v.String(), "sql", q)
	tm.stmts[v] = s
	return s, nil
}

// writable refuses mutations on a table whose tolerated columns are
// missing from the file.
func (tm *TableManager) writable() error {
	if len(tm.missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s lacks %s", types.ErrMissingColumns, tm.spec.Name, strings.Join(tm.missing, ", "))
}

func (tm *TableManager) keyed() error {
	if len(tm.resolved.key) == 0 {
		return fmt.Errorf("%w: %s", types.ErrNoPrimaryKey, tm.spec.Name)
	}
	return nil
}

// keyArgs checks key against the declared key and projects it onto the
// resolved key.
func (tm *TableManager) keyArgs(key []any) ([]any, error) {
	if len(key) != len(tm.declared.key) {
		return nil, fmt.Errorf("%w: %s key takes %d values, got %d", types.ErrArity, tm.spec.Name, len(tm.declared.key), len(key))
	}
	args := make([]any, 0, len(tm.resolved.key))
	for i, k := range tm.declared.key {
		if tm.resolved.isKey(k) {
			args = append(args, bindValue(key[i]))
		}
	}
	return args, nil
}

func (tm *TableManager) rowArgs(values []any) ([]any, error) {
	if len(values) != len(tm.resolved.columns) {
		return nil, fmt.Errorf("%w: %s has %d columns, got %d values", types.ErrArity, tm.spec.Name, len(tm.resolved.columns), len(values))
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = bindValue(v)
	}
	return args, nil
}

// Add inserts one row. values follow column declaration order; nil is
// stored as NULL.
func (tm *TableManager) Add(values ...any) error {
	if err := tm.writable(); err != nil {
		return err
	}
	args, err := tm.rowArgs(values)
	if err != nil {
		return err
	}
	s, err := tm.stmt(verbInsert)
	if err != nil {
		return err
	}
	if _, err := s.Exec(args...); err != nil {
		return fmt.Errorf("adding row to %s: %w", tm.spec.Name, err)
	}
	return nil
}

// Get reads the row matching key, in declared key order, into read.
// It reports whether a row was found.
func (tm *TableManager) Get(read RowReader, key ...any) (bool, error) {
	if err := tm.keyed(); err != nil {
		return false, err
	}
	args, err := tm.keyArgs(key)
	if err != nil {
		return false, err
	}
	s, err := tm.stmt(verbGet)
	if err != nil {
		return false, err
	}
	n, err := tm.each(s, args, read)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetBounded reads at most limit rows in engine order. A negative limit
// reads every row.
func (tm *TableManager) GetBounded(limit int, read RowReader) error {
	s, err := tm.stmt(verbGetBounded)
	if err != nil {
		return err
	}
	_, err = tm.each(s, []any{int64(limit)}, read)
	return err
}

// GetPage reads limit rows starting at offset in rowid order, so that
// consecutive pages partition the table.
func (tm *TableManager) GetPage(offset, limit int, read RowReader) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative page offset %d", types.ErrArity, offset)
	}
	s, err := tm.stmt(verbGetPage)
	if err != nil {
		return err
	}
	_, err = tm.each(s, []any{int64(limit), int64(offset)}, read)
	return err
}

// Update rewrites the non-key columns of the row matching the key
// columns in values. values follow column declaration order. It returns
// the number of rows changed.
func (tm *TableManager) Update(values ...any) (int64, error) {
	if err := tm.writable(); err != nil {
		return 0, err
	}
	if err := tm.keyed(); err != nil {
		return 0, err
	}
	nonKey := tm.resolved.nonKey()
	if len(nonKey) == 0 {
		return 0, fmt.Errorf("%w: %s", types.ErrNothingToUpdate, tm.spec.Name)
	}
	row, err := tm.rowArgs(values)
	if err != nil {
		return 0, err
	}
	args := make([]any, 0, len(row))
	for _, i := range nonKey {
		args = append(args, row[i])
	}
	for _, i := range tm.resolved.keyPositions() {
		args = append(args, row[i])
	}
	s, err := tm.stmt(verbUpdate)
	if err != nil {
		return 0, err
	}
	res, err := s.Exec(args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", tm.spec.Name, err)
	}
	return res.RowsAffected()
}

// Delete removes the row matching key and returns the number removed.
func (tm *TableManager) Delete(key ...any) (int64, error) {
	if err := tm.writable(); err != nil {
		return 0, err
	}
	if err := tm.keyed(); err != nil {
		return 0, err
	}
	args, err := tm.keyArgs(key)
	if err != nil {
		return 0, err
	}
	s, err := tm.stmt(verbDelete)
	if err != nil {
		return 0, err
	}
	res, err := s.Exec(args...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", tm.spec.Name, err)
	}
	return res.RowsAffected()
}

// Count returns the number of rows in the table.
func (tm *TableManager) Count() (int64, error) {
	s, err := tm.stmt(verbCount)
	if err != nil {
		return 0, err
	}
	return tm.scalar(s, nil)
}

// CountByKey returns the number of rows matching key.
func (tm *TableManager) CountByKey(key ...any) (int64, error) {
	if err := tm.keyed(); err != nil {
		return 0, err
	}
	args, err := tm.keyArgs(key)
	if err != nil {
		return 0, err
	}
	s, err := tm.stmt(verbCountByKey)
	if err != nil {
		return 0, err
	}
	return tm.scalar(s, args)
}

func (tm *TableManager) scalar(s *sql.Stmt, args []any) (int64, error) {
	var n int64
	if err := s.QueryRow(args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", tm.spec.Name, err)
	}
	return n, nil
}

// each runs s and hands every row to read. It returns the row count.
func (tm *TableManager) each(s *sql.Stmt, args []any, read RowReader) (int, error) {
	rows, err := s.Query(args...)
	if err != nil {
		return 0, fmt.Errorf("querying %s: %w", tm.spec.Name, err)
	}
	defer rows.Close()
	n, err := readRows(rows, read)
	if err != nil {
		return n, fmt.Errorf("reading %s: %w", tm.spec.Name, err)
	}
	return n, nil
}

// readRows drains rows into read.
func readRows(rows *sql.Rows, read RowReader) (int, error) {
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	rec := newRecord(cols)
	n := 0
	for rows.Next() {
		if err := rec.scan(rows); err != nil {
			return n, err
		}
		if read != nil {
			if err := read(rec); err != nil {
				return n, err
			}
			if err := rec.Err(); err != nil {
				return n, err
			}
		}
		n++
	}
	return n, rows.Err()
}

// Close releases every prepared statement. Release continues past
// failures; the joined error is informational.
func (tm *TableManager) Close() error {
	var errs []error
	for i, s := range tm.stmts {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		tm.stmts[i] = nil
	}
	return errors.Join(errs...)
}

// bindValue converts a Go value to the form stored in the file: times
// become RFC 3339 text in UTC, booleans become 0/1 and nil pointers NULL.
func bindValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return formatTime(x)
	case *time.Time:
		if x == nil {
			return nil
		}
		return formatTime(*x)
	case bool:
		return boolInt(x)
	case *bool:
		if x == nil {
			return nil
		}
		return boolInt(*x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case *int32:
		if x == nil {
			return nil
		}
		return int64(*x)
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case float32:
		return float64(x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case []byte:
		if x == nil {
			return nil
		}
		return x
	}
	return v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
