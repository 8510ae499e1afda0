// This file compiles table declarations into DDL and per-verb SQL, and
// resolves a declaration against the columns physically present in a file.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// TableSpec declares one table: its columns, its primary key and the
// extra DDL that accompanies creation.
type TableSpec struct {
	Name    string
	Columns []types.ColumnDescriptor

	// PrimaryKey is a comma-separated list of column names in declaration
	// order. Empty declares a keyless table.
	PrimaryKey string

	// Constraints are table constraints rendered inside CREATE TABLE.
	Constraints []string

	// Triggers and Indices are complete statements executed after the
	// table has been created.
	Triggers []string
	Indices  []string
}

// column is a declared column with its storage type resolved.
type column struct {
	types.ColumnDescriptor
	storage types.StorageType
}

// tableSchema is an immutable view of a table's columns and key. Every
// manager holds two: the declared schema and the schema resolved against
// the file.
type tableSchema struct {
	name    string
	columns []column
	key     []string
}

// declareSchema validates spec and builds its declared schema.
func declareSchema(spec TableSpec) (tableSchema, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return tableSchema{}, fmt.Errorf("%w: empty table name", types.ErrInvalidTableSpec)
	}
	if len(spec.Columns) == 0 {
		return tableSchema{}, fmt.Errorf("%w: %s declares no columns", types.ErrInvalidTableSpec, spec.Name)
	}

	s := tableSchema{name: spec.Name}
	pos := make(map[string]int, len(spec.Columns))
	for i, c := range spec.Columns {
		lower := strings.ToLower(c.Name)
		if c.Name == "" {
			return tableSchema{}, fmt.Errorf("%w: %s has an unnamed column", types.ErrInvalidTableSpec, spec.Name)
		}
		if _, dup := pos[lower]; dup {
			return tableSchema{}, fmt.Errorf("%w: %s declares %s twice", types.ErrInvalidTableSpec, spec.Name, c.Name)
		}
		st, err := c.StorageType()
		if err != nil {
			return tableSchema{}, fmt.Errorf("table %s: %w", spec.Name, err)
		}
		pos[lower] = i
		s.columns = append(s.columns, column{ColumnDescriptor: c, storage: st})
	}

	last := -1
	for _, k := range strings.Split(spec.PrimaryKey, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		i, ok := pos[strings.ToLower(k)]
		if !ok {
			return tableSchema{}, fmt.Errorf("%w: %s has no column %q", types.ErrInvalidKeySpec, spec.Name, k)
		}
		if i <= last {
			return tableSchema{}, fmt.Errorf("%w: %s key %q out of declaration order", types.ErrInvalidKeySpec, spec.Name, k)
		}
		last = i
		s.key = append(s.key, spec.Columns[i].Name)
	}
	return s, nil
}

func (s tableSchema) isKey(name string) bool {
	for _, k := range s.key {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func (s tableSchema) columnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// nonKey returns the positions of the columns outside the key.
func (s tableSchema) nonKey() []int {
	var idx []int
	for i, c := range s.columns {
		if !s.isKey(c.Name) {
			idx = append(idx, i)
		}
	}
	return idx
}

// keyPositions returns the positions of the key columns.
func (s tableSchema) keyPositions() []int {
	var idx []int
	for i, c := range s.columns {
		if s.isKey(c.Name) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (s tableSchema) geometryColumns() []column {
	var out []column
	for _, c := range s.columns {
		if c.storage.IsGeometry() {
			out = append(out, c)
		}
	}
	return out
}

// resolve drops the declared columns that are absent from present (a set of
// lower-cased physical column names). Tolerant columns are dropped from the
// columns and the key and reported as missing. Any other absent column
// fails resolution.
func (s tableSchema) resolve(present map[string]bool) (tableSchema, []string, error) {
	r := tableSchema{name: s.name}
	var missing, fatal []string
	for _, c := range s.columns {
		if present[strings.ToLower(c.Name)] {
			r.columns = append(r.columns, c)
			continue
		}
		if c.ToleratesAbsence {
			missing = append(missing, c.Name)
			continue
		}
		fatal = append(fatal, c.Name)
	}
	if len(fatal) > 0 {
		return tableSchema{}, nil, fmt.Errorf("%w: %s lacks %s", types.ErrMissingColumns, s.name, strings.Join(fatal, ", "))
	}
	for _, k := range s.key {
		if present[strings.ToLower(k)] {
			r.key = append(r.key, k)
		}
	}
	return r, missing, nil
}

// createTableSQL renders CREATE TABLE for the declared schema.
func (s tableSchema) createTableSQL(constraints []string) string {
	var lines []string
	for _, c := range s.columns {
		line := "  " + quoteIdent(c.Name) + " " + string(c.storage)
		if c.Constraint != "" {
			line += " " + c.Constraint
		}
		if len(s.key) == 1 && strings.EqualFold(s.key[0], c.Name) {
			line += " PRIMARY KEY"
		}
		lines = append(lines, line)
	}
	for _, con := range constraints {
		lines = append(lines, "  "+con)
	}
	if len(s.key) > 1 {
		lines = append(lines, "  PRIMARY KEY("+s.quotedList(s.key, ", ")+")")
	}
	return "CREATE TABLE " + quoteIdent(s.name) + " (\n" + strings.Join(lines, ",\n") + "\n)"
}

func (s tableSchema) quotedList(names []string, sep string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = quoteIdent(n)
	}
	return strings.Join(q, sep)
}

func (s tableSchema) assignments(names []string, sep string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = quoteIdent(n) + " = ?"
	}
	return strings.Join(q, sep)
}

func (s tableSchema) selectList() string {
	return s.quotedList(s.columnNames(), ", ")
}

func (s tableSchema) insertSQL() string {
	params := strings.TrimSuffix(strings.Repeat("?, ", len(s.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(s.name), s.selectList(), params)
}

func (s tableSchema) getSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s", s.selectList(), quoteIdent(s.name), s.assignments(s.key, " AND "))
}

func (s tableSchema) boundedSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s LIMIT ?", s.selectList(), quoteIdent(s.name))
}

func (s tableSchema) pageSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid LIMIT ? OFFSET ?", s.selectList(), quoteIdent(s.name))
}

func (s tableSchema) updateSQL() string {
	var set []string
	for _, i := range s.nonKey() {
		set = append(set, s.columns[i].Name)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", quoteIdent(s.name), s.assignments(set, ", "), s.assignments(s.key, " AND "))
}

func (s tableSchema) deleteSQL() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(s.name), s.assignments(s.key, " AND "))
}

func (s tableSchema) countSQL() string {
	return "SELECT COUNT(*) FROM " + quoteIdent(s.name)
}

func (s tableSchema) countByKeySQL() string {
	return s.countSQL() + " WHERE " + s.assignments(s.key, " AND ")
}
