package sqlite

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentnf/tnfpkg/pkg/types"
)

type widget struct {
	ID     string
	Name   string
	Size   *int32
	Weight *float64
	Seen   *time.Time
	Active bool
	Data   []byte
}

func widgetSpec(name string) TableSpec {
	return TableSpec{
		Name: name,
		Columns: []types.ColumnDescriptor{
			types.NotNull("id", types.KindString),
			types.Col("name", types.KindString),
			types.Col("size", types.KindInt32),
			types.Col("weight", types.KindDecimal),
			types.Col("seen", types.KindTime),
			types.Col("active", types.KindBool),
			types.Col("data", types.KindBytes),
		},
		PrimaryKey: "id",
	}
}

func (w *widget) values() []any {
	return []any{w.ID, w.Name, w.Size, w.Weight, w.Seen, w.Active, w.Data}
}

func readWidget(out **widget) RowReader {
	return func(r *Record) error {
		*out = &widget{
			ID:     r.String("id"),
			Name:   r.String("name"),
			Size:   r.Int32Ptr("size"),
			Weight: r.Float64Ptr("weight"),
			Seen:   r.TimePtr("seen"),
			Active: r.Bool("active"),
			Data:   r.Bytes("data"),
		}
		return nil
	}
}

func TestTableManagerCRUD(t *testing.T) {
	db := newSession(t)
	tm, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err)
	defer tm.Close()

	seen := time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)
	w := &widget{ID: "w1", Name: "gear", Size: ptr(int32(12)), Weight: ptr(3.25), Seen: &seen, Active: true, Data: []byte{1, 2, 3}}
	require.NoError(t, tm.Add(w.values()...))

	var got *widget
	found, err := tm.Get(readWidget(&got), "w1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, w.Name, got.Name)
	assert.Equal(t, w.Size, got.Size)
	assert.Equal(t, w.Weight, got.Weight)
	require.NotNil(t, got.Seen)
	assert.True(t, seen.Equal(*got.Seen))
	assert.True(t, got.Active)
	assert.Equal(t, w.Data, got.Data)

	w.Name, w.Size, w.Active = "sprocket", nil, false
	n, err := tm.Update(w.values()...)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = tm.Get(readWidget(&got), "w1")
	require.NoError(t, err)
	assert.Equal(t, "sprocket", got.Name)
	assert.Nil(t, got.Size)
	assert.False(t, got.Active)

	count, err := tm.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = tm.CountByKey("w1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	n, err = tm.Delete("w1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	found, err = tm.Get(readWidget(&got), "w1")
	require.NoError(t, err)
	assert.False(t, found)

	n, err = tm.Update(w.values()...)
	require.NoError(t, err)
	assert.Zero(t, n, "update of a missing row changes nothing")
}

func TestTableManagerDuplicateKeyFails(t *testing.T) {
	db := newSession(t)
	tm, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err)

	w := &widget{ID: "dup"}
	require.NoError(t, tm.Add(w.values()...))
	assert.Error(t, tm.Add(w.values()...))
}

func TestTableManagerIdempotentCreation(t *testing.T) {
	db := newSession(t)
	first, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err)
	require.NoError(t, first.Add((&widget{ID: "a"}).values()...))

	second, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err, "constructing against an existing table must not re-run DDL")
	assert.Equal(t, first.Columns(), second.Columns())
	assert.Empty(t, second.MissingColumns())

	n, err := second.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	tables, err := db.QueryScalar("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'widget'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), tables)
}

func TestTableManagerTolerantGap(t *testing.T) {
	db := newSession(t)
	_, err := db.Exec(`CREATE TABLE gizmo (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO gizmo (id, name) VALUES ('g1', 'old')`)
	require.NoError(t, err)

	spec := TableSpec{
		Name: "gizmo",
		Columns: []types.ColumnDescriptor{
			types.NotNull("id", types.KindString),
			types.Col("name", types.KindString),
			types.Col("note", types.KindString).Tolerant(),
		},
		PrimaryKey: "id",
	}
	tm, err := NewTable(db, spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, tm.MissingColumns())
	assert.Equal(t, []string{"id", "name"}, tm.Columns())

	var name, note string
	found, err := tm.Get(func(r *Record) error {
		name, note = r.String("name"), r.String("note")
		return nil
	}, "g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "old", name)
	assert.Empty(t, note, "missing tolerant columns read as the zero value")

	err = tm.Add("g2", "new")
	assert.ErrorIs(t, err, types.ErrMissingColumns)
	assert.ErrorIs(t, err, types.ErrIntegrity)
	_, err = tm.Update("g1", "renamed")
	assert.ErrorIs(t, err, types.ErrMissingColumns)
	_, err = tm.Delete("g1")
	assert.ErrorIs(t, err, types.ErrMissingColumns)
}

func TestFeatureTableNeedsSRIDBeforeCreation(t *testing.T) {
	db := newSession(t)

	_, err := db.Nodes()
	require.ErrorIs(t, err, types.ErrSRIDMissing)
	exists, err := db.TableExists(types.NodeTable)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = db.Nodes()
	assert.ErrorIs(t, err, types.ErrSRIDMissing, "a retry must not adopt a half-created table")
	assert.False(t, db.InTransaction())
}

func TestFailedCreationRollsBackTable(t *testing.T) {
	db := newDataset(t, testConfig())

	broken := widgetSpec("widget")
	broken.Triggers = []string{"CREATE TRIGGER widget_bad AFTER INSERT ON nowhere BEGIN SELECT 1; END"}
	_, err := NewTable(db, broken)
	require.Error(t, err)
	exists, err := db.TableExists("widget")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.False(t, db.InTransaction())

	tm, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err)
	defer tm.Close()
	assert.Empty(t, tm.MissingColumns())
}

func TestFailedGeometryRegistrationRollsBackTable(t *testing.T) {
	db := newDataset(t, testConfig())
	_, err := db.Exec("INSERT INTO gpkg_contents (table_name, data_type, identifier) VALUES ('sites', 'features', 'sites')")
	require.NoError(t, err)

	spec := TableSpec{
		Name: "sites",
		Columns: []types.ColumnDescriptor{
			types.NotNull("id", types.KindString),
			types.Geometry("location", types.StoragePoint),
		},
		PrimaryKey: "id",
	}
	_, err = NewTable(db, spec)
	require.Error(t, err)

	exists, err := db.TableExists("sites")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.EqualValues(t, 0, countRows(t, db,
		"SELECT COUNT(*) FROM gpkg_geometry_columns WHERE table_name = 'sites'"))
	assert.EqualValues(t, 1, countRows(t, db,
		"SELECT COUNT(*) FROM gpkg_contents WHERE table_name = 'sites'"))
}

func TestTableManagerIntolerantGap(t *testing.T) {
	db := newSession(t)
	_, err := db.Exec(`CREATE TABLE gizmo (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	_, err = NewTable(db, TableSpec{
		Name: "gizmo",
		Columns: []types.ColumnDescriptor{
			types.NotNull("id", types.KindString),
			types.Col("name", types.KindString),
		},
		PrimaryKey: "id",
	})
	assert.ErrorIs(t, err, types.ErrMissingColumns)
	assert.ErrorIs(t, err, types.ErrIntegrity)
}

func TestTableManagerTolerantKeyColumn(t *testing.T) {
	db := newSession(t)
	_, err := db.Exec(`CREATE TABLE level (oid TEXT PRIMARY KEY, label TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO level VALUES ('1', 'ground')`)
	require.NoError(t, err)

	tm, err := NewTable(db, TableSpec{
		Name: "level",
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("network_oid", types.KindString).Tolerant(),
			types.Col("label", types.KindString),
		},
		PrimaryKey: "oid, network_oid",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"oid"}, tm.PrimaryKey())

	var label string
	found, err := tm.Get(func(r *Record) error { label = r.String("label"); return nil }, "1", "ignored")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ground", label)

	_, err = tm.Get(nil, "1")
	assert.ErrorIs(t, err, types.ErrArity, "the key keeps its declared arity")
}

func TestTableManagerKeylessPolicy(t *testing.T) {
	db := newSession(t)
	tm, err := NewTable(db, TableSpec{
		Name: "log_line",
		Columns: []types.ColumnDescriptor{
			types.Col("at", types.KindTime),
			types.Col("message", types.KindString),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, tm.PrimaryKey())

	require.NoError(t, tm.Add(time.Now(), "one"))
	require.NoError(t, tm.Add(time.Now(), "one"))

	_, err = tm.Get(nil)
	assert.ErrorIs(t, err, types.ErrNoPrimaryKey)
	_, err = tm.Update(time.Now(), "two")
	assert.ErrorIs(t, err, types.ErrNoPrimaryKey)
	_, err = tm.Delete()
	assert.ErrorIs(t, err, types.ErrNoPrimaryKey)
	_, err = tm.CountByKey()
	assert.ErrorIs(t, err, types.ErrNoPrimaryKey)

	n, err := tm.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "keyless tables accept duplicate rows")
}

func TestTableManagerNothingToUpdate(t *testing.T) {
	db := newSession(t)
	tm, err := NewTable(db, TableSpec{
		Name: "pair",
		Columns: []types.ColumnDescriptor{
			types.NotNull("a", types.KindString),
			types.NotNull("b", types.KindString),
		},
		PrimaryKey: "a, b",
	})
	require.NoError(t, err)
	require.NoError(t, tm.Add("x", "y"))

	_, err = tm.Update("x", "y")
	assert.ErrorIs(t, err, types.ErrNothingToUpdate)

	n, err := tm.Delete("x", "y")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTableManagerArity(t *testing.T) {
	db := newSession(t)
	tm, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err)

	assert.ErrorIs(t, tm.Add("only-id"), types.ErrArity)
	_, err = tm.Update("only-id")
	assert.ErrorIs(t, err, types.ErrArity)
	_, err = tm.Get(nil, "a", "b")
	assert.ErrorIs(t, err, types.ErrArity)
	_, err = tm.Delete()
	assert.ErrorIs(t, err, types.ErrArity)
	assert.ErrorIs(t, tm.GetPage(-1, 10, nil), types.ErrArity)
}

func TestTableSpecValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    TableSpec
		wantErr error
	}{
		{
			name:    "empty name",
			spec:    TableSpec{Columns: []types.ColumnDescriptor{types.Col("a", types.KindString)}},
			wantErr: types.ErrInvalidTableSpec,
		},
		{
			name:    "no columns",
			spec:    TableSpec{Name: "t"},
			wantErr: types.ErrInvalidTableSpec,
		},
		{
			name: "duplicate column",
			spec: TableSpec{Name: "t", Columns: []types.ColumnDescriptor{
				types.Col("a", types.KindString), types.Col("A", types.KindInt64)}},
			wantErr: types.ErrInvalidTableSpec,
		},
		{
			name:    "unmapped kind",
			spec:    TableSpec{Name: "t", Columns: []types.ColumnDescriptor{{Name: "a"}}},
			wantErr: types.ErrUnmappedKind,
		},
		{
			name: "key names an unknown column",
			spec: TableSpec{Name: "t", Columns: []types.ColumnDescriptor{types.Col("a", types.KindString)},
				PrimaryKey: "b"},
			wantErr: types.ErrInvalidKeySpec,
		},
		{
			name: "key out of declaration order",
			spec: TableSpec{Name: "t", Columns: []types.ColumnDescriptor{
				types.Col("a", types.KindString), types.Col("b", types.KindString)},
				PrimaryKey: "b, a"},
			wantErr: types.ErrInvalidKeySpec,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newSession(t)
			_, err := NewTable(db, tt.spec)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}

func TestTableManagerStatementCache(t *testing.T) {
	db := newSession(t)
	tm, err := NewTable(db, widgetSpec("widget"))
	require.NoError(t, err)

	for _, v := range []verb{verbInsert, verbGet, verbGetBounded, verbGetPage, verbUpdate, verbDelete, verbCount, verbCountByKey} {
		assert.Nil(t, tm.stmts[v], "%s is prepared lazily", v)
	}
	s1, err := tm.stmt(verbGet)
	require.NoError(t, err)
	s2, err := tm.stmt(verbGet)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Nil(t, tm.stmts[verbInsert])

	require.NoError(t, tm.Close())
	assert.Nil(t, tm.stmts[verbGet])
}

func TestCreateTableSQLQuotesReservedWords(t *testing.T) {
	s, err := declareSchema(TableSpec{
		Name: "order",
		Columns: []types.ColumnDescriptor{
			types.NotNull("select", types.KindString),
			types.Col("group", types.KindInt64),
		},
		PrimaryKey: "select",
	})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE \"order\" (\n  \"select\" TEXT NOT NULL PRIMARY KEY,\n  \"group\" INTEGER\n)", s.createTableSQL(nil))
	assert.Equal(t, `UPDATE "order" SET "group" = ? WHERE "select" = ?`, s.updateSQL())
	assert.Equal(t, `SELECT "select", "group" FROM "order" ORDER BY rowid LIMIT ? OFFSET ?`, s.pageSQL())
}

func TestPropertyReservedWordRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("property test")
	}
	words := make([]string, 0, len(reservedWords))
	for w := range reservedWords {
		words = append(words, w)
	}
	sort.Strings(words)

	db := newSession(t)
	seq := 0

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("keyword table and column names round-trip", prop.ForAll(
		func(table, col string, value int64) bool {
			spec := TableSpec{
				Name: table,
				Columns: []types.ColumnDescriptor{
					types.NotNull(col, types.KindString),
					types.Col(col+"_v", types.KindInt64),
				},
				PrimaryKey: col,
			}
			tm, err := NewTable(db, spec)
			if err != nil {
				return false
			}
			defer func() {
				tm.Close()
				db.Exec("DROP TABLE " + quoteIdent(table))
			}()
			seq++
			key := fmt.Sprintf("k%d", seq)
			if err := tm.Add(key, value); err != nil {
				return false
			}
			var got int64
			found, err := tm.Get(func(r *Record) error { got = r.Int64(col + "_v"); return nil }, key)
			return err == nil && found && got == value
		},
		gen.OneConstOf(toAny(words)...),
		gen.OneConstOf(toAny(words)...),
		gen.Int64(),
	))
	properties.TestingRun(t)
}

func TestPropertyPaginationDeterminism(t *testing.T) {
	if testing.Short() {
		t.Skip("property test")
	}
	db := newSession(t)
	seq := 0

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("consecutive pages partition the table in insertion order", prop.ForAll(
		func(rows, n, m int) bool {
			seq++
			tm, err := NewTable(db, widgetSpec(fmt.Sprintf("page_%d", seq)))
			if err != nil {
				return false
			}
			defer tm.Close()
			for i := 0; i < rows; i++ {
				// Keys sort differently from insertion order.
				w := &widget{ID: fmt.Sprintf("%03d", (i*37)%1000), Size: ptr(int32(i))}
				if err := tm.Add(w.values()...); err != nil {
					return false
				}
			}
			page := func(offset, limit int) []int32 {
				var out []int32
				if err := tm.GetPage(offset, limit, func(r *Record) error {
					out = append(out, r.Int32("size"))
					return nil
				}); err != nil {
					return nil
				}
				return out
			}
			first, second, whole := page(0, n), page(n, m), page(0, n+m)
			joined := append(append([]int32{}, first...), second...)
			if len(joined) != len(whole) {
				return false
			}
			for i := range whole {
				if joined[i] != whole[i] || whole[i] != int32(i) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))
	properties.TestingRun(t)
}

func toAny(words []string) []any {
	out := make([]any, len(words))
	for i, w := range words {
		out[i] = w
	}
	return out
}
