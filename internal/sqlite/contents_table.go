// This file implements the gpkg_contents and gpkg_geometry_columns
// catalog tables.
package sqlite

import (
	"fmt"
	"time"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagContents, types.ContentsTable, func(d *Database) (manager, error) { return newContentsTable(d) })
	register(tagGeometryColumns, types.GeometryColumnsTable, func(d *Database) (manager, error) { return newGeometryColumnsTable(d) })
}

const nowUTC = "DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))"

// ContentsTable manages gpkg_contents.
type ContentsTable struct {
	*EntityTable[types.Contents]
}

func newContentsTable(d *Database) (*ContentsTable, error) {
	spec := TableSpec{
		Name: types.ContentsTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("table_name", types.KindString),
			types.NotNull("data_type", types.KindString),
			{Name: "identifier", Kind: types.KindString, Constraint: "UNIQUE"},
			{Name: "description", Kind: types.KindString, Constraint: "DEFAULT ''"},
			{Name: "last_change", Kind: types.KindTime, Constraint: "NOT NULL " + nowUTC},
			types.Col("min_x", types.KindFloat64),
			types.Col("min_y", types.KindFloat64),
			types.Col("max_x", types.KindFloat64),
			types.Col("max_y", types.KindFloat64),
			types.Col("srs_id", types.KindInt32),
		},
		PrimaryKey: "table_name",
		Constraints: []string{
			"CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES " + types.SpatialRefSysTable + "(srs_id)",
		},
	}
	et, err := newEntityTable(d, spec, contentsValues, readContents)
	if err != nil {
		return nil, err
	}
	return &ContentsTable{et}, nil
}

func contentsValues(c *types.Contents) []any {
	last := c.LastChange
	if last.IsZero() {
		last = time.Now().UTC()
	}
	return []any{c.TableName, c.DataType, text(c.Identifier), c.Description, last,
		c.MinX, c.MinY, c.MaxX, c.MaxY, c.SRSID}
}

func readContents(r *Record) *types.Contents {
	return &types.Contents{
		TableName:   r.String("table_name"),
		DataType:    r.String("data_type"),
		Identifier:  r.String("identifier"),
		Description: r.String("description"),
		LastChange:  r.Time("last_change"),
		MinX:        r.Float64Ptr("min_x"),
		MinY:        r.Float64Ptr("min_y"),
		MaxX:        r.Float64Ptr("max_x"),
		MaxY:        r.Float64Ptr("max_y"),
		SRSID:       r.Int32Ptr("srs_id"),
	}
}

// Get returns the catalog entry of table.
func (t *ContentsTable) Get(table string) (*types.Contents, error) {
	return t.EntityTable.Get(table)
}

// Delete removes the catalog entry of table.
func (t *ContentsTable) Delete(table string) (int64, error) {
	return t.TableManager.Delete(table)
}

// UpdateSRID rebinds every feature table to srid and returns the number of
// entries changed.
func (t *ContentsTable) UpdateSRID(srid int) (int64, error) {
	res, err := t.db.Exec("UPDATE "+types.ContentsTable+" SET srs_id = ? WHERE data_type = ?", srid, types.DataTypeFeatures)
	if err != nil {
		return 0, fmt.Errorf("updating SRID in %s: %w", types.ContentsTable, err)
	}
	return res.RowsAffected()
}

// Contents returns the session's gpkg_contents manager.
func (d *Database) Contents() (*ContentsTable, error) {
	return lookup[*ContentsTable](d, tagContents)
}

// GeometryColumnsTable manages gpkg_geometry_columns.
type GeometryColumnsTable struct {
	*EntityTable[types.GeometryColumn]
}

func newGeometryColumnsTable(d *Database) (*GeometryColumnsTable, error) {
	spec := TableSpec{
		Name: types.GeometryColumnsTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("table_name", types.KindString),
			types.NotNull("column_name", types.KindString),
			types.NotNull("geometry_type_name", types.KindString),
			types.NotNull("srs_id", types.KindInt32),
			{Name: "z", Kind: types.KindInt16, Storage: "TINYINT", Constraint: "NOT NULL"},
			{Name: "m", Kind: types.KindInt16, Storage: "TINYINT", Constraint: "NOT NULL"},
		},
		PrimaryKey: "table_name, column_name",
		Constraints: []string{
			"CONSTRAINT uk_gc_table_name UNIQUE (table_name)",
			"CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES " + types.ContentsTable + "(table_name)",
			"CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES " + types.SpatialRefSysTable + "(srs_id)",
		},
	}
	et, err := newEntityTable(d, spec, geometryColumnValues, readGeometryColumn)
	if err != nil {
		return nil, err
	}
	return &GeometryColumnsTable{et}, nil
}

func geometryColumnValues(g *types.GeometryColumn) []any {
	return []any{g.TableName, g.ColumnName, g.GeometryTypeName, g.SRSID, g.Z, g.M}
}

func readGeometryColumn(r *Record) *types.GeometryColumn {
	return &types.GeometryColumn{
		TableName:        r.String("table_name"),
		ColumnName:       r.String("column_name"),
		GeometryTypeName: r.String("geometry_type_name"),
		SRSID:            r.Int32("srs_id"),
		Z:                int8(r.Int64("z")),
		M:                int8(r.Int64("m")),
	}
}

// Get returns the registration of table.column.
func (t *GeometryColumnsTable) Get(table, column string) (*types.GeometryColumn, error) {
	return t.EntityTable.Get(table, column)
}

// ForTable returns the geometry column registered for table.
func (t *GeometryColumnsTable) ForTable(table string) (*types.GeometryColumn, error) {
	var out *types.GeometryColumn
	err := t.db.Query("SELECT * FROM "+types.GeometryColumnsTable+" WHERE LOWER(table_name) = LOWER(?)",
		func(rec *Record) error {
			out = readGeometryColumn(rec)
			return nil
		}, table)
	if err != nil {
		return nil, fmt.Errorf("reading geometry column of %s: %w", table, err)
	}
	if out == nil {
		return nil, fmt.Errorf("geometry column of %s: %w", table, types.ErrNotFound)
	}
	return out, nil
}

// UpdateSRID rebinds every geometry column to srid.
func (t *GeometryColumnsTable) UpdateSRID(srid int) (int64, error) {
	res, err := t.db.Exec("UPDATE "+types.GeometryColumnsTable+" SET srs_id = ?", srid)
	if err != nil {
		return 0, fmt.Errorf("updating SRID in %s: %w", types.GeometryColumnsTable, err)
	}
	return res.RowsAffected()
}

// GeometryColumns returns the session's gpkg_geometry_columns manager.
func (d *Database) GeometryColumns() (*GeometryColumnsTable, error) {
	return lookup[*GeometryColumnsTable](d, tagGeometryColumns)
}
