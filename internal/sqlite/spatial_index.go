package sqlite

import (
	"fmt"
	"strings"

	"github.com/opentnf/tnfpkg/pkg/types"
)

const (
	rtreeExtension  = "gpkg_rtree_index"
	rtreeDefinition = "http://www.geopackage.org/spec120/#extension_rtree"
)

// rtreeName returns the virtual table holding the spatial index of
// table.column.
func rtreeName(table, column string) string {
	return "rtree_" + table + "_" + column
}

// ApplySpatialIndex builds the GeoPackage R-tree index on a geometry
// column, fills it from the current rows, installs the triggers that keep
// it current and registers the extension. Applying it twice is a no-op.
func (tm *TableManager) ApplySpatialIndex(name string) error {
	var geomCol *column
	for i := range tm.resolved.columns {
		c := &tm.resolved.columns[i]
		if strings.EqualFold(c.Name, name) && c.storage.IsGeometry() {
			geomCol = c
			break
		}
	}
	if geomCol == nil {
		return fmt.Errorf("%w: %s.%s is not a geometry column", types.ErrConfiguration, tm.spec.Name, name)
	}

	ext, err := tm.db.Extensions()
	if err != nil {
		return err
	}
	done, err := ext.Registered(tm.spec.Name, geomCol.Name, rtreeExtension)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	for _, stmt := range rtreeStatements(tm.spec.Name, geomCol.Name) {
		if _, err := tm.db.Exec(stmt); err != nil {
			return fmt.Errorf("building spatial index on %s.%s: %w", tm.spec.Name, geomCol.Name, err)
		}
	}
	if err := ext.Add(&types.Extension{
		TableName:     tm.spec.Name,
		ColumnName:    geomCol.Name,
		ExtensionName: rtreeExtension,
		Definition:    rtreeDefinition,
		Scope:         "write-only",
	}); err != nil {
		return err
	}
	tm.db.logger.Info("applied spatial index", "table", tm.spec.Name, "column", geomCol.Name)
	return nil
}

func rtreeStatements(table, col string) []string {
	rt := rtreeName(table, col)
	t, c := quoteName(table), quoteName(col)
	bounds := func(row string) string {
		g := row + "." + c
		return fmt.Sprintf("ST_MinX(%[1]s), ST_MaxX(%[1]s), ST_MinY(%[1]s), ST_MaxY(%[1]s)", g)
	}
	present := func(row string) string {
		g := row + "." + c
		return fmt.Sprintf("%[1]s NOT NULL AND NOT ST_IsEmpty(%[1]s)", g)
	}
	return []string{
		fmt.Sprintf("CREATE VIRTUAL TABLE %s USING rtree(id, minx, maxx, miny, maxy)", quoteName(rt)),
		fmt.Sprintf("INSERT OR REPLACE INTO %s SELECT g.rowid, %s FROM %s AS g WHERE %s",
			quoteName(rt), bounds("g"), t, present("g")),
		fmt.Sprintf(`CREATE TRIGGER %s AFTER INSERT ON %s WHEN (%s)
BEGIN
  INSERT OR REPLACE INTO %s VALUES (NEW.rowid, %s);
END`, quoteName(rt+"_insert"), t, present("NEW"), quoteName(rt), bounds("NEW")),
		fmt.Sprintf(`CREATE TRIGGER %s AFTER UPDATE OF %s ON %s
BEGIN
  DELETE FROM %s WHERE id = OLD.rowid;
  INSERT OR REPLACE INTO %s SELECT NEW.rowid, %s WHERE %s;
END`, quoteName(rt+"_update"), c, t, quoteName(rt), quoteName(rt), bounds("NEW"), present("NEW")),
		fmt.Sprintf(`CREATE TRIGGER %s AFTER DELETE ON %s WHEN OLD.%s NOT NULL
BEGIN
  DELETE FROM %s WHERE id = OLD.rowid;
END`, quoteName(rt+"_delete"), t, c, quoteName(rt)),
	}
}
