// This file implements the gpkg_extensions, gpkg_data_columns,
// gpkg_metadata and gpkg_metadata_reference tables.
package sqlite

import (
	"fmt"
	"time"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagExtensions, types.ExtensionsTable, func(d *Database) (manager, error) { return newExtensionsTable(d) })
	register(tagDataColumns, types.DataColumnsTable, func(d *Database) (manager, error) { return newDataColumnsTable(d) })
	register(tagGpkgMetadata, types.GpkgMetadataTable, func(d *Database) (manager, error) { return newGpkgMetadataTable(d) })
	register(tagMetadataReference, types.MetadataReferenceTable, func(d *Database) (manager, error) { return newMetadataReferenceTable(d) })
}

// ExtensionsTable manages gpkg_extensions. The table has no primary key.
type ExtensionsTable struct {
	*EntityTable[types.Extension]
}

func newExtensionsTable(d *Database) (*ExtensionsTable, error) {
	spec := TableSpec{
		Name: types.ExtensionsTable,
		Columns: []types.ColumnDescriptor{
			types.Col("table_name", types.KindString),
			types.Col("column_name", types.KindString),
			types.NotNull("extension_name", types.KindString),
			types.NotNull("definition", types.KindString),
			types.NotNull("scope", types.KindString),
		},
		Constraints: []string{"CONSTRAINT ge_tce UNIQUE (table_name, column_name, extension_name)"},
	}
	et, err := newEntityTable(d, spec, extensionValues, readExtension)
	if err != nil {
		return nil, err
	}
	return &ExtensionsTable{et}, nil
}

func extensionValues(e *types.Extension) []any {
	return []any{text(e.TableName), text(e.ColumnName), e.ExtensionName, e.Definition, e.Scope}
}

func readExtension(r *Record) *types.Extension {
	return &types.Extension{
		TableName:     r.String("table_name"),
		ColumnName:    r.String("column_name"),
		ExtensionName: r.String("extension_name"),
		Definition:    r.String("definition"),
		Scope:         r.String("scope"),
	}
}

// Registered reports whether extension is registered for table.column.
func (t *ExtensionsTable) Registered(table, column, extension string) (bool, error) {
	n, err := t.db.QueryScalar(
		"SELECT COUNT(*) FROM "+types.ExtensionsTable+
			" WHERE IFNULL(table_name, '') = ? AND IFNULL(column_name, '') = ? AND extension_name = ?",
		table, column, extension)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", types.ExtensionsTable, err)
	}
	c, _ := n.(int64)
	return c > 0, nil
}

// Extensions returns the session's gpkg_extensions manager.
func (d *Database) Extensions() (*ExtensionsTable, error) {
	return lookup[*ExtensionsTable](d, tagExtensions)
}

// DataColumnsTable manages gpkg_data_columns.
type DataColumnsTable struct {
	*EntityTable[types.DataColumn]
}

func newDataColumnsTable(d *Database) (*DataColumnsTable, error) {
	spec := TableSpec{
		Name: types.DataColumnsTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("table_name", types.KindString),
			types.NotNull("column_name", types.KindString),
			types.Col("name", types.KindString),
			types.Col("title", types.KindString),
			types.Col("description", types.KindString),
			types.Col("mime_type", types.KindString),
			types.Col("constraint_name", types.KindString),
		},
		PrimaryKey: "table_name, column_name",
		Constraints: []string{
			"CONSTRAINT fk_gdc_tn FOREIGN KEY (table_name) REFERENCES " + types.ContentsTable + "(table_name)",
		},
	}
	et, err := newEntityTable(d, spec, dataColumnValues, readDataColumn)
	if err != nil {
		return nil, err
	}
	return &DataColumnsTable{et}, nil
}

func dataColumnValues(c *types.DataColumn) []any {
	return []any{c.TableName, c.ColumnName, text(c.Name), text(c.Title), text(c.Description),
		text(c.MIMEType), text(c.ConstraintName)}
}

func readDataColumn(r *Record) *types.DataColumn {
	return &types.DataColumn{
		TableName:      r.String("table_name"),
		ColumnName:     r.String("column_name"),
		Name:           r.String("name"),
		Title:          r.String("title"),
		Description:    r.String("description"),
		MIMEType:       r.String("mime_type"),
		ConstraintName: r.String("constraint_name"),
	}
}

// Get returns the description of table.column.
func (t *DataColumnsTable) Get(table, column string) (*types.DataColumn, error) {
	return t.EntityTable.Get(table, column)
}

// DataColumns returns the session's gpkg_data_columns manager.
func (d *Database) DataColumns() (*DataColumnsTable, error) {
	return lookup[*DataColumnsTable](d, tagDataColumns)
}

// GpkgMetadataTable manages gpkg_metadata. An entity with a zero ID is
// stored with an engine-assigned ID.
type GpkgMetadataTable struct {
	*EntityTable[types.GpkgMetadata]
}

func newGpkgMetadataTable(d *Database) (*GpkgMetadataTable, error) {
	spec := TableSpec{
		Name: types.GpkgMetadataTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("id", types.KindInt64),
			{Name: "md_scope", Kind: types.KindString, Constraint: "NOT NULL DEFAULT 'dataset'"},
			types.NotNull("md_standard_uri", types.KindString),
			{Name: "mime_type", Kind: types.KindString, Constraint: "NOT NULL DEFAULT 'text/xml'"},
			{Name: "metadata", Kind: types.KindString, Constraint: "NOT NULL DEFAULT ''"},
		},
		PrimaryKey: "id",
	}
	et, err := newEntityTable(d, spec, gpkgMetadataValues, readGpkgMetadata)
	if err != nil {
		return nil, err
	}
	return &GpkgMetadataTable{et}, nil
}

func gpkgMetadataValues(m *types.GpkgMetadata) []any {
	var id any
	if m.ID != 0 {
		id = m.ID
	}
	return []any{id, m.Scope, m.StandardURI, m.MIMEType, m.Metadata}
}

func readGpkgMetadata(r *Record) *types.GpkgMetadata {
	return &types.GpkgMetadata{
		ID:          r.Int64("id"),
		Scope:       r.String("md_scope"),
		StandardURI: r.String("md_standard_uri"),
		MIMEType:    r.String("mime_type"),
		Metadata:    r.String("metadata"),
	}
}

// Get returns the metadata document with the given id.
func (t *GpkgMetadataTable) Get(id int64) (*types.GpkgMetadata, error) {
	return t.EntityTable.Get(id)
}

// GpkgMetadata returns the session's gpkg_metadata manager.
func (d *Database) GpkgMetadata() (*GpkgMetadataTable, error) {
	return lookup[*GpkgMetadataTable](d, tagGpkgMetadata)
}

// MetadataReferenceTable manages gpkg_metadata_reference. The table has no
// primary key.
type MetadataReferenceTable struct {
	*EntityTable[types.MetadataReference]
}

func newMetadataReferenceTable(d *Database) (*MetadataReferenceTable, error) {
	spec := TableSpec{
		Name: types.MetadataReferenceTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("reference_scope", types.KindString),
			types.Col("table_name", types.KindString),
			types.Col("column_name", types.KindString),
			types.Col("row_id_value", types.KindInt64),
			{Name: "timestamp", Kind: types.KindTime, Constraint: "NOT NULL " + nowUTC},
			types.NotNull("md_file_id", types.KindInt64),
			types.Col("md_parent_id", types.KindInt64),
		},
		Constraints: []string{
			"CONSTRAINT crmr_mfi_fk FOREIGN KEY (md_file_id) REFERENCES " + types.GpkgMetadataTable + "(id)",
			"CONSTRAINT crmr_mpi_fk FOREIGN KEY (md_parent_id) REFERENCES " + types.GpkgMetadataTable + "(id)",
		},
	}
	et, err := newEntityTable(d, spec, metadataReferenceValues, readMetadataReference)
	if err != nil {
		return nil, err
	}
	return &MetadataReferenceTable{et}, nil
}

func metadataReferenceValues(m *types.MetadataReference) []any {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return []any{m.ReferenceScope, text(m.TableName), text(m.ColumnName), m.RowIDValue, ts, m.FileID, m.ParentID}
}

func readMetadataReference(r *Record) *types.MetadataReference {
	return &types.MetadataReference{
		ReferenceScope: r.String("reference_scope"),
		TableName:      r.String("table_name"),
		ColumnName:     r.String("column_name"),
		RowIDValue:     r.Int64Ptr("row_id_value"),
		Timestamp:      r.Time("timestamp"),
		FileID:         r.Int64("md_file_id"),
		ParentID:       r.Int64Ptr("md_parent_id"),
	}
}

// MetadataReferences returns the session's gpkg_metadata_reference manager.
func (d *Database) MetadataReferences() (*MetadataReferenceTable, error) {
	return lookup[*MetadataReferenceTable](d, tagMetadataReference)
}
