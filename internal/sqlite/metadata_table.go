package sqlite

import (
	"errors"
	"fmt"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagMetadata, types.MetadataTable, func(d *Database) (manager, error) { return newMetadataTable(d) })
}

// MetadataTable manages tnf_metadata, the dataset's key/value header.
type MetadataTable struct {
	*EntityTable[types.Metadata]
}

func newMetadataTable(d *Database) (*MetadataTable, error) {
	spec := TableSpec{
		Name: types.MetadataTable,
		Columns: []types.ColumnDescriptor{
			types.Col("meta_key", types.KindString),
			types.Col("meta_value", types.KindString),
		},
		PrimaryKey: "meta_key",
	}
	et, err := newEntityTable(d, spec,
		func(m *types.Metadata) []any { return []any{m.Key, m.Value} },
		func(r *Record) *types.Metadata {
			return &types.Metadata{Key: r.String("meta_key"), Value: r.String("meta_value")}
		})
	if err != nil {
		return nil, err
	}
	return &MetadataTable{et}, nil
}

// Value returns the value stored under key and whether it exists.
func (t *MetadataTable) Value(key string) (string, bool, error) {
	m, err := t.Get(key)
	if errors.Is(err, types.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Value, true, nil
}

// Set stores value under key, replacing any previous value.
func (t *MetadataTable) Set(key, value string) error {
	m := &types.Metadata{Key: key, Value: value}
	n, err := t.Update(m)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	if n > 0 {
		return nil
	}
	return t.Add(m)
}

// Map returns every entry keyed by meta_key.
func (t *MetadataTable) Map() (map[string]string, error) {
	all, err := t.All()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for _, m := range all {
		out[m.Key] = m.Value
	}
	return out, nil
}

// Metadata returns the session's tnf_metadata manager.
func (d *Database) Metadata() (*MetadataTable, error) {
	return lookup[*MetadataTable](d, tagMetadata)
}
