package sqlite

import (
	"fmt"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagNetwork, types.NetworkTable, func(d *Database) (manager, error) { return newNetworkTable(d) })
	register(tagNetworkReference, types.NetworkReferenceTable, func(d *Database) (manager, error) { return newNetworkReferenceTable(d) })
	register(tagDirectLocationReference, types.DirectLocationReferenceTable, func(d *Database) (manager, error) { return newDirectLocationReferenceTable(d) })
}

// NetworkTable manages tnf_network.
type NetworkTable struct {
	*EntityTable[types.Network]
}

func newNetworkTable(d *Database) (*NetworkTable, error) {
	spec := TableSpec{
		Name: types.NetworkTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("type_of_transport", types.KindString),
			types.NotNull("geographical_name", types.KindString),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(n *types.Network) []any {
			return []any{n.OID, n.TypeOfTransport, n.GeographicalName}
		},
		func(r *Record) *types.Network {
			return &types.Network{
				OID:              r.String("oid"),
				TypeOfTransport:  r.String("type_of_transport"),
				GeographicalName: r.String("geographical_name"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &NetworkTable{et}, nil
}

// Get returns the network with the given oid.
func (t *NetworkTable) Get(oid string) (*types.Network, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the network with the given oid.
func (t *NetworkTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// Networks returns the session's tnf_network manager.
func (d *Database) Networks() (*NetworkTable, error) {
	return lookup[*NetworkTable](d, tagNetwork)
}

// NetworkReferenceTable manages tnf_network_reference. The table has no
// primary key; rows are addressed through their property.
type NetworkReferenceTable struct {
	*EntityTable[types.NetworkReference]
}

func newNetworkReferenceTable(d *Database) (*NetworkReferenceTable, error) {
	const table = types.NetworkReferenceTable
	spec := TableSpec{
		Name: table,
		Columns: []types.ColumnDescriptor{
			types.NotNull("property_oid", types.KindString),
			types.NotNull("network_reference_type", types.KindInt32),
			types.NotNull("network_element_ref", types.KindString),
			types.Col("applicable_direction", types.KindInt32),
			types.Col("applicable_side", types.KindInt32),
			types.Col("seq_no", types.KindInt32),
			types.Col("turn_oid_linear_element_from", types.KindString),
			types.Col("turn_from_direction", types.KindInt32),
			types.Col("turn_oid_linear_element_to", types.KindString),
			types.Col("turn_to_direction", types.KindInt32),
			types.Col("measure1", types.KindFloat64),
			types.Col("measure2", types.KindFloat64),
			types.Col("is_preferred", types.KindBool),
			types.Col("lanecode", types.KindString),
			types.Col("link_role", types.KindInt32),
			types.Col("is_host", types.KindBool),
		},
		Constraints: []string{
			"CONSTRAINT fk_tnrm_po FOREIGN KEY (property_oid) REFERENCES " + types.PropertyTable + "(oid)",
		},
		Indices: []string{
			"CREATE INDEX IF NOT EXISTS IDX_tnf_network_reference_property_oid ON " + table + "(property_oid)",
			"CREATE INDEX IF NOT EXISTS IDX_tnf_network_reference_network_element_ref ON " + table + "(network_element_ref)",
		},
	}
	spec.Triggers = append(spec.Triggers, checkPair(table, 1, []string{"applicable_direction"},
		"'applicable_direction' must be between -1 and 1.",
		"NEW.applicable_direction NOT BETWEEN -1 AND 1")...)
	spec.Triggers = append(spec.Triggers, checkPair(table, 2, []string{"applicable_side"},
		"'applicable_side' must be between -1 and 3.",
		"NEW.applicable_side NOT BETWEEN -1 AND 3")...)
	spec.Triggers = append(spec.Triggers, checkPair(table, 3, []string{"turn_oid_linear_element_from"},
		fmt.Sprintf("'turn_oid_linear_element_from' must be set when 'network_reference_type' = %d.", types.NetworkReferenceTurn),
		fmt.Sprintf("NEW.network_reference_type = %d AND NEW.turn_oid_linear_element_from IS NULL", types.NetworkReferenceTurn))...)

	et, err := newEntityTable(d, spec, networkReferenceValues, readNetworkReference)
	if err != nil {
		return nil, err
	}
	return &NetworkReferenceTable{et}, nil
}

func networkReferenceValues(n *types.NetworkReference) []any {
	return []any{
		n.PropertyOID, n.NetworkReferenceType, n.NetworkElementRef,
		n.ApplicableDirection, n.ApplicableSide, n.SeqNo,
		text(n.TurnOIDLinearElementFrom), n.TurnFromDirection,
		text(n.TurnOIDLinearElementTo), n.TurnToDirection,
		n.Measure1, n.Measure2, n.IsPreferred, text(n.Lanecode), n.LinkRole, n.IsHost,
	}
}

func readNetworkReference(r *Record) *types.NetworkReference {
	return &types.NetworkReference{
		PropertyOID:              r.String("property_oid"),
		NetworkReferenceType:     r.Int32("network_reference_type"),
		NetworkElementRef:        r.String("network_element_ref"),
		ApplicableDirection:      r.Int32Ptr("applicable_direction"),
		ApplicableSide:           r.Int32Ptr("applicable_side"),
		SeqNo:                    r.Int32Ptr("seq_no"),
		TurnOIDLinearElementFrom: r.String("turn_oid_linear_element_from"),
		TurnFromDirection:        r.Int32Ptr("turn_from_direction"),
		TurnOIDLinearElementTo:   r.String("turn_oid_linear_element_to"),
		TurnToDirection:          r.Int32Ptr("turn_to_direction"),
		Measure1:                 r.Float64Ptr("measure1"),
		Measure2:                 r.Float64Ptr("measure2"),
		IsPreferred:              r.BoolPtr("is_preferred"),
		Lanecode:                 r.String("lanecode"),
		LinkRole:                 r.Int32Ptr("link_role"),
		IsHost:                   r.BoolPtr("is_host"),
	}
}

// ByProperty returns the references of a property ordered by seq_no.
func (t *NetworkReferenceTable) ByProperty(propertyOID string) ([]*types.NetworkReference, error) {
	return t.selectWhere("WHERE property_oid = ? ORDER BY seq_no, rowid", propertyOID)
}

// DeleteByProperty removes every reference of a property.
func (t *NetworkReferenceTable) DeleteByProperty(propertyOID string) (int64, error) {
	return t.deleteWhere("property_oid = ?", propertyOID)
}

// NetworkReferences returns the session's tnf_network_reference manager.
func (d *Database) NetworkReferences() (*NetworkReferenceTable, error) {
	return lookup[*NetworkReferenceTable](d, tagNetworkReference)
}

// DirectLocationReferenceTable manages tnf_direct_location_reference.
type DirectLocationReferenceTable struct {
	*EntityTable[types.DirectLocationReference]
}

func newDirectLocationReferenceTable(d *Database) (*DirectLocationReferenceTable, error) {
	spec := TableSpec{
		Name: types.DirectLocationReferenceTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("property_oid", types.KindString),
			types.NotNull("location_reference_type", types.KindString),
			types.NotNull("location_reference", types.KindString),
			types.Col("seq_no", types.KindInt32),
		},
		PrimaryKey: "property_oid",
		Constraints: []string{
			"CONSTRAINT fk_tdlr_po FOREIGN KEY (property_oid) REFERENCES " + types.PropertyObjectTable + "(oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(l *types.DirectLocationReference) []any {
			return []any{l.PropertyOID, l.LocationReferenceType, l.LocationReference, l.SeqNo}
		},
		func(r *Record) *types.DirectLocationReference {
			return &types.DirectLocationReference{
				PropertyOID:           r.String("property_oid"),
				LocationReferenceType: r.String("location_reference_type"),
				LocationReference:     r.String("location_reference"),
				SeqNo:                 r.Int32Ptr("seq_no"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &DirectLocationReferenceTable{et}, nil
}

// Get returns the direct location reference of a property.
func (t *DirectLocationReferenceTable) Get(propertyOID string) (*types.DirectLocationReference, error) {
	return t.EntityTable.Get(propertyOID)
}

// Delete removes the direct location reference of a property.
func (t *DirectLocationReferenceTable) Delete(propertyOID string) (int64, error) {
	return t.TableManager.Delete(propertyOID)
}

// DirectLocationReferences returns the session's
// tnf_direct_location_reference manager.
func (d *Database) DirectLocationReferences() (*DirectLocationReferenceTable, error) {
	return lookup[*DirectLocationReferenceTable](d, tagDirectLocationReference)
}
