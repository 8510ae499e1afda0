// This file implements the topology tables: link sequences, links, nodes,
// connection ports and topology levels.
package sqlite

import "github.com/opentnf/tnfpkg/pkg/types"

func init() {
	register(tagLinkSequence, types.LinkSequenceTable, func(d *Database) (manager, error) { return newLinkSequenceTable(d) })
	register(tagLink, types.LinkTable, func(d *Database) (manager, error) { return newLinkTable(d) })
	register(tagNode, types.NodeTable, func(d *Database) (manager, error) { return newNodeTable(d) })
	register(tagConnectionPort, types.ConnectionPortTable, func(d *Database) (manager, error) { return newConnectionPortTable(d) })
	register(tagTopologyLevel, types.TopologyLevelTable, func(d *Database) (manager, error) { return newTopologyLevelTable(d) })
}

// LinkSequenceTable manages tnf_link_sequence, a LINESTRING feature table.
type LinkSequenceTable struct {
	*EntityTable[types.LinkSequence]
}

func newLinkSequenceTable(d *Database) (*LinkSequenceTable, error) {
	spec := TableSpec{
		Name: types.LinkSequenceTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.Col("vid", types.KindString),
			types.Col("network_oid", types.KindString),
			types.Col("next_free_port_number", types.KindInt32),
			types.Geometry("geometry", types.StorageLineString),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(s *types.LinkSequence) []any {
			return []any{s.OID, text(s.VID), text(s.NetworkOID), s.NextFreePortNumber, blob(s.Geometry)}
		},
		func(r *Record) *types.LinkSequence {
			return &types.LinkSequence{
				OID:                r.String("oid"),
				VID:                r.String("vid"),
				NetworkOID:         r.String("network_oid"),
				NextFreePortNumber: r.Int32Ptr("next_free_port_number"),
				Geometry:           r.Bytes("geometry"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &LinkSequenceTable{et}, nil
}

// Get returns the link sequence with the given oid.
func (t *LinkSequenceTable) Get(oid string) (*types.LinkSequence, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the link sequence with the given oid.
func (t *LinkSequenceTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// LinkSequences returns the session's tnf_link_sequence manager.
func (d *Database) LinkSequences() (*LinkSequenceTable, error) {
	return lookup[*LinkSequenceTable](d, tagLinkSequence)
}

// LinkTable manages tnf_link. Which columns it carries depends on the
// session's topology-level variant at construction. The table has no
// primary key.
type LinkTable struct {
	*EntityTable[types.Link]
	topology bool
}

func linkColumns(topology bool) []types.ColumnDescriptor {
	cols := []types.ColumnDescriptor{
		types.Col("network_oid", types.KindString),
		types.Col("length", types.KindFloat64),
		types.Col("measure_from", types.KindFloat64),
		types.Col("measure_to", types.KindFloat64),
		types.Col("link_sequence_oid", types.KindString),
		types.Col("valid_from", types.KindTime),
		types.Col("valid_to", types.KindTime),
		types.Col("node_oid_start", types.KindString),
		types.Col("node_oid_end", types.KindString),
	}
	if !topology {
		return cols
	}
	return append(cols,
		types.Col("lanecode", types.KindString),
		types.Col("super_link_sequence_oid", types.KindString),
		types.Col("super_measure_from", types.KindFloat64),
		types.Col("super_measure_to", types.KindFloat64),
		types.Col("direction", types.KindInt32),
		types.Col(types.TopologyLevelColumn, types.KindString),
	)
}

func newLinkTable(d *Database) (*LinkTable, error) {
	exists, topology, err := d.linkTopology()
	if err != nil {
		return nil, err
	}
	if exists {
		d.hasTopologyLevel = topology
	} else {
		topology = d.hasTopologyLevel
	}
	spec := TableSpec{
		Name:    types.LinkTable,
		Columns: linkColumns(topology),
		Indices: []string{
			"CREATE INDEX IF NOT EXISTS IDX_tnf_link_link_sequence_oid ON " + types.LinkTable + "(link_sequence_oid)",
		},
	}
	values := func(l *types.Link) []any {
		v := []any{text(l.NetworkOID), l.Length, l.MeasureFrom, l.MeasureTo, text(l.LinkSequenceOID),
			l.ValidFrom, l.ValidTo, text(l.NodeOIDStart), text(l.NodeOIDEnd)}
		if topology {
			v = append(v, text(l.Lanecode), text(l.SuperLinkSequenceOID), l.SuperMeasureFrom,
				l.SuperMeasureTo, l.Direction, text(l.TopologyLevelOID))
		}
		return v
	}
	et, err := newEntityTable(d, spec, values, readLink)
	if err != nil {
		return nil, err
	}
	return &LinkTable{EntityTable: et, topology: topology}, nil
}

func readLink(r *Record) *types.Link {
	return &types.Link{
		NetworkOID:           r.String("network_oid"),
		Length:               r.Float64Ptr("length"),
		MeasureFrom:          r.Float64Ptr("measure_from"),
		MeasureTo:            r.Float64Ptr("measure_to"),
		LinkSequenceOID:      r.String("link_sequence_oid"),
		ValidFrom:            r.TimePtr("valid_from"),
		ValidTo:              r.TimePtr("valid_to"),
		NodeOIDStart:         r.String("node_oid_start"),
		NodeOIDEnd:           r.String("node_oid_end"),
		Lanecode:             r.String("lanecode"),
		SuperLinkSequenceOID: r.String("super_link_sequence_oid"),
		SuperMeasureFrom:     r.Float64Ptr("super_measure_from"),
		SuperMeasureTo:       r.Float64Ptr("super_measure_to"),
		Direction:            r.Int32Ptr("direction"),
		TopologyLevelOID:     r.String(types.TopologyLevelColumn),
	}
}

// HasTopologyLevel reports whether the manager reads and writes the
// topology-level columns.
func (t *LinkTable) HasTopologyLevel() bool { return t.topology }

// GetByLinkSequence returns the links along a link sequence ordered by
// measure_from.
func (t *LinkTable) GetByLinkSequence(linkSequenceOID string) ([]*types.Link, error) {
	return t.selectWhere("WHERE link_sequence_oid = ? ORDER BY measure_from", linkSequenceOID)
}

// DeleteByLinkSequence removes every link along a link sequence.
func (t *LinkTable) DeleteByLinkSequence(linkSequenceOID string) (int64, error) {
	return t.deleteWhere("link_sequence_oid = ?", linkSequenceOID)
}

// Links returns the session's tnf_link manager.
func (d *Database) Links() (*LinkTable, error) {
	return lookup[*LinkTable](d, tagLink)
}

// NodeTable manages tnf_node, a POINT feature table.
type NodeTable struct {
	*EntityTable[types.Node]
}

func newNodeTable(d *Database) (*NodeTable, error) {
	spec := TableSpec{
		Name: types.NodeTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.Col("vid", types.KindString),
			types.Col("network_oid", types.KindString),
			types.Geometry("geometry", types.StoragePoint),
			types.Col("next_free_port_number", types.KindInt32),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(n *types.Node) []any {
			return []any{n.OID, text(n.VID), text(n.NetworkOID), blob(n.Geometry), n.NextFreePortNumber}
		},
		func(r *Record) *types.Node {
			return &types.Node{
				OID:                r.String("oid"),
				VID:                r.String("vid"),
				NetworkOID:         r.String("network_oid"),
				Geometry:           r.Bytes("geometry"),
				NextFreePortNumber: r.Int32Ptr("next_free_port_number"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &NodeTable{et}, nil
}

// Get returns the node with the given oid.
func (t *NodeTable) Get(oid string) (*types.Node, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the node with the given oid.
func (t *NodeTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// Nodes returns the session's tnf_node manager.
func (d *Database) Nodes() (*NodeTable, error) {
	return lookup[*NodeTable](d, tagNode)
}

// ConnectionPortTable manages tnf_connection_port.
type ConnectionPortTable struct {
	*EntityTable[types.ConnectionPort]
}

func newConnectionPortTable(d *Database) (*ConnectionPortTable, error) {
	const table = types.ConnectionPortTable
	spec := TableSpec{
		Name: table,
		Columns: []types.ColumnDescriptor{
			types.NotNull("link_sequence_oid", types.KindString),
			types.NotNull("port_number", types.KindInt32),
			types.NotNull("distance", types.KindFloat64),
			types.NotNull("node_oid", types.KindString),
			types.NotNull("node_port_number", types.KindInt32),
		},
		PrimaryKey: "link_sequence_oid, port_number, node_oid, node_port_number",
		Indices: []string{
			"CREATE INDEX IF NOT EXISTS IDX_tnf_connection_port_node_oid ON " + table + "(node_oid)",
			"CREATE INDEX IF NOT EXISTS IDX_tnf_connection_port_link_sequence_oid ON " + table + "(link_sequence_oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(p *types.ConnectionPort) []any {
			return []any{p.LinkSequenceOID, p.PortNumber, p.Distance, p.NodeOID, p.NodePortNumber}
		},
		func(r *Record) *types.ConnectionPort {
			return &types.ConnectionPort{
				LinkSequenceOID: r.String("link_sequence_oid"),
				PortNumber:      r.Int32("port_number"),
				Distance:        r.Float64("distance"),
				NodeOID:         r.String("node_oid"),
				NodePortNumber:  r.Int32("node_port_number"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ConnectionPortTable{et}, nil
}

// ByLinkSequence returns the ports of a link sequence.
func (t *ConnectionPortTable) ByLinkSequence(linkSequenceOID string) ([]*types.ConnectionPort, error) {
	return t.selectWhere("WHERE link_sequence_oid = ? ORDER BY port_number, rowid", linkSequenceOID)
}

// ByPort returns the ports with the given number on a link sequence.
func (t *ConnectionPortTable) ByPort(linkSequenceOID string, port int32) ([]*types.ConnectionPort, error) {
	return t.selectWhere("WHERE link_sequence_oid = ? AND port_number = ? ORDER BY rowid", linkSequenceOID, port)
}

// ByNode returns the ports attached to a node.
func (t *ConnectionPortTable) ByNode(nodeOID string) ([]*types.ConnectionPort, error) {
	return t.selectWhere("WHERE node_oid = ? ORDER BY rowid", nodeOID)
}

// ConnectionPorts returns the session's tnf_connection_port manager.
func (d *Database) ConnectionPorts() (*ConnectionPortTable, error) {
	return lookup[*ConnectionPortTable](d, tagConnectionPort)
}

// TopologyLevelTable manages tnf_topology_level. Older files lack
// network_oid; on those the table is read-only and keyed by oid alone.
type TopologyLevelTable struct {
	*EntityTable[types.TopologyLevel]
}

func newTopologyLevelTable(d *Database) (*TopologyLevelTable, error) {
	spec := TableSpec{
		Name: types.TopologyLevelTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("network_oid", types.KindString).Tolerant(),
			types.NotNull("topology_level", types.KindString),
			types.NotNull("topology_level_descr", types.KindString),
		},
		PrimaryKey: "oid, network_oid",
	}
	et, err := newEntityTable(d, spec,
		func(l *types.TopologyLevel) []any {
			return []any{l.OID, l.NetworkOID, l.TopologyLevel, l.TopologyLevelDescr}
		},
		func(r *Record) *types.TopologyLevel {
			return &types.TopologyLevel{
				OID:                r.String("oid"),
				NetworkOID:         r.String("network_oid"),
				TopologyLevel:      r.String("topology_level"),
				TopologyLevelDescr: r.String("topology_level_descr"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &TopologyLevelTable{et}, nil
}

// Get returns the topology level oid of network networkOID.
func (t *TopologyLevelTable) Get(oid, networkOID string) (*types.TopologyLevel, error) {
	return t.EntityTable.Get(oid, networkOID)
}

// Delete removes a topology level.
func (t *TopologyLevelTable) Delete(oid, networkOID string) (int64, error) {
	return t.TableManager.Delete(oid, networkOID)
}

// TopologyLevels returns the session's tnf_topology_level manager.
func (d *Database) TopologyLevels() (*TopologyLevelTable, error) {
	return lookup[*TopologyLevelTable](d, tagTopologyLevel)
}
