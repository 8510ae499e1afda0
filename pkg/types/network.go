package types

import "time"

// Network is a row of tnf_network.
type Network struct {
	OID              string
	TypeOfTransport  string
	GeographicalName string
}

// LinkSequence is a row of tnf_link_sequence. Geometry holds a GeoPackage
// LINESTRING blob.
type LinkSequence struct {
	OID                string
	VID                string
	NetworkOID         string
	NextFreePortNumber *int32
	Geometry           []byte
}

// Node is a row of tnf_node. Geometry holds a GeoPackage POINT blob.
type Node struct {
	OID                string
	VID                string
	NetworkOID         string
	Geometry           []byte
	NextFreePortNumber *int32
}

// Link is a row of tnf_link. The topology-level fields are only stored
// when the file carries the topology-level variant of the table.
type Link struct {
	NetworkOID      string
	Length          *float64
	MeasureFrom     *float64
	MeasureTo       *float64
	LinkSequenceOID string
	ValidFrom       *time.Time
	ValidTo         *time.Time
	NodeOIDStart    string
	NodeOIDEnd      string

	Lanecode             string
	SuperLinkSequenceOID string
	SuperMeasureFrom     *float64
	SuperMeasureTo       *float64
	Direction            *int32
	TopologyLevelOID     string
}

// ConnectionPort is a row of tnf_connection_port.
type ConnectionPort struct {
	LinkSequenceOID string
	PortNumber      int32
	Distance        float64
	NodeOID         string
	NodePortNumber  int32
}

// TopologyLevel is a row of tnf_topology_level.
type TopologyLevel struct {
	OID                string
	NetworkOID         string
	TopologyLevel      string
	TopologyLevelDescr string
}

// NetworkReferenceType values stored in tnf_network_reference.
const (
	NetworkReferenceNode        int32 = 1
	NetworkReferenceLink        int32 = 2
	NetworkReferenceLinkSegment int32 = 4
	NetworkReferenceConnection  int32 = 8
	NetworkReferencePointOnLink int32 = 16
	NetworkReferenceArea        int32 = 32
	NetworkReferenceTurn        int32 = 64
)

// NetworkReference is a row of tnf_network_reference. The table has no
// primary key.
type NetworkReference struct {
	PropertyOID              string
	NetworkReferenceType     int32
	NetworkElementRef        string
	ApplicableDirection      *int32
	ApplicableSide           *int32
	SeqNo                    *int32
	TurnOIDLinearElementFrom string
	TurnFromDirection        *int32
	TurnOIDLinearElementTo   string
	TurnToDirection          *int32
	Measure1                 *float64
	Measure2                 *float64
	IsPreferred              *bool
	Lanecode                 string
	LinkRole                 *int32
	IsHost                   *bool
}

// DirectLocationReference is a row of tnf_direct_location_reference.
type DirectLocationReference struct {
	PropertyOID           string
	LocationReferenceType string
	LocationReference     string
	SeqNo                 *int32
}
