package types

import "github.com/google/uuid"

// GeoPackage core table names.
const (
	ContentsTable          = "gpkg_contents"
	GeometryColumnsTable   = "gpkg_geometry_columns"
	SpatialRefSysTable     = "gpkg_spatial_ref_sys"
	ExtensionsTable        = "gpkg_extensions"
	DataColumnsTable       = "gpkg_data_columns"
	GpkgMetadataTable      = "gpkg_metadata"
	MetadataReferenceTable = "gpkg_metadata_reference"
)

// OpenTNF table names.
const (
	NetworkTable                           = "tnf_network"
	NetworkReferenceTable                  = "tnf_network_reference"
	DirectLocationReferenceTable           = "tnf_direct_location_reference"
	LinkSequenceTable                      = "tnf_link_sequence"
	LinkTable                              = "tnf_link"
	NodeTable                              = "tnf_node"
	ConnectionPortTable                    = "tnf_connection_port"
	CatalogueTable                         = "tnf_catalogue"
	PropertyObjectTable                    = "tnf_property_object"
	PropertyTable                          = "tnf_property"
	PropertyObjectTypeTable                = "tnf_property_object_type"
	PropertyObjectPropertyTypeTable        = "tnf_property_object_property_type"
	ValidForTypeOfTransportTable           = "tnf_property_object_type_valid_for_type_of_transport"
	ValueDomainTable                       = "tnf_value_domain"
	StructuredValueDomainPropertyTypeTable = "tnf_structured_value_domain_property_type"
	ValidValueTable                        = "tnf_valid_value"
	SecondaryLRSTable                      = "tnf_secondary_lrs"
	SecondaryLRSIdentityTable              = "tnf_secondary_lrs_identity"
	ChangeTransactionTable                 = "tnf_change_transaction"
	ChangeTable                            = "tnf_change"
	TopologyLevelTable                     = "tnf_topology_level"
	AreaTable                              = "tnf_area"
	TaskTable                              = "tnf_task"
	TaskEditableTypeTable                  = "tnf_task_editable_type"
	MetadataTable                          = "tnf_metadata"
	ToDoListMessageTable                   = "tnf_todo_list_message"
	ToDoListDetailsTable                   = "tnf_todo_list_details"
)

// TopologyLevelColumn marks the topology-level variant of tnf_link.
const TopologyLevelColumn = "topology_level_oid"

// NewOID returns a fresh object identifier (UUID v7, falling back to v4).
func NewOID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// TableStatus describes one OpenTNF table of a file.
type TableStatus struct {
	Name   string `json:"name" yaml:"name"`
	Exists bool   `json:"exists" yaml:"exists"`
	Rows   int64  `json:"rows" yaml:"rows"`
}
