package types

import "time"

// Contents is a row of gpkg_contents.
type Contents struct {
	TableName   string    `json:"table_name" yaml:"table_name"`
	DataType    string    `json:"data_type" yaml:"data_type"`
	Identifier  string    `json:"identifier" yaml:"identifier"`
	Description string    `json:"description" yaml:"description"`
	LastChange  time.Time `json:"last_change" yaml:"last_change"`
	MinX        *float64  `json:"min_x,omitempty" yaml:"min_x,omitempty"`
	MinY        *float64  `json:"min_y,omitempty" yaml:"min_y,omitempty"`
	MaxX        *float64  `json:"max_x,omitempty" yaml:"max_x,omitempty"`
	MaxY        *float64  `json:"max_y,omitempty" yaml:"max_y,omitempty"`
	SRSID       *int32    `json:"srs_id,omitempty" yaml:"srs_id,omitempty"`
}

// Contents data types.
const (
	DataTypeFeatures   = "features"
	DataTypeAttributes = "attributes"
)

// GeometryColumn is a row of gpkg_geometry_columns. Z and M are 0
// (prohibited), 1 (mandatory) or 2 (optional).
type GeometryColumn struct {
	TableName        string
	ColumnName       string
	GeometryTypeName string
	SRSID            int32
	Z                int8
	M                int8
}

// SpatialRefSys is a row of gpkg_spatial_ref_sys.
type SpatialRefSys struct {
	SRSName                string
	SRSID                  int32
	Organization           string
	OrganizationCoordsysID int32
	Definition             string
	Description            string
}

// Extension is a row of gpkg_extensions.
type Extension struct {
	TableName     string
	ColumnName    string
	ExtensionName string
	Definition    string
	Scope         string
}

// DataColumn is a row of gpkg_data_columns.
type DataColumn struct {
	TableName      string
	ColumnName     string
	Name           string
	Title          string
	Description    string
	MIMEType       string
	ConstraintName string
}

// GpkgMetadata is a row of gpkg_metadata.
type GpkgMetadata struct {
	ID          int64
	Scope       string
	StandardURI string
	MIMEType    string
	Metadata    string
}

// MetadataReference is a row of gpkg_metadata_reference.
type MetadataReference struct {
	ReferenceScope string
	TableName      string
	ColumnName     string
	RowIDValue     *int64
	Timestamp      time.Time
	FileID         int64
	ParentID       *int64
}

// Metadata is a row of tnf_metadata.
type Metadata struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Metadata keys written when a dataset is created.
const (
	MetaVersion                  = "TNF_VERSION"
	MetaDatasetIdentifier        = "TNF_DATASET_IDENTIFIER"
	MetaDatasetTimestamp         = "TNF_DATASET_TIMESTAMP"
	MetaViewDate                 = "TNF_VIEW_DATE"
	MetaCRSName                  = "TNF_CRS_NAME"
	MetaDatasetType              = "TNF_DATASET_TYPE"
	MetaSpatialAttributeEncoding = "TNF_SPATIAL_ATTRIBUTE_ENCODING"
	MetaCoordSystemID            = "GT_COORD_SYSTEM_ID"
)

// Values written for the version and encoding metadata keys.
const (
	FormatVersion            = "1.2"
	SpatialAttributeEncoding = "GPKG"
)
