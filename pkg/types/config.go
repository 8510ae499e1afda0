package types

import (
	"errors"
	"strings"
	"time"
)

// DataSetType declares what kind of dataset a file carries.
type DataSetType string

// Dataset types written to the TNF_DATASET_TYPE metadata key.
const (
	DataSetSnapshot DataSetType = "SNAPSHOT"
	DataSetUpdates  DataSetType = "UPDATES"
)

// ParseDataSetType accepts the metadata spelling in any case.
func ParseDataSetType(s string) (DataSetType, error) {
	switch DataSetType(strings.ToUpper(strings.TrimSpace(s))) {
	case DataSetSnapshot:
		return DataSetSnapshot, nil
	case DataSetUpdates:
		return DataSetUpdates, nil
	}
	return "", ErrDataSetTypeUnknown
}

// DatasetConfig holds the parameters of Database.Create.
type DatasetConfig struct {
	// SRID is the spatial reference of every geometry in the file.
	SRID int `json:"srid" yaml:"srid"`

	// CoordSystem names the coordinate system used for coordinate
	// transformations. Empty omits the GT_COORD_SYSTEM_ID metadata row.
	CoordSystem string `json:"coord_system,omitempty" yaml:"coord_system,omitempty"`

	DatasetIdentifier string      `json:"dataset_identifier" yaml:"dataset_identifier"`
	DataSetType       DataSetType `json:"dataset_type" yaml:"dataset_type"`
	ViewDate          *time.Time  `json:"view_date,omitempty" yaml:"view_date,omitempty"`

	// HasTopologyLevel creates tnf_link with the topology-level columns.
	HasTopologyLevel bool `json:"has_topology_level" yaml:"has_topology_level"`

	// CreateTables creates every OpenTNF table up front instead of on
	// first use.
	CreateTables bool `json:"create_tables" yaml:"create_tables"`
}

// Dataset configuration errors.
var (
	ErrSRIDInvalid            = errors.New("srid must not be negative")
	ErrDatasetIdentifierEmpty = errors.New("dataset identifier must not be empty")
	ErrDataSetTypeUnknown     = errors.New("unknown dataset type")
)

// Validate checks that the configuration is well-formed. It returns a
// sentinel error from this package on failure.
func (c DatasetConfig) Validate() error {
	if c.SRID < 0 {
		return ErrSRIDInvalid
	}
	if strings.TrimSpace(c.DatasetIdentifier) == "" {
		return ErrDatasetIdentifierEmpty
	}
	if _, err := ParseDataSetType(string(c.DataSetType)); err != nil {
		return err
	}
	return nil
}
