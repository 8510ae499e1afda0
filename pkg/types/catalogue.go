package types

import "time"

// Catalogue is a row of tnf_catalogue.
type Catalogue struct {
	OID              string
	Name             string
	Version          string
	DefinitionSource string
	Description      string
}

// PropertyObject is a row of tnf_property_object.
type PropertyObject struct {
	OID                   string
	CatalogueOID          string
	PropertyObjectTypeOID string
	VID                   string
}

// Property is a row of tnf_property. AttributeValues holds the serialized
// attribute tree of the property.
type Property struct {
	OID               string
	PropertyObjectOID string
	ValidFrom         *time.Time
	ValidTo           *time.Time
	AttributeValues   string
}

// PropertyObjectType is a row of tnf_property_object_type.
type PropertyObjectType struct {
	OID                       string
	CatalogueOID              string
	Name                      string
	Description               string
	NetworkReferenceType      int32
	HasSide                   bool
	HasDirection              bool
	MustCover                 bool
	CanOverlap                bool
	HasHistory                bool
	HasLanecode               bool
	NetworkReferencesMin      int32
	NetworkReferencesMax      int32
	ValidFrom                 *time.Time
	ValidTo                   *time.Time
	Shortname                 string
	AttributeFormat           string
	OrderedNetworkReferences  *bool
	NetworkReferenceClass     string
	BaseCatalogueOID          *int32
	BasePropertyObjectTypeOID *int32
	IsDerived                 *bool
}

// PropertyObjectPropertyType is a row of tnf_property_object_property_type.
type PropertyObjectPropertyType struct {
	OID                        string
	CatalogueOID               string
	PropertyObjectTypeOID      string
	MultiplicityMin            int32
	MultiplicityMax            int32
	Mandatory                  bool
	Name                       string
	Description                string
	Shortname                  string
	ValidFrom                  *time.Time
	ValidTo                    *time.Time
	AssocPropertyObjectTypeOID string
	AssocType                  string
	ValueDomainOID             string
}

// ValidForTypeOfTransport is a row of
// tnf_property_object_type_valid_for_type_of_transport.
type ValidForTypeOfTransport struct {
	PropertyObjectTypeOID string
	CatalogueOID          string
	TypeOfTransport       string
}

// ValueDomain is a row of tnf_value_domain.
type ValueDomain struct {
	OID             string
	CatalogueOID    string
	ValueDomainType string
	Name            string
	Shortname       string
	Description     string
	Datatype        string
	NrDec           *int32
	IsUnion         *bool
	Unit            string
	NrChar          *int32
}

// StructuredValueDomainPropertyType is a row of
// tnf_structured_value_domain_property_type.
type StructuredValueDomainPropertyType struct {
	OID                      string
	CatalogueOID             string
	StructuredValueDomainOID string
	ValueDomainOID           string
	MultiplicityMin          int32
	MultiplicityMax          int32
	Mandatory                bool
	Name                     string
	Description              string
	Shortname                string
	ValidFrom                *time.Time
	ValidTo                  *time.Time
}

// ValidValue is a row of tnf_valid_value. At most one of the conditional
// argument groups (double range, integer range, datetime range, enum code,
// value string) may be set; the file's triggers reject anything else.
type ValidValue struct {
	ValueDomainOID   string
	CatalogueOID     string
	Description      string
	SeqNo            int32
	ValidFrom        *time.Time
	ValidTo          *time.Time
	MinValueDouble   *float64
	MaxValueDouble   *float64
	MinValueInteger  *int32
	MaxValueInteger  *int32
	ValueString      string
	MinValueDateTime *time.Time
	MaxValueDateTime *time.Time
	EnumCode         *int32
	Rank             *int32
}

// SecondaryLRS is a row of tnf_secondary_lrs.
type SecondaryLRS struct {
	OID                                string
	Name                               string
	Type                               int32
	CatalogueOID                       string
	PropertyObjectTypeOID              string
	AssocReferentPropertyObjectTypeOID string
	Measure1PropertyTypeOID            string
	Measure2PropertyTypeOID            string
	WhereClause                        string
	SequencePropertyTypeOID            string
	OrderDescending                    *bool
}

// SecondaryLRSIdentity is a row of tnf_secondary_lrs_identity.
type SecondaryLRSIdentity struct {
	LRSOID              string
	IdentityPropertyOID string
}
