// This file implements the feature catalogue tables and the property
// tables that instantiate them.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/opentnf/tnfpkg/internal/attr"
	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagCatalogue, types.CatalogueTable, func(d *Database) (manager, error) { return newCatalogueTable(d) })
	register(tagPropertyObject, types.PropertyObjectTable, func(d *Database) (manager, error) { return newPropertyObjectTable(d) })
	register(tagProperty, types.PropertyTable, func(d *Database) (manager, error) { return newPropertyTable(d) })
	register(tagPropertyObjectType, types.PropertyObjectTypeTable, func(d *Database) (manager, error) { return newPropertyObjectTypeTable(d) })
	register(tagPropertyObjectPropertyType, types.PropertyObjectPropertyTypeTable, func(d *Database) (manager, error) { return newPropertyObjectPropertyTypeTable(d) })
	register(tagValidForTypeOfTransport, types.ValidForTypeOfTransportTable, func(d *Database) (manager, error) { return newValidForTypeOfTransportTable(d) })
	register(tagValueDomain, types.ValueDomainTable, func(d *Database) (manager, error) { return newValueDomainTable(d) })
	register(tagStructuredValueDomainPropertyType, types.StructuredValueDomainPropertyTypeTable, func(d *Database) (manager, error) { return newStructuredValueDomainPropertyTypeTable(d) })
	register(tagValidValue, types.ValidValueTable, func(d *Database) (manager, error) { return newValidValueTable(d) })
	register(tagSecondaryLRS, types.SecondaryLRSTable, func(d *Database) (manager, error) { return newSecondaryLRSTable(d) })
	register(tagSecondaryLRSIdentity, types.SecondaryLRSIdentityTable, func(d *Database) (manager, error) { return newSecondaryLRSIdentityTable(d) })
}

func referencesCatalogue(name string) string {
	return "CONSTRAINT " + name + " FOREIGN KEY (catalogue_oid) REFERENCES " + types.CatalogueTable + "(oid)"
}

// CatalogueTable manages tnf_catalogue. Files written before description
// existed are read-only.
type CatalogueTable struct {
	*EntityTable[types.Catalogue]
}

func newCatalogueTable(d *Database) (*CatalogueTable, error) {
	spec := TableSpec{
		Name: types.CatalogueTable,
		Columns: []types.ColumnDescriptor{
			types.Col("oid", types.KindString),
			types.Col("name", types.KindString),
			types.Col("version", types.KindString),
			types.Col("definition_source", types.KindString),
			types.Col("description", types.KindString).Tolerant(),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(c *types.Catalogue) []any {
			return []any{c.OID, text(c.Name), text(c.Version), text(c.DefinitionSource), text(c.Description)}
		},
		func(r *Record) *types.Catalogue {
			return &types.Catalogue{
				OID:              r.String("oid"),
				Name:             r.String("name"),
				Version:          r.String("version"),
				DefinitionSource: r.String("definition_source"),
				Description:      r.String("description"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &CatalogueTable{et}, nil
}

// Get returns the catalogue with the given oid.
func (t *CatalogueTable) Get(oid string) (*types.Catalogue, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the catalogue with the given oid.
func (t *CatalogueTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// Catalogues returns the session's tnf_catalogue manager.
func (d *Database) Catalogues() (*CatalogueTable, error) {
	return lookup[*CatalogueTable](d, tagCatalogue)
}

// PropertyObjectTable manages tnf_property_object.
type PropertyObjectTable struct {
	*EntityTable[types.PropertyObject]
}

func newPropertyObjectTable(d *Database) (*PropertyObjectTable, error) {
	spec := TableSpec{
		Name: types.PropertyObjectTable,
		Columns: []types.ColumnDescriptor{
			types.Col("oid", types.KindString),
			types.Col("catalogue_oid", types.KindString),
			types.Col("property_object_type_oid", types.KindString),
			types.Col("vid", types.KindString),
		},
		PrimaryKey: "oid",
		Constraints: []string{
			referencesCatalogue("fk_tpo_co"),
			"CONSTRAINT fk_tpo_co_poto FOREIGN KEY (property_object_type_oid, catalogue_oid) REFERENCES " +
				types.PropertyObjectTypeTable + "(oid, catalogue_oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(p *types.PropertyObject) []any {
			return []any{p.OID, text(p.CatalogueOID), text(p.PropertyObjectTypeOID), text(p.VID)}
		},
		func(r *Record) *types.PropertyObject {
			return &types.PropertyObject{
				OID:                   r.String("oid"),
				CatalogueOID:          r.String("catalogue_oid"),
				PropertyObjectTypeOID: r.String("property_object_type_oid"),
				VID:                   r.String("vid"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &PropertyObjectTable{et}, nil
}

// Get returns the property object with the given oid.
func (t *PropertyObjectTable) Get(oid string) (*types.PropertyObject, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the property object with the given oid.
func (t *PropertyObjectTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// ByType returns the property objects of one property object type.
func (t *PropertyObjectTable) ByType(catalogueOID, propertyObjectTypeOID string) ([]*types.PropertyObject, error) {
	return t.selectWhere("WHERE catalogue_oid = ? AND property_object_type_oid = ? ORDER BY rowid",
		catalogueOID, propertyObjectTypeOID)
}

// PropertyObjects returns the session's tnf_property_object manager.
func (d *Database) PropertyObjects() (*PropertyObjectTable, error) {
	return lookup[*PropertyObjectTable](d, tagPropertyObject)
}

// PropertyTable manages tnf_property.
type PropertyTable struct {
	*EntityTable[types.Property]
}

func newPropertyTable(d *Database) (*PropertyTable, error) {
	spec := TableSpec{
		Name: types.PropertyTable,
		Columns: []types.ColumnDescriptor{
			types.Col("oid", types.KindString),
			types.Col("property_object_oid", types.KindString),
			types.Col("valid_from", types.KindTime),
			types.Col("valid_to", types.KindTime),
			types.Col("attribute_values", types.KindString),
		},
		PrimaryKey: "oid",
		Constraints: []string{
			"CONSTRAINT fk_tpm_poo FOREIGN KEY (property_object_oid) REFERENCES " + types.PropertyObjectTable + "(oid)",
		},
		Indices: []string{
			"CREATE INDEX IF NOT EXISTS IDX_tnf_property_property_object_oid ON " + types.PropertyTable + "(property_object_oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(p *types.Property) []any {
			return []any{p.OID, text(p.PropertyObjectOID), p.ValidFrom, p.ValidTo, text(p.AttributeValues)}
		},
		func(r *Record) *types.Property {
			return &types.Property{
				OID:               r.String("oid"),
				PropertyObjectOID: r.String("property_object_oid"),
				ValidFrom:         r.TimePtr("valid_from"),
				ValidTo:           r.TimePtr("valid_to"),
				AttributeValues:   r.String("attribute_values"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &PropertyTable{et}, nil
}

// Get returns the property with the given oid.
func (t *PropertyTable) Get(oid string) (*types.Property, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the property with the given oid.
func (t *PropertyTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// ByPropertyObject returns the versions of a property object ordered by
// valid_from.
func (t *PropertyTable) ByPropertyObject(propertyObjectOID string) ([]*types.Property, error) {
	return t.selectWhere("WHERE property_object_oid = ? ORDER BY valid_from", propertyObjectOID)
}

// AttributesOf decodes the attribute tree of a property. A property with
// no attribute document yields an empty tree.
func (t *PropertyTable) AttributesOf(oid string) (*attr.Attributes, error) {
	p, err := t.Get(oid)
	if err != nil {
		return nil, err
	}
	if p.AttributeValues == "" {
		return &attr.Attributes{}, nil
	}
	a, err := attr.Unmarshal(p.AttributeValues)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", oid, err)
	}
	return a, nil
}

// SetAttributes replaces the attribute document of a property.
func (t *PropertyTable) SetAttributes(oid string, a *attr.Attributes) error {
	p, err := t.Get(oid)
	if err != nil {
		return err
	}
	doc, err := attr.Marshal(a)
	if err != nil {
		return err
	}
	p.AttributeValues = doc
	if _, err := t.Update(p); err != nil {
		return fmt.Errorf("property %s: %w", oid, err)
	}
	return nil
}

// Properties returns the session's tnf_property manager.
func (d *Database) Properties() (*PropertyTable, error) {
	return lookup[*PropertyTable](d, tagProperty)
}

// PropertyObjectTypeTable manages tnf_property_object_type. Files written
// before is_derived existed are read-only.
type PropertyObjectTypeTable struct {
	*EntityTable[types.PropertyObjectType]
}

func newPropertyObjectTypeTable(d *Database) (*PropertyObjectTypeTable, error) {
	spec := TableSpec{
		Name: types.PropertyObjectTypeTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("catalogue_oid", types.KindString),
			types.Col("name", types.KindString),
			types.Col("description", types.KindString),
			types.NotNull("network_reference_type", types.KindInt32),
			types.NotNull("has_side", types.KindBool),
			types.NotNull("has_direction", types.KindBool),
			types.NotNull("must_cover", types.KindBool),
			types.NotNull("can_overlap", types.KindBool),
			types.NotNull("has_history", types.KindBool),
			types.NotNull("has_lanecode", types.KindBool),
			types.NotNull("network_references_min", types.KindInt32),
			types.NotNull("network_references_max", types.KindInt32),
			types.Col("valid_from", types.KindTime),
			types.Col("valid_to", types.KindTime),
			types.Col("shortname", types.KindString),
			types.NotNull("attribute_format", types.KindString),
			types.Col("ordered_network_references", types.KindBool),
			types.Col("network_reference_class", types.KindString),
			types.Col("base_catalogue_oid", types.KindInt32),
			types.Col("base_property_object_type_oid", types.KindInt32),
			types.Col("is_derived", types.KindBool).Tolerant(),
		},
		PrimaryKey: "oid, catalogue_oid",
		Constraints: []string{
			referencesCatalogue("fk_tpot_co"),
			"CONSTRAINT check_tpot_network_references CHECK (network_references_min >= 0 AND network_references_max >= -1)",
		},
	}
	et, err := newEntityTable(d, spec, propertyObjectTypeValues, readPropertyObjectType)
	if err != nil {
		return nil, err
	}
	return &PropertyObjectTypeTable{et}, nil
}

func propertyObjectTypeValues(p *types.PropertyObjectType) []any {
	return []any{
		p.OID, p.CatalogueOID, text(p.Name), text(p.Description), p.NetworkReferenceType,
		p.HasSide, p.HasDirection, p.MustCover, p.CanOverlap, p.HasHistory, p.HasLanecode,
		p.NetworkReferencesMin, p.NetworkReferencesMax, p.ValidFrom, p.ValidTo, text(p.Shortname),
		p.AttributeFormat, p.OrderedNetworkReferences, text(p.NetworkReferenceClass),
		p.BaseCatalogueOID, p.BasePropertyObjectTypeOID, p.IsDerived,
	}
}

func readPropertyObjectType(r *Record) *types.PropertyObjectType {
	return &types.PropertyObjectType{
		OID:                       r.String("oid"),
		CatalogueOID:              r.String("catalogue_oid"),
		Name:                      r.String("name"),
		Description:               r.String("description"),
		NetworkReferenceType:      r.Int32("network_reference_type"),
		HasSide:                   r.Bool("has_side"),
		HasDirection:              r.Bool("has_direction"),
		MustCover:                 r.Bool("must_cover"),
		CanOverlap:                r.Bool("can_overlap"),
		HasHistory:                r.Bool("has_history"),
		HasLanecode:               r.Bool("has_lanecode"),
		NetworkReferencesMin:      r.Int32("network_references_min"),
		NetworkReferencesMax:      r.Int32("network_references_max"),
		ValidFrom:                 r.TimePtr("valid_from"),
		ValidTo:                   r.TimePtr("valid_to"),
		Shortname:                 r.String("shortname"),
		AttributeFormat:           r.String("attribute_format"),
		OrderedNetworkReferences:  r.BoolPtr("ordered_network_references"),
		NetworkReferenceClass:     r.String("network_reference_class"),
		BaseCatalogueOID:          r.Int32Ptr("base_catalogue_oid"),
		BasePropertyObjectTypeOID: r.Int32Ptr("base_property_object_type_oid"),
		IsDerived:                 r.BoolPtr("is_derived"),
	}
}

// Get returns the property object type oid of a catalogue.
func (t *PropertyObjectTypeTable) Get(oid, catalogueOID string) (*types.PropertyObjectType, error) {
	return t.EntityTable.Get(oid, catalogueOID)
}

// Delete removes a property object type.
func (t *PropertyObjectTypeTable) Delete(oid, catalogueOID string) (int64, error) {
	return t.TableManager.Delete(oid, catalogueOID)
}

// ByCatalogue returns the property object types of a catalogue.
func (t *PropertyObjectTypeTable) ByCatalogue(catalogueOID string) ([]*types.PropertyObjectType, error) {
	return t.selectWhere("WHERE catalogue_oid = ? ORDER BY rowid", catalogueOID)
}

// NextOID returns the next free numeric oid in a catalogue.
func (t *PropertyObjectTypeTable) NextOID(catalogueOID string) (int64, error) {
	return t.nextOID(catalogueOID)
}

// PropertyObjectTypes returns the session's tnf_property_object_type manager.
func (d *Database) PropertyObjectTypes() (*PropertyObjectTypeTable, error) {
	return lookup[*PropertyObjectTypeTable](d, tagPropertyObjectType)
}

// PropertyObjectPropertyTypeTable manages tnf_property_object_property_type.
type PropertyObjectPropertyTypeTable struct {
	*EntityTable[types.PropertyObjectPropertyType]
}

func newPropertyObjectPropertyTypeTable(d *Database) (*PropertyObjectPropertyTypeTable, error) {
	const table = types.PropertyObjectPropertyTypeTable
	pot := types.PropertyObjectTypeTable
	rule := "property_object_type_oid and assoc_property_object_type_oid cannot both be null."
	cond := "NEW.property_object_type_oid IS NULL AND NEW.assoc_property_object_type_oid IS NULL"
	spec := TableSpec{
		Name: table,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("catalogue_oid", types.KindString),
			types.NotNull("property_object_type_oid", types.KindString),
			types.NotNull("multiplicity_min", types.KindInt32),
			types.NotNull("multiplicity_max", types.KindInt32),
			types.NotNull("mandatory", types.KindBool),
			types.Col("name", types.KindString),
			types.Col("description", types.KindString),
			types.Col("shortname", types.KindString),
			types.Col("valid_from", types.KindTime),
			types.Col("valid_to", types.KindTime),
			types.Col("assoc_property_object_type_oid", types.KindString),
			types.Col("assoc_type", types.KindString),
			types.Col("value_domain_oid", types.KindString),
		},
		PrimaryKey: "oid, catalogue_oid, property_object_type_oid",
		Constraints: []string{
			referencesCatalogue("fk_tpopt_co"),
			"CONSTRAINT fk_tpopt_co_poto FOREIGN KEY (property_object_type_oid, catalogue_oid) REFERENCES " + pot + "(oid, catalogue_oid)",
			"CONSTRAINT fk_tpopt_co_apoto FOREIGN KEY (assoc_property_object_type_oid, catalogue_oid) REFERENCES " + pot + "(oid, catalogue_oid)",
			"CONSTRAINT fk_tpopt_co_vdo FOREIGN KEY (value_domain_oid, catalogue_oid) REFERENCES " + types.ValueDomainTable + "(oid, catalogue_oid)",
			"CONSTRAINT check_tpopt_multiplicity CHECK (multiplicity_min >= 0 AND multiplicity_max >= -1)",
		},
		Triggers: []string{
			rowCheck(table+"_insert", table, "INSERT", rule, cond),
			rowCheck(table+"_update", table, "UPDATE OF property_object_type_oid, assoc_property_object_type_oid", rule, cond),
		},
	}
	et, err := newEntityTable(d, spec, propertyObjectPropertyTypeValues, readPropertyObjectPropertyType)
	if err != nil {
		return nil, err
	}
	return &PropertyObjectPropertyTypeTable{et}, nil
}

func propertyObjectPropertyTypeValues(p *types.PropertyObjectPropertyType) []any {
	return []any{
		p.OID, p.CatalogueOID, p.PropertyObjectTypeOID, p.MultiplicityMin, p.MultiplicityMax, p.Mandatory,
		text(p.Name), text(p.Description), text(p.Shortname), p.ValidFrom, p.ValidTo,
		text(p.AssocPropertyObjectTypeOID), text(p.AssocType), text(p.ValueDomainOID),
	}
}

func readPropertyObjectPropertyType(r *Record) *types.PropertyObjectPropertyType {
	return &types.PropertyObjectPropertyType{
		OID:                        r.String("oid"),
		CatalogueOID:               r.String("catalogue_oid"),
		PropertyObjectTypeOID:      r.String("property_object_type_oid"),
		MultiplicityMin:            r.Int32("multiplicity_min"),
		MultiplicityMax:            r.Int32("multiplicity_max"),
		Mandatory:                  r.Bool("mandatory"),
		Name:                       r.String("name"),
		Description:                r.String("description"),
		Shortname:                  r.String("shortname"),
		ValidFrom:                  r.TimePtr("valid_from"),
		ValidTo:                    r.TimePtr("valid_to"),
		AssocPropertyObjectTypeOID: r.String("assoc_property_object_type_oid"),
		AssocType:                  r.String("assoc_type"),
		ValueDomainOID:             r.String("value_domain_oid"),
	}
}

// Get returns one property type of a property object type.
func (t *PropertyObjectPropertyTypeTable) Get(oid, catalogueOID, propertyObjectTypeOID string) (*types.PropertyObjectPropertyType, error) {
	return t.EntityTable.Get(oid, catalogueOID, propertyObjectTypeOID)
}

// Delete removes one property type.
func (t *PropertyObjectPropertyTypeTable) Delete(oid, catalogueOID, propertyObjectTypeOID string) (int64, error) {
	return t.TableManager.Delete(oid, catalogueOID, propertyObjectTypeOID)
}

// ByPropertyObjectType returns the property types of a property object type.
func (t *PropertyObjectPropertyTypeTable) ByPropertyObjectType(catalogueOID, propertyObjectTypeOID string) ([]*types.PropertyObjectPropertyType, error) {
	return t.selectWhere("WHERE catalogue_oid = ? AND property_object_type_oid = ? ORDER BY rowid",
		catalogueOID, propertyObjectTypeOID)
}

// NextOID returns the next free numeric oid in a catalogue.
func (t *PropertyObjectPropertyTypeTable) NextOID(catalogueOID string) (int64, error) {
	return t.nextOID(catalogueOID)
}

// PropertyObjectPropertyTypes returns the session's
// tnf_property_object_property_type manager.
func (d *Database) PropertyObjectPropertyTypes() (*PropertyObjectPropertyTypeTable, error) {
	return lookup[*PropertyObjectPropertyTypeTable](d, tagPropertyObjectPropertyType)
}

// ValidForTypeOfTransportTable manages the transport types a property
// object type applies to. Every column is part of the key, so rows can be
// added and deleted but not updated.
type ValidForTypeOfTransportTable struct {
	*EntityTable[types.ValidForTypeOfTransport]
}

func newValidForTypeOfTransportTable(d *Database) (*ValidForTypeOfTransportTable, error) {
	spec := TableSpec{
		Name: types.ValidForTypeOfTransportTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("property_object_type_oid", types.KindString),
			types.NotNull("catalogue_oid", types.KindString),
			types.NotNull("type_of_transport", types.KindString),
		},
		PrimaryKey: "property_object_type_oid, catalogue_oid, type_of_transport",
		Constraints: []string{
			"CONSTRAINT fk_tpotvtt_pot_co FOREIGN KEY (property_object_type_oid, catalogue_oid) REFERENCES " +
				types.PropertyObjectTypeTable + "(oid, catalogue_oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(v *types.ValidForTypeOfTransport) []any {
			return []any{v.PropertyObjectTypeOID, v.CatalogueOID, v.TypeOfTransport}
		},
		func(r *Record) *types.ValidForTypeOfTransport {
			return &types.ValidForTypeOfTransport{
				PropertyObjectTypeOID: r.String("property_object_type_oid"),
				CatalogueOID:          r.String("catalogue_oid"),
				TypeOfTransport:       r.String("type_of_transport"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ValidForTypeOfTransportTable{et}, nil
}

// ByPropertyObjectType returns the transport types of a property object
// type.
func (t *ValidForTypeOfTransportTable) ByPropertyObjectType(catalogueOID, propertyObjectTypeOID string) ([]*types.ValidForTypeOfTransport, error) {
	return t.selectWhere("WHERE catalogue_oid = ? AND property_object_type_oid = ? ORDER BY type_of_transport",
		catalogueOID, propertyObjectTypeOID)
}

// ValidForTypeOfTransport returns the session's
// tnf_property_object_type_valid_for_type_of_transport manager.
func (d *Database) ValidForTypeOfTransport() (*ValidForTypeOfTransportTable, error) {
	return lookup[*ValidForTypeOfTransportTable](d, tagValidForTypeOfTransport)
}

// ValueDomainTable manages tnf_value_domain. Files written before is_union
// existed are read-only.
type ValueDomainTable struct {
	*EntityTable[types.ValueDomain]
}

func newValueDomainTable(d *Database) (*ValueDomainTable, error) {
	spec := TableSpec{
		Name: types.ValueDomainTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("catalogue_oid", types.KindString),
			types.NotNull("value_domain_type", types.KindString),
			types.Col("name", types.KindString),
			types.Col("shortname", types.KindString),
			types.Col("description", types.KindString),
			types.Col("datatype", types.KindString),
			types.Col("nr_dec", types.KindInt32),
			types.Col("is_union", types.KindBool).Tolerant(),
			types.Col("unit", types.KindString),
			types.Col("nr_char", types.KindInt32),
		},
		PrimaryKey:  "oid, catalogue_oid",
		Constraints: []string{referencesCatalogue("fk_tvd_co")},
	}
	et, err := newEntityTable(d, spec,
		func(v *types.ValueDomain) []any {
			return []any{v.OID, v.CatalogueOID, v.ValueDomainType, text(v.Name), text(v.Shortname),
				text(v.Description), text(v.Datatype), v.NrDec, v.IsUnion, text(v.Unit), v.NrChar}
		},
		func(r *Record) *types.ValueDomain {
			return &types.ValueDomain{
				OID:             r.String("oid"),
				CatalogueOID:    r.String("catalogue_oid"),
				ValueDomainType: r.String("value_domain_type"),
				Name:            r.String("name"),
				Shortname:       r.String("shortname"),
				Description:     r.String("description"),
				Datatype:        r.String("datatype"),
				NrDec:           r.Int32Ptr("nr_dec"),
				IsUnion:         r.BoolPtr("is_union"),
				Unit:            r.String("unit"),
				NrChar:          r.Int32Ptr("nr_char"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ValueDomainTable{et}, nil
}

// Get returns the value domain oid of a catalogue.
func (t *ValueDomainTable) Get(oid, catalogueOID string) (*types.ValueDomain, error) {
	return t.EntityTable.Get(oid, catalogueOID)
}

// Delete removes a value domain.
func (t *ValueDomainTable) Delete(oid, catalogueOID string) (int64, error) {
	return t.TableManager.Delete(oid, catalogueOID)
}

// ByCatalogue returns the value domains of a catalogue.
func (t *ValueDomainTable) ByCatalogue(catalogueOID string) ([]*types.ValueDomain, error) {
	return t.selectWhere("WHERE catalogue_oid = ? ORDER BY rowid", catalogueOID)
}

// NextOID returns the next free numeric oid in a catalogue.
func (t *ValueDomainTable) NextOID(catalogueOID string) (int64, error) {
	return t.nextOID(catalogueOID)
}

// ValueDomains returns the session's tnf_value_domain manager.
func (d *Database) ValueDomains() (*ValueDomainTable, error) {
	return lookup[*ValueDomainTable](d, tagValueDomain)
}

// StructuredValueDomainPropertyTypeTable manages
// tnf_structured_value_domain_property_type.
type StructuredValueDomainPropertyTypeTable struct {
	*EntityTable[types.StructuredValueDomainPropertyType]
}

func newStructuredValueDomainPropertyTypeTable(d *Database) (*StructuredValueDomainPropertyTypeTable, error) {
	vd := types.ValueDomainTable
	spec := TableSpec{
		Name: types.StructuredValueDomainPropertyTypeTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("catalogue_oid", types.KindString),
			types.NotNull("structured_value_domain_oid", types.KindString),
			types.NotNull("value_domain_oid", types.KindString),
			types.NotNull("multiplicity_min", types.KindInt32),
			types.NotNull("multiplicity_max", types.KindInt32),
			types.NotNull("mandatory", types.KindBool),
			types.Col("name", types.KindString),
			types.Col("description", types.KindString),
			types.Col("shortname", types.KindString),
			types.Col("valid_from", types.KindTime),
			types.Col("valid_to", types.KindTime),
		},
		PrimaryKey: "oid, catalogue_oid, structured_value_domain_oid",
		Constraints: []string{
			referencesCatalogue("fk_tsvdpt_co"),
			"CONSTRAINT fk_tsvdpt_co_svdo FOREIGN KEY (structured_value_domain_oid, catalogue_oid) REFERENCES " + vd + "(oid, catalogue_oid)",
			"CONSTRAINT fk_tsvdpt_co_vdo FOREIGN KEY (value_domain_oid, catalogue_oid) REFERENCES " + vd + "(oid, catalogue_oid)",
			"CONSTRAINT check_tsvdpt_multiplicity CHECK (multiplicity_min >= 0 AND multiplicity_max >= -1)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(s *types.StructuredValueDomainPropertyType) []any {
			return []any{s.OID, s.CatalogueOID, s.StructuredValueDomainOID, s.ValueDomainOID,
				s.MultiplicityMin, s.MultiplicityMax, s.Mandatory, text(s.Name), text(s.Description),
				text(s.Shortname), s.ValidFrom, s.ValidTo}
		},
		func(r *Record) *types.StructuredValueDomainPropertyType {
			return &types.StructuredValueDomainPropertyType{
				OID:                      r.String("oid"),
				CatalogueOID:             r.String("catalogue_oid"),
				StructuredValueDomainOID: r.String("structured_value_domain_oid"),
				ValueDomainOID:           r.String("value_domain_oid"),
				MultiplicityMin:          r.Int32("multiplicity_min"),
				MultiplicityMax:          r.Int32("multiplicity_max"),
				Mandatory:                r.Bool("mandatory"),
				Name:                     r.String("name"),
				Description:              r.String("description"),
				Shortname:                r.String("shortname"),
				ValidFrom:                r.TimePtr("valid_from"),
				ValidTo:                  r.TimePtr("valid_to"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &StructuredValueDomainPropertyTypeTable{et}, nil
}

// Get returns one member of a structured value domain.
func (t *StructuredValueDomainPropertyTypeTable) Get(oid, catalogueOID, structuredValueDomainOID string) (*types.StructuredValueDomainPropertyType, error) {
	return t.EntityTable.Get(oid, catalogueOID, structuredValueDomainOID)
}

// ByStructuredValueDomain returns the members of a structured value domain.
func (t *StructuredValueDomainPropertyTypeTable) ByStructuredValueDomain(catalogueOID, structuredValueDomainOID string) ([]*types.StructuredValueDomainPropertyType, error) {
	return t.selectWhere("WHERE catalogue_oid = ? AND structured_value_domain_oid = ? ORDER BY rowid",
		catalogueOID, structuredValueDomainOID)
}

// NextOID returns the next free numeric oid in a catalogue.
func (t *StructuredValueDomainPropertyTypeTable) NextOID(catalogueOID string) (int64, error) {
	return t.nextOID(catalogueOID)
}

// StructuredValueDomainPropertyTypes returns the session's
// tnf_structured_value_domain_property_type manager.
func (d *Database) StructuredValueDomainPropertyTypes() (*StructuredValueDomainPropertyTypeTable, error) {
	return lookup[*StructuredValueDomainPropertyTypeTable](d, tagStructuredValueDomainPropertyType)
}

// conditionalArgs are the mutually exclusive argument groups of a valid
// value.
var conditionalArgs = [][]string{
	{"min_value_double", "max_value_double"},
	{"min_value_integer", "max_value_integer"},
	{"min_value_datetime", "max_value_datetime"},
	{"enum_code"},
	{"value_string"},
}

func anySet(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = "NEW." + c + " IS NOT NULL"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func validValueTriggers() []string {
	const table = types.ValidValueTable
	var all, ranges []string
	for i, g := range conditionalArgs {
		all = append(all, g...)
		if i < 3 {
			ranges = append(ranges, g...)
		}
	}
	others := func(skip int) []string {
		var out []string
		for i, g := range conditionalArgs {
			if i != skip {
				out = append(out, g...)
			}
		}
		return out
	}

	var exclusive []string
	for i, g := range conditionalArgs {
		exclusive = append(exclusive, "("+anySet(g)+" AND "+anySet(others(i))+")")
	}
	var halfOpen []string
	for _, g := range conditionalArgs[:3] {
		halfOpen = append(halfOpen,
			fmt.Sprintf("(NEW.%s IS NOT NULL AND NEW.%s IS NULL)", g[0], g[1]),
			fmt.Sprintf("(NEW.%s IS NULL AND NEW.%s IS NOT NULL)", g[0], g[1]))
	}

	var out []string
	out = append(out, checkPair(table, 1, all, "only one conditional argument range may be set.",
		strings.Join(exclusive, " OR "))...)
	out = append(out, checkPair(table, 2, ranges, "both conditional arguments in a range must be set.",
		strings.Join(halfOpen, " OR "))...)
	out = append(out, checkPair(table, 3, all, "enum_code must be only conditional argument.",
		"NEW.enum_code IS NOT NULL AND "+anySet(ranges))...)
	out = append(out, checkPair(table, 4, all, "value_string must be only conditional argument.",
		"NEW.value_string IS NOT NULL AND "+anySet(others(4)))...)
	return out
}

// ValidValueTable manages tnf_valid_value.
type ValidValueTable struct {
	*EntityTable[types.ValidValue]
}

func newValidValueTable(d *Database) (*ValidValueTable, error) {
	spec := TableSpec{
		Name: types.ValidValueTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("value_domain_oid", types.KindString),
			types.NotNull("catalogue_oid", types.KindString),
			types.Col("description", types.KindString),
			types.Col("seq_no", types.KindInt32),
			types.Col("valid_from", types.KindTime),
			types.Col("valid_to", types.KindTime),
			types.Col("min_value_double", types.KindFloat64),
			types.Col("max_value_double", types.KindFloat64),
			types.Col("min_value_integer", types.KindInt32),
			types.Col("max_value_integer", types.KindInt32),
			types.Col("value_string", types.KindString),
			types.Col("min_value_datetime", types.KindTime),
			types.Col("max_value_datetime", types.KindTime),
			types.Col("enum_code", types.KindInt32),
			types.Col("rank", types.KindInt32),
		},
		PrimaryKey: "value_domain_oid, catalogue_oid, seq_no",
		Constraints: []string{
			"CONSTRAINT fk_tvv_vdo_co FOREIGN KEY (value_domain_oid, catalogue_oid) REFERENCES " +
				types.ValueDomainTable + "(oid, catalogue_oid)",
			referencesCatalogue("fk_tvv_co"),
		},
		Triggers: validValueTriggers(),
	}
	et, err := newEntityTable(d, spec,
		func(v *types.ValidValue) []any {
			return []any{v.ValueDomainOID, v.CatalogueOID, text(v.Description), v.SeqNo, v.ValidFrom, v.ValidTo,
				v.MinValueDouble, v.MaxValueDouble, v.MinValueInteger, v.MaxValueInteger, text(v.ValueString),
				v.MinValueDateTime, v.MaxValueDateTime, v.EnumCode, v.Rank}
		},
		func(r *Record) *types.ValidValue {
			return &types.ValidValue{
				ValueDomainOID:   r.String("value_domain_oid"),
				CatalogueOID:     r.String("catalogue_oid"),
				Description:      r.String("description"),
				SeqNo:            r.Int32("seq_no"),
				ValidFrom:        r.TimePtr("valid_from"),
				ValidTo:          r.TimePtr("valid_to"),
				MinValueDouble:   r.Float64Ptr("min_value_double"),
				MaxValueDouble:   r.Float64Ptr("max_value_double"),
				MinValueInteger:  r.Int32Ptr("min_value_integer"),
				MaxValueInteger:  r.Int32Ptr("max_value_integer"),
				ValueString:      r.String("value_string"),
				MinValueDateTime: r.TimePtr("min_value_datetime"),
				MaxValueDateTime: r.TimePtr("max_value_datetime"),
				EnumCode:         r.Int32Ptr("enum_code"),
				Rank:             r.Int32Ptr("rank"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ValidValueTable{et}, nil
}

// Get returns one valid value of a value domain.
func (t *ValidValueTable) Get(valueDomainOID, catalogueOID string, seqNo int32) (*types.ValidValue, error) {
	return t.EntityTable.Get(valueDomainOID, catalogueOID, seqNo)
}

// ByValueDomain returns the valid values of a value domain in seq_no order.
func (t *ValidValueTable) ByValueDomain(catalogueOID, valueDomainOID string) ([]*types.ValidValue, error) {
	return t.selectWhere("WHERE catalogue_oid = ? AND value_domain_oid = ? ORDER BY seq_no", catalogueOID, valueDomainOID)
}

// DeleteByValueDomain removes every valid value of a value domain.
func (t *ValidValueTable) DeleteByValueDomain(catalogueOID, valueDomainOID string) (int64, error) {
	return t.deleteWhere("catalogue_oid = ? AND value_domain_oid = ?", catalogueOID, valueDomainOID)
}

// NextSeqNo returns the next free seq_no of a value domain.
func (t *ValidValueTable) NextSeqNo(catalogueOID, valueDomainOID string) (int32, error) {
	v, err := t.db.QueryScalar("SELECT COALESCE(MAX(seq_no), 0) + 1 FROM "+types.ValidValueTable+
		" WHERE catalogue_oid = ? AND value_domain_oid = ?", catalogueOID, valueDomainOID)
	if err != nil {
		return 0, fmt.Errorf("reading next seq_no of %s: %w", valueDomainOID, err)
	}
	n, _ := v.(int64)
	return int32(n), nil
}

// ValidValues returns the session's tnf_valid_value manager.
func (d *Database) ValidValues() (*ValidValueTable, error) {
	return lookup[*ValidValueTable](d, tagValidValue)
}

// SecondaryLRSTable manages tnf_secondary_lrs.
type SecondaryLRSTable struct {
	*EntityTable[types.SecondaryLRS]
}

func newSecondaryLRSTable(d *Database) (*SecondaryLRSTable, error) {
	spec := TableSpec{
		Name: types.SecondaryLRSTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("name", types.KindString),
			types.NotNull("type", types.KindInt32),
			types.NotNull("catalogue_oid", types.KindString),
			types.NotNull("property_object_type_oid", types.KindString),
			types.Col("assoc_referent_property_object_type_oid", types.KindString),
			types.Col("measure1_property_type_oid", types.KindString),
			types.Col("measure2_property_type_oid", types.KindString),
			types.Col("where_clause", types.KindString),
			types.Col("sequence_property_type_oid", types.KindString),
			types.Col("order_descending", types.KindBool),
		},
		PrimaryKey:  "oid",
		Constraints: []string{referencesCatalogue("fk_tsl_co")},
	}
	et, err := newEntityTable(d, spec,
		func(s *types.SecondaryLRS) []any {
			return []any{s.OID, s.Name, s.Type, s.CatalogueOID, s.PropertyObjectTypeOID,
				text(s.AssocReferentPropertyObjectTypeOID), text(s.Measure1PropertyTypeOID),
				text(s.Measure2PropertyTypeOID), text(s.WhereClause), text(s.SequencePropertyTypeOID),
				s.OrderDescending}
		},
		func(r *Record) *types.SecondaryLRS {
			return &types.SecondaryLRS{
				OID:                                r.String("oid"),
				Name:                               r.String("name"),
				Type:                               r.Int32("type"),
				CatalogueOID:                       r.String("catalogue_oid"),
				PropertyObjectTypeOID:              r.String("property_object_type_oid"),
				AssocReferentPropertyObjectTypeOID: r.String("assoc_referent_property_object_type_oid"),
				Measure1PropertyTypeOID:            r.String("measure1_property_type_oid"),
				Measure2PropertyTypeOID:            r.String("measure2_property_type_oid"),
				WhereClause:                        r.String("where_clause"),
				SequencePropertyTypeOID:            r.String("sequence_property_type_oid"),
				OrderDescending:                    r.BoolPtr("order_descending"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &SecondaryLRSTable{et}, nil
}

// Get returns the secondary LRS with the given oid.
func (t *SecondaryLRSTable) Get(oid string) (*types.SecondaryLRS, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the secondary LRS with the given oid.
func (t *SecondaryLRSTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// SecondaryLRS returns the session's tnf_secondary_lrs manager.
func (d *Database) SecondaryLRS() (*SecondaryLRSTable, error) {
	return lookup[*SecondaryLRSTable](d, tagSecondaryLRS)
}

// SecondaryLRSIdentityTable manages tnf_secondary_lrs_identity. Every
// column is part of the key.
type SecondaryLRSIdentityTable struct {
	*EntityTable[types.SecondaryLRSIdentity]
}

func newSecondaryLRSIdentityTable(d *Database) (*SecondaryLRSIdentityTable, error) {
	spec := TableSpec{
		Name: types.SecondaryLRSIdentityTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("lrs_oid", types.KindString),
			types.NotNull("identity_property_oid", types.KindString),
		},
		PrimaryKey: "lrs_oid, identity_property_oid",
		Constraints: []string{
			"CONSTRAINT fk_tsli_lo FOREIGN KEY (lrs_oid) REFERENCES " + types.SecondaryLRSTable + "(oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(s *types.SecondaryLRSIdentity) []any { return []any{s.LRSOID, s.IdentityPropertyOID} },
		func(r *Record) *types.SecondaryLRSIdentity {
			return &types.SecondaryLRSIdentity{
				LRSOID:              r.String("lrs_oid"),
				IdentityPropertyOID: r.String("identity_property_oid"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &SecondaryLRSIdentityTable{et}, nil
}

// ByLRS returns the identity properties of a secondary LRS.
func (t *SecondaryLRSIdentityTable) ByLRS(lrsOID string) ([]*types.SecondaryLRSIdentity, error) {
	return t.selectWhere("WHERE lrs_oid = ? ORDER BY rowid", lrsOID)
}

// SecondaryLRSIdentities returns the session's tnf_secondary_lrs_identity
// manager.
func (d *Database) SecondaryLRSIdentities() (*SecondaryLRSIdentityTable, error) {
	return lookup[*SecondaryLRSIdentityTable](d, tagSecondaryLRSIdentity)
}
