package sqlite

import (
	"errors"
	"fmt"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagSpatialRefSys, types.SpatialRefSysTable, func(d *Database) (manager, error) { return newSpatialRefSysTable(d) })
}

// wgs84 is written for SRID 4326 when the file lacks it.
var wgs84 = types.SpatialRefSys{
	SRSName:                "WGS 84 geodetic",
	SRSID:                  4326,
	Organization:           "EPSG",
	OrganizationCoordsysID: 4326,
	Definition:             `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`,
	Description:            "longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid",
}

// SpatialRefSysTable manages gpkg_spatial_ref_sys.
type SpatialRefSysTable struct {
	*EntityTable[types.SpatialRefSys]
}

func newSpatialRefSysTable(d *Database) (*SpatialRefSysTable, error) {
	spec := TableSpec{
		Name: types.SpatialRefSysTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("srs_name", types.KindString),
			types.NotNull("srs_id", types.KindInt32),
			types.NotNull("organization", types.KindString),
			types.NotNull("organization_coordsys_id", types.KindInt32),
			types.NotNull("definition", types.KindString),
			types.Col("description", types.KindString),
		},
		PrimaryKey: "srs_id",
	}
	et, err := newEntityTable(d, spec, spatialRefSysValues, readSpatialRefSys)
	if err != nil {
		return nil, err
	}
	return &SpatialRefSysTable{et}, nil
}

func spatialRefSysValues(s *types.SpatialRefSys) []any {
	return []any{s.SRSName, s.SRSID, s.Organization, s.OrganizationCoordsysID, s.Definition, text(s.Description)}
}

func readSpatialRefSys(r *Record) *types.SpatialRefSys {
	return &types.SpatialRefSys{
		SRSName:                r.String("srs_name"),
		SRSID:                  r.Int32("srs_id"),
		Organization:           r.String("organization"),
		OrganizationCoordsysID: r.Int32("organization_coordsys_id"),
		Definition:             r.String("definition"),
		Description:            r.String("description"),
	}
}

// Get returns the definition registered for srid.
func (t *SpatialRefSysTable) Get(srid int) (*types.SpatialRefSys, error) {
	return t.EntityTable.Get(srid)
}

// Delete removes the definition of srid.
func (t *SpatialRefSysTable) Delete(srid int) (int64, error) {
	return t.TableManager.Delete(srid)
}

// Placeholder returns the entry written for an EPSG code whose definition
// is not known to the engine.
func Placeholder(srid int) types.SpatialRefSys {
	if srid == int(wgs84.SRSID) {
		return wgs84
	}
	return types.SpatialRefSys{
		SRSName:                fmt.Sprintf("EPSG:%d", srid),
		SRSID:                  int32(srid),
		Organization:           "EPSG",
		OrganizationCoordsysID: int32(srid),
		Definition:             "N/A",
		Description:            "No definition found.",
	}
}

// Ensure adds a definition for srid unless one is registered already. It
// reports whether a row was added.
func (t *SpatialRefSysTable) Ensure(srid int) (bool, error) {
	_, err := t.Get(srid)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return false, err
	}
	srs := Placeholder(srid)
	if err := t.Add(&srs); err != nil {
		return false, err
	}
	return true, nil
}

// SpatialRefSys returns the session's gpkg_spatial_ref_sys manager.
func (d *Database) SpatialRefSys() (*SpatialRefSysTable, error) {
	return lookup[*SpatialRefSysTable](d, tagSpatialRefSys)
}
