package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentnf/tnfpkg/internal/geom"
	"github.com/opentnf/tnfpkg/pkg/types"
)

func countRows(t *testing.T, db *Database, query string, args ...any) int64 {
	t.Helper()
	v, err := db.QueryScalar(query, args...)
	require.NoError(t, err)
	n, _ := v.(int64)
	return n
}

func TestApplySpatialIndex(t *testing.T) {
	db := newDataset(t, testConfig())
	seqs, err := db.LinkSequences()
	require.NoError(t, err)

	line := func(x0, x1 float64) []byte {
		return geom.EncodeLineString(4326, []geom.Point{{X: x0, Y: 0}, {X: x1, Y: 1}})
	}
	require.NoError(t, seqs.Add(&types.LinkSequence{OID: "a", Geometry: line(0, 1)}))
	require.NoError(t, seqs.Add(&types.LinkSequence{OID: "b", Geometry: line(10, 11)}))
	require.NoError(t, seqs.Add(&types.LinkSequence{OID: "nogeom"}))

	require.NoError(t, seqs.ApplySpatialIndex("geometry"))
	require.NoError(t, seqs.ApplySpatialIndex("GEOMETRY"))

	const rtree = `"rtree_tnf_link_sequence_geometry"`
	assert.EqualValues(t, 2, countRows(t, db, "SELECT COUNT(*) FROM "+rtree))

	ext, err := db.Extensions()
	require.NoError(t, err)
	ok, err := ext.Registered(types.LinkSequenceTable, "geometry", "gpkg_rtree_index")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, countRows(t, db,
		"SELECT COUNT(*) FROM gpkg_extensions WHERE extension_name = 'gpkg_rtree_index'"))

	// The triggers keep the index current.
	require.NoError(t, seqs.Add(&types.LinkSequence{OID: "c", Geometry: line(20, 21)}))
	assert.EqualValues(t, 3, countRows(t, db, "SELECT COUNT(*) FROM "+rtree))

	_, err = seqs.Update(&types.LinkSequence{OID: "a", Geometry: line(30, 31)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, countRows(t, db, "SELECT COUNT(*) FROM "+rtree+" WHERE minx >= 29.9 AND maxx <= 31.1"))
	assert.EqualValues(t, 0, countRows(t, db, "SELECT COUNT(*) FROM "+rtree+" WHERE maxx <= 1.1"))

	_, err = seqs.Delete("b")
	require.NoError(t, err)
	assert.EqualValues(t, 2, countRows(t, db, "SELECT COUNT(*) FROM "+rtree))
}

func TestApplySpatialIndexRejectsPlainColumn(t *testing.T) {
	db := newDataset(t, testConfig())
	nodes, err := db.Nodes()
	require.NoError(t, err)
	assert.ErrorIs(t, nodes.ApplySpatialIndex("oid"), types.ErrConfiguration)
	assert.ErrorIs(t, nodes.ApplySpatialIndex("absent"), types.ErrConfiguration)
}

func TestGeometryFunctions(t *testing.T) {
	db := newSession(t)
	pt := geom.EncodePoint(4326, geom.Point{X: 3, Y: 4})

	v, err := db.QueryScalar("SELECT ST_MinX(?) + ST_MaxY(?)", pt, pt)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	v, err = db.QueryScalar("SELECT ST_IsEmpty(?)", pt)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	v, err = db.QueryScalar("SELECT ST_MinX(?)", []byte("junk"))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = db.QueryScalar("SELECT ST_MaxX(NULL)")
	require.NoError(t, err)
	assert.Nil(t, v)
}
