package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func TestCreateWritesDataset(t *testing.T) {
	cfg := testConfig()
	cfg.CoordSystem = "WGS84"
	cfg.ViewDate = ptr(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	db := newDataset(t, cfg)

	srid, err := db.SRID()
	require.NoError(t, err)
	assert.Equal(t, 4326, srid)
	assert.False(t, db.HasTopologyLevel())
	assert.False(t, db.InTransaction())

	for _, table := range []string{types.LinkSequenceTable, types.NodeTable, types.MetadataTable} {
		ok, err := db.TableExists(table)
		require.NoError(t, err)
		assert.True(t, ok, table)
	}
	ok, err := db.TableExists(types.NetworkTable)
	require.NoError(t, err)
	assert.False(t, ok, "tables beyond the feature tables are created on first use")

	md, err := db.Metadata()
	require.NoError(t, err)
	m, err := md.Map()
	require.NoError(t, err)
	assert.Equal(t, types.FormatVersion, m[types.MetaVersion])
	assert.Equal(t, "Test", m[types.MetaDatasetIdentifier])
	assert.Equal(t, "EPSG:4326", m[types.MetaCRSName])
	assert.Equal(t, "SNAPSHOT", m[types.MetaDatasetType])
	assert.Equal(t, types.SpatialAttributeEncoding, m[types.MetaSpatialAttributeEncoding])
	assert.Equal(t, "2024-03-01T00:00:00Z", m[types.MetaViewDate])
	assert.Equal(t, "WGS84", m[types.MetaCoordSystemID])
	_, err = time.Parse(time.RFC3339Nano, m[types.MetaDatasetTimestamp])
	assert.NoError(t, err)

	gc, err := db.GeometryColumns()
	require.NoError(t, err)
	for _, table := range []string{types.LinkSequenceTable, types.NodeTable} {
		g, err := gc.ForTable(table)
		require.NoError(t, err)
		assert.EqualValues(t, 4326, g.SRSID, table)
	}

	res, err := ValidateFile(db.Path())
	require.NoError(t, err)
	assert.True(t, res.OK(), res.Messages)
}

func TestCreateOmitsOptionalMetadata(t *testing.T) {
	db := newDataset(t, testConfig())
	md, err := db.Metadata()
	require.NoError(t, err)

	v, ok, err := md.Value(types.MetaViewDate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok, err = md.Value(types.MetaCoordSystemID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRegistersPlaceholderSRS(t *testing.T) {
	cfg := testConfig()
	cfg.SRID = 3006
	db := newDataset(t, cfg)

	srs, err := db.SpatialRefSys()
	require.NoError(t, err)
	got, err := srs.Get(3006)
	require.NoError(t, err)
	assert.Equal(t, Placeholder(3006), *got)

	db = reopen(t, db)
	srid, err := db.SRID()
	require.NoError(t, err)
	assert.Equal(t, 3006, srid)
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		edit func(*types.DatasetConfig)
		want error
	}{
		{"negative srid", func(c *types.DatasetConfig) { c.SRID = -1 }, types.ErrSRIDInvalid},
		{"empty identifier", func(c *types.DatasetConfig) { c.DatasetIdentifier = " " }, types.ErrDatasetIdentifierEmpty},
		{"unknown type", func(c *types.DatasetConfig) { c.DataSetType = "DELTA" }, types.ErrDataSetTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.edit(&cfg)
			db := newSession(t)
			err := db.Create(cfg)
			assert.ErrorIs(t, err, types.ErrConfiguration)
			assert.ErrorIs(t, err, tt.want)
			_, statErr := os.Stat(db.Path())
			assert.True(t, os.IsNotExist(statErr), "nothing is written for a rejected configuration")
		})
	}
}

func TestCreateOnConnectedSessionFails(t *testing.T) {
	db := newDataset(t, testConfig())
	assert.ErrorIs(t, db.Create(testConfig()), types.ErrAlreadyOpen)
}

func TestCreateReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.gpkg")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	db := New(path, WithLogger(quietLogger()))
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Create(testConfig()))

	res, err := ValidateFile(path)
	require.NoError(t, err)
	assert.True(t, res.OK(), res.Messages)
}

func TestCreateFromTemplate(t *testing.T) {
	tmpl := newDataset(t, testConfig())
	require.NoError(t, tmpl.Close())

	target := filepath.Join(t.TempDir(), "copy.gpkg")
	db := New(target, WithLogger(quietLogger()), WithTemplate(tmpl.Path()))
	t.Cleanup(func() { db.Close() })

	cfg := testConfig()
	cfg.SRID = 3006
	cfg.DatasetIdentifier = "Copy"
	require.NoError(t, db.Create(cfg))

	srid, err := db.SRID()
	require.NoError(t, err)
	assert.Equal(t, 3006, srid)
	md, err := db.Metadata()
	require.NoError(t, err)
	v, _, err := md.Value(types.MetaDatasetIdentifier)
	require.NoError(t, err)
	assert.Equal(t, "Copy", v)
	n, err := md.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 7, n, "template metadata is overwritten, not duplicated")

	// The template itself is untouched.
	orig := New(tmpl.Path(), WithLogger(quietLogger()))
	t.Cleanup(func() { orig.Close() })
	require.NoError(t, orig.Open(nil))
	srid, err = orig.SRID()
	require.NoError(t, err)
	assert.Equal(t, 4326, srid)
}

func TestCreateWithMissingTemplate(t *testing.T) {
	db := newSession(t, WithTemplate(filepath.Join(t.TempDir(), "absent.gpkg")))
	err := db.Create(testConfig())
	assert.ErrorIs(t, err, types.ErrTemplate)
}

func TestCreateFailsClosedWhenTargetCannotBeRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busy.gpkg")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "inner"), 0o755))

	db := New(path, WithLogger(quietLogger()))
	t.Cleanup(func() { db.Close() })
	err := db.Create(testConfig())
	require.ErrorIs(t, err, types.ErrTemplate)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir(), "the existing entry is left as it was")
	assert.DirExists(t, filepath.Join(path, "inner"))
}

func TestCreateAllTablesUpFront(t *testing.T) {
	cfg := testConfig()
	cfg.CreateTables = true
	cfg.HasTopologyLevel = true
	db := newDataset(t, cfg)

	tables, err := db.Tables()
	require.NoError(t, err)
	for _, st := range tables {
		switch st.Name {
		case types.ToDoListMessageTable, types.ToDoListDetailsTable:
			assert.False(t, st.Exists, st.Name)
		default:
			assert.True(t, st.Exists, st.Name)
		}
	}

	links, err := db.Links()
	require.NoError(t, err)
	assert.True(t, links.HasTopologyLevel())
	ok, err := db.ColumnExists(types.LinkTable, types.TopologyLevelColumn)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateAllTablesIsIdempotent(t *testing.T) {
	db := newDataset(t, testConfig())
	require.NoError(t, db.CreateAllTables(nil))
	first, err := db.SchemaDigest()
	require.NoError(t, err)

	require.NoError(t, db.CreateAllTables(nil))
	second, err := db.SchemaDigest()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	db = reopen(t, db)
	require.NoError(t, db.CreateAllTables(ptr(true)))
	third, err := db.SchemaDigest()
	require.NoError(t, err)
	assert.Equal(t, first, third, "an existing tnf_link keeps its variant")
	assert.False(t, db.HasTopologyLevel())
}

func TestSchemaDigestTracksDDL(t *testing.T) {
	a := newDataset(t, testConfig())
	b := newDataset(t, testConfig())

	da, err := a.SchemaDigest()
	require.NoError(t, err)
	db, err := b.SchemaDigest()
	require.NoError(t, err)
	assert.Equal(t, da, db, "digest ignores content")

	_, err = b.Networks()
	require.NoError(t, err)
	db, err = b.SchemaDigest()
	require.NoError(t, err)
	assert.NotEqual(t, da, db)
}

func TestOpenWithoutFeatureTables(t *testing.T) {
	db := newSession(t)
	_, err := db.Exec(baselineSQL)
	require.NoError(t, err)

	err = db.Open(nil)
	assert.ErrorIs(t, err, types.ErrSRIDMissing)
	assert.ErrorIs(t, err, types.ErrIntegrity)
}

func TestOpenEmptyFile(t *testing.T) {
	db := newSession(t)
	assert.ErrorIs(t, db.Open(nil), types.ErrSRIDMissing)
}

func TestOpenWithDisagreeingSRIDs(t *testing.T) {
	db := newDataset(t, testConfig())
	_, err := db.Exec("UPDATE gpkg_geometry_columns SET srs_id = 3006 WHERE table_name = ?", types.NodeTable)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	again := New(db.Path(), WithLogger(quietLogger()))
	t.Cleanup(func() { again.Close() })
	err = again.Open(nil)
	require.ErrorIs(t, err, types.ErrMultipleSRIDs)
	assert.ErrorIs(t, err, types.ErrIntegrity)
	assert.Contains(t, err.Error(), "4326")
	assert.Contains(t, err.Error(), "3006")

	_, err = again.SRID()
	assert.ErrorIs(t, err, types.ErrMultipleSRIDs)
}

func TestTopologyLevelFollowsFile(t *testing.T) {
	t.Run("narrow table wins over session default", func(t *testing.T) {
		db := newDataset(t, testConfig())
		_, err := db.Links()
		require.NoError(t, err)

		require.NoError(t, db.Close())
		again := New(db.Path(), WithLogger(quietLogger()), WithTopologyLevel(true))
		t.Cleanup(func() { again.Close() })
		require.NoError(t, again.Open(ptr(true)))
		assert.False(t, again.HasTopologyLevel())

		links, err := again.Links()
		require.NoError(t, err)
		assert.False(t, links.HasTopologyLevel())
		assert.NotContains(t, links.Columns(), types.TopologyLevelColumn)
		require.NoError(t, links.Add(&types.Link{
			LinkSequenceOID:  "ls1",
			MeasureFrom:      ptr(0.0),
			TopologyLevelOID: "ignored",
		}))
		n, err := links.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("wide table is detected", func(t *testing.T) {
		cfg := testConfig()
		cfg.HasTopologyLevel = true
		db := newDataset(t, cfg)
		_, err := db.Links()
		require.NoError(t, err)

		db = reopen(t, db)
		assert.True(t, db.HasTopologyLevel())
		links, err := db.Links()
		require.NoError(t, err)
		assert.Contains(t, links.Columns(), types.TopologyLevelColumn)

		require.NoError(t, links.Add(&types.Link{LinkSequenceOID: "ls1", TopologyLevelOID: "tl1", Direction: ptr(int32(1))}))
		got, err := links.GetByLinkSequence("ls1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "tl1", got[0].TopologyLevelOID)
	})

	t.Run("explicit choice applies without a link table", func(t *testing.T) {
		db := newDataset(t, testConfig())
		require.NoError(t, db.Close())
		again := New(db.Path(), WithLogger(quietLogger()))
		t.Cleanup(func() { again.Close() })
		require.NoError(t, again.Open(ptr(true)))
		assert.True(t, again.HasTopologyLevel())
	})
}

func TestTransactions(t *testing.T) {
	db := newDataset(t, testConfig())
	networks, err := db.Networks()
	require.NoError(t, err)

	assert.ErrorIs(t, db.Commit(), types.ErrNoTransaction)
	assert.ErrorIs(t, db.Abort(), types.ErrNoTransaction)

	require.NoError(t, db.Begin())
	assert.ErrorIs(t, db.Begin(), types.ErrTransactionActive)
	require.NoError(t, networks.Add(&types.Network{OID: "1"}))
	require.NoError(t, db.Abort())
	_, err = networks.Get("1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, db.Begin())
	require.NoError(t, networks.Add(&types.Network{OID: "2"}))
	require.NoError(t, db.Commit())
	assert.False(t, db.InTransaction())

	db = reopen(t, db)
	networks, err = db.Networks()
	require.NoError(t, err)
	_, err = networks.Get("2")
	assert.NoError(t, err)
}

func TestFailedCommitKeepsTransactionActive(t *testing.T) {
	db := newDataset(t, testConfig())
	require.NoError(t, db.EnableForeignKeys())
	_, err := db.Exec("CREATE TABLE parent (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE child (id INTEGER PRIMARY KEY,
  parent_id INTEGER REFERENCES parent(id) DEFERRABLE INITIALLY DEFERRED)`)
	require.NoError(t, err)

	require.NoError(t, db.Begin())
	_, err = db.Exec("INSERT INTO child VALUES (1, 99)")
	require.NoError(t, err, "deferred check waits for COMMIT")

	require.Error(t, db.Commit())
	assert.True(t, db.InTransaction())
	assert.ErrorIs(t, db.Begin(), types.ErrTransactionActive)

	require.NoError(t, db.Abort())
	assert.False(t, db.InTransaction())
	assert.EqualValues(t, 0, countRows(t, db, "SELECT COUNT(*) FROM child"))

	require.NoError(t, db.Begin())
	_, err = db.Exec("INSERT INTO parent VALUES (99)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO child VALUES (1, 99)")
	require.NoError(t, err)
	require.NoError(t, db.Commit())
	assert.EqualValues(t, 1, countRows(t, db, "SELECT COUNT(*) FROM child"))
}

func TestCloseAfterFailedCommitRollsBack(t *testing.T) {
	db := newDataset(t, testConfig())
	require.NoError(t, db.EnableForeignKeys())
	_, err := db.Exec("CREATE TABLE parent (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE child (id INTEGER PRIMARY KEY,
  parent_id INTEGER REFERENCES parent(id) DEFERRABLE INITIALLY DEFERRED)`)
	require.NoError(t, err)

	require.NoError(t, db.Begin())
	_, err = db.Exec("INSERT INTO child VALUES (1, 99)")
	require.NoError(t, err)
	require.Error(t, db.Commit())

	db = reopen(t, db)
	assert.EqualValues(t, 0, countRows(t, db, "SELECT COUNT(*) FROM child"))
}

func TestCloseRollsBackAndIsIdempotent(t *testing.T) {
	db := newDataset(t, testConfig())
	networks, err := db.Networks()
	require.NoError(t, err)
	require.NoError(t, db.Begin())
	require.NoError(t, networks.Add(&types.Network{OID: "1"}))

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err = db.Networks()
	assert.ErrorIs(t, err, types.ErrClosed)
	_, err = db.Exec("SELECT 1")
	assert.ErrorIs(t, err, types.ErrClosed)
	assert.ErrorIs(t, db.Begin(), types.ErrClosed)
	assert.ErrorIs(t, db.Open(nil), types.ErrClosed)
	assert.ErrorIs(t, db.Create(testConfig()), types.ErrClosed)
	_, err = NewTable(db, widgetSpec("widget"))
	assert.ErrorIs(t, err, types.ErrClosed)

	again := New(db.Path(), WithLogger(quietLogger()))
	t.Cleanup(func() { again.Close() })
	require.NoError(t, again.Open(nil))
	networks, err = again.Networks()
	require.NoError(t, err)
	_, err = networks.Get("1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRegistryReturnsOneManagerPerTable(t *testing.T) {
	db := newDataset(t, testConfig())
	a, err := db.Networks()
	require.NoError(t, err)
	b, err := db.Networks()
	require.NoError(t, err)
	assert.Same(t, a, b)

	tm, err := db.Table("TNF_NETWORK")
	require.NoError(t, err)
	assert.Same(t, a.TableManager, tm)

	_, err = db.Table("tnf_nothing")
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestTablesReportsWithoutCreating(t *testing.T) {
	db := newDataset(t, testConfig())
	networks, err := db.Networks()
	require.NoError(t, err)
	require.NoError(t, networks.Add(&types.Network{OID: "1"}))
	require.NoError(t, networks.Add(&types.Network{OID: "2"}))

	before, err := db.SchemaDigest()
	require.NoError(t, err)
	tables, err := db.Tables()
	require.NoError(t, err)
	after, err := db.SchemaDigest()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	byName := make(map[string]types.TableStatus, len(tables))
	for _, st := range tables {
		byName[st.Name] = st
	}
	assert.Equal(t, types.TableStatus{Name: types.NetworkTable, Exists: true, Rows: 2}, byName[types.NetworkTable])
	assert.Equal(t, types.TableStatus{Name: types.MetadataTable, Exists: true, Rows: 7}, byName[types.MetadataTable])
	assert.False(t, byName[types.CatalogueTable].Exists)
	assert.Equal(t, types.NetworkTable, tables[0].Name)
}

func TestMetadataSet(t *testing.T) {
	db := newDataset(t, testConfig())
	md, err := db.Metadata()
	require.NoError(t, err)

	require.NoError(t, md.Set("CUSTOM", "a"))
	require.NoError(t, md.Set("CUSTOM", "b"))
	v, ok, err := md.Value("CUSTOM")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok, err = md.Value("ABSENT")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForeignKeysWhenEnabled(t *testing.T) {
	db := newDataset(t, testConfig())
	objects, err := db.PropertyObjects()
	require.NoError(t, err)
	require.NoError(t, objects.Add(&types.PropertyObject{OID: "po1", CatalogueOID: "missing"}))

	require.NoError(t, db.EnableForeignKeys())
	assert.Error(t, objects.Add(&types.PropertyObject{OID: "po2", CatalogueOID: "missing"}))
}
