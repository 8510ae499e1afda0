package sqlite

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// baselineSQL creates the mandatory GeoPackage tables of an empty file.
//
//go:embed baseline.sql
var baselineSQL string

// Create replaces the file with a new OpenTNF dataset described by cfg.
// The file is seeded from the session template when one is configured and
// from the built-in GeoPackage baseline otherwise. The session must not
// have connected yet.
func (d *Database) Create(cfg types.DatasetConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrConfiguration, err)
	}
	if d.closed {
		return types.ErrClosed
	}
	if d.conn != nil {
		return types.ErrAlreadyOpen
	}
	if err := os.Remove(d.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %w", types.ErrTemplate, d.path, err)
	}
	if d.template != "" {
		if err := copyFile(d.template, d.path); err != nil {
			return fmt.Errorf("%w: copying %s: %w", types.ErrTemplate, d.template, err)
		}
	}

	if err := d.Begin(); err != nil {
		return err
	}
	err := d.populate(cfg)
	if err == nil {
		err = d.Commit()
	}
	if err != nil {
		if abortErr := d.Abort(); abortErr != nil {
			d.logger.Warn("aborting dataset creation", "error", abortErr)
		}
		// Managers built inside the rolled-back transaction describe
		// tables that no longer exist.
		d.releaseManagers()
		d.sridKnown = false
		return err
	}
	d.logger.Info("created dataset", "path", d.path, "srid", cfg.SRID,
		"identifier", cfg.DatasetIdentifier, "type", string(cfg.DataSetType))
	return nil
}

func (d *Database) populate(cfg types.DatasetConfig) error {
	if d.template == "" {
		if _, err := d.Exec(baselineSQL); err != nil {
			return fmt.Errorf("%w: writing baseline: %w", types.ErrTemplate, err)
		}
	}

	d.srid, d.sridKnown = cfg.SRID, true
	d.hasTopologyLevel = cfg.HasTopologyLevel

	srs, err := d.SpatialRefSys()
	if err != nil {
		return err
	}
	if _, err := srs.Ensure(cfg.SRID); err != nil {
		return err
	}
	contents, err := d.Contents()
	if err != nil {
		return err
	}
	if _, err := contents.UpdateSRID(cfg.SRID); err != nil {
		return err
	}
	gc, err := d.GeometryColumns()
	if err != nil {
		return err
	}
	if _, err := gc.UpdateSRID(cfg.SRID); err != nil {
		return err
	}

	// The SRID invariant is read back from the catalog once both feature
	// tables exist.
	if _, err := d.LinkSequences(); err != nil {
		return err
	}
	if _, err := d.Nodes(); err != nil {
		return err
	}
	d.sridKnown = false
	if err := d.resolveSRID(); err != nil {
		return err
	}

	if err := d.writeMetadata(cfg); err != nil {
		return err
	}
	if cfg.CreateTables {
		return d.CreateAllTables(&cfg.HasTopologyLevel)
	}
	return nil
}

func (d *Database) writeMetadata(cfg types.DatasetConfig) error {
	md, err := d.Metadata()
	if err != nil {
		return err
	}
	dsType, err := types.ParseDataSetType(string(cfg.DataSetType))
	if err != nil {
		return err
	}
	viewDate := ""
	if cfg.ViewDate != nil {
		viewDate = cfg.ViewDate.UTC().Format(time.RFC3339)
	}
	entries := []types.Metadata{
		{Key: types.MetaVersion, Value: types.FormatVersion},
		{Key: types.MetaDatasetIdentifier, Value: cfg.DatasetIdentifier},
		{Key: types.MetaDatasetTimestamp, Value: time.Now().UTC().Format(time.RFC3339Nano)},
		{Key: types.MetaViewDate, Value: viewDate},
		{Key: types.MetaCRSName, Value: "EPSG:" + strconv.Itoa(cfg.SRID)},
		{Key: types.MetaDatasetType, Value: string(dsType)},
		{Key: types.MetaSpatialAttributeEncoding, Value: types.SpatialAttributeEncoding},
	}
	if cfg.CoordSystem != "" {
		entries = append(entries, types.Metadata{Key: types.MetaCoordSystemID, Value: cfg.CoordSystem})
	}
	for i := range entries {
		if err := md.Set(entries[i].Key, entries[i].Value); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
