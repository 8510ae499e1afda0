package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/opentnf/tnfpkg/internal/paths"
	"github.com/opentnf/tnfpkg/internal/sqlite"
	"github.com/opentnf/tnfpkg/pkg/types"
)

type createOptions struct {
	srid        int
	identifier  string
	dataSetType string
	viewDate    string
	coordSystem string
	topology    bool
	allTables   bool
	force       bool
	format      string
}

// createResult is what create reports on success.
type createResult struct {
	Path       string `json:"path" yaml:"path"`
	SRID       int    `json:"srid" yaml:"srid"`
	Identifier string `json:"dataset_identifier" yaml:"dataset_identifier"`
	Type       string `json:"dataset_type" yaml:"dataset_type"`
	Template   string `json:"template,omitempty" yaml:"template,omitempty"`
	Digest     string `json:"schema_digest" yaml:"schema_digest"`
}

func newCreateCmd(a *app) *cobra.Command {
	var o createOptions
	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Create a new OpenTNF dataset",
		Long: `Create writes a new OpenTNF GeoPackage file. Settings not given as flags
are read from config.yaml. Without --identifier a fresh identifier is
generated.

Example:
  tnfpkg create roads.gpkg --srid 3006 --identifier roads-2026
  tnfpkg create roads.gpkg --type updates --topology --all-tables`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCreate(cmd, args[0], o)
		},
	}
	f := cmd.Flags()
	f.IntVar(&o.srid, "srid", -1, "spatial reference id (default: config srid)")
	f.StringVar(&o.identifier, "identifier", "", "dataset identifier")
	f.StringVar(&o.dataSetType, "type", "", "dataset type: SNAPSHOT or UPDATES")
	f.StringVar(&o.viewDate, "view-date", "", "view date (RFC 3339 or YYYY-MM-DD)")
	f.StringVar(&o.coordSystem, "coord-system", "", "coordinate system id for transformations")
	f.BoolVar(&o.topology, "topology", false, "create tnf_link with topology-level columns")
	f.BoolVar(&o.allTables, "all-tables", false, "create every OpenTNF table up front")
	f.BoolVar(&o.force, "force", false, "replace an existing file")
	addFormatFlag(cmd, &o.format)
	return cmd
}

func (a *app) runCreate(cmd *cobra.Command, path string, o createOptions) error {
	if _, err := os.Stat(path); err == nil && !o.force {
		return userErrorf("%s exists (use --force to replace it)", path)
	}

	cfg, err := a.datasetConfig(o)
	if err != nil {
		return err
	}
	template, err := paths.ResolveTemplate(a.template, a.cfg.GetString(cfgKeyTemplate), a.cfgDir)
	if err != nil {
		return fmt.Errorf("resolve template: %w", err)
	}

	opts := []sqlite.Option{sqlite.WithLogger(a.logger)}
	if template != "" {
		opts = append(opts, sqlite.WithTemplate(template))
	}
	db := sqlite.New(path, opts...)
	defer db.Close()
	if err := db.Create(cfg); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	digest, err := db.SchemaDigest()
	if err != nil {
		return err
	}

	res := createResult{
		Path:       path,
		SRID:       cfg.SRID,
		Identifier: cfg.DatasetIdentifier,
		Type:       string(cfg.DataSetType),
		Template:   template,
		Digest:     digest,
	}
	return a.render(cmd, o.format, res, func(w io.Writer) error {
		printf(w, "created %s (EPSG:%d, %s, %s)\n", res.Path, res.SRID, res.Type, res.Identifier)
		return nil
	})
}

// datasetConfig merges flags over config.yaml values.
func (a *app) datasetConfig(o createOptions) (types.DatasetConfig, error) {
	cfg := types.DatasetConfig{
		SRID:              o.srid,
		DatasetIdentifier: o.identifier,
		DataSetType:       types.DataSetType(o.dataSetType),
		CoordSystem:       o.coordSystem,
		HasTopologyLevel:  o.topology,
		CreateTables:      o.allTables,
	}
	if cfg.SRID < 0 {
		cfg.SRID = a.cfg.GetInt(cfgKeySRID)
	}
	if cfg.DatasetIdentifier == "" {
		cfg.DatasetIdentifier = a.cfg.GetString(cfgKeyIdentifier)
	}
	if cfg.DatasetIdentifier == "" {
		cfg.DatasetIdentifier = types.NewOID()
	}
	if cfg.DataSetType == "" {
		cfg.DataSetType = types.DataSetType(a.cfg.GetString(cfgKeyDataSetType))
	}
	if cfg.CoordSystem == "" {
		cfg.CoordSystem = a.cfg.GetString(cfgKeyCoordSystem)
	}
	dsType, err := types.ParseDataSetType(string(cfg.DataSetType))
	if err != nil {
		return cfg, userErrorf("dataset type %q: %w", cfg.DataSetType, err)
	}
	cfg.DataSetType = dsType

	if o.viewDate != "" {
		t, err := parseDate(o.viewDate)
		if err != nil {
			return cfg, err
		}
		cfg.ViewDate = &t
	}
	if err := cfg.Validate(); err != nil {
		return cfg, userError{err}
	}
	return cfg, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, userErrorf("invalid date %q (want RFC 3339 or YYYY-MM-DD)", s)
}
