package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"
)

type infoResult struct {
	Path             string            `json:"path" yaml:"path"`
	SRID             int               `json:"srid" yaml:"srid"`
	HasTopologyLevel bool              `json:"has_topology_level" yaml:"has_topology_level"`
	Tables           int               `json:"tables" yaml:"tables"`
	Digest           string            `json:"schema_digest" yaml:"schema_digest"`
	Metadata         map[string]string `json:"metadata" yaml:"metadata"`
}

func newInfoCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Show the dataset header of an OpenTNF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInfo(cmd, args[0], format)
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}

func (a *app) runInfo(cmd *cobra.Command, path, format string) error {
	db, err := a.open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	res := infoResult{Path: path, HasTopologyLevel: db.HasTopologyLevel()}
	if res.SRID, err = db.SRID(); err != nil {
		return err
	}
	tables, err := db.Tables()
	if err != nil {
		return err
	}
	for _, t := range tables {
		if t.Exists {
			res.Tables++
		}
	}
	if res.Digest, err = db.SchemaDigest(); err != nil {
		return err
	}
	md, err := db.Metadata()
	if err != nil {
		return err
	}
	if res.Metadata, err = md.Map(); err != nil {
		return err
	}

	return a.render(cmd, format, res, func(w io.Writer) error {
		printf(w, "path:      %s\n", res.Path)
		printf(w, "srid:      %d\n", res.SRID)
		printf(w, "topology:  %t\n", res.HasTopologyLevel)
		printf(w, "tables:    %d\n", res.Tables)
		printf(w, "digest:    %s\n", res.Digest)
		keys := make([]string, 0, len(res.Metadata))
		for k := range res.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			printf(w, "%s = %s\n", k, res.Metadata[k])
		}
		return nil
	})
}
