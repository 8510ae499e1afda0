package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// defaultIndexed lists the geometry columns indexed when none is named.
var defaultIndexed = [][2]string{
	{types.LinkSequenceTable, "geometry"},
	{types.NodeTable, "geometry"},
}

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file> [table column]",
		Short: "Build GeoPackage spatial indexes",
		Long: `Index builds the R-tree spatial index of a geometry column. Without a
table and column it indexes tnf_link_sequence and tnf_node.

Example:
  tnfpkg index roads.gpkg
  tnfpkg index roads.gpkg tnf_area shape`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return userErrorf("index takes a file, optionally followed by a table and a column")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := defaultIndexed
			if len(args) == 3 {
				targets = [][2]string{{args[1], args[2]}}
			}
			db, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Begin(); err != nil {
				return err
			}
			for _, tc := range targets {
				tm, err := db.Table(tc[0])
				if err == nil {
					err = tm.ApplySpatialIndex(tc[1])
				}
				if err != nil {
					if abortErr := db.Abort(); abortErr != nil {
						a.logger.Warn("aborting index build", "error", abortErr)
					}
					return fmt.Errorf("index %s.%s: %w", tc[0], tc[1], err)
				}
			}
			if err := db.Commit(); err != nil {
				return err
			}
			return a.render(cmd, formatText, targets, func(w io.Writer) error {
				for _, tc := range targets {
					printf(w, "indexed %s.%s\n", tc[0], tc[1])
				}
				return nil
			})
		},
	}
	return cmd
}
