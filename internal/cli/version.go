package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opentnf/tnfpkg/pkg/types"
)

// Version is the tnfpkg release, overridden at link time.
var Version = "0.1.0"

const modulePath = "github.com/opentnf/tnfpkg"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the tnfpkg version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tnfpkg v%s\nmodule: %s\nformat: OpenTNF %s\n", Version, modulePath, types.FormatVersion)
			return nil
		},
	}
}
