package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/opentnf/tnfpkg/internal/sqlite"
)

var errInvalidFile = errors.New("file failed validation")

func newValidateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a file is a GeoPackage container",
		Long: `Validate checks the SQLite header, the GeoPackage application id and the
file extension. It exits with status 1 when any error is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sqlite.ValidateFile(args[0])
			if err != nil {
				return userError{err}
			}
			if err := a.render(cmd, format, res, func(w io.Writer) error {
				for _, m := range res.Messages {
					printf(w, "%s: %s\n", m.Severity, m.Message)
				}
				if res.OK() {
					printf(w, "%s: ok\n", res.Path)
				}
				return nil
			}); err != nil {
				return err
			}
			if !res.OK() {
				return userError{errInvalidFile}
			}
			return nil
		},
	}
	addFormatFlag(cmd, &format)
	return cmd
}
