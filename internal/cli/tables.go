package cli

import (
	"io"

	"github.com/spf13/cobra"
)

func newTablesCmd(a *app) *cobra.Command {
	var (
		format  string
		missing bool
	)
	cmd := &cobra.Command{
		Use:   "tables <file>",
		Short: "List the OpenTNF tables of a file with their row counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer db.Close()

			all, err := db.Tables()
			if err != nil {
				return err
			}
			if !missing {
				present := all[:0]
				for _, t := range all {
					if t.Exists {
						present = append(present, t)
					}
				}
				all = present
			}
			return a.render(cmd, format, all, func(w io.Writer) error {
				for _, t := range all {
					if !t.Exists {
						printf(w, "%-55s missing\n", t.Name)
						continue
					}
					printf(w, "%-55s %d\n", t.Name, t.Rows)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&missing, "all", false, "include tables the file does not hold")
	addFormatFlag(cmd, &format)
	return cmd
}
