package cli

import (
	"fmt"
	"strconv"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/app"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/cli/formatter"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/importer"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "database ready: %s\n", a.Config.Database.Path)
				return nil
			})
		},
	}
}

func newSeedCmd(opts *Options) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users, plots, charges and content from a YAML or JSON file",
		Long: `Load a seed file in one transaction. Without --file the built-in demo
data set is loaded. Seeding a database that already holds any of the
users fails without writing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				schema *importer.SeedSchema
				err    error
			)
			if file != "" {
				schema, err = importer.LoadSeedSchema(file)
			} else {
				schema, err = importer.DemoSchema()
			}
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Seed(cmd.Context(), schema)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Header("Seeded"))
				fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable(
					[]string{"KIND", "COUNT"},
					[][]string{
						{"users", strconv.Itoa(res.Users)},
						{"plots", strconv.Itoa(res.Plots)},
						{"charges", strconv.Itoa(res.Charges)},
						{"announcements", strconv.Itoa(res.Announcements)},
						{"documents", strconv.Itoa(res.Documents)},
					},
					formatter.AlignRight(1),
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (.yaml, .yml or .json)")
	return cmd
}
