package cli

import (
	"github.com/spf13/cobra"

	"machinetools/src/infra/importer"
	"machinetools/src/infra/logger"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			return database.Migrate(cmd.Context())
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import machine and requirement tables from CSV",
		Long: "Import " + importer.MachinesFile + " and, when present, " + importer.RequirementsFile +
			" from dir. The whole import runs in one transaction.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := importer.LoadCSV(args[0])
			if err != nil {
				return err
			}
			if migrate {
				database, err := a.open(ctx)
				if err != nil {
					return err
				}
				if err := database.Migrate(ctx); err != nil {
					return err
				}
			}

			r, err := a.repository(ctx)
			if err != nil {
				return err
			}
			n, err := r.Import(ctx, catalog.Machines, catalog.Requirements)
			if err != nil {
				return err
			}
			logger.Info(a.log, "catalog imported", "machines", n, "requirements", len(catalog.Requirements))
			return a.print(cmd.OutOrStdout(), map[string]int{
				"machines":     n,
				"requirements": len(catalog.Requirements),
			})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before importing")
	return cmd
}
