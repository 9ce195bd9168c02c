// Package cli implements the machinetools command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"machinetools/src/infra/config"
	"machinetools/src/infra/db"
	"machinetools/src/infra/logger"
	"machinetools/src/infra/repo"
)

// app carries the dependencies shared by every command of one invocation.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	output string

	database *db.Database
}

// Execute runs the command line with args.
func Execute(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) error {
	root := NewRootCommand(cfg, log)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	a := &app{cfg: cfg, log: log}

	root := &cobra.Command{
		Use:   "machinetools",
		Short: "Machine tool catalog",
		Long:  "Search, inspect and update the industrial machine tool catalog.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.validateOutput()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputJSON, "output format: json or yaml")
	root.PersistentFlags().StringVar(&a.cfg.Database.Driver, "driver", a.cfg.Database.Driver, "storage driver: postgres or sqlite")
	root.PersistentFlags().StringVar(&a.cfg.Database.SQLitePath, "sqlite-path", a.cfg.Database.SQLitePath, "sqlite database file")

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newFindCmd(a),
		newValuesCmd(a),
		newUpdateCmd(a),
		newGroupsCmd(a),
		newHealthCmd(a),
	)
	return root
}

// open connects to the configured database once per invocation.
func (a *app) open(ctx context.Context) (*db.Database, error) {
	if a.database != nil {
		return a.database, nil
	}
	a.cfg.Database.Driver = strings.ToLower(a.cfg.Database.Driver)
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	database, err := db.Open(ctx, a.cfg.Database, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.database = database
	return database, nil
}

func (a *app) repository(ctx context.Context) (*repo.MachineRepository, error) {
	database, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	return repo.NewMachineRepository(database, logger.WithComponent(a.log, "repository")), nil
}

func (a *app) close() error {
	if a.database == nil {
		return nil
	}
	err := a.database.Close()
	a.database = nil
	return err
}

func (a *app) print(w io.Writer, v any) error {
	return writeOutput(w, a.output, v)
}
