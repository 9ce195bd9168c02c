package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"machinetools/src/core/domain"
	"machinetools/src/core/usecase"
)

var errUnhealthy = errors.New("catalog is unhealthy")

func newGroupsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List machine group codes and their descriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(cmd.OutOrStdout(), domain.Groups())
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the database is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			status := usecase.NewHealthService(r, a.log).Check(cmd.Context())
			if err := a.print(cmd.OutOrStdout(), status); err != nil {
				return err
			}
			if !status.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
}
