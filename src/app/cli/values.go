package cli

import (
	"github.com/spf13/cobra"

	"machinetools/src/core/usecase"
)

func newValuesCmd(a *app) *cobra.Command {
	var groups, types []int

	cmd := &cobra.Command{
		Use:   "values [column]",
		Short: "List the distinct values of a column",
		Long:  "List the distinct values of a column, or of every searchable column when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			finder := usecase.NewFinder(r, nil, a.cfg.Finder.DefaultLimit, a.log)

			if len(args) == 0 {
				all, err := finder.AllUniqueValues(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(cmd.OutOrStdout(), all)
			}

			var criteria []usecase.Criterion
			if len(groups) > 0 {
				criteria = append(criteria, usecase.InGroups(groups...))
			}
			if len(types) > 0 {
				criteria = append(criteria, usecase.OfTypes(types...))
			}
			values, err := finder.UniqueValues(cmd.Context(), args[0], criteria...)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), values)
		},
	}
	cmd.Flags().IntSliceVar(&groups, "group", nil, "restrict to group codes")
	cmd.Flags().IntSliceVar(&types, "type", nil, "restrict to type codes")
	return cmd
}
