package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"machinetools/src/core/domain"
	"machinetools/src/core/usecase"
)

type updateResult struct {
	Updated int64 `json:"updated" yaml:"updated"`
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		id            int64
		name          string
		payloadPath string
		substring   bool
		ignoreCase  bool
	)

	cmd := &cobra.Command{
		Use:   "update (--id N | --name NAME) --payload FILE",
		Short: "Apply a partial update to matching machines",
		Long: `Apply a partial update read from a YAML or JSON file ("-" reads stdin).

Keys are column names. The nested "dimensions" and "location" mappings are
flattened into their columns, a null value resets a column, and
"technical_requirements" replaces the requirement rows of every matched
machine.

--name matches the whole name, case included, unless --substring or
--ignore-case widen it. --id exits with an error when no machine has that id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			byID := cmd.Flags().Changed("id")
			if byID == (name != "") {
				return fmt.Errorf("exactly one of --id and --name is required")
			}

			update, err := readUpdate(cmd.InOrStdin(), payloadPath)
			if err != nil {
				return err
			}

			r, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			updater := usecase.NewUpdater(r, a.log)

			if byID {
				ok, err := updater.UpdateByID(cmd.Context(), id, update)
				if err != nil {
					return err
				}
				if !ok {
					return domain.NewNotFoundError(fmt.Sprintf("machine with id %d", id))
				}
				return a.print(cmd.OutOrStdout(), updateResult{Updated: 1})
			}

			match := domain.NameMatch{CaseSensitive: !ignoreCase, ExactMatch: !substring}
			n, err := updater.UpdateByName(cmd.Context(), name, match, update)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), updateResult{Updated: n})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&id, "id", 0, "machine id")
	f.StringVar(&name, "name", "", "machine name")
	f.StringVar(&payloadPath, "payload", "", "update file, - for stdin")
	f.BoolVar(&substring, "substring", false, "match names containing --name")
	f.BoolVar(&ignoreCase, "ignore-case", false, "ignore name case")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

func readUpdate(stdin io.Reader, path string) (domain.MachineUpdate, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.MachineUpdate{}, fmt.Errorf("failed to read payload: %w", err)
	}

	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return domain.MachineUpdate{}, domain.NewValidationError("payload", err.Error())
	}
	return domain.DecodeUpdate(payload)
}
