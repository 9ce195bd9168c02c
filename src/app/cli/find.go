package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"machinetools/src/core/domain"
	"machinetools/src/core/format"
	"machinetools/src/core/usecase"
	"machinetools/src/infra/logger"
)

const findLong = `Search the catalog by one criterion.

Criteria:
  all
  name <text>                  substring match, see --exact and --case-sensitive
  power <min> <max>            inclusive range, "-" leaves a bound open
  efficiency <min> <max>
  accuracy <label>...
  automation <label>...
  specialization <label>...
  software-control <label>...
  weight-class <label>...
  group <code>...
  type <code>...
  group-type <group> <type>`

type findOptions struct {
	shape         string
	key           string
	limit         int
	offset        int
	orders        []string
	desc          bool
	exact         bool
	caseSensitive bool
}

func newFindCmd(a *app) *cobra.Command {
	var o findOptions

	cmd := &cobra.Command{
		Use:   "find <criterion> [values...]",
		Short: "Search the catalog",
		Long:  findLong,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := format.New(format.Shape(o.shape), format.Key(o.key))
			if err != nil {
				return err
			}
			r, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			finder := usecase.NewFinder(r, formatter, a.cfg.Finder.DefaultLimit, logger.WithComponent(a.log, "cli"))

			var opts []usecase.SearchOption
			if cmd.Flags().Changed("limit") {
				opts = append(opts, usecase.WithLimit(o.limit))
			}
			if o.offset > 0 {
				opts = append(opts, usecase.WithOffset(o.offset))
			}
			for _, col := range o.orders {
				opts = append(opts, usecase.WithOrder(col, o.desc))
			}

			match := domain.NameMatch{CaseSensitive: o.caseSensitive, ExactMatch: o.exact}
			result, err := find(cmd.Context(), finder, args[0], args[1:], match, opts)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), result)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.shape, "shape", string(format.ShapeNames), "result shape: names or info")
	f.StringVar(&o.key, "key", string(format.KeyList), "result collection: list, id or index")
	f.IntVar(&o.limit, "limit", 0, "maximum number of results, 0 for no limit (default from config)")
	f.IntVar(&o.offset, "offset", 0, "number of results to skip")
	f.StringSliceVar(&o.orders, "order", nil, "sort columns, in priority order")
	f.BoolVar(&o.desc, "desc", false, "sort descending")
	f.BoolVar(&o.exact, "exact", false, "match the whole name")
	f.BoolVar(&o.caseSensitive, "case-sensitive", false, "match name case")
	return cmd
}

func find(ctx context.Context, f *usecase.Finder, criterion string, args []string, match domain.NameMatch, opts []usecase.SearchOption) (any, error) {
	switch criterion {
	case "all":
		if err := wantArgs(criterion, args, 0); err != nil {
			return nil, err
		}
		return f.FindAll(ctx, opts...)
	case "name":
		if err := wantArgs(criterion, args, 1); err != nil {
			return nil, err
		}
		return f.FindByName(ctx, args[0], match, opts...)
	case "power", "efficiency":
		r, err := parseRange(criterion, args)
		if err != nil {
			return nil, err
		}
		if criterion == "power" {
			return f.FindByPower(ctx, r, opts...)
		}
		return f.FindByEfficiency(ctx, r, opts...)
	case "accuracy":
		return f.FindByAccuracy(ctx, labelsOf[domain.Accuracy](args), opts...)
	case "automation":
		return f.FindByAutomation(ctx, labelsOf[domain.Automation](args), opts...)
	case "specialization":
		return f.FindBySpecialization(ctx, labelsOf[domain.Specialization](args), opts...)
	case "software-control":
		return f.FindBySoftwareControl(ctx, labelsOf[domain.SoftwareControl](args), opts...)
	case "weight-class":
		return f.FindByWeightClass(ctx, labelsOf[domain.WeightClass](args), opts...)
	case "group", "type":
		codes, err := parseCodes(criterion, args)
		if err != nil {
			return nil, err
		}
		if criterion == "group" {
			return f.FindByGroup(ctx, codes, opts...)
		}
		return f.FindByType(ctx, codes, opts...)
	case "group-type":
		if err := wantArgs(criterion, args, 2); err != nil {
			return nil, err
		}
		codes, err := parseCodes(criterion, args)
		if err != nil {
			return nil, err
		}
		return f.FindByGroupAndType(ctx, codes[0], codes[1], opts...)
	default:
		return nil, domain.NewValidationError("criterion", fmt.Sprintf("unknown criterion %q", criterion))
	}
}

func wantArgs(criterion string, args []string, n int) error {
	if len(args) != n {
		return domain.NewValidationError(criterion, fmt.Sprintf("expected %d values, got %d", n, len(args)))
	}
	return nil
}

// parseRange reads "<min> <max>"; "-" leaves a bound open.
func parseRange(field string, args []string) (domain.Range, error) {
	if err := wantArgs(field, args, 2); err != nil {
		return domain.Range{}, err
	}
	var r domain.Range
	bounds := []**float64{&r.Min, &r.Max}
	for i, s := range args {
		if s == "-" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Range{}, domain.NewValidationError(field, fmt.Sprintf("%q is not a number", s))
		}
		*bounds[i] = &v
	}
	return r, nil
}

func parseCodes(field string, args []string) ([]int, error) {
	codes := make([]int, 0, len(args))
	for _, s := range args {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, domain.NewValidationError(field, fmt.Sprintf("%q is not an integer", s))
		}
		codes = append(codes, v)
	}
	return codes, nil
}

func labelsOf[T ~string](args []string) []T {
	out := make([]T, 0, len(args))
	for _, s := range args {
		out = append(out, T(s))
	}
	return out
}
