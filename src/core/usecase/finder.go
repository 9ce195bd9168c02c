package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"machinetools/src/core/domain"
	"machinetools/src/core/format"
	"machinetools/src/core/ports"
)

// DistinctColumns are the columns AllUniqueValues reports on.
var DistinctColumns = []string{
	domain.ColGroup,
	domain.ColType,
	domain.ColPower,
	domain.ColEfficiency,
	domain.ColAccuracy,
	domain.ColAutomation,
	domain.ColSpecialization,
	domain.ColWeightClass,
	domain.ColCity,
	domain.ColManufacturer,
	domain.ColMachineType,
}

// Finder exposes named searches over the machine catalog and shapes their
// results with a swappable formatter.
//
// Every search starts from a fresh query holding only the finder's default
// limit, so predicates never carry over between calls. A Finder is safe for
// concurrent use.
type Finder struct {
	repo         ports.MachineRepository
	log          *slog.Logger
	defaultLimit int

	mu        sync.RWMutex
	formatter ports.Formatter
}

// NewFinder creates a Finder. A nil formatter selects the list of names;
// defaultLimit <= 0 means unlimited.
func NewFinder(repo ports.MachineRepository, formatter ports.Formatter, defaultLimit int, log *slog.Logger) *Finder {
	if formatter == nil {
		formatter = format.ListNames{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Finder{
		repo:         repo,
		log:          log.With("component", "finder"),
		defaultLimit: max(defaultLimit, 0),
		formatter:    formatter,
	}
}

// Formatter returns the active formatter.
func (f *Finder) Formatter() ports.Formatter {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.formatter
}

// SetFormatter swaps the formatter used by subsequent searches.
func (f *Finder) SetFormatter(formatter ports.Formatter) {
	if formatter == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.formatter = formatter
}

// DefaultLimit returns the limit applied when a call does not override it.
func (f *Finder) DefaultLimit() int {
	return f.defaultLimit
}

type sortTerm struct {
	column     string
	descending bool
}

type searchOptions struct {
	limit  *int
	offset int
	orders []sortTerm
}

// SearchOption adjusts a single search call.
type SearchOption func(*searchOptions)

// WithLimit overrides the default limit for one call; n <= 0 means unlimited.
func WithLimit(n int) SearchOption {
	return func(o *searchOptions) {
		o.limit = &n
	}
}

// WithOffset skips the first n results.
func WithOffset(n int) SearchOption {
	return func(o *searchOptions) {
		o.offset = n
	}
}

// WithOrder sorts by column. Repeated options add tie-breakers in order;
// unknown columns are ignored.
func WithOrder(column string, descending bool) SearchOption {
	return func(o *searchOptions) {
		o.orders = append(o.orders, sortTerm{column: column, descending: descending})
	}
}

// Criterion narrows a distinct-value query.
type Criterion func(q ports.MachineQuery)

// InGroups restricts to the given group codes.
func InGroups(groups ...int) Criterion {
	return func(q ports.MachineQuery) {
		q.FilterByGroup(groups...)
	}
}

// OfTypes restricts to the given type codes.
func OfTypes(types ...int) Criterion {
	return func(q ports.MachineQuery) {
		q.FilterByType(types...)
	}
}

// search runs one search on a fresh query.
func (f *Finder) search(ctx context.Context, op string, filter func(q ports.MachineQuery), opts []SearchOption) (any, error) {
	var o searchOptions
	for _, opt := range opts {
		opt(&o)
	}

	q := f.repo.Query()
	filter(q)

	limit := f.defaultLimit
	if o.limit != nil {
		limit = *o.limit
	}
	q.Limit(limit).Offset(o.offset)
	for _, s := range o.orders {
		q.OrderBy(s.column, s.descending)
	}

	machines, err := q.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f.log.Debug("search finished", "op", op, "matches", len(machines), "limit", limit)
	return f.Formatter().Format(machines), nil
}

// FindByName matches names by the given comparison mode; the zero
// NameMatch is a case-insensitive substring match.
func (f *Finder) FindByName(ctx context.Context, name string, match domain.NameMatch, opts ...SearchOption) (any, error) {
	return f.search(ctx, "find by name", func(q ports.MachineQuery) {
		q.FilterByName(name, match)
	}, opts)
}

// FindByPower matches power within r.
func (f *Finder) FindByPower(ctx context.Context, r domain.Range, opts ...SearchOption) (any, error) {
	if err := validateRange(domain.ColPower, r); err != nil {
		return nil, err
	}
	return f.search(ctx, "find by power", func(q ports.MachineQuery) {
		q.FilterByPower(r)
	}, opts)
}

// FindByEfficiency matches efficiency within r.
func (f *Finder) FindByEfficiency(ctx context.Context, r domain.Range, opts ...SearchOption) (any, error) {
	if err := validateRange(domain.ColEfficiency, r); err != nil {
		return nil, err
	}
	return f.search(ctx, "find by efficiency", func(q ports.MachineQuery) {
		q.FilterByEfficiency(r)
	}, opts)
}

// FindByAccuracy matches any of the accuracy classes.
func (f *Finder) FindByAccuracy(ctx context.Context, values []domain.Accuracy, opts ...SearchOption) (any, error) {
	values, err := coerceAll(domain.AccuracyField, values)
	if err != nil {
		return nil, err
	}
	return f.search(ctx, "find by accuracy", func(q ports.MachineQuery) {
		q.FilterByAccuracy(values...)
	}, opts)
}

// FindByAutomation matches any of the automation levels.
func (f *Finder) FindByAutomation(ctx context.Context, values []domain.Automation, opts ...SearchOption) (any, error) {
	values, err := coerceAll(domain.AutomationField, values)
	if err != nil {
		return nil, err
	}
	return f.search(ctx, "find by automation", func(q ports.MachineQuery) {
		q.FilterByAutomation(values...)
	}, opts)
}

// FindBySpecialization matches any of the specializations.
func (f *Finder) FindBySpecialization(ctx context.Context, values []domain.Specialization, opts ...SearchOption) (any, error) {
	values, err := coerceAll(domain.SpecializationField, values)
	if err != nil {
		return nil, err
	}
	return f.search(ctx, "find by specialization", func(q ports.MachineQuery) {
		q.FilterBySpecialization(values...)
	}, opts)
}

// FindBySoftwareControl matches any of the software control kinds.
func (f *Finder) FindBySoftwareControl(ctx context.Context, values []domain.SoftwareControl, opts ...SearchOption) (any, error) {
	values, err := coerceAll(domain.SoftwareControlField, values)
	if err != nil {
		return nil, err
	}
	return f.search(ctx, "find by software control", func(q ports.MachineQuery) {
		q.FilterBySoftwareControl(values...)
	}, opts)
}

// FindByWeightClass matches any of the weight classes.
func (f *Finder) FindByWeightClass(ctx context.Context, values []domain.WeightClass, opts ...SearchOption) (any, error) {
	values, err := coerceAll(domain.WeightClassField, values)
	if err != nil {
		return nil, err
	}
	return f.search(ctx, "find by weight class", func(q ports.MachineQuery) {
		q.FilterByWeightClass(values...)
	}, opts)
}

// FindByType matches any of the type codes.
func (f *Finder) FindByType(ctx context.Context, types []int, opts ...SearchOption) (any, error) {
	if err := validateCodes(domain.ColType, types...); err != nil {
		return nil, err
	}
	return f.search(ctx, "find by type", func(q ports.MachineQuery) {
		q.FilterByType(types...)
	}, opts)
}

// FindByGroup matches any of the group codes.
func (f *Finder) FindByGroup(ctx context.Context, groups []int, opts ...SearchOption) (any, error) {
	if err := validateCodes(domain.ColGroup, groups...); err != nil {
		return nil, err
	}
	return f.search(ctx, "find by group", func(q ports.MachineQuery) {
		q.FilterByGroup(groups...)
	}, opts)
}

// FindByGroupAndType matches machines with both codes.
func (f *Finder) FindByGroupAndType(ctx context.Context, group, typ int, opts ...SearchOption) (any, error) {
	if err := validateCodes(domain.ColGroup, group); err != nil {
		return nil, err
	}
	if err := validateCodes(domain.ColType, typ); err != nil {
		return nil, err
	}
	return f.search(ctx, "find by group and type", func(q ports.MachineQuery) {
		q.FilterByGroup(group).FilterByType(typ)
	}, opts)
}

// FindAll returns every machine, subject to the limit.
func (f *Finder) FindAll(ctx context.Context, opts ...SearchOption) (any, error) {
	return f.search(ctx, "find all", func(ports.MachineQuery) {}, opts)
}

// UniqueValues returns the distinct values of column among the machines
// matching every criterion. The default limit does not apply.
func (f *Finder) UniqueValues(ctx context.Context, column string, criteria ...Criterion) ([]any, error) {
	q := f.repo.Query()
	for _, c := range criteria {
		c(q)
	}
	values, err := q.UniqueValues(ctx, column)
	if err != nil {
		return nil, fmt.Errorf("unique values of %s: %w", column, err)
	}
	return values, nil
}

// AllUniqueValues returns the distinct values of every DistinctColumns entry.
func (f *Finder) AllUniqueValues(ctx context.Context) (map[string][]any, error) {
	out := make(map[string][]any, len(DistinctColumns))
	for _, col := range DistinctColumns {
		values, err := f.UniqueValues(ctx, col)
		if err != nil {
			return nil, err
		}
		out[col] = values
	}
	return out, nil
}

func validateRange(field string, r domain.Range) error {
	for _, b := range []*float64{r.Min, r.Max} {
		if b != nil && math.IsNaN(*b) {
			return domain.NewValidationError(field, "range bound is not a number")
		}
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return domain.NewValidationError(field, fmt.Sprintf("min %v exceeds max %v", *r.Min, *r.Max))
	}
	return nil
}

func validateCodes(field string, codes ...int) error {
	if len(codes) == 0 {
		return domain.NewValidationError(field, "at least one value required")
	}
	for _, c := range codes {
		if c < domain.MinClassCode || c > domain.MaxClassCode {
			return domain.NewRangeError(field, float64(c), domain.MinClassCode, domain.MaxClassCode)
		}
	}
	return nil
}

func coerceAll[T ~string](field *domain.EnumField[T], values []T) ([]T, error) {
	if len(values) == 0 {
		return nil, domain.NewValidationError(field.Name(), "at least one value required")
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		c, err := field.Coerce(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
