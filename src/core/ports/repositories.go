// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra/repo. This ensures the core has no dependency on infrastructure.
package ports

import (
	"context"

	"machinetools/src/core/domain"
)

// Repository is the base interface for all repositories.
// Concrete repositories should embed this and add entity-specific methods.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// MachineRepository owns the machine and requirement tables.
type MachineRepository interface {
	Repository

	// Query returns a fresh builder with no predicates, no sort and no limit.
	Query() MachineQuery

	// Import inserts machines and requirement rows in one transaction and
	// returns the number of machines inserted. A requirement naming a
	// machine that exists in neither the store nor the batch fails the
	// whole import.
	Import(ctx context.Context, machines []domain.Machine, requirements []domain.Requirement) (int, error)
}

// MachineQuery accumulates implicitly ANDed predicates, a sort spec and a
// limit/offset window over the machine collection.
//
// A MachineQuery is not safe for concurrent use. Builder methods mutate the
// receiver and return it for chaining.
type MachineQuery interface {
	FilterByID(ids ...int64) MachineQuery
	FilterByName(name string, match domain.NameMatch) MachineQuery
	FilterByGroup(groups ...int) MachineQuery
	FilterByType(types ...int) MachineQuery
	FilterByPower(r domain.Range) MachineQuery
	FilterByEfficiency(r domain.Range) MachineQuery
	FilterByAccuracy(values ...domain.Accuracy) MachineQuery
	FilterByAutomation(values ...domain.Automation) MachineQuery
	FilterBySpecialization(values ...domain.Specialization) MachineQuery
	FilterBySoftwareControl(values ...domain.SoftwareControl) MachineQuery
	FilterByWeightClass(values ...domain.WeightClass) MachineQuery

	// OrderBy appends a sort term. Unknown columns are ignored.
	OrderBy(column string, descending bool) MachineQuery

	// Limit caps the result size; n <= 0 removes the cap.
	Limit(n int) MachineQuery
	Offset(n int) MachineQuery

	// Reset clears every predicate, sort term, limit and offset.
	Reset() MachineQuery

	// Execute returns the matching machines with their requirement rows.
	// Without sort terms the order is ascending id.
	Execute(ctx context.Context) ([]domain.Machine, error)

	// UniqueValues returns the distinct non-null values of column among the
	// matching machines, sorted ascending. Unknown columns yield an empty list.
	UniqueValues(ctx context.Context, column string) ([]any, error)

	// Update applies a flattened payload to every matching machine and
	// returns the number of machines updated. Sort, limit and offset do not
	// narrow the target set. A non-empty requirement map under
	// domain.ColRequirements replaces the requirement rows of every updated
	// machine within the same transaction.
	Update(ctx context.Context, payload map[string]any) (int64, error)
}
