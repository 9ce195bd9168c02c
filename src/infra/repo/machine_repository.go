package repo

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"

	"machinetools/src/core/domain"
	"machinetools/src/core/ports"
	"machinetools/src/infra/db"
	"machinetools/src/infra/logger"
)

// maxInParams bounds the number of bound parameters of one IN list. SQLite
// refuses statements above its variable limit.
const maxInParams = 500

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MachineRepository implements ports.MachineRepository on database/sql.
type MachineRepository struct {
	db      *sql.DB
	dialect db.Dialect
	sq      squirrel.StatementBuilderType
	log     *slog.Logger
	now     func() time.Time
}

var _ ports.MachineRepository = (*MachineRepository)(nil)

// NewMachineRepository constructs a repository on an open database.
func NewMachineRepository(database *db.Database, log *slog.Logger) *MachineRepository {
	return &MachineRepository{
		db:      database.DB,
		dialect: database.Dialect,
		sq:      squirrel.StatementBuilder.PlaceholderFormat(database.Dialect.Placeholder),
		log:     logger.WithComponent(log, "machine_repository"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Health checks if the database is reachable.
func (r *MachineRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Query returns a fresh builder.
func (r *MachineRepository) Query() ports.MachineQuery {
	return &machineQuery{repo: r}
}

// Import inserts machines and their requirement rows in one transaction.
func (r *MachineRepository) Import(ctx context.Context, machines []domain.Machine, requirements []domain.Requirement) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := r.now()
	names := make(map[string]bool, len(machines))
	for i := range machines {
		m := machines[i]
		if err := m.Validate(); err != nil {
			return 0, fmt.Errorf("machine %d: %w", i+1, err)
		}
		if names[m.Name] {
			return 0, domain.NewConflictError(fmt.Sprintf("duplicate machine name %q", m.Name))
		}
		names[m.Name] = true

		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.UpdatedAt.IsZero() {
			m.UpdatedAt = m.CreatedAt
		}
		query, args, err := r.sq.Insert(machinesTable).
			Columns(quoted(machineColumns[1:])...).
			Values(machineValues(&m)...).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build machine insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if db.IsUniqueViolation(err) {
				return 0, domain.NewConflictError(fmt.Sprintf("machine %q already exists", m.Name))
			}
			return 0, fmt.Errorf("insert machine %q: %w", m.Name, err)
		}
	}

	if err := r.checkMachinesExist(ctx, tx, requirements, names); err != nil {
		return 0, err
	}
	for _, req := range requirements {
		if err := r.insertRequirement(ctx, tx, req.MachineName, req.Requirement, req.Value); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.Info(r.log, "catalog imported",
		"machines", len(machines),
		"requirements", len(requirements),
	)
	return len(machines), nil
}

// checkMachinesExist fails when a requirement names a machine that is in
// neither known nor the store.
func (r *MachineRepository) checkMachinesExist(ctx context.Context, ex execer, requirements []domain.Requirement, known map[string]bool) error {
	missing := make(map[string]bool)
	for _, req := range requirements {
		if !known[req.MachineName] {
			missing[req.MachineName] = true
		}
	}
	if len(missing) == 0 {
		return nil
	}

	lookup := make([]string, 0, len(missing))
	for name := range missing {
		lookup = append(lookup, name)
	}
	sort.Strings(lookup)

	for _, chunk := range chunks(lookup, maxInParams) {
		query, args, err := r.sq.Select(quote(domain.ColName)).
			From(machinesTable).
			Where(squirrel.Eq{quote(domain.ColName): chunk}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build machine lookup: %w", err)
		}
		found, err := queryStrings(ctx, ex, query, args)
		if err != nil {
			return err
		}
		for _, name := range found {
			delete(missing, name)
		}
	}

	for _, name := range lookup {
		if missing[name] {
			return domain.NewValidationError(domain.ColRequirements, fmt.Sprintf("unknown machine %q", name))
		}
	}
	return nil
}

func (r *MachineRepository) insertRequirement(ctx context.Context, ex execer, machine, requirement string, value *string) error {
	query, args, err := r.sq.Insert(requirementsTable).
		Columns("machine_name", "requirement", "value").
		Values(machine, requirement, ptrToValue(value)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build requirement insert: %w", err)
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		if db.IsForeignKeyViolation(err) {
			return domain.NewValidationError(domain.ColRequirements, fmt.Sprintf("unknown machine %q", machine))
		}
		return fmt.Errorf("insert requirement %q of %q: %w", requirement, machine, err)
	}
	return nil
}

// replaceRequirements deletes every requirement row of names and inserts
// reqs for each of them.
func (r *MachineRepository) replaceRequirements(ctx context.Context, ex execer, names []string, reqs map[string]*string) error {
	keys := make([]string, 0, len(reqs))
	for k := range reqs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, chunk := range chunks(names, maxInParams) {
		query, args, err := r.sq.Delete(requirementsTable).
			Where(squirrel.Eq{"machine_name": chunk}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build requirement delete: %w", err)
		}
		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete requirements: %w", err)
		}
	}

	for _, name := range names {
		for _, k := range keys {
			if err := r.insertRequirement(ctx, ex, name, k, reqs[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadRequirements attaches requirement rows to machines, in row id order.
func (r *MachineRepository) loadRequirements(ctx context.Context, ex execer, machines []domain.Machine) error {
	if len(machines) == 0 {
		return nil
	}
	index := make(map[string]int, len(machines))
	names := make([]string, 0, len(machines))
	for i := range machines {
		index[machines[i].Name] = i
		names = append(names, machines[i].Name)
	}

	for _, chunk := range chunks(names, maxInParams) {
		query, args, err := r.sq.Select("id", "machine_name", "requirement", "value").
			From(requirementsTable).
			Where(squirrel.Eq{"machine_name": chunk}).
			OrderBy("id ASC").
			ToSql()
		if err != nil {
			return fmt.Errorf("build requirement select: %w", err)
		}
		rows, err := ex.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select requirements: %w", err)
		}
		for rows.Next() {
			var req domain.Requirement
			var value sql.NullString
			if err := rows.Scan(&req.ID, &req.MachineName, &req.Requirement, &value); err != nil {
				rows.Close()
				return fmt.Errorf("scan requirement: %w", err)
			}
			req.Value = nullToStringPtr(value)
			i := index[req.MachineName]
			machines[i].Requirements = append(machines[i].Requirements, req)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func queryStrings(ctx context.Context, ex execer, query string, args []any) ([]string, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func chunks[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
