package repo

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"machinetools/src/core/domain"
	"machinetools/src/core/ports"
	"machinetools/src/infra/db"
	"machinetools/src/infra/logger"
)

// machineQuery implements ports.MachineQuery with squirrel.
type machineQuery struct {
	repo   *MachineRepository
	where  []squirrel.Sqlizer
	orders []string
	limit  int
	offset int
}

var _ ports.MachineQuery = (*machineQuery)(nil)

// FilterByID matches any of the ids.
func (q *machineQuery) FilterByID(ids ...int64) ports.MachineQuery {
	return q.filterIn(domain.ColID, ids)
}

// FilterByName matches names in one of the four comparison modes.
func (q *machineQuery) FilterByName(name string, match domain.NameMatch) ports.MachineQuery {
	col := quote(domain.ColName)
	d := q.repo.dialect
	switch {
	case match.ExactMatch && match.CaseSensitive:
		q.where = append(q.where, squirrel.Eq{col: name})
	case match.ExactMatch:
		q.where = append(q.where, squirrel.Expr(fmt.Sprintf("%s(%s) = %s(?)", d.Fold, col, d.Fold), name))
	case match.CaseSensitive:
		q.where = append(q.where, squirrel.Expr(fmt.Sprintf("%s(%s, ?) > 0", d.Position, col), name))
	default:
		q.where = append(q.where, squirrel.Expr(
			fmt.Sprintf("%s(%s(%s), %s(?)) > 0", d.Position, d.Fold, col, d.Fold), name,
		))
	}
	return q
}

// FilterByGroup matches any of the group codes.
func (q *machineQuery) FilterByGroup(groups ...int) ports.MachineQuery {
	return q.filterIn(domain.ColGroup, groups)
}

// FilterByType matches any of the type codes.
func (q *machineQuery) FilterByType(types ...int) ports.MachineQuery {
	return q.filterIn(domain.ColType, types)
}

// FilterByPower matches power within r.
func (q *machineQuery) FilterByPower(r domain.Range) ports.MachineQuery {
	return q.filterRange(domain.ColPower, r)
}

// FilterByEfficiency matches efficiency within r.
func (q *machineQuery) FilterByEfficiency(r domain.Range) ports.MachineQuery {
	return q.filterRange(domain.ColEfficiency, r)
}

// FilterByAccuracy matches any of the accuracy classes.
func (q *machineQuery) FilterByAccuracy(values ...domain.Accuracy) ports.MachineQuery {
	return q.filterIn(domain.ColAccuracy, labels(values))
}

// FilterByAutomation matches any of the automation levels.
func (q *machineQuery) FilterByAutomation(values ...domain.Automation) ports.MachineQuery {
	return q.filterIn(domain.ColAutomation, labels(values))
}

// FilterBySpecialization matches any of the specializations.
func (q *machineQuery) FilterBySpecialization(values ...domain.Specialization) ports.MachineQuery {
	return q.filterIn(domain.ColSpecialization, labels(values))
}

// FilterBySoftwareControl matches any of the software control kinds.
func (q *machineQuery) FilterBySoftwareControl(values ...domain.SoftwareControl) ports.MachineQuery {
	return q.filterIn(domain.ColSoftwareControl, labels(values))
}

// FilterByWeightClass matches any of the weight classes.
func (q *machineQuery) FilterByWeightClass(values ...domain.WeightClass) ports.MachineQuery {
	return q.filterIn(domain.ColWeightClass, labels(values))
}

// filterIn adds col = v for one value and col IN (...) for several. An empty
// list adds nothing.
func (q *machineQuery) filterIn(col string, values any) ports.MachineQuery {
	switch v := values.(type) {
	case []int:
		if len(v) == 1 {
			q.where = append(q.where, squirrel.Eq{quote(col): v[0]})
		} else if len(v) > 1 {
			q.where = append(q.where, squirrel.Eq{quote(col): v})
		}
	case []int64:
		if len(v) == 1 {
			q.where = append(q.where, squirrel.Eq{quote(col): v[0]})
		} else if len(v) > 1 {
			q.where = append(q.where, squirrel.Eq{quote(col): v})
		}
	case []string:
		if len(v) == 1 {
			q.where = append(q.where, squirrel.Eq{quote(col): v[0]})
		} else if len(v) > 1 {
			q.where = append(q.where, squirrel.Eq{quote(col): v})
		}
	}
	return q
}

func (q *machineQuery) filterRange(col string, r domain.Range) ports.MachineQuery {
	if r.Min != nil {
		q.where = append(q.where, squirrel.GtOrEq{quote(col): *r.Min})
	}
	if r.Max != nil {
		q.where = append(q.where, squirrel.LtOrEq{quote(col): *r.Max})
	}
	return q
}

// OrderBy appends a sort term; unknown columns are ignored.
func (q *machineQuery) OrderBy(column string, descending bool) ports.MachineQuery {
	if !isMachineColumn(column) {
		logger.Debug(q.repo.log, "ignoring sort by unknown column", "column", column)
		return q
	}
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	q.orders = append(q.orders, quote(column)+" "+dir)
	return q
}

// Limit caps the result size; n <= 0 removes the cap.
func (q *machineQuery) Limit(n int) ports.MachineQuery {
	q.limit = max(n, 0)
	return q
}

// Offset skips the first n results.
func (q *machineQuery) Offset(n int) ports.MachineQuery {
	q.offset = max(n, 0)
	return q
}

// Reset clears predicates, sort terms and the window.
func (q *machineQuery) Reset() ports.MachineQuery {
	q.where = nil
	q.orders = nil
	q.limit = 0
	q.offset = 0
	return q
}

func (q *machineQuery) selectFrom(columns ...string) squirrel.SelectBuilder {
	b := q.repo.sq.Select(columns...).From(machinesTable)
	for _, w := range q.where {
		b = b.Where(w)
	}
	return b
}

// Execute returns the matching machines with their requirements, ordered by
// the sort terms and then by id.
func (q *machineQuery) Execute(ctx context.Context) ([]domain.Machine, error) {
	b := q.selectFrom(quoted(machineColumns)...).
		OrderBy(q.orders...).
		OrderBy(quote(domain.ColID) + " ASC")
	if q.limit > 0 {
		b = b.Limit(uint64(q.limit))
	} else if q.offset > 0 {
		b = b.Limit(math.MaxInt64)
	}
	if q.offset > 0 {
		b = b.Offset(uint64(q.offset))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build machine select: %w", err)
	}
	logger.Debug(q.repo.log, "executing query", "sql", query, "args", len(args))

	rows, err := q.repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select machines: %w", err)
	}
	defer rows.Close()

	machines := []domain.Machine{}
	for rows.Next() {
		var row machineRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan machine: %w", err)
		}
		machines = append(machines, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := q.repo.loadRequirements(ctx, q.repo.db, machines); err != nil {
		return nil, err
	}
	return machines, nil
}

// UniqueValues returns the sorted distinct non-null values of column.
func (q *machineQuery) UniqueValues(ctx context.Context, column string) ([]any, error) {
	if !isMachineColumn(column) {
		return []any{}, nil
	}
	col := quote(column)
	query, args, err := q.selectFrom(col).
		Distinct().
		Where(squirrel.NotEq{col: nil}).
		OrderBy(col + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build distinct select: %w", err)
	}

	rows, err := q.repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := []any{}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, normalizeValue(column, v))
	}
	return values, rows.Err()
}

// Update applies payload to the matching machines in one transaction: the
// column update first, then requirement replacement keyed by the names the
// machines have after the update.
func (q *machineQuery) Update(ctx context.Context, payload map[string]any) (int64, error) {
	columns, reqs, err := splitPayload(payload)
	if err != nil {
		return 0, err
	}
	opID := ports.OperationID(ctx)
	if opID == "" {
		opID = uuid.NewString()
	}
	log := logger.WithOperation(q.repo.log, opID)

	tx, err := q.repo.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	query, args, err := q.selectFrom(quote(domain.ColID)).OrderBy(quote(domain.ColID) + " ASC").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build target select: %w", err)
	}
	ids, err := queryIDs(ctx, tx, query, args)
	if err != nil {
		return 0, fmt.Errorf("select update targets: %w", err)
	}
	if len(ids) == 0 {
		logger.Debug(log, "no machines matched update")
		return 0, nil
	}

	now := q.repo.now()
	keys := make([]string, 0, len(columns))
	for k := range columns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, chunk := range chunks(ids, maxInParams) {
		b := q.repo.sq.Update(machinesTable)
		for _, k := range keys {
			b = b.Set(quote(k), columns[k])
		}
		query, args, err := b.Set(quote(domain.ColUpdatedAt), now).
			Where(squirrel.Eq{quote(domain.ColID): chunk}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build machine update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if db.IsUniqueViolation(err) {
				return 0, domain.NewConflictError("machine name already exists")
			}
			return 0, fmt.Errorf("update machines: %w", err)
		}
	}
	logger.Debug(log, "machine columns updated", "machines", len(ids), "columns", keys)

	if len(reqs) > 0 {
		names, err := q.repo.namesByID(ctx, tx, ids)
		if err != nil {
			return 0, err
		}
		if err := q.repo.replaceRequirements(ctx, tx, names, reqs); err != nil {
			return 0, err
		}
		logger.Debug(log, "requirements replaced", "machines", len(names), "requirements", len(reqs))
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

// splitPayload separates the requirement map from the column assignments
// and rejects keys that are not updatable columns.
func splitPayload(payload map[string]any) (map[string]any, map[string]*string, error) {
	columns := make(map[string]any, len(payload))
	var reqs map[string]*string
	updatable := domain.UpdatableColumns()

	for k, v := range payload {
		if k == domain.ColRequirements {
			if v == nil {
				continue
			}
			m, ok := v.(map[string]*string)
			if !ok {
				return nil, nil, domain.NewValidationError(k, fmt.Sprintf("expected map[string]*string, got %T", v))
			}
			reqs = m
			continue
		}
		if !contains(updatable, k) {
			return nil, nil, domain.NewValidationError(k, "not an updatable column")
		}
		columns[k] = v
	}
	return columns, reqs, nil
}

func (r *MachineRepository) namesByID(ctx context.Context, ex execer, ids []int64) ([]string, error) {
	var names []string
	for _, chunk := range chunks(ids, maxInParams) {
		query, args, err := r.sq.Select(quote(domain.ColName)).
			From(machinesTable).
			Where(squirrel.Eq{quote(domain.ColID): chunk}).
			OrderBy(quote(domain.ColID) + " ASC").
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build name select: %w", err)
		}
		found, err := queryStrings(ctx, ex, query, args)
		if err != nil {
			return nil, fmt.Errorf("select machine names: %w", err)
		}
		names = append(names, found...)
	}
	return names, nil
}

func queryIDs(ctx context.Context, ex execer, query string, args []any) ([]int64, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func labels[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
