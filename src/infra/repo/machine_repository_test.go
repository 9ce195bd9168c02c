package repo

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"machinetools/src/core/domain"
	"machinetools/src/infra/db"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates a migrated in-memory SQLite repository.
func newTestRepo(t *testing.T) *MachineRepository {
	t.Helper()
	ctx := context.Background()

	database, err := db.OpenSQLite(ctx, ":memory:", nil)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return NewMachineRepository(database, nil)
}

// newSeededRepo creates a repository holding the sample catalog.
func newSeededRepo(t *testing.T) *MachineRepository {
	t.Helper()
	r := newTestRepo(t)
	n, err := r.Import(context.Background(), sampleMachines(), sampleRequirements())
	assertNoError(t, err)
	if n != len(sampleMachines()) {
		t.Fatalf("expected %d machines imported, got %d", len(sampleMachines()), n)
	}
	return r
}

func sampleMachines() []domain.Machine {
	return []domain.Machine{
		{
			Name: "16К20", Group: ptr(1), Type: ptr(6), Power: ptr(11.0), Efficiency: ptr(0.8),
			Accuracy: domain.AccuracyP, Automation: domain.AutomationManual,
			Specialization: domain.SpecializationUniversal, WeightClass: domain.WeightClassMedium,
			City: ptr("Москва"), Manufacturer: ptr("Красный пролетарий"),
		},
		{
			Name: "16К20Ф3", Group: ptr(1), Type: ptr(6), Power: ptr(15.0), Efficiency: ptr(0.75),
			Accuracy: domain.AccuracyP, Automation: domain.AutomationSemiAutomatic,
			SoftwareControl: domain.SoftwareControlCNC,
		},
		{
			Name: "6Р13Ф3", Group: ptr(6), Type: ptr(1), Power: ptr(11.0), Efficiency: ptr(0.7),
			Accuracy: domain.AccuracyN, SoftwareControl: domain.SoftwareControlCNC,
			Length: ptr(2560), Width: ptr(2260), Height: ptr(2440),
		},
		{
			Name: "1К62", Group: ptr(1), Type: ptr(6), Power: ptr(10.0), Efficiency: ptr(0.75),
			Accuracy: domain.AccuracyN, Automation: domain.AutomationManual,
		},
		{
			Name: "2Н135", Group: ptr(2), Type: ptr(1), Power: ptr(4.0),
		},
	}
}

func sampleRequirements() []domain.Requirement {
	return []domain.Requirement{
		{MachineName: "16К20", Requirement: "max_diameter", Value: ptr("400")},
		{MachineName: "6Р13Ф3", Requirement: "table_length", Value: ptr("1600")},
		{MachineName: "6Р13Ф3", Requirement: "note"},
	}
}

func ptr[T any](v T) *T {
	return &v
}

func names(machines []domain.Machine) []string {
	out := make([]string, len(machines))
	for i, m := range machines {
		out[i] = m.Name
	}
	return out
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertNames fails the test if the machine names differ from want
func assertNames(t *testing.T, want []string, machines []domain.Machine) {
	t.Helper()
	if diff := cmp.Diff(want, names(machines)); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Query Tests
// ============================================================================

func TestExecuteCombinedPredicates(t *testing.T) {
	r := newSeededRepo(t)

	got, err := r.Query().
		FilterByGroup(1).
		FilterByPower(domain.Between(10, 20)).
		Execute(context.Background())
	assertNoError(t, err)
	assertNames(t, []string{"16К20", "16К20Ф3", "1К62"}, got)
}

func TestFilterByName(t *testing.T) {
	r := newSeededRepo(t)

	tests := []struct {
		name  string
		input string
		match domain.NameMatch
		want  []string
	}{
		{"default is case-insensitive substring", "16к20", domain.NameMatch{}, []string{"16К20", "16К20Ф3"}},
		{"case-sensitive substring", "16к20", domain.NameMatch{CaseSensitive: true}, []string{}},
		{"case-sensitive substring hit", "Ф3", domain.NameMatch{CaseSensitive: true}, []string{"16К20Ф3", "6Р13Ф3"}},
		{"case-insensitive exact", "16к20", domain.NameMatch{ExactMatch: true}, []string{"16К20"}},
		{"case-sensitive exact", "16К20", domain.ExactName, []string{"16К20"}},
		{"case-sensitive exact miss", "16к20", domain.ExactName, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Query().FilterByName(tt.input, tt.match).Execute(context.Background())
			assertNoError(t, err)
			assertNames(t, tt.want, got)
		})
	}
}

func TestEnumAndListFilters(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	got, err := r.Query().FilterByAccuracy(domain.AccuracyN).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"6Р13Ф3", "1К62"}, got)

	got, err = r.Query().FilterByAccuracy(domain.AccuracyNoData).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"2Н135"}, got)

	got, err = r.Query().FilterByGroup(2, 6).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"6Р13Ф3", "2Н135"}, got)

	got, err = r.Query().
		FilterBySoftwareControl(domain.SoftwareControlCNC).
		FilterByType(6).
		Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"16К20Ф3"}, got)

	got, err = r.Query().FilterByEfficiency(domain.AtLeast(0.75)).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"16К20", "16К20Ф3", "1К62"}, got)

	got, err = r.Query().FilterByAutomation(domain.AutomationManual, domain.AutomationSemiAutomatic).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"16К20", "16К20Ф3", "1К62"}, got)
}

func TestOrderLimitOffset(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	got, err := r.Query().OrderBy(domain.ColPower, true).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"16К20Ф3", "16К20", "6Р13Ф3", "1К62", "2Н135"}, got)

	got, err = r.Query().OrderBy("colour", true).Limit(2).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"16К20", "16К20Ф3"}, got)

	got, err = r.Query().Offset(3).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"1К62", "2Н135"}, got)

	got, err = r.Query().Limit(1).Offset(1).Execute(ctx)
	assertNoError(t, err)
	assertNames(t, []string{"16К20Ф3"}, got)
}

func TestReset(t *testing.T) {
	r := newSeededRepo(t)
	q := r.Query().FilterByGroup(6).OrderBy(domain.ColName, true).Limit(1)

	got, err := q.Reset().Execute(context.Background())
	assertNoError(t, err)
	assertNames(t, []string{"16К20", "16К20Ф3", "6Р13Ф3", "1К62", "2Н135"}, got)
}

func TestExecuteLoadsRequirementsAndEnums(t *testing.T) {
	r := newSeededRepo(t)

	got, err := r.Query().FilterByName("6Р13Ф3", domain.ExactName).Execute(context.Background())
	assertNoError(t, err)
	if len(got) != 1 {
		t.Fatalf("expected one machine, got %d", len(got))
	}
	m := got[0]
	want := []domain.Requirement{
		{MachineName: "6Р13Ф3", Requirement: "table_length", Value: ptr("1600")},
		{MachineName: "6Р13Ф3", Requirement: "note"},
	}
	if diff := cmp.Diff(want, m.Requirements, ignoreRequirementIDs); diff != "" {
		t.Fatalf("requirements mismatch (-want +got):\n%s", diff)
	}
	if m.SoftwareControl != domain.SoftwareControlCNC || m.Accuracy != domain.AccuracyN {
		t.Fatalf("unexpected enums: %q %q", m.SoftwareControl, m.Accuracy)
	}
	if m.Automation != "" {
		t.Fatalf("expected absent automation, got %q", m.Automation)
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	got, err = r.Query().FilterByName("2Н135", domain.ExactName).Execute(context.Background())
	assertNoError(t, err)
	if got[0].Accuracy != domain.AccuracyNoData {
		t.Fatalf("expected accuracy default, got %q", got[0].Accuracy)
	}
	if got[0].Requirements != nil {
		t.Fatalf("expected no requirements, got %v", got[0].Requirements)
	}
}

var ignoreRequirementIDs = cmp.Transformer("noID", func(r domain.Requirement) domain.Requirement {
	r.ID = 0
	return r
})

func TestUniqueValues(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		query  func() ([]any, error)
		expect []any
	}{
		{"accuracy", func() ([]any, error) {
			return r.Query().UniqueValues(ctx, domain.ColAccuracy)
		}, []any{"Н", "Нет данных", "П"}},
		{"accuracy within group 1", func() ([]any, error) {
			return r.Query().FilterByGroup(1).UniqueValues(ctx, domain.ColAccuracy)
		}, []any{"Н", "П"}},
		{"group", func() ([]any, error) {
			return r.Query().UniqueValues(ctx, domain.ColGroup)
		}, []any{1, 2, 6}},
		{"power", func() ([]any, error) {
			return r.Query().UniqueValues(ctx, domain.ColPower)
		}, []any{4.0, 10.0, 11.0, 15.0}},
		{"nulls excluded", func() ([]any, error) {
			return r.Query().UniqueValues(ctx, domain.ColCity)
		}, []any{"Москва"}},
		{"unknown column", func() ([]any, error) {
			return r.Query().UniqueValues(ctx, "colour")
		}, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.query()
			assertNoError(t, err)
			if diff := cmp.Diff(tt.expect, got); diff != "" {
				t.Fatalf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ============================================================================
// Update Tests
// ============================================================================

func TestUpdateFlatColumns(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	u := domain.MachineUpdate{
		Dimensions: &domain.Dimensions{Length: ptr(2000), Width: ptr(1000), Height: ptr(1500)},
		Accuracy:   ptr(domain.AccuracyV),
	}
	payload, err := u.Flatten()
	assertNoError(t, err)

	n, err := r.Query().FilterByName("16К20", domain.ExactName).Update(ctx, payload)
	assertNoError(t, err)
	if n != 1 {
		t.Fatalf("expected 1 row updated, got %d", n)
	}

	got, err := r.Query().FilterByName("16К20", domain.ExactName).Execute(ctx)
	assertNoError(t, err)
	m := got[0]
	if *m.Length != 2000 || *m.Width != 1000 || *m.Height != 1500 {
		t.Fatalf("unexpected dimensions: %v %v %v", *m.Length, *m.Width, *m.Height)
	}
	if m.Accuracy != domain.AccuracyV {
		t.Fatalf("expected accuracy В, got %q", m.Accuracy)
	}
	if !m.UpdatedAt.After(m.CreatedAt) && !m.UpdatedAt.Equal(m.CreatedAt) {
		t.Fatalf("updated_at %v precedes created_at %v", m.UpdatedAt, m.CreatedAt)
	}
	if len(m.Requirements) != 1 {
		t.Fatalf("requirements must be untouched, got %v", m.Requirements)
	}
}

func TestUpdateReplacesRequirements(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	payload := map[string]any{
		domain.ColRequirements: map[string]*string{"max_travel": ptr("800")},
	}
	n, err := r.Query().FilterByName("16К20", domain.ExactName).Update(ctx, payload)
	assertNoError(t, err)
	if n != 1 {
		t.Fatalf("expected 1 row updated, got %d", n)
	}

	got, err := r.Query().FilterByName("16К20", domain.ExactName).Execute(ctx)
	assertNoError(t, err)
	want := []domain.Requirement{{MachineName: "16К20", Requirement: "max_travel", Value: ptr("800")}}
	if diff := cmp.Diff(want, got[0].Requirements, ignoreRequirementIDs); diff != "" {
		t.Fatalf("requirements mismatch (-want +got):\n%s", diff)
	}

	// Other machines keep theirs.
	got, err = r.Query().FilterByName("6Р13Ф3", domain.ExactName).Execute(ctx)
	assertNoError(t, err)
	if len(got[0].Requirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(got[0].Requirements))
	}
}

func TestUpdateNoMatch(t *testing.T) {
	r := newSeededRepo(t)

	n, err := r.Query().FilterByID(999).Update(context.Background(), map[string]any{domain.ColPower: 1.0})
	assertNoError(t, err)
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
}

func TestUpdateIgnoresLimit(t *testing.T) {
	r := newSeededRepo(t)

	n, err := r.Query().FilterByGroup(1).Limit(1).Update(context.Background(), map[string]any{domain.ColCity: "Тула"})
	assertNoError(t, err)
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
}

func TestUpdateRenameCascadesRequirements(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	n, err := r.Query().FilterByName("16К20", domain.ExactName).Update(ctx, map[string]any{domain.ColName: "16К20М"})
	assertNoError(t, err)
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}

	got, err := r.Query().FilterByName("16К20М", domain.ExactName).Execute(ctx)
	assertNoError(t, err)
	if len(got) != 1 || len(got[0].Requirements) != 1 {
		t.Fatalf("expected renamed machine to keep its requirement, got %+v", got)
	}
	if got[0].Requirements[0].MachineName != "16К20М" {
		t.Fatalf("requirement not cascaded: %q", got[0].Requirements[0].MachineName)
	}
}

func TestUpdateErrors(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	_, err := r.Query().FilterByName("16К20", domain.ExactName).Update(ctx, map[string]any{domain.ColName: "1К62"})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = r.Query().Update(ctx, map[string]any{domain.ColCreatedAt: "2020-01-01"})
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = r.Query().Update(ctx, map[string]any{domain.KeyDimensions: map[string]any{"length": 1}})
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error for nested key, got %v", err)
	}
}

func TestUpdateIsAtomic(t *testing.T) {
	r := newSeededRepo(t)
	ctx := context.Background()

	payload := map[string]any{
		domain.ColPower:        99.0,
		domain.ColRequirements: map[string]*string{"ok": ptr("1")},
	}
	_, err := r.Query().FilterByName("16К20", domain.ExactName).Update(ctx, payload)
	assertNoError(t, err)

	// Fail the requirement insert that follows the column update.
	_, err = r.db.ExecContext(ctx, `CREATE TRIGGER reject_requirement BEFORE INSERT ON technical_requirements
		WHEN NEW.requirement = 'bad' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	assertNoError(t, err)

	payload = map[string]any{
		domain.ColPower:        1.0,
		domain.ColRequirements: map[string]*string{"bad": nil},
	}
	_, err = r.Query().FilterByName("16К20", domain.ExactName).Update(ctx, payload)
	if err == nil {
		t.Fatal("expected requirement insert to fail")
	}

	got, err := r.Query().FilterByName("16К20", domain.ExactName).Execute(ctx)
	assertNoError(t, err)
	if *got[0].Power != 99.0 {
		t.Fatalf("power change leaked from failed update: %v", *got[0].Power)
	}
	if len(got[0].Requirements) != 1 || got[0].Requirements[0].Requirement != "ok" {
		t.Fatalf("requirements changed by failed update: %+v", got[0].Requirements)
	}
}

// ============================================================================
// Import Tests
// ============================================================================

func TestImportRejectsUnknownMachine(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.Import(ctx, sampleMachines()[:1], []domain.Requirement{
		{MachineName: "ghost", Requirement: "x"},
	})
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got, err := r.Query().Execute(ctx)
	assertNoError(t, err)
	if len(got) != 0 {
		t.Fatalf("failed import must not leave rows, got %d", len(got))
	}
}

func TestImportRequirementForExistingMachine(t *testing.T) {
	r := newSeededRepo(t)

	_, err := r.Import(context.Background(), nil, []domain.Requirement{
		{MachineName: "1К62", Requirement: "spindle_bore", Value: ptr("52")},
	})
	assertNoError(t, err)
}

func TestImportDuplicateName(t *testing.T) {
	r := newSeededRepo(t)

	_, err := r.Import(context.Background(), sampleMachines()[:1], nil)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestImportValidates(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.Import(context.Background(), []domain.Machine{{Name: "X", Group: ptr(12)}}, nil)
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRepo(t)
	assertNoError(t, r.Health(context.Background()))
}
