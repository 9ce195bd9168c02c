package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"machinetools/src/core/domain"
	"machinetools/src/infra/config"
	"machinetools/src/infra/importer"
	"machinetools/src/infra/logger"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "catalog.db"),
		},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(cfg, logger.Discard())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()
	out, err := run(t, cfg, args...)
	require.NoError(t, err, out)
	return out
}

func seedCatalog(t *testing.T, cfg *config.Config) {
	t.Helper()
	dir := t.TempDir()
	machines := strings.Join([]string{
		"name,group,type,power,accuracy,city",
		"16К20,1,6,11,П,Москва",
		"6Р13Ф3,6,1,11,Н,",
		"2Н135,2,1,4,,Стерлитамак",
	}, "\n")
	reqs := "machine_name,requirement,value\n16К20,max_diameter,400\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, importer.MachinesFile), []byte(machines), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, importer.RequirementsFile), []byte(reqs), 0o644))

	out := mustRun(t, cfg, "import", "--migrate", dir)
	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &counts))
	require.Equal(t, map[string]int{"machines": 3, "requirements": 1}, counts)
}

func TestFindCommand(t *testing.T) {
	cfg := newTestConfig(t)
	seedCatalog(t, cfg)

	var names []string
	out := mustRun(t, cfg, "find", "power", "10", "-")
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	require.Equal(t, []string{"16К20", "6Р13Ф3"}, names)

	out = mustRun(t, cfg, "find", "all", "--order", "name", "--limit", "1")
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	require.Equal(t, []string{"16К20"}, names)

	var indexed map[int]string
	out = mustRun(t, cfg, "find", "type", "1", "--key", "index")
	require.NoError(t, json.Unmarshal([]byte(out), &indexed))
	require.Equal(t, map[int]string{1: "6Р13Ф3", 2: "2Н135"}, indexed)

	var infos []domain.MachineInfo
	out = mustRun(t, cfg, "find", "name", "16к20", "--shape", "info", "-o", "yaml")
	require.NoError(t, yaml.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	require.Equal(t, "П", infos[0].Accuracy)
	require.Equal(t, "Москва", *infos[0].Location.City)
	require.Equal(t, "400", *infos[0].Requirements["max_diameter"])

	_, err := run(t, cfg, "find", "group", "12")
	require.True(t, domain.IsValidationError(err))

	_, err = run(t, cfg, "find", "colour", "red")
	require.True(t, domain.IsValidationError(err))

	_, err = run(t, cfg, "find", "all", "-o", "xml")
	require.Error(t, err)
}

func TestUpdateCommand(t *testing.T) {
	cfg := newTestConfig(t)
	seedCatalog(t, cfg)

	payload := filepath.Join(t.TempDir(), "update.yaml")
	require.NoError(t, os.WriteFile(payload, []byte(strings.Join([]string{
		"power: 12.5",
		"automation: Ручной",
		"dimensions:",
		"  length: 2505",
		"technical_requirements:",
		"  max_travel: 800",
	}, "\n")), 0o644))

	var res updateResult
	out := mustRun(t, cfg, "update", "--name", "16К20", "--payload", payload)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, int64(1), res.Updated)

	var infos []domain.MachineInfo
	out = mustRun(t, cfg, "find", "name", "16К20", "--exact", "--shape", "info")
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Equal(t, 12.5, *infos[0].Power)
	require.Equal(t, "Ручной", infos[0].Automation)
	require.Equal(t, 2505, *infos[0].Dimensions.Length)
	require.Equal(t, map[string]*string{"max_travel": ptr("800")}, infos[0].Requirements)

	_, err := run(t, cfg, "update", "--id", "999", "--payload", payload)
	require.True(t, domain.IsNotFound(err))

	_, err = run(t, cfg, "update", "--payload", payload)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("colour: red\n"), 0o644))
	_, err = run(t, cfg, "update", "--id", "1", "--payload", bad)
	require.True(t, domain.IsValidationError(err))
}

func TestUpdateByNameDefaultsToExactMatch(t *testing.T) {
	cfg := newTestConfig(t)
	dir := t.TempDir()
	machines := "name,group\n16К20,1\n16К20Ф3,1\n"
	reqs := "machine_name,requirement,value\n16К20Ф3,max_travel,900\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, importer.MachinesFile), []byte(machines), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, importer.RequirementsFile), []byte(reqs), 0o644))
	mustRun(t, cfg, "import", "--migrate", dir)

	payload := filepath.Join(t.TempDir(), "update.yaml")
	require.NoError(t, os.WriteFile(payload, []byte("technical_requirements:\n  max_diameter: 400\n"), 0o644))

	var res updateResult
	out := mustRun(t, cfg, "update", "--name", "16К20", "--payload", payload)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, int64(1), res.Updated)

	var infos []domain.MachineInfo
	out = mustRun(t, cfg, "find", "name", "16К20Ф3", "--exact", "--shape", "info")
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	require.Equal(t, map[string]*string{"max_travel": ptr("900")}, infos[0].Requirements)

	// Lowercase к does not match without --ignore-case.
	out = mustRun(t, cfg, "update", "--name", "16к20", "--payload", payload)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Zero(t, res.Updated)

	out = mustRun(t, cfg, "update", "--name", "16к20", "--substring", "--ignore-case", "--payload", payload)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, int64(2), res.Updated)
}

func TestValuesCommand(t *testing.T) {
	cfg := newTestConfig(t)
	seedCatalog(t, cfg)

	var values []any
	out := mustRun(t, cfg, "values", "city")
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	require.Equal(t, []any{"Москва", "Стерлитамак"}, values)

	out = mustRun(t, cfg, "values", "power", "--type", "1")
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	require.Equal(t, []any{4.0, 11.0}, values)

	var all map[string][]any
	out = mustRun(t, cfg, "values")
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Contains(t, all, domain.ColGroup)
	require.Equal(t, []any{1.0, 2.0, 6.0}, all[domain.ColGroup])
}

func TestGroupsAndHealthCommands(t *testing.T) {
	cfg := newTestConfig(t)

	var groups []domain.Group
	out := mustRun(t, cfg, "groups")
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	require.Len(t, groups, 9)
	require.Equal(t, "Токарные станки", groups[0].Description)

	out = mustRun(t, cfg, "health", "-o", "yaml")
	require.Contains(t, out, "status: ok")
}

func ptr[T any](v T) *T {
	return &v
}
