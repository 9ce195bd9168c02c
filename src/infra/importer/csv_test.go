package importer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"machinetools/src/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MachinesFile, strings.Join([]string{
		"name,group,type,power,efficiency,accuracy,automation,weight_class,length,city",
		"16К20,1,6,11,0.75,П,Ручной,Средний,2505,Москва",
		"2Н135,2.0,1,4,,,,,,",
		",,,,,,,,,",
	}, "\n"))
	writeFile(t, dir, RequirementsFile, strings.Join([]string{
		"machine_name,requirement,value",
		"16К20,max_diameter,400",
		"16К20,note,",
		"16К20,,ignored",
	}, "\n"))

	cat, err := LoadCSV(dir)
	require.NoError(t, err)
	require.Len(t, cat.Machines, 2)

	m := cat.Machines[0]
	require.Equal(t, "16К20", m.Name)
	require.Equal(t, 1, *m.Group)
	require.Equal(t, 11.0, *m.Power)
	require.Equal(t, domain.AccuracyP, m.Accuracy)
	require.Equal(t, domain.AutomationManual, m.Automation)
	require.Equal(t, domain.WeightClassMedium, m.WeightClass)
	require.Equal(t, 2505, *m.Length)
	require.Equal(t, "Москва", *m.City)
	require.Nil(t, m.Width)

	m = cat.Machines[1]
	require.Equal(t, 2, *m.Group)
	require.Nil(t, m.Efficiency)
	require.Equal(t, domain.Accuracy(""), m.Accuracy)
	require.Nil(t, m.City)

	require.Len(t, cat.Requirements, 2)
	require.Equal(t, "max_diameter", cat.Requirements[0].Requirement)
	require.Equal(t, "400", *cat.Requirements[0].Value)
	require.Nil(t, cat.Requirements[1].Value)
}

func TestLoadCSVWithoutRequirements(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MachinesFile, "name\n1К62\n")

	cat, err := LoadCSV(dir)
	require.NoError(t, err)
	require.Len(t, cat.Machines, 1)
	require.Empty(t, cat.Requirements)
}

func TestLoadCSVMissingMachines(t *testing.T) {
	_, err := LoadCSV(t.TempDir())
	require.Error(t, err)
	require.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadMachinesLegacyHeaders(t *testing.T) {
	in := "\ufeffСтанок,Группа,Тип,Точность,Классификация_по_массе,Тип_станка\n" +
		"6Р13Ф3,6,1,Н,Тяжёлый,Фрезерный\n"

	machines, err := ReadMachines(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, machines, 1)
	require.Equal(t, "6Р13Ф3", machines[0].Name)
	require.Equal(t, 6, *machines[0].Group)
	require.Equal(t, domain.AccuracyN, machines[0].Accuracy)
	require.Equal(t, domain.WeightClassHeavy, machines[0].WeightClass)
	require.Equal(t, "Фрезерный", *machines[0].MachineType)
}

func TestReadMachinesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty file", "", "header"},
		{"no name column", "group\n1\n", "name"},
		{"missing name", "name,group\n,1\n", "line 2"},
		{"group out of range", "name,group\nX,12\n", "group"},
		{"non-integral type", "name,type\nX,1.5\n", "type"},
		{"bad number", "name,power\nX,много\n", "power"},
		{"unknown label", "name,automation\nX,Робот\n", "automation"},
		{"efficiency above 1", "name,efficiency\nX,1.5\n", "efficiency"},
		{"NaN efficiency", "name,efficiency\nX,NaN\n", "efficiency"},
		{"infinite power", "name,power\nX,Inf\n", "power"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMachines(strings.NewReader(tt.input))
			require.Error(t, err)
			require.True(t, domain.IsValidationError(err))
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadRequirementsRequiresMachine(t *testing.T) {
	_, err := ReadRequirements(strings.NewReader("machine_name,requirement,value\n,max_diameter,400\n"))
	require.Error(t, err)
	require.True(t, domain.IsValidationError(err))

	_, err = ReadRequirements(strings.NewReader("requirement,value\nmax_diameter,400\n"))
	require.Error(t, err)
}
