// Package importer reads catalog tables exported as CSV.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"machinetools/src/core/domain"
)

// File names LoadCSV looks for.
const (
	MachinesFile     = "machine_tools.csv"
	RequirementsFile = "technical_requirements.csv"
)

// Requirement table columns.
const (
	colMachineName = "machine_name"
	colRequirement = "requirement"
	colValue       = "value"
)

// headerAliases maps the column titles of the legacy spreadsheet export to
// column names.
var headerAliases = map[string]string{
	"Станок":                 domain.ColName,
	"Группа":                 domain.ColGroup,
	"Тип":                    domain.ColType,
	"Мощность":               domain.ColPower,
	"КПД":                    domain.ColEfficiency,
	"Точность":               domain.ColAccuracy,
	"Автоматизация":          domain.ColAutomation,
	"ЧПУ":                    domain.ColSoftwareControl,
	"Специализация":          domain.ColSpecialization,
	"Масса":                  domain.ColWeight,
	"Классификация_по_массе": domain.ColWeightClass,
	"Длина":                  domain.ColLength,
	"Ширина":                 domain.ColWidth,
	"Высота":                 domain.ColHeight,
	"Габаритный_диаметр":     domain.ColOverallDiameter,
	"Город":                  domain.ColCity,
	"Производитель":          domain.ColManufacturer,
	"Тип_станка":             domain.ColMachineType,
	"Станок_требования":      colMachineName,
	"Наименование параметра": colRequirement,
	"Значение":               colValue,
}

// Catalog is the content of an import directory.
type Catalog struct {
	Machines     []domain.Machine
	Requirements []domain.Requirement
}

// LoadCSV reads MachinesFile and, when present, RequirementsFile from dir.
func LoadCSV(dir string) (*Catalog, error) {
	machines, err := readFile(filepath.Join(dir, MachinesFile), ReadMachines)
	if err != nil {
		return nil, err
	}

	reqs, err := readFile(filepath.Join(dir, RequirementsFile), ReadRequirements)
	if errors.Is(err, fs.ErrNotExist) {
		reqs = nil
	} else if err != nil {
		return nil, err
	}

	return &Catalog{Machines: machines, Requirements: reqs}, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// table is a parsed CSV file with a header row.
type table struct {
	r       *csv.Reader
	columns map[string]int
	line    int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, domain.NewValidationError("header", "file is empty")
	}
	if err != nil {
		return nil, err
	}

	t := &table{r: cr, columns: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		t.columns[name] = i
	}
	for _, col := range required {
		if _, ok := t.columns[col]; !ok {
			return nil, domain.NewValidationError(col, "missing column")
		}
	}
	return t, nil
}

// next returns the following record, or io.EOF.
func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		return nil, err
	}
	t.line++
	return rec, nil
}

// cell returns the trimmed value of col, or nil when the column is missing
// or the cell is empty.
func (t *table) cell(rec []string, col string) *string {
	i, ok := t.columns[col]
	if !ok || i >= len(rec) {
		return nil
	}
	v := strings.TrimSpace(rec[i])
	if v == "" {
		return nil
	}
	return &v
}

func (t *table) wrap(err error) error {
	return fmt.Errorf("line %d: %w", t.line, err)
}

// ReadMachines parses a machine table. Empty cells are absent values.
func ReadMachines(r io.Reader) ([]domain.Machine, error) {
	t, err := newTable(r, domain.ColName)
	if err != nil {
		return nil, err
	}

	var machines []domain.Machine
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlank(rec) {
			continue
		}
		m, err := t.machine(rec)
		if err != nil {
			return nil, t.wrap(err)
		}
		if err := m.Validate(); err != nil {
			return nil, t.wrap(err)
		}
		machines = append(machines, m)
	}
	return machines, nil
}

func (t *table) machine(rec []string) (domain.Machine, error) {
	var m domain.Machine
	if name := t.cell(rec, domain.ColName); name != nil {
		m.Name = *name
	}

	var err error
	if m.Group, err = parseInt(domain.ColGroup, t.cell(rec, domain.ColGroup)); err != nil {
		return m, err
	}
	if m.Type, err = parseInt(domain.ColType, t.cell(rec, domain.ColType)); err != nil {
		return m, err
	}
	if m.Power, err = parseFloat(domain.ColPower, t.cell(rec, domain.ColPower)); err != nil {
		return m, err
	}
	if m.Efficiency, err = parseFloat(domain.ColEfficiency, t.cell(rec, domain.ColEfficiency)); err != nil {
		return m, err
	}
	if m.Weight, err = parseFloat(domain.ColWeight, t.cell(rec, domain.ColWeight)); err != nil {
		return m, err
	}
	if m.Length, err = parseInt(domain.ColLength, t.cell(rec, domain.ColLength)); err != nil {
		return m, err
	}
	if m.Width, err = parseInt(domain.ColWidth, t.cell(rec, domain.ColWidth)); err != nil {
		return m, err
	}
	if m.Height, err = parseInt(domain.ColHeight, t.cell(rec, domain.ColHeight)); err != nil {
		return m, err
	}

	if m.Accuracy, err = parseEnum(domain.AccuracyField, t.cell(rec, domain.ColAccuracy)); err != nil {
		return m, err
	}
	if m.Automation, err = parseEnum(domain.AutomationField, t.cell(rec, domain.ColAutomation)); err != nil {
		return m, err
	}
	if m.SoftwareControl, err = parseEnum(domain.SoftwareControlField, t.cell(rec, domain.ColSoftwareControl)); err != nil {
		return m, err
	}
	if m.Specialization, err = parseEnum(domain.SpecializationField, t.cell(rec, domain.ColSpecialization)); err != nil {
		return m, err
	}
	if m.WeightClass, err = parseEnum(domain.WeightClassField, t.cell(rec, domain.ColWeightClass)); err != nil {
		return m, err
	}

	m.OverallDiameter = t.cell(rec, domain.ColOverallDiameter)
	m.City = t.cell(rec, domain.ColCity)
	m.Manufacturer = t.cell(rec, domain.ColManufacturer)
	m.MachineType = t.cell(rec, domain.ColMachineType)
	return m, nil
}

// ReadRequirements parses a requirement table with machine_name,
// requirement and value columns. Rows without a requirement name are skipped.
func ReadRequirements(r io.Reader) ([]domain.Requirement, error) {
	t, err := newTable(r, colMachineName, colRequirement)
	if err != nil {
		return nil, err
	}

	var reqs []domain.Requirement
	for {
		rec, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		name := t.cell(rec, colRequirement)
		if name == nil {
			continue
		}
		machine := t.cell(rec, colMachineName)
		if machine == nil {
			return nil, t.wrap(domain.NewValidationError(colMachineName, "must not be empty"))
		}
		reqs = append(reqs, domain.Requirement{
			MachineName: *machine,
			Requirement: *name,
			Value:       t.cell(rec, colValue),
		})
	}
	return reqs, nil
}

func parseFloat(field string, s *string) (*float64, error) {
	if s == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(*s, ",", "."), 64)
	if err != nil {
		return nil, domain.NewValidationError(field, fmt.Sprintf("%q is not a number", *s))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.NewValidationError(field, fmt.Sprintf("%q is not a finite number", *s))
	}
	return &v, nil
}

// parseInt accepts integral values written as floats, as spreadsheets
// export them.
func parseInt(field string, s *string) (*int, error) {
	f, err := parseFloat(field, s)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, domain.NewValidationError(field, fmt.Sprintf("%q is not an integer", *s))
	}
	v := int(*f)
	return &v, nil
}

func parseEnum[T ~string](field *domain.EnumField[T], s *string) (T, error) {
	if s == nil {
		return "", nil
	}
	return field.Parse(*s)
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
