package repo

import (
	"database/sql"
	"time"

	"machinetools/src/core/domain"
)

const (
	machinesTable     = "machine_tools"
	requirementsTable = "technical_requirements"
)

// machineColumns lists the machine table columns in scan order.
var machineColumns = []string{
	domain.ColID,
	domain.ColName,
	domain.ColGroup,
	domain.ColType,
	domain.ColPower,
	domain.ColEfficiency,
	domain.ColAccuracy,
	domain.ColAutomation,
	domain.ColSoftwareControl,
	domain.ColSpecialization,
	domain.ColWeight,
	domain.ColWeightClass,
	domain.ColLength,
	domain.ColWidth,
	domain.ColHeight,
	domain.ColOverallDiameter,
	domain.ColCity,
	domain.ColManufacturer,
	domain.ColMachineType,
	domain.ColCreatedAt,
	domain.ColUpdatedAt,
}

// Value kinds of the machine columns, used to normalize distinct values.
var (
	intColumns = map[string]bool{
		domain.ColID: true, domain.ColGroup: true, domain.ColType: true,
		domain.ColLength: true, domain.ColWidth: true, domain.ColHeight: true,
	}
	floatColumns = map[string]bool{
		domain.ColPower: true, domain.ColEfficiency: true, domain.ColWeight: true,
	}
)

func isMachineColumn(col string) bool {
	for _, c := range machineColumns {
		if c == col {
			return true
		}
	}
	return false
}

// quote returns col as a quoted identifier.
func quote(col string) string {
	return `"` + col + `"`
}

func quoted(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quote(c)
	}
	return out
}

// machineRow mirrors one machine_tools row with nullable columns.
type machineRow struct {
	ID              int64
	Name            string
	Group           sql.NullInt64
	Type            sql.NullInt64
	Power           sql.NullFloat64
	Efficiency      sql.NullFloat64
	Accuracy        domain.Accuracy
	Automation      domain.Automation
	SoftwareControl domain.SoftwareControl
	Specialization  domain.Specialization
	Weight          sql.NullFloat64
	WeightClass     domain.WeightClass
	Length          sql.NullInt64
	Width           sql.NullInt64
	Height          sql.NullInt64
	OverallDiameter sql.NullString
	City            sql.NullString
	Manufacturer    sql.NullString
	MachineType     sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// scanArgs returns destinations in machineColumns order.
func (r *machineRow) scanArgs() []any {
	return []any{
		&r.ID, &r.Name, &r.Group, &r.Type, &r.Power, &r.Efficiency,
		&r.Accuracy, &r.Automation, &r.SoftwareControl, &r.Specialization,
		&r.Weight, &r.WeightClass, &r.Length, &r.Width, &r.Height,
		&r.OverallDiameter, &r.City, &r.Manufacturer, &r.MachineType,
		&r.CreatedAt, &r.UpdatedAt,
	}
}

func (r *machineRow) toDomain() domain.Machine {
	return domain.Machine{
		ID:              r.ID,
		Name:            r.Name,
		Group:           nullToIntPtr(r.Group),
		Type:            nullToIntPtr(r.Type),
		Power:           nullToFloatPtr(r.Power),
		Efficiency:      nullToFloatPtr(r.Efficiency),
		Accuracy:        r.Accuracy,
		Automation:      r.Automation,
		SoftwareControl: r.SoftwareControl,
		Specialization:  r.Specialization,
		Weight:          nullToFloatPtr(r.Weight),
		WeightClass:     r.WeightClass,
		Length:          nullToIntPtr(r.Length),
		Width:           nullToIntPtr(r.Width),
		Height:          nullToIntPtr(r.Height),
		OverallDiameter: nullToStringPtr(r.OverallDiameter),
		City:            nullToStringPtr(r.City),
		Manufacturer:    nullToStringPtr(r.Manufacturer),
		MachineType:     nullToStringPtr(r.MachineType),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// machineValues returns insert values for every column but id, in
// machineColumns order.
func machineValues(m *domain.Machine) []any {
	return []any{
		m.Name,
		ptrToValue(m.Group),
		ptrToValue(m.Type),
		ptrToValue(m.Power),
		ptrToValue(m.Efficiency),
		domain.AccuracyField.Label(m.Accuracy),
		labelToValue(m.Automation),
		labelToValue(m.SoftwareControl),
		labelToValue(m.Specialization),
		ptrToValue(m.Weight),
		labelToValue(m.WeightClass),
		ptrToValue(m.Length),
		ptrToValue(m.Width),
		ptrToValue(m.Height),
		ptrToValue(m.OverallDiameter),
		ptrToValue(m.City),
		ptrToValue(m.Manufacturer),
		ptrToValue(m.MachineType),
		m.CreatedAt,
		m.UpdatedAt,
	}
}

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

func nullToIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullToFloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func nullToStringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

// ptrToValue converts an optional value to a driver argument, nil for NULL.
func ptrToValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func labelToValue[T ~string](v T) any {
	if v == "" {
		return nil
	}
	return string(v)
}

// normalizeValue converts a scanned distinct value of col to int, float64 or
// string regardless of the driver's native representation.
func normalizeValue(col string, v any) any {
	switch n := v.(type) {
	case []byte:
		return string(n)
	case int64:
		if floatColumns[col] {
			return float64(n)
		}
		return int(n)
	case int32:
		return int(n)
	case int16:
		return int(n)
	case float32:
		return float64(n)
	case float64:
		if intColumns[col] {
			return int(n)
		}
		return n
	default:
		return v
	}
}
