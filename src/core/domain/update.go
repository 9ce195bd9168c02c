package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Nested payload keys. They never reach storage as columns.
const (
	KeyDimensions = "dimensions"
	KeyLocation   = "location"
)

// MachineUpdate is a partial update of one or more machines. Nil fields are
// left untouched; columns listed in Null are reset to their default, which is
// NULL for every column except accuracy.
//
// Dimensions and Location carry the nested form of their columns. When both a
// nested and a flat value are given for the same column, the nested one wins.
type MachineUpdate struct {
	Name            *string
	Group           *int
	Type            *int
	Power           *float64
	Efficiency      *float64
	Accuracy        *Accuracy
	Automation      *Automation
	SoftwareControl *SoftwareControl
	Specialization  *Specialization
	Weight          *float64
	WeightClass     *WeightClass
	Length          *int
	Width           *int
	Height          *int
	OverallDiameter *string
	City            *string
	Manufacturer    *string
	MachineType     *string

	Dimensions *Dimensions
	Location   *Location

	// Requirements replace every requirement row of the matched machines
	// when non-empty. An empty map leaves the rows untouched.
	Requirements map[string]*string

	Null []string
}

// nullable lists the columns an update may reset.
var nullable = []string{
	ColGroup, ColType, ColPower, ColEfficiency, ColAccuracy, ColAutomation,
	ColSoftwareControl, ColSpecialization, ColWeight, ColWeightClass,
	ColLength, ColWidth, ColHeight, ColOverallDiameter, ColCity,
	ColManufacturer, ColMachineType,
}

// UpdatableColumns returns every column a payload may assign.
func UpdatableColumns() []string {
	return append([]string{ColName}, nullable...)
}

// IsEmpty reports whether the update would change nothing.
func (u *MachineUpdate) IsEmpty() bool {
	flat, err := u.Flatten()
	return err == nil && len(flat) == 0
}

// Validate checks every assigned value against the machine invariants.
func (u *MachineUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return NewValidationError(ColName, "must not be empty")
	}
	if err := validateClassCode(ColGroup, u.Group); err != nil {
		return err
	}
	if err := validateClassCode(ColType, u.Type); err != nil {
		return err
	}
	if err := validatePower(u.Power); err != nil {
		return err
	}
	if err := validateEfficiency(u.Efficiency); err != nil {
		return err
	}
	if err := validateWeight(u.Weight); err != nil {
		return err
	}
	if err := validateDimensions(u.Length, u.Width, u.Height); err != nil {
		return err
	}
	if u.Dimensions != nil {
		if err := validateDimensions(u.Dimensions.Length, u.Dimensions.Width, u.Dimensions.Height); err != nil {
			return err
		}
	}
	if u.MachineType != nil && *u.MachineType == "" {
		return NewValidationError(ColMachineType, "must not be empty")
	}
	for _, col := range u.Null {
		if !slices.Contains(nullable, col) {
			return NewValidationError(col, "cannot be reset")
		}
	}
	for name := range u.Requirements {
		if strings.TrimSpace(name) == "" {
			return NewValidationError(ColRequirements, "requirement name must not be empty")
		}
	}
	return nil
}

// Flatten validates u and translates it into a column to value mapping.
// Nested groups are expanded into their flat columns and removed, enum
// values become their label strings, and non-empty requirements are carried
// under ColRequirements as a map[string]*string.
func (u *MachineUpdate) Flatten() (map[string]any, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, col := range u.Null {
		out[col] = resetValue(col)
	}

	setString(out, ColName, u.Name)
	setInt(out, ColGroup, u.Group)
	setInt(out, ColType, u.Type)
	setFloat(out, ColPower, u.Power)
	setFloat(out, ColEfficiency, u.Efficiency)
	setFloat(out, ColWeight, u.Weight)
	setInt(out, ColLength, u.Length)
	setInt(out, ColWidth, u.Width)
	setInt(out, ColHeight, u.Height)
	setString(out, ColOverallDiameter, u.OverallDiameter)
	setString(out, ColCity, u.City)
	setString(out, ColManufacturer, u.Manufacturer)
	setString(out, ColMachineType, u.MachineType)

	if u.Accuracy != nil {
		v, err := AccuracyField.Coerce(*u.Accuracy)
		if err != nil {
			return nil, err
		}
		out[ColAccuracy] = v.String()
	}
	if u.Automation != nil {
		v, err := AutomationField.Coerce(*u.Automation)
		if err != nil {
			return nil, err
		}
		out[ColAutomation] = v.String()
	}
	if u.SoftwareControl != nil {
		v, err := SoftwareControlField.Coerce(*u.SoftwareControl)
		if err != nil {
			return nil, err
		}
		out[ColSoftwareControl] = v.String()
	}
	if u.Specialization != nil {
		v, err := SpecializationField.Coerce(*u.Specialization)
		if err != nil {
			return nil, err
		}
		out[ColSpecialization] = v.String()
	}
	if u.WeightClass != nil {
		v, err := WeightClassField.Coerce(*u.WeightClass)
		if err != nil {
			return nil, err
		}
		out[ColWeightClass] = v.String()
	}

	if d := u.Dimensions; d != nil {
		setInt(out, ColLength, d.Length)
		setInt(out, ColWidth, d.Width)
		setInt(out, ColHeight, d.Height)
		setString(out, ColOverallDiameter, d.OverallDiameter)
	}
	if l := u.Location; l != nil {
		setString(out, ColCity, l.City)
		setString(out, ColManufacturer, l.Manufacturer)
	}

	if len(u.Requirements) > 0 {
		reqs := make(map[string]*string, len(u.Requirements))
		for k, v := range u.Requirements {
			reqs[strings.TrimSpace(k)] = v
		}
		out[ColRequirements] = reqs
	}
	return out, nil
}

// resetValue is what a reset column is stored as.
func resetValue(col string) any {
	if col == ColAccuracy {
		v, _ := AccuracyField.Default()
		return v.String()
	}
	return nil
}

func setString(out map[string]any, col string, v *string) {
	if v != nil {
		out[col] = *v
	}
}

func setInt(out map[string]any, col string, v *int) {
	if v != nil {
		out[col] = *v
	}
}

func setFloat(out map[string]any, col string, v *float64) {
	if v != nil {
		out[col] = *v
	}
}

// UpdateFromInfo builds a whole-record update from a detail record. Absent
// scalars are reset, an absent nested group leaves its columns untouched and
// a present one assigns or resets each of its columns.
func UpdateFromInfo(info MachineInfo) (MachineUpdate, error) {
	u := MachineUpdate{
		Name:         &info.Name,
		Requirements: info.Requirements,
	}

	u.Group = info.Group
	u.Type = info.Type
	u.Power = info.Power
	u.Efficiency = info.Efficiency
	u.Weight = info.Weight
	u.MachineType = info.MachineType
	if info.Group == nil {
		u.Null = append(u.Null, ColGroup)
	}
	if info.Type == nil {
		u.Null = append(u.Null, ColType)
	}
	if info.Power == nil {
		u.Null = append(u.Null, ColPower)
	}
	if info.Efficiency == nil {
		u.Null = append(u.Null, ColEfficiency)
	}
	if info.Weight == nil {
		u.Null = append(u.Null, ColWeight)
	}
	if info.MachineType == nil {
		u.Null = append(u.Null, ColMachineType)
	}

	var err error
	if u.Accuracy, err = optionalEnum(AccuracyField, info.Accuracy); err != nil {
		return MachineUpdate{}, err
	}
	if u.Automation, err = optionalEnum(AutomationField, info.Automation); err != nil {
		return MachineUpdate{}, err
	}
	if u.SoftwareControl, err = optionalEnum(SoftwareControlField, info.SoftwareControl); err != nil {
		return MachineUpdate{}, err
	}
	if u.Specialization, err = optionalEnum(SpecializationField, info.Specialization); err != nil {
		return MachineUpdate{}, err
	}
	if u.WeightClass, err = optionalEnum(WeightClassField, info.WeightClass); err != nil {
		return MachineUpdate{}, err
	}
	for col, label := range map[string]string{
		ColAccuracy:        info.Accuracy,
		ColAutomation:      info.Automation,
		ColSoftwareControl: info.SoftwareControl,
		ColSpecialization:  info.Specialization,
		ColWeightClass:     info.WeightClass,
	} {
		if label == "" {
			u.Null = append(u.Null, col)
		}
	}

	if d := info.Dimensions; d != nil {
		u.Dimensions = d
		if d.Length == nil {
			u.Null = append(u.Null, ColLength)
		}
		if d.Width == nil {
			u.Null = append(u.Null, ColWidth)
		}
		if d.Height == nil {
			u.Null = append(u.Null, ColHeight)
		}
		if d.OverallDiameter == nil {
			u.Null = append(u.Null, ColOverallDiameter)
		}
	}
	if l := info.Location; l != nil {
		u.Location = l
		if l.City == nil {
			u.Null = append(u.Null, ColCity)
		}
		if l.Manufacturer == nil {
			u.Null = append(u.Null, ColManufacturer)
		}
	}
	sort.Strings(u.Null)
	return u, nil
}

func optionalEnum[T ~string](f *EnumField[T], label string) (*T, error) {
	if label == "" {
		return nil, nil
	}
	v, err := f.Parse(label)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeUpdate builds an update from a generic mapping such as a decoded
// JSON or YAML document. Keys are column names, "dimensions", "location" or
// "technical_requirements"; a null value resets the column. Unknown keys and
// values of the wrong kind are validation errors.
func DecodeUpdate(payload map[string]any) (MachineUpdate, error) {
	var u MachineUpdate
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := payload[key]
		var err error
		switch key {
		case KeyDimensions:
			u.Dimensions, err = decodeDimensions(raw)
		case KeyLocation:
			u.Location, err = decodeLocation(raw)
		case ColRequirements:
			u.Requirements, err = decodeRequirements(raw)
		default:
			err = u.assign(key, raw)
		}
		if err != nil {
			return MachineUpdate{}, err
		}
	}
	return u, u.Validate()
}

func (u *MachineUpdate) assign(col string, raw any) error {
	if raw == nil {
		if col == ColName {
			return NewValidationError(col, "must not be null")
		}
		if !slices.Contains(nullable, col) {
			return NewValidationError(col, "unknown column")
		}
		u.Null = append(u.Null, col)
		return nil
	}

	var err error
	switch col {
	case ColName:
		u.Name, err = decodeString(col, raw)
	case ColGroup:
		u.Group, err = decodeInt(col, raw)
	case ColType:
		u.Type, err = decodeInt(col, raw)
	case ColPower:
		u.Power, err = decodeFloat(col, raw)
	case ColEfficiency:
		u.Efficiency, err = decodeFloat(col, raw)
	case ColWeight:
		u.Weight, err = decodeFloat(col, raw)
	case ColLength:
		u.Length, err = decodeInt(col, raw)
	case ColWidth:
		u.Width, err = decodeInt(col, raw)
	case ColHeight:
		u.Height, err = decodeInt(col, raw)
	case ColOverallDiameter:
		u.OverallDiameter, err = decodeString(col, raw)
	case ColCity:
		u.City, err = decodeString(col, raw)
	case ColManufacturer:
		u.Manufacturer, err = decodeString(col, raw)
	case ColMachineType:
		u.MachineType, err = decodeString(col, raw)
	case ColAccuracy:
		u.Accuracy, err = decodeEnum(AccuracyField, raw)
	case ColAutomation:
		u.Automation, err = decodeEnum(AutomationField, raw)
	case ColSoftwareControl:
		u.SoftwareControl, err = decodeEnum(SoftwareControlField, raw)
	case ColSpecialization:
		u.Specialization, err = decodeEnum(SpecializationField, raw)
	case ColWeightClass:
		u.WeightClass, err = decodeEnum(WeightClassField, raw)
	default:
		return NewValidationError(col, "unknown column")
	}
	return err
}

func decodeDimensions(raw any) (*Dimensions, error) {
	m, err := decodeGroup(KeyDimensions, raw)
	if err != nil || m == nil {
		return nil, err
	}
	var d Dimensions
	for k, v := range m {
		if v == nil {
			continue
		}
		switch k {
		case ColLength:
			d.Length, err = decodeInt(k, v)
		case ColWidth:
			d.Width, err = decodeInt(k, v)
		case ColHeight:
			d.Height, err = decodeInt(k, v)
		case ColOverallDiameter:
			d.OverallDiameter, err = decodeString(k, v)
		default:
			err = NewValidationError(KeyDimensions+"."+k, "unknown field")
		}
		if err != nil {
			return nil, err
		}
	}
	return &d, nil
}

func decodeLocation(raw any) (*Location, error) {
	m, err := decodeGroup(KeyLocation, raw)
	if err != nil || m == nil {
		return nil, err
	}
	var l Location
	for k, v := range m {
		if v == nil {
			continue
		}
		switch k {
		case ColCity:
			l.City, err = decodeString(k, v)
		case ColManufacturer:
			l.Manufacturer, err = decodeString(k, v)
		default:
			err = NewValidationError(KeyLocation+"."+k, "unknown field")
		}
		if err != nil {
			return nil, err
		}
	}
	return &l, nil
}

func decodeRequirements(raw any) (map[string]*string, error) {
	m, err := decodeGroup(ColRequirements, raw)
	if err != nil || m == nil {
		return nil, err
	}
	out := make(map[string]*string, len(m))
	for k, v := range m {
		if v == nil {
			out[k] = nil
			continue
		}
		s := fmt.Sprint(v)
		out[k] = &s
	}
	return out, nil
}

func decodeGroup(key string, raw any) (map[string]any, error) {
	switch m := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return m, nil
	case map[string]*string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			if v == nil {
				out[k] = nil
			} else {
				out[k] = *v
			}
		}
		return out, nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	default:
		return nil, NewValidationError(key, fmt.Sprintf("expected a mapping, got %T", raw))
	}
}

func decodeString(col string, raw any) (*string, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, NewValidationError(col, fmt.Sprintf("expected a string, got %T", raw))
	}
	return &s, nil
}

func decodeFloat(col string, raw any) (*float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, NewValidationError(col, fmt.Sprintf("invalid number %q", v))
		}
		f = parsed
	default:
		return nil, NewValidationError(col, fmt.Sprintf("expected a number, got %T", raw))
	}
	if err := validateFinite(col, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func decodeInt(col string, raw any) (*int, error) {
	f, err := decodeFloat(col, raw)
	if err != nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, NewValidationError(col, fmt.Sprintf("expected an integer, got %v", *f))
	}
	n := int(*f)
	return &n, nil
}

func decodeEnum[T ~string](f *EnumField[T], raw any) (*T, error) {
	v, err := f.Coerce(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
