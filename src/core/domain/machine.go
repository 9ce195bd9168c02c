package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Column names of the machine table. They are the keys of flattened update
// payloads and the accepted arguments of sort and distinct-value requests.
const (
	ColID              = "id"
	ColName            = "name"
	ColGroup           = "group"
	ColType            = "type"
	ColPower           = "power"
	ColEfficiency      = "efficiency"
	ColAccuracy        = "accuracy"
	ColAutomation      = "automation"
	ColSoftwareControl = "software_control"
	ColSpecialization  = "specialization"
	ColWeight          = "weight"
	ColWeightClass     = "weight_class"
	ColLength          = "length"
	ColWidth           = "width"
	ColHeight          = "height"
	ColOverallDiameter = "overall_diameter"
	ColCity            = "city"
	ColManufacturer    = "manufacturer"
	ColMachineType     = "machine_type"
	ColCreatedAt       = "created_at"
	ColUpdatedAt       = "updated_at"

	// ColRequirements is the payload key of the requirement relation. It is
	// never a column of the machine table.
	ColRequirements = "technical_requirements"
)

// Bounds of the numeric attributes.
const (
	MinClassCode = 0
	MaxClassCode = 9
)

// Machine is a catalog item: one piece of industrial equipment identified by
// its unique natural-key name.
type Machine struct {
	ID              int64
	Name            string
	Group           *int
	Type            *int
	Power           *float64
	Efficiency      *float64
	Accuracy        Accuracy
	Automation      Automation
	SoftwareControl SoftwareControl
	Specialization  Specialization
	Weight          *float64
	WeightClass     WeightClass
	Length          *int
	Width           *int
	Height          *int
	OverallDiameter *string
	City            *string
	Manufacturer    *string
	MachineType     *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Requirements are the technical requirement rows joined on Name.
	Requirements []Requirement
}

// Requirement is one free-form technical specification row of a machine.
type Requirement struct {
	ID          int64
	MachineName string
	Requirement string
	Value       *string
}

// Validate checks the machine's invariants.
func (m *Machine) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return NewValidationError(ColName, "must not be empty")
	}
	if err := validateClassCode(ColGroup, m.Group); err != nil {
		return err
	}
	if err := validateClassCode(ColType, m.Type); err != nil {
		return err
	}
	if err := validatePower(m.Power); err != nil {
		return err
	}
	if err := validateEfficiency(m.Efficiency); err != nil {
		return err
	}
	if err := validateWeight(m.Weight); err != nil {
		return err
	}
	if err := validateDimensions(m.Length, m.Width, m.Height); err != nil {
		return err
	}
	if m.Accuracy != "" && !AccuracyField.Contains(string(m.Accuracy)) {
		return NewEnumError(ColAccuracy, string(m.Accuracy), AccuracyField.Labels())
	}
	if m.Automation != "" && !AutomationField.Contains(string(m.Automation)) {
		return NewEnumError(ColAutomation, string(m.Automation), AutomationField.Labels())
	}
	if m.SoftwareControl != "" && !SoftwareControlField.Contains(string(m.SoftwareControl)) {
		return NewEnumError(ColSoftwareControl, string(m.SoftwareControl), SoftwareControlField.Labels())
	}
	if m.Specialization != "" && !SpecializationField.Contains(string(m.Specialization)) {
		return NewEnumError(ColSpecialization, string(m.Specialization), SpecializationField.Labels())
	}
	if m.WeightClass != "" && !WeightClassField.Contains(string(m.WeightClass)) {
		return NewEnumError(ColWeightClass, string(m.WeightClass), WeightClassField.Labels())
	}
	return nil
}

func validateClassCode(field string, v *int) error {
	if v == nil {
		return nil
	}
	if *v < MinClassCode || *v > MaxClassCode {
		return NewRangeError(field, float64(*v), MinClassCode, MaxClassCode)
	}
	return nil
}

// validateFinite rejects NaN and infinities, which compare false against
// every bound.
func validateFinite(field string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return NewValidationError(field, fmt.Sprintf("must be a finite number, got %v", *v))
	}
	return nil
}

func validatePower(v *float64) error {
	if err := validateFinite(ColPower, v); err != nil {
		return err
	}
	if v != nil && *v < 0 {
		return NewValidationError(ColPower, "must not be negative")
	}
	return nil
}

func validateEfficiency(v *float64) error {
	if err := validateFinite(ColEfficiency, v); err != nil {
		return err
	}
	if v != nil && (*v < 0 || *v > 1) {
		return NewRangeError(ColEfficiency, *v, 0, 1)
	}
	return nil
}

func validateWeight(v *float64) error {
	if err := validateFinite(ColWeight, v); err != nil {
		return err
	}
	if v != nil && *v <= 0 {
		return NewValidationError(ColWeight, "must be positive")
	}
	return nil
}

func validatePositive(field string, v *int) error {
	if v != nil && *v <= 0 {
		return NewValidationError(field, "must be positive")
	}
	return nil
}

func validateDimensions(length, width, height *int) error {
	if err := validatePositive(ColLength, length); err != nil {
		return err
	}
	if err := validatePositive(ColWidth, width); err != nil {
		return err
	}
	return validatePositive(ColHeight, height)
}

// NameMatch selects one of the four name comparison behaviors. The zero
// value is a case-insensitive substring match.
type NameMatch struct {
	CaseSensitive bool
	ExactMatch    bool
}

// ExactName matches a name exactly, case included.
var ExactName = NameMatch{CaseSensitive: true, ExactMatch: true}

// Range is an inclusive numeric interval; a nil bound is unbounded.
type Range struct {
	Min *float64
	Max *float64
}

// Between returns the closed interval [min, max].
func Between(min, max float64) Range {
	return Range{Min: &min, Max: &max}
}

// AtLeast returns the interval [min, +inf).
func AtLeast(min float64) Range {
	return Range{Min: &min}
}

// AtMost returns the interval (-inf, max].
func AtMost(max float64) Range {
	return Range{Max: &max}
}
