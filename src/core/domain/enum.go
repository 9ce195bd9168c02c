package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// EnumField validates and canonicalizes an attribute restricted to a closed
// set of labels. T is the attribute's value type; its members are the labels.
//
// The zero value of T means "absent". A field either falls back to a sentinel
// member (accuracy falls back to "Нет данных") or to absence, per field.
type EnumField[T ~string] struct {
	name     string
	members  []T
	fallback T
}

// NewEnumField declares a vocabulary. fallback is returned for nil input and
// must be either a member or the zero value.
func NewEnumField[T ~string](name string, fallback T, members ...T) *EnumField[T] {
	return &EnumField[T]{name: name, members: members, fallback: fallback}
}

// Name returns the attribute name used in error messages.
func (f *EnumField[T]) Name() string {
	return f.name
}

// Labels returns every valid label in declaration order.
func (f *EnumField[T]) Labels() []string {
	out := make([]string, len(f.members))
	for i, m := range f.members {
		out[i] = string(m)
	}
	return out
}

// Contains reports whether label is an exact (case-sensitive) member label.
func (f *EnumField[T]) Contains(label string) bool {
	for _, m := range f.members {
		if string(m) == label {
			return true
		}
	}
	return false
}

// Default returns the value a nil assignment resolves to. ok is false when
// the field defaults to absence.
func (f *EnumField[T]) Default() (value T, ok bool) {
	return f.fallback, f.fallback != ""
}

// Parse trims surrounding whitespace and matches the result exactly against
// the vocabulary.
func (f *EnumField[T]) Parse(raw string) (T, error) {
	label := strings.TrimSpace(raw)
	for _, m := range f.members {
		if string(m) == label {
			return m, nil
		}
	}
	var zero T
	return zero, NewEnumError(f.name, raw, f.Labels())
}

// Coerce accepts a member, a label string, a pointer to either, or nil.
// nil resets to the field default.
func (f *EnumField[T]) Coerce(value any) (T, error) {
	switch v := value.(type) {
	case nil:
		return f.fallback, nil
	case T:
		return f.Parse(string(v))
	case *T:
		if v == nil {
			return f.fallback, nil
		}
		return f.Parse(string(*v))
	case string:
		return f.Parse(v)
	case *string:
		if v == nil {
			return f.fallback, nil
		}
		return f.Parse(*v)
	case fmt.Stringer:
		return f.Parse(v.String())
	default:
		var zero T
		return zero, NewEnumError(f.name, fmt.Sprint(value), f.Labels())
	}
}

// Label returns the human-readable label of v, or the field default's label
// when v is absent.
func (f *EnumField[T]) Label(v T) string {
	if v == "" {
		return string(f.fallback)
	}
	return string(v)
}

func (f *EnumField[T]) scan(dst *T, src any) error {
	switch s := src.(type) {
	case nil:
		*dst = f.fallback
		return nil
	case string:
		v, err := f.Parse(s)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	case []byte:
		v, err := f.Parse(string(s))
		if err != nil {
			return err
		}
		*dst = v
		return nil
	default:
		return fmt.Errorf("%s: cannot scan %T", f.name, src)
	}
}

func labelValue[T ~string](v T) (driver.Value, error) {
	if v == "" {
		return nil, nil
	}
	return string(v), nil
}

// Accuracy is the machine precision class.
type Accuracy string

const (
	AccuracyS          Accuracy = "С"
	AccuracySA         Accuracy = "С/А"
	AccuracyA          Accuracy = "А"
	AccuracyVA         Accuracy = "В/А"
	AccuracyV          Accuracy = "В"
	AccuracyPV         Accuracy = "П/В"
	AccuracyP          Accuracy = "П"
	AccuracyNP         Accuracy = "Н/П"
	AccuracyN          Accuracy = "Н"
	AccuracyNoData     Accuracy = "Нет данных"
	AccuracyTUTB160001 Accuracy = "ТУ ТВ-16-0001"
)

// AccuracyField falls back to the "no data" sentinel.
var AccuracyField = NewEnumField("accuracy", AccuracyNoData,
	AccuracyS, AccuracySA, AccuracyA, AccuracyVA, AccuracyV, AccuracyPV,
	AccuracyP, AccuracyNP, AccuracyN, AccuracyNoData, AccuracyTUTB160001,
)

// String returns the label.
func (a Accuracy) String() string {
	return string(a)
}

// Scan implements sql.Scanner, rejecting labels outside the vocabulary.
func (a *Accuracy) Scan(src any) error {
	return AccuracyField.scan(a, src)
}

// Value implements driver.Valuer; the empty value is stored as NULL.
func (a Accuracy) Value() (driver.Value, error) {
	return labelValue(a)
}

// Automation is the machine automation level.
type Automation string

const (
	AutomationAutomatic     Automation = "Автомат"
	AutomationSemiAutomatic Automation = "Полуавтомат"
	AutomationManual        Automation = "Ручной"
)

// AutomationField validates automation levels; it has no default.
var AutomationField = NewEnumField[Automation]("automation", "",
	AutomationAutomatic, AutomationSemiAutomatic, AutomationManual,
)

// String returns the label.
func (a Automation) String() string {
	return string(a)
}

// Scan implements sql.Scanner, rejecting labels outside the vocabulary.
func (a *Automation) Scan(src any) error {
	return AutomationField.scan(a, src)
}

// Value implements driver.Valuer; the empty value is stored as NULL.
func (a Automation) Value() (driver.Value, error) {
	return labelValue(a)
}

// Specialization is the machine specialization.
type Specialization string

const (
	SpecializationSpecialized Specialization = "Специализированный"
	SpecializationSpecial     Specialization = "Специальный"
	SpecializationUniversal   Specialization = "Универсальный"
)

// SpecializationField validates specializations; it has no default.
var SpecializationField = NewEnumField[Specialization]("specialization", "",
	SpecializationSpecialized, SpecializationSpecial, SpecializationUniversal,
)

// String returns the label.
func (s Specialization) String() string {
	return string(s)
}

// Scan implements sql.Scanner, rejecting labels outside the vocabulary.
func (s *Specialization) Scan(src any) error {
	return SpecializationField.scan(s, src)
}

// Value implements driver.Valuer; the empty value is stored as NULL.
func (s Specialization) Value() (driver.Value, error) {
	return labelValue(s)
}

// WeightClass is the machine class by mass.
type WeightClass string

const (
	WeightClassLight  WeightClass = "Лёгкий"
	WeightClassMedium WeightClass = "Средний"
	WeightClassHeavy  WeightClass = "Тяжёлый"
	WeightClassUnique WeightClass = "Уникальный"
)

// WeightClassField validates weight classes; it has no default.
var WeightClassField = NewEnumField[WeightClass]("weight_class", "",
	WeightClassLight, WeightClassMedium, WeightClassHeavy, WeightClassUnique,
)

// String returns the label.
func (w WeightClass) String() string {
	return string(w)
}

// Scan implements sql.Scanner, rejecting labels outside the vocabulary.
func (w *WeightClass) Scan(src any) error {
	return WeightClassField.scan(w, src)
}

// Value implements driver.Valuer; the empty value is stored as NULL.
func (w WeightClass) Value() (driver.Value, error) {
	return labelValue(w)
}

// SoftwareControl is the kind of program control fitted to a machine.
type SoftwareControl string

const (
	SoftwareControlNone SoftwareControl = "Нет"
	SoftwareControlIC   SoftwareControl = "УЦИ"
	SoftwareControlCNC  SoftwareControl = "ЧПУ"
)

// SoftwareControlField validates software control kinds; it has no default.
var SoftwareControlField = NewEnumField[SoftwareControl]("software_control", "",
	SoftwareControlNone, SoftwareControlIC, SoftwareControlCNC,
)

// String returns the label.
func (s SoftwareControl) String() string {
	return string(s)
}

// Scan implements sql.Scanner, rejecting labels outside the vocabulary.
func (s *SoftwareControl) Scan(src any) error {
	return SoftwareControlField.scan(s, src)
}

// Value implements driver.Valuer; the empty value is stored as NULL.
func (s SoftwareControl) Value() (driver.Value, error) {
	return labelValue(s)
}
