package domain

// Dimensions is the nested size group of a machine.
type Dimensions struct {
	Length          *int    `json:"length,omitempty" yaml:"length,omitempty"`
	Width           *int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height          *int    `json:"height,omitempty" yaml:"height,omitempty"`
	OverallDiameter *string `json:"overall_diameter,omitempty" yaml:"overall_diameter,omitempty"`
}

// IsEmpty reports whether no dimension is present.
func (d Dimensions) IsEmpty() bool {
	return d.Length == nil && d.Width == nil && d.Height == nil && d.OverallDiameter == nil
}

// Location is the nested origin group of a machine.
type Location struct {
	City         *string `json:"city,omitempty" yaml:"city,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
}

// IsEmpty reports whether neither city nor manufacturer is present.
func (l Location) IsEmpty() bool {
	return l.City == nil && l.Manufacturer == nil
}

// MachineInfo is the detail record of a machine as seen by callers. Enum
// attributes carry their labels. Nested groups and requirements are nil when
// the machine has nothing to put in them.
type MachineInfo struct {
	Name            string             `json:"name" yaml:"name"`
	Group           *int               `json:"group" yaml:"group"`
	Type            *int               `json:"type" yaml:"type"`
	Power           *float64           `json:"power" yaml:"power"`
	Efficiency      *float64           `json:"efficiency" yaml:"efficiency"`
	Accuracy        string             `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Automation      string             `json:"automation,omitempty" yaml:"automation,omitempty"`
	SoftwareControl string             `json:"software_control,omitempty" yaml:"software_control,omitempty"`
	Specialization  string             `json:"specialization,omitempty" yaml:"specialization,omitempty"`
	Weight          *float64           `json:"weight" yaml:"weight"`
	WeightClass     string             `json:"weight_class,omitempty" yaml:"weight_class,omitempty"`
	Dimensions      *Dimensions        `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Location        *Location          `json:"location,omitempty" yaml:"location,omitempty"`
	MachineType     *string            `json:"machine_type" yaml:"machine_type"`
	Requirements    map[string]*string `json:"technical_requirements,omitempty" yaml:"technical_requirements,omitempty"`
}

// Info assembles the detail record of m. A nested group is built only when
// at least one of its fields is present, and requirements collapse into a
// name to value mapping that is omitted when there are none.
func (m *Machine) Info() MachineInfo {
	info := MachineInfo{
		Name:            m.Name,
		Group:           m.Group,
		Type:            m.Type,
		Power:           m.Power,
		Efficiency:      m.Efficiency,
		Accuracy:        AccuracyField.Label(m.Accuracy),
		Automation:      AutomationField.Label(m.Automation),
		SoftwareControl: SoftwareControlField.Label(m.SoftwareControl),
		Specialization:  SpecializationField.Label(m.Specialization),
		Weight:          m.Weight,
		WeightClass:     WeightClassField.Label(m.WeightClass),
		MachineType:     m.MachineType,
	}

	dims := Dimensions{
		Length:          m.Length,
		Width:           m.Width,
		Height:          m.Height,
		OverallDiameter: m.OverallDiameter,
	}
	if !dims.IsEmpty() {
		info.Dimensions = &dims
	}

	loc := Location{City: m.City, Manufacturer: m.Manufacturer}
	if !loc.IsEmpty() {
		info.Location = &loc
	}

	if len(m.Requirements) > 0 {
		info.Requirements = make(map[string]*string, len(m.Requirements))
		for _, r := range m.Requirements {
			info.Requirements[r.Requirement] = r.Value
		}
	}
	return info
}
