// Package format implements the result shapes a Finder can hand back.
//
// Every formatter is stateless and safe for concurrent use.
package format

import (
	"fmt"

	"machinetools/src/core/domain"
	"machinetools/src/core/ports"
)

// Shape selects names or detail records.
type Shape string

const (
	ShapeNames Shape = "names"
	ShapeInfo  Shape = "info"
)

// Key selects how results are collected.
type Key string

const (
	KeyList  Key = "list"
	KeyID    Key = "id"
	KeyIndex Key = "index"
)

// ListNames yields []string in input order.
type ListNames struct{}

// Format returns the machine names.
func (ListNames) Format(machines []domain.Machine) any {
	out := make([]string, 0, len(machines))
	for i := range machines {
		out = append(out, machines[i].Name)
	}
	return out
}

// ListInfo yields []domain.MachineInfo in input order.
type ListInfo struct{}

// Format returns the detail records.
func (ListInfo) Format(machines []domain.Machine) any {
	out := make([]domain.MachineInfo, 0, len(machines))
	for i := range machines {
		out = append(out, machines[i].Info())
	}
	return out
}

// IDNames yields map[int64]string keyed by machine id.
type IDNames struct{}

// Format maps each machine id to its name.
func (IDNames) Format(machines []domain.Machine) any {
	out := make(map[int64]string, len(machines))
	for i := range machines {
		out[machines[i].ID] = machines[i].Name
	}
	return out
}

// IDInfo yields map[int64]domain.MachineInfo keyed by machine id.
type IDInfo struct{}

// Format maps each machine id to its detail record.
func (IDInfo) Format(machines []domain.Machine) any {
	out := make(map[int64]domain.MachineInfo, len(machines))
	for i := range machines {
		out[machines[i].ID] = machines[i].Info()
	}
	return out
}

// IndexedNames yields map[int]string keyed by 1-based position.
type IndexedNames struct{}

// Format maps each 1-based position to a name.
func (IndexedNames) Format(machines []domain.Machine) any {
	out := make(map[int]string, len(machines))
	for i := range machines {
		out[i+1] = machines[i].Name
	}
	return out
}

// IndexedInfo yields map[int]domain.MachineInfo keyed by 1-based position.
type IndexedInfo struct{}

// Format maps each 1-based position to a detail record.
func (IndexedInfo) Format(machines []domain.Machine) any {
	out := make(map[int]domain.MachineInfo, len(machines))
	for i := range machines {
		out[i+1] = machines[i].Info()
	}
	return out
}

// New returns the formatter for a shape and key combination.
func New(shape Shape, key Key) (ports.Formatter, error) {
	switch shape {
	case ShapeNames:
		switch key {
		case KeyList:
			return ListNames{}, nil
		case KeyID:
			return IDNames{}, nil
		case KeyIndex:
			return IndexedNames{}, nil
		}
	case ShapeInfo:
		switch key {
		case KeyList:
			return ListInfo{}, nil
		case KeyID:
			return IDInfo{}, nil
		case KeyIndex:
			return IndexedInfo{}, nil
		}
	default:
		return nil, domain.NewValidationError("shape", fmt.Sprintf("unknown shape %q", shape))
	}
	return nil, domain.NewValidationError("key", fmt.Sprintf("unknown key %q", key))
}
