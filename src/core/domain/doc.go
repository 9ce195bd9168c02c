// Package domain contains the catalog model for machine-tool records.
//
// This package defines:
//   - Machine and Requirement: the stored records, joined on the machine name
//   - Enum value types: closed vocabularies validated on every assignment
//   - MachineInfo: the assembled detail record handed to callers
//   - MachineUpdate: partial update payloads and their flattening into columns
//   - Domain Errors: validation, not-found and conflict failures
//
// The package has no dependencies outside the standard library.
package domain
