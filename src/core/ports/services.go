package ports

import (
	"context"

	"machinetools/src/core/domain"
)

// Formatter shapes an ordered machine list into a caller-facing result.
type Formatter interface {
	// Format never fails; an empty input yields an empty list or mapping.
	Format(machines []domain.Machine) any
}

type operationKey struct{}

// WithOperationID returns a context carrying the ID of the logical operation
// it belongs to, so adapters can tag their logs with the caller's ID.
func WithOperationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, operationKey{}, id)
}

// OperationID returns the operation ID carried by ctx, or "".
func OperationID(ctx context.Context) string {
	id, _ := ctx.Value(operationKey{}).(string)
	return id
}
