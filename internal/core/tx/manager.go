// Package tx provides transaction management abstractions.
// Domain services depend on Manager; the Postgres and in-memory stores
// provide the implementations.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// fn either commits entirely or leaves no trace: a returned error rolls back
// every write performed through ctx. Nested calls reuse the transaction
// already carried by ctx, so a service may call another service's
// transactional method and still get all-or-nothing semantics.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
