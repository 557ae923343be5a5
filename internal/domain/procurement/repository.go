package procurement

import (
	"context"

	"opserp/internal/core/id"
)

// Repository defines storage operations for purchase requests.
type Repository interface {
	Create(ctx context.Context, req *PurchaseRequest) error

	// GetByID loads a request without locking.
	GetByID(ctx context.Context, requestID id.ID) (*PurchaseRequest, error)

	// GetForUpdate loads a request holding its row lock until the transaction ends.
	GetForUpdate(ctx context.Context, requestID id.ID) (*PurchaseRequest, error)

	// Update writes req if the stored version still equals req.Version and
	// bumps req.Version. A stale version yields CONCURRENT_MODIFICATION.
	Update(ctx context.Context, req *PurchaseRequest) error

	Delete(ctx context.Context, requestID id.ID) error

	List(ctx context.Context, filter ListFilter) ([]PurchaseRequest, error)
}
