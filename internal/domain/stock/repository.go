package stock

import (
	"context"

	"opserp/internal/core/id"
)

// Repository defines storage operations for items and allocations.
// Implementations resolve the querier from ctx so that calls made inside
// tx.Manager.RunInTransaction join the running transaction.
type Repository interface {
	// GetItem loads an item with its derived allocated quantity. No locks.
	GetItem(ctx context.Context, itemID id.ID) (*Item, error)

	// GetItemForUpdate loads an item and holds its row lock until the
	// transaction ends. Every ledger mutation starts here.
	GetItemForUpdate(ctx context.Context, itemID id.ID) (*Item, error)

	// ListItems returns items ordered by name.
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)

	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error

	CreateAllocation(ctx context.Context, alloc *Allocation) error
	GetAllocation(ctx context.Context, allocationID id.ID) (*Allocation, error)
	DeleteAllocation(ctx context.Context, allocationID id.ID) error
	ListAllocations(ctx context.Context, itemID id.ID) ([]Allocation, error)
}

// ItemFilter narrows ListItems.
type ItemFilter struct {
	ProjectRef *string
	Search     string
	Limit      int
	Offset     int
}
